// Package graph is the family relationship engine: traversal, relationship
// inference, generation assignment, and layout over an immutable snapshot of
// one tree's rows. Every operation here is a pure function of a Context;
// nothing mutates the input rows and nothing touches the database.
package graph

import (
	"github.com/openkin/arbor/internal/store"
)

// Context holds the adjacency maps every graph operation consumes. Build it
// once per snapshot with NewContext; the raw row lists are kept only for
// sibling typing and focus filtering.
type Context struct {
	Members          map[string]store.Member
	ChildToParents   map[string][]string
	ParentToChildren map[string][]string
	Spouses          map[string][]string

	Relationships []store.ParentChild
	Marriages     []store.Marriage
}

// NewContext builds adjacency maps from flat rows in O(V+E). Edges whose
// endpoints are not in the member list are dropped silently: a dangling
// reference is bad data, not a reason to fail a read path.
func NewContext(members []store.Member, relationships []store.ParentChild, marriages []store.Marriage) *Context {
	ctx := &Context{
		Members:          make(map[string]store.Member, len(members)),
		ChildToParents:   make(map[string][]string),
		ParentToChildren: make(map[string][]string),
		Spouses:          make(map[string][]string),
	}

	for _, m := range members {
		ctx.Members[m.ID] = m
	}

	for _, r := range relationships {
		if r.ParentID == r.ChildID {
			continue
		}
		if _, ok := ctx.Members[r.ParentID]; !ok {
			continue
		}
		if _, ok := ctx.Members[r.ChildID]; !ok {
			continue
		}
		ctx.ChildToParents[r.ChildID] = append(ctx.ChildToParents[r.ChildID], r.ParentID)
		ctx.ParentToChildren[r.ParentID] = append(ctx.ParentToChildren[r.ParentID], r.ChildID)
		ctx.Relationships = append(ctx.Relationships, r)
	}

	for _, m := range marriages {
		if m.Spouse1ID == m.Spouse2ID {
			continue
		}
		if _, ok := ctx.Members[m.Spouse1ID]; !ok {
			continue
		}
		if _, ok := ctx.Members[m.Spouse2ID]; !ok {
			continue
		}
		ctx.Spouses[m.Spouse1ID] = append(ctx.Spouses[m.Spouse1ID], m.Spouse2ID)
		ctx.Spouses[m.Spouse2ID] = append(ctx.Spouses[m.Spouse2ID], m.Spouse1ID)
		ctx.Marriages = append(ctx.Marriages, m)
	}

	return ctx
}
