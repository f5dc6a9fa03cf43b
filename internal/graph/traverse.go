package graph

import (
	"sort"

	"github.com/openkin/arbor/internal/store"
)

// Ancestors returns the set of ids reachable from id going parent-ward.
// With includeSpouses, every visited ancestor's spouses join the result and
// their parents are enqueued too, so in-laws enter the view transitively.
// The member itself is never in the result. A visited set guards against
// cyclic data even though the model should be acyclic.
func (c *Context) Ancestors(id string, includeSpouses bool) map[string]bool {
	result := make(map[string]bool)
	visited := map[string]bool{id: true}

	queue := append([]string(nil), c.ChildToParents[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if _, ok := c.Members[cur]; !ok {
			continue
		}
		result[cur] = true
		queue = append(queue, c.ChildToParents[cur]...)

		if includeSpouses {
			for _, sp := range c.Spouses[cur] {
				if visited[sp] {
					continue
				}
				visited[sp] = true
				if _, ok := c.Members[sp]; ok {
					result[sp] = true
				}
				queue = append(queue, c.ChildToParents[sp]...)
			}
		}
	}

	delete(result, id)
	return result
}

// Descendants is the child-ward mirror of Ancestors. The walk is seeded from
// the member's own children plus the children of the member's spouses, so
// step-children are part of the descendant view. With includeSpouses, each
// visited descendant pulls in its spouses and their children.
func (c *Context) Descendants(id string, includeSpouses bool) map[string]bool {
	result := make(map[string]bool)
	visited := map[string]bool{id: true}

	queue := append([]string(nil), c.ParentToChildren[id]...)
	for _, sp := range c.Spouses[id] {
		queue = append(queue, c.ParentToChildren[sp]...)
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if visited[cur] {
			continue
		}
		visited[cur] = true
		if _, ok := c.Members[cur]; !ok {
			continue
		}
		result[cur] = true
		queue = append(queue, c.ParentToChildren[cur]...)

		if includeSpouses {
			for _, sp := range c.Spouses[cur] {
				if visited[sp] {
					continue
				}
				visited[sp] = true
				if _, ok := c.Members[sp]; ok {
					result[sp] = true
				}
				queue = append(queue, c.ParentToChildren[sp]...)
			}
		}
	}

	delete(result, id)
	return result
}

// SiblingType classifies how two children are related through their parents.
type SiblingType string

const (
	SiblingFull SiblingType = "full"
	SiblingHalf SiblingType = "half"
	SiblingStep SiblingType = "step"
)

// Sibling is one derived sibling of a member. Sibling rows are never
// persisted; they are recomputed from parent overlap on every call.
type Sibling struct {
	MemberID string      `json:"member_id"`
	Type     SiblingType `json:"type"`
}

// Siblings returns the member's siblings sorted by id. Classification counts
// shared parents: two or more shared through non-step rows means full, exactly
// one means half, and a connection that exists only through step rows means
// step. A shared adopted or foster parent counts toward full/half the same as
// a biological one; that is deliberate, documented policy.
func (c *Context) Siblings(id string) []Sibling {
	// Per (parent, child) pair, whether any non-step row links them.
	nonStep := make(map[[2]string]bool)
	for _, r := range c.Relationships {
		if r.Type != "step" {
			nonStep[[2]string{r.ParentID, r.ChildID}] = true
		}
	}

	myParents := c.ChildToParents[id]
	if len(myParents) == 0 {
		return nil
	}
	mine := make(map[string]bool, len(myParents))
	for _, p := range myParents {
		mine[p] = true
	}

	candidates := make(map[string]bool)
	for _, p := range myParents {
		for _, child := range c.ParentToChildren[p] {
			if child != id {
				candidates[child] = true
			}
		}
	}

	var siblings []Sibling
	for other := range candidates {
		sharedSolid := 0
		sharedAny := 0
		for _, p := range c.ChildToParents[other] {
			if !mine[p] {
				continue
			}
			sharedAny++
			if nonStep[[2]string{p, id}] && nonStep[[2]string{p, other}] {
				sharedSolid++
			}
		}
		if sharedAny == 0 {
			continue
		}

		var st SiblingType
		switch {
		case sharedSolid >= 2:
			st = SiblingFull
		case sharedSolid == 1:
			st = SiblingHalf
		default:
			st = SiblingStep
		}
		siblings = append(siblings, Sibling{MemberID: other, Type: st})
	}

	sort.Slice(siblings, func(i, j int) bool { return siblings[i].MemberID < siblings[j].MemberID })
	return siblings
}

// FocusMode restricts the visible graph relative to a focus member.
type FocusMode string

const (
	FocusAll         FocusMode = "all"
	FocusAncestors   FocusMode = "ancestors"
	FocusDescendants FocusMode = "descendants"
)

// FocusResult is the filtered view of a tree: only rows whose endpoints are
// all inside the reachable set survive.
type FocusResult struct {
	Members       []store.Member      `json:"members"`
	Relationships []store.ParentChild `json:"relationships"`
	Marriages     []store.Marriage    `json:"marriages"`
}

// FocusFilter computes the reachable id set for a mode, always including the
// focus member and its direct spouses, then filters rows to the set.
func (c *Context) FocusFilter(mode FocusMode, focusID string) FocusResult {
	keep := make(map[string]bool)

	switch mode {
	case FocusAncestors:
		keep = c.Ancestors(focusID, true)
	case FocusDescendants:
		keep = c.Descendants(focusID, true)
	default:
		for id := range c.Members {
			keep[id] = true
		}
	}
	keep[focusID] = true
	for _, sp := range c.Spouses[focusID] {
		keep[sp] = true
	}

	var result FocusResult
	ids := make([]string, 0, len(keep))
	for id := range keep {
		if _, ok := c.Members[id]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		result.Members = append(result.Members, c.Members[id])
	}
	for _, r := range c.Relationships {
		if keep[r.ParentID] && keep[r.ChildID] {
			result.Relationships = append(result.Relationships, r)
		}
	}
	for _, m := range c.Marriages {
		if keep[m.Spouse1ID] && keep[m.Spouse2ID] {
			result.Marriages = append(result.Marriages, m)
		}
	}
	return result
}
