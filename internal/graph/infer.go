package graph

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultMaxGenerations bounds the ancestor walk during inference when the
// caller passes no explicit limit.
const DefaultMaxGenerations = 10

// Kind is the coarse classification of an inferred relationship.
type Kind string

const (
	KindNone        Kind = "none"
	KindSelf        Kind = "self"
	KindSpouse      Kind = "spouse"
	KindSibling     Kind = "sibling"
	KindParent      Kind = "parent"
	KindChild       Kind = "child"
	KindGrandparent Kind = "grandparent"
	KindGrandchild  Kind = "grandchild"
	KindAuntUncle   Kind = "aunt-uncle"
	KindNieceNephew Kind = "niece-nephew"
	KindCousin      Kind = "cousin"
)

// Relation is the inferred relationship of member A to member B.
// Kind none with label "no relationship found" is a normal outcome of a
// bounded search, not an error.
type Relation struct {
	Kind             Kind   `json:"kind"`
	Degree           int    `json:"degree,omitempty"`
	Removal          int    `json:"removal,omitempty"`
	InLaw            bool   `json:"in_law,omitempty"`
	CommonAncestorID string `json:"common_ancestor_id,omitempty"`
	Label            string `json:"label"`
}

// Infer labels the relationship of a to b within maxGenerations of ancestor
// depth. Infer(a, b) and Infer(b, a) agree on cousin degree and removal and
// mirror direction for the parent/child and aunt/uncle cases.
func (c *Context) Infer(aID, bID string, maxGenerations int) Relation {
	if maxGenerations <= 0 {
		maxGenerations = DefaultMaxGenerations
	}

	if aID == bID {
		return Relation{Kind: KindSelf, Label: "self"}
	}
	for _, sp := range c.Spouses[aID] {
		if sp == bID {
			return Relation{Kind: KindSpouse, Label: "spouse"}
		}
	}

	if r := c.bloodRelation(aID, bID, maxGenerations); r.Kind != KindNone {
		return r
	}

	// Spouse bridge: if a's spouse has a blood relationship to b (or b's
	// spouse to a), report the corresponding in-law label.
	for _, sp := range sorted(c.Spouses[aID]) {
		if r := c.bloodRelation(sp, bID, maxGenerations); r.Kind != KindNone {
			r.InLaw = true
			r.Label += " (by marriage)"
			return r
		}
	}
	for _, sp := range sorted(c.Spouses[bID]) {
		if r := c.bloodRelation(aID, sp, maxGenerations); r.Kind != KindNone {
			r.InLaw = true
			r.Label += " (by marriage)"
			return r
		}
	}

	return Relation{Kind: KindNone, Label: "no relationship found"}
}

// bloodRelation classifies a against b by their closest shared ancestor.
func (c *Context) bloodRelation(aID, bID string, maxGenerations int) Relation {
	if aID == bID {
		return Relation{Kind: KindNone}
	}
	distA := c.ancestorDistances(aID, maxGenerations)
	distB := c.ancestorDistances(bID, maxGenerations)

	// Closest common ancestor by total distance; ties broken by smallest
	// ancestor id so double-cousin cases resolve deterministically.
	best := ""
	bestTotal := -1
	for id, da := range distA {
		db, ok := distB[id]
		if !ok {
			continue
		}
		total := da + db
		if bestTotal < 0 || total < bestTotal || (total == bestTotal && id < best) {
			best = id
			bestTotal = total
		}
	}
	if best == "" {
		return Relation{Kind: KindNone}
	}

	da, db := distA[best], distB[best]
	r := Relation{CommonAncestorID: best}

	switch {
	case da == 0:
		// a is b's direct ancestor
		r.Removal = db
		switch db {
		case 1:
			r.Kind, r.Label = KindParent, "parent"
		case 2:
			r.Kind, r.Label = KindGrandparent, "grandparent"
		default:
			r.Kind = KindGrandparent
			r.Label = strings.Repeat("great-", db-2) + "grandparent"
		}
	case db == 0:
		r.Removal = da
		switch da {
		case 1:
			r.Kind, r.Label = KindChild, "child"
		case 2:
			r.Kind, r.Label = KindGrandchild, "grandchild"
		default:
			r.Kind = KindGrandchild
			r.Label = strings.Repeat("great-", da-2) + "grandchild"
		}
	case da == 1 && db == 1:
		r.Kind, r.Label = KindSibling, "sibling"
	case da == 1 && db == 2:
		r.Kind, r.Label = KindAuntUncle, "aunt/uncle"
	case da == 2 && db == 1:
		r.Kind, r.Label = KindNieceNephew, "niece/nephew"
	default:
		r.Kind = KindCousin
		r.Degree = min(da, db) - 1
		r.Removal = abs(da - db)
		r.Label = cousinLabel(r.Degree, r.Removal)
	}
	return r
}

// ancestorDistances maps each ancestor id (the member itself included at 0)
// to its generation distance, capped at maxGenerations.
func (c *Context) ancestorDistances(id string, maxGenerations int) map[string]int {
	dist := map[string]int{id: 0}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := dist[cur]
		if d >= maxGenerations {
			continue
		}
		for _, p := range c.ChildToParents[cur] {
			if _, seen := dist[p]; seen {
				continue
			}
			dist[p] = d + 1
			queue = append(queue, p)
		}
	}
	return dist
}

func cousinLabel(degree, removal int) string {
	label := ordinal(degree) + " cousin"
	if degree < 1 {
		label = "cousin"
	}
	switch removal {
	case 0:
	case 1:
		label += " once removed"
	case 2:
		label += " twice removed"
	default:
		label += fmt.Sprintf(" %d times removed", removal)
	}
	return label
}

func ordinal(n int) string {
	switch n {
	case 1:
		return "first"
	case 2:
		return "second"
	case 3:
		return "third"
	case 4:
		return "fourth"
	case 5:
		return "fifth"
	default:
		return fmt.Sprintf("%dth", n)
	}
}

func sorted(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
