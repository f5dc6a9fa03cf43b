package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/openkin/arbor/internal/store"
)

// Point is a 2-D layout coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Connector is one drawn line from a parent anchor down to a child. When the
// child's parents are married to each other the anchor is the marriage
// midpoint and FromMarriage is set; otherwise each parent gets its own
// connector anchored at the parent's position.
type Connector struct {
	ChildID      string   `json:"child_id"`
	ParentIDs    []string `json:"parent_ids"`
	FromMarriage bool     `json:"from_marriage"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
}

// Layout is the positioned view of one tree in one mode. Identical inputs
// yield bit-identical layouts; everything is ordered deterministically.
type Layout struct {
	Mode        string           `json:"mode"`
	Positions   map[string]Point `json:"positions"`
	Connectors  []Connector      `json:"connectors"`
	Order       []string         `json:"order"`
	Generations map[string]int   `json:"generations"`
}

// LayoutEngine computes layouts and writes results through an injected
// bounded LRU cache. The cache is never global state; tests construct their
// own to assert hit and eviction behavior.
type LayoutEngine struct {
	cache    *lru.Cache[string, *Layout]
	SpacingX float64
	SpacingY float64
}

// NewLayoutEngine wraps an injected cache. A nil cache disables caching.
func NewLayoutEngine(cache *lru.Cache[string, *Layout]) *LayoutEngine {
	return &LayoutEngine{cache: cache, SpacingX: 120, SpacingY: 140}
}

// Digest keys the layout cache: a hash of the sorted member, relationship and
// marriage ids plus the view mode. Identical keys always map to identical layouts.
func Digest(c *Context, mode string) string {
	h := sha256.New()
	write := func(ids []string) {
		sort.Strings(ids)
		for _, id := range ids {
			h.Write([]byte(id))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
	}

	memberIDs := make([]string, 0, len(c.Members))
	for id := range c.Members {
		memberIDs = append(memberIDs, id)
	}
	write(memberIDs)

	relIDs := make([]string, 0, len(c.Relationships))
	for _, r := range c.Relationships {
		relIDs = append(relIDs, r.ID)
	}
	write(relIDs)

	marIDs := make([]string, 0, len(c.Marriages))
	for _, m := range c.Marriages {
		marIDs = append(marIDs, m.ID)
	}
	write(marIDs)

	h.Write([]byte(mode))
	return hex.EncodeToString(h.Sum(nil))
}

// Hierarchical positions members as a tree: couples in adjacent slots,
// children centered beneath their parents.
func (e *LayoutEngine) Hierarchical(c *Context) *Layout {
	key := Digest(c, "hierarchical")
	if e.cache != nil {
		if l, ok := e.cache.Get(key); ok {
			return l
		}
	}
	l := e.hierarchical(c)
	if e.cache != nil {
		e.cache.Add(key, l)
	}
	return l
}

// Generation positions members in horizontal bands by generation number.
func (e *LayoutEngine) Generation(c *Context) *Layout {
	key := Digest(c, "generation")
	if e.cache != nil {
		if l, ok := e.cache.Get(key); ok {
			return l
		}
	}
	l := e.generation(c)
	if e.cache != nil {
		e.cache.Add(key, l)
	}
	return l
}

// unit is one horizontal block: a married couple or a single member.
type unit struct {
	members  []string // 1 or 2, couple ordered by id
	children []*unit
	attached bool
	placed   bool
}

func (e *LayoutEngine) hierarchical(c *Context) *Layout {
	gens := c.Generations()
	l := &Layout{
		Mode:        "hierarchical",
		Positions:   make(map[string]Point),
		Generations: gens,
	}

	// Couple units from marriages in id order, then singles.
	unitOf := make(map[string]*unit)
	var units []*unit
	for _, m := range sortedMarriages(c.Marriages) {
		if unitOf[m.Spouse1ID] != nil || unitOf[m.Spouse2ID] != nil {
			continue
		}
		a, b := m.Spouse1ID, m.Spouse2ID
		if b < a {
			a, b = b, a
		}
		u := &unit{members: []string{a, b}}
		unitOf[a], unitOf[b] = u, u
		units = append(units, u)
	}
	for _, id := range sortedMemberIDs(c) {
		if unitOf[id] == nil {
			u := &unit{members: []string{id}}
			unitOf[id] = u
			units = append(units, u)
		}
	}

	// Attach each child's unit beneath one parent unit: the unit holding a
	// married parent pair when there is one, else the first parent by id.
	for _, id := range sortedMemberIDs(c) {
		parents := sorted(c.ChildToParents[id])
		if len(parents) == 0 {
			continue
		}
		cu := unitOf[id]
		if cu.attached {
			continue
		}
		target := unitOf[parents[0]]
	pair:
		for i := range parents {
			for j := i + 1; j < len(parents); j++ {
				if unitOf[parents[i]] == unitOf[parents[j]] {
					target = unitOf[parents[i]]
					break pair
				}
			}
		}
		if target == nil || target == cu {
			continue
		}
		target.children = append(target.children, cu)
		cu.attached = true
	}

	// Place roots (unattached units) left to right; widths are computed
	// bottom-up so children center under their parents.
	widths := make(map[*unit]float64)
	var measure func(u *unit, trail map[*unit]bool) float64
	measure = func(u *unit, trail map[*unit]bool) float64 {
		if w, ok := widths[u]; ok {
			return w
		}
		if trail[u] {
			return float64(len(u.members)) * e.SpacingX
		}
		trail[u] = true
		own := float64(len(u.members)) * e.SpacingX
		var kids float64
		for _, child := range u.children {
			kids += measure(child, trail)
		}
		delete(trail, u)
		w := own
		if kids > w {
			w = kids
		}
		widths[u] = w
		return w
	}

	var place func(u *unit, left float64)
	place = func(u *unit, left float64) {
		if u.placed {
			return
		}
		u.placed = true
		w := measure(u, map[*unit]bool{})

		// Center the child block within the unit's width so a lone child
		// sits beneath the middle of its parents, not under the left one.
		var kids float64
		for _, child := range u.children {
			kids += measure(child, map[*unit]bool{})
		}
		childLeft := left + (w-kids)/2
		for _, child := range u.children {
			place(child, childLeft)
			childLeft += measure(child, map[*unit]bool{})
		}

		// Unit generation: the deepest member, so couples share one row.
		ug := 0
		for _, id := range u.members {
			if g := gens[id]; g > ug {
				ug = g
			}
		}

		center := left + w/2
		if len(u.members) == 2 {
			l.Positions[u.members[0]] = Point{X: center - e.SpacingX/2, Y: float64(ug) * e.SpacingY}
			l.Positions[u.members[1]] = Point{X: center + e.SpacingX/2, Y: float64(ug) * e.SpacingY}
		} else {
			l.Positions[u.members[0]] = Point{X: center, Y: float64(ug) * e.SpacingY}
		}
		l.Order = append(l.Order, u.members...)
	}

	cursor := 0.0
	for _, u := range units {
		if u.attached {
			continue
		}
		place(u, cursor)
		cursor += measure(u, map[*unit]bool{})
	}
	// Anything left is attached under a unit that was itself never reached
	// (cyclic data); lay it out flat so the result stays total.
	for _, u := range units {
		if !u.placed {
			place(u, cursor)
			cursor += measure(u, map[*unit]bool{})
		}
	}

	l.Connectors = buildConnectors(c, l.Positions)
	return l
}

func (e *LayoutEngine) generation(c *Context) *Layout {
	gens := c.Generations()
	l := &Layout{
		Mode:        "generation",
		Positions:   make(map[string]Point),
		Generations: gens,
	}

	byGen := make(map[int][]string)
	maxGen := 0
	for _, id := range sortedMemberIDs(c) {
		g := gens[id]
		byGen[g] = append(byGen[g], id)
		if g > maxGen {
			maxGen = g
		}
	}

	for g := 0; g <= maxGen; g++ {
		slot := 0
		placed := make(map[string]bool)
		for _, id := range byGen[g] {
			if placed[id] {
				continue
			}
			l.Positions[id] = Point{X: float64(slot) * e.SpacingX, Y: float64(g) * e.SpacingY}
			l.Order = append(l.Order, id)
			placed[id] = true
			slot++
			// Keep couples adjacent within the band.
			for _, sp := range sorted(c.Spouses[id]) {
				if gens[sp] != g || placed[sp] {
					continue
				}
				l.Positions[sp] = Point{X: float64(slot) * e.SpacingX, Y: float64(g) * e.SpacingY}
				l.Order = append(l.Order, sp)
				placed[sp] = true
				slot++
			}
		}
	}

	l.Connectors = buildConnectors(c, l.Positions)
	return l
}

// buildConnectors emits one connector per married-couple→child link, anchored
// at the marriage midpoint, and one per remaining lone parent.
func buildConnectors(c *Context, positions map[string]Point) []Connector {
	married := func(a, b string) bool {
		for _, sp := range c.Spouses[a] {
			if sp == b {
				return true
			}
		}
		return false
	}

	var out []Connector
	for _, child := range sortedMemberIDs(c) {
		parents := sorted(c.ChildToParents[child])
		if len(parents) == 0 {
			continue
		}
		var present []string
		for _, p := range parents {
			if _, ok := positions[p]; ok {
				present = append(present, p)
			}
		}

		used := make(map[string]bool)
		for i := 0; i < len(present); i++ {
			if used[present[i]] {
				continue
			}
			for j := i + 1; j < len(present); j++ {
				if used[present[j]] || !married(present[i], present[j]) {
					continue
				}
				p1, p2 := positions[present[i]], positions[present[j]]
				out = append(out, Connector{
					ChildID:      child,
					ParentIDs:    []string{present[i], present[j]},
					FromMarriage: true,
					X:            (p1.X + p2.X) / 2,
					Y:            (p1.Y + p2.Y) / 2,
				})
				used[present[i]], used[present[j]] = true, true
				break
			}
		}
		for _, p := range present {
			if used[p] {
				continue
			}
			pos := positions[p]
			out = append(out, Connector{
				ChildID:   child,
				ParentIDs: []string{p},
				X:         pos.X,
				Y:         pos.Y,
			})
		}
	}
	return out
}

func sortedMemberIDs(c *Context) []string {
	ids := make([]string, 0, len(c.Members))
	for id := range c.Members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedMarriages(marriages []store.Marriage) []store.Marriage {
	out := append([]store.Marriage(nil), marriages...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
