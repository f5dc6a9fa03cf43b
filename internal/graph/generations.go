package graph

import "sort"

// Generations assigns every member an integer depth. Members with no parent
// rows are roots at generation 0 and carry their spouses with them; a child
// settles at max(existing, parent+1) so remarriages and multi-parent paths
// converge to the deepest consistent value. Members unreached by the walk
// (disconnected subtrees with cyclic parent data) default to 0.
func (c *Context) Generations() map[string]int {
	gen := make(map[string]int, len(c.Members))

	var roots []string
	for id := range c.Members {
		if len(c.ChildToParents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)

	queue := make([]string, 0, len(roots))
	for _, id := range roots {
		gen[id] = 0
		queue = append(queue, id)
	}

	// Depth can never legitimately exceed the member count; anything deeper
	// is a cycle feeding back into itself.
	maxDepth := len(c.Members)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		g := gen[cur]

		for _, sp := range c.Spouses[cur] {
			if _, seen := gen[sp]; !seen {
				gen[sp] = g
				queue = append(queue, sp)
			}
		}

		for _, child := range c.ParentToChildren[cur] {
			next := g + 1
			if next > maxDepth {
				continue
			}
			if existing, seen := gen[child]; !seen || next > existing {
				gen[child] = next
				queue = append(queue, child)
			}
		}
	}

	for id := range c.Members {
		if _, seen := gen[id]; !seen {
			gen[id] = 0
		}
	}
	return gen
}
