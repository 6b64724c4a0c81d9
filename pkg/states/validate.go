package states

import (
	"sort"
	"strings"

	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/utils"
)

const (
	unvisited = iota
	visiting
	visited
)

// Validate checks that the hierarchy is a forest in which every composite
// non-parallel state has an initial child among its children, and that every
// handler points at a usable target. On success the topology is frozen.
// On failure it returns a *utils.StructuralError listing every issue.
func (h *Hierarchy) Validate() error {
	if h.validated {
		return nil
	}

	errs := &utils.StructuralError{}

	for _, id := range h.declared {
		n := h.nodes[id]
		if n.Parent == "" {
			continue
		}
		if n.Parent == id {
			errs.AddIssue(utils.Cycle, string(id), "state is its own parent")
			continue
		}
		if _, ok := h.nodes[n.Parent]; !ok {
			errs.AddIssue(utils.DanglingParent, string(id), "parent %q does not exist", n.Parent)
		}
	}

	h.checkCycles(errs)

	children := h.buildChildren()

	for _, id := range h.declared {
		n := h.nodes[id]
		kids := children[id]

		if len(kids) == 0 || n.Parallel {
			if len(kids) == 0 && n.InitialChild != "" {
				errs.AddIssue(utils.MissingInitialChild, string(id),
					"initial child %q set on a leaf state", n.InitialChild)
			}
			continue
		}

		if n.InitialChild == "" {
			errs.AddIssue(utils.MissingInitialChild, string(id), "composite state has no initial child")
		} else if !containsID(kids, n.InitialChild) {
			errs.AddIssue(utils.MissingInitialChild, string(id),
				"initial child %q is not a child of this state", n.InitialChild)
		}
	}

	for _, id := range h.declared {
		h.checkHandlers(h.nodes[id], children, errs)
	}

	if errs.HasIssues() {
		return errs
	}

	h.freeze(children)
	return nil
}

func (h *Hierarchy) checkCycles(errs *utils.StructuralError) {
	marks := make(map[core.StateID]int, len(h.nodes))

	for _, id := range h.declared {
		var path []core.StateID
		cur := id

		for {
			if marks[cur] == visited {
				break
			}
			if marks[cur] == visiting {
				start := 0
				for i, p := range path {
					if p == cur {
						start = i
						break
					}
				}
				members := make([]string, 0, len(path)-start)
				for _, p := range path[start:] {
					members = append(members, string(p))
				}
				if len(members) > 1 {
					errs.AddIssue(utils.Cycle, string(cur), "parent chain loops: %s", strings.Join(members, " -> "))
				}
				break
			}

			n, ok := h.nodes[cur]
			if !ok {
				break
			}
			marks[cur] = visiting
			path = append(path, cur)

			if n.Parent == "" {
				break
			}
			if _, ok := h.nodes[n.Parent]; !ok {
				break
			}
			cur = n.Parent
		}

		for _, p := range path {
			marks[p] = visited
		}
	}
}

func (h *Hierarchy) buildChildren() map[core.StateID][]core.StateID {
	children := make(map[core.StateID][]core.StateID)
	for _, id := range h.declared {
		n := h.nodes[id]
		if n.Parent == "" || n.Parent == id {
			continue
		}
		if _, ok := h.nodes[n.Parent]; ok {
			children[n.Parent] = append(children[n.Parent], id)
		}
	}
	return children
}

func (h *Hierarchy) checkHandlers(n *StateNode, children map[core.StateID][]core.StateID, errs *utils.StructuralError) {
	kinds := make([]string, 0, len(n.Handlers))
	for kind := range n.Handlers {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	for _, k := range kinds {
		spec := n.Handlers[core.EventKind(k)]

		if spec.Target == "" {
			if spec.IsHistory() {
				errs.AddIssue(utils.OrphanHistoryTarget, string(n.ID),
					"history transition on %q has no target", k)
			}
			continue
		}

		if _, ok := h.nodes[spec.Target]; !ok {
			errs.AddIssue(utils.UnknownTarget, string(n.ID),
				"handler for %q targets unknown state %q", k, spec.Target)
			continue
		}

		if spec.IsHistory() && len(children[spec.Target]) == 0 {
			errs.AddIssue(utils.OrphanHistoryTarget, string(n.ID),
				"history transition on %q targets leaf state %q", k, spec.Target)
		}

		if spec.Internal && !h.onChain(n.ID, spec.Target) {
			errs.AddIssue(utils.InvalidInternalTarget, string(n.ID),
				"internal transition on %q targets %q outside the owner's ancestor chain", k, spec.Target)
		}
	}
}

// onChain reports whether target is id or one of its ancestors, tolerating cycles
func (h *Hierarchy) onChain(id, target core.StateID) bool {
	cur := id
	for steps := 0; cur != "" && steps <= len(h.nodes); steps++ {
		if cur == target {
			return true
		}
		n, ok := h.nodes[cur]
		if !ok {
			return false
		}
		cur = n.Parent
	}
	return false
}

func (h *Hierarchy) freeze(children map[core.StateID][]core.StateID) {
	h.roots = h.roots[:0]
	for _, id := range h.declared {
		n := h.nodes[id]
		n.Children = children[id]
		if n.Parent == "" {
			h.roots = append(h.roots, id)
		}
	}

	// pre-order numbering gives configurations a stable document order
	idx := 0
	stack := make([]core.StateID, 0, len(h.nodes))
	for i := len(h.roots) - 1; i >= 0; i-- {
		stack = append(stack, h.roots[i])
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		h.order[id] = idx
		idx++
		kids := h.nodes[id].Children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}

	h.validated = true
}

func containsID(ids []core.StateID, id core.StateID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
