package states

import (
	"github.com/anggasct/hsm/pkg/core"
)

// Node returns the node for id. Callers must not modify it.
func (h *Hierarchy) Node(id core.StateID) (*StateNode, bool) {
	n, ok := h.nodes[id]
	return n, ok
}

// Contains reports whether id is in the hierarchy
func (h *Hierarchy) Contains(id core.StateID) bool {
	_, ok := h.nodes[id]
	return ok
}

// Len returns the number of states
func (h *Hierarchy) Len() int {
	return len(h.nodes)
}

// States returns every state id in declaration order
func (h *Hierarchy) States() []core.StateID {
	out := make([]core.StateID, len(h.declared))
	copy(out, h.declared)
	return out
}

// Roots returns the top-level states in declaration order; empty before Validate
func (h *Hierarchy) Roots() []core.StateID {
	out := make([]core.StateID, len(h.roots))
	copy(out, h.roots)
	return out
}

// Children returns the ordered children of id; empty before Validate
func (h *Hierarchy) Children(id core.StateID) []core.StateID {
	n, ok := h.nodes[id]
	if !ok {
		return nil
	}
	return n.Children
}

// Parent returns the parent of id, or "" for a root or unknown state
func (h *Hierarchy) Parent(id core.StateID) core.StateID {
	if n, ok := h.nodes[id]; ok {
		return n.Parent
	}
	return ""
}

// IsParallel reports whether id is a parallel state
func (h *Hierarchy) IsParallel(id core.StateID) bool {
	n, ok := h.nodes[id]
	return ok && n.Parallel
}

// IsComposite reports whether id has children
func (h *Hierarchy) IsComposite(id core.StateID) bool {
	n, ok := h.nodes[id]
	return ok && n.IsComposite()
}

// IsLeaf reports whether id exists and has no children
func (h *Hierarchy) IsLeaf(id core.StateID) bool {
	n, ok := h.nodes[id]
	return ok && n.IsLeaf()
}

// Ancestors returns id followed by each of its ancestors, leaf to root
func (h *Hierarchy) Ancestors(id core.StateID) []core.StateID {
	var chain []core.StateID
	for cur := id; cur != "" && len(chain) <= len(h.nodes); {
		n, ok := h.nodes[cur]
		if !ok {
			break
		}
		chain = append(chain, cur)
		cur = n.Parent
	}
	return chain
}

// Path returns the chain from the root down to id, inclusive
func (h *Hierarchy) Path(id core.StateID) []core.StateID {
	chain := h.Ancestors(id)
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Depth returns the number of ancestors of id; roots have depth 0
func (h *Hierarchy) Depth(id core.StateID) int {
	return len(h.Ancestors(id)) - 1
}

// IsAncestor reports whether ancestor is a proper ancestor of id
func (h *Hierarchy) IsAncestor(ancestor, id core.StateID) bool {
	if ancestor == id {
		return false
	}
	for _, a := range h.Ancestors(id) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// IsDescendantOrSelf reports whether id is ancestor or lies below it
func (h *Hierarchy) IsDescendantOrSelf(id, ancestor core.StateID) bool {
	return id == ancestor || h.IsAncestor(ancestor, id)
}

// LCA returns the deepest state that is a or b or an ancestor of both.
// It returns "" when they belong to different trees.
func (h *Hierarchy) LCA(a, b core.StateID) core.StateID {
	pa := h.Path(a)
	pb := h.Path(b)

	var lca core.StateID
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			break
		}
		lca = pa[i]
	}
	return lca
}

// ChildToward returns the child of ancestor on the path down to id, or ""
// when ancestor is not a proper ancestor of id
func (h *Hierarchy) ChildToward(ancestor, id core.StateID) core.StateID {
	for cur, steps := id, 0; cur != "" && steps <= len(h.nodes); steps++ {
		n, ok := h.nodes[cur]
		if !ok {
			return ""
		}
		if n.Parent == ancestor {
			return cur
		}
		cur = n.Parent
	}
	return ""
}

// DocumentOrder returns the pre-order position of id; valid after Validate
func (h *Hierarchy) DocumentOrder(id core.StateID) int {
	if i, ok := h.order[id]; ok {
		return i
	}
	return -1
}
