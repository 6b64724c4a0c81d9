package states

import (
	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/utils"
)

// Hierarchy owns every state node of one or more top-level machines.
// It is built with the construction methods, then frozen by Validate.
type Hierarchy struct {
	nodes     map[core.StateID]*StateNode
	declared  []core.StateID
	roots     []core.StateID
	order     map[core.StateID]int
	validated bool
}

// NewHierarchy creates an empty hierarchy
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		nodes: make(map[core.StateID]*StateNode),
		order: make(map[core.StateID]int),
	}
}

// AddState adds a node. Children are ignored; they are derived from parent links.
func (h *Hierarchy) AddState(node StateNode) error {
	if h.validated {
		return utils.ErrHierarchyFrozen.WithState(string(node.ID))
	}
	if node.ID == "" {
		return utils.ErrInvalidState.WithDetail("reason", "empty state id")
	}
	if _, exists := h.nodes[node.ID]; exists {
		return utils.ErrDuplicateState.WithState(string(node.ID))
	}

	handlers := make(map[core.EventKind]core.TransitionSpec, len(node.Handlers))
	for kind, spec := range node.Handlers {
		handlers[kind] = spec
	}
	node.Handlers = handlers
	node.Children = nil

	h.nodes[node.ID] = &node
	h.declared = append(h.declared, node.ID)
	return nil
}

// SetParent changes a node's parent
func (h *Hierarchy) SetParent(id, parent core.StateID) error {
	n, err := h.mutable(id)
	if err != nil {
		return err
	}
	n.Parent = parent
	return nil
}

// SetInitialChild sets the child entered when no history applies
func (h *Hierarchy) SetInitialChild(parent, child core.StateID) error {
	n, err := h.mutable(parent)
	if err != nil {
		return err
	}
	n.InitialChild = child
	return nil
}

// SetParallel marks a node's children as orthogonal regions
func (h *Hierarchy) SetParallel(id core.StateID, parallel bool) error {
	n, err := h.mutable(id)
	if err != nil {
		return err
	}
	n.Parallel = parallel
	return nil
}

// OnEntry sets a node's entry action
func (h *Hierarchy) OnEntry(id core.StateID, action core.Action) error {
	n, err := h.mutable(id)
	if err != nil {
		return err
	}
	n.Entry = action
	return nil
}

// OnExit sets a node's exit action
func (h *Hierarchy) OnExit(id core.StateID, action core.Action) error {
	n, err := h.mutable(id)
	if err != nil {
		return err
	}
	n.Exit = action
	return nil
}

// AddHandler registers what a node does with an event kind, replacing any previous handler
func (h *Hierarchy) AddHandler(id core.StateID, kind core.EventKind, spec core.TransitionSpec) error {
	n, err := h.mutable(id)
	if err != nil {
		return err
	}
	n.Handlers[kind] = spec
	return nil
}

func (h *Hierarchy) mutable(id core.StateID) (*StateNode, error) {
	if h.validated {
		return nil, utils.ErrHierarchyFrozen.WithState(string(id))
	}
	n, ok := h.nodes[id]
	if !ok {
		return nil, utils.ErrStateNotFound.WithState(string(id))
	}
	return n, nil
}

// Validated returns whether Validate has succeeded
func (h *Hierarchy) Validated() bool {
	return h.validated
}
