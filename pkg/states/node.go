// Package states provides the state node and the validated state hierarchy
package states

import (
	"github.com/anggasct/hsm/pkg/core"
)

// StateNode is one state in a hierarchy
type StateNode struct {
	ID           core.StateID
	Parent       core.StateID
	InitialChild core.StateID
	Parallel     bool
	Entry        core.Action
	Exit         core.Action
	Handlers     map[core.EventKind]core.TransitionSpec

	// Children is derived from parent links in declaration order by Validate
	Children []core.StateID
}

// IsRoot returns whether the node has no parent
func (n *StateNode) IsRoot() bool {
	return n.Parent == ""
}

// IsComposite returns whether the node has children
func (n *StateNode) IsComposite() bool {
	return len(n.Children) > 0
}

// IsLeaf returns whether the node has no children
func (n *StateNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// Handler returns the node's own handler for an event kind
func (n *StateNode) Handler(kind core.EventKind) (core.TransitionSpec, bool) {
	spec, ok := n.Handlers[kind]
	return spec, ok
}
