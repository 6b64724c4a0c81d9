// Package builders provides fluent builders for constructing state hierarchies
package builders

import (
	"go.uber.org/zap"

	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/engine"
	"github.com/anggasct/hsm/pkg/states"
	"github.com/anggasct/hsm/pkg/utils"
)

// StateMachineBuilder provides a fluent interface for building a hierarchy
// and the machine that runs it. Mistakes are collected and reported by Build.
type StateMachineBuilder struct {
	name string
	h    *states.Hierarchy
	errs *utils.ErrorCollector
	opts []engine.Option
}

// StateBuilder provides a fluent interface for configuring one state
type StateBuilder struct {
	builder *StateMachineBuilder
	id      core.StateID
}

// TransitionBuilder provides a fluent interface for configuring one handler
type TransitionBuilder struct {
	builder *StateMachineBuilder
	from    core.StateID
	event   core.EventKind
	spec    core.TransitionSpec
	failed  bool
}

// NewStateMachineBuilder creates a builder; name becomes the machine id
func NewStateMachineBuilder(name string) *StateMachineBuilder {
	b := &StateMachineBuilder{
		name: name,
		h:    states.NewHierarchy(),
		errs: utils.NewErrorCollector(),
	}
	if name != "" {
		b.opts = append(b.opts, engine.WithID(name))
	}
	return b
}

func (b *StateMachineBuilder) add(node states.StateNode) *StateBuilder {
	b.errs.Add(b.h.AddState(node))
	return &StateBuilder{builder: b, id: node.ID}
}

// WithState adds a state. It becomes a root unless WithParent is used.
func (b *StateMachineBuilder) WithState(id core.StateID) *StateBuilder {
	return b.add(states.StateNode{ID: id})
}

// WithCompositeState adds a composite state entered through initial
func (b *StateMachineBuilder) WithCompositeState(id, initial core.StateID) *StateBuilder {
	return b.add(states.StateNode{ID: id, InitialChild: initial})
}

// WithParallelState adds a parallel state; its children are its regions
func (b *StateMachineBuilder) WithParallelState(id core.StateID) *StateBuilder {
	return b.add(states.StateNode{ID: id, Parallel: true})
}

// WithChildState adds child under parent
func (b *StateMachineBuilder) WithChildState(parent, child core.StateID) *StateBuilder {
	return b.add(states.StateNode{ID: child, Parent: parent})
}

// WithInitialChildState sets the initial child of composite
func (b *StateMachineBuilder) WithInitialChildState(composite, child core.StateID) *StateMachineBuilder {
	b.errs.Add(b.h.SetInitialChild(composite, child))
	return b
}

// State returns a builder for a state that was already added
func (b *StateMachineBuilder) State(id core.StateID) *StateBuilder {
	if !b.h.Contains(id) {
		b.errs.Add(utils.ErrStateNotFound.WithState(string(id)))
	}
	return &StateBuilder{builder: b, id: id}
}

// WithTransition adds an external transition handled by from
func (b *StateMachineBuilder) WithTransition(from, to core.StateID, event core.EventKind) *TransitionBuilder {
	tb := &TransitionBuilder{builder: b, from: from, event: event, spec: core.TransitionSpec{Target: to}}
	tb.commit()
	return tb
}

// WithInternalTransition adds a handler on state that runs an action
// without leaving any state
func (b *StateMachineBuilder) WithInternalTransition(state core.StateID, event core.EventKind, action core.Action) *TransitionBuilder {
	tb := &TransitionBuilder{builder: b, from: state, event: event, spec: core.TransitionSpec{Action: action, Internal: true}}
	tb.commit()
	return tb
}

// WithObserver registers an observer on machines built by BuildMachine
func (b *StateMachineBuilder) WithObserver(observer engine.Observer) *StateMachineBuilder {
	b.opts = append(b.opts, engine.WithObserver(observer))
	return b
}

// WithLogger sets the logger of machines built by BuildMachine
func (b *StateMachineBuilder) WithLogger(logger *zap.SugaredLogger) *StateMachineBuilder {
	b.opts = append(b.opts, engine.WithLogger(logger))
	return b
}

// WithRoot selects the root run by BuildMachine when there are several
func (b *StateMachineBuilder) WithRoot(root core.StateID) *StateMachineBuilder {
	b.opts = append(b.opts, engine.WithRoot(root))
	return b
}

// Build validates and returns the hierarchy. Construction mistakes are
// returned before validation runs.
func (b *StateMachineBuilder) Build() (*states.Hierarchy, error) {
	if b.errs.HasErrors() {
		return nil, b.errs
	}
	if err := b.h.Validate(); err != nil {
		return nil, err
	}
	return b.h, nil
}

// BuildMachine builds the hierarchy and a stopped machine over it
func (b *StateMachineBuilder) BuildMachine(opts ...engine.Option) (*engine.Machine, error) {
	h, err := b.Build()
	if err != nil {
		return nil, err
	}
	return engine.NewMachine(h, append(append([]engine.Option{}, b.opts...), opts...)...)
}

// WithParent places the state under parent
func (sb *StateBuilder) WithParent(parent core.StateID) *StateBuilder {
	sb.builder.errs.Add(sb.builder.h.SetParent(sb.id, parent))
	return sb
}

// WithInitialChild sets the child entered by default
func (sb *StateBuilder) WithInitialChild(child core.StateID) *StateBuilder {
	sb.builder.errs.Add(sb.builder.h.SetInitialChild(sb.id, child))
	return sb
}

// AsParallel marks the state parallel
func (sb *StateBuilder) AsParallel() *StateBuilder {
	sb.builder.errs.Add(sb.builder.h.SetParallel(sb.id, true))
	return sb
}

// WithEntryAction sets the entry action
func (sb *StateBuilder) WithEntryAction(action core.Action) *StateBuilder {
	sb.builder.errs.Add(sb.builder.h.OnEntry(sb.id, action))
	return sb
}

// WithExitAction sets the exit action
func (sb *StateBuilder) WithExitAction(action core.Action) *StateBuilder {
	sb.builder.errs.Add(sb.builder.h.OnExit(sb.id, action))
	return sb
}

// WithChild adds a child of this state and returns its builder
func (sb *StateBuilder) WithChild(id core.StateID) *StateBuilder {
	return sb.builder.WithChildState(sb.id, id)
}

// On adds an external transition from this state
func (sb *StateBuilder) On(event core.EventKind, to core.StateID) *TransitionBuilder {
	return sb.builder.WithTransition(sb.id, to, event)
}

// Done returns the parent builder to continue the fluent chain
func (sb *StateBuilder) Done() *StateMachineBuilder {
	return sb.builder
}

// commit stores the current spec, replacing what was stored before. Only
// the first failure is reported.
func (tb *TransitionBuilder) commit() {
	if err := tb.builder.h.AddHandler(tb.from, tb.event, tb.spec); err != nil && !tb.failed {
		tb.failed = true
		tb.builder.errs.Add(err)
	}
}

// WithGuard adds a guard condition to the transition
func (tb *TransitionBuilder) WithGuard(guard core.Guard) *TransitionBuilder {
	tb.spec.Guard = guard
	tb.commit()
	return tb
}

// WithAction adds an action to the transition
func (tb *TransitionBuilder) WithAction(action core.Action) *TransitionBuilder {
	tb.spec.Action = action
	tb.commit()
	return tb
}

// WithHistory enters the target through its history
func (tb *TransitionBuilder) WithHistory(history core.HistoryType) *TransitionBuilder {
	tb.spec.History = history
	tb.commit()
	return tb
}

// AsInternal keeps the owner and every active state in place
func (tb *TransitionBuilder) AsInternal() *TransitionBuilder {
	tb.spec.Internal = true
	tb.commit()
	return tb
}

// Done returns the parent builder to continue the fluent chain
func (tb *TransitionBuilder) Done() *StateMachineBuilder {
	return tb.builder
}
