package engine_test

import (
	"context"
	"sync"
	"testing"

	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/engine"
	"github.com/anggasct/hsm/pkg/states"
	"github.com/stretchr/testify/require"
)

// trace records entry, exit and transition actions in call order
type trace struct {
	events []string
	mutex  sync.Mutex
}

func (tr *trace) add(s string) {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	tr.events = append(tr.events, s)
}

func (tr *trace) take() []string {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	out := tr.events
	tr.events = nil
	return out
}

func (tr *trace) action(label string) core.Action {
	return func(*core.Context) error {
		tr.add(label)
		return nil
	}
}

// def describes one state for newHierarchy
type def struct {
	id       core.StateID
	parent   core.StateID
	initial  core.StateID
	parallel bool
}

// newHierarchy adds states whose entry and exit actions write to tr. The
// result is not yet validated so tests can add handlers.
func newHierarchy(t *testing.T, tr *trace, defs ...def) *states.Hierarchy {
	t.Helper()
	h := states.NewHierarchy()
	for _, d := range defs {
		require.NoError(t, h.AddState(states.StateNode{
			ID:           d.id,
			Parent:       d.parent,
			InitialChild: d.initial,
			Parallel:     d.parallel,
			Entry:        tr.action("enter:" + string(d.id)),
			Exit:         tr.action("exit:" + string(d.id)),
		}))
	}
	return h
}

func on(t *testing.T, h *states.Hierarchy, id core.StateID, kind core.EventKind, spec core.TransitionSpec) {
	t.Helper()
	require.NoError(t, h.AddHandler(id, kind, spec))
}

// started validates h, builds a machine and starts it
func started(t *testing.T, h *states.Hierarchy, opts ...engine.Option) *engine.Machine {
	t.Helper()
	if !h.Validated() {
		require.NoError(t, h.Validate())
	}
	m, err := engine.NewMachine(h, opts...)
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))
	return m
}

func send(t *testing.T, m *engine.Machine, kind core.EventKind) engine.Outcome {
	t.Helper()
	out, err := m.Send(context.Background(), kind, nil)
	require.NoError(t, err)
	return out
}

func config(ids ...core.StateID) engine.Configuration {
	return engine.Configuration(ids)
}

// lightsDefs is Lights{Red, Yellow, Green{Normal, Flashing}}
var lightsDefs = []def{
	{id: "Lights", initial: "Red"},
	{id: "Red", parent: "Lights"},
	{id: "Yellow", parent: "Lights"},
	{id: "Green", parent: "Lights", initial: "Normal"},
	{id: "Normal", parent: "Green"},
	{id: "Flashing", parent: "Green"},
}

// parallelDefs is Root(parallel){R1{A, B}, R2{X, Y}}
var parallelDefs = []def{
	{id: "Root", parallel: true},
	{id: "R1", parent: "Root", initial: "A"},
	{id: "A", parent: "R1"},
	{id: "B", parent: "R1"},
	{id: "R2", parent: "Root", initial: "X"},
	{id: "X", parent: "R2"},
	{id: "Y", parent: "R2"},
}
