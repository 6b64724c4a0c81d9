package engine

import (
	"testing"

	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/history"
	"github.com/anggasct/hsm/pkg/states"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorDomain(t *testing.T) {
	h := states.NewHierarchy()
	for _, n := range []states.StateNode{
		{ID: "Root", Parallel: true},
		{ID: "R1", Parent: "Root", InitialChild: "A"},
		{ID: "A", Parent: "R1"},
		{ID: "B", Parent: "R1"},
		{ID: "R2", Parent: "Root", InitialChild: "X"},
		{ID: "X", Parent: "R2"},
		{ID: "Other"},
	} {
		require.NoError(t, h.AddState(n))
	}
	require.NoError(t, h.Validate())

	active := newActiveSet(h)
	ex := newExecutor(h, history.NewTracker(), active, newRegionCoordinator(h, active), NewObserverManager())

	tests := []struct {
		leaf, target, want core.StateID
	}{
		{"A", "B", "R1"},
		{"A", "A", "R1"},
		{"A", "X", "Root"},
		{"A", "R1", "Root"},
		{"A", "R2", "Root"},
		{"A", "Root", ""},
		{"A", "Other", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ex.Domain(tt.leaf, tt.target), "%s to %s", tt.leaf, tt.target)
	}
}

func TestExitOrderIsPostOrder(t *testing.T) {
	h := states.NewHierarchy()
	for _, n := range []states.StateNode{
		{ID: "Root", Parallel: true},
		{ID: "R1", Parent: "Root", InitialChild: "A"},
		{ID: "A", Parent: "R1"},
		{ID: "R2", Parent: "Root", InitialChild: "X"},
		{ID: "X", Parent: "R2"},
	} {
		require.NoError(t, h.AddState(n))
	}
	require.NoError(t, h.Validate())

	active := newActiveSet(h)
	active.replace([]core.StateID{"Root", "R1", "A", "R2", "X"})
	rc := newRegionCoordinator(h, active)

	assert.Equal(t, []core.StateID{"A", "R1", "X", "R2", "Root"}, rc.exitOrder(""))
	assert.Equal(t, []core.StateID{"A", "R1", "X", "R2"}, rc.exitOrder("Root"))
	assert.Empty(t, rc.exitOrder("A"))

	assert.Equal(t, []core.StateID{"R1"}, rc.affectedRegions("Root", "A", "R1"))
	assert.Equal(t, []core.StateID{"R1", "R2"}, rc.affectedRegions("Root", "A", "X"))

	plan := rc.entryPlan("Root", "R2")
	require.Len(t, plan, 2)
	assert.False(t, plan[0].onPath)
	assert.True(t, plan[1].onPath)
}
