package engine

import (
	"context"
	"testing"

	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/states"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueuedAcrossStopIsDiscarded(t *testing.T) {
	h := states.NewHierarchy()
	for _, n := range []states.StateNode{
		{ID: "Lights", InitialChild: "Red"},
		{ID: "Red", Parent: "Lights"},
		{ID: "Green", Parent: "Lights"},
	} {
		require.NoError(t, h.AddState(n))
	}
	var fired int
	require.NoError(t, h.AddHandler("Red", "Next", core.TransitionSpec{
		Target: "Green",
		Action: func(*core.Context) error {
			fired++
			return nil
		},
	}))
	require.NoError(t, h.Validate())

	m, err := NewMachine(h)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, m.Start(ctx))
	require.NoError(t, m.Stop(ctx))

	// a sender that passed the running check just before Stop
	m.enqueue(&pending{event: core.NewEvent("Next", nil)})
	require.Equal(t, 1, m.queued())

	require.NoError(t, m.Start(ctx))
	assert.Zero(t, fired)
	assert.Zero(t, m.queued())
	assert.Equal(t, Configuration{"Red"}, m.Configuration())
}
