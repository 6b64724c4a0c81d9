package builders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/hsm/pkg/builders"
	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/engine"
)

func TestWorkflowBuilder(t *testing.T) {
	var steps []string
	record := func(name string) core.Action {
		return func(*core.Context) error {
			steps = append(steps, name)
			return nil
		}
	}

	w := builders.NewWorkflowBuilder("order").
		AddSequentialStep("received", record("received")).
		AddParallelBranch("fulfil", []string{"pack", "bill"}).
		AddSequentialStep("shipped", record("shipped")).
		FinishWorkflow()

	m, err := w.BuildMachine()
	require.NoError(t, err)
	assert.Equal(t, "order", m.ID())
	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, engine.Configuration{"received"}, m.Configuration())

	send(t, m, builders.EventNext)
	assert.Equal(t, engine.Configuration{"fulfil.pack.running", "fulfil.bill.running"}, m.Configuration())

	// the join holds until every branch is done
	out := send(t, m, builders.EventNext)
	assert.Equal(t, engine.OutcomeIgnored, out.Kind)

	send(t, m, builders.BranchDoneEvent("bill"))
	out = send(t, m, builders.EventNext)
	assert.Equal(t, engine.OutcomeIgnored, out.Kind)
	assert.Equal(t, engine.Configuration{"fulfil.pack.running", "fulfil.bill.done"}, out.Configuration)

	send(t, m, builders.BranchDoneEvent("pack"))
	out = send(t, m, builders.EventNext)
	assert.Equal(t, engine.Configuration{"shipped"}, out.Configuration)

	out = send(t, m, builders.EventComplete)
	assert.Equal(t, engine.Configuration{builders.CompletedState}, out.Configuration)
	assert.Equal(t, []string{"received", "shipped"}, steps)

	done, _ := m.Data().Get(builders.BranchDoneKey("fulfil", "pack"))
	assert.Equal(t, true, done)
}

func TestValidationBuilder(t *testing.T) {
	obs := builders.NewValidationBuilder().
		ExpectState("received", "shipped").
		AllowTransition("received", "shipped").
		Build()

	m, err := builders.NewWorkflowBuilder("order").
		AddSequentialStep("received", nil).
		AddSequentialStep("packed", nil).
		AddSequentialStep("shipped", nil).
		BuildMachine(engine.WithObserver(obs))
	require.NoError(t, err)
	require.NoError(t, m.Start(context.Background()))

	send(t, m, builders.EventNext)
	assert.Equal(t, []core.StateID{"shipped"}, obs.GetUnvisitedStates())
	require.Len(t, obs.GetViolations(), 1)
	assert.Contains(t, obs.GetViolations()[0], "'received' to 'packed'")
}
