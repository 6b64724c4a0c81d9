package builders_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"

	"github.com/anggasct/hsm/pkg/builders"
	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/engine"
	"github.com/anggasct/hsm/pkg/utils"
)

func send(t *testing.T, m *engine.Machine, kind core.EventKind) engine.Outcome {
	t.Helper()
	out, err := m.Send(context.Background(), kind, nil)
	require.NoError(t, err)
	return out
}

func TestStateMachineBuilder(t *testing.T) {
	t.Run("Build simple state machine", func(t *testing.T) {
		builder := builders.NewStateMachineBuilder("TestMachine")

		builder.WithCompositeState("Job", "Initial")
		builder.WithChildState("Job", "Initial")
		builder.WithChildState("Job", "Processing")
		builder.WithChildState("Job", "Done")

		builder.WithTransition("Initial", "Processing", "START")
		builder.WithTransition("Processing", "Done", "FINISH")

		h, err := builder.Build()
		require.NoError(t, err)
		assert.Equal(t, 4, h.Len())
		assert.Equal(t, []core.StateID{"Job"}, h.Roots())
		assert.Equal(t, []core.StateID{"Initial", "Processing", "Done"}, h.Children("Job"))

		m, err := builder.BuildMachine()
		require.NoError(t, err)
		assert.Equal(t, "TestMachine", m.ID())
		require.NoError(t, m.Start(context.Background()))

		send(t, m, "START")
		out := send(t, m, "FINISH")
		assert.Equal(t, engine.Configuration{"Done"}, out.Configuration)
	})

	t.Run("State machine with guard conditions", func(t *testing.T) {
		builder := builders.NewStateMachineBuilder("GuardTest")

		builder.WithCompositeState("Root", "S1")
		builder.WithChildState("Root", "S1")
		builder.WithChildState("Root", "S2")
		builder.WithChildState("Root", "S3")

		// S1 tries S2 first; when its guard rejects, Root's handler applies
		builder.WithTransition("S1", "S2", "CHECK").
			WithGuard(builders.Conditions.IfDataEquals("path", "to-s2"))
		builder.WithTransition("Root", "S3", "CHECK").
			WithGuard(builders.Conditions.IfDataEquals("path", "to-s3"))

		m, err := builder.BuildMachine()
		require.NoError(t, err)
		require.NoError(t, m.Start(context.Background()))

		m.Data().Set("path", "elsewhere")
		out := send(t, m, "CHECK")
		assert.Equal(t, engine.OutcomeIgnored, out.Kind)

		m.Data().Set("path", "to-s3")
		out = send(t, m, "CHECK")
		assert.Equal(t, engine.Configuration{"S3"}, out.Configuration)

		// S3 has no handler of its own and Root's guard rejects
		m.Data().Set("path", "to-s2")
		out = send(t, m, "CHECK")
		assert.Equal(t, engine.OutcomeIgnored, out.Kind)
	})

	t.Run("State machine with actions", func(t *testing.T) {
		builder := builders.NewStateMachineBuilder("ActionTest")
		actionTracker := make([]string, 0)

		builder.WithCompositeState("Root", "Start")
		builder.WithChildState("Root", "Start").
			WithEntryAction(func(ctx *core.Context) error {
				actionTracker = append(actionTracker, "Start-Entry")
				return nil
			}).
			WithExitAction(func(ctx *core.Context) error {
				actionTracker = append(actionTracker, "Start-Exit")
				return nil
			}).
			On("GO", "End").
			WithAction(func(ctx *core.Context) error {
				actionTracker = append(actionTracker, "Transition-Action")
				return nil
			})
		builder.WithChildState("Root", "End")

		m, err := builder.BuildMachine()
		require.NoError(t, err)
		require.NoError(t, m.Start(context.Background()))
		assert.Equal(t, []string{"Start-Entry"}, actionTracker)

		actionTracker = make([]string, 0)
		send(t, m, "GO")
		assert.Equal(t, []string{"Start-Exit", "Transition-Action"}, actionTracker)
	})

	t.Run("Composite state with history", func(t *testing.T) {
		builder := builders.NewStateMachineBuilder("CompositeTest")

		builder.WithCompositeState("Root", "Start")
		builder.State("Root").WithChild("Start")
		builder.State("Root").WithChild("Complex").WithInitialChild("SubState1")
		builder.State("Complex").WithChild("SubState1").On("NEXT", "SubState2")
		builder.State("Complex").WithChild("SubState2")
		builder.WithChildState("Root", "End")

		builder.WithTransition("Start", "Complex", "ENTER_COMPLEX")
		builder.WithTransition("End", "Complex", "RESUME").WithHistory(core.ShallowHistory)
		builder.WithTransition("Complex", "End", "EXIT_COMPLEX")

		m, err := builder.BuildMachine()
		require.NoError(t, err)
		require.NoError(t, m.Start(context.Background()))
		assert.Equal(t, engine.Configuration{"Start"}, m.Configuration())

		send(t, m, "ENTER_COMPLEX")
		assert.Equal(t, engine.Configuration{"SubState1"}, m.Configuration())
		send(t, m, "NEXT")
		send(t, m, "EXIT_COMPLEX")
		assert.Equal(t, engine.Configuration{"End"}, m.Configuration())

		out := send(t, m, "RESUME")
		assert.Equal(t, engine.Configuration{"SubState2"}, out.Configuration)
	})

	t.Run("Parallel state", func(t *testing.T) {
		builder := builders.NewStateMachineBuilder("ParallelTest")

		builder.WithParallelState("Root")
		builder.State("Root").WithChild("R1").WithInitialChild("A")
		builder.State("Root").WithChild("R2").WithInitialChild("X")
		builder.WithChildState("R1", "A").On("TICK", "B")
		builder.WithChildState("R1", "B")
		builder.WithChildState("R2", "X").On("TICK", "Y")
		builder.WithChildState("R2", "Y")

		m, err := builder.BuildMachine()
		require.NoError(t, err)
		require.NoError(t, m.Start(context.Background()))

		out := send(t, m, "TICK")
		assert.Equal(t, engine.Configuration{"B", "Y"}, out.Configuration)
	})

	t.Run("Internal transition", func(t *testing.T) {
		count := 0
		builder := builders.NewStateMachineBuilder("InternalTest")
		builder.WithState("Counter")
		builder.WithInternalTransition("Counter", "INC", func(*core.Context) error {
			count++
			return nil
		})

		m, err := builder.BuildMachine()
		require.NoError(t, err)
		require.NoError(t, m.Start(context.Background()))

		out := send(t, m, "INC")
		send(t, m, "INC")
		assert.Equal(t, 2, count)
		assert.True(t, out.Transitions[0].Internal)
	})

	t.Run("Observer and logger options", func(t *testing.T) {
		zcore, logs := zapobserver.New(zapcore.DebugLevel)
		var started bool
		obs := &startObserver{started: &started}

		m, err := builders.NewStateMachineBuilder("Options").
			WithObserver(obs).
			WithLogger(zap.New(zcore).Sugar()).
			WithState("Only").
			Done().
			BuildMachine()
		require.NoError(t, err)
		require.NoError(t, m.Start(context.Background()))

		assert.True(t, started)
		assert.NotZero(t, logs.Len())
	})
}

type startObserver struct {
	engine.BaseObserver
	started *bool
}

func (o *startObserver) OnMachineStarted(*core.Context) {
	*o.started = true
}

func TestBuilderErrors(t *testing.T) {
	t.Run("Construction mistakes are reported by Build", func(t *testing.T) {
		builder := builders.NewStateMachineBuilder("Broken")
		builder.WithState("A")
		builder.WithState("A")
		builder.WithTransition("Missing", "A", "GO").WithAction(nil).WithGuard(nil)
		builder.State("Nowhere")

		_, err := builder.Build()
		require.Error(t, err)
		assert.ErrorIs(t, err, utils.ErrDuplicateState)
		assert.ErrorIs(t, err, utils.ErrStateNotFound)

		var ec *utils.ErrorCollector
		require.True(t, errors.As(err, &ec))
		assert.Equal(t, 3, ec.Len())
	})

	t.Run("Structural errors come from validation", func(t *testing.T) {
		builder := builders.NewStateMachineBuilder("Structural")
		builder.WithState("Root")
		builder.WithChildState("Root", "A")
		builder.WithChildState("Root", "B").On("GO", "Nowhere")

		_, err := builder.Build()
		var se *utils.StructuralError
		require.True(t, errors.As(err, &se))
		assert.True(t, se.Has(utils.MissingInitialChild))
		assert.True(t, se.Has(utils.UnknownTarget))

		_, err = builder.BuildMachine()
		assert.Error(t, err)
	})
}

func TestConditions(t *testing.T) {
	data := core.NewData()
	ctx := core.NewContext(context.Background(), data, nil).
		ForEvent(core.NewEvent("PAY", 42), "", "")

	assert.False(t, builders.Conditions.IfDataExists("paid")(ctx))
	require.NoError(t, builders.Conditions.SetData("paid", true)(ctx))
	assert.True(t, builders.Conditions.IfDataExists("paid")(ctx))
	assert.True(t, builders.Conditions.IfDataEquals("paid", true)(ctx))
	assert.True(t, builders.Conditions.IfPayloadEquals(42)(ctx))
	assert.False(t, builders.Conditions.Not(builders.Conditions.IfPayloadEquals(42))(ctx))

	failing := errors.New("declined")
	var ran []string
	seq := builders.Conditions.Sequence(
		func(*core.Context) error { ran = append(ran, "a"); return nil },
		nil,
		func(*core.Context) error { return failing },
		func(*core.Context) error { ran = append(ran, "c"); return nil },
	)
	assert.ErrorIs(t, seq(ctx), failing)
	assert.Equal(t, []string{"a"}, ran)

	zcore, logs := zapobserver.New(zapcore.InfoLevel)
	require.NoError(t, builders.Conditions.LogMessage(zap.New(zcore).Sugar(), "paid")(ctx.ForState("Checkout")))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Checkout", logs.All()[0].ContextMap()["state"])

	// no sink configured
	assert.ErrorIs(t, builders.Conditions.Raise("RETRY")(ctx), core.ErrNoEventSink)
}
