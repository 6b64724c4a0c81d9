// Package observers provides observers for monitoring state machine activity
package observers

import (
	"go.uber.org/zap"

	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/engine"
)

// LoggingObserver writes machine activity to a zap logger. Entries, exits
// and ignored events go to debug, transitions to info, action failures to
// error.
type LoggingObserver struct {
	logger *zap.Logger
}

var _ engine.ExtendedObserver = (*LoggingObserver)(nil)

// NewLoggingObserver creates a logging observer. A nil logger discards output.
func NewLoggingObserver(logger *zap.Logger) *LoggingObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingObserver{logger: logger}
}

func eventFields(ctx *core.Context) []zap.Field {
	if ctx == nil || ctx.Event == nil {
		return nil
	}
	return []zap.Field{
		zap.String("event", string(ctx.Event.Kind)),
		zap.String("event_id", ctx.Event.ID),
	}
}

func stateIDs(ids []core.StateID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// OnStateEnter logs state entry
func (o *LoggingObserver) OnStateEnter(state core.StateID, ctx *core.Context) {
	o.logger.Debug("Entering state", append(eventFields(ctx), zap.String("state", string(state)))...)
}

// OnStateExit logs state exit
func (o *LoggingObserver) OnStateExit(state core.StateID, ctx *core.Context) {
	o.logger.Debug("Exiting state", append(eventFields(ctx), zap.String("state", string(state)))...)
}

// OnTransition logs an executed transition
func (o *LoggingObserver) OnTransition(rec engine.TransitionRecord, ctx *core.Context) {
	fields := append(eventFields(ctx),
		zap.String("source", string(rec.Source)),
		zap.String("owner", string(rec.Owner)),
		zap.String("target", string(rec.Target)),
		zap.Bool("internal", rec.Internal),
	)
	if rec.History != core.HistoryNone {
		fields = append(fields, zap.Stringer("history", rec.History))
	}
	if !rec.Internal {
		fields = append(fields, zap.Strings("exited", stateIDs(rec.Exited)), zap.Strings("entered", stateIDs(rec.Entered)))
	}
	o.logger.Info("Transition", fields...)
}

// OnEventIgnored logs an event no state handled
func (o *LoggingObserver) OnEventIgnored(event *core.Event, ctx *core.Context) {
	o.logger.Debug("Event ignored", zap.String("event", string(event.Kind)), zap.String("event_id", event.ID))
}

// OnEventProcessed logs the outcome of an event
func (o *LoggingObserver) OnEventProcessed(outcome engine.Outcome, ctx *core.Context) {
	o.logger.Debug("Event processed", append(eventFields(ctx),
		zap.Stringer("outcome", outcome.Kind),
		zap.Stringer("configuration", outcome.Configuration))...)
}

// OnError logs action failures and observer panics
func (o *LoggingObserver) OnError(err error, ctx *core.Context) {
	fields := eventFields(ctx)
	if ctx != nil && ctx.State != "" {
		fields = append(fields, zap.String("state", string(ctx.State)))
	}
	o.logger.Error("Action failed", append(fields, zap.Error(err))...)
}

// OnMachineStarted logs machine start
func (o *LoggingObserver) OnMachineStarted(ctx *core.Context) {
	o.logger.Info("Machine started")
}

// OnMachineStopped logs machine stop
func (o *LoggingObserver) OnMachineStopped(ctx *core.Context) {
	o.logger.Info("Machine stopped")
}
