package builders

import (
	"go.uber.org/zap"

	"github.com/anggasct/hsm/pkg/core"
)

// ConditionalActions provides helper functions for common guards and actions
type ConditionalActions struct{}

// IfDataEquals creates a guard that checks if machine data equals a value
func (ConditionalActions) IfDataEquals(key string, value interface{}) core.Guard {
	return func(ctx *core.Context) bool {
		if val, exists := ctx.Get(key); exists {
			return val == value
		}
		return false
	}
}

// IfDataExists creates a guard that checks if machine data exists
func (ConditionalActions) IfDataExists(key string) core.Guard {
	return func(ctx *core.Context) bool {
		_, exists := ctx.Get(key)
		return exists
	}
}

// IfPayloadEquals creates a guard that checks the event payload
func (ConditionalActions) IfPayloadEquals(value interface{}) core.Guard {
	return func(ctx *core.Context) bool {
		return ctx.Event != nil && ctx.Event.Payload == value
	}
}

// Not negates a guard; a nil guard counts as passing
func (ConditionalActions) Not(guard core.Guard) core.Guard {
	return func(ctx *core.Context) bool {
		return guard != nil && !guard(ctx)
	}
}

// SetData creates an action that sets machine data
func (ConditionalActions) SetData(key string, value interface{}) core.Action {
	return func(ctx *core.Context) error {
		ctx.Set(key, value)
		return nil
	}
}

// Raise creates an action that queues an event of the given kind
func (ConditionalActions) Raise(kind core.EventKind) core.Action {
	return func(ctx *core.Context) error {
		return ctx.Raise(core.NewEvent(kind, nil))
	}
}

// Sequence runs actions in order and stops at the first error
func (ConditionalActions) Sequence(actions ...core.Action) core.Action {
	return func(ctx *core.Context) error {
		for _, action := range actions {
			if action == nil {
				continue
			}
			if err := action(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// LogMessage creates an action that logs a message with the current state and event
func (ConditionalActions) LogMessage(logger *zap.SugaredLogger, message string) core.Action {
	return func(ctx *core.Context) error {
		kind := ""
		if ctx.Event != nil {
			kind = string(ctx.Event.Kind)
		}
		logger.Infow(message, "state", string(ctx.State), "event", kind)
		return nil
	}
}

// Conditions provides a singleton instance of ConditionalActions
var Conditions = ConditionalActions{}
