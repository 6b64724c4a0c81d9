// Package core provides the shared vocabulary of the hsm engine: identifiers,
// events, actions, guards, transition specs and the action context.
package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StateID identifies a state node; unique within a hierarchy
type StateID string

// EventKind names a class of events that handlers are registered for
type EventKind string

// Event is a kind plus an embedder-defined payload
type Event struct {
	ID        string
	Kind      EventKind
	Payload   interface{}
	Timestamp time.Time
	Metadata  map[string]interface{}
}

// NewEvent creates a new event with the given kind and optional payload
func NewEvent(kind EventKind, payload interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Kind:      kind,
		Payload:   payload,
		Timestamp: time.Now(),
		Metadata:  make(map[string]interface{}),
	}
}

// WithMetadata adds metadata to the event and returns the event
func (e *Event) WithMetadata(key string, value interface{}) *Event {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// GetMetadata retrieves metadata from the event
func (e *Event) GetMetadata(key string) (interface{}, bool) {
	if e.Metadata == nil {
		return nil, false
	}
	v, ok := e.Metadata[key]
	return v, ok
}

// String returns the kind and id of the event
func (e *Event) String() string {
	return fmt.Sprintf("%s(%s)", e.Kind, e.ID)
}

// Action is an embedder callback run on entry, exit or transition.
// A returned error is reported after the sweep and does not change it.
type Action func(ctx *Context) error

// Guard decides whether a handler claims an event
type Guard func(ctx *Context) bool

// SafeAction runs an action and converts a panic into an error
func SafeAction(action Action, ctx *Context) (err error) {
	if action == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action panic: %v", r)
		}
	}()

	return action(ctx)
}

// SafeGuard evaluates a guard; a nil guard passes and a panicking guard rejects
func SafeGuard(guard Guard, ctx *Context) (result bool, err error) {
	if guard == nil {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			result = false
			err = fmt.Errorf("guard panic: %v", r)
		}
	}()

	return guard(ctx), nil
}
