// Package hsm provides a hierarchical state machine engine for Go with
// composite states, orthogonal regions, shallow and deep history, and
// run-to-completion event processing.
package hsm

import (
	"github.com/anggasct/hsm/pkg/builders"
	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/engine"
	"github.com/anggasct/hsm/pkg/observers"
	"github.com/anggasct/hsm/pkg/states"
	"github.com/anggasct/hsm/pkg/utils"
)

// Core types
type (
	// StateID names a state, unique within a hierarchy
	StateID = core.StateID

	// EventKind names an event
	EventKind = core.EventKind

	// Event is a dispatched event with an optional payload
	Event = core.Event

	// Context is passed to every action and guard
	Context = core.Context

	// Data is the machine-wide key/value store shared by actions
	Data = core.Data

	// Action runs on entry, exit, or transition
	Action = core.Action

	// Guard decides whether a handler claims an event
	Guard = core.Guard

	// TransitionSpec describes what a state does with an event
	TransitionSpec = core.TransitionSpec

	// HistoryType selects how a composite target is resumed
	HistoryType = core.HistoryType
)

// Structure types
type (
	// Hierarchy is the static state tree shared by machines
	Hierarchy = states.Hierarchy

	// StateNode is one state of a hierarchy
	StateNode = states.StateNode
)

// Engine types
type (
	// Machine is one running instance over a hierarchy
	Machine = engine.Machine

	// Option configures a Machine
	Option = engine.Option

	// Configuration is the set of active leaves
	Configuration = engine.Configuration

	// Outcome is the result of dispatching one event
	Outcome = engine.Outcome

	// OutcomeKind classifies an Outcome
	OutcomeKind = engine.OutcomeKind

	// TransitionRecord describes one executed transition
	TransitionRecord = engine.TransitionRecord

	// Snapshot is the persistable state of a machine
	Snapshot = engine.Snapshot

	// Observer receives transition and entry notifications
	Observer = engine.Observer

	// ExtendedObserver receives the full notification set
	ExtendedObserver = engine.ExtendedObserver

	// BaseObserver is embedded to implement only some notifications
	BaseObserver = engine.BaseObserver
)

// Builder types
type (
	// StateMachineBuilder assembles a hierarchy fluently
	StateMachineBuilder = builders.StateMachineBuilder

	// WorkflowBuilder assembles sequential and parallel workflows
	WorkflowBuilder = builders.WorkflowBuilder

	// ValidationBuilder assembles a ValidationObserver
	ValidationBuilder = builders.ValidationBuilder
)

// Observer implementations
type (
	// LoggingObserver logs machine activity through zap
	LoggingObserver = observers.LoggingObserver

	// Metrics holds the prometheus collectors shared by metrics observers
	Metrics = observers.Metrics

	// MetricsObserver exports machine activity as prometheus metrics
	MetricsObserver = observers.MetricsObserver

	// ValidationObserver records transitions outside an allowed set
	ValidationObserver = observers.ValidationObserver

	// RecordingObserver keeps every notification in memory
	RecordingObserver = observers.RecordingObserver
)

// Error types
type (
	// StateMachineError is the error type returned by the engine
	StateMachineError = utils.StateMachineError

	// StructuralError lists every problem found by validation
	StructuralError = utils.StructuralError

	// ActionError wraps a failed or panicking action or guard
	ActionError = utils.ActionError

	// ActionFailedError collects the action errors of one event
	ActionFailedError = utils.ActionFailedError
)

// Constants
const (
	HistoryNone    = core.HistoryNone
	ShallowHistory = core.ShallowHistory
	DeepHistory    = core.DeepHistory

	OutcomeIgnored      = engine.OutcomeIgnored
	OutcomeHandled      = engine.OutcomeHandled
	OutcomeActionFailed = engine.OutcomeActionFailed
	OutcomeQueued       = engine.OutcomeQueued
)

// Errors
var (
	ErrStateNotFound   = utils.ErrStateNotFound
	ErrDuplicateState  = utils.ErrDuplicateState
	ErrHierarchyFrozen = utils.ErrHierarchyFrozen
	ErrNotValidated    = utils.ErrNotValidated
	ErrNoRoot          = utils.ErrNoRoot
	ErrAlreadyStarted  = utils.ErrAlreadyStarted
	ErrNotStarted      = utils.ErrNotStarted
	ErrInvalidEvent    = utils.ErrInvalidEvent
	ErrInvalidSnapshot = utils.ErrInvalidSnapshot
)

// Constructors
var (
	NewHierarchy = states.NewHierarchy
	NewMachine   = engine.NewMachine
	NewEvent     = core.NewEvent
	NewData      = core.NewData

	WithID       = engine.WithID
	WithRoot     = engine.WithRoot
	WithObserver = engine.WithObserver
	WithLogger   = engine.WithLogger
	WithData     = engine.WithData

	NewStateMachineBuilder = builders.NewStateMachineBuilder
	NewWorkflowBuilder     = builders.NewWorkflowBuilder
	NewValidationBuilder   = builders.NewValidationBuilder
	Conditions             = builders.Conditions

	NewLoggingObserver        = observers.NewLoggingObserver
	NewDefaultLoggingObserver = observers.NewDefaultLoggingObserver
	NewMetrics                = observers.NewMetrics
	NewValidationObserver     = observers.NewValidationObserver
	NewRecordingObserver      = observers.NewRecordingObserver
)
