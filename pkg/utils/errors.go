// Package utils provides the error types shared by the state machine packages
package utils

import (
	"fmt"
	"sort"
	"strings"
)

// StateMachineError represents a state machine specific error
type StateMachineError struct {
	Code      string
	Message   string
	StateID   string
	EventKind string
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface
func (e *StateMachineError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.StateID != "" {
		parts = append(parts, fmt.Sprintf("state: %s", e.StateID))
	}

	if e.EventKind != "" {
		parts = append(parts, fmt.Sprintf("event: %s", e.EventKind))
	}

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		details := make([]string, 0, len(keys))
		for _, k := range keys {
			details = append(details, fmt.Sprintf("%s=%v", k, e.Details[k]))
		}
		parts = append(parts, fmt.Sprintf("details: {%s}", strings.Join(details, ", ")))
	}

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause: %v", e.Cause))
	}

	return strings.Join(parts, " - ")
}

// Unwrap returns the underlying cause
func (e *StateMachineError) Unwrap() error {
	return e.Cause
}

// Is reports whether target carries the same error code
func (e *StateMachineError) Is(target error) bool {
	t, ok := target.(*StateMachineError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithState returns a copy of the error carrying state information
func (e *StateMachineError) WithState(stateID string) *StateMachineError {
	c := e.clone()
	c.StateID = stateID
	return c
}

// WithEvent returns a copy of the error carrying event information
func (e *StateMachineError) WithEvent(eventKind string) *StateMachineError {
	c := e.clone()
	c.EventKind = eventKind
	return c
}

// WithCause returns a copy of the error carrying a cause
func (e *StateMachineError) WithCause(err error) *StateMachineError {
	c := e.clone()
	c.Cause = err
	return c
}

// WithDetail returns a copy of the error carrying an extra detail
func (e *StateMachineError) WithDetail(key string, value interface{}) *StateMachineError {
	c := e.clone()
	c.Details[key] = value
	return c
}

func (e *StateMachineError) clone() *StateMachineError {
	c := *e
	c.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		c.Details[k] = v
	}
	return &c
}

// Error codes
const (
	CodeStateNotFound   = "STATE_NOT_FOUND"
	CodeInvalidState    = "INVALID_STATE"
	CodeDuplicateState  = "DUPLICATE_STATE"
	CodeHierarchyFrozen = "HIERARCHY_FROZEN"
	CodeNotValidated    = "NOT_VALIDATED"
	CodeNoRoot          = "NO_ROOT"
	CodeAlreadyStarted  = "ALREADY_STARTED"
	CodeNotStarted      = "NOT_STARTED"
	CodeInvalidSnapshot = "INVALID_SNAPSHOT"
	CodeInvalidEvent    = "INVALID_EVENT"
	CodeStructural      = "STRUCTURAL_ERROR"
	CodeActionFailed    = "ACTION_FAILED"
)

// Core error values; compare with errors.Is
var (
	// ErrStateNotFound is returned when a referenced state is not in the hierarchy
	ErrStateNotFound = &StateMachineError{
		Code:    CodeStateNotFound,
		Message: "state not found in hierarchy",
	}

	// ErrInvalidState is returned when a state definition is malformed
	ErrInvalidState = &StateMachineError{
		Code:    CodeInvalidState,
		Message: "invalid state definition",
	}

	// ErrDuplicateState is returned when a state id is added twice
	ErrDuplicateState = &StateMachineError{
		Code:    CodeDuplicateState,
		Message: "state already exists in hierarchy",
	}

	// ErrHierarchyFrozen is returned when the topology is changed after validation
	ErrHierarchyFrozen = &StateMachineError{
		Code:    CodeHierarchyFrozen,
		Message: "hierarchy is validated and read-only",
	}

	// ErrNotValidated is returned when a machine is built from an unvalidated hierarchy
	ErrNotValidated = &StateMachineError{
		Code:    CodeNotValidated,
		Message: "hierarchy must be validated before use",
	}

	// ErrNoRoot is returned when the machine cannot determine which root to run
	ErrNoRoot = &StateMachineError{
		Code:    CodeNoRoot,
		Message: "no unique root state",
	}

	// ErrAlreadyStarted is returned when the state machine is already started
	ErrAlreadyStarted = &StateMachineError{
		Code:    CodeAlreadyStarted,
		Message: "state machine has already been started",
	}

	// ErrNotStarted is returned when the state machine has not been started
	ErrNotStarted = &StateMachineError{
		Code:    CodeNotStarted,
		Message: "state machine has not been started",
	}

	// ErrInvalidEvent is returned when a nil or kindless event is dispatched
	ErrInvalidEvent = &StateMachineError{
		Code:    CodeInvalidEvent,
		Message: "event must have a kind",
	}

	// ErrInvalidSnapshot is returned when a snapshot does not fit the hierarchy
	ErrInvalidSnapshot = &StateMachineError{
		Code:    CodeInvalidSnapshot,
		Message: "snapshot does not match hierarchy",
	}
)

// ErrorCollector collects multiple errors during validation or processing
type ErrorCollector struct {
	errors []error
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collector
func (ec *ErrorCollector) Add(err error) {
	if err != nil {
		ec.errors = append(ec.errors, err)
	}
}

// HasErrors returns whether any errors were collected
func (ec *ErrorCollector) HasErrors() bool {
	return len(ec.errors) > 0
}

// GetErrors returns all collected errors
func (ec *ErrorCollector) GetErrors() []error {
	return ec.errors
}

// Len returns the number of collected errors
func (ec *ErrorCollector) Len() int {
	return len(ec.errors)
}

// Error returns a string representation of all errors
func (ec *ErrorCollector) Error() string {
	if len(ec.errors) == 0 {
		return "no errors"
	}

	if len(ec.errors) == 1 {
		return ec.errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(ec.errors)))

	for i, err := range ec.errors {
		sb.WriteString(fmt.Sprintf("  %d: %v\n", i+1, err))
	}

	return sb.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As
func (ec *ErrorCollector) Unwrap() []error {
	return ec.errors
}
