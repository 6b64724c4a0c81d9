package utils

import (
	"fmt"
	"strings"
)

// ActionPhase identifies where in a transition an action ran
type ActionPhase string

const (
	PhaseGuard      ActionPhase = "guard"
	PhaseExit       ActionPhase = "exit"
	PhaseTransition ActionPhase = "transition"
	PhaseEntry      ActionPhase = "entry"
)

// ActionError records a failed or panicking embedder action
type ActionError struct {
	Phase     ActionPhase
	StateID   string
	EventKind string
	Cause     error
}

// Error implements the error interface
func (e *ActionError) Error() string {
	msg := fmt.Sprintf("%s action failed", e.Phase)
	if e.StateID != "" {
		msg += fmt.Sprintf(" in state %s", e.StateID)
	}
	if e.EventKind != "" {
		msg += fmt.Sprintf(" on event %s", e.EventKind)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the error the action produced
func (e *ActionError) Unwrap() error {
	return e.Cause
}

// ActionFailedError carries every action error raised while processing one event
type ActionFailedError struct {
	Errors []*ActionError
}

// NewActionFailedError wraps the collected action errors, or returns nil when there are none
func NewActionFailedError(ec *ErrorCollector) *ActionFailedError {
	if ec == nil || !ec.HasErrors() {
		return nil
	}
	out := &ActionFailedError{}
	for _, err := range ec.GetErrors() {
		if ae, ok := err.(*ActionError); ok {
			out.Errors = append(out.Errors, ae)
		} else {
			out.Errors = append(out.Errors, &ActionError{Cause: err})
		}
	}
	return out
}

// Error implements the error interface
func (e *ActionFailedError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("[%s] %v", CodeActionFailed, e.Errors[0])
	}
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("[%s] %d actions failed: %s", CodeActionFailed, len(e.Errors), strings.Join(parts, "; "))
}

// Unwrap exposes the individual action errors to errors.Is and errors.As
func (e *ActionFailedError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err
	}
	return out
}
