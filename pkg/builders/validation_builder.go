package builders

import (
	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/observers"
)

// ValidationBuilder helps build validation rules for a running machine
type ValidationBuilder struct {
	observer *observers.ValidationObserver
}

// NewValidationBuilder creates a new validation builder
func NewValidationBuilder() *ValidationBuilder {
	return &ValidationBuilder{
		observer: observers.NewValidationObserver(),
	}
}

// ExpectState adds a state that must be entered
func (v *ValidationBuilder) ExpectState(states ...core.StateID) *ValidationBuilder {
	for _, s := range states {
		v.observer.AddExpectedState(s)
	}
	return v
}

// AllowTransition allows owner to take a transition to target
func (v *ValidationBuilder) AllowTransition(owner, target core.StateID) *ValidationBuilder {
	v.observer.AddAllowedTransition(owner, target)
	return v
}

// Build returns the validation observer
func (v *ValidationBuilder) Build() *observers.ValidationObserver {
	return v.observer
}
