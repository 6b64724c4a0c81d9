package observers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/engine"
)

// ValidationObserver checks a running machine against expectations: states
// that must be visited and the transitions each owner may take. It is meant
// for tests and staging runs.
type ValidationObserver struct {
	engine.BaseObserver

	expectedStates     map[core.StateID]bool
	visitedStates      map[core.StateID]bool
	allowedTransitions map[core.StateID]map[core.StateID]bool
	violations         []string
	mutex              sync.RWMutex
}

var _ engine.ExtendedObserver = (*ValidationObserver)(nil)

// NewValidationObserver creates a new validation observer
func NewValidationObserver() *ValidationObserver {
	return &ValidationObserver{
		expectedStates:     make(map[core.StateID]bool),
		visitedStates:      make(map[core.StateID]bool),
		allowedTransitions: make(map[core.StateID]map[core.StateID]bool),
	}
}

// AddExpectedState adds a state that must be entered at least once
func (o *ValidationObserver) AddExpectedState(state core.StateID) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.expectedStates[state] = true
}

// AddAllowedTransition allows owner to target to. Once an owner has one
// allowed transition, any other target it takes is a violation. Internal
// transitions are checked with the owner as target.
func (o *ValidationObserver) AddAllowedTransition(owner, to core.StateID) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if _, exists := o.allowedTransitions[owner]; !exists {
		o.allowedTransitions[owner] = make(map[core.StateID]bool)
	}
	o.allowedTransitions[owner][to] = true
}

func (o *ValidationObserver) addViolation(format string, args ...interface{}) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.violations = append(o.violations, fmt.Sprintf(format, args...))
}

// OnStateEnter marks the state visited
func (o *ValidationObserver) OnStateEnter(state core.StateID, ctx *core.Context) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.visitedStates[state] = true
}

// OnTransition checks the transition against the allowed set
func (o *ValidationObserver) OnTransition(rec engine.TransitionRecord, ctx *core.Context) {
	target := rec.Target
	if target == "" {
		target = rec.Owner
	}

	o.mutex.RLock()
	allowed, exists := o.allowedTransitions[rec.Owner]
	ok := !exists || allowed[target]
	o.mutex.RUnlock()

	if !ok {
		o.addViolation("invalid transition from '%s' to '%s' on event '%s'", rec.Owner, target, rec.Event)
	}
}

// OnError records every failed action as a violation
func (o *ValidationObserver) OnError(err error, ctx *core.Context) {
	o.addViolation("error occurred: %v", err)
}

// GetViolations returns all violations in the order they occurred
func (o *ValidationObserver) GetViolations() []string {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	result := make([]string, len(o.violations))
	copy(result, o.violations)
	return result
}

// GetUnvisitedStates returns expected states never entered, sorted
func (o *ValidationObserver) GetUnvisitedStates() []core.StateID {
	o.mutex.RLock()
	defer o.mutex.RUnlock()

	var unvisited []core.StateID
	for state := range o.expectedStates {
		if !o.visitedStates[state] {
			unvisited = append(unvisited, state)
		}
	}
	sort.Slice(unvisited, func(i, j int) bool { return unvisited[i] < unvisited[j] })
	return unvisited
}

// HasViolations returns whether any violations occurred
func (o *ValidationObserver) HasViolations() bool {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return len(o.violations) > 0
}

// Reset clears visited states and violations, keeping the expectations
func (o *ValidationObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.visitedStates = make(map[core.StateID]bool)
	o.violations = nil
}
