package engine

import (
	"errors"

	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/utils"
)

// OutcomeKind classifies the result of dispatching one event
type OutcomeKind int

const (
	// OutcomeIgnored means no active chain had a handler for the event
	OutcomeIgnored OutcomeKind = iota
	// OutcomeHandled means at least one region claimed the event and every action succeeded
	OutcomeHandled
	// OutcomeActionFailed means at least one transition ran and one or more
	// actions or guards failed during the sweep. A panicking guard that leaves
	// the event unclaimed yields OutcomeIgnored instead.
	OutcomeActionFailed
	// OutcomeQueued means the event was queued behind an event still being processed
	OutcomeQueued
)

// String returns the name of the outcome kind
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeHandled:
		return "handled"
	case OutcomeActionFailed:
		return "action_failed"
	case OutcomeQueued:
		return "queued"
	default:
		return "ignored"
	}
}

// TransitionRecord describes one executed claim
type TransitionRecord struct {
	Event    core.EventKind
	Source   core.StateID
	Owner    core.StateID
	Target   core.StateID
	Domain   core.StateID
	Internal bool
	History  core.HistoryType
	Exited   []core.StateID
	Entered  []core.StateID
}

// Outcome is the result of dispatching one event
type Outcome struct {
	Kind          OutcomeKind
	Event         *core.Event
	Configuration Configuration
	Transitions   []TransitionRecord
	// Err is a *utils.ActionFailedError when Kind is OutcomeActionFailed
	Err error
}

// IsHandled reports whether the event was claimed, including when an action failed
func (o Outcome) IsHandled() bool {
	return o.Kind == OutcomeHandled || (o.Kind == OutcomeActionFailed && len(o.Transitions) > 0)
}

// ActionErrors returns the individual action errors, if any
func (o Outcome) ActionErrors() []*utils.ActionError {
	var afe *utils.ActionFailedError
	if errors.As(o.Err, &afe) {
		return afe.Errors
	}
	return nil
}

func newOutcome(event *core.Event, config Configuration, records []TransitionRecord, errs *utils.ErrorCollector) Outcome {
	out := Outcome{
		Event:         event,
		Configuration: config,
		Transitions:   records,
	}

	switch {
	case len(records) == 0:
		// guard failures were already sent to the observers
		out.Kind = OutcomeIgnored
	case errs.HasErrors():
		out.Kind = OutcomeActionFailed
		out.Err = utils.NewActionFailedError(errs)
	default:
		out.Kind = OutcomeHandled
	}
	return out
}
