package observers

import (
	"sync"

	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/engine"
)

// RecordKind names what a Record describes
type RecordKind string

const (
	RecordEnter      RecordKind = "enter"
	RecordExit       RecordKind = "exit"
	RecordTransition RecordKind = "transition"
	RecordIgnored    RecordKind = "ignored"
	RecordProcessed  RecordKind = "processed"
	RecordError      RecordKind = "error"
	RecordStarted    RecordKind = "started"
	RecordStopped    RecordKind = "stopped"
)

// Record is one observed notification
type Record struct {
	Kind    RecordKind
	State   core.StateID
	Event   core.EventKind
	Outcome engine.OutcomeKind
	Err     error
}

// RecordingObserver keeps every notification in order
type RecordingObserver struct {
	records []Record
	mutex   sync.Mutex
}

var _ engine.ExtendedObserver = (*RecordingObserver)(nil)

// NewRecordingObserver creates an empty recording observer
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

func (o *RecordingObserver) add(r Record, ctx *core.Context) {
	if r.Event == "" && ctx != nil && ctx.Event != nil {
		r.Event = ctx.Event.Kind
	}
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.records = append(o.records, r)
}

// Records returns a copy of everything recorded so far
func (o *RecordingObserver) Records() []Record {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	out := make([]Record, len(o.records))
	copy(out, o.records)
	return out
}

// States returns the states of records of the given kind, in order
func (o *RecordingObserver) States(kind RecordKind) []core.StateID {
	var out []core.StateID
	for _, r := range o.Records() {
		if r.Kind == kind {
			out = append(out, r.State)
		}
	}
	return out
}

// Reset discards all records
func (o *RecordingObserver) Reset() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.records = nil
}

// OnStateEnter implements engine.Observer
func (o *RecordingObserver) OnStateEnter(state core.StateID, ctx *core.Context) {
	o.add(Record{Kind: RecordEnter, State: state}, ctx)
}

// OnStateExit implements engine.ExtendedObserver
func (o *RecordingObserver) OnStateExit(state core.StateID, ctx *core.Context) {
	o.add(Record{Kind: RecordExit, State: state}, ctx)
}

// OnTransition implements engine.Observer; State is the transition owner
func (o *RecordingObserver) OnTransition(rec engine.TransitionRecord, ctx *core.Context) {
	o.add(Record{Kind: RecordTransition, State: rec.Owner, Event: rec.Event}, ctx)
}

// OnEventIgnored implements engine.ExtendedObserver
func (o *RecordingObserver) OnEventIgnored(event *core.Event, ctx *core.Context) {
	o.add(Record{Kind: RecordIgnored, Event: event.Kind}, ctx)
}

// OnEventProcessed implements engine.ExtendedObserver
func (o *RecordingObserver) OnEventProcessed(outcome engine.Outcome, ctx *core.Context) {
	o.add(Record{Kind: RecordProcessed, Outcome: outcome.Kind}, ctx)
}

// OnError implements engine.ExtendedObserver
func (o *RecordingObserver) OnError(err error, ctx *core.Context) {
	r := Record{Kind: RecordError, Err: err}
	if ctx != nil {
		r.State = ctx.State
	}
	o.add(r, ctx)
}

// OnMachineStarted implements engine.ExtendedObserver
func (o *RecordingObserver) OnMachineStarted(ctx *core.Context) {
	o.add(Record{Kind: RecordStarted}, ctx)
}

// OnMachineStopped implements engine.ExtendedObserver
func (o *RecordingObserver) OnMachineStopped(ctx *core.Context) {
	o.add(Record{Kind: RecordStopped}, ctx)
}
