package observers

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/engine"
	"github.com/anggasct/hsm/pkg/utils"
)

const (
	namespace = "hsm"
	subsystem = "machine"
)

// Metrics holds the prometheus collectors shared by every MetricsObserver
// created from it. Register it once per registry.
type Metrics struct {
	events        *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	stateEntries  *prometheus.CounterVec
	stateDuration *prometheus.HistogramVec
	actionErrors  *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "events_total",
				Help:      "Total number of processed events by outcome",
			},
			[]string{"machine", "event", "outcome"},
		),
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transitions_total",
				Help:      "Total number of executed transitions",
			},
			[]string{"machine", "owner", "target"},
		),
		stateEntries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "state_entries_total",
				Help:      "Total number of state entries",
			},
			[]string{"machine", "state"},
		),
		stateDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "state_duration_seconds",
				Help:      "Time spent in a state between entry and exit",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"machine", "state"},
		),
		actionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "action_errors_total",
				Help:      "Total number of failed actions by phase",
			},
			[]string{"machine", "phase"},
		),
	}
}

// Observer returns an observer that records into m under the machine label
func (m *Metrics) Observer(machine string) *MetricsObserver {
	labels := prometheus.Labels{"machine": machine}
	return &MetricsObserver{
		events:         m.events.MustCurryWith(labels),
		transitions:    m.transitions.MustCurryWith(labels),
		stateEntries:   m.stateEntries.MustCurryWith(labels),
		stateDuration:  m.stateDuration.MustCurryWith(labels),
		actionErrors:   m.actionErrors.MustCurryWith(labels),
		lastStateEntry: make(map[core.StateID]time.Time),
		now:            time.Now,
	}
}

// MetricsObserver exports machine activity as prometheus metrics
type MetricsObserver struct {
	engine.BaseObserver

	events        *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	stateEntries  *prometheus.CounterVec
	stateDuration prometheus.ObserverVec
	actionErrors  *prometheus.CounterVec

	lastStateEntry map[core.StateID]time.Time
	now            func() time.Time
	mutex          sync.Mutex
}

var _ engine.ExtendedObserver = (*MetricsObserver)(nil)

// OnStateEnter counts the entry and starts timing the state
func (o *MetricsObserver) OnStateEnter(state core.StateID, ctx *core.Context) {
	o.stateEntries.WithLabelValues(string(state)).Inc()

	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.lastStateEntry[state] = o.now()
}

// OnStateExit records the time spent in the state
func (o *MetricsObserver) OnStateExit(state core.StateID, ctx *core.Context) {
	o.mutex.Lock()
	entered, ok := o.lastStateEntry[state]
	delete(o.lastStateEntry, state)
	o.mutex.Unlock()

	if ok {
		o.stateDuration.WithLabelValues(string(state)).Observe(o.now().Sub(entered).Seconds())
	}
}

// OnTransition counts executed transitions by owner and target
func (o *MetricsObserver) OnTransition(rec engine.TransitionRecord, ctx *core.Context) {
	target := rec.Target
	if target == "" {
		target = rec.Owner
	}
	o.transitions.WithLabelValues(string(rec.Owner), string(target)).Inc()
}

// OnEventProcessed counts events by kind and outcome
func (o *MetricsObserver) OnEventProcessed(outcome engine.Outcome, ctx *core.Context) {
	kind := ""
	if outcome.Event != nil {
		kind = string(outcome.Event.Kind)
	}
	o.events.WithLabelValues(kind, outcome.Kind.String()).Inc()
}

// OnError counts action failures by phase. Errors that are not action
// failures, such as observer panics, are counted under "observer".
func (o *MetricsObserver) OnError(err error, ctx *core.Context) {
	phase := "observer"
	var ae *utils.ActionError
	if errors.As(err, &ae) {
		phase = string(ae.Phase)
	}
	o.actionErrors.WithLabelValues(phase).Inc()
}
