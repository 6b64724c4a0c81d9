package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/history"
	"github.com/anggasct/hsm/pkg/states"
	"github.com/anggasct/hsm/pkg/utils"
)

// Lifecycle states of a machine
const (
	LifecycleStopped = "stopped"
	LifecycleRunning = "running"

	lifecycleEventStart = "start"
	lifecycleEventStop  = "stop"
)

// Option configures a Machine
type Option func(*Machine)

// WithID sets the machine id; a uuid is generated otherwise
func WithID(id string) Option {
	return func(m *Machine) {
		m.id = id
	}
}

// WithRoot selects the top-level state to run when the hierarchy has several
func WithRoot(root core.StateID) Option {
	return func(m *Machine) {
		m.root = root
	}
}

// WithObserver registers an observer
func WithObserver(observer Observer) Option {
	return func(m *Machine) {
		m.observers.AddObserver(observer)
	}
}

// WithLogger sets the logger used for lifecycle and dispatch debug output
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithData shares a data store with the machine's actions
func WithData(data *core.Data) Option {
	return func(m *Machine) {
		if data != nil {
			m.data = data
		}
	}
}

// pending is an accepted event waiting for its turn
type pending struct {
	event   *core.Event
	outcome Outcome
	done    bool
}

// Machine runs one configuration of a validated hierarchy. Events are
// processed to completion one at a time; events dispatched while another is
// in flight, including events raised by actions, are queued in FIFO order.
type Machine struct {
	id   string
	h    *states.Hierarchy
	root core.StateID

	active     *activeSet
	history    *history.Tracker
	regions    *RegionCoordinator
	dispatcher *Dispatcher
	executor   *Executor
	observers  *ObserverManager
	data       *core.Data
	logger     *zap.SugaredLogger
	lifecycle  *fsm.FSM

	// stepMu is held while states are entered or exited
	stepMu  sync.Mutex
	queueMu sync.Mutex
	queue   []*pending
	// draining is set while a goroutine runs the event loop; busy while Start or Stop run
	draining atomic.Bool
	busy     atomic.Bool
}

// NewMachine creates a stopped machine over a validated hierarchy
func NewMachine(h *states.Hierarchy, opts ...Option) (*Machine, error) {
	if h == nil || !h.Validated() {
		return nil, utils.ErrNotValidated
	}

	m := &Machine{
		id:        uuid.New().String(),
		h:         h,
		history:   history.NewTracker(),
		observers: NewObserverManager(),
		data:      core.NewData(),
		logger:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.root == "" {
		roots := h.Roots()
		if len(roots) != 1 {
			return nil, utils.ErrNoRoot.WithDetail("roots", len(roots))
		}
		m.root = roots[0]
	} else if !h.Contains(m.root) || h.Parent(m.root) != "" {
		return nil, utils.ErrNoRoot.WithState(string(m.root))
	}

	m.active = newActiveSet(h)
	m.regions = newRegionCoordinator(h, m.active)
	m.dispatcher = NewDispatcher(h)
	m.executor = newExecutor(h, m.history, m.active, m.regions, m.observers)

	m.lifecycle = fsm.NewFSM(
		LifecycleStopped,
		fsm.Events{
			{Name: lifecycleEventStart, Src: []string{LifecycleStopped}, Dst: LifecycleRunning},
			{Name: lifecycleEventStop, Src: []string{LifecycleRunning}, Dst: LifecycleStopped},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				m.logger.Debugf("Machine %s lifecycle %s -> %s", m.id, e.Src, e.Dst)
			},
		},
	)

	return m, nil
}

// ID returns the machine id
func (m *Machine) ID() string {
	return m.id
}

// Root returns the top-level state this machine runs
func (m *Machine) Root() core.StateID {
	return m.root
}

// Hierarchy returns the hierarchy the machine runs
func (m *Machine) Hierarchy() *states.Hierarchy {
	return m.h
}

// Regions returns the region coordinator
func (m *Machine) Regions() *RegionCoordinator {
	return m.regions
}

// Data returns the store shared by the machine's actions
func (m *Machine) Data() *core.Data {
	return m.data
}

// State returns the lifecycle state, LifecycleStopped or LifecycleRunning
func (m *Machine) State() string {
	return m.lifecycle.Current()
}

// IsRunning returns whether the machine has been started and not stopped
func (m *Machine) IsRunning() bool {
	return m.lifecycle.Is(LifecycleRunning)
}

// AddObserver registers an observer
func (m *Machine) AddObserver(observer Observer) {
	m.observers.AddObserver(observer)
}

// RemoveObserver unregisters an observer
func (m *Machine) RemoveObserver(observer Observer) {
	m.observers.RemoveObserver(observer)
}

// Configuration returns the active leaves in document order
func (m *Machine) Configuration() Configuration {
	return m.active.leaves()
}

// ActiveStates returns every active state, composites included, in document order
func (m *Machine) ActiveStates() []core.StateID {
	return m.active.all()
}

// IsActive returns whether id is active
func (m *Machine) IsActive(id core.StateID) bool {
	return m.active.has(id)
}

// History returns the child that was active when composite was last exited
func (m *Machine) History(composite core.StateID) (core.StateID, bool) {
	return m.history.Lookup(composite)
}

// Start enters the root and descends through initial children. If entry
// actions fail the machine still starts and a *utils.ActionFailedError is
// returned. Start must not be called from inside an action.
func (m *Machine) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := func() error {
		m.stepMu.Lock()
		defer m.stepMu.Unlock()
		m.busy.Store(true)
		defer m.busy.Store(false)

		if !m.lifecycle.Can(lifecycleEventStart) {
			return utils.ErrAlreadyStarted.WithDetail("machine", m.id)
		}
		// events accepted before the previous Stop never carry over
		if dropped := m.clearQueue(); dropped > 0 {
			m.logger.Debugf("Machine %s discarded %d stale events on start", m.id, dropped)
		}
		if err := m.lifecycle.Event(ctx, lifecycleEventStart); err != nil {
			return err
		}

		c := m.newContext(ctx)
		errs := utils.NewErrorCollector()
		entered := m.executor.EnterInitial(c, m.root, errs)

		m.logger.Debugf("Machine %s started in %s (entered %v)", m.id, m.active.leaves(), entered)
		m.observers.NotifyMachineStarted(c)

		if afe := utils.NewActionFailedError(errs); afe != nil {
			return afe
		}
		return nil
	}()

	m.drain(ctx)
	return err
}

// Stop exits every active state, children first, recording history. Queued
// events are discarded. Stop must not be called from inside an action.
func (m *Machine) Stop(ctx context.Context) error {
	m.stepMu.Lock()
	defer m.stepMu.Unlock()
	m.busy.Store(true)
	defer m.busy.Store(false)

	if !m.lifecycle.Can(lifecycleEventStop) {
		return utils.ErrNotStarted.WithDetail("machine", m.id)
	}

	c := m.newContext(ctx)
	errs := utils.NewErrorCollector()
	exited := m.executor.ExitAll(c, errs)

	if err := m.lifecycle.Event(context.WithoutCancel(ctx), lifecycleEventStop); err != nil {
		return err
	}

	// Dispatch rejects events from here on
	if dropped := m.clearQueue(); dropped > 0 {
		m.logger.Debugf("Machine %s discarded %d queued events on stop", m.id, dropped)
	}

	m.logger.Debugf("Machine %s stopped (exited %v)", m.id, exited)
	m.observers.NotifyMachineStopped(c)

	if afe := utils.NewActionFailedError(errs); afe != nil {
		return afe
	}
	return nil
}

// Dispatch offers an event to every active region and runs the claimed
// transitions to completion. Unclaimed events yield OutcomeIgnored. When
// another event is being processed the event is queued and OutcomeQueued is
// returned; it runs as soon as the current event completes. The error is
// non-nil only when the event is not accepted: a cancelled context, a
// stopped machine, or an event without a kind.
func (m *Machine) Dispatch(ctx context.Context, event *core.Event) (Outcome, error) {
	if event == nil || event.Kind == "" {
		return Outcome{}, utils.ErrInvalidEvent
	}
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if !m.IsRunning() {
		return Outcome{}, utils.ErrNotStarted.WithEvent(string(event.Kind))
	}

	p := &pending{event: event}
	m.enqueue(p)

	// Start or Stop is entering or exiting states; Start drains when done
	if m.busy.Load() {
		return Outcome{Kind: OutcomeQueued, Event: event}, nil
	}

	if !m.drain(ctx) || !p.done {
		return Outcome{Kind: OutcomeQueued, Event: event}, nil
	}
	return p.outcome, nil
}

// Send is shorthand for dispatching a new event of the given kind
func (m *Machine) Send(ctx context.Context, kind core.EventKind, payload interface{}) (Outcome, error) {
	return m.Dispatch(ctx, core.NewEvent(kind, payload))
}

func (m *Machine) enqueue(p *pending) {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	m.queue = append(m.queue, p)
}

func (m *Machine) dequeue() *pending {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	if len(m.queue) == 0 {
		return nil
	}
	p := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	return p
}

func (m *Machine) queued() int {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	return len(m.queue)
}

func (m *Machine) clearQueue() int {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	n := len(m.queue)
	m.queue = nil
	return n
}

// drain processes queued events until the queue is empty. It returns false
// when another goroutine was already draining.
func (m *Machine) drain(ctx context.Context) bool {
	ran := false
	for m.draining.CompareAndSwap(false, true) {
		ran = true

		m.stepMu.Lock()
		for p := m.dequeue(); p != nil; p = m.dequeue() {
			p.outcome = m.process(ctx, p.event)
			p.done = true
		}
		m.stepMu.Unlock()

		m.draining.Store(false)
		if m.queued() == 0 {
			break
		}
	}
	return ran
}

// process runs one event to completion; stepMu must be held
func (m *Machine) process(ctx context.Context, event *core.Event) Outcome {
	c := m.newContext(ctx).ForEvent(event, "", "")

	if !m.IsRunning() {
		return Outcome{Kind: OutcomeIgnored, Event: event, Err: utils.ErrNotStarted.WithEvent(string(event.Kind))}
	}

	errs := utils.NewErrorCollector()
	config := m.active.leaves()
	claims := m.dispatcher.Dispatch(c, event, config, errs)
	for _, err := range errs.GetErrors() {
		m.observers.NotifyError(err, c)
	}

	var records []TransitionRecord
	for _, claim := range claims {
		// an earlier region's transition may have left this chain
		if !m.active.has(claim.Leaf) || !m.active.has(claim.Owner) {
			m.logger.Debugf("Machine %s skipping stale claim of %s by %s", m.id, event.Kind, claim.Owner)
			continue
		}
		rec := m.executor.Execute(c, claim, errs)
		records = append(records, rec)
		m.observers.NotifyTransition(rec, c)
	}

	out := newOutcome(event, m.active.leaves(), records, errs)
	if len(claims) == 0 {
		m.observers.NotifyEventIgnored(event, c)
	}
	m.observers.NotifyEventProcessed(out, c)
	m.logger.Debugf("Machine %s processed %s: %s -> %s (%s)", m.id, event.Kind, config, out.Configuration, out.Kind)
	return out
}

func (m *Machine) newContext(ctx context.Context) *core.Context {
	return core.NewContext(ctx, m.data, func(e *core.Event) {
		m.enqueue(&pending{event: e})
	})
}
