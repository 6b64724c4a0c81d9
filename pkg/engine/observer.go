package engine

import (
	"fmt"
	"sync"

	"github.com/anggasct/hsm/pkg/core"
)

// Observer represents an entity that observes machine activity
type Observer interface {
	// OnTransition is called after a claimed event has been executed
	OnTransition(record TransitionRecord, ctx *core.Context)

	// OnStateEnter is called after a state's entry action ran
	OnStateEnter(state core.StateID, ctx *core.Context)
}

// ExtendedObserver provides additional optional observation methods
type ExtendedObserver interface {
	Observer

	// OnStateExit is called after a state's exit action ran
	OnStateExit(state core.StateID, ctx *core.Context)

	// OnEventIgnored is called when no active chain claims an event
	OnEventIgnored(event *core.Event, ctx *core.Context)

	// OnEventProcessed is called once per event with its outcome
	OnEventProcessed(outcome Outcome, ctx *core.Context)

	// OnError is called for every failed action and for observer panics
	OnError(err error, ctx *core.Context)

	// OnMachineStarted is called when the machine starts
	OnMachineStarted(ctx *core.Context)

	// OnMachineStopped is called when the machine stops
	OnMachineStopped(ctx *core.Context)
}

// BaseObserver provides no-op implementations to embed
type BaseObserver struct{}

// OnTransition implements Observer
func (o *BaseObserver) OnTransition(record TransitionRecord, ctx *core.Context) {}

// OnStateEnter implements Observer
func (o *BaseObserver) OnStateEnter(state core.StateID, ctx *core.Context) {}

// OnStateExit implements ExtendedObserver
func (o *BaseObserver) OnStateExit(state core.StateID, ctx *core.Context) {}

// OnEventIgnored implements ExtendedObserver
func (o *BaseObserver) OnEventIgnored(event *core.Event, ctx *core.Context) {}

// OnEventProcessed implements ExtendedObserver
func (o *BaseObserver) OnEventProcessed(outcome Outcome, ctx *core.Context) {}

// OnError implements ExtendedObserver
func (o *BaseObserver) OnError(err error, ctx *core.Context) {}

// OnMachineStarted implements ExtendedObserver
func (o *BaseObserver) OnMachineStarted(ctx *core.Context) {}

// OnMachineStopped implements ExtendedObserver
func (o *BaseObserver) OnMachineStopped(ctx *core.Context) {}

// ObserverManager fans notifications out to observers. A panicking
// observer is reported through OnError and never reaches the engine.
type ObserverManager struct {
	observers []Observer
	mutex     sync.RWMutex
}

// NewObserverManager creates a new observer manager
func NewObserverManager() *ObserverManager {
	return &ObserverManager{
		observers: make([]Observer, 0),
	}
}

// AddObserver adds an observer to the manager
func (om *ObserverManager) AddObserver(observer Observer) {
	om.mutex.Lock()
	defer om.mutex.Unlock()
	om.observers = append(om.observers, observer)
}

// RemoveObserver removes an observer from the manager
func (om *ObserverManager) RemoveObserver(observer Observer) {
	om.mutex.Lock()
	defer om.mutex.Unlock()
	for i, obs := range om.observers {
		if obs == observer {
			om.observers = append(om.observers[:i], om.observers[i+1:]...)
			break
		}
	}
}

// Len returns the number of registered observers
func (om *ObserverManager) Len() int {
	om.mutex.RLock()
	defer om.mutex.RUnlock()
	return len(om.observers)
}

func (om *ObserverManager) snapshot() []Observer {
	om.mutex.RLock()
	defer om.mutex.RUnlock()
	observers := make([]Observer, len(om.observers))
	copy(observers, om.observers)
	return observers
}

func (om *ObserverManager) each(hook string, ctx *core.Context, fn func(Observer)) {
	for _, observer := range om.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil {
					if ext, ok := observer.(ExtendedObserver); ok && hook != "OnError" {
						func() {
							defer func() { _ = recover() }()
							ext.OnError(fmt.Errorf("observer panic in %s: %v", hook, r), ctx)
						}()
					}
				}
			}()
			fn(observer)
		}()
	}
}

func (om *ObserverManager) eachExtended(hook string, ctx *core.Context, fn func(ExtendedObserver)) {
	om.each(hook, ctx, func(o Observer) {
		if ext, ok := o.(ExtendedObserver); ok {
			fn(ext)
		}
	})
}

// NotifyTransition notifies all observers of an executed transition
func (om *ObserverManager) NotifyTransition(record TransitionRecord, ctx *core.Context) {
	om.each("OnTransition", ctx, func(o Observer) { o.OnTransition(record, ctx) })
}

// NotifyStateEnter notifies all observers of state entry
func (om *ObserverManager) NotifyStateEnter(state core.StateID, ctx *core.Context) {
	om.each("OnStateEnter", ctx, func(o Observer) { o.OnStateEnter(state, ctx) })
}

// NotifyStateExit notifies extended observers of state exit
func (om *ObserverManager) NotifyStateExit(state core.StateID, ctx *core.Context) {
	om.eachExtended("OnStateExit", ctx, func(o ExtendedObserver) { o.OnStateExit(state, ctx) })
}

// NotifyEventIgnored notifies extended observers of an unclaimed event
func (om *ObserverManager) NotifyEventIgnored(event *core.Event, ctx *core.Context) {
	om.eachExtended("OnEventIgnored", ctx, func(o ExtendedObserver) { o.OnEventIgnored(event, ctx) })
}

// NotifyEventProcessed notifies extended observers of an event outcome
func (om *ObserverManager) NotifyEventProcessed(outcome Outcome, ctx *core.Context) {
	om.eachExtended("OnEventProcessed", ctx, func(o ExtendedObserver) { o.OnEventProcessed(outcome, ctx) })
}

// NotifyError notifies extended observers of an error
func (om *ObserverManager) NotifyError(err error, ctx *core.Context) {
	om.eachExtended("OnError", ctx, func(o ExtendedObserver) { o.OnError(err, ctx) })
}

// NotifyMachineStarted notifies extended observers that the machine started
func (om *ObserverManager) NotifyMachineStarted(ctx *core.Context) {
	om.eachExtended("OnMachineStarted", ctx, func(o ExtendedObserver) { o.OnMachineStarted(ctx) })
}

// NotifyMachineStopped notifies extended observers that the machine stopped
func (om *ObserverManager) NotifyMachineStopped(ctx *core.Context) {
	om.eachExtended("OnMachineStopped", ctx, func(o ExtendedObserver) { o.OnMachineStopped(ctx) })
}
