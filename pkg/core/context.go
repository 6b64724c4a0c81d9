package core

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrNoEventSink is returned by Raise when the context is not bound to a machine
var ErrNoEventSink = errors.New("context is not bound to a machine")

// Data is a concurrency-safe key/value store shared by the actions of one machine
type Data struct {
	values map[string]interface{}
	mutex  sync.RWMutex
}

// NewData creates an empty store
func NewData() *Data {
	return &Data{values: make(map[string]interface{})}
}

// Set stores a value
func (d *Data) Set(key string, value interface{}) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.values[key] = value
}

// Get retrieves a value
func (d *Data) Get(key string) (interface{}, bool) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	v, ok := d.values[key]
	return v, ok
}

// Delete removes a value
func (d *Data) Delete(key string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	delete(d.values, key)
}

// Keys returns the stored keys in sorted order
func (d *Data) Keys() []string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	keys := make([]string, 0, len(d.values))
	for k := range d.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Context is passed to every action and guard
type Context struct {
	context.Context

	// Event is the event being processed; nil during start and stop
	Event *Event
	// Source is the active leaf whose chain claimed the event
	Source StateID
	// Target is the transition target, empty for targetless handlers
	Target StateID
	// State is the state whose action is running
	State StateID

	data *Data
	sink func(*Event)
}

// NewContext creates a context; sink receives events raised by actions
func NewContext(parent context.Context, data *Data, sink func(*Event)) *Context {
	if parent == nil {
		parent = context.Background()
	}
	if data == nil {
		data = NewData()
	}
	return &Context{
		Context: parent,
		data:    data,
		sink:    sink,
	}
}

// ForEvent returns a copy bound to an event and its source and target
func (c *Context) ForEvent(event *Event, source, target StateID) *Context {
	cp := *c
	cp.Event = event
	cp.Source = source
	cp.Target = target
	cp.State = ""
	return &cp
}

// ForState returns a copy whose State is set to id
func (c *Context) ForState(id StateID) *Context {
	cp := *c
	cp.State = id
	return &cp
}

// Set stores a value in the machine data
func (c *Context) Set(key string, value interface{}) {
	c.data.Set(key, value)
}

// Get retrieves a value from the machine data
func (c *Context) Get(key string) (interface{}, bool) {
	return c.data.Get(key)
}

// GetString retrieves a string value, or "" when absent or of another type
func (c *Context) GetString(key string) string {
	v, _ := c.data.Get(key)
	s, _ := v.(string)
	return s
}

// Data returns the underlying store
func (c *Context) Data() *Data {
	return c.data
}

// Raise queues an event that the machine processes after the current one completes
func (c *Context) Raise(event *Event) error {
	if c.sink == nil {
		return ErrNoEventSink
	}
	c.sink(event)
	return nil
}
