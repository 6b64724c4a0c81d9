// Package history keeps the last active child of every exited composite state
package history

import (
	"sync"

	"github.com/anggasct/hsm/pkg/core"
)

// Tracker is a flat side table keyed by composite state. Entries are
// created on first exit, overwritten on every later exit and never evicted.
type Tracker struct {
	entries map[core.StateID]core.StateID
	mutex   sync.RWMutex
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[core.StateID]core.StateID),
	}
}

// RecordExit remembers the child that was active when composite was exited
func (t *Tracker) RecordExit(composite, child core.StateID) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.entries[composite] = child
}

// Lookup returns the recorded child of composite
func (t *Tracker) Lookup(composite core.StateID) (core.StateID, bool) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	child, ok := t.entries[composite]
	return child, ok
}

// Len returns the number of composites with recorded history
func (t *Tracker) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.entries)
}

// Snapshot returns a copy of every entry
func (t *Tracker) Snapshot() map[core.StateID]core.StateID {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	out := make(map[core.StateID]core.StateID, len(t.entries))
	for k, v := range t.entries {
		out[k] = v
	}
	return out
}

// Restore replaces every entry with the given ones
func (t *Tracker) Restore(entries map[core.StateID]core.StateID) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.entries = make(map[core.StateID]core.StateID, len(entries))
	for k, v := range entries {
		t.entries[k] = v
	}
}
