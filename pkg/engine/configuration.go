// Package engine dispatches events through a validated state hierarchy and
// executes the resulting transitions.
package engine

import (
	"sort"
	"strings"
	"sync"

	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/states"
)

// Configuration is the ordered set of active leaves, one per active region,
// in document order
type Configuration []core.StateID

// Contains reports whether id is one of the active leaves
func (c Configuration) Contains(id core.StateID) bool {
	for _, x := range c {
		if x == id {
			return true
		}
	}
	return false
}

// Leaf returns the first active leaf, which is the only one outside parallel states
func (c Configuration) Leaf() core.StateID {
	if len(c) == 0 {
		return ""
	}
	return c[0]
}

// Clone returns a copy
func (c Configuration) Clone() Configuration {
	if c == nil {
		return nil
	}
	out := make(Configuration, len(c))
	copy(out, c)
	return out
}

// String joins the leaves with commas
func (c Configuration) String() string {
	parts := make([]string, len(c))
	for i, id := range c {
		parts[i] = string(id)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// activeSet is every active state, composites included
type activeSet struct {
	h     *states.Hierarchy
	ids   map[core.StateID]bool
	mutex sync.RWMutex
}

func newActiveSet(h *states.Hierarchy) *activeSet {
	return &activeSet{h: h, ids: make(map[core.StateID]bool)}
}

func (a *activeSet) add(id core.StateID) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.ids[id] = true
}

func (a *activeSet) remove(id core.StateID) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	delete(a.ids, id)
}

func (a *activeSet) has(id core.StateID) bool {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.ids[id]
}

func (a *activeSet) replace(ids []core.StateID) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.ids = make(map[core.StateID]bool, len(ids))
	for _, id := range ids {
		a.ids[id] = true
	}
}

// all returns every active state in document order
func (a *activeSet) all() []core.StateID {
	a.mutex.RLock()
	out := make([]core.StateID, 0, len(a.ids))
	for id := range a.ids {
		out = append(out, id)
	}
	a.mutex.RUnlock()

	a.sortDocument(out)
	return out
}

// leaves returns the active leaves in document order
func (a *activeSet) leaves() Configuration {
	a.mutex.RLock()
	out := make(Configuration, 0, len(a.ids))
	for id := range a.ids {
		if a.h.IsLeaf(id) {
			out = append(out, id)
		}
	}
	a.mutex.RUnlock()

	a.sortDocument(out)
	return out
}

// activeChildren returns the active children of id in declaration order
func (a *activeSet) activeChildren(id core.StateID) []core.StateID {
	var kids []core.StateID
	if id == "" {
		kids = a.h.Roots()
	} else {
		kids = a.h.Children(id)
	}

	a.mutex.RLock()
	defer a.mutex.RUnlock()
	out := make([]core.StateID, 0, len(kids))
	for _, k := range kids {
		if a.ids[k] {
			out = append(out, k)
		}
	}
	return out
}

func (a *activeSet) sortDocument(ids []core.StateID) {
	sort.Slice(ids, func(i, j int) bool {
		return a.h.DocumentOrder(ids[i]) < a.h.DocumentOrder(ids[j])
	})
}
