package engine

import (
	"time"

	"github.com/goccy/go-json"

	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/utils"
)

// Snapshot is the runtime state of a machine: what is active and what each
// composite remembers. It does not describe the hierarchy itself.
type Snapshot struct {
	MachineID string                        `json:"machine_id"`
	Root      core.StateID                  `json:"root"`
	Running   bool                          `json:"running"`
	Active    []core.StateID                `json:"active"`
	History   map[core.StateID]core.StateID `json:"history"`
	TakenAt   time.Time                     `json:"taken_at"`
}

// Snapshot captures the machine's runtime state. Taken from an action or
// observer it reflects the sweep in progress.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		MachineID: m.id,
		Root:      m.root,
		Running:   m.IsRunning(),
		Active:    m.active.all(),
		History:   m.history.Snapshot(),
		TakenAt:   time.Now().UTC(),
	}
}

// MarshalJSON serializes the machine's runtime state
func (m *Machine) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Snapshot())
}

// UnmarshalJSON restores runtime state produced by MarshalJSON
func (m *Machine) UnmarshalJSON(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return utils.ErrInvalidSnapshot.WithCause(err)
	}
	return m.Restore(snap)
}

// Restore replaces the runtime state of a stopped machine without running
// any action. The snapshot must describe a consistent configuration of this
// machine's root.
func (m *Machine) Restore(snap Snapshot) error {
	m.stepMu.Lock()
	defer m.stepMu.Unlock()

	if m.IsRunning() {
		return utils.ErrAlreadyStarted.WithDetail("machine", m.id)
	}
	if snap.Root != m.root {
		return utils.ErrInvalidSnapshot.WithDetail("root", snap.Root)
	}
	if err := m.checkSnapshot(snap); err != nil {
		return err
	}

	m.active.replace(snap.Active)
	m.history.Restore(snap.History)

	if snap.Running {
		m.lifecycle.SetState(LifecycleRunning)
	}
	m.logger.Debugf("Machine %s restored %s from snapshot of %s", m.id, m.active.leaves(), snap.MachineID)
	return nil
}

// checkSnapshot verifies that the active set is the closure of a legal
// configuration: the root plus, for every active composite, exactly one
// active child or, for parallel states, every region.
func (m *Machine) checkSnapshot(snap Snapshot) error {
	for composite, child := range snap.History {
		if !m.h.Contains(composite) || m.h.Parent(child) != composite {
			return utils.ErrInvalidSnapshot.WithState(string(composite)).WithDetail("history", child)
		}
	}

	if !snap.Running {
		if len(snap.Active) > 0 {
			return utils.ErrInvalidSnapshot.WithDetail("reason", "stopped machine with active states")
		}
		return nil
	}

	active := make(map[core.StateID]bool, len(snap.Active))
	for _, id := range snap.Active {
		if !m.h.Contains(id) {
			return utils.ErrStateNotFound.WithState(string(id))
		}
		active[id] = true
	}
	if !active[m.root] {
		return utils.ErrInvalidSnapshot.WithDetail("reason", "root not active")
	}

	for id := range active {
		if id != m.root && !active[m.h.Parent(id)] {
			return utils.ErrInvalidSnapshot.WithState(string(id)).WithDetail("reason", "parent not active")
		}

		n, _ := m.h.Node(id)
		if n.IsLeaf() {
			continue
		}

		count := 0
		for _, c := range n.Children {
			if active[c] {
				count++
			}
		}
		if n.Parallel && count != len(n.Children) {
			return utils.ErrInvalidSnapshot.WithState(string(id)).WithDetail("reason", "inactive region")
		}
		if !n.Parallel && count != 1 {
			return utils.ErrInvalidSnapshot.WithState(string(id)).WithDetail("active_children", count)
		}
	}
	return nil
}
