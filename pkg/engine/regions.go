package engine

import (
	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/states"
)

// RegionCoordinator answers region questions for parallel states. Regions
// are always visited in declaration order.
type RegionCoordinator struct {
	h      *states.Hierarchy
	active *activeSet
}

func newRegionCoordinator(h *states.Hierarchy, active *activeSet) *RegionCoordinator {
	return &RegionCoordinator{h: h, active: active}
}

// Regions returns the regions of a parallel state, or nil for any other state
func (rc *RegionCoordinator) Regions(parallel core.StateID) []core.StateID {
	if !rc.h.IsParallel(parallel) {
		return nil
	}
	return rc.h.Children(parallel)
}

// RegionOf returns the region of parallel that contains id, or ""
func (rc *RegionCoordinator) RegionOf(parallel, id core.StateID) core.StateID {
	if !rc.h.IsParallel(parallel) {
		return ""
	}
	return rc.h.ChildToward(parallel, id)
}

// ActiveLeaves returns the active leaves of every region of parallel, keyed by region
func (rc *RegionCoordinator) ActiveLeaves(parallel core.StateID) map[core.StateID]Configuration {
	out := make(map[core.StateID]Configuration)
	for _, region := range rc.Regions(parallel) {
		var leaves Configuration
		for _, leaf := range rc.active.leaves() {
			if rc.h.IsDescendantOrSelf(leaf, region) {
				leaves = append(leaves, leaf)
			}
		}
		out[region] = leaves
	}
	return out
}

// affectedRegions returns the regions of parallel that contain leaf or
// target, in declaration order
func (rc *RegionCoordinator) affectedRegions(parallel, leaf, target core.StateID) []core.StateID {
	var out []core.StateID
	for _, r := range rc.Regions(parallel) {
		if rc.h.IsDescendantOrSelf(leaf, r) || rc.h.IsDescendantOrSelf(target, r) {
			out = append(out, r)
		}
	}
	return out
}

// regionEntry is one region of a parallel state being entered
type regionEntry struct {
	region core.StateID
	// onPath is true for the region that contains the transition target
	onPath bool
}

// entryPlan orders the regions of parallel for entry. via is the next state
// on the entry path, or "" when every region is entered by default.
func (rc *RegionCoordinator) entryPlan(parallel, via core.StateID) []regionEntry {
	regions := rc.Regions(parallel)
	plan := make([]regionEntry, 0, len(regions))
	for _, r := range regions {
		plan = append(plan, regionEntry{region: r, onPath: r == via})
	}
	return plan
}

// exitOrder returns the active proper descendants of id, children before
// parents and regions in declaration order. id "" stands for every root.
func (rc *RegionCoordinator) exitOrder(id core.StateID) []core.StateID {
	var out []core.StateID

	type frame struct {
		id       core.StateID
		children []core.StateID
		next     int
	}
	stack := []*frame{{id: id, children: rc.active.activeChildren(id)}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.children) {
			child := top.children[top.next]
			top.next++
			stack = append(stack, &frame{id: child, children: rc.active.activeChildren(child)})
			continue
		}
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			out = append(out, top.id)
		}
	}
	return out
}
