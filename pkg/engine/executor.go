package engine

import (
	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/history"
	"github.com/anggasct/hsm/pkg/states"
	"github.com/anggasct/hsm/pkg/utils"
)

// Executor runs transitions against the live active set: exits leaf to
// root, then the transition action, then entries root to leaf.
type Executor struct {
	h         *states.Hierarchy
	history   *history.Tracker
	active    *activeSet
	regions   *RegionCoordinator
	observers *ObserverManager
}

func newExecutor(h *states.Hierarchy, tracker *history.Tracker, active *activeSet, regions *RegionCoordinator, observers *ObserverManager) *Executor {
	return &Executor{
		h:         h,
		history:   tracker,
		active:    active,
		regions:   regions,
		observers: observers,
	}
}

// step carries the per-transition bookkeeping
type step struct {
	ctx       *core.Context
	errs      *utils.ErrorCollector
	exited    []core.StateID
	entered   []core.StateID
	lastChild map[core.StateID]core.StateID // most recently exited child per state
}

func newStep(ctx *core.Context, errs *utils.ErrorCollector) *step {
	return &step{ctx: ctx, errs: errs, lastChild: make(map[core.StateID]core.StateID)}
}

// Domain returns the state that stays active while a transition from leaf
// to target runs. It is the LCA of leaf and target, or the target's parent
// for self and ancestor targets. "" means the whole machine is left.
//
// A parallel domain is never exited. Only its regions that hold leaf or
// target are exited and re-entered; the others keep their configuration.
// A cross-region transition therefore also exits the region of the source,
// up to but excluding the domain, and re-enters it by its initial child so
// that every region stays populated.
func (ex *Executor) Domain(leaf, target core.StateID) core.StateID {
	domain := ex.h.LCA(leaf, target)
	if domain == target {
		// self and ancestor targets are left and re-entered
		domain = ex.h.Parent(target)
	}
	return domain
}

// Execute runs one claim. Action failures are collected in errs and never
// stop the sweep.
func (ex *Executor) Execute(ctx *core.Context, claim Claim, errs *utils.ErrorCollector) TransitionRecord {
	spec := claim.Spec
	rec := TransitionRecord{
		Event:    eventKind(ctx.Event),
		Source:   claim.Leaf,
		Owner:    claim.Owner,
		Target:   spec.Target,
		Internal: spec.Internal || !spec.HasTarget(),
		History:  spec.History,
	}
	ctx = ctx.ForEvent(ctx.Event, claim.Leaf, spec.Target)
	s := newStep(ctx, errs)

	if rec.Internal {
		ex.runAction(s, spec.Action, claim.Owner, utils.PhaseTransition)
		return rec
	}

	rec.Domain = ex.Domain(claim.Leaf, spec.Target)

	if ex.h.IsParallel(rec.Domain) {
		ex.crossRegions(s, rec.Domain, claim, spec)
	} else {
		ex.exitBelow(s, rec.Domain)
		ex.runAction(s, spec.Action, claim.Owner, utils.PhaseTransition)
		ex.enterPath(s, ex.entryPath(rec.Domain, spec.Target), spec.History)
	}

	rec.Exited = s.exited
	rec.Entered = s.entered
	return rec
}

// EnterInitial enters root and descends through initial children
func (ex *Executor) EnterInitial(ctx *core.Context, root core.StateID, errs *utils.ErrorCollector) []core.StateID {
	s := newStep(ctx, errs)
	ex.enterPath(s, []core.StateID{root}, core.HistoryNone)
	return s.entered
}

// ExitAll exits every active state, recording history on the way out
func (ex *Executor) ExitAll(ctx *core.Context, errs *utils.ErrorCollector) []core.StateID {
	s := newStep(ctx, errs)
	ex.exitBelow(s, "")
	return s.exited
}

// exitBelow exits the active proper descendants of domain, children first
func (ex *Executor) exitBelow(s *step, domain core.StateID) {
	for _, id := range ex.regions.exitOrder(domain) {
		ex.exitState(s, id)
	}
}

// crossRegions runs a transition whose domain is a parallel state: the
// regions holding the source and the target are exited and re-entered in
// declaration order, every other region is left alone
func (ex *Executor) crossRegions(s *step, parallel core.StateID, claim Claim, spec core.TransitionSpec) {
	regions := ex.regions.affectedRegions(parallel, claim.Leaf, spec.Target)
	for _, r := range regions {
		ex.exitBelow(s, r)
		ex.exitState(s, r)
	}

	ex.runAction(s, spec.Action, claim.Owner, utils.PhaseTransition)

	path := ex.entryPath(parallel, spec.Target)
	for _, r := range regions {
		if len(path) > 0 && r == path[0] {
			ex.enterPath(s, path, spec.History)
			continue
		}
		ex.enterState(s, r)
		ex.descend(s, r, core.HistoryNone)
	}
}

func (ex *Executor) exitState(s *step, id core.StateID) {
	n, _ := ex.h.Node(id)

	ex.runAction(s, n.Exit, id, utils.PhaseExit)

	if child, ok := s.lastChild[id]; ok && !n.Parallel {
		ex.history.RecordExit(id, child)
	}
	if n.Parent != "" {
		s.lastChild[n.Parent] = id
	}

	ex.active.remove(id)
	s.exited = append(s.exited, id)
	ex.observers.NotifyStateExit(id, s.ctx.ForState(id))
}

// entryPath returns the states from just below domain down to target
func (ex *Executor) entryPath(domain, target core.StateID) []core.StateID {
	path := ex.h.Path(target)
	if domain == "" {
		return path
	}
	for i, id := range path {
		if id == domain {
			return path[i+1:]
		}
	}
	return path
}

// enterPath enters path root to leaf. Parallel states on the path enter
// their other regions by default, in declaration order. The last state
// then descends by history or initial child.
func (ex *Executor) enterPath(s *step, path []core.StateID, mode core.HistoryType) {
	if len(path) == 0 {
		return
	}
	id := path[0]
	ex.enterState(s, id)

	if len(path) == 1 {
		ex.descend(s, id, mode)
		return
	}

	if !ex.h.IsParallel(id) {
		ex.enterPath(s, path[1:], mode)
		return
	}

	for _, r := range ex.regions.entryPlan(id, path[1]) {
		if r.onPath {
			ex.enterPath(s, path[1:], mode)
			continue
		}
		ex.enterState(s, r.region)
		ex.descend(s, r.region, core.HistoryNone)
	}
}

// descend enters below an already entered state until every region rests
// on a leaf. Shallow history applies to the first composite level only,
// deep history to every level. A parallel state passes the mode on to its
// regions unchanged.
func (ex *Executor) descend(s *step, id core.StateID, mode core.HistoryType) {
	n, ok := ex.h.Node(id)
	if !ok || n.IsLeaf() {
		return
	}

	if n.Parallel {
		for _, r := range ex.regions.entryPlan(id, "") {
			ex.enterState(s, r.region)
			ex.descend(s, r.region, mode)
		}
		return
	}

	child := n.InitialChild
	if mode != core.HistoryNone {
		if recorded, ok := ex.history.Lookup(id); ok {
			child = recorded
		}
	}

	next := mode
	if mode == core.ShallowHistory {
		next = core.HistoryNone
	}

	ex.enterState(s, child)
	ex.descend(s, child, next)
}

func (ex *Executor) enterState(s *step, id core.StateID) {
	n, _ := ex.h.Node(id)

	ex.active.add(id)
	s.entered = append(s.entered, id)
	ex.runAction(s, n.Entry, id, utils.PhaseEntry)
	ex.observers.NotifyStateEnter(id, s.ctx.ForState(id))
}

func (ex *Executor) runAction(s *step, action core.Action, state core.StateID, phase utils.ActionPhase) {
	if action == nil {
		return
	}
	ctx := s.ctx.ForState(state)
	if err := core.SafeAction(action, ctx); err != nil {
		ae := &utils.ActionError{
			Phase:     phase,
			StateID:   string(state),
			EventKind: string(eventKind(s.ctx.Event)),
			Cause:     err,
		}
		s.errs.Add(ae)
		ex.observers.NotifyError(ae, ctx)
	}
}

func eventKind(e *core.Event) core.EventKind {
	if e == nil {
		return ""
	}
	return e.Kind
}
