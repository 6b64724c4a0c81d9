package builders

import (
	"fmt"

	"github.com/anggasct/hsm/pkg/core"
)

// Workflow event kinds
const (
	EventNext     core.EventKind = "NEXT"
	EventComplete core.EventKind = "COMPLETE"

	// CompletedState is the leaf added by FinishWorkflow
	CompletedState core.StateID = "workflow_completed"
)

// WorkflowBuilder builds a composite state whose children run one after
// another on NEXT. A parallel step runs its branches side by side and lets
// NEXT through only once every branch has reported done.
type WorkflowBuilder struct {
	*StateMachineBuilder
	root core.StateID
	last core.StateID
	// guard on leaving last, set for parallel steps
	leave core.Guard
}

// NewWorkflowBuilder creates a workflow rooted at a composite state called name
func NewWorkflowBuilder(name string) *WorkflowBuilder {
	w := &WorkflowBuilder{
		StateMachineBuilder: NewStateMachineBuilder(name),
		root:                core.StateID(name),
	}
	w.WithState(w.root)
	return w
}

// chain makes step follow the previous step on event, or makes it the first
func (w *WorkflowBuilder) chain(step core.StateID, event core.EventKind) {
	if w.last == "" {
		w.WithInitialChildState(w.root, step)
	} else {
		w.WithTransition(w.last, step, event).WithGuard(w.leave)
	}
	w.last = step
	w.leave = nil
}

// AddSequentialStep adds a step whose entry runs action
func (w *WorkflowBuilder) AddSequentialStep(name string, action core.Action) *WorkflowBuilder {
	step := core.StateID(name)
	w.WithChildState(w.root, step).WithEntryAction(action)
	w.chain(step, EventNext)
	return w
}

// BranchDoneKey is the data key that is true while a branch of a parallel step is done
func BranchDoneKey(parallel, branch string) string {
	return fmt.Sprintf("%s.%s.done", parallel, branch)
}

// BranchDoneEvent is the event that finishes a branch
func BranchDoneEvent(branch string) core.EventKind {
	return core.EventKind(branch + "_DONE")
}

// AddParallelBranch adds a parallel step with one region per branch. Each
// region waits in "<name>.<branch>.running" until <branch>_DONE moves it to
// "<name>.<branch>.done".
func (w *WorkflowBuilder) AddParallelBranch(name string, branches []string) *WorkflowBuilder {
	parallel := core.StateID(name)
	w.WithChildState(w.root, parallel).AsParallel()

	keys := make([]string, 0, len(branches))
	for _, branch := range branches {
		region := core.StateID(fmt.Sprintf("%s.%s", name, branch))
		running := region + ".running"
		done := region + ".done"
		key := BranchDoneKey(name, branch)
		keys = append(keys, key)

		w.WithChildState(parallel, region).WithInitialChild(running)
		w.WithChildState(region, running).WithEntryAction(Conditions.SetData(key, false))
		w.WithChildState(region, done).WithEntryAction(Conditions.SetData(key, true))
		w.WithTransition(running, done, BranchDoneEvent(branch))
	}

	w.chain(parallel, EventNext)
	w.leave = func(ctx *core.Context) bool {
		for _, key := range keys {
			if v, _ := ctx.Get(key); v != true {
				return false
			}
		}
		return true
	}
	return w
}

// FinishWorkflow adds CompletedState, reached from the last step on COMPLETE
func (w *WorkflowBuilder) FinishWorkflow() *WorkflowBuilder {
	w.WithChildState(w.root, CompletedState)
	w.chain(CompletedState, EventComplete)
	return w
}
