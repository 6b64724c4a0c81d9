package engine

import (
	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/states"
	"github.com/anggasct/hsm/pkg/utils"
)

// Claim is a handler found for one active leaf
type Claim struct {
	Leaf  core.StateID
	Owner core.StateID
	Spec  core.TransitionSpec
}

// Dispatcher finds, for each active leaf, the nearest state that handles an event
type Dispatcher struct {
	h *states.Hierarchy
}

// NewDispatcher creates a dispatcher over a validated hierarchy
func NewDispatcher(h *states.Hierarchy) *Dispatcher {
	return &Dispatcher{h: h}
}

// Dispatch walks each leaf's ancestor chain bottom-up. The first state with a
// handler for the event kind whose guard passes claims the event for that
// leaf. Leaves are offered the event in configuration order, and a state
// reached from several leaves claims it only once. Guard panics count as
// rejections and are recorded in errs. An empty result means the event is
// ignored.
func (d *Dispatcher) Dispatch(ctx *core.Context, event *core.Event, config Configuration, errs *utils.ErrorCollector) []Claim {
	var claims []Claim
	claimed := make(map[core.StateID]bool)

	for _, leaf := range config {
		claim, ok := d.claim(ctx, event, leaf, errs)
		if !ok || claimed[claim.Owner] {
			continue
		}
		claimed[claim.Owner] = true
		claims = append(claims, claim)
	}
	return claims
}

func (d *Dispatcher) claim(ctx *core.Context, event *core.Event, leaf core.StateID, errs *utils.ErrorCollector) (Claim, bool) {
	for cur := leaf; cur != ""; {
		n, ok := d.h.Node(cur)
		if !ok {
			break
		}

		if spec, ok := n.Handler(event.Kind); ok {
			pass, err := core.SafeGuard(spec.Guard, ctx.ForEvent(event, leaf, spec.Target).ForState(cur))
			if err != nil && errs != nil {
				errs.Add(&utils.ActionError{
					Phase:     utils.PhaseGuard,
					StateID:   string(cur),
					EventKind: string(event.Kind),
					Cause:     err,
				})
			}
			if pass {
				return Claim{Leaf: leaf, Owner: cur, Spec: spec}, true
			}
		}

		cur = n.Parent
	}
	return Claim{}, false
}
