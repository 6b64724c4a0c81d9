package core

// HistoryType selects how a transition resumes a composite target
type HistoryType int

const (
	// HistoryNone enters the target through its initial child
	HistoryNone HistoryType = iota
	// ShallowHistory resumes the target's last active child, then initial children below it
	ShallowHistory
	// DeepHistory resumes the last active descendant at every level
	DeepHistory
)

// String returns the name of the history type
func (h HistoryType) String() string {
	switch h {
	case ShallowHistory:
		return "shallow"
	case DeepHistory:
		return "deep"
	default:
		return "none"
	}
}

// TransitionSpec is what a state does with a claimed event
type TransitionSpec struct {
	Target   StateID
	Action   Action
	Guard    Guard
	History  HistoryType
	Internal bool
}

// IsHistory reports whether the target is resumed from history
func (s TransitionSpec) IsHistory() bool {
	return s.History != HistoryNone
}

// HasTarget reports whether the spec moves the machine anywhere
func (s TransitionSpec) HasTarget() bool {
	return s.Target != ""
}
