package utils

import (
	"fmt"
	"strings"
)

// StructuralKind classifies a hierarchy defect found by validation
type StructuralKind string

const (
	// Cycle means a parent chain loops back on itself
	Cycle StructuralKind = "CYCLE"
	// MissingInitialChild means a composite non-parallel state has no usable initial child
	MissingInitialChild StructuralKind = "MISSING_INITIAL_CHILD"
	// DanglingParent means a state names a parent that does not exist
	DanglingParent StructuralKind = "DANGLING_PARENT"
	// OrphanHistoryTarget means a history transition targets a leaf state
	OrphanHistoryTarget StructuralKind = "ORPHAN_HISTORY_TARGET"
	// UnknownTarget means a handler targets a state that does not exist
	UnknownTarget StructuralKind = "UNKNOWN_TARGET"
	// InvalidInternalTarget means an internal transition names a state outside its owner's chain
	InvalidInternalTarget StructuralKind = "INVALID_INTERNAL_TARGET"
)

// StructuralIssue is a single validation finding
type StructuralIssue struct {
	Kind    StructuralKind
	StateID string
	Message string
}

func (i StructuralIssue) String() string {
	if i.StateID == "" {
		return fmt.Sprintf("%s: %s", i.Kind, i.Message)
	}
	return fmt.Sprintf("%s at %s: %s", i.Kind, i.StateID, i.Message)
}

// StructuralError aggregates every defect found while validating a hierarchy
type StructuralError struct {
	Issues []StructuralIssue
}

// AddIssue records a defect
func (e *StructuralError) AddIssue(kind StructuralKind, stateID, format string, args ...interface{}) {
	e.Issues = append(e.Issues, StructuralIssue{
		Kind:    kind,
		StateID: stateID,
		Message: fmt.Sprintf(format, args...),
	})
}

// HasIssues returns whether any defect was recorded
func (e *StructuralError) HasIssues() bool {
	return len(e.Issues) > 0
}

// Has reports whether a defect of the given kind was recorded
func (e *StructuralError) Has(kind StructuralKind) bool {
	for _, issue := range e.Issues {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}

// Kinds returns the distinct defect kinds in the order first seen
func (e *StructuralError) Kinds() []StructuralKind {
	seen := make(map[StructuralKind]bool)
	var kinds []StructuralKind
	for _, issue := range e.Issues {
		if !seen[issue.Kind] {
			seen[issue.Kind] = true
			kinds = append(kinds, issue.Kind)
		}
	}
	return kinds
}

// Error implements the error interface
func (e *StructuralError) Error() string {
	if len(e.Issues) == 1 {
		return fmt.Sprintf("[%s] %s", CodeStructural, e.Issues[0])
	}

	lines := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		lines = append(lines, "  "+issue.String())
	}
	return fmt.Sprintf("[%s] %d issues:\n%s", CodeStructural, len(e.Issues), strings.Join(lines, "\n"))
}
