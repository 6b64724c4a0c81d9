package logger

// Component names passed to For
const (
	ComponentMachine   = "Machine"
	ComponentObserver  = "Observer"
	ComponentBuilder   = "Builder"
	ComponentHierarchy = "Hierarchy"
)
