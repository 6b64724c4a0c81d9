package visualization_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anggasct/hsm/pkg/builders"
	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/states"
	"github.com/anggasct/hsm/visualization"
)

func lights(t *testing.T) *states.Hierarchy {
	t.Helper()
	b := builders.NewStateMachineBuilder("lights")
	b.WithCompositeState("Lights", "Red")
	b.WithChildState("Lights", "Red").On("go", "Green").WithGuard(builders.Conditions.IfDataExists("clear"))
	b.WithChildState("Lights", "Green").WithInitialChild("Normal")
	b.WithChildState("Green", "Normal")
	b.WithChildState("Green", "Flashing")
	b.WithTransition("Green", "Red", "stop")
	b.WithTransition("Red", "Green", "resume").WithHistory(core.ShallowHistory)
	b.WithInternalTransition("Green", "tick", func(*core.Context) error { return nil })

	h, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build hierarchy: %v", err)
	}
	return h
}

func TestDOTGeneration(t *testing.T) {
	dotContent, err := visualization.NewDOTGenerator(lights(t)).Generate()
	if err != nil {
		t.Fatalf("Failed to generate DOT: %v", err)
	}

	expected := []string{
		"digraph StateMachine",
		`subgraph "cluster_Lights"`,
		`subgraph "cluster_Green"`,
		`"Red" [shape=box]`,
		`"Lights" -> "Red" [style=bold arrowhead=vee]`,
		`"Red" -> "Green" [label="go [guard]"]`,
		`"Red" -> "Green" [label="resume (H)"]`,
		`"Green" -> "Red" [label="stop"]`,
		`"Green" -> "Green" [label="tick / action" style=dashed]`,
	}
	for _, want := range expected {
		if !strings.Contains(dotContent, want) {
			t.Errorf("DOT content should contain %s", want)
		}
	}

	t.Logf("Generated DOT content:\n%s", dotContent)
}

func TestDOTGenerationHighlightsActiveStates(t *testing.T) {
	options := visualization.DefaultDOTOptions()
	options.ShowGuardConditions = false
	options.ActiveColor = "gold"

	dotContent, err := visualization.NewDOTGenerator(lights(t), options).
		WithActive([]core.StateID{"Lights", "Red"}).
		Generate()
	if err != nil {
		t.Fatalf("Failed to generate DOT: %v", err)
	}

	if !strings.Contains(dotContent, `"Red" [shape=box style=filled fillcolor=gold]`) {
		t.Error("DOT content should highlight the active leaf")
	}
	if strings.Contains(dotContent, "[guard]") {
		t.Error("DOT content should hide guards when disabled")
	}
}

func TestDOTGenerationParallel(t *testing.T) {
	b := builders.NewStateMachineBuilder("washer")
	b.WithParallelState("Running")
	b.WithChildState("Running", "Drum").WithInitialChild("Fill")
	b.WithChildState("Drum", "Fill")
	b.WithChildState("Running", "Heater").WithInitialChild("Cold")
	b.WithChildState("Heater", "Cold")
	h, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build hierarchy: %v", err)
	}

	dotContent, err := visualization.NewDOTGenerator(h).Generate()
	if err != nil {
		t.Fatalf("Failed to generate DOT: %v", err)
	}
	if !strings.Contains(dotContent, `label="Running (parallel)"`) {
		t.Error("DOT content should label parallel states")
	}
	if !strings.Contains(dotContent, `style="dashed"`) {
		t.Error("DOT content should dash parallel clusters")
	}
}

func TestDOTGenerationRequiresValidation(t *testing.T) {
	if _, err := visualization.NewDOTGenerator(states.NewHierarchy()).Generate(); err == nil {
		t.Error("expected an error for an unvalidated hierarchy")
	}
}

func TestDOTGenerator_GenerateToFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "lights.dot")

	if err := visualization.NewDOTGenerator(lights(t)).GenerateToFile(filename); err != nil {
		t.Fatalf("Failed to generate DOT file: %v", err)
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("Failed to read DOT file: %v", err)
	}
	if !strings.HasPrefix(string(content), "digraph StateMachine {") {
		t.Error("DOT file should start with the graph declaration")
	}
}
