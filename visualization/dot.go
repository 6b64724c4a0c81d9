// Package visualization renders state hierarchies as Graphviz DOT
package visualization

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/anggasct/hsm/pkg/core"
	"github.com/anggasct/hsm/pkg/states"
	"github.com/anggasct/hsm/pkg/utils"
)

// DOTGenerator generates Graphviz DOT representations of a hierarchy.
// Composite states become clusters, parallel regions are dashed.
type DOTGenerator struct {
	h       *states.Hierarchy
	options DOTOptions
	active  map[core.StateID]bool
}

// DOTOptions configures the DOT generation
type DOTOptions struct {
	ShowGuardConditions bool
	ShowActions         bool
	RankDirection       string // "TB", "LR", "BT", "RL"
	NodeShape           string
	CompositeStyle      string
	ParallelStyle       string
	ActiveColor         string
}

// DefaultDOTOptions returns sensible default options for DOT generation
func DefaultDOTOptions() DOTOptions {
	return DOTOptions{
		ShowGuardConditions: true,
		ShowActions:         true,
		RankDirection:       "TB",
		NodeShape:           "box",
		CompositeStyle:      "rounded",
		ParallelStyle:       "dashed",
		ActiveColor:         "lightgreen",
	}
}

// NewDOTGenerator creates a new DOT generator for a validated hierarchy
func NewDOTGenerator(h *states.Hierarchy, options ...DOTOptions) *DOTGenerator {
	opts := DefaultDOTOptions()
	if len(options) > 0 {
		opts = options[0]
	}
	return &DOTGenerator{h: h, options: opts, active: make(map[core.StateID]bool)}
}

// WithActive highlights the given states, typically a machine's ActiveStates
func (g *DOTGenerator) WithActive(ids []core.StateID) *DOTGenerator {
	g.active = make(map[core.StateID]bool, len(ids))
	for _, id := range ids {
		g.active[id] = true
	}
	return g
}

// Generate creates a DOT representation of the hierarchy
func (g *DOTGenerator) Generate() (string, error) {
	if g.h == nil || !g.h.Validated() {
		return "", utils.ErrNotValidated
	}

	var dot strings.Builder
	dot.WriteString("digraph StateMachine {\n")
	dot.WriteString(fmt.Sprintf("  rankdir=%s;\n", g.options.RankDirection))
	dot.WriteString("  compound=true;\n")
	dot.WriteString(fmt.Sprintf("  node [shape=%s];\n", g.options.NodeShape))
	dot.WriteString("  edge [fontsize=10];\n\n")

	for _, root := range g.h.Roots() {
		g.writeState(&dot, root, "  ")
	}

	dot.WriteString("\n")
	for _, id := range g.h.States() {
		g.writeHandlers(&dot, id)
	}

	dot.WriteString("}\n")
	return dot.String(), nil
}

func (g *DOTGenerator) writeState(dot *strings.Builder, id core.StateID, indent string) {
	n, _ := g.h.Node(id)
	if n.IsLeaf() {
		dot.WriteString(fmt.Sprintf("%s%q%s;\n", indent, id, g.nodeAttrs(id, g.options.NodeShape)))
		return
	}

	style := g.options.CompositeStyle
	if n.Parallel {
		style = g.options.ParallelStyle
	}
	dot.WriteString(fmt.Sprintf("%ssubgraph %q {\n", indent, "cluster_"+string(id)))
	dot.WriteString(fmt.Sprintf("%s  label=%q;\n", indent, label(n)))
	dot.WriteString(fmt.Sprintf("%s  style=%q;\n", indent, style))
	// anchor node that edges to and from the composite attach to
	dot.WriteString(fmt.Sprintf("%s  %q%s;\n", indent, id, g.nodeAttrs(id, "point")))

	if n.InitialChild != "" {
		dot.WriteString(fmt.Sprintf("%s  %q -> %q [style=bold arrowhead=vee];\n", indent, id, n.InitialChild))
	}
	for _, child := range n.Children {
		g.writeState(dot, child, indent+"  ")
	}
	dot.WriteString(indent + "}\n")
}

func label(n *states.StateNode) string {
	if n.Parallel {
		return string(n.ID) + " (parallel)"
	}
	return string(n.ID)
}

func (g *DOTGenerator) nodeAttrs(id core.StateID, shape string) string {
	if g.active[id] {
		return fmt.Sprintf(" [shape=%s style=filled fillcolor=%s]", shape, g.options.ActiveColor)
	}
	return fmt.Sprintf(" [shape=%s]", shape)
}

func (g *DOTGenerator) writeHandlers(dot *strings.Builder, id core.StateID) {
	n, _ := g.h.Node(id)

	kinds := make([]core.EventKind, 0, len(n.Handlers))
	for k := range n.Handlers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	for _, kind := range kinds {
		spec := n.Handlers[kind]
		target := spec.Target
		if target == "" {
			target = id
		}

		text := string(kind)
		if g.options.ShowGuardConditions && spec.Guard != nil {
			text += " [guard]"
		}
		if g.options.ShowActions && spec.Action != nil {
			text += " / action"
		}
		switch spec.History {
		case core.ShallowHistory:
			text += " (H)"
		case core.DeepHistory:
			text += " (H*)"
		}

		attrs := fmt.Sprintf("label=%q", text)
		if spec.Internal || !spec.HasTarget() {
			attrs += " style=dashed"
		}
		dot.WriteString(fmt.Sprintf("  %q -> %q [%s];\n", id, target, attrs))
	}
}

// GenerateToFile writes the DOT representation to a file
func (g *DOTGenerator) GenerateToFile(filename string) error {
	content, err := g.Generate()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, []byte(content), 0644)
}
