// Package render draws kinematic trees as Graphviz diagrams: links as
// nodes, joints as edges from parent to child.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/chazu/linkage/pkg/kinematic"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed adds joint origins and resolution strategies to edge labels.
	Detailed bool
	// Filtered adds the parts removed by the small part filter as grey,
	// unconnected nodes.
	Filtered bool
}

// ToDOT converts a tree to Graphviz DOT format.
//
// The root link has a double outline and links that no joint reaches are
// dashed. Joints resolved by a fallback strategy are drawn in orange.
func ToDOT(t *kinematic.Tree, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	if t.Name != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", t.Name)
	}
	buf.WriteString("\n")

	floating := make(map[string]bool)
	for _, l := range t.Floating() {
		floating[l.Name] = true
	}
	for i, l := range t.Links {
		attrs := []string{fmt.Sprintf("label=%q", linkLabel(l))}
		switch {
		case i == 0:
			attrs = append(attrs, "peripheries=2")
		case floating[l.Name]:
			attrs = append(attrs, "style=\"rounded,filled,dashed\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", l.Name, strings.Join(attrs, ", "))
	}

	if opts.Filtered {
		for _, d := range t.Filtered {
			if d.Kept {
				continue
			}
			fmt.Fprintf(&buf, "  %q [label=%q, style=\"rounded,filled,dashed\", fillcolor=lightgrey, fontcolor=gray30];\n",
				"filtered:"+d.Link, d.Link+"\n(filtered)")
		}
	}

	buf.WriteString("\n")
	for _, j := range t.Joints {
		attrs := []string{fmt.Sprintf("label=%q", jointLabel(j, opts.Detailed))}
		if j.Strategy != kinematic.StrategyGlobalized {
			attrs = append(attrs, "color=orange", "fontcolor=orange")
		}
		if j.Kind == kinematic.JointFixed {
			attrs = append(attrs, "style=bold")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", j.Parent, j.Child, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func linkLabel(l *kinematic.Link) string {
	label := l.Name
	if l.Format == kinematic.MeshOBJ {
		label += " [obj]"
	}
	if l.Grounded {
		label += "\n(grounded)"
	}
	return label
}

func jointLabel(j *kinematic.Joint, detailed bool) string {
	label := fmt.Sprintf("%s\n%s", j.Name, j.Kind)
	if !detailed {
		return label
	}
	o := j.Origin
	return fmt.Sprintf("%s\nxyz %.3f %.3f %.3f\nrpy %.3f %.3f %.3f\nvia %s",
		label, o.XYZ[0], o.XYZ[1], o.XYZ[2], o.RPY[0], o.RPY[1], o.RPY[2], j.Strategy)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("render: init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("render: parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
