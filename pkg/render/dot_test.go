package render

import (
	"context"
	"strings"
	"testing"

	"github.com/chazu/linkage/pkg/kinematic"
	"github.com/chazu/linkage/pkg/xform"
)

func sampleTree() *kinematic.Tree {
	return &kinematic.Tree{
		Name: "rover",
		Links: []*kinematic.Link{
			{Name: "base", Grounded: true, Format: kinematic.MeshSTL},
			{Name: "arm", Format: kinematic.MeshOBJ},
			{Name: "wheel", Format: kinematic.MeshSTL},
		},
		Joints: []*kinematic.Joint{
			{
				Name: "shoulder", Kind: kinematic.JointRevolute, Parent: "base", Child: "arm",
				Origin:   xform.Pose{XYZ: [3]float64{0.1, 0.02, -0.06}},
				Strategy: kinematic.StrategyLocal,
			},
		},
		Filtered: []kinematic.FilterDecision{
			{Link: "screw_1", Degree: 1, Diagonal: 0.2, Reason: "small leaf part"},
			{Link: "arm", Degree: 1, Diagonal: 20, Kept: true},
		},
	}
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(sampleTree(), Options{})

	for _, want := range []string{
		"digraph G",
		`label="rover"`,
		`"base" [label="base\n(grounded)", peripheries=2]`,
		`"arm" [label="arm [obj]"]`,
		`"base" -> "arm"`,
		`label="shoulder\nrevolute"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %s\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "screw_1") {
		t.Error("filtered parts are hidden by default")
	}
}

func TestToDOT_FloatingAndFallback(t *testing.T) {
	dot := ToDOT(sampleTree(), Options{})

	if !strings.Contains(dot, `"wheel" [label="wheel", style="rounded,filled,dashed"]`) {
		t.Errorf("floating link not dashed:\n%s", dot)
	}
	if !strings.Contains(dot, "color=orange") {
		t.Error("fallback joint should be orange")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(sampleTree(), Options{Detailed: true, Filtered: true})

	if !strings.Contains(dot, `xyz 0.100 0.020 -0.060`) || !strings.Contains(dot, `via local`) {
		t.Errorf("detailed output missing origin or strategy:\n%s", dot)
	}
	if !strings.Contains(dot, `"filtered:screw_1"`) || !strings.Contains(dot, "lightgrey") {
		t.Errorf("filtered part missing:\n%s", dot)
	}
	if strings.Contains(dot, `"filtered:arm"`) {
		t.Error("kept parts are not drawn as filtered")
	}
}

func TestToDOT_Empty(t *testing.T) {
	dot := ToDOT(&kinematic.Tree{}, Options{})
	if !strings.HasPrefix(dot, "digraph G {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("malformed empty graph:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sampleTree(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("output is not SVG")
	}
}
