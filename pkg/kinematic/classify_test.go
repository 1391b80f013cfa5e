package kinematic

import (
	"testing"

	"github.com/chazu/linkage/pkg/diag"
	"github.com/chazu/linkage/pkg/scene"
	"github.com/chazu/linkage/pkg/xform"
	"github.com/google/go-cmp/cmp"
)

func TestIsLinkCandidate(t *testing.T) {
	tests := []struct {
		name            string
		visible         bool
		children, joint int
		want            bool
	}{
		{"leaf", true, 0, 0, true},
		{"hidden", false, 0, 0, false},
		{"has children", true, 2, 0, false},
		{"has component joints", true, 0, 1, false},
		{"everything wrong", false, 1, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Pure: repeated calls agree.
			for i := 0; i < 3; i++ {
				if got := IsLinkCandidate(tt.visible, tt.children, tt.joint); got != tt.want {
					t.Fatalf("IsLinkCandidate() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestClassifyNested(t *testing.T) {
	a := scene.NewAssembly("bot")
	part(a, "base:1", scene.ZeroID, xform.Identity(), 10)
	group(a, "arm:1", scene.ZeroID, xform.Identity())
	group(a, "wrist:1", "arm:1", xform.Identity())
	part(a, "finger:1", "arm:1/wrist:1", xform.Identity(), 2)
	hidden := part(a, "cover:1", scene.ZeroID, xform.Identity(), 3)
	hidden.Visible = false
	motor := part(a, "motor:1", scene.ZeroID, xform.Identity(), 3)
	motor.ComponentJoints = 1

	var r diag.Report
	links := Classify(a, nil, &r)
	if diff := cmp.Diff([]string{"base_1", "finger_1"}, linkNames(links)); diff != "" {
		t.Errorf("link names mismatch (-want +got):\n%s", diff)
	}
	if links[1].ID() != "arm:1/wrist:1/finger:1" {
		t.Errorf("nested link ID = %q", links[1].ID())
	}
}

func TestClassifyNamesAndFormats(t *testing.T) {
	a := scene.NewAssembly("bot")
	part(a, "leg", scene.ZeroID, xform.Identity(), 1)
	group(a, "g", scene.ZeroID, xform.Identity())
	part(a, "leg", "g", xform.Identity(), 1)
	part(a, "Wheel (left)", scene.ZeroID, xform.Identity(), 1)

	var r diag.Report
	links := Classify(a, []string{"leg_2", "Wheel (left)"}, &r)
	if diff := cmp.Diff([]string{"leg", "leg_2", "Wheel_left"}, linkNames(links)); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	want := []MeshFormat{MeshSTL, MeshOBJ, MeshOBJ}
	for i, l := range links {
		if l.Format != want[i] {
			t.Errorf("%s format = %s, want %s", l.Name, l.Format, want[i])
		}
	}
}

func TestClassifyVisualCollisionPair(t *testing.T) {
	a := scene.NewAssembly("bot")
	paired := part(a, "paired", scene.ZeroID, xform.Identity(), 1)
	paired.Bodies = []scene.Body{cube("shell_visual", 1), cube("shell_collision", 1)}
	lone := part(a, "lone", scene.ZeroID, xform.Identity(), 1)
	lone.Bodies = []scene.Body{cube("visual", 1), cube("other", 1)}

	var r diag.Report
	links := Classify(a, nil, &r)
	if !links[0].HasVisualPair() || links[0].Visual.Name != "shell_visual" {
		t.Errorf("paired link visual = %v", links[0].Visual)
	}
	if links[1].Visual != nil || links[1].Collision != nil {
		t.Error("lone visual body should leave both unset")
	}
	if got := r.Filter(diag.Incomplete); len(got) != 1 || got[0].Subject != "lone" {
		t.Errorf("incomplete diagnostics = %v", got)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"base:1":        "base_1",
		"  ":            "link",
		"arm/upper 2":   "arm_upper_2",
		`bolt "M3"`:     "bolt_M3",
		"v1.2":          "v1_2",
		"already_clean": "already_clean",
	}
	for in, want := range tests {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func groundedLinks(n, groundedAt int) []*Link {
	links := make([]*Link, n)
	for i := range links {
		links[i] = &Link{Name: string(rune('a' + i)), Grounded: i == groundedAt}
	}
	return links
}

func TestCanonicalizeGround(t *testing.T) {
	tests := []struct {
		name       string
		groundedAt int
		want       []string
		found      bool
	}{
		{"grounded at 3", 3, []string{"d", "a", "b", "c", "e"}, true},
		{"grounded at 0", 0, []string{"a", "b", "c", "d", "e"}, true},
		{"grounded last", 4, []string{"e", "a", "b", "c", "d"}, true},
		{"none grounded", -1, []string{"a", "b", "c", "d", "e"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := groundedLinks(5, tt.groundedAt)
			before := linkNames(in)
			got, found := CanonicalizeGround(in)
			if found != tt.found {
				t.Errorf("found = %v, want %v", found, tt.found)
			}
			if diff := cmp.Diff(tt.want, linkNames(got)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
			again, _ := CanonicalizeGround(got)
			if diff := cmp.Diff(linkNames(got), linkNames(again)); diff != "" {
				t.Errorf("not idempotent (-once +twice):\n%s", diff)
			}
			if diff := cmp.Diff(before, linkNames(in)); diff != "" {
				t.Errorf("input mutated (-before +after):\n%s", diff)
			}
		})
	}
}

func TestCanonicalizeGroundFirstOfMany(t *testing.T) {
	links := groundedLinks(4, 2)
	links[3].Grounded = true
	got, _ := CanonicalizeGround(links)
	if got[0].Name != "c" {
		t.Errorf("root = %s, want the first grounded link c", got[0].Name)
	}
}
