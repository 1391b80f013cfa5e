package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/linkage/pkg/kernel"
	"github.com/chazu/linkage/pkg/scene"
	"github.com/chazu/linkage/pkg/xform"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/go-cmp/cmp"
)

// boxKernel models every solid by its bounding box.
type boxKernel struct{}

func (boxKernel) Box(x, y, z float64) kernel.Solid {
	return kernel.AABB{Min: [3]float64{-x / 2, -y / 2, -z / 2}, Max: [3]float64{x / 2, y / 2, z / 2}}
}
func (k boxKernel) Cylinder(h, r float64) kernel.Solid { return k.Box(2*r, 2*r, h) }
func (k boxKernel) Sphere(r float64) kernel.Solid      { return k.Box(2*r, 2*r, 2*r) }

func (boxKernel) Union(a, b kernel.Solid) kernel.Solid {
	amin, amax := a.BoundingBox()
	bmin, bmax := b.BoundingBox()
	var out kernel.AABB
	for i := 0; i < 3; i++ {
		out.Min[i] = math.Min(amin[i], bmin[i])
		out.Max[i] = math.Max(amax[i], bmax[i])
	}
	return out
}
func (boxKernel) Difference(a, b kernel.Solid) kernel.Solid { return a }

func (boxKernel) Transform(s kernel.Solid, t xform.Transform) kernel.Solid {
	min, max := s.BoundingBox()
	out := kernel.AABB{
		Min: [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)},
		Max: [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
	for c := 0; c < 8; c++ {
		p := mgl64.Vec3{min[0], min[1], min[2]}
		for i := 0; i < 3; i++ {
			if c&(1<<i) != 0 {
				p[i] = max[i]
			}
		}
		q := t.Apply(p)
		for i := 0; i < 3; i++ {
			out.Min[i] = math.Min(out.Min[i], q[i])
			out.Max[i] = math.Max(out.Max[i], q[i])
		}
	}
	return out
}
func (boxKernel) Scale(s kernel.Solid, k float64) kernel.Solid { return s }
func (boxKernel) ToMesh(kernel.Solid) (*kernel.Mesh, error) {
	return nil, errors.New("not supported")
}

func evalOK(t *testing.T, source string) *scene.Assembly {
	t.Helper()
	a, evalErrs, err := NewEngine(boxKernel{}).Evaluate(source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return a
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"simple keyword", `(assembly "bot" :author "me")`, `(assembly "bot" "__kw_author" "me")`},
		{"multiple keywords", `(part "a" :at v :grounded true)`, `(part "a" "__kw_at" v "__kw_grounded" true)`},
		{"keyword in string preserved", `"thing with :keyword inside"`, `"thing with :keyword inside"`},
		{"escaped quote in string", `"say \":hi\"" :x`, `"say \":hi\"" "__kw_x"`},
		{"backtick string preserved", "`raw :kw` :y", "`raw :kw` \"__kw_y\""},
		{"assignment operator preserved", `(def x := 10)`, `(def x := 10)`},
		{"kebab-case identifier", `(pin-slot "j" :child-side c)`, `(pin_slot "j" "__kw_child-side" c)`},
		{"minus operator preserved", `(- 10 5)`, `(- 10 5)`},
		{"negative literal preserved", `(list -90 90)`, `(list -90 90)`},
		{"comment converted", `;; comment with :keyword`, `// comment with :keyword`},
		{"single semicolon comment", "; simple\n(+ 1 2)", "// simple\n(+ 1 2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preprocessSource(tt.input); got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestRoverProgram(t *testing.T) {
	a := evalOK(t, `
; a two-link arm with a sensor group
(assembly "Rover Mk2" :author "chazu" :description "test rig")
(def base (part "base:1" (box 40 4 40) :grounded true))
(def arm (group "arm:1" :at (vec3 0 4 0)))
(def upper (part "upper:1"
  (body "shell_visual" (box 4 20 4))
  (body "shell_collision" (box 4 20 4))
  :parent arm :at (vec3 0 10 0) :rpy (vec3 0 0 90)))
(part "cover:1" (sphere 1) :visible false)
(part "motor:1" (cylinder 2 1) :joints 2)

(revolute "shoulder" :parent base :child upper
          :origin (vec3 0 2 0) :axis (vec3 0 1 0) :limits (list -90 90))
(pin-slot "slot" :parent "arm:1/upper:1" :child "motor:1")
(joint "weld" :kind :rigid :parent base :child "cover:1")
`)
	if a.Name != "Rover Mk2" || a.Author != "chazu" || a.Description != "test rig" {
		t.Errorf("assembly metadata = %q %q %q", a.Name, a.Author, a.Description)
	}

	var ids []scene.ID
	for _, o := range a.Occurrences() {
		ids = append(ids, o.ID)
	}
	want := []scene.ID{"base:1", "arm:1", "arm:1/upper:1", "cover:1", "motor:1"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("occurrences mismatch (-want +got):\n%s", diff)
	}

	base, _ := a.Occurrence("base:1")
	if !base.Grounded || !base.Visible || len(base.Bodies) != 1 || base.Bodies[0].Name != "Body1" {
		t.Errorf("base = %+v", base)
	}
	cover, _ := a.Occurrence("cover:1")
	if cover.Visible {
		t.Error("cover should be hidden")
	}
	motor, _ := a.Occurrence("motor:1")
	if motor.ComponentJoints != 2 {
		t.Errorf("motor component joints = %d", motor.ComponentJoints)
	}

	upper, _ := a.Occurrence("arm:1/upper:1")
	if upper.Body("visual") == nil || upper.Body("collision") == nil {
		t.Error("upper should carry a visual and a collision body")
	}
	w, err := scene.WorldTransform(a, upper.ID)
	if err != nil {
		t.Fatal(err)
	}
	if o := w.Origin(); !near(o[1], 14) {
		t.Errorf("upper world origin = %v, want y=14", o)
	}
	// A 90 degree yaw turns local +X into +Y.
	if x := w.ApplyVector(mgl64.Vec3{1, 0, 0}); !near(x[1], 1) {
		t.Errorf("upper x axis = %v", x)
	}

	if a.JointCount() != 3 {
		t.Fatalf("got %d joints", a.JointCount())
	}
	shoulder, _ := a.Joint(0)
	if shoulder.Motion.Kind != scene.MotionRevolute || shoulder.Child.Occurrence != "arm:1/upper:1" {
		t.Errorf("shoulder = %+v", shoulder)
	}
	if lim := shoulder.Motion.Limits; lim == nil || !near(lim.Upper, math.Pi/2) || !near(lim.Lower, -math.Pi/2) {
		t.Errorf("shoulder limits = %+v, want +-pi/2", lim)
	}
	g := shoulder.Parent.Geometry
	if g == nil || g.Origin != (mgl64.Vec3{0, 2, 0}) || g.Primary != (mgl64.Vec3{0, 1, 0}) {
		t.Fatalf("shoulder geometry = %+v", g)
	}
	if !near(g.Primary.Dot(g.Secondary), 0) || !near(g.Secondary.Len(), 1) {
		t.Errorf("secondary axis %v is not a unit perpendicular", g.Secondary)
	}

	slot, _ := a.Joint(1)
	if slot.Motion.Kind != scene.MotionPinSlot || slot.Parent.Geometry != nil {
		t.Errorf("slot = %+v", slot)
	}
	weld, _ := a.Joint(2)
	if weld.Motion.Kind != scene.MotionRigid || weld.Parent.Occurrence != "base:1" {
		t.Errorf("weld = %+v", weld)
	}
}

func TestSolidOperations(t *testing.T) {
	a := evalOK(t, `
(part "p"
  (union (box 2 2 2) (move (box 2 2 2) :at (vec3 10 0 0)))
  (difference (box 4 4 4) (sphere 1)))
`)
	p, _ := a.Occurrence("p")
	if len(p.Bodies) != 2 || p.Bodies[1].Name != "Body2" {
		t.Fatalf("bodies = %+v", p.Bodies)
	}
	min, max, err := kernel.Bounds(p.Bodies[0].Solid)
	if err != nil {
		t.Fatal(err)
	}
	if !near(min[0], -1) || !near(max[0], 11) {
		t.Errorf("union extents x = [%g, %g], want [-1, 11]", min[0], max[0])
	}
}

func TestSliderLimitsStayLinear(t *testing.T) {
	a := evalOK(t, `
(part "rail" (box 50 2 2))
(part "cart" (box 5 2 2))
(slider "slide" :parent "rail" :child "cart" :axis (vec3 1 0 0) :limits (list 0 40))
`)
	j, _ := a.Joint(0)
	if j.Motion.Limits.Upper != 40 {
		t.Errorf("slider upper = %g, want 40 (cm)", j.Motion.Limits.Upper)
	}
	if g := j.Parent.Geometry; g == nil || !near(g.Primary.Dot(g.Secondary), 0) {
		t.Errorf("geometry = %+v", g)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"non-positive box", `(box 0 1 1)`},
		{"box arity", `(box 1 1)`},
		{"vec3 arity", `(vec3 1 2)`},
		{"unknown parent", `(part "a" :parent "ghost")`},
		{"duplicate part", `(part "a") (part "a")`},
		{"joint without child", `(part "a") (rigid "j" :parent "a")`},
		{"unknown joint kind", `(joint "j" :kind :screw :parent "a" :child "b")`},
		{"inverted limits", `(revolute "j" :parent "a" :child "b" :limits (list 10 -10))`},
		{"bad body", `(part "a" 42)`},
		{"assembly without name", `(assembly)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, evalErrs, err := NewEngine(boxKernel{}).Evaluate(tt.source)
			if err != nil {
				t.Fatalf("expected eval error, got fatal: %v", err)
			}
			if a != nil || len(evalErrs) == 0 {
				t.Errorf("expected eval errors, got assembly %v", a)
			}
		})
	}
}

func TestPerpendicular(t *testing.T) {
	for _, v := range []mgl64.Vec3{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}, {1, 1, 1}, {0, 0, 0}} {
		p := perpendicular(v)
		if !near(p.Len(), 1) {
			t.Errorf("perpendicular(%v) = %v, not unit", v, p)
		}
		if !near(p.Dot(v), 0) {
			t.Errorf("perpendicular(%v) = %v, not orthogonal", v, p)
		}
	}
}
