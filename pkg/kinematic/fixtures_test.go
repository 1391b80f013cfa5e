package kinematic

import (
	"errors"

	"github.com/chazu/linkage/pkg/kernel"
	"github.com/chazu/linkage/pkg/scene"
	"github.com/chazu/linkage/pkg/xform"
	"github.com/go-gl/mathgl/mgl64"
)

// cube returns a body whose bounding box is an axis-aligned cube of side s
// (source units, cm).
func cube(name string, s float64) scene.Body {
	h := s / 2
	return scene.Body{Name: name, Solid: kernel.AABB{
		Min: [3]float64{-h, -h, -h},
		Max: [3]float64{h, h, h},
	}}
}

// part adds a visible leaf occurrence with one cube body.
func part(a *scene.Assembly, name string, parent scene.ID, local xform.Transform, size float64) *scene.Occurrence {
	return a.MustAdd(&scene.Occurrence{
		Name:    name,
		Parent:  parent,
		Local:   local,
		Visible: true,
		Bodies:  []scene.Body{cube("Body1", size)},
	})
}

// group adds a visible sub-assembly occurrence with no bodies.
func group(a *scene.Assembly, name string, parent scene.ID, local xform.Transform) *scene.Occurrence {
	return a.MustAdd(&scene.Occurrence{Name: name, Parent: parent, Local: local, Visible: true})
}

var zeroVec mgl64.Vec3

// zGeometry is joint geometry at origin with the canonical axes.
func zGeometry(origin mgl64.Vec3) *scene.Geometry {
	return &scene.Geometry{
		Origin:    origin,
		Primary:   mgl64.Vec3{0, 0, 1},
		Secondary: mgl64.Vec3{1, 0, 0},
	}
}

func joint(name string, kind scene.MotionKind, parent, child scene.ID, geom *scene.Geometry) *scene.Joint {
	return &scene.Joint{
		Name:   name,
		Motion: scene.Motion{Kind: kind},
		Parent: scene.JointSide{Occurrence: parent, Geometry: geom},
		Child:  scene.JointSide{Occurrence: child},
	}
}

// flakySource wraps an assembly and fails to read selected joints.
type flakySource struct {
	*scene.Assembly
	broken map[int]bool
	panics map[int]bool
}

func (f *flakySource) Joint(i int) (*scene.Joint, error) {
	if f.panics[i] {
		panic("host object deleted")
	}
	if f.broken[i] {
		return nil, errors.New("property access failed")
	}
	return f.Assembly.Joint(i)
}

func linkNames(links []*Link) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.Name
	}
	return out
}

func near(a, b, eps float64) bool {
	d := a - b
	return d <= eps && d >= -eps
}
