// Package kernel defines the abstract geometry kernel interface.
// Bodies in an assembly carry kernel solids; the kinematic core only reads
// their bounding boxes, while the tessellator and mesh exporter use the
// full kernel to place and triangulate them.
package kernel

import (
	"errors"
	"math"

	"github.com/chazu/linkage/pkg/xform"
)

// ErrNoBounds is returned when a solid cannot report a finite bounding box.
var ErrNoBounds = errors.New("kernel: bounding box unavailable")

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives, centered on the origin.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid
	Sphere(radius float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	// Placement
	Transform(s Solid, t xform.Transform) Solid
	Scale(s Solid, k float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

// STLWriter is implemented by kernels that can write a solid straight to an
// STL file.
type STLWriter interface {
	WriteSTL(s Solid, path string) error
}

// Bounds returns the bounding box of s, or ErrNoBounds when s is nil or
// reports non-finite or inverted extents.
func Bounds(s Solid) (min, max [3]float64, err error) {
	if s == nil {
		return min, max, ErrNoBounds
	}
	min, max = s.BoundingBox()
	for i := 0; i < 3; i++ {
		if !finite(min[i]) || !finite(max[i]) || min[i] > max[i] {
			return min, max, ErrNoBounds
		}
	}
	return min, max, nil
}

// Diagonal returns the length of the bounding box diagonal of s.
func Diagonal(s Solid) (float64, error) {
	min, max, err := Bounds(s)
	if err != nil {
		return 0, err
	}
	dx, dy, dz := max[0]-min[0], max[1]-min[1], max[2]-min[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AABB is a solid known only by its extents. CAD hosts that expose bounds
// without a full solid use it.
type AABB struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// BoundingBox returns the stored extents.
func (b AABB) BoundingBox() (min, max [3]float64) {
	return b.Min, b.Max
}
