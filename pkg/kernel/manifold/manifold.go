//go:build manifold

// Package manifold is a geometry kernel backed by the Manifold C library
// (https://github.com/elalish/manifold). Booleans are exact on meshes, so
// exported link meshes carry no marching cubes artifacts.
//
// Build with: go build -tags=manifold
// manifoldc must be installed under /usr/local.
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/linkage/pkg/kernel"
	"github.com/chazu/linkage/pkg/xform"
)

// DefaultSegments is the number of facets around cylinders and spheres.
const DefaultSegments = 48

var _ kernel.Kernel = (*Kernel)(nil)
var _ kernel.Solid = (*solid)(nil)

type solid struct {
	ptr *C.ManifoldManifold
}

// BoundingBox returns the axis-aligned bounding box of the solid.
func (s *solid) BoundingBox() (min, max [3]float64) {
	alloc := C.manifold_alloc_box()
	bbox := C.manifold_bounding_box(alloc, s.ptr)
	defer C.manifold_delete_box(bbox)

	min = [3]float64{
		float64(C.manifold_box_min_x(bbox)),
		float64(C.manifold_box_min_y(bbox)),
		float64(C.manifold_box_min_z(bbox)),
	}
	max = [3]float64{
		float64(C.manifold_box_max_x(bbox)),
		float64(C.manifold_box_max_y(bbox)),
		float64(C.manifold_box_max_z(bbox)),
	}
	return min, max
}

// newSolid wraps ptr and frees it when the solid is collected.
func newSolid(ptr *C.ManifoldManifold) *solid {
	s := &solid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *solid) {
		if s.ptr != nil {
			C.manifold_delete_manifold(s.ptr)
			s.ptr = nil
		}
	})
	return s
}

func unwrap(s kernel.Solid) *C.ManifoldManifold {
	return s.(*solid).ptr
}

// Kernel implements kernel.Kernel with Manifold.
type Kernel struct {
	segments int
}

// New returns a Manifold kernel with DefaultSegments.
func New() (kernel.Kernel, error) {
	return &Kernel{segments: DefaultSegments}, nil
}

// Box creates a box centered on the origin.
func (k *Kernel) Box(x, y, z float64) kernel.Solid {
	return newSolid(C.manifold_cube(C.manifold_alloc_manifold(),
		C.double(x), C.double(y), C.double(z), C.int(1)))
}

// Cylinder creates a cylinder along Z centered on the origin.
func (k *Kernel) Cylinder(height, radius float64) kernel.Solid {
	return newSolid(C.manifold_cylinder(C.manifold_alloc_manifold(),
		C.double(height), C.double(radius), C.double(radius),
		C.int(k.segments), C.int(1)))
}

// Sphere creates a sphere centered on the origin.
func (k *Kernel) Sphere(radius float64) kernel.Solid {
	return newSolid(C.manifold_sphere(C.manifold_alloc_manifold(),
		C.double(radius), C.int(k.segments)))
}

// Union returns a ∪ b.
func (k *Kernel) Union(a, b kernel.Solid) kernel.Solid {
	return newSolid(C.manifold_union(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

// Difference returns a minus b.
func (k *Kernel) Difference(a, b kernel.Solid) kernel.Solid {
	return newSolid(C.manifold_difference(C.manifold_alloc_manifold(), unwrap(a), unwrap(b)))
}

// Transform applies the affine part of t. Manifold takes the 4x3 matrix
// column by column.
func (k *Kernel) Transform(s kernel.Solid, t xform.Transform) kernel.Solid {
	m := t.Matrix()
	c := func(row, col int) C.double { return C.double(m.At(row, col)) }
	return newSolid(C.manifold_transform(C.manifold_alloc_manifold(), unwrap(s),
		c(0, 0), c(1, 0), c(2, 0),
		c(0, 1), c(1, 1), c(2, 1),
		c(0, 2), c(1, 2), c(2, 2),
		c(0, 3), c(1, 3), c(2, 3)))
}

// Scale scales uniformly about the origin.
func (k *Kernel) Scale(s kernel.Solid, f float64) kernel.Solid {
	return newSolid(C.manifold_scale(C.manifold_alloc_manifold(), unwrap(s),
		C.double(f), C.double(f), C.double(f)))
}

// ToMesh extracts the triangle mesh. MeshGL interleaves vertex properties;
// positions are always the first three and normals, when present, the next
// three.
func (k *Kernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	meshGL := C.manifold_get_meshgl(C.manifold_alloc_meshgl(), unwrap(s))
	defer C.manifold_delete_meshgl(meshGL)

	numVert := int(C.manifold_meshgl_num_vert(meshGL))
	numTri := int(C.manifold_meshgl_num_tri(meshGL))
	if numVert == 0 || numTri == 0 {
		return &kernel.Mesh{}, nil
	}
	numProp := int(C.manifold_meshgl_num_prop(meshGL))

	props := make([]float32, numVert*numProp)
	C.manifold_meshgl_vert_properties((*C.float)(unsafe.Pointer(&props[0])), meshGL)
	indices := make([]uint32, numTri*3)
	C.manifold_meshgl_tri_verts((*C.uint32_t)(unsafe.Pointer(&indices[0])), meshGL)

	vertices := make([]float32, numVert*3)
	var normals []float32
	if numProp >= 6 {
		normals = make([]float32, numVert*3)
	}
	for i := 0; i < numVert; i++ {
		base := i * numProp
		copy(vertices[i*3:i*3+3], props[base:base+3])
		if normals != nil {
			copy(normals[i*3:i*3+3], props[base+3:base+6])
		}
	}
	if normals == nil {
		normals = vertexNormals(vertices, indices)
	}

	mesh := &kernel.Mesh{Vertices: vertices, Normals: normals, Indices: indices}
	if mesh.VertexCount() != numVert {
		return nil, fmt.Errorf("manifold: vertex count mismatch: got %d, expected %d",
			mesh.VertexCount(), numVert)
	}
	return mesh, nil
}

// vertexNormals averages the face normals around each vertex.
func vertexNormals(vertices []float32, indices []uint32) []float32 {
	at := func(i uint32) mgl32.Vec3 {
		return mgl32.Vec3{vertices[i*3], vertices[i*3+1], vertices[i*3+2]}
	}
	sums := make([]mgl32.Vec3, len(vertices)/3)
	for t := 0; t+2 < len(indices); t += 3 {
		i0, i1, i2 := indices[t], indices[t+1], indices[t+2]
		a := at(i0)
		n := at(i1).Sub(a).Cross(at(i2).Sub(a))
		for _, i := range []uint32{i0, i1, i2} {
			sums[i] = sums[i].Add(n)
		}
	}
	normals := make([]float32, len(vertices))
	for i, n := range sums {
		if n.Len() > 1e-12 {
			n = n.Normalize()
		}
		copy(normals[i*3:i*3+3], n[:])
	}
	return normals
}
