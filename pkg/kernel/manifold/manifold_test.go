//go:build manifold

package manifold

import (
	"math"
	"testing"

	"github.com/chazu/linkage/pkg/kernel"
	"github.com/chazu/linkage/pkg/xform"
)

func mustNew(t *testing.T) kernel.Kernel {
	t.Helper()
	k, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return k
}

func TestBounds(t *testing.T) {
	k := mustNew(t)
	tests := []struct {
		name     string
		solid    kernel.Solid
		min, max [3]float64
		tol      float64
	}{
		{"box", k.Box(4, 6, 8), [3]float64{-2, -3, -4}, [3]float64{2, 3, 4}, 1e-6},
		// Polygonal cylinders and spheres sit inside the true surface.
		{"cylinder", k.Cylinder(20, 5), [3]float64{-5, -5, -10}, [3]float64{5, 5, 10}, 0.1},
		{"scaled sphere", k.Scale(k.Sphere(5), 2), [3]float64{-10, -10, -10}, [3]float64{10, 10, 10}, 0.1},
		{"difference keeps the outer box", k.Difference(k.Box(10, 10, 10), k.Cylinder(20, 3)),
			[3]float64{-5, -5, -5}, [3]float64{5, 5, 5}, 1e-6},
		{"union", k.Union(k.Box(2, 2, 2), k.Transform(k.Box(2, 2, 2), xform.Translation(10, 0, 0))),
			[3]float64{-1, -1, -1}, [3]float64{11, 1, 1}, 1e-6},
		{"translated", k.Transform(k.Box(10, 10, 10), xform.Translation(100, 200, 300)),
			[3]float64{95, 195, 295}, [3]float64{105, 205, 305}, 1e-6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := tt.solid.BoundingBox()
			for i := 0; i < 3; i++ {
				if math.Abs(min[i]-tt.min[i]) > tt.tol || math.Abs(max[i]-tt.max[i]) > tt.tol {
					t.Errorf("axis %d spans [%g, %g], want [%g, %g]", i, min[i], max[i], tt.min[i], tt.max[i])
				}
			}
		})
	}
}

func TestToMesh(t *testing.T) {
	k := mustNew(t)
	mesh, err := k.ToMesh(k.Box(10, 10, 10))
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	// Sharp edges may split vertices, but a box has at least 12 triangles.
	if mesh.TriangleCount() < 12 || mesh.VertexCount() < 8 {
		t.Errorf("mesh has %d triangles and %d vertices", mesh.TriangleCount(), mesh.VertexCount())
	}
	if len(mesh.Normals) != len(mesh.Vertices) {
		t.Errorf("normals length = %d, vertices length = %d", len(mesh.Normals), len(mesh.Vertices))
	}
}

func TestVertexNormals(t *testing.T) {
	vertices := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	normals := vertexNormals(vertices, []uint32{0, 1, 2})
	for i := 0; i < 3; i++ {
		if n := normals[i*3 : i*3+3]; n[0] != 0 || n[1] != 0 || n[2] != 1 {
			t.Errorf("normal %d = %v, want [0 0 1]", i, n)
		}
	}
}
