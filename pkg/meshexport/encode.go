package meshexport

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/chazu/linkage/pkg/kernel"
)

// SaveSTL writes m to path as binary STL. Facet normals come from the
// winding of each triangle.
func SaveSTL(path string, m *kernel.Mesh) error {
	return render.SaveSTL(path, Triangles(m))
}

// Triangles converts m into sdfx triangles.
func Triangles(m *kernel.Mesh) []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, m.TriangleCount())
	for t := range out {
		var tri sdf.Triangle3
		for i := 0; i < 3; i++ {
			v := vertex(m, m.Indices[3*t+i])
			tri[i] = v3.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
		}
		out[t] = &tri
	}
	return out
}

// WriteOBJ encodes m as a Wavefront OBJ object named after the mesh.
func WriteOBJ(w io.Writer, m *kernel.Mesh) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %d vertices, %d triangles\n", m.VertexCount(), m.TriangleCount())
	if m.Name != "" {
		fmt.Fprintf(bw, "o %s\n", m.Name)
	}
	for i := 0; i < m.VertexCount(); i++ {
		v := vertex(m, uint32(i))
		fmt.Fprintf(bw, "v %g %g %g\n", v[0], v[1], v[2])
	}
	hasNormals := len(m.Normals) == len(m.Vertices)
	if hasNormals {
		for i := 0; i+2 < len(m.Normals); i += 3 {
			fmt.Fprintf(bw, "vn %g %g %g\n", m.Normals[i], m.Normals[i+1], m.Normals[i+2])
		}
	}
	for t := 0; t < m.TriangleCount(); t++ {
		// OBJ indices are 1-based.
		a, b, c := m.Indices[3*t]+1, m.Indices[3*t+1]+1, m.Indices[3*t+2]+1
		if hasNormals {
			fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
		} else {
			fmt.Fprintf(bw, "f %d %d %d\n", a, b, c)
		}
	}
	return bw.Flush()
}

func vertex(m *kernel.Mesh, i uint32) mgl32.Vec3 {
	return mgl32.Vec3{m.Vertices[3*i], m.Vertices[3*i+1], m.Vertices[3*i+2]}
}

type encoder func(io.Writer, *kernel.Mesh) error

// SaveOBJ writes m to path as Wavefront OBJ.
func SaveOBJ(path string, m *kernel.Mesh) error {
	return writeFile(path, m, WriteOBJ)
}

// writeFile creates path and encodes m into it.
func writeFile(path string, m *kernel.Mesh, encode encoder) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := encode(bw, m); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
