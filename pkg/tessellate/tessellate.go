// Package tessellate turns the bodies of kinematic links into geometry
// ready for export: expressed in the link frame, in target units and axes.
//
// A body is modelled in its occurrence frame. The link's bake transform
// moves it into the frame of the joint that owns the link, and the
// coordinate convention then rescales it and turns it into the target
// basis. Description writers reference the resulting files with unit scale.
package tessellate

import (
	"fmt"

	"github.com/chazu/linkage/pkg/kernel"
	"github.com/chazu/linkage/pkg/kinematic"
	"github.com/chazu/linkage/pkg/scene"
	"github.com/chazu/linkage/pkg/xform"
	"github.com/go-gl/mathgl/mgl64"
)

// Role says which geometry of a link a piece carries.
type Role string

const (
	RoleWhole     Role = "whole"
	RoleVisual    Role = "visual"
	RoleCollision Role = "collision"
)

// Piece is one exportable mesh of a link.
type Piece struct {
	Link   string
	Role   Role
	Format kinematic.MeshFormat

	// Bodies are the source bodies, in their occurrence frame.
	Bodies []scene.Body
	// Place carries occurrence-frame points to export-frame points.
	Place xform.Transform
}

// FileName returns the mesh file name, e.g. "arm_1.stl" or
// "arm_1_visual.obj".
func (p Piece) FileName() string {
	return FileName(p.Link, p.Role, p.Format)
}

// FileName names the mesh file for a link role.
func FileName(link string, role Role, format kinematic.MeshFormat) string {
	if role == RoleWhole {
		return fmt.Sprintf("%s.%s", link, format)
	}
	return fmt.Sprintf("%s_%s.%s", link, role, format)
}

// Files returns the visual and collision mesh file names a writer should
// reference for l. Both are the same file unless l has a visual pair. A
// link without bodies has no files.
func Files(l *kinematic.Link) (visual, collision string) {
	if l.Occurrence == nil || len(l.Occurrence.Bodies) == 0 {
		return "", ""
	}
	if l.HasVisualPair() {
		return FileName(l.Name, RoleVisual, l.Format), FileName(l.Name, RoleCollision, l.Format)
	}
	name := FileName(l.Name, RoleWhole, l.Format)
	return name, name
}

// Pieces splits l into the pieces to export. With a visual/collision pair
// there are two pieces; otherwise one piece holds every body.
func Pieces(l *kinematic.Link, conv xform.Convention) []Piece {
	if l.Occurrence == nil || len(l.Occurrence.Bodies) == 0 {
		return nil
	}
	place := conv.MeshTransform(l.Bake)
	piece := func(role Role, bodies ...scene.Body) Piece {
		return Piece{Link: l.Name, Role: role, Format: l.Format, Bodies: bodies, Place: place}
	}
	if l.HasVisualPair() {
		return []Piece{
			piece(RoleVisual, *l.Visual),
			piece(RoleCollision, *l.Collision),
		}
	}
	return []Piece{piece(RoleWhole, l.Occurrence.Bodies...)}
}

// Solid returns the piece as a single kernel solid in the export frame.
func (p Piece) Solid(k kernel.Kernel) (kernel.Solid, error) {
	if len(p.Bodies) == 0 {
		return nil, fmt.Errorf("tessellate: %s: no bodies", p.FileName())
	}
	var acc kernel.Solid
	for _, b := range p.Bodies {
		if b.Solid == nil {
			return nil, fmt.Errorf("tessellate: %s: body %q has no geometry", p.FileName(), b.Name)
		}
		if acc == nil {
			acc = b.Solid
			continue
		}
		acc = k.Union(acc, b.Solid)
	}

	// Place is Basis * scale * Bake. A uniform scale commutes with the
	// basis, so Place = scale * (Basis * Bake) and the kernel can take the
	// rigid part and the scale separately.
	s := scaleOf(p.Place)
	rigid := xform.Compose(xform.Scaling(1/s), p.Place)
	return k.Scale(k.Transform(acc, rigid), s), nil
}

// Mesh tessellates every body of the piece and maps the triangles into the
// export frame.
func (p Piece) Mesh(k kernel.Kernel) (*kernel.Mesh, error) {
	out := &kernel.Mesh{Name: p.FileName()}
	for _, b := range p.Bodies {
		if b.Solid == nil {
			return nil, fmt.Errorf("tessellate: %s: body %q has no geometry", p.FileName(), b.Name)
		}
		m, err := k.ToMesh(b.Solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate: %s: body %q: %w", p.FileName(), b.Name, err)
		}
		out.Append(m.Transformed(p.Place))
	}
	return out, nil
}

// scaleOf returns the uniform scale of a similarity transform.
func scaleOf(t xform.Transform) float64 {
	return t.ApplyVector(mgl64.Vec3{1, 0, 0}).Len()
}

// Tessellate produces every mesh of the tree, in link order. It is meant for
// previews and inspection; exporters work piece by piece.
func Tessellate(tree *kinematic.Tree, k kernel.Kernel, conv xform.Convention) ([]*kernel.Mesh, error) {
	if tree == nil {
		return nil, nil
	}
	var meshes []*kernel.Mesh
	for _, l := range tree.Links {
		for _, p := range Pieces(l, conv) {
			m, err := p.Mesh(k)
			if err != nil {
				return nil, fmt.Errorf("tessellate: link %s: %w", l.Name, err)
			}
			meshes = append(meshes, m)
		}
	}
	return meshes, nil
}
