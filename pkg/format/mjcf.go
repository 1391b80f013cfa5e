package format

import (
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/chazu/linkage/pkg/kinematic"
	"github.com/chazu/linkage/pkg/tessellate"
	"github.com/go-gl/mathgl/mgl64"
)

type mjcfRoot struct {
	XMLName   xml.Name     `xml:"mujoco"`
	Model     string       `xml:"model,attr"`
	Compiler  mjcfCompiler `xml:"compiler"`
	Assets    []mjcfMesh   `xml:"asset>mesh"`
	WorldBody struct {
		Bodies []*mjcfBody `xml:"body"`
	} `xml:"worldbody"`
}

type mjcfCompiler struct {
	Angle    string `xml:"angle,attr"`
	EulerSeq string `xml:"eulerseq,attr"`
	MeshDir  string `xml:"meshdir,attr,omitempty"`
}

type mjcfMesh struct {
	Name string `xml:"name,attr"`
	File string `xml:"file,attr"`
}

type mjcfBody struct {
	Name      string      `xml:"name,attr"`
	Pos       string      `xml:"pos,attr,omitempty"`
	Euler     string      `xml:"euler,attr,omitempty"`
	FreeJoint *struct{}   `xml:"freejoint"`
	Joints    []mjcfJoint `xml:"joint"`
	Geoms     []mjcfGeom  `xml:"geom"`
	Bodies    []*mjcfBody `xml:"body"`
}

type mjcfJoint struct {
	Name    string `xml:"name,attr"`
	Type    string `xml:"type,attr"`
	Axis    string `xml:"axis,attr,omitempty"`
	Limited string `xml:"limited,attr,omitempty"`
	Range   string `xml:"range,attr,omitempty"`
}

type mjcfGeom struct {
	Name        string `xml:"name,attr"`
	Type        string `xml:"type,attr"`
	Mesh        string `xml:"mesh,attr"`
	ContType    string `xml:"contype,attr,omitempty"`
	ConAffinity string `xml:"conaffinity,attr,omitempty"`
	Group       string `xml:"group,attr,omitempty"`
}

// WriteMJCF writes d as a MuJoCo model with nested bodies. Angles are in
// radians with the same fixed-axis XYZ order as the joint origins. The root
// body is welded to the world; links without a parent joint get a free
// joint.
func WriteMJCF(w io.Writer, d Document) error {
	t := d.Tree
	root := mjcfRoot{
		Model:    d.Meta.Name,
		Compiler: mjcfCompiler{Angle: "radian", EulerSeq: "XYZ", MeshDir: d.Meta.MeshDir},
	}

	bodies := make(map[string]*mjcfBody, len(t.Links))
	for _, l := range t.Links {
		b := &mjcfBody{Name: l.Name}
		root.Assets = append(root.Assets, mjcfAssets(l)...)
		b.Geoms = mjcfGeoms(l)
		bodies[l.Name] = b
	}

	for _, j := range t.Joints {
		parent, child := bodies[j.Parent], bodies[j.Child]
		child.Pos = triple(j.Origin.XYZ)
		child.Euler = triple(j.Origin.RPY)
		child.Joints = mjcfJoints(j)
		parent.Bodies = append(parent.Bodies, child)
	}

	if r := t.Root(); r != nil {
		root.WorldBody.Bodies = append(root.WorldBody.Bodies, bodies[r.Name])
	}
	for _, l := range t.Floating() {
		b := bodies[l.Name]
		b.FreeJoint = &struct{}{}
		root.WorldBody.Bodies = append(root.WorldBody.Bodies, b)
	}
	return encode(w, root)
}

// meshName turns a mesh file name into an asset name.
func meshName(file string) string {
	return strings.TrimSuffix(file, path.Ext(file))
}

// mjcfAssets declares the meshes of l. MJCF resolves the bare file names
// against the compiler's meshdir.
func mjcfAssets(l *kinematic.Link) []mjcfMesh {
	v, c := tessellate.Files(l)
	if v == "" {
		return nil
	}
	assets := []mjcfMesh{{Name: meshName(v), File: v}}
	if c != v {
		assets = append(assets, mjcfMesh{Name: meshName(c), File: c})
	}
	return assets
}

func mjcfGeoms(l *kinematic.Link) []mjcfGeom {
	v, c := tessellate.Files(l)
	if v == "" {
		return nil
	}
	if v == c {
		return []mjcfGeom{{Name: l.Name, Type: "mesh", Mesh: meshName(v)}}
	}
	return []mjcfGeom{
		{Name: l.Name + "_visual", Type: "mesh", Mesh: meshName(v), ContType: "0", ConAffinity: "0", Group: "1"},
		{Name: l.Name + "_collision", Type: "mesh", Mesh: meshName(c), Group: "3"},
	}
}

func mjcfJoints(j *kinematic.Joint) []mjcfJoint {
	typ, _ := jointType(MJCF, j.Kind)
	if typ == "" {
		return nil
	}
	axis := mgl64.Vec3{0, 0, 1}
	if j.Axis != nil {
		axis = *j.Axis
	}
	switch j.Kind {
	case kinematic.JointBall:
		return []mjcfJoint{{Name: j.Name, Type: typ}}
	case kinematic.JointPlanar:
		// Two slides spanning the plane and a hinge about its normal.
		u, v := planeBasis(axis)
		return []mjcfJoint{
			{Name: j.Name + "_x", Type: "slide", Axis: vec(u)},
			{Name: j.Name + "_y", Type: "slide", Axis: vec(v)},
			{Name: j.Name + "_rot", Type: "hinge", Axis: vec(axis)},
		}
	}
	mj := mjcfJoint{Name: j.Name, Type: typ, Axis: vec(axis)}
	if j.Limits != nil {
		mj.Limited = "true"
		mj.Range = num(j.Limits.Lower) + " " + num(j.Limits.Upper)
	} else {
		mj.Limited = "false"
	}
	return []mjcfJoint{mj}
}

// planeBasis returns two unit vectors spanning the plane normal to n.
func planeBasis(n mgl64.Vec3) (u, v mgl64.Vec3) {
	n = n.Normalize()
	ref := mgl64.Vec3{1, 0, 0}
	if d := n.Dot(ref); d > 0.9 || d < -0.9 {
		ref = mgl64.Vec3{0, 1, 0}
	}
	u = n.Cross(ref).Normalize()
	return u, n.Cross(u)
}
