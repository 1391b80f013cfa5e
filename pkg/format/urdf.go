package format

import (
	"encoding/xml"
	"io"

	"github.com/chazu/linkage/pkg/kinematic"
)

// Placeholder actuator limits. The assembly carries no drive data.
const (
	DefaultEffort   = 100.0
	DefaultVelocity = 1.0
)

type urdfRobot struct {
	XMLName xml.Name    `xml:"robot"`
	Name    string      `xml:"name,attr"`
	Links   []urdfLink  `xml:"link"`
	Joints  []urdfJoint `xml:"joint"`
}

type urdfLink struct {
	Name      string     `xml:"name,attr"`
	Visual    *urdfShape `xml:"visual"`
	Collision *urdfShape `xml:"collision"`
}

type urdfShape struct {
	Name     string     `xml:"name,attr,omitempty"`
	Origin   urdfOrigin `xml:"origin"`
	Geometry struct {
		Mesh urdfMesh `xml:"mesh"`
	} `xml:"geometry"`
}

type urdfMesh struct {
	Filename string `xml:"filename,attr"`
	Scale    string `xml:"scale,attr"`
}

type urdfOrigin struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

type urdfJoint struct {
	Comment string     `xml:",comment"`
	Name    string     `xml:"name,attr"`
	Type    string     `xml:"type,attr"`
	Origin  urdfOrigin `xml:"origin"`
	Parent  urdfRef    `xml:"parent"`
	Child   urdfRef    `xml:"child"`
	Axis    *urdfAxis  `xml:"axis"`
	Limit   *urdfLimit `xml:"limit"`
}

type urdfRef struct {
	Link string `xml:"link,attr"`
}

type urdfAxis struct {
	XYZ string `xml:"xyz,attr"`
}

type urdfLimit struct {
	Lower    string `xml:"lower,attr,omitempty"`
	Upper    string `xml:"upper,attr,omitempty"`
	Effort   string `xml:"effort,attr"`
	Velocity string `xml:"velocity,attr"`
}

var zeroOrigin = urdfOrigin{XYZ: "0 0 0", RPY: "0 0 0"}

func urdfMeshShape(name, file string) *urdfShape {
	s := &urdfShape{Name: name, Origin: zeroOrigin}
	s.Geometry.Mesh = urdfMesh{Filename: file, Scale: "1 1 1"}
	return s
}

// WriteURDF writes d as a URDF robot. Links that no joint reaches are
// attached to the root with floating joints, since URDF needs a single
// tree.
func WriteURDF(w io.Writer, d Document) error {
	t := d.Tree
	robot := urdfRobot{Name: d.Meta.Name}

	for _, l := range t.Links {
		link := urdfLink{Name: l.Name}
		if v, c := d.linkFiles(l); v != "" {
			link.Visual = urdfMeshShape(l.Name+"_visual", v)
			link.Collision = urdfMeshShape(l.Name+"_collision", c)
		}
		robot.Links = append(robot.Links, link)
	}

	for _, j := range t.Joints {
		typ, ok := jointType(URDF, j.Kind)
		uj := urdfJoint{
			Name:   j.Name,
			Type:   typ,
			Origin: urdfOrigin{XYZ: triple(j.Origin.XYZ), RPY: triple(j.Origin.RPY)},
			Parent: urdfRef{Link: j.Parent},
			Child:  urdfRef{Link: j.Child},
		}
		if !ok {
			uj.Comment = " " + j.Kind.String() + " joint written as " + typ + " "
		}
		if j.Axis != nil && ok {
			uj.Axis = &urdfAxis{XYZ: vec(*j.Axis)}
		}
		switch j.Kind {
		case kinematic.JointRevolute, kinematic.JointPrismatic:
			lim := &urdfLimit{Effort: num(DefaultEffort), Velocity: num(DefaultVelocity)}
			if j.Limits != nil {
				lim.Lower, lim.Upper = num(j.Limits.Lower), num(j.Limits.Upper)
			}
			uj.Limit = lim
		}
		robot.Joints = append(robot.Joints, uj)
	}

	if root := t.Root(); root != nil {
		for _, l := range t.Floating() {
			robot.Joints = append(robot.Joints, urdfJoint{
				Name:   l.Name + "_floating",
				Type:   "floating",
				Origin: zeroOrigin,
				Parent: urdfRef{Link: root.Name},
				Child:  urdfRef{Link: l.Name},
			})
		}
	}
	return encode(w, robot)
}

// encode writes v as an indented XML document.
func encode(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
