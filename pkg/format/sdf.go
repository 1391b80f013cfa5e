package format

import (
	"encoding/xml"
	"io"

	"github.com/chazu/linkage/pkg/kinematic"
)

// SDFVersion is the SDFormat version written. Frame semantics
// (relative_to) need at least 1.7.
const SDFVersion = "1.7"

// ModelConfigFile is the model manifest written next to an SDF file.
const ModelConfigFile = "model.config"

type sdfRoot struct {
	XMLName xml.Name `xml:"sdf"`
	Version string   `xml:"version,attr"`
	Model   sdfModel `xml:"model"`
}

type sdfModel struct {
	Name   string     `xml:"name,attr"`
	Links  []sdfLink  `xml:"link"`
	Joints []sdfJoint `xml:"joint"`
}

type sdfPose struct {
	RelativeTo string `xml:"relative_to,attr,omitempty"`
	Value      string `xml:",chardata"`
}

type sdfLink struct {
	Name      string    `xml:"name,attr"`
	Pose      *sdfPose  `xml:"pose"`
	Visual    *sdfShape `xml:"visual"`
	Collision *sdfShape `xml:"collision"`
}

type sdfShape struct {
	Name     string `xml:"name,attr"`
	Geometry struct {
		Mesh struct {
			URI string `xml:"uri"`
		} `xml:"mesh"`
	} `xml:"geometry"`
}

type sdfJoint struct {
	Comment string   `xml:",comment"`
	Name    string   `xml:"name,attr"`
	Type    string   `xml:"type,attr"`
	Pose    sdfPose  `xml:"pose"`
	Parent  string   `xml:"parent"`
	Child   string   `xml:"child"`
	Axis    *sdfAxis `xml:"axis"`
}

type sdfAxis struct {
	XYZ   string    `xml:"xyz"`
	Limit *sdfLimit `xml:"limit"`
}

type sdfLimit struct {
	Lower    string `xml:"lower"`
	Upper    string `xml:"upper"`
	Effort   string `xml:"effort"`
	Velocity string `xml:"velocity"`
}

func sdfMeshShape(name, uri string) *sdfShape {
	s := &sdfShape{Name: name}
	s.Geometry.Mesh.URI = uri
	return s
}

// WriteSDF writes d as an SDFormat model. Each joint is posed in its parent
// link and each child link sits on its joint frame, the same chaining URDF
// uses. Links without a parent joint sit on the model frame and move
// freely.
func WriteSDF(w io.Writer, d Document) error {
	t := d.Tree
	model := sdfModel{Name: d.Meta.Name}

	for _, l := range t.Links {
		link := sdfLink{Name: l.Name}
		if j := t.ParentJoint(l.Name); j != nil {
			link.Pose = &sdfPose{RelativeTo: j.Name, Value: "0 0 0 0 0 0"}
		}
		if v, c := d.linkFiles(l); v != "" {
			link.Visual = sdfMeshShape(l.Name+"_visual", v)
			link.Collision = sdfMeshShape(l.Name+"_collision", c)
		}
		model.Links = append(model.Links, link)
	}

	for _, j := range t.Joints {
		typ, ok := jointType(SDF, j.Kind)
		sj := sdfJoint{
			Name:   j.Name,
			Type:   typ,
			Pose:   sdfPose{RelativeTo: j.Parent, Value: triple(j.Origin.XYZ) + " " + triple(j.Origin.RPY)},
			Parent: j.Parent,
			Child:  j.Child,
		}
		if !ok {
			sj.Comment = " " + j.Kind.String() + " joint written as " + typ + " "
		}
		if j.Axis != nil && ok && j.Kind != kinematic.JointBall {
			sj.Axis = &sdfAxis{XYZ: vec(*j.Axis)}
			if j.Limits != nil {
				sj.Axis.Limit = &sdfLimit{
					Lower:    num(j.Limits.Lower),
					Upper:    num(j.Limits.Upper),
					Effort:   num(DefaultEffort),
					Velocity: num(DefaultVelocity),
				}
			}
		}
		model.Joints = append(model.Joints, sj)
	}
	return encode(w, sdfRoot{Version: SDFVersion, Model: model})
}

type modelConfig struct {
	XMLName xml.Name `xml:"model"`
	Name    string   `xml:"name"`
	Version string   `xml:"version"`
	SDF     struct {
		Version string `xml:"version,attr"`
		File    string `xml:",chardata"`
	} `xml:"sdf"`
	Author struct {
		Name  string `xml:"name"`
		Email string `xml:"email"`
	} `xml:"author"`
	Description string `xml:"description"`
}

// WriteModelConfig writes the model.config manifest that lets Gazebo find
// sdfFile.
func WriteModelConfig(w io.Writer, m Meta, sdfFile string) error {
	cfg := modelConfig{Name: m.Name, Version: "1.0", Description: m.Description}
	cfg.SDF.Version = SDFVersion
	cfg.SDF.File = sdfFile
	cfg.Author.Name = m.Author
	return encode(w, cfg)
}
