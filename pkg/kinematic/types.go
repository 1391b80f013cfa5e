// Package kinematic turns a CAD assembly into a rooted kinematic tree:
// links (rigid leaf parts) connected by joints whose origins are expressed
// in the parent link's frame in the target coordinate convention.
//
// The package is pure computation over a read-only scene.Source. It never
// logs; every fallback, omission, or filtering decision is returned as a
// diag.Diagnostic on the Tree.
package kinematic

import (
	"fmt"

	"github.com/chazu/linkage/pkg/diag"
	"github.com/chazu/linkage/pkg/scene"
	"github.com/chazu/linkage/pkg/xform"
	"github.com/go-gl/mathgl/mgl64"
)

// JointKind is the kind of an exported joint.
type JointKind int

const (
	JointFixed JointKind = iota
	JointRevolute
	JointContinuous
	JointPrismatic
	JointPlanar
	JointBall
)

func (k JointKind) String() string {
	switch k {
	case JointFixed:
		return "fixed"
	case JointRevolute:
		return "revolute"
	case JointContinuous:
		return "continuous"
	case JointPrismatic:
		return "prismatic"
	case JointPlanar:
		return "planar"
	case JointBall:
		return "ball"
	default:
		return fmt.Sprintf("JointKind(%d)", int(k))
	}
}

// Moves reports whether the joint has a motion axis.
func (k JointKind) Moves() bool {
	return k != JointFixed && k != JointBall
}

// KindOf classifies a raw motion descriptor.
func KindOf(m scene.Motion) JointKind {
	switch m.Kind {
	case scene.MotionRevolute:
		if m.Limits != nil {
			return JointRevolute
		}
		return JointContinuous
	case scene.MotionSlider:
		return JointPrismatic
	case scene.MotionPlanar:
		return JointPlanar
	case scene.MotionBall:
		return JointBall
	default:
		return JointFixed
	}
}

// MeshFormat tags how a link's geometry is exported.
type MeshFormat string

const (
	MeshSTL MeshFormat = "stl"
	MeshOBJ MeshFormat = "obj"
)

// Link is one exportable rigid body group.
type Link struct {
	Name       string            `json:"name"`
	Occurrence *scene.Occurrence `json:"-"`

	// Visual and Collision are set together or not at all.
	Visual    *scene.Body `json:"-"`
	Collision *scene.Body `json:"-"`

	Format   MeshFormat      `json:"format"`
	Grounded bool            `json:"grounded"`
	Bake     xform.Transform `json:"-"`
}

// ID returns the originating occurrence ID.
func (l *Link) ID() scene.ID {
	if l.Occurrence == nil {
		return scene.ZeroID
	}
	return l.Occurrence.ID
}

// HasVisualPair reports whether separate visual and collision bodies exist.
func (l *Link) HasVisualPair() bool {
	return l.Visual != nil && l.Collision != nil
}

// Joint is a validated, resolved joint between two links.
type Joint struct {
	Name   string     `json:"name"`
	Kind   JointKind  `json:"kind"`
	Parent string     `json:"parent"`
	Child  string     `json:"child"`
	Origin xform.Pose `json:"origin"`

	// Axis is the motion axis in the joint frame (target convention); nil
	// for fixed and ball joints.
	Axis *mgl64.Vec3 `json:"axis,omitempty"`

	// Limits in target units (radians or target length).
	Limits *scene.Limits `json:"limits,omitempty"`

	// Strategy records which resolution strategy produced Origin.
	Strategy Strategy `json:"strategy"`

	// World is the joint frame in the assembly frame, source units.
	World xform.Transform `json:"-"`
}

// Tree is the result of Build.
type Tree struct {
	Name   string      `json:"name"`
	Links  []*Link     `json:"links"`
	Joints []*Joint    `json:"joints"`
	Report diag.Report `json:"report"`

	// Filtered records every small-part filter decision.
	Filtered []FilterDecision `json:"filtered,omitempty"`
}

// Root returns the root link, or nil for an empty tree.
func (t *Tree) Root() *Link {
	if len(t.Links) == 0 {
		return nil
	}
	return t.Links[0]
}

// Link returns the link with the given name, or nil.
func (t *Tree) Link(name string) *Link {
	for _, l := range t.Links {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// ParentJoint returns the joint whose child is the named link, or nil.
func (t *Tree) ParentJoint(link string) *Joint {
	for _, j := range t.Joints {
		if j.Child == link {
			return j
		}
	}
	return nil
}

// ChildJoints returns the joints whose parent is the named link, in order.
func (t *Tree) ChildJoints(link string) []*Joint {
	var out []*Joint
	for _, j := range t.Joints {
		if j.Parent == link {
			out = append(out, j)
		}
	}
	return out
}

// Floating returns links other than the root that have no parent joint.
func (t *Tree) Floating() []*Link {
	var out []*Link
	for i, l := range t.Links {
		if i > 0 && t.ParentJoint(l.Name) == nil {
			out = append(out, l)
		}
	}
	return out
}
