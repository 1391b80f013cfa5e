package scene

import "github.com/go-gl/mathgl/mgl64"

// MotionKind enumerates the joint motions a CAD host reports.
type MotionKind int

const (
	MotionRigid       MotionKind = iota // no relative motion
	MotionRevolute                      // rotation about one axis
	MotionSlider                        // translation along one axis
	MotionCylindrical                   // rotation + translation on one axis
	MotionPinSlot                       // rotation + translation on two axes
	MotionPlanar                        // motion in a plane
	MotionBall                          // rotation about a point
)

func (k MotionKind) String() string {
	switch k {
	case MotionRigid:
		return "rigid"
	case MotionRevolute:
		return "revolute"
	case MotionSlider:
		return "slider"
	case MotionCylindrical:
		return "cylindrical"
	case MotionPinSlot:
		return "pin-slot"
	case MotionPlanar:
		return "planar"
	case MotionBall:
		return "ball"
	default:
		return "unknown"
	}
}

// ParseMotionKind is the inverse of MotionKind.String.
func ParseMotionKind(s string) (MotionKind, bool) {
	for k := MotionRigid; k <= MotionBall; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return MotionRigid, false
}

// Limits bounds a joint's travel (radians for rotation, source length
// units for translation).
type Limits struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Motion describes how the two sides of a joint may move.
type Motion struct {
	Kind MotionKind `json:"kind"`

	// Limits is set when the host reports a bounded range. A revolute
	// motion with limits is a revolute joint; without, continuous.
	Limits *Limits `json:"limits,omitempty"`
}

// Geometry is joint reference geometry: an origin and up to three axes,
// expressed in the frame of the occurrence on that side of the joint.
type Geometry struct {
	Origin    mgl64.Vec3  `json:"origin"`
	Primary   mgl64.Vec3  `json:"primary"`   // becomes the frame's z axis
	Secondary mgl64.Vec3  `json:"secondary"` // becomes the frame's x axis
	Third     *mgl64.Vec3 `json:"third,omitempty"`
}

// JointSide is one end of a joint.
type JointSide struct {
	Occurrence ID        `json:"occurrence"`
	Geometry   *Geometry `json:"geometry,omitempty"`
}

// Joint is a raw joint as reported by the host: Parent is the side the
// child moves relative to.
type Joint struct {
	Name   string    `json:"name"`
	Motion Motion    `json:"motion"`
	Parent JointSide `json:"parent"`
	Child  JointSide `json:"child"`
}
