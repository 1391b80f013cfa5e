package xform

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// gimbalEpsilon is the cos(pitch) magnitude under which roll and yaw are
// no longer independent.
const gimbalEpsilon = 1e-9

// Pose is a translation plus fixed-axis roll/pitch/yaw orientation, the
// form in which joint origins are emitted.
//
// The rotation is R = Rz(yaw) * Ry(pitch) * Rx(roll): roll about X first,
// then pitch about Y, then yaw about Z, all about fixed axes. Pitch is kept
// in [-pi/2, pi/2]. At gimbal lock yaw is reported as zero.
type Pose struct {
	XYZ [3]float64 `json:"xyz"`
	RPY [3]float64 `json:"rpy"`
}

func (p Pose) Roll() float64  { return p.RPY[0] }
func (p Pose) Pitch() float64 { return p.RPY[1] }
func (p Pose) Yaw() float64   { return p.RPY[2] }

// Decompose splits a transform into translation and roll/pitch/yaw. This is
// the only routine that turns matrices into emitted angles.
func Decompose(t Transform) Pose {
	r00, r10, r20 := t.At(0, 0), t.At(1, 0), t.At(2, 0)
	r11, r12 := t.At(1, 1), t.At(1, 2)
	r21, r22 := t.At(2, 1), t.At(2, 2)

	cp := math.Hypot(r00, r10)
	pitch := math.Atan2(-r20, cp)

	var roll, yaw float64
	if cp > gimbalEpsilon {
		roll = math.Atan2(r21, r22)
		yaw = math.Atan2(r10, r00)
	} else {
		roll = math.Atan2(-r12, r11)
		yaw = 0
	}

	o := t.Origin()
	return Pose{
		XYZ: [3]float64{clean(o[0]), clean(o[1]), clean(o[2])},
		RPY: [3]float64{clean(roll), clean(pitch), clean(yaw)},
	}
}

// Transform rebuilds the homogeneous transform described by p.
func (p Pose) Transform() Transform {
	rot := mgl64.HomogRotate3DZ(p.Yaw()).
		Mul4(mgl64.HomogRotate3DY(p.Pitch())).
		Mul4(mgl64.HomogRotate3DX(p.Roll()))
	rot.Set(0, 3, p.XYZ[0])
	rot.Set(1, 3, p.XYZ[1])
	rot.Set(2, 3, p.XYZ[2])
	return Transform{m: rot}
}

// clean flushes values that are numerically zero so emitted poses do not
// carry "-0" or 1e-17 noise.
func clean(v float64) float64 {
	if math.Abs(v) < 1e-12 {
		return 0
	}
	return v
}
