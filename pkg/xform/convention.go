package xform

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Convention describes how to carry transforms from the source (CAD)
// coordinate convention into a target one: a length scale applied to
// translations, then a basis change.
type Convention struct {
	Scale float64   // source length unit to target length unit
	Basis Transform // source axes to target axes (rotation only)
}

// YUpToZUp is the basis change from a Y-up source frame to a Z-up target
// frame (a 90 degree turn about X): source +Y becomes target +Z.
var YUpToZUp = FromRows([4][4]float64{
	{1, 0, 0, 0},
	{0, 0, -1, 0},
	{0, 1, 0, 0},
	{0, 0, 0, 1},
})

// DefaultConvention maps centimeters Y-up to meters Z-up.
func DefaultConvention() Convention {
	return Convention{Scale: 0.01, Basis: YUpToZUp}
}

// NewConvention builds a convention from a scale factor and the name of the
// target up axis ("z" turns the source Y-up frame to Z-up, "y" keeps it).
func NewConvention(scale float64, upAxis string) (Convention, error) {
	if scale <= 0 {
		return Convention{}, fmt.Errorf("xform: convention scale must be positive, got %g", scale)
	}
	switch upAxis {
	case "z", "":
		return Convention{Scale: scale, Basis: YUpToZUp}, nil
	case "y":
		return Convention{Scale: scale, Basis: Identity()}, nil
	}
	return Convention{}, fmt.Errorf("xform: unknown up axis %q", upAxis)
}

// Apply rescales t's translation and re-expresses it in the target basis.
func (c Convention) Apply(t Transform) Transform {
	return ChangeBasis(c.Basis, ScaleTranslation(t, c.Scale))
}

// Point maps a source-frame point into the target convention.
func (c Convention) Point(p mgl64.Vec3) mgl64.Vec3 {
	return c.Basis.ApplyVector(p.Mul(c.Scale))
}

// MeshTransform returns the matrix that carries points through t and then
// into the target convention: Basis * scale * t. Unlike Apply it scales the
// whole space, so it is meant for vertices, not poses.
func (c Convention) MeshTransform(t Transform) Transform {
	return Chain(c.Basis, Scaling(c.Scale), t)
}

// Direction maps a source-frame direction into the target convention.
func (c Convention) Direction(v mgl64.Vec3) mgl64.Vec3 {
	return c.Basis.ApplyVector(v)
}
