// Package xform implements the homogeneous transform algebra used to move
// poses between assembly frames and between coordinate conventions.
//
// A Transform is a value: every operation returns a new Transform and never
// mutates its inputs, so the same transform can be used as both a parent
// frame and an accumulator.
package xform

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SingularEpsilon is the determinant magnitude below which a transform is
// treated as non-invertible.
const SingularEpsilon = 1e-12

// ErrSingular is returned by Inverse for a non-invertible transform.
var ErrSingular = errors.New("xform: transform is not invertible")

// ErrDegenerateAxis is returned when a frame axis has (near) zero length.
var ErrDegenerateAxis = errors.New("xform: degenerate axis")

// Transform is a 4x4 homogeneous rigid transform (rotation + translation).
type Transform struct {
	m mgl64.Mat4
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{m: mgl64.Ident4()}
}

// FromMatrix wraps a raw 4x4 matrix.
func FromMatrix(m mgl64.Mat4) Transform {
	return Transform{m: m}
}

// FromRows builds a transform from a row-major 4x4 array.
func FromRows(rows [4][4]float64) Transform {
	return Transform{m: mgl64.Mat4FromRows(
		mgl64.Vec4(rows[0]),
		mgl64.Vec4(rows[1]),
		mgl64.Vec4(rows[2]),
		mgl64.Vec4(rows[3]),
	)}
}

// Translation returns a pure translation.
func Translation(x, y, z float64) Transform {
	return Transform{m: mgl64.Translate3D(x, y, z)}
}

// FromAxes builds a frame whose columns are the given axes and whose origin
// is the given point. Each axis is normalized independently; a nil third
// axis is derived as primary x secondary.
func FromAxes(origin, primary, secondary mgl64.Vec3, third *mgl64.Vec3) (Transform, error) {
	z, err := unit(primary)
	if err != nil {
		return Transform{}, fmt.Errorf("primary: %w", err)
	}
	x, err := unit(secondary)
	if err != nil {
		return Transform{}, fmt.Errorf("secondary: %w", err)
	}
	var y mgl64.Vec3
	if third != nil {
		y, err = unit(*third)
	} else {
		y, err = unit(z.Cross(x))
	}
	if err != nil {
		return Transform{}, fmt.Errorf("third: %w", err)
	}
	return Transform{m: mgl64.Mat4FromCols(
		x.Vec4(0),
		y.Vec4(0),
		z.Vec4(0),
		origin.Vec4(1),
	)}, nil
}

func unit(v mgl64.Vec3) (mgl64.Vec3, error) {
	l := v.Len()
	if l < 1e-9 || math.IsNaN(l) || math.IsInf(l, 0) {
		return mgl64.Vec3{}, ErrDegenerateAxis
	}
	return v.Mul(1 / l), nil
}

// Compose returns a*b: b applied in a's frame (world = parentWorld * local).
func Compose(a, b Transform) Transform {
	return Transform{m: a.m.Mul4(b.m)}
}

// Chain composes transforms left to right. Chain() is the identity.
func Chain(ts ...Transform) Transform {
	out := Identity()
	for _, t := range ts {
		out = Compose(out, t)
	}
	return out
}

// Inverse returns t⁻¹ or ErrSingular.
func Inverse(t Transform) (Transform, error) {
	det := t.m.Det()
	if math.Abs(det) < SingularEpsilon || math.IsNaN(det) {
		return Transform{}, ErrSingular
	}
	return Transform{m: t.m.Inv()}, nil
}

// Invert returns t⁻¹. A non-invertible transform is a programming error
// and panics.
func Invert(t Transform) Transform {
	inv, err := Inverse(t)
	if err != nil {
		panic(fmt.Sprintf("xform.Invert: %v (det=%g)", err, t.m.Det()))
	}
	return inv
}

// Scaling returns a uniform scale about the origin.
func Scaling(s float64) Transform {
	return Transform{m: mgl64.Scale3D(s, s, s)}
}

// ChangeBasis returns b * t * b⁻¹, re-expressing t in the convention that b
// maps into.
func ChangeBasis(b, t Transform) Transform {
	return Chain(b, t, Invert(b))
}

// ScaleTranslation returns t with its translation multiplied by s. Rotation
// is unit-invariant and left untouched.
func ScaleTranslation(t Transform, s float64) Transform {
	m := t.m
	m.Set(0, 3, m.At(0, 3)*s)
	m.Set(1, 3, m.At(1, 3)*s)
	m.Set(2, 3, m.At(2, 3)*s)
	return Transform{m: m}
}

// Matrix returns a copy of the underlying matrix.
func (t Transform) Matrix() mgl64.Mat4 {
	return t.m
}

// At returns the element at row, col.
func (t Transform) At(row, col int) float64 {
	return t.m.At(row, col)
}

// Origin returns the translation part.
func (t Transform) Origin() mgl64.Vec3 {
	return t.m.Col(3).Vec3()
}

// Rotation returns the upper-left 3x3 block.
func (t Transform) Rotation() mgl64.Mat3 {
	return t.m.Mat3()
}

// RotationOnly returns t with its translation cleared.
func (t Transform) RotationOnly() Transform {
	m := t.m
	m.Set(0, 3, 0)
	m.Set(1, 3, 0)
	m.Set(2, 3, 0)
	return Transform{m: m}
}

// Apply transforms a point.
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.m.Mul4x1(p.Vec4(1)).Vec3()
}

// ApplyVector transforms a direction (translation ignored).
func (t Transform) ApplyVector(v mgl64.Vec3) mgl64.Vec3 {
	return t.m.Mul4x1(v.Vec4(0)).Vec3()
}

// ApproxEqual reports whether every element of a and b differs by at most
// eps (absolute).
func ApproxEqual(a, b Transform, eps float64) bool {
	for i := range a.m {
		if math.Abs(a.m[i]-b.m[i]) > eps {
			return false
		}
	}
	return true
}

// IsIdentity reports whether t is the identity within eps.
func (t Transform) IsIdentity(eps float64) bool {
	return ApproxEqual(t, Identity(), eps)
}

func (t Transform) String() string {
	o := t.Origin()
	p := Decompose(t)
	return fmt.Sprintf("xyz=(%.4g %.4g %.4g) rpy=(%.4g %.4g %.4g)",
		o[0], o[1], o[2], p.Roll(), p.Pitch(), p.Yaw())
}
