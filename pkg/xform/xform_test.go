package xform

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const eps = 1e-9

func vecNear(a, b mgl64.Vec3, tol float64) bool {
	return math.Abs(a[0]-b[0]) <= tol && math.Abs(a[1]-b[1]) <= tol && math.Abs(a[2]-b[2]) <= tol
}

func rotated(roll, pitch, yaw, x, y, z float64) Transform {
	return Pose{XYZ: [3]float64{x, y, z}, RPY: [3]float64{roll, pitch, yaw}}.Transform()
}

func TestComposeInverseIsIdentity(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform
	}{
		{"identity", Identity()},
		{"translation", Translation(3, -2, 7)},
		{"rotation", rotated(0.3, -0.2, 1.1, 0, 0, 0)},
		{"general", rotated(-1.2, 0.7, 2.9, 10, 20, -5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compose(Invert(tt.tr), tt.tr); !got.IsIdentity(eps) {
				t.Errorf("inv(T)*T = %v, want identity", got.Matrix())
			}
			if got := Compose(tt.tr, Invert(tt.tr)); !got.IsIdentity(eps) {
				t.Errorf("T*inv(T) = %v, want identity", got.Matrix())
			}
		})
	}
}

func TestInvertSingularPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on singular transform")
		}
	}()
	Invert(FromMatrix(mgl64.Mat4{}))
}

func TestInverseSingularError(t *testing.T) {
	if _, err := Inverse(FromMatrix(mgl64.Mat4{})); err != ErrSingular {
		t.Fatalf("Inverse err = %v, want ErrSingular", err)
	}
}

func TestComposeOrder(t *testing.T) {
	// Translate then rotate in the translated frame.
	parent := Translation(10, 0, 0)
	local := rotated(0, 0, math.Pi/2, 1, 0, 0)
	got := Compose(parent, local).Apply(mgl64.Vec3{1, 0, 0})
	want := mgl64.Vec3{11, 1, 0}
	if !vecNear(got, want, 1e-6) {
		t.Errorf("Compose(parent, local) * x = %v, want %v", got, want)
	}
}

func TestComposeDoesNotMutate(t *testing.T) {
	a := Translation(1, 2, 3)
	b := rotated(0.1, 0.2, 0.3, 0, 0, 0)
	before := a.Matrix()
	_ = Compose(a, b)
	_ = Compose(a, a)
	if a.Matrix() != before {
		t.Error("Compose mutated its input")
	}
}

func TestChangeBasis(t *testing.T) {
	// A translation along source +Y (up) must land on the target up axis
	// the way the basis maps it.
	tr := ChangeBasis(YUpToZUp, Translation(0, 5, 0))
	want := YUpToZUp.ApplyVector(mgl64.Vec3{0, 5, 0})
	if got := tr.Origin(); !vecNear(got, want, eps) {
		t.Errorf("origin = %v, want %v", got, want)
	}
	if !tr.RotationOnly().IsIdentity(eps) {
		t.Errorf("pure translation picked up rotation: %v", tr.Matrix())
	}
}

func TestScaleTranslation(t *testing.T) {
	tr := rotated(0.5, 0, 0, 100, 200, -300)
	got := ScaleTranslation(tr, 0.01)
	if o := got.Origin(); !vecNear(o, mgl64.Vec3{1, 2, -3}, eps) {
		t.Errorf("origin = %v, want (1 2 -3)", o)
	}
	if !ApproxEqual(got.RotationOnly(), tr.RotationOnly(), eps) {
		t.Error("rotation changed under scaling")
	}
}

func TestFromAxes(t *testing.T) {
	origin := mgl64.Vec3{1, 2, 3}
	tr, err := FromAxes(origin, mgl64.Vec3{0, 0, 2}, mgl64.Vec3{5, 0, 0}, nil)
	if err != nil {
		t.Fatalf("FromAxes: %v", err)
	}
	if !tr.RotationOnly().IsIdentity(eps) {
		t.Errorf("rotation = %v, want identity", tr.Rotation())
	}
	if got := tr.Origin(); got != origin {
		t.Errorf("origin = %v, want %v", got, origin)
	}

	if _, err := FromAxes(origin, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, nil); err == nil {
		t.Error("expected error for zero primary axis")
	}
}

func TestDecomposeRoundTrip(t *testing.T) {
	tests := []struct {
		name             string
		roll, pitch, yaw float64
	}{
		{"zero", 0, 0, 0},
		{"roll", 0.4, 0, 0},
		{"pitch", 0, -0.9, 0},
		{"yaw", 0, 0, 2.5},
		{"mixed", -1.1, 0.6, -2.8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := rotated(tt.roll, tt.pitch, tt.yaw, 1, -2, 3)
			p := Decompose(tr)
			if math.Abs(p.Roll()-tt.roll) > 1e-9 || math.Abs(p.Pitch()-tt.pitch) > 1e-9 || math.Abs(p.Yaw()-tt.yaw) > 1e-9 {
				t.Errorf("Decompose rpy = %v, want (%v %v %v)", p.RPY, tt.roll, tt.pitch, tt.yaw)
			}
			if !ApproxEqual(p.Transform(), tr, 1e-9) {
				t.Errorf("Pose.Transform() does not rebuild the input")
			}
		})
	}
}

func TestDecomposeGimbalLock(t *testing.T) {
	tr := rotated(0.3, math.Pi/2, 0, 0, 0, 0)
	p := Decompose(tr)
	if p.Yaw() != 0 {
		t.Errorf("yaw = %v, want 0 at gimbal lock", p.Yaw())
	}
	if !ApproxEqual(p.Transform(), tr, 1e-9) {
		t.Errorf("gimbal-lock pose does not rebuild the input: %v", p)
	}
}

func TestConvention(t *testing.T) {
	c := DefaultConvention()
	got := c.Apply(Translation(100, 0, 300))
	if want := (mgl64.Vec3{1, -3, 0}); !vecNear(got.Origin(), want, eps) {
		t.Errorf("origin = %v, want %v", got.Origin(), want)
	}
	// Source up is target up.
	if p := c.Point(mgl64.Vec3{0, 100, 0}); !vecNear(p, mgl64.Vec3{0, 0, 1}, eps) {
		t.Errorf("Point = %v, want (0 0 1)", p)
	}
	if d := c.Direction(mgl64.Vec3{0, 1, 0}); !vecNear(d, mgl64.Vec3{0, 0, 1}, eps) {
		t.Errorf("Direction(+Y) = %v, want +Z", d)
	}
	if d := c.Direction(mgl64.Vec3{0, 0, 1}); !vecNear(d, mgl64.Vec3{0, -1, 0}, eps) {
		t.Errorf("Direction(+Z) = %v, want -Y", d)
	}

	if _, err := NewConvention(0, "z"); err == nil {
		t.Error("expected error for zero scale")
	}
	if _, err := NewConvention(1, "w"); err == nil {
		t.Error("expected error for unknown axis")
	}
	y, err := NewConvention(0.001, "y")
	if err != nil {
		t.Fatal(err)
	}
	if !y.Basis.IsIdentity(0) {
		t.Error("y-up convention should keep the basis")
	}
}

func TestMeshTransformAgreesWithPoses(t *testing.T) {
	c := DefaultConvention()
	j := rotated(0.3, -0.2, 1.1, 12, -4, 7)
	p := mgl64.Vec3{2, 5, -1}

	// A vertex in the child frame lands in the same place whether the mesh
	// is converted first and posed by the converted joint, or posed first.
	viaPose := c.Apply(j).Apply(c.MeshTransform(Identity()).Apply(p))
	direct := c.MeshTransform(j).Apply(p)
	if !vecNear(viaPose, direct, eps) {
		t.Errorf("posed vertex = %v, direct = %v", viaPose, direct)
	}
	if s := Scaling(2).Apply(mgl64.Vec3{1, 2, 3}); !vecNear(s, mgl64.Vec3{2, 4, 6}, eps) {
		t.Errorf("Scaling(2) = %v", s)
	}
}
