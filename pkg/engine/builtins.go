package engine

import (
	"fmt"
	"math"

	"github.com/chazu/linkage/pkg/kernel"
	"github.com/chazu/linkage/pkg/scene"
	"github.com/chazu/linkage/pkg/xform"
	"github.com/go-gl/mathgl/mgl64"
	zygo "github.com/glycerine/zygomys/zygo"
)

// builder accumulates the assembly while a program runs. Lengths are in
// centimeters and angles in degrees, the way a CAD host reports them.
type builder struct {
	asm *scene.Assembly
	k   kernel.Kernel
}

// jointKinds maps DSL function names to motion kinds. Kebab-case names are
// registered in their preprocessed snake_case form.
var jointKinds = map[string]scene.MotionKind{
	"rigid":       scene.MotionRigid,
	"revolute":    scene.MotionRevolute,
	"slider":      scene.MotionSlider,
	"cylindrical": scene.MotionCylindrical,
	"pin_slot":    scene.MotionPinSlot,
	"planar":      scene.MotionPlanar,
	"ball":        scene.MotionBall,
}

// registerBuiltins installs the assembly DSL into env. Source must go
// through preprocessSource first so keywords are recognizable.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	// (assembly "Rover Mk2" :author "..." :description "...")
	env.AddFunction("assembly", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("assembly requires a name argument")
		}
		asmName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("assembly: name: %w", err)
		}
		b.asm.Name = asmName
		if v, ok := pa.kw["author"]; ok {
			if b.asm.Author, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("assembly: author: %w", err)
			}
		}
		if v, ok := pa.kw["description"]; ok {
			if b.asm.Description, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("assembly: description: %w", err)
			}
		}
		return &zygo.SexpStr{S: asmName}, nil
	})

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v mgl64.Vec3
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			v[i] = f
		}
		return &sexpVec3{vec: v}, nil
	})

	// (box 10 2 4), (cylinder 5 1), (sphere 2)
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		dims, err := positiveNumbers(name, args, "x", "y", "z")
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{solid: b.k.Box(dims[0], dims[1], dims[2])}, nil
	})
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		dims, err := positiveNumbers(name, args, "height", "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{solid: b.k.Cylinder(dims[0], dims[1])}, nil
	})
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		dims, err := positiveNumbers(name, args, "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{solid: b.k.Sphere(dims[0])}, nil
	})

	// (union a b ...), (difference a b ...)
	env.AddFunction("union", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		solids, err := solidArgs(name, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		acc := solids[0]
		for _, s := range solids[1:] {
			acc = b.k.Union(acc, s)
		}
		return &sexpSolid{solid: acc}, nil
	})
	env.AddFunction("difference", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		solids, err := solidArgs(name, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		acc := solids[0]
		for _, s := range solids[1:] {
			acc = b.k.Difference(acc, s)
		}
		return &sexpSolid{solid: acc}, nil
	})

	// (move solid :at (vec3 0 1 0) :rpy (vec3 0 0 90))
	env.AddFunction("move", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("move requires one solid")
		}
		s, err := toSolid(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("move: %w", err)
		}
		t, err := placement("move", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSolid{solid: b.k.Transform(s, t)}, nil
	})

	// (body "shell_visual" (box 1 2 3))
	env.AddFunction("body", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("body requires a name and a solid")
		}
		bodyName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("body: name: %w", err)
		}
		s, err := toSolid(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("body: %w", err)
		}
		return &sexpBody{body: scene.Body{Name: bodyName, Solid: s}}, nil
	})

	// (part "arm:1" (box 2 10 2) :parent ref :at (vec3 0 5 0) :grounded true)
	// (group "wrist:1" :parent ref :at (vec3 0 10 0))
	occurrence := func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		o, err := b.occurrence(name, parseArgs(args))
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpOccRef{id: o.ID}, nil
	}
	env.AddFunction("part", occurrence)
	env.AddFunction("group", occurrence)

	// (revolute "shoulder" :parent base :child arm :origin (vec3 0 10 0)
	//           :axis (vec3 0 0 1) :limits (list -90 90))
	for fn, kind := range jointKinds {
		kind := kind
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			return b.joint(name, kind, parseArgs(args))
		})
	}

	// (joint "hinge" :kind :revolute ...)
	env.AddFunction("joint", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		v, ok := pa.kw["kind"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("joint: kind is required")
		}
		s, err := toKeywordString(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("joint: kind: %w", err)
		}
		kind, ok := scene.ParseMotionKind(s)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("joint: kind: unknown motion %q", s)
		}
		return b.joint(name, kind, pa)
	})
}

func positiveNumbers(fn string, args []zygo.Sexp, names ...string) ([]float64, error) {
	if len(args) != len(names) {
		return nil, fmt.Errorf("%s requires %d arguments, got %d", fn, len(names), len(args))
	}
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", fn, names[i], err)
		}
		if f <= 0 {
			return nil, fmt.Errorf("%s: %s must be positive, got %g", fn, names[i], f)
		}
		out[i] = f
	}
	return out, nil
}

func solidArgs(fn string, args []zygo.Sexp) ([]kernel.Solid, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("%s requires at least one solid", fn)
	}
	out := make([]kernel.Solid, len(args))
	for i, a := range args {
		s, err := toSolid(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
		}
		out[i] = s
	}
	return out, nil
}

// placement reads :at (cm) and :rpy (degrees) into a transform.
func placement(fn string, pa kwArgs) (xform.Transform, error) {
	var p xform.Pose
	if v, ok := pa.kw["at"]; ok {
		at, err := toVec3(v)
		if err != nil {
			return xform.Transform{}, fmt.Errorf("%s: at: %w", fn, err)
		}
		p.XYZ = at
	}
	if v, ok := pa.kw["rpy"]; ok {
		rpy, err := toVec3(v)
		if err != nil {
			return xform.Transform{}, fmt.Errorf("%s: rpy: %w", fn, err)
		}
		for i := range rpy {
			p.RPY[i] = mgl64.DegToRad(rpy[i])
		}
	}
	return p.Transform(), nil
}

func (b *builder) occurrence(fn string, pa kwArgs) (*scene.Occurrence, error) {
	if len(pa.positional) < 1 {
		return nil, fmt.Errorf("%s requires a name argument", fn)
	}
	occName, err := toString(pa.positional[0])
	if err != nil {
		return nil, fmt.Errorf("%s: name: %w", fn, err)
	}
	o := &scene.Occurrence{Name: occName, Visible: true}

	if o.Local, err = placement(fn, pa); err != nil {
		return nil, err
	}
	if v, ok := pa.kw["parent"]; ok {
		if o.Parent, err = toOccID(v); err != nil {
			return nil, fmt.Errorf("%s: parent: %w", fn, err)
		}
	}
	if v, ok := pa.kw["grounded"]; ok {
		if o.Grounded, err = toBool(v); err != nil {
			return nil, fmt.Errorf("%s: grounded: %w", fn, err)
		}
	}
	if v, ok := pa.kw["visible"]; ok {
		if o.Visible, err = toBool(v); err != nil {
			return nil, fmt.Errorf("%s: visible: %w", fn, err)
		}
	}
	if v, ok := pa.kw["joints"]; ok {
		n, err := toFloat64(v)
		if err != nil {
			return nil, fmt.Errorf("%s: joints: %w", fn, err)
		}
		o.ComponentJoints = int(n)
	}

	bodyArgs := pa.positional[1:]
	if v, ok := pa.kw["bodies"]; ok {
		items, err := sexpListToSlice(v)
		if err != nil {
			return nil, fmt.Errorf("%s: bodies: %w", fn, err)
		}
		bodyArgs = append(bodyArgs, items...)
	}
	for i, arg := range bodyArgs {
		switch v := arg.(type) {
		case *sexpBody:
			o.Bodies = append(o.Bodies, v.body)
		case *sexpSolid:
			o.Bodies = append(o.Bodies, scene.Body{Name: fmt.Sprintf("Body%d", len(o.Bodies)+1), Solid: v.solid})
		default:
			return nil, fmt.Errorf("%s: body %d: expected body or solid, got %s", fn, i+1, describe(arg))
		}
	}

	if err := b.asm.Add(o); err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return o, nil
}

func (b *builder) joint(fn string, kind scene.MotionKind, pa kwArgs) (zygo.Sexp, error) {
	if len(pa.positional) < 1 {
		return zygo.SexpNull, fmt.Errorf("%s requires a name argument", fn)
	}
	jointName, err := toString(pa.positional[0])
	if err != nil {
		return zygo.SexpNull, fmt.Errorf("%s: name: %w", fn, err)
	}
	j := &scene.Joint{Name: jointName, Motion: scene.Motion{Kind: kind}}

	for _, side := range []struct {
		key string
		dst *scene.ID
	}{{"parent", &j.Parent.Occurrence}, {"child", &j.Child.Occurrence}} {
		v, ok := pa.kw[side.key]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("%s: %s is required", fn, side.key)
		}
		if *side.dst, err = toOccID(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %s: %w", fn, side.key, err)
		}
	}

	if j.Parent.Geometry, err = jointGeometry(fn, pa); err != nil {
		return zygo.SexpNull, err
	}

	if v, ok := pa.kw["limits"]; ok {
		lo, hi, err := toPair(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: limits: %w", fn, err)
		}
		if lo > hi {
			return zygo.SexpNull, fmt.Errorf("%s: limits: lower %g exceeds upper %g", fn, lo, hi)
		}
		if rotational(kind) {
			lo, hi = mgl64.DegToRad(lo), mgl64.DegToRad(hi)
		}
		j.Motion.Limits = &scene.Limits{Lower: lo, Upper: hi}
	}

	b.asm.AddJoint(j)
	return &sexpJointRef{name: jointName, kind: kind}, nil
}

func rotational(k scene.MotionKind) bool {
	switch k {
	case scene.MotionRevolute, scene.MotionCylindrical, scene.MotionPinSlot, scene.MotionBall:
		return true
	}
	return false
}

// jointGeometry reads the parent-side reference geometry. Without :origin
// and :axis the joint has none.
func jointGeometry(fn string, pa kwArgs) (*scene.Geometry, error) {
	vOrigin, hasOrigin := pa.kw["origin"]
	vAxis, hasAxis := pa.kw["axis"]
	if !hasOrigin && !hasAxis {
		return nil, nil
	}
	g := &scene.Geometry{Primary: mgl64.Vec3{0, 0, 1}}
	var err error
	if hasOrigin {
		if g.Origin, err = toVec3(vOrigin); err != nil {
			return nil, fmt.Errorf("%s: origin: %w", fn, err)
		}
	}
	if hasAxis {
		if g.Primary, err = toVec3(vAxis); err != nil {
			return nil, fmt.Errorf("%s: axis: %w", fn, err)
		}
	}
	if v, ok := pa.kw["xaxis"]; ok {
		if g.Secondary, err = toVec3(v); err != nil {
			return nil, fmt.Errorf("%s: xaxis: %w", fn, err)
		}
	} else {
		g.Secondary = perpendicular(g.Primary)
	}
	return g, nil
}

// perpendicular returns a unit vector orthogonal to v, preferring the one
// closest to +X. A zero v yields +X.
func perpendicular(v mgl64.Vec3) mgl64.Vec3 {
	if v.Len() == 0 {
		return mgl64.Vec3{1, 0, 0}
	}
	n := v.Normalize()
	ref := mgl64.Vec3{1, 0, 0}
	if math.Abs(n[0]) > 0.9 {
		ref = mgl64.Vec3{0, 1, 0}
	}
	return ref.Sub(n.Mul(ref.Dot(n))).Normalize()
}
