package kinematic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/linkage/pkg/scene"
	"github.com/chazu/linkage/pkg/xform"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrNoGeometry is returned by strategies that need joint reference
// geometry when the parent side has none.
var ErrNoGeometry = errors.New("kinematic: joint has no parent-side geometry")

// Strategy names a way of computing a joint frame. Strategies are tried in
// the order of DefaultStrategies, most precise first.
type Strategy int

const (
	// StrategyGlobalized composes the full ancestor chain of the parent
	// occurrence with the parent-side joint geometry.
	StrategyGlobalized Strategy = iota
	// StrategyLocal uses the parent-side geometry as-is, ignoring ancestors.
	StrategyLocal
	// StrategyOccurrence places the joint at the child occurrence's frame
	// relative to the parent occurrence's frame, ignoring joint geometry.
	StrategyOccurrence
	// StrategyIdentity emits an identity pose and forces a fixed joint.
	StrategyIdentity
)

func (s Strategy) String() string {
	switch s {
	case StrategyGlobalized:
		return "globalized"
	case StrategyLocal:
		return "local"
	case StrategyOccurrence:
		return "occurrence"
	case StrategyIdentity:
		return "identity"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DefaultStrategies is the fallback chain used by NewResolver.
var DefaultStrategies = []Strategy{StrategyGlobalized, StrategyLocal, StrategyOccurrence, StrategyIdentity}

// StrategyFailure records why a strategy could not be used.
type StrategyFailure struct {
	Strategy Strategy
	Err      error
}

// Resolution is the outcome of resolving one joint.
type Resolution struct {
	Kind   JointKind
	Origin xform.Pose  // joint pose in the reference frame, target convention
	Axis   *mgl64.Vec3 // motion axis in the joint frame, target convention

	// World is the joint frame in the assembly frame, source units.
	World xform.Transform
	// Relative is the joint frame in the reference frame, source units.
	Relative xform.Transform

	Strategy Strategy
	Failures []StrategyFailure
}

// Degraded reports whether a fallback strategy was used.
func (r Resolution) Degraded() bool {
	return len(r.Failures) > 0
}

// FailureSummary joins the failure reasons in order.
func (r Resolution) FailureSummary() string {
	parts := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Strategy, f.Err)
	}
	return strings.Join(parts, "; ")
}

// Resolver computes joint origins by globalize-then-relativize.
type Resolver struct {
	src        scene.Source
	conv       xform.Convention
	strategies []Strategy
}

// NewResolver returns a resolver over src using the default fallback chain.
func NewResolver(src scene.Source, conv xform.Convention) *Resolver {
	return &Resolver{src: src, conv: conv, strategies: DefaultStrategies}
}

// WithStrategies returns a copy of r that tries only the given strategies,
// in order. StrategyIdentity is appended when missing so resolution always
// yields a result.
func (r *Resolver) WithStrategies(s ...Strategy) *Resolver {
	chain := append([]Strategy(nil), s...)
	if len(chain) == 0 || chain[len(chain)-1] != StrategyIdentity {
		chain = append(chain, StrategyIdentity)
	}
	return &Resolver{src: r.src, conv: r.conv, strategies: chain}
}

// Resolve computes the origin of j. When ref is non-nil it is used as the
// frame the origin is expressed in, instead of the parent occurrence's
// world transform. Resolve never fails: the last strategy always succeeds.
func (r *Resolver) Resolve(j *scene.Joint, ref *xform.Transform) Resolution {
	res := Resolution{Kind: KindOf(j.Motion)}
	for _, s := range r.strategies {
		world, rel, err := r.run(s, j, ref)
		if err != nil {
			res.Failures = append(res.Failures, StrategyFailure{Strategy: s, Err: err})
			continue
		}
		res.Strategy = s
		res.World = world
		res.Relative = rel
		break
	}
	if res.Strategy == StrategyIdentity {
		res.Kind = JointFixed
	}
	res.Origin = xform.Decompose(r.conv.Apply(res.Relative))
	if res.Kind.Moves() {
		axis := r.conv.Direction(mgl64.Vec3{0, 0, 1})
		res.Axis = &axis
	}
	return res
}

// JointWorld returns the world frame of j using the first strategy that
// yields one.
func (r *Resolver) JointWorld(j *scene.Joint) (xform.Transform, Strategy) {
	res := r.Resolve(j, nil)
	return res.World, res.Strategy
}

// Reverse returns a copy of j with its sides swapped. The new parent side
// carries the old child-side geometry; when there is none, the old joint
// frame is re-expressed in the old child occurrence's frame. Rotational and
// translational limits are mirrored, since the motion now runs the other
// way.
func (r *Resolver) Reverse(j *scene.Joint) *scene.Joint {
	out := &scene.Joint{
		Name:   j.Name,
		Motion: j.Motion,
		Parent: j.Child,
		Child:  j.Parent,
	}
	if lim := j.Motion.Limits; lim != nil {
		out.Motion.Limits = &scene.Limits{Lower: -lim.Upper, Upper: -lim.Lower}
	}
	if out.Parent.Geometry != nil {
		return out
	}
	world, s := r.JointWorld(j)
	if s != StrategyGlobalized && s != StrategyOccurrence {
		return out
	}
	childWorld, err := scene.WorldTransform(r.src, j.Child.Occurrence)
	if err != nil {
		return out
	}
	inv, err := xform.Inverse(childWorld)
	if err != nil {
		return out
	}
	out.Parent.Geometry = geometryOf(xform.Compose(inv, world))
	return out
}

// geometryOf is the inverse of geometryFrame.
func geometryOf(t xform.Transform) *scene.Geometry {
	m := t.Matrix()
	third := m.Col(1).Vec3()
	return &scene.Geometry{
		Origin:    t.Origin(),
		Primary:   m.Col(2).Vec3(),
		Secondary: m.Col(0).Vec3(),
		Third:     &third,
	}
}

func (r *Resolver) run(s Strategy, j *scene.Joint, ref *xform.Transform) (world, rel xform.Transform, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	switch s {
	case StrategyGlobalized:
		return r.globalized(j, ref)
	case StrategyLocal:
		return r.local(j)
	case StrategyOccurrence:
		return r.occurrence(j)
	case StrategyIdentity:
		base := xform.Identity()
		if ref != nil {
			base = *ref
		}
		return base, xform.Identity(), nil
	}
	return world, rel, fmt.Errorf("unknown strategy %v", s)
}

func geometryFrame(j *scene.Joint) (xform.Transform, error) {
	g := j.Parent.Geometry
	if g == nil {
		return xform.Transform{}, ErrNoGeometry
	}
	return xform.FromAxes(g.Origin, g.Primary, g.Secondary, g.Third)
}

func (r *Resolver) globalized(j *scene.Joint, ref *xform.Transform) (world, rel xform.Transform, err error) {
	parentWorld, err := scene.WorldTransform(r.src, j.Parent.Occurrence)
	if err != nil {
		return world, rel, err
	}
	local, err := geometryFrame(j)
	if err != nil {
		return world, rel, err
	}
	world = xform.Compose(parentWorld, local)

	base := parentWorld
	if ref != nil {
		base = *ref
	}
	inv, err := xform.Inverse(base)
	if err != nil {
		return world, rel, fmt.Errorf("reference frame: %w", err)
	}
	return world, xform.Compose(inv, world), nil
}

func (r *Resolver) local(j *scene.Joint) (world, rel xform.Transform, err error) {
	local, err := geometryFrame(j)
	if err != nil {
		return world, rel, err
	}
	return local, local, nil
}

func (r *Resolver) occurrence(j *scene.Joint) (world, rel xform.Transform, err error) {
	parent, err := r.src.Occurrence(j.Parent.Occurrence)
	if err != nil {
		return world, rel, err
	}
	child, err := r.src.Occurrence(j.Child.Occurrence)
	if err != nil {
		return world, rel, err
	}
	inv, err := xform.Inverse(parent.Local)
	if err != nil {
		return world, rel, fmt.Errorf("parent local: %w", err)
	}
	world, err = scene.WorldTransform(r.src, child.ID)
	if err != nil {
		world = child.Local
	}
	return world, xform.Compose(inv, child.Local), nil
}
