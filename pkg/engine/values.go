package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/linkage/pkg/kernel"
	"github.com/chazu/linkage/pkg/scene"
	"github.com/go-gl/mathgl/mgl64"
	zygo "github.com/glycerine/zygomys/zygo"
)

// Go values passed between builtins are wrapped in these Sexp types.

type sexpVec3 struct {
	vec mgl64.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpSolid is an unnamed kernel solid.
type sexpSolid struct {
	solid kernel.Solid
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string {
	min, max, err := kernel.Bounds(s.solid)
	if err != nil {
		return "(solid)"
	}
	return fmt.Sprintf("(solid %gx%gx%g)", max[0]-min[0], max[1]-min[1], max[2]-min[2])
}
func (s *sexpSolid) Type() *zygo.RegisteredType { return nil }

// sexpBody is a named solid, ready to attach to a part.
type sexpBody struct {
	body scene.Body
}

func (b *sexpBody) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(body %q)", b.body.Name)
}
func (b *sexpBody) Type() *zygo.RegisteredType { return nil }

// sexpOccRef refers to an occurrence already added to the assembly.
type sexpOccRef struct {
	id scene.ID
}

func (r *sexpOccRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(occurrence %q)", string(r.id))
}
func (r *sexpOccRef) Type() *zygo.RegisteredType { return nil }

type sexpJointRef struct {
	name string
	kind scene.MotionKind
}

func (r *sexpJointRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", r.kind, r.name)
}
func (r *sexpJointRef) Type() *zygo.RegisteredType { return nil }

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds a mixed positional and keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates keyword arguments from positional ones. A keyword
// always takes the next argument as its value; a trailing keyword is a flag
// and maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
			continue
		}
		result.kw[name] = zygo.SexpNull
	}
	return result
}

func describe(s zygo.Sexp) string {
	if s == nil {
		return "nil"
	}
	return fmt.Sprintf("%T (%s)", s, s.SexpString(nil))
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %s", describe(s))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %s", describe(s))
}

// toKeywordString accepts a keyword (:revolute) or a plain string.
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %s", describe(s))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toBool accepts true/false, a bare flag keyword (true), or a number.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpInt:
		return v.Val != 0, nil
	}
	if s == zygo.SexpNull {
		return true, nil
	}
	return false, fmt.Errorf("expected boolean, got %s", describe(s))
}

func toVec3(s zygo.Sexp) (mgl64.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("expected vec3, got %s", describe(s))
}

func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	switch v := s.(type) {
	case *sexpSolid:
		return v.solid, nil
	case *sexpBody:
		return v.body.Solid, nil
	}
	return nil, fmt.Errorf("expected solid, got %s", describe(s))
}

// toOccID accepts an occurrence reference or its ID path as a string.
func toOccID(s zygo.Sexp) (scene.ID, error) {
	switch v := s.(type) {
	case *sexpOccRef:
		return v.id, nil
	case *zygo.SexpStr:
		return scene.ID(v.S), nil
	}
	return scene.ZeroID, fmt.Errorf("expected occurrence reference, got %s", describe(s))
}

// sexpListToSlice converts a list or array to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %s", describe(s))
}

// toPair reads a two-number list such as (list -90 90).
func toPair(s zygo.Sexp) (lo, hi float64, err error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return 0, 0, err
	}
	if len(items) != 2 {
		return 0, 0, fmt.Errorf("expected 2 numbers, got %d", len(items))
	}
	if lo, err = toFloat64(items[0]); err != nil {
		return 0, 0, err
	}
	if hi, err = toFloat64(items[1]); err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}
