package scene

import (
	"errors"
	"fmt"

	"github.com/chazu/linkage/pkg/xform"
)

// ErrAncestorCycle is returned when a parent chain loops back on itself.
var ErrAncestorCycle = errors.New("scene: ancestor cycle")

// Ancestors returns the chain from id up to its top-level ancestor,
// starting with id itself.
func Ancestors(src Source, id ID) ([]*Occurrence, error) {
	var chain []*Occurrence
	seen := make(map[ID]bool)
	for cur := id; !cur.IsZero(); {
		if seen[cur] {
			return nil, fmt.Errorf("%w at %q", ErrAncestorCycle, cur)
		}
		seen[cur] = true
		o, err := src.Occurrence(cur)
		if err != nil {
			return nil, err
		}
		chain = append(chain, o)
		cur = o.Parent
	}
	return chain, nil
}

// WorldTransform composes an occurrence's local transform with every
// ancestor's, giving its pose in the assembly frame.
func WorldTransform(src Source, id ID) (xform.Transform, error) {
	chain, err := Ancestors(src, id)
	if err != nil {
		return xform.Transform{}, err
	}
	world := xform.Identity()
	for i := len(chain) - 1; i >= 0; i-- {
		world = xform.Compose(world, chain[i].Local)
	}
	return world, nil
}

// Depth returns how many ancestors id has (0 for a top-level occurrence).
func Depth(src Source, id ID) (int, error) {
	chain, err := Ancestors(src, id)
	if err != nil {
		return 0, err
	}
	return len(chain) - 1, nil
}
