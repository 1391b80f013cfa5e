package kinematic

import (
	"fmt"

	"github.com/chazu/linkage/pkg/scene"
	"github.com/chazu/linkage/pkg/xform"
)

// BakeTransform computes the transform that moves a link's geometry from
// its occurrence frame into the frame its exported joint expects.
//
// With no parent joint the target frame is the world origin and the bake is
// the link's world transform W. Otherwise it is J⁻¹·W where J is the parent
// joint's world frame: the mesh is first placed in the world, then
// re-expressed relative to the joint.
func BakeTransform(src scene.Source, l *Link, jointWorld *xform.Transform) (xform.Transform, error) {
	w, err := scene.WorldTransform(src, l.ID())
	if err != nil {
		return xform.Identity(), fmt.Errorf("link world transform: %w", err)
	}
	if jointWorld == nil {
		return w, nil
	}
	inv, err := xform.Inverse(*jointWorld)
	if err != nil {
		return xform.Identity(), fmt.Errorf("joint frame: %w", err)
	}
	return xform.Compose(inv, w), nil
}
