package kinematic

import (
	"fmt"

	"github.com/chazu/linkage/pkg/diag"
	"github.com/chazu/linkage/pkg/scene"
)

// ReadJoints reads every raw joint from src. A joint that fails to read is
// treated as absent and reported.
func ReadJoints(src scene.Source, report *diag.Report) []*scene.Joint {
	n := src.JointCount()
	out := make([]*scene.Joint, 0, n)
	for i := 0; i < n; i++ {
		j, err := readJoint(src, i)
		if err != nil {
			report.Addf(componentBuilder, fmt.Sprintf("joint[%d]", i), diag.MalformedInput, diag.SeverityError,
				"unreadable joint skipped: %v", err)
			continue
		}
		out = append(out, j)
	}
	return out
}

// readJoint converts host panics on property access into errors.
func readJoint(src scene.Source, i int) (j *scene.Joint, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic reading joint: %v", r)
		}
	}()
	j, err = src.Joint(i)
	if err == nil && j == nil {
		err = fmt.Errorf("empty joint record")
	}
	return j, err
}

// linkIndex maps occurrence IDs to link names.
func linkIndex(links []*Link) map[scene.ID]string {
	idx := make(map[scene.ID]string, len(links))
	for _, l := range links {
		idx[l.ID()] = l.Name
	}
	return idx
}

// ValidateJoints keeps the raw joints whose two sides both name one of
// links, reporting each dropped joint.
func ValidateJoints(raw []*scene.Joint, links []*Link, report *diag.Report) []*scene.Joint {
	idx := linkIndex(links)
	var out []*scene.Joint
	for _, j := range raw {
		_, okParent := idx[j.Parent.Occurrence]
		_, okChild := idx[j.Child.Occurrence]
		switch {
		case okParent && okChild:
			out = append(out, j)
		case !okParent && !okChild:
			report.Addf(componentBuilder, j.Name, diag.InconsistentReference, diag.SeverityWarning,
				"neither %q nor %q is a link; joint dropped", j.Parent.Occurrence, j.Child.Occurrence)
		case !okParent:
			report.Addf(componentBuilder, j.Name, diag.InconsistentReference, diag.SeverityWarning,
				"parent %q is not a link; joint dropped", j.Parent.Occurrence)
		default:
			report.Addf(componentBuilder, j.Name, diag.InconsistentReference, diag.SeverityWarning,
				"child %q is not a link; joint dropped", j.Child.Occurrence)
		}
	}
	return out
}
