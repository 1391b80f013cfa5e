package kinematic

import (
	"fmt"
	"strings"

	"github.com/chazu/linkage/pkg/diag"
	"github.com/chazu/linkage/pkg/scene"
	"github.com/chazu/linkage/pkg/xform"
)

const componentBuilder = "builder"

// IsLinkCandidate reports whether an occurrence is a true leaf part: it is
// visible, has no child occurrences, and defines no joints of its own.
func IsLinkCandidate(visible bool, children, componentJoints int) bool {
	return visible && children == 0 && componentJoints == 0
}

// Classify returns a Link for every qualifying occurrence, in discovery
// order, at any nesting depth.
func Classify(src scene.Source, objLinks []string, report *diag.Report) []*Link {
	obj := make(map[string]bool, len(objLinks))
	for _, n := range objLinks {
		obj[n] = true
	}

	var links []*Link
	used := make(map[string]int)
	for _, o := range src.Occurrences() {
		if !IsLinkCandidate(o.Visible, len(o.Children), o.ComponentJoints) {
			continue
		}
		l := &Link{
			Name:       uniqueName(SanitizeName(o.Name), used),
			Occurrence: o,
			Format:     MeshSTL,
			Grounded:   o.Grounded,
			Bake:       xform.Identity(),
		}
		if obj[l.Name] || obj[o.Name] {
			l.Format = MeshOBJ
		}
		pairBodies(l, report)
		links = append(links, l)
	}
	return links
}

// pairBodies picks the visual and collision bodies. Both must be present;
// a lone one is dropped with a diagnostic.
func pairBodies(l *Link, report *diag.Report) {
	vis := l.Occurrence.Body("visual")
	col := l.Occurrence.Body("collision")
	switch {
	case vis != nil && col != nil:
		l.Visual, l.Collision = vis, col
	case vis != nil || col != nil:
		report.Addf(componentBuilder, l.Name, diag.Incomplete, diag.SeverityWarning,
			"visual and collision bodies must both exist; exporting the whole part")
	}
}

// SanitizeName turns an occurrence name into a link name usable in every
// output format.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "link"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == ':' || r == '/' || r == ' ' || r == '\t' || r == '.':
			return '_'
		case r == '(' || r == ')' || r == '"' || r == '\'':
			return -1
		}
		return r
	}, name)
}

func uniqueName(base string, used map[string]int) string {
	used[base]++
	if used[base] == 1 {
		return base
	}
	for {
		candidate := fmt.Sprintf("%s_%d", base, used[base])
		if used[candidate] == 0 {
			used[candidate] = 1
			return candidate
		}
		used[base]++
	}
}

// CanonicalizeGround moves the first grounded link to index 0, keeping the
// relative order of the rest. It returns a new slice and whether a grounded
// link was found. Applying it twice yields the same order.
func CanonicalizeGround(links []*Link) ([]*Link, bool) {
	out := make([]*Link, len(links))
	copy(out, links)
	for i, l := range out {
		if !l.Grounded {
			continue
		}
		if i > 0 {
			copy(out[1:i+1], links[:i])
			out[0] = l
		}
		return out, true
	}
	return out, false
}
