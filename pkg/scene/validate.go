package scene

import (
	"fmt"

	"github.com/chazu/linkage/pkg/diag"
)

const validateComponent = "scene"

// Validate runs structural checks on the assembly and returns the findings.
// An empty slice means the assembly is consistent. Validate never mutates
// the assembly.
func Validate(a *Assembly) []diag.Diagnostic {
	var out []diag.Diagnostic
	out = append(out, validateCycles(a)...)
	out = append(out, validateReferences(a)...)
	out = append(out, validateRoots(a)...)
	out = append(out, validateNames(a)...)
	out = append(out, validateJoints(a)...)
	return out
}

func finding(subject string, cond diag.Condition, sev diag.Severity, format string, args ...any) diag.Diagnostic {
	return diag.Diagnostic{
		Component: validateComponent,
		Subject:   subject,
		Condition: cond,
		Severity:  sev,
		Message:   fmt.Sprintf(format, args...),
	}
}

// validateCycles checks for cycles using DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
func validateCycles(a *Assembly) []diag.Diagnostic {
	const (
		white = iota
		gray
		black
	)

	color := make(map[ID]int)
	var out []diag.Diagnostic

	var visit func(id ID) bool
	visit = func(id ID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			out = append(out, finding(string(id), diag.MalformedInput, diag.SeverityError,
				"cycle detected: occurrence %s is its own ancestor", id.Short()))
			return true
		}
		color[id] = gray
		o, ok := a.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}
		for _, cid := range o.Children {
			if visit(cid) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for id := range a.Nodes {
		if color[id] == white {
			if visit(id) {
				break
			}
		}
	}
	return out
}

// validateReferences checks that child and parent links exist and agree.
func validateReferences(a *Assembly) []diag.Diagnostic {
	var out []diag.Diagnostic
	for id, o := range a.Nodes {
		if o.ID != id {
			out = append(out, finding(string(id), diag.MalformedInput, diag.SeverityError,
				"indexed as %q but carries ID %q", id, o.ID))
		}
		for _, cid := range o.Children {
			c, ok := a.Nodes[cid]
			if !ok {
				out = append(out, finding(string(id), diag.InconsistentReference, diag.SeverityError,
					"child %q does not exist", cid))
				continue
			}
			if c.Parent != id {
				out = append(out, finding(string(cid), diag.InconsistentReference, diag.SeverityError,
					"listed as child of %q but names parent %q", id, c.Parent))
			}
		}
		if !o.Parent.IsZero() {
			if _, ok := a.Nodes[o.Parent]; !ok {
				out = append(out, finding(string(id), diag.InconsistentReference, diag.SeverityError,
					"parent %q does not exist", o.Parent))
			}
		}
	}
	return out
}

// validateRoots checks every root exists and warns about occurrences not
// reachable from any root.
func validateRoots(a *Assembly) []diag.Diagnostic {
	var out []diag.Diagnostic
	for _, rid := range a.Roots {
		if _, ok := a.Nodes[rid]; !ok {
			out = append(out, finding(string(rid), diag.InconsistentReference, diag.SeverityError,
				"root reference %q does not exist", rid))
		}
	}

	reachable := make(map[ID]bool, len(a.Nodes))
	for _, o := range a.Occurrences() {
		reachable[o.ID] = true
	}
	for id := range a.Nodes {
		if !reachable[id] {
			out = append(out, finding(string(id), diag.Disconnected, diag.SeverityWarning,
				"occurrence %q is not reachable from any root (orphan)", id.Short()))
		}
	}
	return out
}

// validateNames warns about repeated occurrence names; link names derived
// from them are de-duplicated later but the export becomes harder to read.
func validateNames(a *Assembly) []diag.Diagnostic {
	var out []diag.Diagnostic
	count := make(map[string]int)
	for _, o := range a.Occurrences() {
		count[o.Name]++
	}
	for _, o := range a.Occurrences() {
		if n := count[o.Name]; n > 1 {
			out = append(out, finding(o.Name, diag.MalformedInput, diag.SeverityWarning,
				"name used by %d occurrences", n))
			count[o.Name] = 0
		}
	}
	return out
}

// validateJoints checks that each joint side names an existing occurrence.
func validateJoints(a *Assembly) []diag.Diagnostic {
	var out []diag.Diagnostic
	for i, j := range a.Joints {
		if j == nil {
			out = append(out, finding(fmt.Sprintf("joint[%d]", i), diag.MalformedInput, diag.SeverityError,
				"joint record is empty"))
			continue
		}
		subject := j.Name
		if subject == "" {
			subject = fmt.Sprintf("joint[%d]", i)
			out = append(out, finding(subject, diag.MalformedInput, diag.SeverityWarning, "joint has no name"))
		}
		for _, side := range []struct {
			label string
			id    ID
		}{{"parent", j.Parent.Occurrence}, {"child", j.Child.Occurrence}} {
			if side.id.IsZero() {
				out = append(out, finding(subject, diag.MalformedInput, diag.SeverityError,
					"%s side has no occurrence", side.label))
				continue
			}
			if _, ok := a.Nodes[side.id]; !ok {
				out = append(out, finding(subject, diag.InconsistentReference, diag.SeverityError,
					"%s side names missing occurrence %q", side.label, side.id))
			}
		}
		if !j.Parent.Occurrence.IsZero() && j.Parent.Occurrence == j.Child.Occurrence {
			out = append(out, finding(subject, diag.InconsistentReference, diag.SeverityWarning,
				"joint connects %q to itself", j.Parent.Occurrence))
		}
	}
	return out
}
