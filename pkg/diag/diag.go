// Package diag defines the structured diagnostics produced while turning an
// assembly into a kinematic tree. Diagnostics are values, never log lines:
// callers decide how to surface them.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Severity indicates whether a finding invalidates part of the output or is
// merely informational.
type Severity int

const (
	SeverityInfo    Severity = iota // decision record (e.g. a filtered part)
	SeverityWarning                 // output produced with a fallback or omission
	SeverityError                   // an item was dropped or the run must stop
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Condition classifies what went wrong.
type Condition string

const (
	// MalformedInput: a raw joint or node whose properties cannot be read.
	MalformedInput Condition = "malformed-input"
	// InconsistentReference: a joint side naming something that is not a link.
	InconsistentReference Condition = "inconsistent-reference"
	// UnresolvableGeometry: transform or geometry that could not be computed.
	UnresolvableGeometry Condition = "unresolvable-geometry"
	// Fallback: a lower-precision strategy produced the result.
	Fallback Condition = "fallback"
	// NoGround: no grounded link; the first link was used as root.
	NoGround Condition = "no-ground"
	// Filtered: a link was removed by the small part filter.
	Filtered Condition = "filtered"
	// Disconnected: a link is not reachable from the root through joints.
	Disconnected Condition = "disconnected"
	// Incomplete: an optional pairing (visual/collision) was discarded.
	Incomplete Condition = "incomplete"
	// ExportFailed: mesh or file output failed.
	ExportFailed Condition = "export-failed"
)

// Diagnostic is one finding.
type Diagnostic struct {
	Component string    `json:"component"` // stage that produced it
	Subject   string    `json:"subject"`   // joint, link, or node name
	Condition Condition `json:"condition"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
}

func (d Diagnostic) Error() string {
	if d.Subject == "" {
		return fmt.Sprintf("[%s] %s: %s", d.Severity, d.Component, d.Message)
	}
	return fmt.Sprintf("[%s] %s %q: %s", d.Severity, d.Component, d.Subject, d.Message)
}

// Report accumulates diagnostics in emission order.
type Report struct {
	Items []Diagnostic `json:"items"`
}

// Add appends d.
func (r *Report) Add(d Diagnostic) {
	r.Items = append(r.Items, d)
}

// Addf appends a diagnostic built from its parts.
func (r *Report) Addf(component, subject string, cond Condition, sev Severity, format string, args ...any) {
	r.Add(Diagnostic{
		Component: component,
		Subject:   subject,
		Condition: cond,
		Severity:  sev,
		Message:   fmt.Sprintf(format, args...),
	})
}

// Merge appends every item of other.
func (r *Report) Merge(other Report) {
	r.Items = append(r.Items, other.Items...)
}

// Len returns the number of diagnostics.
func (r *Report) Len() int {
	return len(r.Items)
}

// HasErrors reports whether any diagnostic has error severity.
func (r *Report) HasErrors() bool {
	for _, d := range r.Items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Filter returns the diagnostics with the given condition.
func (r *Report) Filter(cond Condition) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Items {
		if d.Condition == cond {
			out = append(out, d)
		}
	}
	return out
}

// Counts tallies diagnostics by condition.
func (r *Report) Counts() map[Condition]int {
	counts := make(map[Condition]int)
	for _, d := range r.Items {
		counts[d.Condition]++
	}
	return counts
}

// Summary renders the counts as "condition=n" pairs in sorted order, or
// "clean" when empty.
func (r *Report) Summary() string {
	counts := r.Counts()
	if len(counts) == 0 {
		return "clean"
	}
	keys := make([]string, 0, len(counts))
	for c := range counts {
		keys = append(keys, string(c))
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[Condition(k)])
	}
	return strings.Join(parts, " ")
}
