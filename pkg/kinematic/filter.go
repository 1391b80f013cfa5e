package kinematic

import (
	"fmt"
	"math"

	"github.com/chazu/linkage/pkg/kernel"
	"github.com/chazu/linkage/pkg/scene"
)

// FilterDecision records why a link was kept or removed.
type FilterDecision struct {
	Link     string  `json:"link"`
	Degree   int     `json:"degree"`
	Diagonal float64 `json:"diagonal_cm"`
	Kept     bool    `json:"kept"`
	Reason   string  `json:"reason"`
}

// DegreeMap counts, per link name, the raw joints touching it. A joint with
// the same link on both sides counts twice.
func DegreeMap(raw []*scene.Joint, links []*Link) map[string]int {
	idx := linkIndex(links)
	deg := make(map[string]int, len(links))
	for _, l := range links {
		deg[l.Name] = 0
	}
	for _, j := range raw {
		if name, ok := idx[j.Parent.Occurrence]; ok {
			deg[name]++
		}
		if name, ok := idx[j.Child.Occurrence]; ok {
			deg[name]++
		}
	}
	return deg
}

// MaxDiagonal returns the largest bounding box diagonal over the bodies of
// o, in source units. An unreadable box counts as infinitely large so the
// part is never filtered on bad data. A part with no bodies reports 0.
func MaxDiagonal(o *scene.Occurrence) float64 {
	var max float64
	for _, b := range o.Bodies {
		d, err := kernel.Diagonal(b.Solid)
		if err != nil {
			return math.Inf(1)
		}
		if d > max {
			max = d
		}
	}
	return max
}

// Decide applies the fastener heuristic to one link. It is independent of
// every other link's decision.
func Decide(name string, bodies, degree int, diagonal, thresholdCM float64) FilterDecision {
	d := FilterDecision{Link: name, Degree: degree, Diagonal: diagonal, Kept: true}
	switch {
	case bodies == 0:
		d.Reason = "no bodies"
	case degree == 0:
		d.Reason = "not jointed"
	case degree >= 2:
		d.Reason = fmt.Sprintf("connects %d joints", degree)
	case diagonal >= thresholdCM:
		d.Reason = fmt.Sprintf("diagonal %.3g cm >= %.3g cm", diagonal, thresholdCM)
	default:
		d.Kept = false
		d.Reason = fmt.Sprintf("single joint and diagonal %.3g cm < %.3g cm", diagonal, thresholdCM)
	}
	return d
}

// Filter removes fastener-like links: exactly one joint and smaller than
// the threshold. The returned slice keeps the input order. When filtering
// is inactive the input is returned unchanged with no decisions.
func Filter(links []*Link, raw []*scene.Joint, opts FilterOptions) ([]*Link, []FilterDecision, error) {
	if !opts.Active() {
		return links, nil, nil
	}
	threshold, err := ToCentimeters(opts.Threshold, opts.Unit)
	if err != nil {
		return nil, nil, err
	}
	deg := DegreeMap(raw, links)
	kept := make([]*Link, 0, len(links))
	decisions := make([]FilterDecision, 0, len(links))
	for _, l := range links {
		d := Decide(l.Name, len(l.Occurrence.Bodies), deg[l.Name], MaxDiagonal(l.Occurrence), threshold)
		decisions = append(decisions, d)
		if d.Kept {
			kept = append(kept, l)
		}
	}
	return kept, decisions, nil
}
