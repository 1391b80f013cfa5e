package kinematic

import (
	"fmt"
	"strings"

	"github.com/chazu/linkage/pkg/diag"
	"github.com/chazu/linkage/pkg/scene"
	"github.com/chazu/linkage/pkg/xform"
)

const (
	componentFilter   = "filter"
	componentResolver = "resolver"
	componentBake     = "bake"
)

// Build turns src into a kinematic tree. The stages run in a fixed order:
// classify, canonicalize ground, filter small parts, validate joints,
// resolve joint origins, bake link transforms.
//
// Build only fails on invalid options or, with DisconnectedReject, when
// some link cannot be reached from the root. Every other problem becomes a
// diagnostic on the returned tree.
func Build(src scene.Source, opts Options) (*Tree, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	t := &Tree{}

	candidates := Classify(src, opts.OBJLinks, &t.Report)
	links, _ := CanonicalizeGround(candidates)

	raw := ReadJoints(src, &t.Report)

	kept, decisions, err := Filter(links, raw, opts.Filter)
	if err != nil {
		return nil, err
	}
	t.Filtered = decisions
	for _, d := range decisions {
		if !d.Kept {
			t.Report.Addf(componentFilter, d.Link, diag.Filtered, diag.SeverityInfo, "%s", d.Reason)
		}
	}
	links, grounded := CanonicalizeGround(kept)
	t.Links = links
	if len(links) == 0 {
		return t, nil
	}
	if !grounded {
		t.Report.Addf(componentBuilder, links[0].Name, diag.NoGround, diag.SeverityWarning,
			"no grounded link; using first link as root")
	}

	resolver := NewResolver(src, opts.Convention)
	valid := ValidateJoints(raw, links, &t.Report)
	ordered, unreached := arrange(valid, links, resolver, &t.Report)

	if len(unreached) > 0 {
		sev := diag.SeverityWarning
		msg := "not connected to the root; exported as a floating body"
		if opts.Disconnected == DisconnectedReject {
			sev, msg = diag.SeverityError, "not connected to the root"
		}
		for _, name := range unreached {
			t.Report.Addf(componentBuilder, name, diag.Disconnected, sev, "%s", msg)
		}
		if opts.Disconnected == DisconnectedReject {
			return t, fmt.Errorf("%w: %s", ErrDisconnected, strings.Join(unreached, ", "))
		}
	}

	frames := resolveJoints(t, resolver, ordered, links, opts.Convention)
	bakeLinks(t, src, frames)
	return t, nil
}

// arrange reverses joints whose child side is the root, drops joints that
// would give a link a second parent, then orders the rest breadth-first
// from the root and then from each parentless link, so a parent link's
// frame is always resolved before its children. It returns the ordered
// joints and the names of links not reachable from the root.
func arrange(valid []*scene.Joint, links []*Link, r *Resolver, report *diag.Report) ([]*scene.Joint, []string) {
	idx := linkIndex(links)
	root := links[0].Name

	hasParent := make(map[string]bool)
	children := make(map[string][]*scene.Joint)
	var accepted []*scene.Joint
	for _, j := range valid {
		parent, child := idx[j.Parent.Occurrence], idx[j.Child.Occurrence]
		if parent == child {
			report.Addf(componentBuilder, j.Name, diag.InconsistentReference, diag.SeverityWarning,
				"joint connects link %q to itself; dropped", child)
			continue
		}
		if child == root {
			j = r.Reverse(j)
			parent, child = child, parent
			report.Addf(componentBuilder, j.Name, diag.InconsistentReference, diag.SeverityInfo,
				"joint reversed so root link %q stays the parent", root)
		}
		if hasParent[child] {
			report.Addf(componentBuilder, j.Name, diag.InconsistentReference, diag.SeverityWarning,
				"link %q already has a parent joint (closed loop); dropped", child)
			continue
		}
		hasParent[child] = true
		children[parent] = append(children[parent], j)
		accepted = append(accepted, j)
	}

	var ordered []*scene.Joint
	visited := make(map[string]bool)
	walk := func(start string) {
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, j := range children[cur] {
				child := idx[j.Child.Occurrence]
				if visited[child] {
					continue
				}
				visited[child] = true
				ordered = append(ordered, j)
				queue = append(queue, child)
			}
		}
	}

	walk(root)
	var unreached []string
	for _, l := range links[1:] {
		if !visited[l.Name] {
			unreached = append(unreached, l.Name)
		}
	}
	for _, l := range links[1:] {
		if !visited[l.Name] && !hasParent[l.Name] {
			walk(l.Name)
		}
	}

	// Joints still unvisited sit on parent cycles with no entry point.
	placed := make(map[*scene.Joint]bool, len(ordered))
	for _, j := range ordered {
		placed[j] = true
	}
	for _, j := range accepted {
		if !placed[j] {
			report.Addf(componentBuilder, j.Name, diag.InconsistentReference, diag.SeverityWarning,
				"joint is part of a closed loop; dropped")
		}
	}
	return ordered, unreached
}

// resolveJoints resolves every ordered joint against its parent link's
// frame and returns the frame of each link that has a parent joint.
func resolveJoints(t *Tree, resolver *Resolver, ordered []*scene.Joint, links []*Link, conv xform.Convention) map[string]xform.Transform {
	idx := linkIndex(links)
	frames := make(map[string]xform.Transform, len(ordered))
	used := make(map[string]int)

	for _, rj := range ordered {
		parent, child := idx[rj.Parent.Occurrence], idx[rj.Child.Occurrence]
		ref, ok := frames[parent]
		if !ok {
			ref = xform.Identity()
		}
		res := resolver.Resolve(rj, &ref)
		frames[child] = res.World

		name := uniqueName(SanitizeName(rj.Name), used)
		if res.Degraded() {
			cond := diag.Fallback
			if res.Strategy == StrategyIdentity {
				cond = diag.UnresolvableGeometry
			}
			t.Report.Addf(componentResolver, name, cond, diag.SeverityWarning,
				"resolved with %s strategy (%s)", res.Strategy, res.FailureSummary())
		}

		j := &Joint{
			Name:     name,
			Kind:     res.Kind,
			Parent:   parent,
			Child:    child,
			Origin:   res.Origin,
			Axis:     res.Axis,
			Strategy: res.Strategy,
			World:    res.World,
		}
		if lim := rj.Motion.Limits; lim != nil {
			switch j.Kind {
			case JointRevolute:
				j.Limits = &scene.Limits{Lower: lim.Lower, Upper: lim.Upper}
			case JointPrismatic:
				j.Limits = &scene.Limits{Lower: lim.Lower * conv.Scale, Upper: lim.Upper * conv.Scale}
			}
		}
		t.Joints = append(t.Joints, j)
	}
	return frames
}

// bakeLinks sets every link's bake transform, falling back to identity.
func bakeLinks(t *Tree, src scene.Source, frames map[string]xform.Transform) {
	for _, l := range t.Links {
		var jw *xform.Transform
		if f, ok := frames[l.Name]; ok {
			jw = &f
		}
		bake, err := BakeTransform(src, l, jw)
		if err != nil {
			t.Report.Addf(componentBake, l.Name, diag.UnresolvableGeometry, diag.SeverityWarning,
				"mesh exported unbaked: %v", err)
			bake = xform.Identity()
		}
		l.Bake = bake
	}
}
