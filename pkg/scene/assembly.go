package scene

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an occurrence or joint does not exist.
var ErrNotFound = errors.New("scene: not found")

// Source is the read-only query surface of a CAD assembly.
type Source interface {
	// Occurrences returns every occurrence, depth-first in discovery order.
	Occurrences() []*Occurrence
	// Occurrence returns the occurrence with the given ID.
	Occurrence(id ID) (*Occurrence, error)
	// JointCount returns the number of top-level joints.
	JointCount() int
	// Joint returns the i-th joint. Reading a joint may fail; callers treat
	// a failed joint as absent.
	Joint(i int) (*Joint, error)
}

// Assembly is an in-memory Source. It is built once and then only read.
type Assembly struct {
	Name        string             `json:"name"`
	Nodes       map[ID]*Occurrence `json:"nodes"`
	Roots       []ID               `json:"roots"`
	Joints      []*Joint           `json:"joints"`
	Author      string             `json:"author,omitempty"`
	Description string             `json:"description,omitempty"`
}

// Compile-time interface check.
var _ Source = (*Assembly)(nil)

// NewAssembly creates an empty assembly.
func NewAssembly(name string) *Assembly {
	return &Assembly{
		Name:  name,
		Nodes: make(map[ID]*Occurrence),
	}
}

// Add inserts an occurrence. A zero ID is derived from the parent ID and
// the name. The occurrence is appended to its parent's children, or to the
// roots when it has no parent.
func (a *Assembly) Add(o *Occurrence) error {
	if o.ID.IsZero() {
		o.ID = o.Parent.Child(o.Name)
	}
	if _, dup := a.Nodes[o.ID]; dup {
		return fmt.Errorf("scene: duplicate occurrence %q", o.ID)
	}
	if o.IsRoot() {
		a.Roots = append(a.Roots, o.ID)
	} else {
		p, ok := a.Nodes[o.Parent]
		if !ok {
			return fmt.Errorf("scene: occurrence %q: parent %q: %w", o.ID, o.Parent, ErrNotFound)
		}
		p.Children = append(p.Children, o.ID)
	}
	a.Nodes[o.ID] = o
	return nil
}

// MustAdd is Add for fixtures; it panics on error.
func (a *Assembly) MustAdd(o *Occurrence) *Occurrence {
	if err := a.Add(o); err != nil {
		panic(err)
	}
	return o
}

// AddJoint appends a raw joint.
func (a *Assembly) AddJoint(j *Joint) {
	a.Joints = append(a.Joints, j)
}

// Occurrences returns every occurrence depth-first from the roots.
func (a *Assembly) Occurrences() []*Occurrence {
	out := make([]*Occurrence, 0, len(a.Nodes))
	seen := make(map[ID]bool, len(a.Nodes))

	stack := make([]ID, 0, len(a.Roots))
	for i := len(a.Roots) - 1; i >= 0; i-- {
		stack = append(stack, a.Roots[i])
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		o, ok := a.Nodes[id]
		if !ok {
			continue
		}
		out = append(out, o)
		for i := len(o.Children) - 1; i >= 0; i-- {
			stack = append(stack, o.Children[i])
		}
	}
	return out
}

// Occurrence returns the occurrence with the given ID.
func (a *Assembly) Occurrence(id ID) (*Occurrence, error) {
	o, ok := a.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("scene: occurrence %q: %w", id, ErrNotFound)
	}
	return o, nil
}

// JointCount returns the number of joints.
func (a *Assembly) JointCount() int {
	return len(a.Joints)
}

// Joint returns the i-th joint.
func (a *Assembly) Joint(i int) (*Joint, error) {
	if i < 0 || i >= len(a.Joints) {
		return nil, fmt.Errorf("scene: joint %d: %w", i, ErrNotFound)
	}
	return a.Joints[i], nil
}

// Children returns the child occurrences of o.
func (a *Assembly) Children(o *Occurrence) []*Occurrence {
	children := make([]*Occurrence, 0, len(o.Children))
	for _, cid := range o.Children {
		if c := a.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of occurrences.
func (a *Assembly) NodeCount() int {
	return len(a.Nodes)
}
