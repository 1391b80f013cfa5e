package scene

import (
	"strings"

	"github.com/chazu/linkage/pkg/kernel"
	"github.com/chazu/linkage/pkg/xform"
)

// ID identifies an occurrence within one assembly. IDs are full paths
// ("arm:1/wrist:1") so they are unique even when component names repeat.
type ID string

// ZeroID is the parent of top-level occurrences.
const ZeroID ID = ""

// IsZero reports whether id is unset.
func (id ID) IsZero() bool {
	return id == ZeroID
}

// Short returns the last path segment.
func (id ID) Short() string {
	s := string(id)
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Child returns the ID of a child named name under id.
func (id ID) Child(name string) ID {
	if id.IsZero() {
		return ID(name)
	}
	return ID(string(id) + "/" + name)
}

// Body is one rigid body of an occurrence.
type Body struct {
	Name  string       `json:"name"`
	Solid kernel.Solid `json:"-"`
}

// Occurrence is an instance of a component placed in its parent's frame.
type Occurrence struct {
	ID       ID              `json:"id"`
	Name     string          `json:"name"`
	Parent   ID              `json:"parent,omitempty"` // lookup only
	Children []ID            `json:"children,omitempty"`
	Local    xform.Transform `json:"-"` // occurrence frame in parent frame
	Bodies   []Body          `json:"bodies,omitempty"`
	Grounded bool            `json:"grounded"`
	Visible  bool            `json:"visible"`

	// ComponentJoints is the number of joints defined inside this
	// occurrence's own component (a sub-assembly with internal motion).
	ComponentJoints int `json:"component_joints"`
}

// IsRoot reports whether the occurrence sits directly under the assembly.
func (o *Occurrence) IsRoot() bool {
	return o.Parent.IsZero()
}

// HasChildren reports whether the occurrence contains other occurrences.
func (o *Occurrence) HasChildren() bool {
	return len(o.Children) > 0
}

// Body returns the first body whose name contains substr
// (case-insensitive), or nil.
func (o *Occurrence) Body(substr string) *Body {
	substr = strings.ToLower(substr)
	for i := range o.Bodies {
		if strings.Contains(strings.ToLower(o.Bodies[i].Name), substr) {
			return &o.Bodies[i]
		}
	}
	return nil
}
