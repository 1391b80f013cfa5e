package kinematic

import (
	"errors"
	"fmt"

	"github.com/chazu/linkage/pkg/xform"
)

// ErrDisconnected is returned by Build when links are unreachable from the
// root and the policy is DisconnectedReject.
var ErrDisconnected = errors.New("kinematic: disconnected links")

// Unit is a length unit accepted for the filter threshold.
type Unit string

const (
	Millimeters Unit = "mm"
	Centimeters Unit = "cm"
	Meters      Unit = "m"
)

// ToCentimeters converts v in unit u to centimeters, the source length unit.
func ToCentimeters(v float64, u Unit) (float64, error) {
	switch u {
	case Millimeters:
		return v / 10, nil
	case Centimeters:
		return v, nil
	case Meters:
		return v * 100, nil
	}
	return 0, fmt.Errorf("kinematic: unknown unit %q", u)
}

// DefaultThreshold is the default small part size (5 mm diagonal).
const DefaultThreshold = 5.0

// FilterOptions configures the small part filter.
type FilterOptions struct {
	Enabled   bool
	Threshold float64
	Unit      Unit
}

// Active reports whether filtering applies. A zero or negative threshold
// disables it.
func (f FilterOptions) Active() bool {
	return f.Enabled && f.Threshold > 0
}

// DisconnectedPolicy says what to do with links that no joint path
// connects to the root.
type DisconnectedPolicy string

const (
	// DisconnectedFloat keeps them as parentless bodies with a warning.
	DisconnectedFloat DisconnectedPolicy = "float"
	// DisconnectedReject fails the build.
	DisconnectedReject DisconnectedPolicy = "reject"
)

// Options configures Build. It is passed explicitly; the package has no
// global settings.
type Options struct {
	Filter       FilterOptions
	Convention   xform.Convention
	OBJLinks     []string // link names exported as OBJ instead of STL
	Disconnected DisconnectedPolicy
}

// DefaultOptions returns filtering off, a 5 mm threshold, the default
// convention, and floating disconnected links.
func DefaultOptions() Options {
	return Options{
		Filter:       FilterOptions{Threshold: DefaultThreshold, Unit: Millimeters},
		Convention:   xform.DefaultConvention(),
		Disconnected: DisconnectedFloat,
	}
}

// Validate checks the options for values Build cannot work with.
func (o Options) Validate() error {
	if o.Filter.Active() {
		if _, err := ToCentimeters(o.Filter.Threshold, o.Filter.Unit); err != nil {
			return err
		}
	}
	if o.Convention.Scale <= 0 {
		return fmt.Errorf("kinematic: convention scale must be positive, got %g", o.Convention.Scale)
	}
	switch o.Disconnected {
	case DisconnectedFloat, DisconnectedReject, "":
	default:
		return fmt.Errorf("kinematic: unknown disconnected policy %q", o.Disconnected)
	}
	return nil
}
