// Package config loads the linkage TOML configuration.
//
// A configuration file has six sections:
//
//	[robot]       name, author, description
//	[output]      formats, dir, mesh_dir, obj_links, mesh_resolution,
//	              attempts, simulator, fail_fast
//	[filter]      enabled, threshold, unit
//	[convention]  scale, up_axis
//	[tree]        disconnected
//	[engine]      kernel, timeout
//
// Missing keys keep their defaults. Unknown keys are reported as warnings,
// not errors.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/chazu/linkage/pkg/format"
	"github.com/chazu/linkage/pkg/kinematic"
	"github.com/chazu/linkage/pkg/xform"
)

// Config is the full run configuration.
type Config struct {
	Robot      Robot      `toml:"robot"`
	Output     Output     `toml:"output"`
	Filter     Filter     `toml:"filter"`
	Convention Convention `toml:"convention"`
	Tree       Tree       `toml:"tree"`
	Engine     Engine     `toml:"engine"`
}

// Robot names the exported model. An empty name is taken from the first
// word of the assembly name.
type Robot struct {
	Name        string `toml:"name" validate:"omitempty,excludesall=/\\"`
	Author      string `toml:"author"`
	Description string `toml:"description"`
}

// Output controls what is written and where.
type Output struct {
	Formats  []string `toml:"formats" validate:"min=1,dive,oneof=urdf sdf mjcf"`
	Dir      string   `toml:"dir" validate:"required"`
	MeshDir  string   `toml:"mesh_dir" validate:"required"`
	OBJLinks []string `toml:"obj_links"`
	// MeshResolution is the number of marching cubes cells along the
	// longest axis of a body; 0 selects the kernel default.
	MeshResolution int    `toml:"mesh_resolution" validate:"gte=0,lte=2000"`
	Attempts       int    `toml:"attempts" validate:"gte=1,lte=10"`
	Simulator      string `toml:"simulator" validate:"omitempty,oneof=gazebo pybullet mujoco"`
	FailFast       bool   `toml:"fail_fast"`
}

// Filter configures the small part filter.
type Filter struct {
	Enabled   bool    `toml:"enabled"`
	Threshold float64 `toml:"threshold" validate:"gte=0"`
	Unit      string  `toml:"unit" validate:"oneof=mm cm m"`
}

// Convention is the target coordinate convention.
type Convention struct {
	Scale  float64 `toml:"scale" validate:"gt=0"`
	UpAxis string  `toml:"up_axis" validate:"oneof=y z"`
}

// Tree configures tree assembly.
type Tree struct {
	Disconnected string `toml:"disconnected" validate:"oneof=float reject"`
}

// Engine configures DSL evaluation. Kernel selects the geometry backend;
// "manifold" needs a binary built with -tags=manifold.
type Engine struct {
	Kernel  string `toml:"kernel" validate:"oneof=sdfx manifold"`
	Timeout string `toml:"timeout" validate:"required"`
}

// Default returns the configuration used when no file is given: URDF for
// no particular simulator, filtering off with a 5 mm threshold, meters
// Z-up, floating disconnected links.
func Default() Config {
	return Config{
		Output: Output{
			Formats:  []string{string(format.URDF)},
			Dir:      ".",
			MeshDir:  "meshes",
			Attempts: 3,
		},
		Filter: Filter{
			Threshold: kinematic.DefaultThreshold,
			Unit:      string(kinematic.Millimeters),
		},
		Convention: Convention{Scale: 0.01, UpAxis: "z"},
		Tree:       Tree{Disconnected: string(kinematic.DisconnectedFloat)},
		Engine:     Engine{Kernel: "sdfx", Timeout: "5s"},
	}
}

// Load reads the file at path over the defaults and validates the result.
// Keys the configuration does not know are returned as warnings.
func Load(path string) (Config, []string, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("config: %w", err)
	}
	return finish(cfg, md)
}

// Parse is Load for configuration text.
func Parse(data string) (Config, []string, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return cfg, nil, fmt.Errorf("config: %w", err)
	}
	return finish(cfg, md)
}

func finish(cfg Config, md toml.MetaData) (Config, []string, error) {
	var warnings []string
	for _, key := range md.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("unknown key %q", key.String()))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, warnings, err
	}
	return cfg, warnings, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		// Report TOML key names in error messages.
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks every value and the combinations between them.
func (c Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("config: %w", err)
		}
		for _, e := range verrs {
			errs = append(errs, fmt.Errorf(
				"config: key=%q, value=\"%v\", failed %q validation",
				strings.TrimPrefix(e.Namespace(), "Config."), e.Value(), e.ActualTag(),
			))
		}
	}
	if _, err := time.ParseDuration(c.Engine.Timeout); c.Engine.Timeout != "" && err != nil {
		errs = append(errs, fmt.Errorf("config: engine.timeout: %w", err))
	}
	if formats, err := c.Formats(); err == nil {
		for _, f := range formats {
			if err := format.CheckSimulator(f, c.Simulator()); err != nil {
				errs = append(errs, fmt.Errorf("config: output: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

// Formats returns the configured output formats, without duplicates.
func (c Config) Formats() ([]format.Format, error) {
	var out []format.Format
	seen := make(map[format.Format]bool)
	for _, s := range c.Output.Formats {
		f, err := format.ParseFormat(s)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// Simulator returns the configured simulation environment.
func (c Config) Simulator() format.Simulator {
	return format.Simulator(c.Output.Simulator)
}

// Timeout returns the DSL evaluation timeout, or zero when unset.
func (c Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.Engine.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// KinematicOptions converts the configuration into kinematic build options.
func (c Config) KinematicOptions() (kinematic.Options, error) {
	conv, err := xform.NewConvention(c.Convention.Scale, c.Convention.UpAxis)
	if err != nil {
		return kinematic.Options{}, fmt.Errorf("config: %w", err)
	}
	opts := kinematic.Options{
		Filter: kinematic.FilterOptions{
			Enabled:   c.Filter.Enabled,
			Threshold: c.Filter.Threshold,
			Unit:      kinematic.Unit(c.Filter.Unit),
		},
		Convention:   conv,
		OBJLinks:     append([]string(nil), c.Output.OBJLinks...),
		Disconnected: kinematic.DisconnectedPolicy(c.Tree.Disconnected),
	}
	if err := opts.Validate(); err != nil {
		return kinematic.Options{}, fmt.Errorf("config: %w", err)
	}
	return opts, nil
}
