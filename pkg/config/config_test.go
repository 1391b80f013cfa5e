package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/linkage/pkg/format"
	"github.com/chazu/linkage/pkg/kinematic"
	"github.com/chazu/linkage/pkg/xform"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Timeout() != 5*time.Second {
		t.Errorf("timeout = %s", cfg.Timeout())
	}

	opts, err := cfg.KinematicOptions()
	if err != nil {
		t.Fatal(err)
	}
	want := kinematic.DefaultOptions()
	if opts.Filter != want.Filter || opts.Disconnected != want.Disconnected {
		t.Errorf("options = %+v, want %+v", opts, want)
	}
	if !xform.ApproxEqual(opts.Convention.Basis, xform.YUpToZUp, 1e-12) || opts.Convention.Scale != 0.01 {
		t.Errorf("convention = %+v", opts.Convention)
	}
}

const fullConfig = `
[robot]
name = "rover"
author = "chazu"
description = "six wheels"

[output]
formats = ["urdf", "sdf", "urdf"]
dir = "out"
mesh_dir = "meshes"
obj_links = ["arm_1"]
mesh_resolution = 120
attempts = 5
simulator = "gazebo"
fail_fast = true

[filter]
enabled = true
threshold = 1.5
unit = "cm"

[convention]
scale = 0.001
up_axis = "y"

[tree]
disconnected = "reject"

[engine]
kernel = "manifold"
timeout = "250ms"
`

func TestParseFull(t *testing.T) {
	cfg, warnings, err := Parse(fullConfig)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}

	formats, err := cfg.Formats()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]format.Format{format.URDF, format.SDF}, formats); diff != "" {
		t.Errorf("formats mismatch (-want +got):\n%s", diff)
	}
	if cfg.Simulator() != format.SimGazebo || !cfg.Output.FailFast || cfg.Output.Attempts != 5 {
		t.Errorf("output = %+v", cfg.Output)
	}
	if cfg.Engine.Kernel != "manifold" {
		t.Errorf("kernel = %q", cfg.Engine.Kernel)
	}
	if cfg.Timeout() != 250*time.Millisecond {
		t.Errorf("timeout = %s", cfg.Timeout())
	}

	opts, err := cfg.KinematicOptions()
	if err != nil {
		t.Fatal(err)
	}
	wantFilter := kinematic.FilterOptions{Enabled: true, Threshold: 1.5, Unit: kinematic.Centimeters}
	if opts.Filter != wantFilter {
		t.Errorf("filter = %+v, want %+v", opts.Filter, wantFilter)
	}
	if opts.Disconnected != kinematic.DisconnectedReject {
		t.Errorf("disconnected = %q", opts.Disconnected)
	}
	if opts.Convention.Scale != 0.001 || !opts.Convention.Basis.IsIdentity(1e-12) {
		t.Errorf("convention = %+v", opts.Convention)
	}
	if diff := cmp.Diff([]string{"arm_1"}, opts.OBJLinks); diff != "" {
		t.Errorf("obj links mismatch (-want +got):\n%s", diff)
	}
}

func TestPartialKeepsDefaults(t *testing.T) {
	cfg, _, err := Parse("[filter]\nenabled = true\n")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Filter.Enabled || cfg.Filter.Threshold != kinematic.DefaultThreshold || cfg.Filter.Unit != "mm" {
		t.Errorf("filter = %+v", cfg.Filter)
	}
	if cfg.Output.MeshDir != "meshes" || cfg.Convention.UpAxis != "z" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestUnknownKeysWarn(t *testing.T) {
	_, warnings, err := Parse("[robot]\nname = \"r\"\ncolour = \"red\"\n[physics]\ngravity = 9.8\n")
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(warnings, "\n")
	for _, key := range []string{"robot.colour", "physics.gravity"} {
		if !strings.Contains(joined, key) {
			t.Errorf("warnings %v do not mention %s", warnings, key)
		}
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantKey string
	}{
		{"bad unit", "[filter]\nunit = \"inch\"", "filter.unit"},
		{"negative threshold", "[filter]\nthreshold = -1.0", "filter.threshold"},
		{"zero scale", "[convention]\nscale = 0.0", "convention.scale"},
		{"bad up axis", "[convention]\nup_axis = \"x\"", "convention.up_axis"},
		{"bad policy", "[tree]\ndisconnected = \"drop\"", "tree.disconnected"},
		{"bad format", "[output]\nformats = [\"step\"]", "output.formats[0]"},
		{"no formats", "[output]\nformats = []", "output.formats"},
		{"empty dir", "[output]\ndir = \"\"", "output.dir"},
		{"too many attempts", "[output]\nattempts = 50", "output.attempts"},
		{"bad simulator", "[output]\nsimulator = \"webots\"", "output.simulator"},
		{"slash in name", "[robot]\nname = \"a/b\"", "robot.name"},
		{"bad timeout", "[engine]\ntimeout = \"soon\"", "engine.timeout"},
		{"bad kernel", "[engine]\nkernel = \"occt\"", "engine.kernel"},
		{"mjcf for gazebo", "[output]\nformats = [\"mjcf\"]\nsimulator = \"gazebo\"", "MJCF"},
		{"sdf for mujoco", "[output]\nformats = [\"sdf\"]\nsimulator = \"mujoco\"", "SDFormat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("error %q does not mention %q", err, tt.wantKey)
			}
		})
	}
}

func TestSyntaxError(t *testing.T) {
	if _, _, err := Parse("[robot\nname ="); err == nil {
		t.Fatal("expected TOML syntax error")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkage.toml")
	if err := os.WriteFile(path, []byte(fullConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, _, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Robot.Name != "rover" || cfg.Robot.Author != "chazu" {
		t.Errorf("robot = %+v", cfg.Robot)
	}

	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for a missing file")
	}
}
