package pipeline

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/chazu/linkage/pkg/config"
	"github.com/chazu/linkage/pkg/diag"
	"github.com/chazu/linkage/pkg/kinematic"
	"github.com/chazu/linkage/pkg/scene"
)

const roverProgram = `
(assembly "Rover Mk2" :author "chazu" :description "test rig")
(def base (part "base" (box 40 4 40) :grounded true))
(def arm (part "arm" (box 4 20 4) :at (vec3 0 12 0)))
(def hand (part "hand" (box 4 4 4) :at (vec3 0 24 0)))
(revolute "shoulder" :parent base :child arm
          :origin (vec3 0 2 0) :axis (vec3 0 1 0) :limits (list -90 90))
(ball "wrist" :parent arm :child hand :origin (vec3 0 22 0))
`

func quietRunner() *Runner {
	return NewRunner(log.New(io.Discard))
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	cfg.Output.MeshResolution = 24
	return cfg
}

func TestRobotName(t *testing.T) {
	tests := []struct {
		name     string
		cfgName  string
		assembly *scene.Assembly
		want     string
	}{
		{"configured", "rover", scene.NewAssembly("Other Thing"), "rover"},
		{"configured is sanitized", "my rover", nil, "my_rover"},
		{"first word of assembly", "", scene.NewAssembly("Rover Mk2"), "Rover"},
		{"blank assembly name", "", scene.NewAssembly("  "), DefaultRobotName},
		{"no assembly", "", nil, DefaultRobotName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Robot.Name = tt.cfgName
			if got := RobotName(cfg, tt.assembly); got != tt.want {
				t.Errorf("RobotName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	res, err := quietRunner().Build(context.Background(), Options{
		Config: testConfig(t),
		Source: roverProgram,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Tree.Name != "Rover" {
		t.Errorf("tree name = %q, want Rover", res.Tree.Name)
	}
	var links []string
	for _, l := range res.Tree.Links {
		links = append(links, l.Name)
	}
	if diff := cmp.Diff([]string{"base", "arm", "hand"}, links); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}
	if res.Stats.Links != 3 || res.Stats.Joints != 2 || res.Stats.Floating != 0 {
		t.Errorf("stats = %+v", res.Stats)
	}
	if res.OutDir != "" || len(res.Files) != 0 {
		t.Errorf("Build should not write files, got %q %v", res.OutDir, res.Files)
	}
}

func TestExecute(t *testing.T) {
	cfg := testConfig(t)
	cfg.Robot.Name = "rover"
	cfg.Output.Formats = []string{"urdf", "sdf"}
	cfg.Output.Simulator = "pybullet"

	res, err := quietRunner().Execute(context.Background(), Options{Config: cfg, Source: roverProgram})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	robotDir := filepath.Join(cfg.Output.Dir, "rover")
	if res.OutDir != robotDir {
		t.Errorf("OutDir = %q, want %q", res.OutDir, robotDir)
	}

	want := []string{
		filepath.Join(robotDir, "meshes", "base.stl"),
		filepath.Join(robotDir, "meshes", "arm.stl"),
		filepath.Join(robotDir, "meshes", "hand.stl"),
		filepath.Join(robotDir, "rover.urdf"),
		filepath.Join(robotDir, "rover.sdf"),
		filepath.Join(robotDir, "model.config"),
		filepath.Join(robotDir, "hello_pybullet.py"),
	}
	if diff := cmp.Diff(want, res.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	for _, f := range want {
		info, err := os.Stat(f)
		if err != nil {
			t.Errorf("missing %s: %v", f, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", f)
		}
	}
	if res.Stats.Meshes != 3 {
		t.Errorf("meshes = %d, want 3", res.Stats.Meshes)
	}

	urdf, err := os.ReadFile(filepath.Join(robotDir, "rover.urdf"))
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{`<robot name="rover">`, `filename="meshes/arm.stl"`, `<joint name="shoulder" type="revolute">`} {
		if !strings.Contains(string(urdf), s) {
			t.Errorf("URDF missing %s", s)
		}
	}

	// The ball joint has no URDF equivalent; SDFormat keeps it.
	var downgraded []string
	for _, d := range res.Report.Filter(diag.Incomplete) {
		if d.Component == "format" {
			downgraded = append(downgraded, d.Subject)
		}
	}
	if diff := cmp.Diff([]string{"wrist"}, downgraded); diff != "" {
		t.Errorf("downgrades mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteSkipMeshes(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Formats = []string{"mjcf"}
	cfg.Output.Simulator = "mujoco"

	res, err := quietRunner().Execute(context.Background(), Options{
		Config:     cfg,
		Source:     roverProgram,
		SkipMeshes: true,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []string{filepath.Join(cfg.Output.Dir, "Rover", "Rover.xml")}
	if diff := cmp.Diff(want, res.Files); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(cfg.Output.Dir, "Rover", "meshes")); !os.IsNotExist(err) {
		t.Errorf("mesh directory should not exist, stat err = %v", err)
	}
}

func TestExecuteProgramError(t *testing.T) {
	res, err := quietRunner().Execute(context.Background(), Options{
		Config: testConfig(t),
		Source: "(part \"a\" (box 1 1 1)",
	})
	var evalErr *EvalError
	if !errors.As(err, &evalErr) {
		t.Fatalf("err = %v, want *EvalError", err)
	}
	if len(evalErr.Errors) == 0 || !strings.HasPrefix(err.Error(), "evaluate: program error: ") {
		t.Errorf("unexpected error %q", err)
	}
	if res.Tree != nil {
		t.Error("no tree expected after a program error")
	}
}

func TestExecuteRejectsDisconnected(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tree.Disconnected = string(kinematic.DisconnectedReject)

	res, err := quietRunner().Execute(context.Background(), Options{
		Config: cfg,
		Source: roverProgram + `(part "wheel" (sphere 2) :at (vec3 50 0 0))`,
	})
	if !errors.Is(err, kinematic.ErrDisconnected) {
		t.Fatalf("err = %v, want ErrDisconnected", err)
	}
	if res == nil || res.Tree == nil {
		t.Fatal("the partial tree should be returned")
	}
	if got := res.Report.Filter(diag.Disconnected); len(got) != 1 || got[0].Subject != "wheel" {
		t.Errorf("disconnected diagnostics = %+v", got)
	}
	if _, statErr := os.Stat(filepath.Join(cfg.Output.Dir, "Rover")); !os.IsNotExist(statErr) {
		t.Error("nothing should be written for a rejected tree")
	}
}

func TestExecuteInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Formats = []string{"sdf"}
	cfg.Output.Simulator = "mujoco"

	_, err := quietRunner().Execute(context.Background(), Options{Config: cfg, Source: roverProgram})
	if err == nil || !strings.Contains(err.Error(), "invalid options") {
		t.Fatalf("err = %v, want invalid options", err)
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := quietRunner().Execute(ctx, Options{Config: testConfig(t), Source: roverProgram})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestNewKernel(t *testing.T) {
	cfg := config.Default()
	if k, err := NewKernel(cfg); err != nil || k == nil {
		t.Fatalf("NewKernel(sdfx) = %v, %v", k, err)
	}
	cfg.Engine.Kernel = "occt"
	if _, err := NewKernel(cfg); err == nil {
		t.Error("expected an error for an unknown kernel")
	}
}
