// Package pipeline runs a linkage conversion end to end.
//
// The pipeline has four stages:
//
//  1. Evaluate: run the assembly program and validate the scene
//  2. Build: assemble the kinematic tree
//  3. Meshes: tessellate every link into the mesh directory
//  4. Write: emit one robot description per configured format
//
// Build and the stages before it can be run on their own for inspection:
//
//	runner := pipeline.NewRunner(logger)
//	res, err := runner.Build(ctx, pipeline.Options{Config: cfg, Source: src})
//
// Execute runs all four and writes into <output.dir>/<robot>/.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/chazu/linkage/pkg/config"
	"github.com/chazu/linkage/pkg/diag"
	"github.com/chazu/linkage/pkg/engine"
	"github.com/chazu/linkage/pkg/kernel"
	"github.com/chazu/linkage/pkg/kernel/manifold"
	"github.com/chazu/linkage/pkg/kernel/sdfx"
	"github.com/chazu/linkage/pkg/kinematic"
	"github.com/chazu/linkage/pkg/scene"
)

// DefaultRobotName is used when neither the configuration nor the assembly
// provides a usable name.
const DefaultRobotName = "robot"

// Options configures a run.
type Options struct {
	Config config.Config
	// Source is the assembly program text.
	Source string
	// Kernel evaluates and tessellates geometry. Nil selects the configured
	// kernel.
	Kernel kernel.Kernel
	// SkipMeshes writes descriptions without mesh files.
	SkipMeshes bool
}

// Stats records what a run produced and how long each stage took.
type Stats struct {
	EvalTime  time.Duration
	BuildTime time.Duration
	MeshTime  time.Duration
	WriteTime time.Duration

	Links    int
	Joints   int
	Floating int
	Filtered int
	Meshes   int
}

// Result is the outcome of a run. Fields are filled as far as the run got,
// so a failed Execute still returns the tree it built.
type Result struct {
	Assembly *scene.Assembly
	Tree     *kinematic.Tree
	// Report collects scene, tree, export and format diagnostics.
	Report diag.Report
	// OutDir is the robot directory descriptions were written to.
	OutDir string
	Files  []string
	Stats  Stats
}

// EvalError is returned when the assembly program does not evaluate.
type EvalError struct {
	Errors []engine.EvalError
}

func (e *EvalError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return "program error: " + strings.Join(msgs, "; ")
}

// RobotName returns the name of the exported model: the configured name,
// or else the first word of the assembly name.
func RobotName(cfg config.Config, a *scene.Assembly) string {
	if name := strings.TrimSpace(cfg.Robot.Name); name != "" {
		return kinematic.SanitizeName(name)
	}
	if a != nil {
		if words := strings.Fields(a.Name); len(words) > 0 {
			return kinematic.SanitizeName(words[0])
		}
	}
	return DefaultRobotName
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (r *Result) count() {
	t := r.Tree
	if t == nil {
		return
	}
	r.Stats.Links = len(t.Links)
	r.Stats.Joints = len(t.Joints)
	r.Stats.Floating = len(t.Floating())
	for _, d := range t.Filtered {
		if !d.Kept {
			r.Stats.Filtered++
		}
	}
}

func validateOptions(opts *Options) error {
	if err := opts.Config.Validate(); err != nil {
		return err
	}
	if _, err := opts.Config.Formats(); err != nil {
		return err
	}
	return nil
}

func wrapStage(stage string, err error) error {
	return fmt.Errorf("%s: %w", stage, err)
}

// NewKernel returns the geometry kernel named by cfg.Engine.Kernel.
func NewKernel(cfg config.Config) (kernel.Kernel, error) {
	switch cfg.Engine.Kernel {
	case "", "sdfx":
		return sdfx.NewWithCells(cfg.Output.MeshResolution), nil
	case "manifold":
		return manifold.New()
	}
	return nil, fmt.Errorf("unknown kernel %q", cfg.Engine.Kernel)
}

func (o *Options) kernel() (kernel.Kernel, error) {
	if o.Kernel != nil {
		return o.Kernel, nil
	}
	k, err := NewKernel(o.Config)
	if err != nil {
		return nil, fmt.Errorf("kernel: %w", err)
	}
	return k, nil
}
