package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chazu/linkage/pkg/diag"
	"github.com/chazu/linkage/pkg/engine"
	"github.com/chazu/linkage/pkg/format"
	"github.com/chazu/linkage/pkg/kinematic"
	"github.com/chazu/linkage/pkg/meshexport"
	"github.com/chazu/linkage/pkg/scene"
)

// Runner executes pipeline stages. It keeps no state between runs, so one
// Runner may serve concurrent runs with different options.
type Runner struct {
	Logger *log.Logger
}

// NewRunner creates a runner. A nil logger selects log.Default().
func NewRunner(logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Logger: logger}
}

// Evaluate runs the assembly program and validates the resulting scene.
// Validation findings go into the returned report; they never fail the run.
func (r *Runner) Evaluate(ctx context.Context, opts Options) (*scene.Assembly, diag.Report, error) {
	var report diag.Report
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}
	k, err := opts.kernel()
	if err != nil {
		return nil, report, err
	}
	a, evalErrs, err := engine.NewEngine(k).WithTimeout(opts.Config.Timeout()).Evaluate(opts.Source)
	if err != nil {
		return nil, report, err
	}
	if len(evalErrs) > 0 {
		return nil, report, &EvalError{Errors: evalErrs}
	}
	for _, d := range scene.Validate(a) {
		report.Add(d)
	}
	return a, report, nil
}

// Build evaluates the program and assembles the kinematic tree, named after
// the robot.
func (r *Runner) Build(ctx context.Context, opts Options) (*Result, error) {
	if err := validateOptions(&opts); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	k, err := opts.kernel()
	if err != nil {
		return nil, err
	}
	opts.Kernel = k
	res := &Result{}

	start := time.Now()
	a, report, err := r.Evaluate(ctx, opts)
	res.Stats.EvalTime = time.Since(start)
	if err != nil {
		return res, wrapStage("evaluate", err)
	}
	res.Assembly = a
	res.Report.Merge(report)
	r.Logger.Info("evaluated assembly",
		"name", a.Name,
		"occurrences", a.NodeCount(),
		"joints", a.JointCount(),
		"duration", res.Stats.EvalTime)

	kopts, err := opts.Config.KinematicOptions()
	if err != nil {
		return res, fmt.Errorf("invalid options: %w", err)
	}
	start = time.Now()
	tree, err := kinematic.Build(a, kopts)
	res.Stats.BuildTime = time.Since(start)
	if tree != nil {
		tree.Name = RobotName(opts.Config, a)
		res.Tree = tree
		res.Report.Merge(tree.Report)
		res.count()
	}
	if err != nil {
		r.logReport(res.Report)
		return res, wrapStage("build", err)
	}
	r.Logger.Info("built kinematic tree",
		"robot", tree.Name,
		"links", res.Stats.Links,
		"joints", res.Stats.Joints,
		"floating", res.Stats.Floating,
		"filtered", res.Stats.Filtered,
		"duration", res.Stats.BuildTime)
	return res, nil
}

// Execute runs the whole pipeline and writes the robot directory.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	k, err := opts.kernel()
	if err != nil {
		return nil, err
	}
	opts.Kernel = k
	res, err := r.Build(ctx, opts)
	if err != nil {
		return res, err
	}
	cfg := opts.Config
	tree := res.Tree
	res.OutDir = filepath.Join(cfg.Output.Dir, tree.Name)

	if !opts.SkipMeshes {
		kopts, _ := cfg.KinematicOptions()
		meshDir := filepath.Join(res.OutDir, cfg.Output.MeshDir)
		x := meshexport.New(opts.Kernel, kopts.Convention, meshDir).WithAttempts(cfg.Output.Attempts)

		start := time.Now()
		mres, err := x.Export(ctx, tree, cfg.Output.FailFast)
		res.Stats.MeshTime = time.Since(start)
		if mres != nil {
			res.Files = append(res.Files, mres.Files...)
			res.Report.Merge(mres.Report)
			res.Stats.Meshes = len(mres.Files)
		}
		if err != nil {
			r.logReport(res.Report)
			return res, wrapStage("meshes", err)
		}
		r.Logger.Info("exported meshes",
			"files", res.Stats.Meshes,
			"dir", meshDir,
			"duration", res.Stats.MeshTime)
	}

	formats, _ := cfg.Formats()
	doc := format.Document{
		Tree: tree,
		Meta: format.Meta{
			Name:        tree.Name,
			Author:      firstNonEmpty(cfg.Robot.Author, res.Assembly.Author),
			Description: firstNonEmpty(cfg.Robot.Description, res.Assembly.Description),
			MeshDir:     cfg.Output.MeshDir,
		},
	}
	start := time.Now()
	for _, f := range formats {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := format.CheckSimulator(f, cfg.Simulator()); err != nil {
			return res, wrapStage("write", err)
		}
		for _, d := range format.Downgrades(f, tree) {
			res.Report.Add(d)
		}
		files, err := format.WriteFiles(res.OutDir, f, doc)
		res.Files = append(res.Files, files...)
		if err != nil {
			return res, wrapStage("write", err)
		}
		r.Logger.Debug("wrote description", "format", f, "files", files)
	}
	if cfg.Simulator() == format.SimPyBullet {
		file, err := r.writeScript(res.OutDir, formats, tree.Name)
		if err != nil {
			return res, wrapStage("write", err)
		}
		if file != "" {
			res.Files = append(res.Files, file)
		}
	}
	res.Stats.WriteTime = time.Since(start)
	r.Logger.Info("wrote descriptions",
		"formats", formats,
		"dir", res.OutDir,
		"duration", res.Stats.WriteTime)

	r.logReport(res.Report)
	return res, nil
}

// writeScript writes the PyBullet loader for the first format PyBullet can
// load.
func (r *Runner) writeScript(dir string, formats []format.Format, robot string) (string, error) {
	for _, f := range formats {
		if f == format.MJCF {
			continue
		}
		return format.WritePyBulletFile(dir, f, f.FileName(robot))
	}
	return "", nil
}

// logReport logs every diagnostic at the level its severity maps to.
func (r *Runner) logReport(report diag.Report) {
	for _, d := range report.Items {
		kv := []any{"component", d.Component, "subject", d.Subject, "condition", d.Condition}
		switch d.Severity {
		case diag.SeverityError:
			r.Logger.Error(d.Message, kv...)
		case diag.SeverityWarning:
			r.Logger.Warn(d.Message, kv...)
		default:
			r.Logger.Debug(d.Message, kv...)
		}
	}
	if report.Len() > 0 {
		r.Logger.Info("diagnostics", "summary", report.Summary())
	}
}
