package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/chazu/linkage/pkg/config"
	"github.com/chazu/linkage/pkg/pipeline"
)

// overrides holds flags that replace configuration values. Only flags the
// user actually set are applied.
type overrides struct {
	name       string
	out        string
	formats    string
	simulator  string
	objLinks   []string
	filter     bool
	threshold  float64
	unit       string
	resolution int
	failFast   bool
	reject     bool
}

func (o *overrides) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.name, "name", "", "robot name (default: first word of the assembly name)")
	fs.StringVarP(&o.out, "out", "o", "", "output directory; the robot is written to <out>/<name>/")
	fs.StringVarP(&o.formats, "format", "f", "", "output format(s): urdf, sdf, mjcf (comma-separated)")
	fs.StringVar(&o.simulator, "simulator", "", "target simulator: gazebo, pybullet, mujoco")
	fs.StringSliceVar(&o.objLinks, "obj", nil, "links to export as OBJ instead of STL")
	fs.BoolVar(&o.filter, "filter", false, "drop small parts")
	fs.Float64Var(&o.threshold, "threshold", 0, "small part threshold (bounding box diagonal)")
	fs.StringVar(&o.unit, "unit", "", "threshold unit: mm, cm, m")
	fs.IntVar(&o.resolution, "resolution", 0, "marching cubes cells along the longest body axis")
	fs.BoolVar(&o.failFast, "fail-fast", false, "stop at the first mesh that cannot be written")
	fs.BoolVar(&o.reject, "reject-disconnected", false, "fail when a link is not connected to the root")
}

func (o *overrides) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	if fs.Changed("name") {
		cfg.Robot.Name = o.name
	}
	if fs.Changed("out") {
		cfg.Output.Dir = o.out
	}
	if fs.Changed("format") {
		cfg.Output.Formats = splitList(o.formats)
	}
	if fs.Changed("simulator") {
		cfg.Output.Simulator = o.simulator
	}
	if fs.Changed("obj") {
		cfg.Output.OBJLinks = o.objLinks
	}
	if fs.Changed("filter") {
		cfg.Filter.Enabled = o.filter
	}
	if fs.Changed("threshold") {
		cfg.Filter.Threshold = o.threshold
	}
	if fs.Changed("unit") {
		cfg.Filter.Unit = o.unit
	}
	if fs.Changed("resolution") {
		cfg.Output.MeshResolution = o.resolution
	}
	if fs.Changed("fail-fast") {
		cfg.Output.FailFast = o.failFast
	}
	if fs.Changed("reject-disconnected") && o.reject {
		cfg.Tree.Disconnected = "reject"
	}
	return cfg.Validate()
}

// exportCommand converts a program into a robot directory.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		configPath string
		noMeshes   bool
		ov         overrides
	)
	cmd := &cobra.Command{
		Use:   "export <program.lisp>",
		Short: "Export an assembly as a robot description with meshes",
		Long: `Export evaluates the assembly program and writes <out>/<robot>/ containing
one description per format, model.config for SDFormat, a PyBullet loader
when the simulator is pybullet, and one mesh per link under mesh_dir.

Use "-" to read the program from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(configPath)
			if err != nil {
				return err
			}
			if err := ov.apply(cmd.Flags(), &cfg); err != nil {
				return err
			}
			src, err := readSource(cmd, args[0])
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			res, err := c.newRunner().Execute(cmd.Context(), pipeline.Options{
				Config:     cfg,
				Source:     src,
				SkipMeshes: noMeshes,
			})
			if err != nil {
				return err
			}
			for _, f := range res.Files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			prog.done(fmt.Sprintf("Exported %s: %d links, %d joints, %d files",
				res.Tree.Name, res.Stats.Links, res.Stats.Joints, len(res.Files)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (TOML)")
	cmd.Flags().BoolVar(&noMeshes, "no-meshes", false, "write descriptions only")
	ov.register(cmd.Flags())
	return cmd
}
