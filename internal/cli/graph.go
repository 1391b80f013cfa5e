package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/linkage/pkg/pipeline"
	"github.com/chazu/linkage/pkg/render"
)

type graphOpts struct {
	output   string
	svg      bool
	detailed bool
	filtered bool
}

// graphCommand draws the kinematic tree.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		configPath string
		opts       graphOpts
		ov         overrides
	)
	cmd := &cobra.Command{
		Use:   "graph <program.lisp>",
		Short: "Draw the kinematic tree as Graphviz DOT or SVG",
		Args:  cobra.ExactArgs(1),
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
			res, err := c.newRunner().Build(cmd.Context(), pipeline.Options{Config: cfg, Source: src})
			if err != nil {
				return err
			}

			out := []byte(render.ToDOT(res.Tree, render.Options{Detailed: opts.detailed, Filtered: opts.filtered}))
			if opts.svg {
				if out, err = render.RenderSVG(cmd.Context(), string(out)); err != nil {
					return err
				}
			}
			if opts.output == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(opts.output, out, 0o644); err != nil {
				return fmt.Errorf("write graph: %w", err)
			}
			c.Logger.Info("wrote graph", "file", opts.output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (TOML)")
	cmd.Flags().StringVar(&opts.output, "to", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.svg, "svg", false, "render SVG instead of DOT")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label joints with origins and resolution strategies")
	cmd.Flags().BoolVar(&opts.filtered, "show-filtered", false, "include parts removed by the small part filter")
	ov.register(cmd.Flags())
	return cmd
}
