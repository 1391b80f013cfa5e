package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/linkage/pkg/diag"
	"github.com/chazu/linkage/pkg/kinematic"
	"github.com/chazu/linkage/pkg/pipeline"
)

// inspectCommand builds the tree without writing anything and prints it.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		configPath string
		ov         overrides
	)
	cmd := &cobra.Command{
		Use:   "inspect <program.lisp>",
		Short: "Print the kinematic tree and diagnostics of an assembly",
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
			if res != nil && res.Tree != nil {
				printTree(cmd.OutOrStdout(), res.Tree, res.Report)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (TOML)")
	ov.register(cmd.Flags())
	return cmd
}

func printTree(w io.Writer, t *kinematic.Tree, report diag.Report) {
	fmt.Fprintf(w, "%s  %d links, %d joints\n", styleTitle.Render(t.Name), len(t.Links), len(t.Joints))

	width := 0
	for _, l := range t.Links {
		width = max(width, len(l.Name))
	}
	for _, j := range t.Joints {
		width = max(width, len(j.Name))
	}

	floating := make(map[string]bool)
	for _, l := range t.Floating() {
		floating[l.Name] = true
	}
	fmt.Fprintln(w, "\n"+styleHeading.Render("Links"))
	for i, l := range t.Links {
		var tags []string
		if i == 0 {
			tags = append(tags, "root")
		}
		if l.Grounded {
			tags = append(tags, "grounded")
		}
		if floating[l.Name] {
			tags = append(tags, "floating")
		}
		if l.HasVisualPair() {
			tags = append(tags, "visual+collision")
		}
		fmt.Fprintf(w, "  %-*s  %s  %s\n", width, l.Name, l.Format, styleDim.Render(strings.Join(tags, " ")))
	}

	if len(t.Joints) > 0 {
		fmt.Fprintln(w, "\n"+styleHeading.Render("Joints"))
	}
	for _, j := range t.Joints {
		o := j.Origin
		fmt.Fprintf(w, "  %-*s  %-10s  %s -> %s  xyz %.4g %.4g %.4g  rpy %.4g %.4g %.4g  %s\n",
			width, j.Name, j.Kind, j.Parent, j.Child,
			o.XYZ[0], o.XYZ[1], o.XYZ[2], o.RPY[0], o.RPY[1], o.RPY[2],
			styleDim.Render("via "+j.Strategy.String()))
	}

	var removed []kinematic.FilterDecision
	for _, d := range t.Filtered {
		if !d.Kept {
			removed = append(removed, d)
		}
	}
	if len(removed) > 0 {
		fmt.Fprintln(w, "\n"+styleHeading.Render("Filtered"))
		for _, d := range removed {
			fmt.Fprintf(w, "  %s  %s\n", d.Link, styleDim.Render(d.Reason))
		}
	}

	fmt.Fprintln(w, "\n"+styleHeading.Render("Diagnostics"))
	for _, d := range report.Items {
		fmt.Fprintf(w, "  %s\n", severityStyle(d.Severity).Render(d.Error()))
	}
	fmt.Fprintf(w, "  summary: %s\n", report.Summary())
}
