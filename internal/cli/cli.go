// Package cli implements the linkage command-line interface.
//
// # Commands
//
//   - export: convert an assembly program into a robot description
//   - inspect: print the kinematic tree and its diagnostics
//   - graph: draw the kinematic tree as DOT or SVG
//   - config: print the default configuration
//
// All commands accept --verbose (-v) for debug-level logging.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chazu/linkage/pkg/config"
	"github.com/chazu/linkage/pkg/pipeline"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// version is set by SetVersion from build flags.
var version = "dev"

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a CLI that logs to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "linkage",
		Short:        "Linkage converts CAD assemblies into robot descriptions",
		Long:         `Linkage evaluates an assembly program, derives the kinematic tree from its joints, and writes URDF, SDFormat or MJCF with one mesh per link.`,
		Version:      version,
		SilenceUsage: true,
	}

	root.AddCommand(c.exportCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.configCommand())
	return root
}

func (c *CLI) newRunner() *pipeline.Runner {
	return pipeline.NewRunner(c.Logger)
}

// loadConfig reads the configuration file at path, or the defaults when
// path is empty. Unknown keys are logged, not rejected.
func (c *CLI) loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, warnings, err := config.Load(path)
	for _, w := range warnings {
		c.Logger.Warn(w, "file", path)
	}
	return cfg, err
}

// readSource reads an assembly program from path, or from stdin for "-".
func readSource(cmd *cobra.Command, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read program: %w", err)
	}
	return string(data), nil
}

// splitList parses a comma-separated flag value.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
