// Package cli implements the gravita command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/gravitylab/gravita/pkg/buildinfo"
	"github.com/gravitylab/gravita/pkg/cache"
	"github.com/gravitylab/gravita/pkg/config"
	"github.com/gravitylab/gravita/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "gravita"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
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
		Use:          "gravita",
		Short:        "Gravita lays out scenes with gravity-inspired spacing",
		Long:         `Gravita is a layout engine that spaces and aligns sibling elements by pulling them toward a configured gravitation node, deriving margins and alignment from element size instead of hand-tuned values.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) *pipeline.Runner {
	return pipeline.NewRunner(newCache(noCache), nil, c.Logger)
}

func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/gravita/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// applyConfigFile layers a TOML configuration file under any flag-set
// values: flags win, then the file, then built-in defaults.
func applyConfigFile(opts *pipeline.Options, path string) error {
	if path == "" {
		return nil
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if opts.K == 0 {
		opts.K = cfg.K
	}
	if opts.Density == 0 {
		opts.Density = cfg.Density
	}
	if len(opts.Gravitation) == 0 {
		opts.Gravitation = cfg.Gravitation
	}
	return nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s, fallback string) []string {
	if s == "" {
		return []string{fallback}
	}
	return strings.Split(s, ",")
}

// parseGravitation parses repeated name:top:left flags into gravitation
// nodes, e.g. "core:50%:50%".
func parseGravitation(specs []string) []config.GravitationNode {
	var nodes []config.GravitationNode
	for _, s := range specs {
		parts := strings.SplitN(s, ":", 3)
		if len(parts) != 3 {
			continue
		}
		nodes = append(nodes, config.GravitationNode{
			Name: parts[0],
			Top:  parts[1],
			Left: parts[2],
		})
	}
	return nodes
}
