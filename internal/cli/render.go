package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gravitylab/gravita/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output        string // output base path (format extension is appended)
	configPath    string // path to gravita.toml
	formats       []string
	noCache       bool
	refresh       bool
	showGrid      bool // draw a reference grid in the SVG snapshot
	showAttractor bool // draw the attractor crosshair in the SVG snapshot
}

// renderCommand creates the render command for generating artifacts.
//
// Default settings:
//   - format: svg (scene snapshot)
//   - attractor crosshair: on
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr  string
		gravitation []string
	)
	opts := renderOpts{showAttractor: true}
	pipelineOpts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [scene.json]",
		Short: "Render a laid-out scene to SVG, DOT, or a containment graph",
		Long: `Render a laid-out scene.

Formats:
  svg    visual snapshot of the scene after the gravitation pass
  json   raw layout result
  dot    containment tree in Graphviz DOT text
  graph  containment tree rendered to SVG via Graphviz

Artifacts are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr, pipeline.FormatSVG)
			pipelineOpts.Gravitation = parseGravitation(gravitation)
			if err := applyConfigFile(&pipelineOpts, opts.configPath); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], opts, pipelineOpts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: input basename)")
	cmd.Flags().StringVarP(&formatsStr, "formats", "f", "", "comma-separated formats: svg (default), json, dot, graph")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to gravita.toml")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached artifacts")
	cmd.Flags().BoolVar(&opts.showGrid, "grid", false, "draw a reference grid (svg)")
	cmd.Flags().BoolVar(&opts.showAttractor, "attractor", opts.showAttractor, "draw the attractor crosshair (svg)")
	cmd.Flags().Float64Var(&pipelineOpts.K, "k", 0, "force-scaling constant (default 0.618)")
	cmd.Flags().Float64Var(&pipelineOpts.Density, "density", 0, "margin density divisor (default 10)")
	cmd.Flags().StringArrayVar(&gravitation, "gravitation", nil, "gravitation node as name:top:left (repeatable)")

	return cmd
}

// runRender executes the pipeline and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts, pipelineOpts pipeline.Options) error {
	runner := c.newRunner(opts.noCache)
	defer runner.Cache.Close()

	pipelineOpts.ScenePath = input
	pipelineOpts.Formats = opts.formats
	pipelineOpts.ShowGrid = opts.showGrid
	pipelineOpts.ShowAttractor = opts.showAttractor
	pipelineOpts.Refresh = opts.refresh
	pipelineOpts.Logger = c.Logger

	p := newProgress(c.Logger)
	res, err := runner.Execute(withLogger(ctx, c.Logger), pipelineOpts)
	if err != nil {
		printError("Render failed")
		return err
	}
	p.done(fmt.Sprintf("Rendered %d formats", len(opts.formats)))

	base := opts.output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	}

	printSuccess("Render complete")
	for _, format := range opts.formats {
		path := base + "." + extensionFor(format)
		if err := os.WriteFile(path, res.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(res.Stats.GroupCount, res.Stats.FailureCount, allHits(res.CacheInfo.ArtifactHits, opts.formats))

	return nil
}

// extensionFor maps a format to its file extension.
func extensionFor(format string) string {
	switch format {
	case pipeline.FormatGraph:
		return "graph.svg"
	default:
		return format
	}
}

// allHits reports whether every requested format came from the cache.
func allHits(hits map[string]bool, formats []string) bool {
	for _, f := range formats {
		if !hits[f] {
			return false
		}
	}
	return len(formats) > 0
}
