package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gravitylab/gravita/pkg/dom"
	"github.com/gravitylab/gravita/pkg/pipeline"
)

// layoutCommand creates the layout command for running the gravitation pass.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output      string
		configPath  string
		noCache     bool
		exportScene bool
		gravitation []string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [scene.json]",
		Short: "Run the gravitation pass over a scene",
		Long: `Run the gravitation pass over a scene.

The layout command takes a scene.json file, discovers the gravitating
groups, and computes force-derived margins, container padding, and text
alignment for every group. The output is a layout result JSON with the
per-group metrics; --export-scene additionally writes the scene back out
with the computed styles applied.

Configuration is layered: flags override gravita.toml, which overrides
built-in defaults (k=0.618, density=10, one centered gravitation node).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Gravitation = parseGravitation(gravitation)
			if err := applyConfigFile(&opts, configPath); err != nil {
				return err
			}
			return c.runLayout(cmd.Context(), args[0], opts, output, noCache, exportScene)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&configPath, "config", "", "path to gravita.toml")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	// Layout flags
	cmd.Flags().Float64Var(&opts.K, "k", 0, "force-scaling constant (default 0.618)")
	cmd.Flags().Float64Var(&opts.Density, "density", 0, "margin density divisor (default 10)")
	cmd.Flags().StringArrayVar(&gravitation, "gravitation", nil, "gravitation node as name:top:left, e.g. core:50%:50% (repeatable)")
	cmd.Flags().BoolVar(&exportScene, "export-scene", false, "also write the scene with computed styles applied")

	return cmd
}

// runLayout executes the pipeline and writes output files.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache, exportScene bool) error {
	runner := c.newRunner(noCache)
	defer runner.Cache.Close()

	opts.ScenePath = input
	opts.Formats = []string{pipeline.FormatJSON}
	opts.Logger = c.Logger

	p := newProgress(c.Logger)
	res, err := runner.Execute(withLogger(ctx, c.Logger), opts)
	if err != nil {
		printError("Layout failed")
		return err
	}
	p.done(fmt.Sprintf("Laid out %d groups", res.Stats.GroupCount))

	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}
	if err := os.WriteFile(outputPath, res.Artifacts[pipeline.FormatJSON], 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(res.Stats.GroupCount, res.Stats.FailureCount, res.CacheInfo.LayoutHit)
	for _, f := range res.Layout.Failures {
		printWarning("group %s failed at step %d: %s", f.Parent, f.Step, f.Message)
	}

	if exportScene {
		scenePath := strings.TrimSuffix(outputPath, ".layout.json") + ".out.json"
		data, err := dom.MarshalScene(res.Document.Export())
		if err != nil {
			return fmt.Errorf("export scene: %w", err)
		}
		if err := os.WriteFile(scenePath, data, 0o644); err != nil {
			return fmt.Errorf("write scene %s: %w", scenePath, err)
		}
		printFile(scenePath)
	}

	printNewline()
	printNextStep("Render", "gravita render "+input)

	return nil
}
