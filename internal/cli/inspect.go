package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gravitylab/gravita/pkg/pipeline"
)

// inspectCommand creates the inspect command for browsing group metrics.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		configPath  string
		plain       bool
		gravitation []string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "inspect [scene.json]",
		Short: "Interactively browse the group metrics of a layout pass",
		Long: `Run the gravitation pass and browse the resulting group metrics
in an interactive terminal view. Use --plain for non-interactive output
suitable for pipes and CI logs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Gravitation = parseGravitation(gravitation)
			if err := applyConfigFile(&opts, configPath); err != nil {
				return err
			}
			return c.runInspect(cmd.Context(), args[0], opts, plain)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to gravita.toml")
	cmd.Flags().BoolVar(&plain, "plain", false, "print metrics without the interactive view")
	cmd.Flags().Float64Var(&opts.K, "k", 0, "force-scaling constant (default 0.618)")
	cmd.Flags().Float64Var(&opts.Density, "density", 0, "margin density divisor (default 10)")
	cmd.Flags().StringArrayVar(&gravitation, "gravitation", nil, "gravitation node as name:top:left (repeatable)")

	return cmd
}

// runInspect executes the pipeline and shows the group browser.
func (c *CLI) runInspect(ctx context.Context, input string, opts pipeline.Options, plain bool) error {
	runner := c.newRunner(true)

	opts.ScenePath = input
	opts.Formats = []string{pipeline.FormatJSON}
	opts.Logger = c.Logger

	res, err := runner.Execute(withLogger(ctx, c.Logger), opts)
	if err != nil {
		return err
	}

	if plain {
		printInfo("attractor: %s", res.Layout.Attractor)
		for _, g := range res.Layout.Groups {
			printNewline()
			printInfo("group %s (%d children, padding %.1f)", g.Parent, len(g.Children), g.PaddingTop)
			fmt.Println(groupTable(g))
		}
		for _, f := range res.Layout.Failures {
			printWarning("group %s failed at step %d: %s", f.Parent, f.Step, f.Message)
		}
		return nil
	}

	model := NewGroupListModel(res.Layout)
	_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
	return err
}
