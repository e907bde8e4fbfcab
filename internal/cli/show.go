package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cotbench/internal/config"
	"cotbench/internal/prompt"
	"cotbench/internal/report"
	"cotbench/internal/runner"
)

// newShowCommand creates the show command.
func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run]",
		Short: "Print the comparison table of a previous run",
		Long: `Print the comparison table of a previous run. The run may be a results.json
file, a run directory, a run id under --output-dir, or "latest" (the default).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategyFlag, _ := cmd.Flags().GetString("strategy")
			var strategy prompt.Strategy
			if strategyFlag != "" {
				parsed, err := prompt.ParseStrategy(strategyFlag)
				if err != nil {
					return &usageError{err: err}
				}
				strategy = parsed
			}
			ref := report.LatestRef
			if len(args) == 1 {
				ref = args[0]
			}
			outputDir, _ := cmd.Flags().GetString("output-dir")
			rec, _, err := report.LoadRun(outputDir, ref)
			if err != nil {
				return err
			}
			markdown, _ := cmd.Flags().GetBool("markdown")
			if strategy != "" {
				if markdown {
					return &usageError{err: fmt.Errorf("--strategy conflicts with --markdown")}
				}
				fmt.Fprint(cmd.OutOrStdout(), runner.RenderStrategy(rec, strategy))
				return nil
			}
			if markdown {
				fmt.Fprint(cmd.OutOrStdout(), runner.RenderComparisonMarkdown(rec))
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), runner.RenderComparison(rec))
			return nil
		},
	}
	cmd.Flags().Bool("markdown", false, "Print the markdown table instead")
	cmd.Flags().String("strategy", "", "Show a single strategy (direct|cot)")
	cmd.Flags().String("output-dir", config.DefaultOutputDir, "Root directory searched for run ids")
	return cmd
}
