package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cotbench/internal/question"
)

// newValidateCommand creates the validate command.
func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a questions file",
		Long: `Load and validate a questions file without calling any model.

Exit code: 0 if valid, 1 if the file cannot be read or has issues.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("questions")
			source := question.SourceFor(path)
			questions, err := question.Load(source)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Questions OK: %d question(s) from %s\n", len(questions), source.Name())
			return nil
		},
	}
	cmd.Flags().String("questions", "", "Questions file, JSON or YAML (default: built-in questions)")
	return cmd
}
