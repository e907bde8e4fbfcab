package cli

import (
	"io"

	"github.com/spf13/cobra"
)

// NewRootCommand creates the cotbench root command and its subcommands.
func NewRootCommand(stdout, stderr io.Writer, deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cotbench",
		Short: "Compare zero-shot and zero-shot chain-of-thought prompting",
		Long: `cotbench asks a language model every question twice, once directly and once
with a step-by-step instruction, judges both answers against the expected
answer, and writes a reproducible run record.

Runs can call a live OpenAI-compatible endpoint, produce deterministic
synthetic answers (dry-run), or replay the answers of a previous run.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	cmd.AddCommand(newRunCommand(deps))
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newShowCommand())
	return cmd
}
