// Package cli wires the cotbench commands onto cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cotbench/internal/config"
	"cotbench/internal/gateway"
)

// Process exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Version is injected at build time via -ldflags.
var Version = "dev"

// Dependencies are the process-level collaborators of the commands. Zero
// values fall back to the real environment.
type Dependencies struct {
	LookupEnv  config.LookupFunc
	HTTPClient gateway.HTTPDoer
	Now        func() time.Time
	Sleep      func(ctx context.Context, d time.Duration) error
	// WorkDir is searched for .cotbench.yml when --config is not given.
	WorkDir string
}

// usageError marks errors caused by bad flags or configuration.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// exitError carries an exit code for an error already reported to the user.
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Run executes the command line and returns the process exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return RunWith(ctx, args, stdout, stderr, Dependencies{})
}

// RunWith is Run with injected dependencies.
func RunWith(ctx context.Context, args []string, stdout, stderr io.Writer, deps Dependencies) int {
	root := NewRootCommand(stdout, stderr, deps)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var usage *usageError
	if errors.As(err, &usage) {
		return ExitUsage
	}
	return ExitError
}
