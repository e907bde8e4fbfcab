package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"cotbench/internal/config"
	"cotbench/internal/gateway"
	"cotbench/internal/logging"
	"cotbench/internal/prompt"
	"cotbench/internal/question"
	"cotbench/internal/record"
	"cotbench/internal/report"
	"cotbench/internal/runner"
)

// newRunCommand creates the run command.
func newRunCommand(deps Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the direct vs chain-of-thought comparison",
		Long: `Run every question with a direct prompt and a chain-of-thought prompt,
judge both answers, print the comparison table, and write the run record to
<output-dir>/<run-id>/.

Settings are layered: built-in defaults, then .cotbench.yml (or --config),
then OPENAI_API_KEY / LLM_API_KEY / OPENAI_BASE_URL / COTBENCH_MODEL, then flags.

Examples:
  cotbench run --dry-run
  cotbench run --questions questions.yml --model gpt-4o-mini --tag baseline
  cotbench run --replay outputs/20240102T030405Z/results.json
  cotbench run --replay latest`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, deps)
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "Path to config file (default: ./.cotbench.yml when present)")
	flags.String("questions", "", "Questions file, JSON or YAML (default: built-in questions)")
	flags.String("mode", "", "Run mode: live|dry-run|replay")
	flags.Bool("dry-run", false, "Shorthand for --mode dry-run")
	flags.String("replay", "", "Replay answers from a previous run (results.json, run dir, run id, or latest)")
	flags.String("model", "", "Model name")
	flags.Float64("temperature", config.DefaultTemperature, "Sampling temperature (0-2)")
	flags.String("base-url", "", "OpenAI-compatible API base URL")
	flags.String("cot-suffix", "", "Instruction appended to chain-of-thought prompts")
	flags.String("direct-suffix", "", "Instruction appended to direct prompts (default: none)")
	flags.Duration("retry-wait", config.DefaultRetryWait, "Wait before retrying a transient failure")
	flags.Duration("pause", config.DefaultLivePause, "Pause between model calls (default 1s live, 0 otherwise)")
	flags.Duration("timeout", 0, "Whole-run time limit (0 = none)")
	flags.Duration("request-timeout", config.DefaultRequestTimeout, "Per-call time limit for live requests")
	flags.String("output-dir", "", "Root directory for run outputs")
	flags.String("tag", "", "Label appended to the run id")
	flags.Bool("save-markdown", false, "Also write comparison.md")
	flags.Bool("save-html", false, "Also write comparison.html")
	flags.Bool("persist-partial", false, "Write the record of an aborted run")
	flags.String("log-level", "", "Log level: debug|info|warn|error")
	flags.String("log-format", "", "Log format: text|json")
	flags.Bool("no-color", false, "Disable colored progress output")
	return cmd
}

// runRun loads configuration, performs the run, and reports the outcome.
func runRun(cmd *cobra.Command, deps Dependencies) error {
	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()

	cfg, err := resolveRunConfig(cmd.Flags(), deps)
	if err != nil {
		return err
	}
	logger, err := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return &usageError{err: err}
	}

	source := question.SourceFor(cfg.Questions)
	questions, err := question.Load(source)
	if err != nil {
		return err
	}

	mode, err := record.ParseMode(cfg.Mode)
	if err != nil {
		return &usageError{err: err}
	}
	if mode == record.ModeReplay {
		resolved, err := report.ResolveRun(cfg.OutputDir, cfg.Replay)
		if err != nil {
			return &usageError{err: fmt.Errorf("replay: %w", err)}
		}
		cfg.Replay = resolved
	}
	selection, err := gateway.NewForMode(mode, gateway.Options{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		HTTPClient:     deps.HTTPClient,
		RequestTimeout: cfg.RequestTimeout,
		RetryWait:      cfg.RetryWait,
		ReplayPath:     cfg.Replay,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	builder := prompt.NewBuilder()
	if cfg.CoTSuffix != "" {
		builder.CoTSuffix = cfg.CoTSuffix
	}
	builder.DirectSuffix = cfg.DirectSuffix

	flags := cmd.Flags()
	noColor, _ := flags.GetBool("no-color")
	observer := newConsoleObserver(stderr, useColor(stderr, noColor))

	params := runner.RunParams{
		Gateway:        selection.Gateway,
		Builder:        builder,
		Mode:           mode,
		Model:          cfg.Model,
		Temperature:    cfg.Temperature,
		Tag:            cfg.Tag,
		QuestionSource: source.Name(),
		ReplaySource:   selection.ReplaySource,
		OutputRoot:     cfg.OutputDir,
		Timeout:        cfg.Timeout,
		Pause:          cfg.EffectivePause(),
		Observer:       observer,
		Logger:         logger,
		Deps: runner.RunDependencies{
			Now:   deps.Now,
			Sleep: deps.Sleep,
		},
	}
	rec, paths, runErr := runner.RunAndPersist(cmd.Context(), questions, params, runner.PersistOptions{
		Markdown:       cfg.SaveMarkdown,
		HTML:           cfg.SaveHTML,
		PersistPartial: cfg.PersistPartial,
	})
	return reportRun(stdout, rec, paths, runErr)
}

// reportRun prints the comparison and output location. The console observer
// has already reported an abort, so only the exit code is returned for it.
func reportRun(stdout io.Writer, rec record.RunRecord, paths runner.OutputPaths, runErr error) error {
	if rec.RunID != "" {
		fmt.Fprintln(stdout)
		fmt.Fprint(stdout, runner.RenderComparison(rec))
	}
	if paths.RunID != "" {
		fmt.Fprintf(stdout, "Results written to %s\n", paths.RunDir())
	}
	if runErr == nil {
		return nil
	}
	var aborted *runner.AbortedError
	if errors.As(runErr, &aborted) && error(aborted) == runErr {
		return &exitError{code: ExitError}
	}
	return runErr
}

// resolveRunConfig layers defaults, the config file, the environment, and flags.
func resolveRunConfig(flags *pflag.FlagSet, deps Dependencies) (config.Config, error) {
	cfg := config.Default()
	configPath, _ := flags.GetString("config")
	if configPath == "" {
		if found, ok := config.Discover(deps.WorkDir); ok {
			configPath = found
		}
	}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, &usageError{err: err}
		}
		cfg = loaded
	}
	config.ApplyEnv(&cfg, deps.LookupEnv)
	if err := applyRunFlags(flags, &cfg); err != nil {
		return config.Config{}, &usageError{err: err}
	}
	config.Normalize(&cfg)
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, &usageError{err: err}
	}
	return cfg, nil
}

// applyRunFlags copies explicitly set flags onto cfg.
func applyRunFlags(flags *pflag.FlagSet, cfg *config.Config) error {
	stringFlags := map[string]*string{
		"questions":     &cfg.Questions,
		"replay":        &cfg.Replay,
		"model":         &cfg.Model,
		"base-url":      &cfg.BaseURL,
		"cot-suffix":    &cfg.CoTSuffix,
		"direct-suffix": &cfg.DirectSuffix,
		"output-dir":    &cfg.OutputDir,
		"tag":           &cfg.Tag,
		"log-level":     &cfg.Log.Level,
		"log-format":    &cfg.Log.Format,
	}
	for name, target := range stringFlags {
		if flags.Changed(name) {
			value, err := flags.GetString(name)
			if err != nil {
				return err
			}
			*target = value
		}
	}
	durationFlags := map[string]*time.Duration{
		"retry-wait":      &cfg.RetryWait,
		"timeout":         &cfg.Timeout,
		"request-timeout": &cfg.RequestTimeout,
	}
	for name, target := range durationFlags {
		if flags.Changed(name) {
			value, err := flags.GetDuration(name)
			if err != nil {
				return err
			}
			*target = value
		}
	}
	boolFlags := map[string]*bool{
		"save-markdown":   &cfg.SaveMarkdown,
		"save-html":       &cfg.SaveHTML,
		"persist-partial": &cfg.PersistPartial,
	}
	for name, target := range boolFlags {
		if flags.Changed(name) {
			value, err := flags.GetBool(name)
			if err != nil {
				return err
			}
			*target = value
		}
	}
	if flags.Changed("temperature") {
		value, err := flags.GetFloat64("temperature")
		if err != nil {
			return err
		}
		cfg.Temperature = value
	}
	if flags.Changed("pause") {
		value, err := flags.GetDuration("pause")
		if err != nil {
			return err
		}
		cfg.Pause = &value
	}

	dryRun, _ := flags.GetBool("dry-run")
	modeFlag, _ := flags.GetString("mode")
	switch {
	case dryRun && flags.Changed("mode"):
		mode, err := record.ParseMode(modeFlag)
		if err != nil {
			return err
		}
		if mode != record.ModeDryRun {
			return fmt.Errorf("--dry-run conflicts with --mode %s", modeFlag)
		}
		cfg.Mode = string(record.ModeDryRun)
	case dryRun:
		cfg.Mode = string(record.ModeDryRun)
	case flags.Changed("mode"):
		cfg.Mode = modeFlag
	case flags.Changed("replay"):
		cfg.Mode = string(record.ModeReplay)
	}
	return nil
}
