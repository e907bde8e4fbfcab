package config

import (
	"fmt"
	"net/url"
	"strings"

	"cotbench/internal/record"
)

// Issue captures a validation problem with a config field.
type Issue struct {
	Field   string
	Message string
}

// ValidationError aggregates config validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error renders validation errors as a multi-line string.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return "config validation failed"
	}
	lines := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		lines = append(lines, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

// issueCollector accumulates validation issues.
type issueCollector struct {
	issues []Issue
}

// add records a new validation issue.
func (c *issueCollector) add(field, message string) {
	c.issues = append(c.issues, Issue{Field: field, Message: message})
}

// result returns a ValidationError when issues are present.
func (c *issueCollector) result() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}

// Validate checks a normalized config. The API key is not checked here;
// the live gateway reports a missing key as a fatal error.
func Validate(cfg Config) error {
	var c issueCollector

	if cfg.Version != 1 {
		c.add("version", fmt.Sprintf("unsupported version %d", cfg.Version))
	}
	mode, err := record.ParseMode(cfg.resolvedMode())
	if err != nil {
		c.add("mode", err.Error())
	}
	if mode == record.ModeReplay && cfg.Replay == "" {
		c.add("replay", "is required in replay mode")
	}
	if mode != record.ModeReplay && mode != "" && cfg.Replay != "" {
		c.add("replay", fmt.Sprintf("is only valid in replay mode (mode is %s)", mode))
	}
	if cfg.Model == "" {
		c.add("model", "is required")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		c.add("temperature", "must be between 0 and 2")
	}
	if cfg.BaseURL != "" {
		if parsed, err := url.Parse(cfg.BaseURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			c.add("base_url", fmt.Sprintf("invalid URL %q", cfg.BaseURL))
		}
	}
	if cfg.RetryWait < 0 {
		c.add("retry_wait", "must be >= 0")
	}
	if cfg.Pause != nil && *cfg.Pause < 0 {
		c.add("pause", "must be >= 0")
	}
	if cfg.RequestTimeout < 0 {
		c.add("request_timeout", "must be >= 0")
	}
	if cfg.Timeout < 0 {
		c.add("timeout", "must be >= 0")
	}
	if cfg.OutputDir == "" {
		c.add("output_dir", "is required")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		c.add("log.level", fmt.Sprintf("unsupported level %q", cfg.Log.Level))
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		c.add("log.format", fmt.Sprintf("unsupported format %q", cfg.Log.Format))
	}
	return c.result()
}
