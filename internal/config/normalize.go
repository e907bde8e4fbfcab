package config

import (
	"strings"

	"cotbench/internal/record"
)

// Normalize trims string fields and canonicalizes the mode and log settings.
// An unset mode becomes replay when a replay source is given and live
// otherwise; an explicit mode is never changed. An unparseable mode is left
// as is for Validate to report.
func Normalize(cfg *Config) {
	cfg.Questions = strings.TrimSpace(cfg.Questions)
	cfg.Replay = strings.TrimSpace(cfg.Replay)
	cfg.Mode = strings.TrimSpace(cfg.Mode)
	cfg.Mode = cfg.resolvedMode()
	if mode, err := record.ParseMode(cfg.Mode); err == nil {
		cfg.Mode = string(mode)
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.OutputDir = strings.TrimSpace(cfg.OutputDir)
	cfg.Tag = strings.TrimSpace(cfg.Tag)
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
}
