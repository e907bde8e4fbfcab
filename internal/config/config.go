package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"cotbench/internal/record"
)

// Config file and default values.
const (
	FileName              = ".cotbench.yml"
	DefaultModel          = "gpt-4o-mini"
	DefaultTemperature    = 0.1
	DefaultRetryWait      = 3 * time.Second
	DefaultLivePause      = time.Second
	DefaultOutputDir      = "outputs"
	DefaultRequestTimeout = 120 * time.Second
)

// Config holds every run setting after file, environment, and flag layering.
// An empty Mode means replay when Replay is set and live otherwise.
// A nil Pause means the mode default: 1s in live mode, none otherwise.
// APIKey is only read from the environment.
type Config struct {
	Version        int            `yaml:"version"`
	Mode           string         `yaml:"mode"`
	Questions      string         `yaml:"questions"`
	Replay         string         `yaml:"replay"`
	Model          string         `yaml:"model"`
	Temperature    float64        `yaml:"temperature"`
	BaseURL        string         `yaml:"base_url"`
	CoTSuffix      string         `yaml:"cot_suffix"`
	DirectSuffix   string         `yaml:"direct_suffix"`
	RetryWait      time.Duration  `yaml:"retry_wait"`
	Pause          *time.Duration `yaml:"pause"`
	RequestTimeout time.Duration  `yaml:"request_timeout"`
	Timeout        time.Duration  `yaml:"timeout"`
	OutputDir      string         `yaml:"output_dir"`
	Tag            string         `yaml:"tag"`
	SaveMarkdown   bool           `yaml:"save_markdown"`
	SaveHTML       bool           `yaml:"save_html"`
	PersistPartial bool           `yaml:"persist_partial"`
	Log            LogConfig      `yaml:"log"`
	APIKey         string         `yaml:"-"`
}

// LogConfig selects the structured log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Version:        1,
		Model:          DefaultModel,
		Temperature:    DefaultTemperature,
		RetryWait:      DefaultRetryWait,
		RequestTimeout: DefaultRequestTimeout,
		OutputDir:      DefaultOutputDir,
		Log:            LogConfig{Level: "info", Format: "text"},
	}
}

// Parse decodes a YAML config over the defaults. Unknown fields and
// multiple documents are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	var trailing yaml.Node
	if err := decoder.Decode(&trailing); err != io.EOF {
		if err == nil {
			return Config{}, fmt.Errorf("parse config: multiple YAML documents are not supported")
		}
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Load reads and parses a config file. Relative questions, replay, and
// output paths are resolved against the file's directory.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	base := filepath.Dir(path)
	cfg.Questions = resolvePath(base, cfg.Questions)
	cfg.Replay = resolvePath(base, cfg.Replay)
	cfg.OutputDir = resolvePath(base, cfg.OutputDir)
	return cfg, nil
}

// Discover returns the config file in dir when one exists.
func Discover(dir string) (string, bool) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, FileName)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return path, true
}

// EffectivePause returns the configured pause or the mode default.
func (c Config) EffectivePause() time.Duration {
	if c.Pause != nil {
		return *c.Pause
	}
	if c.resolvedMode() == string(record.ModeLive) {
		return DefaultLivePause
	}
	return 0
}

// resolvedMode returns Mode, or the mode implied by Replay when Mode is unset.
func (c Config) resolvedMode() string {
	if c.Mode != "" {
		return c.Mode
	}
	if c.Replay != "" {
		return string(record.ModeReplay)
	}
	return string(record.ModeLive)
}

// resolvePath joins a relative path onto base, leaving empty and absolute paths alone.
func resolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
