package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// TestParseOverlaysDefaults verifies omitted fields keep their defaults.
func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte("model: qwen2.5\ntemperature: 0\npause: 250ms\nlog:\n  format: json\n"))
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5", cfg.Model)
	assert.Zero(t, cfg.Temperature)
	require.NotNil(t, cfg.Pause)
	assert.Equal(t, 250*time.Millisecond, *cfg.Pause)
	assert.Equal(t, DefaultRetryWait, cfg.RetryWait)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

// TestParseEmpty verifies an empty file yields the defaults.
func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// TestParseRejectsUnknownFields verifies strict decoding.
func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("modle: typo\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "modle")
}

// TestParseRejectsMultipleDocuments verifies a single document is required.
func TestParseRejectsMultipleDocuments(t *testing.T) {
	_, err := Parse([]byte("model: a\n---\nmodel: b\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple YAML documents")
}

// TestLoadResolvesRelativePaths verifies paths are relative to the config file.
func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "questions: data/questions.yml\noutput_dir: runs\nreplay: /abs/results.json\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data", "questions.yml"), cfg.Questions)
	assert.Equal(t, filepath.Join(dir, "runs"), cfg.OutputDir)
	assert.Equal(t, "/abs/results.json", cfg.Replay)
}

// TestLoadMissingFile verifies read errors are wrapped.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

// TestDiscover verifies the config file is found only when present.
func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	_, ok := Discover(dir)
	assert.False(t, ok)

	path := writeConfig(t, dir, "model: x\n")
	found, ok := Discover(dir)
	assert.True(t, ok)
	assert.Equal(t, path, found)
}

// TestApplyEnv verifies environment precedence and the fallback key.
func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvFallbackAPIKey: "fallback",
		EnvBaseURL:        " https://proxy.example/v1 ",
		EnvModel:          "deepseek-chat",
	}
	lookup := func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
	cfg := Default()
	ApplyEnv(&cfg, lookup)
	assert.Equal(t, "fallback", cfg.APIKey)
	assert.Equal(t, "https://proxy.example/v1", cfg.BaseURL)
	assert.Equal(t, "deepseek-chat", cfg.Model)

	env[EnvAPIKey] = "primary"
	ApplyEnv(&cfg, lookup)
	assert.Equal(t, "primary", cfg.APIKey)
}

// TestApplyEnvUsesProcessEnvironment verifies the default lookup.
func TestApplyEnvUsesProcessEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "from-env")
	t.Setenv(EnvModel, "")
	cfg := Default()
	ApplyEnv(&cfg, nil)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, DefaultModel, cfg.Model)
}

// TestEffectivePause verifies the live-only default pause.
func TestEffectivePause(t *testing.T) {
	cfg := Default()
	assert.Equal(t, time.Second, cfg.EffectivePause())
	cfg.Mode = "dry_run"
	assert.Zero(t, cfg.EffectivePause())
	pause := 5 * time.Second
	cfg.Pause = &pause
	assert.Equal(t, pause, cfg.EffectivePause())
}

// TestNormalize verifies trimming and mode canonicalization.
func TestNormalize(t *testing.T) {
	cfg := Default()
	cfg.Mode = " Dry-Run "
	cfg.Model = " m "
	cfg.Log.Level = "DEBUG"
	Normalize(&cfg)
	assert.Equal(t, "dry_run", cfg.Mode)
	assert.Equal(t, "m", cfg.Model)
	assert.Equal(t, "debug", cfg.Log.Level)

	unset := Default()
	Normalize(&unset)
	assert.Equal(t, "live", unset.Mode)

	replay := Default()
	replay.Replay = "prior/results.json"
	Normalize(&replay)
	assert.Equal(t, "replay", replay.Mode)

	explicit := Default()
	explicit.Mode = "live"
	explicit.Replay = "prior/results.json"
	Normalize(&explicit)
	assert.Equal(t, "live", explicit.Mode)
}

// TestValidateDefaults verifies the defaults are valid.
func TestValidateDefaults(t *testing.T) {
	assert.NoError(t, Validate(Default()))
}

// TestValidateCollectsIssues verifies every problem is reported at once.
func TestValidateCollectsIssues(t *testing.T) {
	pause := -time.Second
	cfg := Default()
	cfg.Version = 2
	cfg.Mode = "offline"
	cfg.Model = ""
	cfg.Temperature = 3
	cfg.BaseURL = "not a url"
	cfg.Pause = &pause
	cfg.OutputDir = ""
	cfg.Log.Format = "xml"

	err := Validate(cfg)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	fields := map[string]bool{}
	for _, issue := range validation.Issues {
		fields[issue.Field] = true
	}
	for _, field := range []string{"version", "mode", "model", "temperature", "base_url", "pause", "output_dir", "log.format"} {
		assert.True(t, fields[field], "missing issue for %s", field)
	}
}

// TestValidateReplay verifies replay mode needs a source and other modes reject one.
func TestValidateReplay(t *testing.T) {
	cfg := Default()
	cfg.Mode = "replay"
	assert.ErrorContains(t, Validate(cfg), "replay: is required in replay mode")

	cfg.Mode = "dry_run"
	cfg.Replay = "results.json"
	assert.ErrorContains(t, Validate(cfg), "replay: is only valid in replay mode")
}

// TestExplicitLiveModeKeepsReplayConflict verifies a file naming both live mode
// and a replay source is rejected instead of silently replaying.
func TestExplicitLiveModeKeepsReplayConflict(t *testing.T) {
	cfg, err := Parse([]byte("mode: live\nreplay: prior/results.json\n"))
	require.NoError(t, err)
	Normalize(&cfg)
	assert.ErrorContains(t, Validate(cfg), "replay: is only valid in replay mode (mode is live)")

	implied, err := Parse([]byte("replay: prior/results.json\n"))
	require.NoError(t, err)
	Normalize(&implied)
	assert.NoError(t, Validate(implied))
	assert.Equal(t, "replay", implied.Mode)
	assert.Zero(t, implied.EffectivePause())
}
