package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseLevel verifies accepted names and the error case.
func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

// TestNewJSON verifies JSON records and level filtering.
func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", "json")
	require.NoError(t, err)
	logger.Info("dropped")
	logger.Warn("kept", "run_id", "r1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "r1", entry["run_id"])
}

// TestNewText verifies the text handler and bad formats.
func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", "text")
	require.NoError(t, err)
	logger.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello k=v")

	_, err = New(&buf, "info", "xml")
	assert.Error(t, err)
}

// TestDiscard verifies the discard logger is usable.
func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() { Discard().Error("nothing") })
}
