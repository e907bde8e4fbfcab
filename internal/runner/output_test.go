package runner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOutputPaths verifies every artifact lives under the run directory.
func TestOutputPaths(t *testing.T) {
	root := t.TempDir()
	paths, err := NewOutputPaths(root, "20240102T030405Z-baseline")
	require.NoError(t, err)

	runDir := filepath.Join(root, "20240102T030405Z-baseline")
	assert.Equal(t, runDir, paths.RunDir())
	assert.Equal(t, filepath.Join(runDir, "results.json"), paths.ResultsPath())
	assert.Equal(t, filepath.Join(runDir, "comparison.txt"), paths.ComparisonPath())
	assert.Equal(t, filepath.Join(runDir, "comparison.md"), paths.MarkdownPath())
	assert.Equal(t, filepath.Join(runDir, "comparison.html"), paths.HTMLPath())
	assert.Equal(t, filepath.Join(root, ".cotbench.lock"), paths.LockPath())
}

// TestOutputPathsErrors verifies missing or unsafe components are rejected.
func TestOutputPathsErrors(t *testing.T) {
	cases := []struct {
		name  string
		root  string
		runID string
	}{
		{name: "missing-root", root: "", runID: "id"},
		{name: "missing-run", root: "out", runID: " "},
		{name: "separator", root: "out", runID: "a/b"},
		{name: "parent", root: "out", runID: ".."},
	}
	for _, tc := range cases {
		_, err := NewOutputPaths(tc.root, tc.runID)
		assert.Error(t, err, tc.name)
	}
}
