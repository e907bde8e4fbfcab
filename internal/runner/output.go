package runner

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LockFileName is the advisory lock taken on an output root while writing.
const LockFileName = ".cotbench.lock"

// OutputPaths describes filesystem locations for run outputs.
type OutputPaths struct {
	Root  string
	RunID string
}

// NewOutputPaths validates and constructs output paths metadata.
func NewOutputPaths(root, runID string) (OutputPaths, error) {
	if strings.TrimSpace(root) == "" {
		return OutputPaths{}, fmt.Errorf("output root is empty")
	}
	if strings.TrimSpace(runID) == "" {
		return OutputPaths{}, fmt.Errorf("run ID is empty")
	}
	if strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return OutputPaths{}, fmt.Errorf("run ID %q is not a directory name", runID)
	}
	return OutputPaths{Root: root, RunID: runID}, nil
}

// RunDir returns the directory for a specific run.
func (o OutputPaths) RunDir() string {
	return filepath.Join(o.Root, o.RunID)
}

// ResultsPath returns the path to results.json.
func (o OutputPaths) ResultsPath() string {
	return filepath.Join(o.RunDir(), "results.json")
}

// ComparisonPath returns the path to the plain-text comparison table.
func (o OutputPaths) ComparisonPath() string {
	return filepath.Join(o.RunDir(), "comparison.txt")
}

// MarkdownPath returns the path to the markdown comparison table.
func (o OutputPaths) MarkdownPath() string {
	return filepath.Join(o.RunDir(), "comparison.md")
}

// HTMLPath returns the path to the HTML comparison page.
func (o OutputPaths) HTMLPath() string {
	return filepath.Join(o.RunDir(), "comparison.html")
}

// LockPath returns the output root lock file.
func (o OutputPaths) LockPath() string {
	return filepath.Join(o.Root, LockFileName)
}
