// Package report locates and loads the records of previous runs.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cotbench/internal/record"
	"cotbench/internal/runner"
)

// LatestRef selects the newest run under the output root.
const LatestRef = "latest"

// ResolveRun returns the results.json path for ref. A ref may be a
// results.json file, a run directory, a run id under outputRoot, or "latest".
func ResolveRun(outputRoot, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("run ref is required")
	}
	if info, err := os.Stat(ref); err == nil {
		if !info.IsDir() {
			return ref, nil
		}
		resultsPath := filepath.Join(ref, "results.json")
		if _, err := os.Stat(resultsPath); err != nil {
			return "", fmt.Errorf("run directory %s has no results.json", ref)
		}
		return resultsPath, nil
	}

	runID := filepath.Base(ref)
	if runID == LatestRef {
		return findLatestRun(outputRoot)
	}
	paths, err := runner.NewOutputPaths(outputRoot, runID)
	if err != nil {
		return "", fmt.Errorf("run %s not found: %w", ref, err)
	}
	if _, err := os.Stat(paths.ResultsPath()); err != nil {
		return "", fmt.Errorf("run %s not found in %s", runID, outputRoot)
	}
	return paths.ResultsPath(), nil
}

// LoadRun resolves ref and loads the record.
func LoadRun(outputRoot, ref string) (record.RunRecord, string, error) {
	path, err := ResolveRun(outputRoot, ref)
	if err != nil {
		return record.RunRecord{}, "", err
	}
	rec, err := record.Load(path)
	if err != nil {
		return record.RunRecord{}, "", err
	}
	return rec, path, nil
}

// findLatestRun picks the lexically greatest run id that has a results file.
// Run ids start with a UTC timestamp, so this is the most recent run.
func findLatestRun(outputRoot string) (string, error) {
	entries, err := os.ReadDir(outputRoot)
	if err != nil {
		return "", fmt.Errorf("list runs: %w", err)
	}
	runIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			runIDs = append(runIDs, entry.Name())
		}
	}
	sort.Strings(runIDs)
	for i := len(runIDs) - 1; i >= 0; i-- {
		resultsPath := filepath.Join(outputRoot, runIDs[i], "results.json")
		if _, err := os.Stat(resultsPath); err == nil {
			return resultsPath, nil
		}
	}
	return "", fmt.Errorf("no runs found in %s", outputRoot)
}
