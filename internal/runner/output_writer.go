package runner

import (
	"context"
	"fmt"
	"os"

	"cotbench/internal/filelock"
	"cotbench/internal/record"
)

// PersistOptions selects the optional artifacts written next to results.json.
type PersistOptions struct {
	Markdown bool
	HTML     bool
	// PersistPartial also writes aborted runs. Only RunAndPersist reads it.
	PersistPartial bool
}

// Persist writes rec under <outputRoot>/<run_id>/ while holding the output
// root lock. Each file is written atomically. When another writer already
// created the run directory, the run id gets a ULID suffix; the returned
// record and paths carry the id that was written.
func Persist(rec record.RunRecord, outputRoot string, opts PersistOptions) (record.RunRecord, OutputPaths, error) {
	paths, err := NewOutputPaths(outputRoot, rec.RunID)
	if err != nil {
		return rec, OutputPaths{}, err
	}
	if err := os.MkdirAll(paths.Root, 0o755); err != nil {
		return rec, OutputPaths{}, fmt.Errorf("create output root: %w", err)
	}
	err = filelock.WithLock(paths.LockPath(), func() error {
		if _, err := os.Stat(paths.RunDir()); err == nil {
			runID, err := ReserveRunID(rec.RunID, rec.CreatedAt, paths.Root)
			if err != nil {
				return err
			}
			rec.RunID = runID
			paths.RunID = runID
		}
		return writeRunOutputs(rec, paths, opts)
	})
	if err != nil {
		return rec, OutputPaths{}, err
	}
	return rec, paths, nil
}

// writeRunOutputs writes every artifact; the caller holds the lock.
func writeRunOutputs(rec record.RunRecord, paths OutputPaths, opts PersistOptions) error {
	if err := os.MkdirAll(paths.RunDir(), 0o755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}
	payload, err := record.Marshal(rec)
	if err != nil {
		return err
	}
	if err := filelock.AtomicWrite(paths.ResultsPath(), payload); err != nil {
		return fmt.Errorf("write results.json: %w", err)
	}
	if err := filelock.AtomicWrite(paths.ComparisonPath(), []byte(RenderComparison(rec))); err != nil {
		return fmt.Errorf("write comparison.txt: %w", err)
	}
	if opts.Markdown {
		if err := filelock.AtomicWrite(paths.MarkdownPath(), []byte(RenderComparisonMarkdown(rec))); err != nil {
			return fmt.Errorf("write comparison.md: %w", err)
		}
	}
	if opts.HTML {
		page, err := RenderComparisonHTML(context.Background(), rec)
		if err != nil {
			return err
		}
		if err := filelock.AtomicWrite(paths.HTMLPath(), page); err != nil {
			return fmt.Errorf("write comparison.html: %w", err)
		}
	}
	return nil
}
