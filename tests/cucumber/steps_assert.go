//go:build cucumber
// +build cucumber

package cucumber

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cotbench/internal/prompt"
	"cotbench/internal/record"
	"cotbench/internal/runner"
)

// theRunListsQuestionsInOrder compares the recorded question ids with a comma list.
func (s *featureState) theRunListsQuestionsInOrder(list string) error {
	rec, err := s.lastRun()
	if err != nil {
		return err
	}
	want := strings.Split(list, ",")
	if len(rec.Questions) != len(want) {
		return fmt.Errorf("expected %d questions, got %d", len(want), len(rec.Questions))
	}
	for i, id := range want {
		if got := rec.Questions[i].ID; got != strings.TrimSpace(id) {
			return fmt.Errorf("question %d: expected %q, got %q", i, id, got)
		}
	}
	return nil
}

func (s *featureState) everyQuestionHasBothResults() error {
	rec, err := s.lastRun()
	if err != nil {
		return err
	}
	for _, item := range rec.Questions {
		if item.Direct.Strategy != prompt.StrategyDirect || item.CoT.Strategy != prompt.StrategyCoT {
			return fmt.Errorf("question %s is missing a strategy result", item.ID)
		}
		if item.Direct.PromptSent == "" || item.CoT.PromptSent == "" {
			return fmt.Errorf("question %s has an empty prompt", item.ID)
		}
	}
	return nil
}

// bothRunsProducedIdenticalAnswers compares the last two runs call by call.
func (s *featureState) bothRunsProducedIdenticalAnswers() error {
	if len(s.runs) < 2 {
		return fmt.Errorf("expected two runs, got %d", len(s.runs))
	}
	first, second := s.runs[len(s.runs)-2], s.runs[len(s.runs)-1]
	if len(first.Questions) != len(second.Questions) {
		return fmt.Errorf("question counts differ: %d vs %d", len(first.Questions), len(second.Questions))
	}
	for i := range first.Questions {
		for _, strategy := range prompt.Strategies {
			a, _ := first.Questions[i].Result(strategy)
			b, _ := second.Questions[i].Result(strategy)
			if a.RawAnswer != b.RawAnswer || a.IsCorrect != b.IsCorrect {
				return fmt.Errorf("question %s %s differs: %q vs %q", first.Questions[i].ID, strategy, a.RawAnswer, b.RawAnswer)
			}
		}
	}
	return nil
}

func (s *featureState) theLastRunModeIs(mode string) error {
	rec, err := s.lastRun()
	if err != nil {
		return err
	}
	if string(rec.Mode) != mode {
		return fmt.Errorf("expected mode %q, got %q", mode, rec.Mode)
	}
	return nil
}

func (s *featureState) questionHasAnError(id, strategy string) error {
	result, err := s.resultFor(id, strategy)
	if err != nil {
		return err
	}
	if !result.Failed() {
		return fmt.Errorf("expected %s/%s to record an error", id, strategy)
	}
	if result.IsCorrect {
		return fmt.Errorf("a failed call must not be judged correct")
	}
	return nil
}

func (s *featureState) questionHasACorrectAnswer(id, strategy string) error {
	result, err := s.resultFor(id, strategy)
	if err != nil {
		return err
	}
	if result.Failed() || !result.IsCorrect {
		return fmt.Errorf("expected %s/%s to be correct, got answer %q", id, strategy, result.RawAnswer)
	}
	return nil
}

func (s *featureState) resultFor(id, strategy string) (record.StrategyResult, error) {
	rec, err := s.lastRun()
	if err != nil {
		return record.StrategyResult{}, err
	}
	item, ok := rec.Find(id)
	if !ok {
		return record.StrategyResult{}, fmt.Errorf("question %s not in run", id)
	}
	result, ok := item.Result(prompt.Strategy(strategy))
	if !ok {
		return record.StrategyResult{}, fmt.Errorf("unknown strategy %s", strategy)
	}
	return result, nil
}

func (s *featureState) theRunIsNotAborted() error {
	rec, err := s.lastRun()
	if err != nil {
		return err
	}
	if s.runErr != nil || rec.Aborted {
		return fmt.Errorf("expected a complete run, got error %v", s.runErr)
	}
	return nil
}

func (s *featureState) theRunIsAbortedAfter(completed int) error {
	rec, err := s.lastRun()
	if err != nil {
		return err
	}
	var aborted *runner.AbortedError
	if !errors.As(s.runErr, &aborted) {
		return fmt.Errorf("expected an abort error, got %v", s.runErr)
	}
	if aborted.Completed != completed || len(rec.Questions) != completed {
		return fmt.Errorf("expected %d completed questions, got %d (record has %d)", completed, aborted.Completed, len(rec.Questions))
	}
	if !rec.Aborted || rec.AbortReason == nil {
		return fmt.Errorf("expected the record to be marked aborted")
	}
	return nil
}

func (s *featureState) theVerdictIs(verdict string) error {
	want := verdict == "correct"
	if s.verdict.Correct != want {
		return fmt.Errorf("expected %s, normalized answer was %q", verdict, s.verdict.Normalized)
	}
	return nil
}

func (s *featureState) theExitCodeIs(code int) error {
	if s.exitCode != code {
		return fmt.Errorf("expected exit code %d, got %d (stderr: %s)", code, s.exitCode, s.stderr.String())
	}
	return nil
}

func (s *featureState) outputMentions(stream, text string) error {
	output := s.stdout.String()
	if stream == "stderr" {
		output = s.stderr.String()
	}
	if !strings.Contains(output, text) {
		return fmt.Errorf("expected %s to mention %q, got %q", stream, text, output)
	}
	return nil
}

// theOutputDirectoryHolds checks that exactly one run directory exists and contains file.
func (s *featureState) theOutputDirectoryHolds(file string) error {
	entries, err := os.ReadDir(s.outputDir())
	if err != nil {
		return err
	}
	var runs []string
	for _, entry := range entries {
		if entry.IsDir() {
			runs = append(runs, entry.Name())
		}
	}
	if len(runs) != 1 {
		return fmt.Errorf("expected one run directory, got %v", runs)
	}
	_, err = os.Stat(filepath.Join(s.outputDir(), runs[0], file))
	return err
}
