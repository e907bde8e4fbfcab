//go:build cucumber
// +build cucumber

package cucumber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"cotbench/internal/cli"
	"cotbench/internal/gateway"
	"cotbench/internal/judge"
	"cotbench/internal/prompt"
	"cotbench/internal/question"
	"cotbench/internal/record"
	"cotbench/internal/runner"
	"cotbench/internal/testutil"
)

// theQuestions loads questions from a table with id, prompt and expected_answer columns.
func (s *featureState) theQuestions(table *godog.Table) error {
	if len(table.Rows) < 2 {
		return fmt.Errorf("questions table needs a header and at least one row")
	}
	columns := map[string]int{}
	for i, cell := range table.Rows[0].Cells {
		columns[strings.TrimSpace(cell.Value)] = i
	}
	for _, name := range []string{"id", "prompt", "expected_answer"} {
		if _, ok := columns[name]; !ok {
			return fmt.Errorf("questions table is missing column %q", name)
		}
	}
	var items []question.Question
	for _, row := range table.Rows[1:] {
		items = append(items, question.Question{
			ID:             row.Cells[columns["id"]].Value,
			Prompt:         row.Cells[columns["prompt"]].Value,
			ExpectedAnswer: row.Cells[columns["expected_answer"]].Value,
		})
	}
	normalized, err := question.Normalize(items)
	if err != nil {
		return err
	}
	s.questions = normalized
	return nil
}

// numberedQuestions creates q1..qN asking for n+n.
func (s *featureState) numberedQuestions(count int) error {
	s.questions = nil
	for i := 1; i <= count; i++ {
		s.questions = append(s.questions, question.Question{
			ID:             fmt.Sprintf("q%d", i),
			Prompt:         fmt.Sprintf("What is %d+%d?", i, i),
			ExpectedAnswer: fmt.Sprintf("%d", 2*i),
		})
	}
	return nil
}

func (s *featureState) theBuiltInQuestions() error {
	s.questions = question.DefaultQuestions()
	return nil
}

// aQuestionsFile writes the doc string to questions.yml in the scratch directory.
func (s *featureState) aQuestionsFile(body *godog.DocString) error {
	s.filePath = filepath.Join(s.workDir, "questions.yml")
	return os.WriteFile(s.filePath, []byte(body.Content), 0o644)
}

// theModelAnswersCorrectly scripts a model that echoes every expected answer.
func (s *featureState) theModelAnswersCorrectly() error {
	expected := map[string]string{}
	for _, item := range s.questions {
		expected[item.ID] = item.ExpectedAnswer
	}
	s.scriptedModel().Fallback = func(req gateway.Request) (gateway.Answer, error) {
		return gateway.Answer{Text: "The answer is " + expected[req.QuestionID] + "."}, nil
	}
	return nil
}

func (s *featureState) theModelFailsTransiently(strategy, questionID string) error {
	err := &gateway.TransientError{StatusCode: 503, Err: errors.New("service unavailable")}
	s.scriptedModel().On(questionID, prompt.Strategy(strategy), testutil.Reply{Err: err})
	return nil
}

func (s *featureState) theModelFailsFatally(strategy, questionID string) error {
	err := &gateway.FatalError{StatusCode: 401, Err: errors.New("invalid api key")}
	s.scriptedModel().On(questionID, prompt.Strategy(strategy), testutil.Reply{Err: err})
	return nil
}

func (s *featureState) scriptedModel() *testutil.ScriptedGateway {
	if s.script == nil {
		s.script = testutil.NewScriptedGateway()
	}
	return s.script
}

func (s *featureState) iRunDryRun() error {
	return s.run(gateway.NewDryRunGateway(), record.ModeDryRun, "")
}

func (s *featureState) iRunAgainstTheModel() error {
	if s.script == nil {
		return fmt.Errorf("no model behavior was described")
	}
	return s.run(s.script, record.ModeLive, "")
}

func (s *featureState) iReplayThePreviousRun() error {
	previous, err := s.lastRun()
	if err != nil {
		return err
	}
	source := "previous/results.json"
	return s.run(gateway.NewReplayGateway(previous, source), record.ModeReplay, source)
}

// run executes the comparison in process with a frozen clock.
func (s *featureState) run(g gateway.Gateway, mode record.Mode, replaySource string) error {
	questions := s.questions
	if len(questions) == 0 {
		questions = question.DefaultQuestions()
	}
	runNumber := len(s.runs) + 1
	rec, err := runner.Run(context.Background(), questions, runner.RunParams{
		Gateway:      g,
		Builder:      prompt.NewBuilder(),
		Mode:         mode,
		Model:        "feature-model",
		Temperature:  0.1,
		ReplaySource: replaySource,
		Deps: runner.RunDependencies{
			RunID: func(time.Time, string) (string, error) { return fmt.Sprintf("run-%d", runNumber), nil },
			Now:   func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
			Sleep: testutil.NoSleep,
		},
	})
	s.runs = append(s.runs, rec)
	s.runErr = err
	return nil
}

func (s *featureState) theAnswerIsJudged(answer, expected string) error {
	s.verdict = judge.Judge(answer, expected)
	return nil
}

// iRunTheCommand runs the CLI in process. {questions} expands to the
// scenario questions file and {output} to a scratch output directory.
func (s *featureState) iRunTheCommand(command string) error {
	replacer := strings.NewReplacer(
		"{questions}", s.filePath,
		"{output}", s.outputDir(),
	)
	args := strings.Fields(replacer.Replace(command))
	if len(args) > 0 && args[0] == "cotbench" {
		args = args[1:]
	}
	s.stdout.Reset()
	s.stderr.Reset()
	s.exitCode = cli.RunWith(context.Background(), args, &s.stdout, &s.stderr, cli.Dependencies{
		LookupEnv: func(string) (string, bool) { return "", false },
		Sleep:     testutil.NoSleep,
		WorkDir:   s.workDir,
	})
	return nil
}

func (s *featureState) outputDir() string {
	return filepath.Join(s.workDir, "outputs")
}

func (s *featureState) lastRun() (record.RunRecord, error) {
	if len(s.runs) == 0 {
		return record.RunRecord{}, fmt.Errorf("no run has been performed")
	}
	return s.runs[len(s.runs)-1], nil
}
