//go:build cucumber
// +build cucumber

package cucumber

import (
	"bytes"
	"context"
	"os"

	"github.com/cucumber/godog"

	"cotbench/internal/judge"
	"cotbench/internal/question"
	"cotbench/internal/record"
	"cotbench/internal/testutil"
)

// featureState holds scenario state for comparison features.
type featureState struct {
	workDir   string
	questions []question.Question
	script    *testutil.ScriptedGateway
	runs      []record.RunRecord
	runErr    error
	verdict   judge.Verdict
	filePath  string
	stdout    bytes.Buffer
	stderr    bytes.Buffer
	exitCode  int
}

// InitializeScenario wires cucumber steps to the feature state.
func InitializeScenario(ctx *godog.ScenarioContext) {
	state := &featureState{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, state.reset()
	})

	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		state.cleanup()
		return ctx, nil
	})

	ctx.Step(`^the questions:$`, state.theQuestions)
	ctx.Step(`^(\d+) numbered questions$`, state.numberedQuestions)
	ctx.Step(`^the built-in questions$`, state.theBuiltInQuestions)
	ctx.Step(`^a questions file:$`, state.aQuestionsFile)
	ctx.Step(`^the model answers every question correctly$`, state.theModelAnswersCorrectly)
	ctx.Step(`^the model fails transiently on the (direct|cot) call for "([^"]+)"$`, state.theModelFailsTransiently)
	ctx.Step(`^the model fails fatally on the (direct|cot) call for "([^"]+)"$`, state.theModelFailsFatally)

	ctx.Step(`^I run the comparison in dry-run mode$`, state.iRunDryRun)
	ctx.Step(`^I run the comparison against the model$`, state.iRunAgainstTheModel)
	ctx.Step(`^I replay the previous run$`, state.iReplayThePreviousRun)
	ctx.Step(`^the answer "([^"]*)" is judged against "([^"]*)"$`, state.theAnswerIsJudged)
	ctx.Step(`^I run the command "([^"]+)"$`, state.iRunTheCommand)

	ctx.Step(`^the run lists questions "([^"]+)" in order$`, state.theRunListsQuestionsInOrder)
	ctx.Step(`^every question has a direct and a cot result$`, state.everyQuestionHasBothResults)
	ctx.Step(`^both runs produced identical answers$`, state.bothRunsProducedIdenticalAnswers)
	ctx.Step(`^the last run mode is "([^"]+)"$`, state.theLastRunModeIs)
	ctx.Step(`^question "([^"]+)" has an error on (direct|cot)$`, state.questionHasAnError)
	ctx.Step(`^question "([^"]+)" has a correct (direct|cot) answer$`, state.questionHasACorrectAnswer)
	ctx.Step(`^the run is not aborted$`, state.theRunIsNotAborted)
	ctx.Step(`^the run is aborted after (\d+) completed questions?$`, state.theRunIsAbortedAfter)
	ctx.Step(`^the verdict is (correct|wrong)$`, state.theVerdictIs)
	ctx.Step(`^the exit code is (\d+)$`, state.theExitCodeIs)
	ctx.Step(`^(stdout|stderr) mentions "([^"]+)"$`, state.outputMentions)
	ctx.Step(`^the output directory holds one run with "([^"]+)"$`, state.theOutputDirectoryHolds)
}

// reset gives each scenario a fresh scratch directory.
func (s *featureState) reset() error {
	dir, err := os.MkdirTemp("", "cotbench-feature-*")
	if err != nil {
		return err
	}
	*s = featureState{workDir: dir}
	return nil
}

// cleanup removes the scratch directory.
func (s *featureState) cleanup() {
	if s.workDir != "" {
		_ = os.RemoveAll(s.workDir)
	}
}
