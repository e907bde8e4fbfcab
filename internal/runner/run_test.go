package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cotbench/internal/gateway"
	"cotbench/internal/prompt"
	"cotbench/internal/question"
	"cotbench/internal/record"
	"cotbench/internal/testutil"
)

func sampleQuestions(n int) []question.Question {
	out := make([]question.Question, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, question.Question{
			ID:             fmt.Sprintf("q%d", i),
			Prompt:         fmt.Sprintf("What is %d+%d?", i, i),
			ExpectedAnswer: fmt.Sprintf("%d", 2*i),
		})
	}
	return out
}

// echoExpected answers every call with "The answer is <expected>".
func echoExpected(questions []question.Question) func(gateway.Request) (gateway.Answer, error) {
	expected := map[string]string{}
	for _, q := range questions {
		expected[q.ID] = q.ExpectedAnswer
	}
	return func(req gateway.Request) (gateway.Answer, error) {
		return gateway.Answer{Text: "The answer is " + expected[req.QuestionID] + "."}, nil
	}
}

func testParams(g gateway.Gateway) RunParams {
	return RunParams{
		Gateway:     g,
		Builder:     prompt.NewBuilder(),
		Mode:        record.ModeDryRun,
		Model:       "test-model",
		Temperature: 0.1,
		Deps: RunDependencies{
			RunID: func(time.Time, string) (string, error) { return "run-1", nil },
			Now:   func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
			Sleep: testutil.NoSleep,
		},
	}
}

// TestRunPreservesOrderAndTotality verifies one complete result per question, in input order.
func TestRunPreservesOrderAndTotality(t *testing.T) {
	questions := sampleQuestions(3)
	g := testutil.NewScriptedGateway()
	g.Fallback = echoExpected(questions)

	rec, err := Run(testutil.Context(t, time.Second), questions, testParams(g))
	require.NoError(t, err)

	require.Len(t, rec.Questions, 3)
	for i, item := range rec.Questions {
		assert.Equal(t, questions[i].ID, item.ID)
		assert.Equal(t, prompt.StrategyDirect, item.Direct.Strategy)
		assert.Equal(t, prompt.StrategyCoT, item.CoT.Strategy)
		assert.True(t, item.Direct.IsCorrect)
		assert.True(t, item.CoT.IsCorrect)
		assert.Equal(t, questions[i].Prompt, item.Direct.PromptSent)
		assert.Equal(t, questions[i].Prompt+" "+prompt.DefaultCoTSuffix, item.CoT.PromptSent)
	}
	assert.Equal(t, "run-1", rec.RunID)
	assert.Equal(t, record.ModeDryRun, rec.Mode)
	assert.False(t, rec.Aborted)
	assert.Nil(t, rec.AbortReason)
	assert.Equal(t, record.Summary{QuestionsTotal: 3, DirectCorrect: 3, CoTCorrect: 3, DirectAccuracy: 1, CoTAccuracy: 1}, rec.Summary)

	calls := g.Calls()
	require.Len(t, calls, 6)
	assert.Equal(t, "q1", calls[0].QuestionID)
	assert.Equal(t, prompt.StrategyDirect, calls[0].Strategy)
	assert.Equal(t, prompt.StrategyCoT, calls[1].Strategy)
	assert.Equal(t, "test-model", calls[0].Model)
}

// TestRunIsolatesTransientFailure verifies a failed cot call does not affect other results.
func TestRunIsolatesTransientFailure(t *testing.T) {
	questions := sampleQuestions(3)
	g := testutil.NewScriptedGateway().
		On("q2", prompt.StrategyCoT, testutil.Reply{Err: &gateway.TransientError{StatusCode: 503, Err: errors.New("overloaded")}})
	g.Fallback = echoExpected(questions)

	rec, err := Run(testutil.Context(t, time.Second), questions, testParams(g))
	require.NoError(t, err)
	require.Len(t, rec.Questions, 3)

	failed := rec.Questions[1].CoT
	require.NotNil(t, failed.Error)
	assert.Contains(t, *failed.Error, "overloaded")
	assert.False(t, failed.IsCorrect)
	assert.Empty(t, failed.RawAnswer)
	assert.Nil(t, failed.LatencyMs)
	assert.True(t, rec.Questions[1].Direct.IsCorrect)
	assert.True(t, rec.Questions[2].CoT.IsCorrect)
	assert.Equal(t, 1, rec.Summary.Errors)
	assert.Equal(t, 2, rec.Summary.CoTCorrect)
}

// TestRunRecordsReplayMismatch verifies mismatches are recorded and the run continues.
func TestRunRecordsReplayMismatch(t *testing.T) {
	questions := sampleQuestions(2)
	g := testutil.NewScriptedGateway().
		On("q1", prompt.StrategyDirect, testutil.Reply{Err: &gateway.ReplayMismatchError{QuestionID: "q1", Strategy: prompt.StrategyDirect, Reason: "question not found in replay source"}})
	g.Fallback = echoExpected(questions)

	rec, err := Run(testutil.Context(t, time.Second), questions, testParams(g))
	require.NoError(t, err)
	require.Len(t, rec.Questions, 2)
	require.NotNil(t, rec.Questions[0].Direct.Error)
	assert.Contains(t, *rec.Questions[0].Direct.Error, "replay mismatch")
	assert.Nil(t, rec.Questions[0].CoT.Error)
}

// TestRunAbortsOnFatal verifies a fatal error on question 2 of 5 keeps exactly one result.
func TestRunAbortsOnFatal(t *testing.T) {
	questions := sampleQuestions(5)
	fatal := &gateway.FatalError{StatusCode: 401, Err: errors.New("invalid api key")}
	g := testutil.NewScriptedGateway().On("q2", prompt.StrategyDirect, testutil.Reply{Err: fatal})
	g.Fallback = echoExpected(questions)

	rec, err := Run(testutil.Context(t, time.Second), questions, testParams(g))
	require.Error(t, err)

	var aborted *AbortedError
	require.ErrorAs(t, err, &aborted)
	assert.Equal(t, 1, aborted.Completed)
	assert.Equal(t, "q2", aborted.QuestionID)
	assert.True(t, gateway.IsFatal(err))

	require.Len(t, rec.Questions, 1)
	assert.Equal(t, "q1", rec.Questions[0].ID)
	assert.True(t, rec.Aborted)
	require.NotNil(t, rec.AbortReason)
	assert.Contains(t, *rec.AbortReason, "invalid api key")
	assert.Equal(t, 1, rec.Summary.QuestionsTotal)
	assert.Len(t, g.Calls(), 3)
}

// TestRunDropsHalfFinishedQuestion verifies a fatal cot call discards that question's direct result.
func TestRunDropsHalfFinishedQuestion(t *testing.T) {
	questions := sampleQuestions(2)
	g := testutil.NewScriptedGateway().On("q1", prompt.StrategyCoT, testutil.Reply{Err: &gateway.FatalError{Err: errors.New("forbidden")}})
	g.Fallback = echoExpected(questions)

	rec, err := Run(testutil.Context(t, time.Second), questions, testParams(g))
	require.Error(t, err)
	assert.Empty(t, rec.Questions)
	assert.True(t, rec.Aborted)
}

// TestRunAbortsAtDeadline verifies the whole-run timeout is checked before each call.
func TestRunAbortsAtDeadline(t *testing.T) {
	questions := sampleQuestions(3)
	g := testutil.NewScriptedGateway()
	g.Fallback = echoExpected(questions)
	clock := testutil.NewSteppingClock(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), time.Second)

	params := testParams(g)
	params.Deps.Now = clock.Now
	params.Timeout = 2500 * time.Millisecond

	rec, err := Run(testutil.Context(t, time.Second), questions, params)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeadlineExceeded)
	require.Len(t, rec.Questions, 1)
	assert.True(t, rec.Aborted)
	assert.Len(t, g.Calls(), 2)
}

// TestRunAbortsWhenCanceled verifies cancellation aborts before any call.
func TestRunAbortsWhenCanceled(t *testing.T) {
	g := testutil.NewScriptedGateway()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := Run(ctx, sampleQuestions(2), testParams(g))
	assert.ErrorIs(t, err, context.Canceled)
	var aborted *AbortedError
	assert.ErrorAs(t, err, &aborted)
	assert.Empty(t, rec.Questions)
	assert.Empty(t, g.Calls())
}

// TestRunPausesBetweenCalls verifies the pause is applied before every call but the first.
func TestRunPausesBetweenCalls(t *testing.T) {
	questions := sampleQuestions(2)
	g := testutil.NewScriptedGateway()
	g.Fallback = echoExpected(questions)
	var waits []time.Duration

	params := testParams(g)
	params.Pause = time.Second
	params.Deps.Sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	_, err := Run(testutil.Context(t, time.Second), questions, params)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second}, waits)
}

// TestRunRecordsLatency verifies timed answers carry latency and untimed ones do not.
func TestRunRecordsLatency(t *testing.T) {
	questions := sampleQuestions(1)
	g := testutil.NewScriptedGateway().
		On("q1", prompt.StrategyDirect, testutil.Reply{Text: "2", Latency: 1500 * time.Millisecond}).
		On("q1", prompt.StrategyCoT, testutil.Reply{Text: "so 2"})

	rec, err := Run(testutil.Context(t, time.Second), questions, testParams(g))
	require.NoError(t, err)
	require.NotNil(t, rec.Questions[0].Direct.LatencyMs)
	assert.Equal(t, int64(1500), *rec.Questions[0].Direct.LatencyMs)
	assert.Nil(t, rec.Questions[0].CoT.LatencyMs)
}

// TestRunDryRunIsIdempotent verifies two dry runs produce identical answers.
func TestRunDryRunIsIdempotent(t *testing.T) {
	questions := sampleQuestions(3)
	first, err := Run(testutil.Context(t, time.Second), questions, testParams(gateway.NewDryRunGateway()))
	require.NoError(t, err)
	second, err := Run(testutil.Context(t, time.Second), questions, testParams(gateway.NewDryRunGateway()))
	require.NoError(t, err)

	firstJSON, err := record.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := record.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

// TestRunReplayProjectsSource verifies replay reproduces raw and normalized answers.
func TestRunReplayProjectsSource(t *testing.T) {
	questions := sampleQuestions(3)
	g := testutil.NewScriptedGateway().
		On("q3", prompt.StrategyDirect, testutil.Reply{Text: "  Six!  "})
	g.Fallback = echoExpected(questions)
	source, err := Run(testutil.Context(t, time.Second), questions, testParams(g))
	require.NoError(t, err)

	params := testParams(gateway.NewReplayGateway(source, "source.json"))
	params.Mode = record.ModeReplay
	replayed, err := Run(testutil.Context(t, time.Second), questions, params)
	require.NoError(t, err)

	require.Len(t, replayed.Questions, len(source.Questions))
	for i := range source.Questions {
		for _, strategy := range prompt.Strategies {
			want, _ := source.Questions[i].Result(strategy)
			got, _ := replayed.Questions[i].Result(strategy)
			assert.Equal(t, want.RawAnswer, got.RawAnswer)
			assert.Equal(t, want.NormalizedAnswer, got.NormalizedAnswer)
			assert.Equal(t, want.IsCorrect, got.IsCorrect)
		}
	}
	assert.Equal(t, "six", replayed.Questions[2].Direct.NormalizedAnswer)
}

// TestRunRequiresGateway verifies a missing gateway is rejected up front.
func TestRunRequiresGateway(t *testing.T) {
	_, err := Run(context.Background(), sampleQuestions(1), RunParams{})
	assert.Error(t, err)
}

// TestRunObserverLifecycle verifies observer events arrive in call order.
func TestRunObserverLifecycle(t *testing.T) {
	questions := sampleQuestions(2)
	g := testutil.NewScriptedGateway()
	g.Fallback = echoExpected(questions)
	observer := &recordingObserver{}
	params := testParams(g)
	params.Observer = MultiObserver{observer}

	_, err := Run(testutil.Context(t, time.Second), questions, params)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"start:run-1:2",
		"strategy:q1:direct",
		"strategy:q1:cot",
		"question:q1",
		"strategy:q2:direct",
		"strategy:q2:cot",
		"question:q2",
		"end:2:<nil>",
	}, observer.events)
}

// TestRunAndPersistWritesOutputs verifies a finished run lands on disk.
func TestRunAndPersistWritesOutputs(t *testing.T) {
	questions := sampleQuestions(2)
	params := testParams(gateway.NewDryRunGateway())
	params.OutputRoot = t.TempDir()

	rec, paths, err := RunAndPersist(testutil.Context(t, time.Second), questions, params, PersistOptions{Markdown: true})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(params.OutputRoot, "run-1"), paths.RunDir())
	loaded, err := record.Load(paths.ResultsPath())
	require.NoError(t, err)
	assert.Equal(t, rec.RunID, loaded.RunID)
	assert.FileExists(t, paths.ComparisonPath())
	assert.FileExists(t, paths.MarkdownPath())
	assert.NoFileExists(t, paths.HTMLPath())
}

// TestRunAndPersistPartial verifies aborted runs are written only when requested.
func TestRunAndPersistPartial(t *testing.T) {
	questions := sampleQuestions(3)
	newGateway := func() *testutil.ScriptedGateway {
		g := testutil.NewScriptedGateway().On("q2", prompt.StrategyDirect, testutil.Reply{Err: &gateway.FatalError{Err: errors.New("quota")}})
		g.Fallback = echoExpected(questions)
		return g
	}

	root := t.TempDir()
	params := testParams(newGateway())
	params.OutputRoot = root
	_, paths, err := RunAndPersist(testutil.Context(t, time.Second), questions, params, PersistOptions{})
	require.Error(t, err)
	assert.Empty(t, paths.RunID)
	_, statErr := os.Stat(filepath.Join(root, "run-1"))
	assert.True(t, os.IsNotExist(statErr))

	params = testParams(newGateway())
	params.OutputRoot = root
	_, paths, err = RunAndPersist(testutil.Context(t, time.Second), questions, params, PersistOptions{PersistPartial: true})
	var aborted *AbortedError
	require.ErrorAs(t, err, &aborted)
	loaded, loadErr := record.Load(paths.ResultsPath())
	require.NoError(t, loadErr)
	assert.True(t, loaded.Aborted)
	assert.Len(t, loaded.Questions, 1)
}

// recordingObserver stores events for assertions.
type recordingObserver struct {
	events []string
}

func (o *recordingObserver) OnRunStart(info RunInfo) {
	o.events = append(o.events, fmt.Sprintf("start:%s:%d", info.RunID, info.Total))
}

func (o *recordingObserver) OnStrategyResult(event StrategyEvent) {
	o.events = append(o.events, fmt.Sprintf("strategy:%s:%s", event.QuestionID, event.Strategy))
}

func (o *recordingObserver) OnQuestionEnd(_ int, result record.QuestionResult) {
	o.events = append(o.events, "question:"+result.ID)
}

func (o *recordingObserver) OnRunEnd(rec record.RunRecord, err error) {
	o.events = append(o.events, fmt.Sprintf("end:%d:%v", len(rec.Questions), err))
}
