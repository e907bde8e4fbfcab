package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cotbench/internal/gateway"
	"cotbench/internal/judge"
	"cotbench/internal/prompt"
	"cotbench/internal/question"
	"cotbench/internal/record"
)

// ErrDeadlineExceeded is the abort cause when the whole-run timeout passes.
var ErrDeadlineExceeded = errors.New("run deadline exceeded")

// AbortedError is returned by Run when a fatal error or the deadline stopped
// the run before every question completed.
type AbortedError struct {
	Completed  int
	QuestionID string
	Cause      error
}

// Error describes the abort.
func (e *AbortedError) Error() string {
	return fmt.Sprintf("run aborted at question %q after %d completed: %v", e.QuestionID, e.Completed, e.Cause)
}

// Unwrap returns the abort cause.
func (e *AbortedError) Unwrap() error { return e.Cause }

// RunDependencies allows injecting clocks and id generation for a run.
type RunDependencies struct {
	RunID func(now time.Time, tag string) (string, error)
	Now   func() time.Time
	// Sleep waits between calls. Defaults to gateway.SleepContext.
	Sleep func(ctx context.Context, d time.Duration) error
}

// RunParams configures a run invocation.
type RunParams struct {
	Gateway        gateway.Gateway
	Builder        prompt.Builder
	Mode           record.Mode
	Model          string
	Temperature    float64
	Tag            string
	QuestionSource string
	ReplaySource   string
	// OutputRoot is consulted so run ids never reuse an existing directory.
	OutputRoot string
	// Timeout bounds the whole run. Zero means no limit.
	Timeout time.Duration
	// Pause is waited before every call except the first.
	Pause    time.Duration
	Observer RunObserver
	Logger   *slog.Logger
	Deps     RunDependencies
}

// Run processes questions strictly in order, calling the gateway for the
// direct then the cot prompt of each and judging both answers.
//
// Transient and replay mismatch failures are recorded on the strategy result
// and the run continues. A fatal gateway error, the run timeout, or context
// cancellation stops the run: the returned record then holds only completed
// questions, is marked aborted, and the error is an *AbortedError.
func Run(ctx context.Context, questions []question.Question, params RunParams) (record.RunRecord, error) {
	if params.Gateway == nil {
		return record.RunRecord{}, errors.New("gateway is required")
	}
	r := newRunState(params)

	startedAt := r.now()
	runID, err := r.runID(startedAt, params.Tag)
	if err != nil {
		return record.RunRecord{}, fmt.Errorf("run id: %w", err)
	}
	meta := record.Meta{
		RunID:          runID,
		Mode:           params.Mode,
		ModelName:      params.Model,
		Temperature:    params.Temperature,
		CreatedAt:      startedAt.UTC(),
		Tag:            params.Tag,
		QuestionSource: params.QuestionSource,
		CoTSuffix:      params.Builder.CoTSuffix,
		DirectSuffix:   params.Builder.DirectSuffix,
		ReplaySource:   params.ReplaySource,
	}
	if params.Timeout > 0 {
		r.deadline = startedAt.Add(params.Timeout)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, params.Timeout)
		defer cancel()
	}

	logger := r.logger.With("run_id", runID)
	logger.Info("run started", "mode", params.Mode, "model", params.Model, "questions", len(questions))
	r.observer.OnRunStart(RunInfo{
		RunID:          runID,
		Mode:           params.Mode,
		Model:          params.Model,
		QuestionSource: params.QuestionSource,
		Total:          len(questions),
	})

	completed := make([]record.QuestionResult, 0, len(questions))
	for index, q := range questions {
		item, err := r.runQuestion(ctx, logger, index, len(questions), q)
		if err != nil {
			abortErr := &AbortedError{Completed: len(completed), QuestionID: q.ID, Cause: err}
			rec := record.Finalize(meta, completed)
			rec.MarkAborted(err.Error())
			logger.Error("run aborted", "question_id", q.ID, "completed", len(completed), "error", err)
			r.observer.OnRunEnd(rec, abortErr)
			return rec, abortErr
		}
		completed = append(completed, item)
		r.observer.OnQuestionEnd(index, item)
	}

	rec := record.Finalize(meta, completed)
	logger.Info("run finished",
		"direct_correct", rec.Summary.DirectCorrect,
		"cot_correct", rec.Summary.CoTCorrect,
		"errors", rec.Summary.Errors,
	)
	r.observer.OnRunEnd(rec, nil)
	return rec, nil
}

// RunAndPersist runs and writes the record under params.OutputRoot. Aborted
// runs are written only when opts.PersistPartial is set; the abort error is
// still returned.
func RunAndPersist(ctx context.Context, questions []question.Question, params RunParams, opts PersistOptions) (record.RunRecord, OutputPaths, error) {
	rec, runErr := Run(ctx, questions, params)
	if runErr != nil {
		var aborted *AbortedError
		if !errors.As(runErr, &aborted) || !opts.PersistPartial {
			return rec, OutputPaths{}, runErr
		}
		persisted, paths, err := Persist(rec, params.OutputRoot, opts)
		if err != nil {
			return rec, OutputPaths{}, errors.Join(runErr, err)
		}
		return persisted, paths, runErr
	}
	persisted, paths, err := Persist(rec, params.OutputRoot, opts)
	if err != nil {
		return rec, OutputPaths{}, err
	}
	return persisted, paths, nil
}

// runState holds the resolved dependencies of one Run call.
type runState struct {
	params   RunParams
	now      func() time.Time
	runID    func(time.Time, string) (string, error)
	sleep    func(context.Context, time.Duration) error
	observer RunObserver
	logger   *slog.Logger
	deadline time.Time
	calls    int
}

// newRunState fills defaults for unset dependencies.
func newRunState(params RunParams) *runState {
	r := &runState{
		params:   params,
		now:      params.Deps.Now,
		runID:    params.Deps.RunID,
		sleep:    params.Deps.Sleep,
		observer: params.Observer,
		logger:   params.Logger,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.runID == nil {
		root := params.OutputRoot
		r.runID = func(now time.Time, tag string) (string, error) {
			return NewRunID(now, tag, root)
		}
	}
	if r.sleep == nil {
		r.sleep = gateway.SleepContext
	}
	if r.observer == nil {
		r.observer = nopObserver{}
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// runQuestion runs both strategies. A non-nil error aborts the run.
func (r *runState) runQuestion(ctx context.Context, logger *slog.Logger, index, total int, q question.Question) (record.QuestionResult, error) {
	item := record.QuestionResult{Question: q}
	for _, strategy := range prompt.Strategies {
		result, err := r.runStrategy(ctx, logger, q, strategy)
		if err != nil {
			return record.QuestionResult{}, err
		}
		switch strategy {
		case prompt.StrategyDirect:
			item.Direct = result
		case prompt.StrategyCoT:
			item.CoT = result
		}
		r.observer.OnStrategyResult(StrategyEvent{
			Index:      index,
			Total:      total,
			QuestionID: q.ID,
			Strategy:   strategy,
			Result:     result,
		})
	}
	return item, nil
}

// runStrategy performs one gateway call and judges it.
func (r *runState) runStrategy(ctx context.Context, logger *slog.Logger, q question.Question, strategy prompt.Strategy) (record.StrategyResult, error) {
	if r.calls > 0 && r.params.Pause > 0 {
		if err := r.sleep(ctx, r.params.Pause); err != nil {
			return record.StrategyResult{}, abortCause(err)
		}
	}
	if err := r.checkDeadline(ctx); err != nil {
		return record.StrategyResult{}, err
	}

	promptText, err := r.params.Builder.Build(q, strategy)
	if err != nil {
		return record.StrategyResult{}, fmt.Errorf("build %s prompt for %s: %w", strategy, q.ID, err)
	}
	r.calls++
	logger.Debug("calling model", "question_id", q.ID, "strategy", strategy)
	answer, err := r.params.Gateway.Answer(ctx, gateway.Request{
		QuestionID:  q.ID,
		Strategy:    strategy,
		Prompt:      promptText,
		Model:       r.params.Model,
		Temperature: r.params.Temperature,
	})

	result := record.StrategyResult{Strategy: strategy, PromptSent: promptText}
	if err != nil {
		if gateway.IsFatal(err) {
			return record.StrategyResult{}, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return record.StrategyResult{}, abortCause(ctxErr)
		}
		message := err.Error()
		result.Error = &message
		logger.Warn("model call failed", "question_id", q.ID, "strategy", strategy, "error", err)
		return result, nil
	}

	verdict := judge.Judge(answer.Text, q.ExpectedAnswer)
	result.RawAnswer = answer.Text
	result.NormalizedAnswer = verdict.Normalized
	result.IsCorrect = verdict.Correct
	if answer.Timed {
		ms := answer.Latency.Milliseconds()
		result.LatencyMs = &ms
	}
	logger.Debug("model answered", "question_id", q.ID, "strategy", strategy, "correct", verdict.Correct)
	return result, nil
}

// checkDeadline reports the abort cause when the run may not issue another call.
func (r *runState) checkDeadline(ctx context.Context) error {
	if !r.deadline.IsZero() && !r.now().Before(r.deadline) {
		return ErrDeadlineExceeded
	}
	if err := ctx.Err(); err != nil {
		return abortCause(err)
	}
	return nil
}

// abortCause maps a context deadline to ErrDeadlineExceeded.
func abortCause(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrDeadlineExceeded
	}
	return err
}
