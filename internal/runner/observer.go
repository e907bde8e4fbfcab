package runner

import (
	"cotbench/internal/prompt"
	"cotbench/internal/record"
)

// RunInfo describes a run as it starts.
type RunInfo struct {
	RunID          string
	Mode           record.Mode
	Model          string
	QuestionSource string
	Total          int
}

// StrategyEvent reports one finished model call.
type StrategyEvent struct {
	Index      int
	Total      int
	QuestionID string
	Strategy   prompt.Strategy
	Result     record.StrategyResult
}

// RunObserver receives run lifecycle events for console progress or logging.
type RunObserver interface {
	// OnRunStart signals the start of a run.
	OnRunStart(info RunInfo)
	// OnStrategyResult delivers each judged or failed call.
	OnStrategyResult(event StrategyEvent)
	// OnQuestionEnd signals that both strategies of a question completed.
	OnQuestionEnd(index int, result record.QuestionResult)
	// OnRunEnd signals run completion. err is non-nil when the run aborted.
	OnRunEnd(rec record.RunRecord, err error)
}

// nopObserver discards every event.
type nopObserver struct{}

func (nopObserver) OnRunStart(RunInfo)                       {}
func (nopObserver) OnStrategyResult(StrategyEvent)           {}
func (nopObserver) OnQuestionEnd(int, record.QuestionResult) {}
func (nopObserver) OnRunEnd(record.RunRecord, error)         {}

// MultiObserver fans events out to several observers in order.
type MultiObserver []RunObserver

// OnRunStart forwards to every observer.
func (m MultiObserver) OnRunStart(info RunInfo) {
	for _, o := range m {
		o.OnRunStart(info)
	}
}

// OnStrategyResult forwards to every observer.
func (m MultiObserver) OnStrategyResult(event StrategyEvent) {
	for _, o := range m {
		o.OnStrategyResult(event)
	}
}

// OnQuestionEnd forwards to every observer.
func (m MultiObserver) OnQuestionEnd(index int, result record.QuestionResult) {
	for _, o := range m {
		o.OnQuestionEnd(index, result)
	}
}

// OnRunEnd forwards to every observer.
func (m MultiObserver) OnRunEnd(rec record.RunRecord, err error) {
	for _, o := range m {
		o.OnRunEnd(rec, err)
	}
}
