package record

import (
	"fmt"
	"strings"
	"time"

	"cotbench/internal/prompt"
	"cotbench/internal/question"
)

// Mode identifies which model gateway produced a run.
type Mode string

const (
	// ModeLive calls the configured model endpoint.
	ModeLive Mode = "live"
	// ModeDryRun uses deterministic synthetic answers.
	ModeDryRun Mode = "dry_run"
	// ModeReplay plays back answers from a prior run.
	ModeReplay Mode = "replay"
)

// ParseMode converts a string into a Mode. Both dry_run and dry-run are accepted.
func ParseMode(value string) (Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "live":
		return ModeLive, nil
	case "dry_run", "dry-run", "dryrun":
		return ModeDryRun, nil
	case "replay":
		return ModeReplay, nil
	default:
		return "", fmt.Errorf("invalid mode %q (expected live|dry-run|replay)", value)
	}
}

// RunRecord is the full, reproducible artifact of one run.
type RunRecord struct {
	RunID          string           `json:"run_id"`
	Mode           Mode             `json:"mode"`
	ModelName      string           `json:"model_name"`
	Temperature    float64          `json:"temperature"`
	CreatedAt      time.Time        `json:"created_at"`
	Tag            string           `json:"tag,omitempty"`
	QuestionSource string           `json:"question_source,omitempty"`
	CoTSuffix      string           `json:"cot_suffix,omitempty"`
	DirectSuffix   string           `json:"direct_suffix,omitempty"`
	ReplaySource   string           `json:"replay_source,omitempty"`
	Aborted        bool             `json:"aborted"`
	AbortReason    *string          `json:"abort_reason"`
	Questions      []QuestionResult `json:"questions"`
	Summary        Summary          `json:"summary"`
}

// QuestionResult holds both strategy results for a question. The question
// fields are flattened into the JSON object.
type QuestionResult struct {
	question.Question
	Direct StrategyResult `json:"direct"`
	CoT    StrategyResult `json:"cot"`
}

// StrategyResult records one model call and its verdict.
type StrategyResult struct {
	Strategy         prompt.Strategy `json:"strategy"`
	PromptSent       string          `json:"prompt_sent"`
	RawAnswer        string          `json:"raw_answer"`
	NormalizedAnswer string          `json:"normalized_answer"`
	IsCorrect        bool            `json:"is_correct"`
	LatencyMs        *int64          `json:"latency_ms"`
	Error            *string         `json:"error"`
}

// Summary aggregates per-strategy accuracy for a run.
type Summary struct {
	QuestionsTotal int     `json:"questions_total"`
	DirectCorrect  int     `json:"direct_correct"`
	CoTCorrect     int     `json:"cot_correct"`
	DirectAccuracy float64 `json:"direct_accuracy"`
	CoTAccuracy    float64 `json:"cot_accuracy"`
	Errors         int     `json:"errors"`
}

// Result returns the result for a strategy.
func (q QuestionResult) Result(strategy prompt.Strategy) (StrategyResult, bool) {
	switch strategy {
	case prompt.StrategyDirect:
		return q.Direct, true
	case prompt.StrategyCoT:
		return q.CoT, true
	default:
		return StrategyResult{}, false
	}
}

// Failed reports whether the call behind this result failed.
func (s StrategyResult) Failed() bool {
	return s.Error != nil
}

// Find returns the question result with the given id.
func (r RunRecord) Find(id string) (QuestionResult, bool) {
	for _, item := range r.Questions {
		if item.ID == id {
			return item, true
		}
	}
	return QuestionResult{}, false
}
