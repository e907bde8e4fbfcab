package record

import "time"

// Meta carries the run-level fields stamped onto a RunRecord.
type Meta struct {
	RunID          string
	Mode           Mode
	ModelName      string
	Temperature    float64
	CreatedAt      time.Time
	Tag            string
	QuestionSource string
	CoTSuffix      string
	DirectSuffix   string
	ReplaySource   string
}

// Finalize assembles a RunRecord from meta and the completed question results.
// A zero CreatedAt is stamped with the current UTC time.
func Finalize(meta Meta, questions []QuestionResult) RunRecord {
	createdAt := meta.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	items := make([]QuestionResult, len(questions))
	copy(items, questions)
	return RunRecord{
		RunID:          meta.RunID,
		Mode:           meta.Mode,
		ModelName:      meta.ModelName,
		Temperature:    meta.Temperature,
		CreatedAt:      createdAt,
		Tag:            meta.Tag,
		QuestionSource: meta.QuestionSource,
		CoTSuffix:      meta.CoTSuffix,
		DirectSuffix:   meta.DirectSuffix,
		ReplaySource:   meta.ReplaySource,
		Questions:      items,
		Summary:        Summarize(items),
	}
}

// MarkAborted flags a record as aborted with a reason.
func (r *RunRecord) MarkAborted(reason string) {
	r.Aborted = true
	r.AbortReason = &reason
}

// Summarize aggregates accuracy metrics over question results.
func Summarize(questions []QuestionResult) Summary {
	summary := Summary{QuestionsTotal: len(questions)}
	for _, item := range questions {
		if item.Direct.IsCorrect {
			summary.DirectCorrect++
		}
		if item.CoT.IsCorrect {
			summary.CoTCorrect++
		}
		if item.Direct.Failed() {
			summary.Errors++
		}
		if item.CoT.Failed() {
			summary.Errors++
		}
	}
	if summary.QuestionsTotal > 0 {
		summary.DirectAccuracy = float64(summary.DirectCorrect) / float64(summary.QuestionsTotal)
		summary.CoTAccuracy = float64(summary.CoTCorrect) / float64(summary.QuestionsTotal)
	}
	return summary
}
