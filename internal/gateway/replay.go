package gateway

import (
	"context"
	"fmt"

	"cotbench/internal/record"
)

// ReplayGateway plays back raw answers from a previously recorded run.
type ReplayGateway struct {
	source string
	byID   map[string]record.QuestionResult
}

// NewReplayGateway indexes rec for lookup by question id. source names the
// file the record came from and is only used in messages.
func NewReplayGateway(rec record.RunRecord, source string) *ReplayGateway {
	byID := make(map[string]record.QuestionResult, len(rec.Questions))
	for _, item := range rec.Questions {
		byID[item.ID] = item
	}
	return &ReplayGateway{source: source, byID: byID}
}

// LoadReplayGateway reads a results.json file read-only and indexes it. A
// file that is not a run record, or a record with no answers, is fatal.
func LoadReplayGateway(path string) (*ReplayGateway, record.RunRecord, error) {
	rec, err := record.Load(path)
	if err != nil {
		return nil, record.RunRecord{}, &FatalError{Err: fmt.Errorf("load replay source: %w", err)}
	}
	if err := checkReplayable(rec, path); err != nil {
		return nil, record.RunRecord{}, err
	}
	return NewReplayGateway(rec, path), rec, nil
}

// checkReplayable rejects records that cannot answer any question.
func checkReplayable(rec record.RunRecord, source string) error {
	if err := record.Validate(rec); err != nil {
		return &FatalError{Err: fmt.Errorf("replay source %s: %w", source, err)}
	}
	if len(rec.Questions) == 0 {
		return &FatalError{Err: fmt.Errorf("replay source %s has no recorded questions", source)}
	}
	return nil
}

// Source returns the replay source name.
func (g *ReplayGateway) Source() string {
	return g.source
}

// Answer returns the stored raw answer for (req.QuestionID, req.Strategy).
func (g *ReplayGateway) Answer(_ context.Context, req Request) (Answer, error) {
	item, ok := g.byID[req.QuestionID]
	if !ok {
		return Answer{}, &ReplayMismatchError{QuestionID: req.QuestionID, Strategy: req.Strategy, Reason: "question not found in replay source"}
	}
	result, ok := item.Result(req.Strategy)
	if !ok {
		return Answer{}, &ReplayMismatchError{QuestionID: req.QuestionID, Strategy: req.Strategy, Reason: "strategy not found in replay source"}
	}
	if result.Failed() {
		return Answer{}, &ReplayMismatchError{QuestionID: req.QuestionID, Strategy: req.Strategy, Reason: "replay source recorded an error: " + *result.Error}
	}
	return Answer{Text: result.RawAnswer}, nil
}
