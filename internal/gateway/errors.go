package gateway

import (
	"errors"
	"fmt"

	"cotbench/internal/prompt"
)

// ErrMissingAPIKey reports that live mode was requested without a credential.
var ErrMissingAPIKey = errors.New("api key is required for live mode (set OPENAI_API_KEY)")

// TransientError is a single-call failure that may succeed on retry, such as
// a network error, a rate limit, or a server error.
type TransientError struct {
	StatusCode int
	Err        error
}

// Error describes the failure.
func (e *TransientError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("transient model error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient model error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *TransientError) Unwrap() error { return e.Err }

// FatalError is an unrecoverable failure, such as bad credentials or
// configuration, that aborts the whole run.
type FatalError struct {
	StatusCode int
	Err        error
}

// Error describes the failure.
func (e *FatalError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fatal model error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fatal model error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *FatalError) Unwrap() error { return e.Err }

// ReplayMismatchError reports that a replay source has no usable answer for a
// question and strategy.
type ReplayMismatchError struct {
	QuestionID string
	Strategy   prompt.Strategy
	Reason     string
}

// Error describes the mismatch.
func (e *ReplayMismatchError) Error() string {
	return fmt.Sprintf("replay mismatch for %s/%s: %s", e.QuestionID, e.Strategy, e.Reason)
}

// IsTransient reports whether err is a TransientError.
func IsTransient(err error) bool {
	var target *TransientError
	return errors.As(err, &target)
}

// IsFatal reports whether err is a FatalError.
func IsFatal(err error) bool {
	var target *FatalError
	return errors.As(err, &target)
}

// IsReplayMismatch reports whether err is a ReplayMismatchError.
func IsReplayMismatch(err error) bool {
	var target *ReplayMismatchError
	return errors.As(err, &target)
}
