// Package gateway abstracts "get an answer for a prompt" behind one interface
// with live, dry-run, and replay implementations.
package gateway

import (
	"context"
	"time"

	"cotbench/internal/prompt"
)

// Request is a single model call.
type Request struct {
	QuestionID  string
	Strategy    prompt.Strategy
	Prompt      string
	Model       string
	Temperature float64
}

// Answer is the model's reply to a Request.
type Answer struct {
	Text string
	// Latency is the wall time of the call. It is only meaningful when Timed is set;
	// synthetic and replayed answers are untimed so their records stay reproducible.
	Latency time.Duration
	Timed   bool
}

// Gateway returns an answer for a prompt.
type Gateway interface {
	Answer(ctx context.Context, req Request) (Answer, error)
}

// Func adapts a function to the Gateway interface.
type Func func(ctx context.Context, req Request) (Answer, error)

// Answer calls f.
func (f Func) Answer(ctx context.Context, req Request) (Answer, error) {
	return f(ctx, req)
}
