package gateway

import (
	"context"
	"log/slog"
	"time"
)

// DefaultRetryWait is the backoff before the single retry of a transient failure.
const DefaultRetryWait = 3 * time.Second

// RetryPolicy configures WithRetry.
type RetryPolicy struct {
	Wait   time.Duration
	Logger *slog.Logger
	// Sleep waits for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

type retryGateway struct {
	next   Gateway
	policy RetryPolicy
}

// WithRetry wraps g so a TransientError is retried exactly once after the
// policy's wait. Fatal, replay-mismatch, and context errors are returned as is.
func WithRetry(g Gateway, policy RetryPolicy) Gateway {
	if policy.Wait < 0 {
		policy.Wait = 0
	}
	if policy.Sleep == nil {
		policy.Sleep = SleepContext
	}
	if policy.Logger == nil {
		policy.Logger = slog.New(slog.DiscardHandler)
	}
	return &retryGateway{next: g, policy: policy}
}

// Answer calls the wrapped gateway, retrying once on a transient error.
func (r *retryGateway) Answer(ctx context.Context, req Request) (Answer, error) {
	answer, err := r.next.Answer(ctx, req)
	if err == nil || !IsTransient(err) || ctx.Err() != nil {
		return answer, err
	}
	r.policy.Logger.Warn("model call failed, retrying once",
		"question_id", req.QuestionID,
		"strategy", req.Strategy,
		"wait", r.policy.Wait,
		"error", err,
	)
	if sleepErr := r.policy.Sleep(ctx, r.policy.Wait); sleepErr != nil {
		return Answer{}, err
	}
	return r.next.Answer(ctx, req)
}

// SleepContext waits for d or returns ctx.Err() when ctx is done first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
