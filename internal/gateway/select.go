package gateway

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cotbench/internal/record"
)

// Options configures NewForMode.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     HTTPDoer
	RequestTimeout time.Duration
	RetryWait      time.Duration
	// ReplayPath is the results.json to replay. Ignored unless ReplayRecord is nil.
	ReplayPath   string
	ReplayRecord *record.RunRecord
	Logger       *slog.Logger
}

// Selection is the gateway chosen for a run plus what it was built from.
type Selection struct {
	Gateway Gateway
	// Replay is the source record in replay mode.
	Replay *record.RunRecord
	// ReplaySource names the replay file in replay mode.
	ReplaySource string
}

// NewForMode builds the gateway for mode once, at run start. Live gateways
// are wrapped with a single transient retry.
func NewForMode(mode record.Mode, opts Options) (Selection, error) {
	switch mode {
	case record.ModeLive:
		live, err := NewLiveGateway(opts.APIKey, opts.BaseURL, opts.HTTPClient)
		if err != nil {
			return Selection{}, err
		}
		if opts.RequestTimeout > 0 {
			live.RequestTimeout = opts.RequestTimeout
		}
		wait := opts.RetryWait
		if wait == 0 {
			wait = DefaultRetryWait
		}
		return Selection{Gateway: WithRetry(live, RetryPolicy{Wait: wait, Logger: opts.Logger})}, nil
	case record.ModeDryRun:
		return Selection{Gateway: NewDryRunGateway()}, nil
	case record.ModeReplay:
		if opts.ReplayRecord != nil {
			rec := *opts.ReplayRecord
			if err := checkReplayable(rec, opts.ReplayPath); err != nil {
				return Selection{}, err
			}
			replay := NewReplayGateway(rec, opts.ReplayPath)
			return Selection{Gateway: replay, Replay: &rec, ReplaySource: replay.Source()}, nil
		}
		if strings.TrimSpace(opts.ReplayPath) == "" {
			return Selection{}, &FatalError{Err: errors.New("replay mode requires a replay source file")}
		}
		replay, rec, err := LoadReplayGateway(opts.ReplayPath)
		if err != nil {
			return Selection{}, err
		}
		return Selection{Gateway: replay, Replay: &rec, ReplaySource: replay.Source()}, nil
	default:
		return Selection{}, &FatalError{Err: fmt.Errorf("unsupported mode %q", mode)}
	}
}
