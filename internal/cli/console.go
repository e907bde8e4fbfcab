package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"cotbench/internal/record"
	"cotbench/internal/runner"
)

// consoleObserver prints one progress line per model call.
type consoleObserver struct {
	w      io.Writer
	bold   *color.Color
	green  *color.Color
	red    *color.Color
	yellow *color.Color
	dim    *color.Color
}

// newConsoleObserver builds a progress printer; colors are disabled unless colored is set.
func newConsoleObserver(w io.Writer, colored bool) *consoleObserver {
	o := &consoleObserver{
		w:      w,
		bold:   color.New(color.Bold),
		green:  color.New(color.FgGreen),
		red:    color.New(color.FgRed),
		yellow: color.New(color.FgYellow),
		dim:    color.New(color.Faint),
	}
	for _, c := range []*color.Color{o.bold, o.green, o.red, o.yellow, o.dim} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return o
}

// OnRunStart prints the run header.
func (o *consoleObserver) OnRunStart(info runner.RunInfo) {
	source := info.QuestionSource
	if source == "" {
		source = "builtin"
	}
	o.bold.Fprintf(o.w, "Run %s", info.RunID)
	fmt.Fprintf(o.w, " mode=%s model=%s questions=%d source=%s\n", info.Mode, info.Model, info.Total, source)
}

// OnStrategyResult prints one call outcome.
func (o *consoleObserver) OnStrategyResult(event runner.StrategyEvent) {
	fmt.Fprintf(o.w, "[%d/%d] %-12s %-6s ", event.Index+1, event.Total, event.QuestionID, event.Strategy)
	result := event.Result
	switch {
	case result.Failed():
		o.yellow.Fprintf(o.w, "error")
		fmt.Fprintf(o.w, " %s\n", *result.Error)
		return
	case result.IsCorrect:
		o.green.Fprint(o.w, "correct")
	default:
		o.red.Fprint(o.w, "wrong")
	}
	if result.LatencyMs != nil {
		o.dim.Fprintf(o.w, " (%dms)", *result.LatencyMs)
	}
	fmt.Fprintln(o.w)
}

// OnQuestionEnd is a no-op; per-call lines already cover progress.
func (o *consoleObserver) OnQuestionEnd(int, record.QuestionResult) {}

// OnRunEnd prints the abort reason when the run stopped early.
func (o *consoleObserver) OnRunEnd(rec record.RunRecord, err error) {
	if err == nil {
		return
	}
	o.red.Fprintf(o.w, "Run aborted after %d completed question(s): %v\n", len(rec.Questions), err)
}
