package runner

import (
	"go/format"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cotbench/internal/record"
)

// TestObserverSourceIsFormatted keeps the aligned one-line methods gofmt clean.
func TestObserverSourceIsFormatted(t *testing.T) {
	src, err := os.ReadFile("observer.go")
	require.NoError(t, err)
	formatted, err := format.Source(src)
	require.NoError(t, err)
	assert.Equal(t, string(formatted), string(src))
}

// TestNopObserverAcceptsEveryEvent verifies the default observer is usable as-is.
func TestNopObserverAcceptsEveryEvent(t *testing.T) {
	var observer RunObserver = nopObserver{}
	assert.NotPanics(t, func() {
		observer.OnRunStart(RunInfo{})
		observer.OnStrategyResult(StrategyEvent{})
		observer.OnQuestionEnd(0, record.QuestionResult{})
		observer.OnRunEnd(record.RunRecord{}, nil)
	})
}
