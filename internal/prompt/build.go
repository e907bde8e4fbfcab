package prompt

import (
	"fmt"
	"strings"

	"cotbench/internal/question"
)

// DefaultCoTSuffix is the reasoning cue appended for the cot strategy.
const DefaultCoTSuffix = "Let's think step by step, then state the final answer."

// Builder produces the exact prompt text sent to the model.
type Builder struct {
	// CoTSuffix is appended for StrategyCoT. Empty means DefaultCoTSuffix.
	CoTSuffix string
	// DirectSuffix is appended for StrategyDirect. Empty sends the bare question.
	DirectSuffix string
}

// NewBuilder returns a Builder using the default cot cue.
func NewBuilder() Builder {
	return Builder{CoTSuffix: DefaultCoTSuffix}
}

// Build returns the prompt for a question under a strategy.
func (b Builder) Build(item question.Question, strategy Strategy) (string, error) {
	switch strategy {
	case StrategyDirect:
		return withSuffix(item.Prompt, b.DirectSuffix), nil
	case StrategyCoT:
		suffix := b.CoTSuffix
		if strings.TrimSpace(suffix) == "" {
			suffix = DefaultCoTSuffix
		}
		return withSuffix(item.Prompt, suffix), nil
	default:
		return "", fmt.Errorf("unknown strategy %q", strategy)
	}
}

// withSuffix joins prompt and suffix with a single space, skipping the suffix
// when the prompt already ends with it.
func withSuffix(prompt, suffix string) string {
	prompt = strings.TrimSpace(prompt)
	suffix = strings.TrimSpace(suffix)
	if suffix == "" || strings.HasSuffix(prompt, suffix) {
		return prompt
	}
	return prompt + " " + suffix
}
