package prompt

import (
	"fmt"
	"strings"
)

// Strategy identifies how a question is posed to the model.
type Strategy string

const (
	// StrategyDirect asks for the answer with no reasoning cue.
	StrategyDirect Strategy = "direct"
	// StrategyCoT appends a step-by-step reasoning cue.
	StrategyCoT Strategy = "cot"
)

// Strategies lists the strategies in the order they are run for each question.
var Strategies = []Strategy{StrategyDirect, StrategyCoT}

// ParseStrategy converts a string into a Strategy.
func ParseStrategy(value string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(value))) {
	case StrategyDirect:
		return StrategyDirect, nil
	case StrategyCoT:
		return StrategyCoT, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (expected direct|cot)", value)
	}
}

// String returns the strategy name.
func (s Strategy) String() string {
	return string(s)
}
