// Package judge grades free-text model answers against an expected answer.
//
// Grading is a best-effort heuristic meant to be spot-checked by a human:
// an answer is correct when, after normalization, it equals the expected
// answer or contains it as a contiguous substring. The substring rule lets a
// chain-of-thought answer bury the final answer inside its explanation, at
// the price of false positives when the expected text appears incidentally
// and false negatives when a correct answer is phrased differently.
package judge

import (
	"strings"
	"unicode"
)

// Verdict is the outcome of grading one answer.
type Verdict struct {
	Normalized string
	Correct    bool
}

// Normalize lowercases text, strips surrounding whitespace and punctuation,
// and collapses internal whitespace runs to a single space.
func Normalize(text string) string {
	lowered := strings.ToLower(text)
	trimmed := strings.TrimFunc(lowered, isTrimmable)
	return strings.Join(strings.Fields(trimmed), " ")
}

// Judge grades raw against expected. It never fails; an expected answer that
// normalizes to nothing is never matched.
func Judge(raw, expected string) Verdict {
	normalized := Normalize(raw)
	want := Normalize(expected)
	if want == "" {
		return Verdict{Normalized: normalized}
	}
	correct := normalized == want || strings.Contains(normalized, want)
	return Verdict{Normalized: normalized, Correct: correct}
}

func isTrimmable(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}
