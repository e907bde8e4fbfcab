package question

import (
	"fmt"
	"strings"
)

// Issue captures a validation problem in a question list.
type Issue struct {
	Field   string
	Message string
}

// ValidationError reports one or more validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error returns a readable message for validation failures.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("question validation failed: %s", strings.Join(parts, "; "))
}

type issueCollector struct {
	issues []Issue
}

func (collector *issueCollector) add(field, message string) {
	collector.issues = append(collector.issues, Issue{Field: field, Message: message})
}

func (collector *issueCollector) result() error {
	if len(collector.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: collector.issues}
}

// Normalize trims whitespace and validates a question list. The returned
// slice is a copy; the input is not modified.
func Normalize(questions []Question) ([]Question, error) {
	collector := &issueCollector{}
	if len(questions) == 0 {
		collector.add("questions", "must include at least one entry")
	}

	out := make([]Question, len(questions))
	seenIDs := map[string]struct{}{}
	for i, question := range questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		question.ID = strings.TrimSpace(question.ID)
		if question.ID == "" {
			collector.add(prefix+".id", "is required")
		} else if _, exists := seenIDs[question.ID]; exists {
			collector.add(prefix+".id", fmt.Sprintf("duplicate id %q", question.ID))
		} else {
			seenIDs[question.ID] = struct{}{}
		}

		question.Prompt = strings.TrimSpace(question.Prompt)
		if question.Prompt == "" {
			collector.add(prefix+".prompt", "is required")
		}

		question.ExpectedAnswer = strings.TrimSpace(question.ExpectedAnswer)
		if question.ExpectedAnswer == "" {
			collector.add(prefix+".expected_answer", "is required")
		}

		question.Metadata = copyMetadata(question.Metadata)
		out[i] = question
	}

	if err := collector.result(); err != nil {
		return nil, err
	}
	return out, nil
}

func copyMetadata(metadata map[string]string) map[string]string {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for key, value := range metadata {
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}
