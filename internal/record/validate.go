package record

import (
	"fmt"
	"strings"
)

// Issue is one problem found in a stored run record.
type Issue struct {
	Field   string
	Message string
}

// ValidationError reports why a file is not a usable run record.
type ValidationError struct {
	Issues []Issue
}

func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("invalid run record: %s", strings.Join(parts, "; "))
}

// Validate checks the fields every written record carries: a run id, a known
// mode, and unique non-empty question ids. An aborted record may hold no questions.
func Validate(rec RunRecord) error {
	var issues []Issue
	add := func(field, message string) {
		issues = append(issues, Issue{Field: field, Message: message})
	}
	if strings.TrimSpace(rec.RunID) == "" {
		add("run_id", "is required")
	}
	if _, err := ParseMode(string(rec.Mode)); err != nil {
		add("mode", err.Error())
	}
	if len(rec.Questions) == 0 && !rec.Aborted {
		add("questions", "must include at least one entry")
	}
	seen := map[string]struct{}{}
	for i, item := range rec.Questions {
		field := fmt.Sprintf("questions[%d].id", i)
		if strings.TrimSpace(item.ID) == "" {
			add(field, "is required")
			continue
		}
		if _, dup := seen[item.ID]; dup {
			add(field, fmt.Sprintf("duplicate id %q", item.ID))
		}
		seen[item.ID] = struct{}{}
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}
