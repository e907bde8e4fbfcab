package question

// Question is a single evaluation question with its expected answer.
type Question struct {
	ID             string            `json:"id" yaml:"id"`
	Prompt         string            `json:"prompt" yaml:"prompt"`
	ExpectedAnswer string            `json:"expected_answer" yaml:"expected_answer"`
	Metadata       map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Document is the versioned file envelope for a question list.
type Document struct {
	Version   int         `json:"version" yaml:"version"`
	Questions []fileEntry `json:"questions" yaml:"questions"`
}

// fileEntry is the on-disk shape of a question. It accepts the legacy
// ground_truth/rationale fields next to the current names.
type fileEntry struct {
	ID             string            `json:"id" yaml:"id"`
	Prompt         string            `json:"prompt" yaml:"prompt"`
	ExpectedAnswer string            `json:"expected_answer" yaml:"expected_answer"`
	GroundTruth    string            `json:"ground_truth" yaml:"ground_truth"`
	Rationale      string            `json:"rationale" yaml:"rationale"`
	Metadata       map[string]string `json:"metadata" yaml:"metadata"`
}
