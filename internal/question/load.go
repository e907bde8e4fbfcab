package question

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source yields the raw question list for a run.
type Source interface {
	// Name identifies the source in logs and run metadata.
	Name() string
	// Questions returns the unvalidated question list.
	Questions() ([]Question, error)
}

// DefaultSourceName is reported for the built-in question list.
const DefaultSourceName = "builtin"

type defaultSource struct {
	questions []Question
}

// DefaultSource wraps the built-in question list.
func DefaultSource() Source {
	return defaultSource{questions: DefaultQuestions()}
}

func (s defaultSource) Name() string { return DefaultSourceName }

func (s defaultSource) Questions() ([]Question, error) {
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out, nil
}

// FileSource reads questions from a JSON or YAML file.
type FileSource struct {
	Path string
}

// Name returns the file path.
func (s FileSource) Name() string { return s.Path }

// Questions reads and parses the file without validating it.
func (s FileSource) Questions() ([]Question, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	entries, err := parseEntries(data, s.Path)
	if err != nil {
		return nil, err
	}
	return entriesToQuestions(entries), nil
}

// SourceFor returns a FileSource for a non-empty path and the default source otherwise.
func SourceFor(path string) Source {
	if strings.TrimSpace(path) == "" {
		return DefaultSource()
	}
	return FileSource{Path: path}
}

// Load reads questions from source and validates them.
func Load(source Source) ([]Question, error) {
	if source == nil {
		source = DefaultSource()
	}
	questions, err := source.Questions()
	if err != nil {
		return nil, err
	}
	return Normalize(questions)
}

// LoadFile reads, parses, and validates a question file.
func LoadFile(path string) ([]Question, error) {
	return Load(FileSource{Path: path})
}

func parseEntries(data []byte, path string) ([]fileEntry, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		return parseJSONEntries(data)
	}
	return parseYAMLEntries(data)
}

func parseJSONEntries(data []byte) ([]fileEntry, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []fileEntry
		if err := decodeJSONStrict(trimmed, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}
	var doc Document
	if err := decodeJSONStrict(trimmed, &doc); err != nil {
		return nil, err
	}
	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}
	return doc.Questions, nil
}

func decodeJSONStrict(data []byte, target any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	var trailing json.RawMessage
	if err := decoder.Decode(&trailing); err != io.EOF {
		if err == nil {
			return fmt.Errorf("parse json: multiple documents are not supported")
		}
		return fmt.Errorf("parse json: %w", err)
	}
	return nil
}

func parseYAMLEntries(data []byte) ([]fileEntry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(root.Content) > 0 && root.Content[0].Kind == yaml.SequenceNode {
		var entries []fileEntry
		if err := decodeYAMLStrict(data, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}
	var doc Document
	if err := decodeYAMLStrict(data, &doc); err != nil {
		return nil, err
	}
	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}
	return doc.Questions, nil
}

func decodeYAMLStrict(data []byte, target any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("parse yaml: %w", err)
	}
	var trailing yaml.Node
	if err := decoder.Decode(&trailing); err != io.EOF {
		if err == nil {
			return fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

func checkVersion(version int) error {
	if version == 0 || version == 1 {
		return nil
	}
	return &ValidationError{Issues: []Issue{{Field: "version", Message: fmt.Sprintf("unsupported version %d", version)}}}
}

// entriesToQuestions folds legacy aliases into the current shape and assigns
// positional ids when the file carries none at all.
func entriesToQuestions(entries []fileEntry) []Question {
	anyID := false
	for _, entry := range entries {
		if strings.TrimSpace(entry.ID) != "" {
			anyID = true
			break
		}
	}
	questions := make([]Question, 0, len(entries))
	for i, entry := range entries {
		q := Question{
			ID:             entry.ID,
			Prompt:         entry.Prompt,
			ExpectedAnswer: entry.ExpectedAnswer,
		}
		if !anyID {
			q.ID = fmt.Sprintf("q%d", i+1)
		}
		if strings.TrimSpace(q.ExpectedAnswer) == "" {
			q.ExpectedAnswer = entry.GroundTruth
		}
		if len(entry.Metadata) > 0 || strings.TrimSpace(entry.Rationale) != "" {
			q.Metadata = make(map[string]string, len(entry.Metadata)+1)
			for key, value := range entry.Metadata {
				q.Metadata[key] = value
			}
			if rationale := strings.TrimSpace(entry.Rationale); rationale != "" {
				if _, exists := q.Metadata["rationale"]; !exists {
					q.Metadata["rationale"] = rationale
				}
			}
		}
		questions = append(questions, q)
	}
	return questions
}
