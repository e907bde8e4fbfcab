package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Marshal encodes a record as indented JSON without HTML escaping so CJK and
// comparison operators survive verbatim.
func Marshal(r RunRecord) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		return nil, fmt.Errorf("marshal run record: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads and validates a record from r. Unknown fields are rejected so
// files of another shape fail here instead of replaying as empty answers.
func Decode(r io.Reader) (RunRecord, error) {
	var out RunRecord
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&out); err != nil {
		return RunRecord{}, fmt.Errorf("decode run record: %w", err)
	}
	if err := Validate(out); err != nil {
		return RunRecord{}, err
	}
	return out, nil
}

// Load reads a results.json file written by a previous run.
func Load(path string) (RunRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return RunRecord{}, fmt.Errorf("open run record: %w", err)
	}
	defer file.Close()
	out, err := Decode(file)
	if err != nil {
		return RunRecord{}, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
