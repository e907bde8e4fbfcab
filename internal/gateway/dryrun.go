package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// dryRunTemplates are the synthetic answer shapes. The hash picks one, so a
// given prompt always produces the same text. The number is the only digit
// run in an answer, so the judge never matches digits of the tag.
var dryRunTemplates = []string{
	"[dry-run %s] The answer is %d.",
	"[dry-run %s] Let me work through it. First restate the quantities, then combine them step by step. So the final answer is %d.",
	"[dry-run %s] %d",
	"[dry-run %s] I am not sure, but my best guess is %d.",
}

// DryRunGateway produces deterministic synthetic answers derived only from
// the prompt text. It never touches the network and never fails.
type DryRunGateway struct{}

// NewDryRunGateway returns a DryRunGateway.
func NewDryRunGateway() DryRunGateway {
	return DryRunGateway{}
}

// Answer returns the synthetic answer for req.Prompt.
func (DryRunGateway) Answer(_ context.Context, req Request) (Answer, error) {
	return Answer{Text: SyntheticAnswer(req.Prompt)}, nil
}

// SyntheticAnswer maps a prompt to its dry-run answer.
func SyntheticAnswer(promptText string) string {
	sum := sha256.Sum256([]byte(promptText))
	selector := binary.BigEndian.Uint64(sum[:8])
	template := dryRunTemplates[selector%uint64(len(dryRunTemplates))]
	value := binary.BigEndian.Uint64(sum[8:16]) % 100
	return fmt.Sprintf(template, letterTag(sum[:4]), value)
}

// letterTag spells each nibble of b as one letter from g to v.
func letterTag(b []byte) string {
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = append(out, 'g'+c>>4, 'g'+c&0x0f)
	}
	return string(out)
}
