package runner

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// runIDLayout is the UTC timestamp prefix of every run id.
const runIDLayout = "20060102T150405Z"

// FormatRunID renders the base run id for now and an optional tag.
func FormatRunID(now time.Time, tag string) string {
	base := now.UTC().Format(runIDLayout)
	tag = SanitizeTag(tag)
	if tag == "" {
		return base
	}
	return base + "-" + tag
}

// SanitizeTag keeps letters, digits, dot, dash and underscore so a tag is
// safe inside a directory name. Other runs of characters become one dash.
func SanitizeTag(tag string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(tag) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
			dash = r == '-'
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.Trim(b.String(), "-.")
}

// RunIDAllocator hands out run ids that are unique within the process and
// do not collide with directories already under an output root.
type RunIDAllocator struct {
	mu      sync.Mutex
	issued  map[string]struct{}
	entropy io.Reader
}

// NewRunIDAllocator builds an allocator. A nil entropy source uses a
// monotonic reader over crypto/rand.
func NewRunIDAllocator(entropy io.Reader) *RunIDAllocator {
	if entropy == nil {
		entropy = ulid.Monotonic(rand.Reader, 0)
	}
	return &RunIDAllocator{issued: map[string]struct{}{}, entropy: entropy}
}

// Allocate returns FormatRunID(now, tag), made unique with Reserve.
func (a *RunIDAllocator) Allocate(now time.Time, tag, outputRoot string) (string, error) {
	return a.Reserve(FormatRunID(now, tag), now, outputRoot)
}

// Reserve returns base, appending a lowercase ULID when base was already
// issued or <outputRoot>/<base> exists.
func (a *RunIDAllocator) Reserve(base string, now time.Time, outputRoot string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	candidate := base
	for attempt := 0; a.taken(candidate, outputRoot); attempt++ {
		if attempt >= 8 {
			return "", fmt.Errorf("allocate run id: %s is taken", base)
		}
		id, err := ulid.New(ulid.Timestamp(now), a.entropy)
		if err != nil {
			return "", fmt.Errorf("allocate run id: %w", err)
		}
		candidate = base + "-" + strings.ToLower(id.String())
	}
	a.issued[candidate] = struct{}{}
	return candidate, nil
}

// taken reports whether id was issued before or already has a directory.
func (a *RunIDAllocator) taken(id, outputRoot string) bool {
	if _, ok := a.issued[id]; ok {
		return true
	}
	if strings.TrimSpace(outputRoot) == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(outputRoot, id))
	return err == nil
}

var defaultRunIDs = NewRunIDAllocator(nil)

// NewRunID allocates a run id from the process-wide allocator.
func NewRunID(now time.Time, tag, outputRoot string) (string, error) {
	return defaultRunIDs.Allocate(now, tag, outputRoot)
}

// ReserveRunID makes base unique with the process-wide allocator.
func ReserveRunID(base string, now time.Time, outputRoot string) (string, error) {
	return defaultRunIDs.Reserve(base, now, outputRoot)
}
