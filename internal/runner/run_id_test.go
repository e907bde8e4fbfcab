package runner

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFormatRunID verifies run ID formatting.
func TestFormatRunID(t *testing.T) {
	timestamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "20240102T020405Z", FormatRunID(timestamp, ""))
	assert.Equal(t, "20240102T020405Z-baseline", FormatRunID(timestamp, "baseline"))
	assert.Equal(t, "20240102T020405Z-gpt-4o-mini", FormatRunID(timestamp, " gpt 4o/mini "))
}

// TestSanitizeTag verifies unsafe characters are collapsed.
func TestSanitizeTag(t *testing.T) {
	assert.Equal(t, "a-b", SanitizeTag("a//b"))
	assert.Equal(t, "", SanitizeTag("../"))
	assert.Equal(t, "v1.2_rc", SanitizeTag("v1.2_rc"))
	assert.Equal(t, "x", SanitizeTag("测试x"))
}

// TestAllocateAppendsSuffixOnReuse verifies a second id for the same second gets a ULID suffix.
func TestAllocateAppendsSuffixOnReuse(t *testing.T) {
	timestamp := time.Date(2024, 6, 7, 8, 9, 10, 0, time.UTC)
	allocator := NewRunIDAllocator(bytes.NewReader(bytes.Repeat([]byte{0x11}, 64)))

	first, err := allocator.Allocate(timestamp, "", "")
	require.NoError(t, err)
	assert.Equal(t, "20240607T080910Z", first)

	second, err := allocator.Allocate(timestamp, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Regexp(t, regexp.MustCompile(`^20240607T080910Z-[0-9a-z]{26}$`), second)
}

// TestAllocateAvoidsExistingDirectory verifies ids never reuse an existing run directory.
func TestAllocateAvoidsExistingDirectory(t *testing.T) {
	root := t.TempDir()
	timestamp := time.Date(2024, 6, 7, 8, 9, 10, 0, time.UTC)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "20240607T080910Z-tag"), 0o755))

	id, err := NewRunIDAllocator(nil).Allocate(timestamp, "tag", root)
	require.NoError(t, err)
	assert.Regexp(t, `^20240607T080910Z-tag-[0-9a-z]{26}$`, id)
}

// TestNewRunIDUnique verifies the process-wide allocator never repeats.
func TestNewRunIDUnique(t *testing.T) {
	timestamp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	seen := map[string]struct{}{}
	for i := 0; i < 5; i++ {
		id, err := NewRunID(timestamp, "unique", "")
		require.NoError(t, err)
		_, dup := seen[id]
		assert.False(t, dup, "duplicate run id %s", id)
		seen[id] = struct{}{}
	}
}
