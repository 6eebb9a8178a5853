package pathfilter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExcludes_LiteralPrefix(t *testing.T) {
	f := New([]string{"/var/log", "/proc"})

	assert.True(t, f.Excludes("/var/log"))
	assert.True(t, f.Excludes("/var/log/syslog"))
	assert.True(t, f.Excludes("/proc/self/status"))
	assert.False(t, f.Excludes("/var/lib/data"))
	assert.False(t, f.Excludes("/etc/passwd"))
}

func TestExcludes_GlobExpandedOncePerRun(t *testing.T) {
	base := t.TempDir()
	for _, d := range []string{"alice/.cache/fontconfig", "bob/.cache", "carol/docs"} {
		require.NoError(t, os.MkdirAll(filepath.Join(base, d), 0o755))
	}

	f := New([]string{filepath.Join(base, "*", ".cache")})

	assert.True(t, f.Excludes(filepath.Join(base, "alice", ".cache")))
	assert.True(t, f.Excludes(filepath.Join(base, "alice", ".cache", "fontconfig", "x")))
	assert.True(t, f.Excludes(filepath.Join(base, "bob", ".cache")))
	assert.False(t, f.Excludes(filepath.Join(base, "carol", "docs")))
	assert.False(t, f.Excludes(filepath.Join(base, "alice")))

	// A directory matching the pattern but created after compilation is
	// not excluded: the expansion is fixed for the run.
	require.NoError(t, os.MkdirAll(filepath.Join(base, "dave", ".cache"), 0o755))
	assert.False(t, f.Excludes(filepath.Join(base, "dave", ".cache")))
}

func TestExcludes_SiblingWithCommonPrefixNotCovered(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "ab"), 0o755))

	f := New([]string{filepath.Join(base, "a?")})

	assert.True(t, f.Excludes(filepath.Join(base, "ab")))
	assert.True(t, f.Excludes(filepath.Join(base, "ab", "file")))
	// Nested-under means path components, not string prefixes.
	assert.False(t, f.Excludes(filepath.Join(base, "ab2")))
}

func TestNew_SkipsMalformedPattern(t *testing.T) {
	f := New([]string{"[", "/var/log"})

	assert.True(t, f.Excludes("/var/log/syslog"))
	assert.False(t, f.Excludes("/etc"))
}

func TestExcludes_EmptyRuleList(t *testing.T) {
	f := New(nil)
	assert.False(t, f.Excludes("/anything"))
}
