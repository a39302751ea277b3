package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	v, err := Parse("v1.2.3")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), v.Major())
	assert.Equal(t, uint64(2), v.Minor())
	assert.Equal(t, uint64(3), v.Patch())
}

func TestParseRejectsInvalidFormat(t *testing.T) {
	t.Parallel()

	invalid := []string{
		"",
		"1",
		"1.2",
		"1.2.3.4",
		"1.2.x",
		">=1.2.3",
		"1.2.3-beta",
	}

	for _, raw := range invalid {
		_, err := Parse(raw)
		assert.Error(t, err, "expected parse error for %q", raw)
	}
}

func TestEnsureCompatible(t *testing.T) {
	t.Parallel()

	current, err := Parse(Version)
	require.NoError(t, err)

	assert.NoError(t, EnsureCompatible(""), "empty version should be accepted")
	assert.NoError(t, EnsureCompatible(current.String()), "current version should be compatible")

	newerPatch := current.IncPatch()
	assert.Error(t, EnsureCompatible(newerPatch.String()), "newer patch should be rejected")

	nextMajor := current.IncMajor()
	assert.Error(t, EnsureCompatible(nextMajor.String()), "major mismatch should be rejected")
}
