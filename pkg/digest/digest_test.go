package digest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sumA = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()

	raw := "file:sha256:" + sumA

	v, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, v.String())
}

func TestParseRejectsInvalidFormat(t *testing.T) {
	t.Parallel()

	invalid := []string{
		"file:sha256",
		"dir:sha256:" + sumA,
		"file:sha256:abcd",
		"file:sha256:" + strings.Repeat("z", 64),
	}
	for _, raw := range invalid {
		_, err := Parse(raw)
		assert.Error(t, err, "expected parse error for %q", raw)
	}
}

func TestParseEmptyIsZero(t *testing.T) {
	t.Parallel()

	v, err := Parse("")
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}

func TestFromHexNormalizesCase(t *testing.T) {
	t.Parallel()

	d, err := FromHex(strings.ToUpper(sumA))
	require.NoError(t, err)
	assert.Equal(t, sumA, d.Sum)
	assert.Equal(t, KindFile, d.Kind)
}
