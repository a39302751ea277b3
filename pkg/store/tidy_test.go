package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTidyDropsEntriesOutsideFileSet(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	a := writeDataFile(t, s, "a.bin", "alpha")
	old := writeDataFile(t, s, "old.bin", "retired")
	require.NoError(t, s.SaveManifest(Manifest{"a.bin": a, "old.bin": old}))

	res, err := s.Tidy([]string{"a.bin"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.bin"}, res.RemovedEntries)
	assert.Empty(t, res.RemovedFiles)
	assert.Equal(t, []string{s.ManifestPath()}, res.ChangedPaths)

	m, err := s.ReadManifest()
	require.NoError(t, err)
	assert.Equal(t, Manifest{"a.bin": a}, m)

	_, err = os.Stat(s.FilePath("old.bin"))
	assert.NoError(t, err, "files stay unless removal is requested")
}

func TestTidyRemovesFilesAndPartials(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	a := writeDataFile(t, s, "a.bin", "alpha")
	old := writeDataFile(t, s, "old.bin", "retired")
	require.NoError(t, s.SaveManifest(Manifest{"a.bin": a, "old.bin": old}))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root, ".b.bin.123.partial"), []byte("half"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root, "notes.txt"), []byte("keep"), 0o644))

	res, err := s.Tidy([]string{"a.bin", "b.bin"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.bin"}, res.RemovedFiles)
	assert.Equal(t, []string{".b.bin.123.partial"}, res.RemovedPartial)

	for _, gone := range []string{"old.bin", ".b.bin.123.partial"} {
		_, err := os.Stat(filepath.Join(s.Root, gone))
		assert.True(t, os.IsNotExist(err), "%s should be removed", gone)
	}
	for _, kept := range []string{"a.bin", "notes.txt"} {
		_, err := os.Stat(filepath.Join(s.Root, kept))
		assert.NoError(t, err, "%s should be kept", kept)
	}
}

func TestTidyNothingToDo(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	a := writeDataFile(t, s, "a.bin", "alpha")
	require.NoError(t, s.SaveManifest(Manifest{"a.bin": a}))

	res, err := s.Tidy([]string{"a.bin"}, true)
	require.NoError(t, err)
	assert.Empty(t, res.ChangedPaths)
}

func TestTidyRejectsInvalidNames(t *testing.T) {
	t.Parallel()

	_, err := testStore(t).Tidy([]string{"../a.bin"}, false)
	assert.Error(t, err)
}

func TestTidyKeepsRequiredPartialLookingFiles(t *testing.T) {
	t.Parallel()

	s := testStore(t)
	model := writeDataFile(t, s, ".model.partial", "weights")
	stamped := writeDataFile(t, s, ".cache.7.partial", "stamped")
	require.NoError(t, s.SaveManifest(Manifest{".model.partial": model, ".cache.7.partial": stamped}))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root, ".a.bin.123.partial"), []byte("half"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root, ".draft.partial"), []byte("mine"), 0o644))

	res, err := s.Tidy([]string{".model.partial", ".cache.7.partial", "a.bin"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{".a.bin.123.partial"}, res.RemovedPartial)

	for _, kept := range []string{".model.partial", ".cache.7.partial", ".draft.partial"} {
		_, err := os.Stat(filepath.Join(s.Root, kept))
		assert.NoError(t, err, "%s should be kept", kept)
	}
	_, err = os.Stat(filepath.Join(s.Root, ".a.bin.123.partial"))
	assert.True(t, os.IsNotExist(err))
}

func TestIsPartialName(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]bool{
		".a.bin.123.partial": true,
		".a.0.partial":       true,
		".model.partial":     false,
		"a.bin.123.partial":  false,
		"..123.partial":      false,
		".a.bin..partial":    false,
		".a.bin.12x.partial": false,
		".a.bin.123":         false,
	} {
		assert.Equal(t, want, isPartialName(name), name)
	}
}
