package fileset

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/olimci/lakeprep/pkg/digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sumA = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

func TestLoadDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFileSet(t, filepath.Join(dir, Filename), `
[lakeprep]
version = "0.1.0"

[source]
name = "lake"
url = "https://example.org/lake"

[[file]]
name = "a.bin"
sha256 = "`+strings.ToUpper(sumA)+`"

[[file]]
name = "b.bin"
`)

	fs, loadedFrom, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, loadedFrom)
	assert.Equal(t, "lake", fs.Source.Name)
	assert.Equal(t, "https://example.org/lake", fs.Source.URL)
	assert.Equal(t, []string{"a.bin", "b.bin"}, fs.Names())

	want, err := digest.FromHex(sumA)
	require.NoError(t, err)
	assert.Equal(t, map[string]digest.Digest{"a.bin": want}, fs.Expected())
}

func TestLoadResolvesRelativeMirror(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sets", "lake.toml")
	writeFileSet(t, path, `
[source]
url = "../mirror"

[[file]]
name = "a.bin"
`)

	fs, loadedFrom, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(path), loadedFrom)

	canonical, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(canonical, "mirror"), fs.Source.URL)
}

func TestLoadRejectsInvalidFiles(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		body string
		want string
	}{
		"empty name":     {body: "[[file]]\nname = \"\"\n", want: "file name is empty"},
		"path separator": {body: "[[file]]\nname = \"sub/a.bin\"\n", want: "path separators"},
		"parent":         {body: "[[file]]\nname = \"..\"\n", want: "invalid file name"},
		"reserved":       {body: "[[file]]\nname = \".download_complete\"\n", want: "reserved"},
		"duplicate":      {body: "[[file]]\nname = \"a.bin\"\n[[file]]\nname = \"a.bin\"\n", want: "declared more than once"},
		"bad digest":     {body: "[[file]]\nname = \"a.bin\"\nsha256 = \"abc\"\n", want: "invalid sha256"},
		"unknown key":    {body: "[[file]]\nname = \"a.bin\"\nsha512 = \"abc\"\n", want: "unknown key"},
		"future version": {body: "[lakeprep]\nversion = \"0.99.0\"\n", want: "requires lakeprep"},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeFileSet(t, filepath.Join(dir, Filename), tc.body)

			_, _, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadMissingFileSet(t *testing.T) {
	t.Parallel()

	_, _, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no file set found")
}

func TestLoadResolvesNestedImportsWithConstraints(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeFileSet(t, filepath.Join(rootDir, Filename), `
[source]
name = "root"

[[import]]
path = "sets/base.toml"

[[import]]
path = "sets/platform/current.toml"
os = ["`+runtime.GOOS+`"]
arch = ["`+runtime.GOARCH+`"]

[[import]]
path = "sets/platform/skip.toml"
os = ["definitely-not-this-os"]

[[file]]
name = "root.bin"
`)
	writeFileSet(t, filepath.Join(rootDir, "sets", "base.toml"), `
[lakeprep]
version = "0.1.0"

[source]
url = "https://example.org/base"

[[import]]
path = "nested.toml"

[[file]]
name = "base.bin"
`)
	writeFileSet(t, filepath.Join(rootDir, "sets", "nested.toml"), `
[[file]]
name = "nested.bin"
`)
	writeFileSet(t, filepath.Join(rootDir, "sets", "platform", "current.toml"), `
[[file]]
name = "platform.bin"
`)
	writeFileSet(t, filepath.Join(rootDir, "sets", "platform", "skip.toml"), `
[[file]]
name = "skipped.bin"
`)

	fs, _, tree, err := LoadWithTree(rootDir)
	require.NoError(t, err)
	assert.Equal(t, "root", fs.Source.Name)
	assert.Equal(t, "https://example.org/base", fs.Source.URL)
	assert.Equal(t, "0.1.0", fs.Lakeprep.Version)
	assert.Equal(t, []string{"nested.bin", "base.bin", "platform.bin", "root.bin"}, fs.Names())

	assert.Equal(t,
		[]string{Filename, "sets/base.toml", "sets/nested.toml", "sets/platform/current.toml"},
		flattenTreePaths(t, rootDir, tree),
	)
}

func TestLoadImportSupportsDirectoryPath(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeFileSet(t, filepath.Join(rootDir, Filename), `
[[import]]
path = "sets/group"
`)
	writeFileSet(t, filepath.Join(rootDir, "sets", "group", Filename), `
[[file]]
name = "group.bin"
`)

	fs, _, err := Load(rootDir)
	require.NoError(t, err)
	assert.Equal(t, []string{"group.bin"}, fs.Names())
}

func TestLoadRejectsDuplicatesAcrossImports(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeFileSet(t, filepath.Join(rootDir, Filename), `
[[import]]
path = "other.toml"

[[file]]
name = "a.bin"
`)
	writeFileSet(t, filepath.Join(rootDir, "other.toml"), `
[[file]]
name = "a.bin"
`)

	_, _, err := Load(rootDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared more than once")
}

func TestLoadDetectsImportCycles(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeFileSet(t, filepath.Join(rootDir, Filename), `
[[import]]
path = "sets/a.toml"
`)
	writeFileSet(t, filepath.Join(rootDir, "sets", "a.toml"), `
[[import]]
path = "b.toml"
`)
	writeFileSet(t, filepath.Join(rootDir, "sets", "b.toml"), `
[[import]]
path = "a.toml"
`)

	_, _, err := Load(rootDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file set import cycle detected")
}

func TestLoadRejectsImportOutsideRoot(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	rootDir := filepath.Join(parent, "root")
	writeFileSet(t, filepath.Join(rootDir, Filename), `
[[import]]
path = "../outside.toml"
`)
	writeFileSet(t, filepath.Join(parent, "outside.toml"), `
[[file]]
name = "outside.bin"
`)

	_, _, err := Load(rootDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import path escapes file set root")
}

func writeFileSet(t *testing.T, path, body string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(body)+"\n"), 0o644))
}

func flattenTreePaths(t *testing.T, rootDir string, tree ImportTree) []string {
	t.Helper()

	canonicalRoot, err := filepath.EvalSymlinks(filepath.Clean(rootDir))
	require.NoError(t, err)

	var out []string
	var walk func(ImportTree)
	walk = func(node ImportTree) {
		rel, err := filepath.Rel(canonicalRoot, node.Path)
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
		for _, child := range node.Imports {
			walk(child)
		}
	}
	walk(tree)
	return out
}
