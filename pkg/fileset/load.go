package fileset

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/olimci/lakeprep/pkg/utils/fileutils"
	"github.com/olimci/lakeprep/pkg/version"
)

const Filename = "lakeprep.toml"

type ImportTree struct {
	Path    string
	Imports []ImportTree
}

// Load resolves path to a lakeprep.toml (a directory is searched for one), decodes
// it with its imports and validates the result.
// returns the absolute directory the file set was loaded from
func Load(path string) (FileSet, string, error) {
	fs, dir, _, err := load(path)
	return fs, dir, err
}

// LoadWithTree is Load that also returns the imports that were followed after
// platform filtering.
func LoadWithTree(path string) (FileSet, string, ImportTree, error) {
	return load(path)
}

func load(path string) (FileSet, string, ImportTree, error) {
	absPath, err := fileutils.AbsPath(path)
	if err != nil {
		return FileSet{}, "", ImportTree{}, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return FileSet{}, "", ImportTree{}, fmt.Errorf("stat file set %q: %w", path, err)
	}

	filePath, rootDir := absPath, filepath.Dir(absPath)
	if info.IsDir() {
		if filePath, err = findFileSet(absPath); err != nil {
			return FileSet{}, "", ImportTree{}, err
		}
		rootDir = absPath
	}

	fs, tree, err := loadWithImports(filePath, rootDir)
	if err != nil {
		return FileSet{}, "", ImportTree{}, err
	}
	if err := version.EnsureCompatible(fs.Lakeprep.Version); err != nil {
		return FileSet{}, "", ImportTree{}, fmt.Errorf("file set %s: %w", filePath, err)
	}
	if err := fs.Validate(); err != nil {
		return FileSet{}, "", ImportTree{}, fmt.Errorf("file set %s: %w", filePath, err)
	}
	return fs, rootDir, tree, nil
}

type loadContext struct {
	rootDir string
	stack   []string
	inStack map[string]struct{}
}

func loadWithImports(path, rootDir string) (FileSet, ImportTree, error) {
	canonicalRoot, err := filepath.EvalSymlinks(filepath.Clean(rootDir))
	if err != nil {
		return FileSet{}, ImportTree{}, fmt.Errorf("resolve file set root %s: %w", rootDir, err)
	}

	ctx := loadContext{
		rootDir: filepath.Clean(canonicalRoot),
		inStack: make(map[string]struct{}, 8),
	}
	return ctx.load(path)
}

func (ctx *loadContext) load(path string) (FileSet, ImportTree, error) {
	filePath, err := canonicalPath(path)
	if err != nil {
		return FileSet{}, ImportTree{}, err
	}
	if !pathWithinRoot(ctx.rootDir, filePath) {
		return FileSet{}, ImportTree{}, fmt.Errorf("import path escapes file set root %s: %s", ctx.rootDir, filePath)
	}

	if _, seen := ctx.inStack[filePath]; seen {
		cycle := append(append([]string(nil), ctx.stack...), filePath)
		return FileSet{}, ImportTree{}, fmt.Errorf("file set import cycle detected: %s", strings.Join(cycle, " -> "))
	}
	ctx.inStack[filePath] = struct{}{}
	ctx.stack = append(ctx.stack, filePath)
	defer func() {
		delete(ctx.inStack, filePath)
		ctx.stack = ctx.stack[:len(ctx.stack)-1]
	}()

	current, err := decodeTOML(filePath)
	if err != nil {
		return FileSet{}, ImportTree{}, err
	}
	current.Source.URL = resolveSourceURL(filepath.Dir(filePath), current.Source.URL)

	merged := FileSet{}
	tree := ImportTree{Path: filePath}
	for _, imp := range current.Imports {
		if !imp.Applies(runtime.GOOS, runtime.GOARCH) {
			continue
		}

		importPath, err := resolveImportPath(filepath.Dir(filePath), imp.Path)
		if err != nil {
			return FileSet{}, ImportTree{}, err
		}

		imported, importedTree, err := ctx.load(importPath)
		if err != nil {
			return FileSet{}, ImportTree{}, err
		}
		merged.Merge(imported)
		tree.Imports = append(tree.Imports, importedTree)
	}

	current.Imports = nil
	merged.Merge(current)
	return merged, tree, nil
}

func decodeTOML(path string) (FileSet, error) {
	var fs FileSet
	md, err := toml.DecodeFile(path, &fs)
	if err != nil {
		return FileSet{}, fmt.Errorf("decode file set %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileSet{}, fmt.Errorf("decode file set %s: unknown key %q", path, undecoded[0].String())
	}
	return fs, nil
}

// resolveSourceURL makes a relative mirror directory relative to the file that
// names it. URLs and absolute paths are returned unchanged.
func resolveSourceURL(dir, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && len(u.Scheme) > 1 {
		return raw
	}

	path := fileutils.ExpandHome(raw)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func canonicalPath(path string) (string, error) {
	absPath, err := fileutils.AbsPath(path)
	if err != nil {
		return "", err
	}
	canonical, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return "", fmt.Errorf("resolve file set path %s: %w", absPath, err)
	}
	return filepath.Clean(canonical), nil
}

func resolveImportPath(importerDir, raw string) (string, error) {
	path := fileutils.ExpandHome(strings.TrimSpace(raw))
	if path == "" {
		return "", fmt.Errorf("import path is empty")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(importerDir, path)
	}
	path = filepath.Clean(path)

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat import path %s: %w", path, err)
	}
	if info.IsDir() {
		return findFileSet(path)
	}
	return path, nil
}

func pathWithinRoot(rootDir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(rootDir), filepath.Clean(path))
	if err != nil {
		return false
	}

	up := ".." + string(filepath.Separator)
	return rel != ".." && !strings.HasPrefix(rel, up)
}

func findFileSet(dir string) (string, error) {
	candidate := filepath.Join(dir, Filename)

	info, err := os.Stat(candidate)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no file set found in %s (expected %s)", dir, Filename)
		}
		return "", fmt.Errorf("stat file set candidate %s: %w", candidate, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("file set path is a directory: %s", candidate)
	}

	return candidate, nil
}
