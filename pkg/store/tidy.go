package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Tidy drops manifest entries for files outside names and removes temporary files
// left by interrupted writes. With removeFiles the data files behind the dropped
// entries are deleted too. Callers must hold the data directory lock.
func (s Store) Tidy(names []string, removeFiles bool) (TidyResult, error) {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		if err := ValidateName(name); err != nil {
			return TidyResult{}, err
		}
		wanted[name] = struct{}{}
	}

	var res TidyResult
	changes := newPathRecorder()

	m, err := s.ReadManifest()
	if err != nil {
		// a damaged manifest is rewritten with whatever entries survived
		changes.Add(s.ManifestPath())
	}
	for _, name := range m.Names() {
		if _, keep := wanted[name]; keep {
			continue
		}
		delete(m, name)
		res.RemovedEntries = append(res.RemovedEntries, name)
		changes.Add(s.ManifestPath())

		if !removeFiles {
			continue
		}
		path := s.FilePath(name)
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return TidyResult{}, fmt.Errorf("remove %s: %w", path, err)
		}
		res.RemovedFiles = append(res.RemovedFiles, name)
		changes.Add(path)
	}
	if len(changes.Paths()) > 0 {
		if err := s.SaveManifest(m); err != nil {
			return TidyResult{}, err
		}
	}

	partial, err := s.partialFiles(wanted)
	if err != nil {
		return TidyResult{}, err
	}
	for _, path := range partial {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return TidyResult{}, fmt.Errorf("remove temporary file %s: %w", path, err)
		}
		res.RemovedPartial = append(res.RemovedPartial, filepath.Base(path))
		changes.Add(path)
	}

	res.ChangedPaths = changes.Paths()
	return res, nil
}

// partialFiles lists the hidden ".<name>.<digits>.partial" files atomic writes
// leave behind when the process dies before the rename. Names in wanted are
// data files and never count as leftovers.
func (s Store) partialFiles(wanted map[string]struct{}) ([]string, error) {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data directory %s: %w", s.Root, err)
	}

	var out []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isPartialName(name) {
			continue
		}
		if _, keep := wanted[name]; keep {
			continue
		}
		out = append(out, filepath.Join(s.Root, name))
	}
	return out, nil
}

// isPartialName reports whether name looks like a fileutils.WriteAtomic temp file.
func isPartialName(name string) bool {
	rest, ok := strings.CutPrefix(name, ".")
	if !ok {
		return false
	}
	rest, ok = strings.CutSuffix(rest, ".partial")
	if !ok {
		return false
	}
	i := strings.LastIndexByte(rest, '.')
	if i <= 0 || i == len(rest)-1 {
		return false
	}
	for _, r := range rest[i+1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type pathRecorder struct {
	seen  map[string]struct{}
	paths []string
}

func newPathRecorder() *pathRecorder {
	return &pathRecorder{
		seen: make(map[string]struct{}, 16),
	}
}

func (r *pathRecorder) Add(path string) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return
	}
	if _, exists := r.seen[trimmed]; exists {
		return
	}
	r.seen[trimmed] = struct{}{}
	r.paths = append(r.paths, trimmed)
}

func (r *pathRecorder) Paths() []string {
	return append([]string(nil), r.paths...)
}
