// Package fileset describes the required data files a data directory must hold,
// as declared in a lakeprep.toml file.
package fileset

import (
	"fmt"
	"strings"

	"github.com/olimci/lakeprep/pkg/digest"
	"github.com/olimci/lakeprep/pkg/store"
)

// FileSet is a decoded lakeprep.toml with its imports merged in.
type FileSet struct {
	Lakeprep Lakeprep `toml:"lakeprep"`
	Source   Source   `toml:"source"`

	Imports []Import `toml:"import"`
	Files   []File   `toml:"file"`
}

type Lakeprep struct {
	Version string `toml:"version"` // minimum lakeprep version
}

type Source struct {
	Name string `toml:"name"`
	URL  string `toml:"url"` // http(s) base URL, file URL, or mirror directory
}

// Import pulls the files of another lakeprep.toml into this set, optionally only
// on matching platforms.
type Import struct {
	Path string   `toml:"path"`
	OS   []string `toml:"os"`
	Arch []string `toml:"arch"`
}

type File struct {
	Name   string `toml:"name"`
	SHA256 string `toml:"sha256,omitempty"` // optional known-good hex digest
}

// Names returns the required file names in declaration order.
func (fs FileSet) Names() []string {
	names := make([]string, 0, len(fs.Files))
	for _, f := range fs.Files {
		names = append(names, f.Name)
	}
	return names
}

// Expected returns the known-good digests of files that declare one.
func (fs FileSet) Expected() map[string]digest.Digest {
	expected := make(map[string]digest.Digest)
	for _, f := range fs.Files {
		if strings.TrimSpace(f.SHA256) == "" {
			continue
		}
		d, err := digest.FromHex(f.SHA256)
		if err != nil {
			continue
		}
		expected[f.Name] = d
	}
	return expected
}

// Validate checks file names and digests. Names must be unique bare file names.
func (fs FileSet) Validate() error {
	seen := make(map[string]struct{}, len(fs.Files))
	for i, f := range fs.Files {
		if err := store.ValidateName(f.Name); err != nil {
			return fmt.Errorf("file %d: %w", i+1, err)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("file %q is declared more than once", f.Name)
		}
		seen[f.Name] = struct{}{}

		if strings.TrimSpace(f.SHA256) == "" {
			continue
		}
		if _, err := digest.FromHex(f.SHA256); err != nil {
			return fmt.Errorf("file %q: %w", f.Name, err)
		}
	}
	return nil
}

func (fs *FileSet) Merge(other FileSet) {
	if version := strings.TrimSpace(other.Lakeprep.Version); version != "" {
		fs.Lakeprep.Version = version
	}
	if name := strings.TrimSpace(other.Source.Name); name != "" {
		fs.Source.Name = name
	}
	if url := strings.TrimSpace(other.Source.URL); url != "" {
		fs.Source.URL = url
	}

	fs.Files = append(fs.Files, other.Files...)
}

func (i Import) Applies(goos, goarch string) bool {
	return matchConstraint(i.OS, goos) && matchConstraint(i.Arch, goarch)
}

func matchConstraint(values []string, target string) bool {
	if len(values) == 0 {
		return true
	}
	normalizedTarget := strings.ToLower(strings.TrimSpace(target))
	for _, raw := range values {
		value := strings.ToLower(strings.TrimSpace(raw))
		if value == "" {
			continue
		}
		if value == normalizedTarget {
			return true
		}
	}
	return false
}
