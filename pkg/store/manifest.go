package store

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/olimci/lakeprep/pkg/digest"
)

// Manifest records which data files have been validated and what they hashed to.
// It is a cache of known-good files, not ground truth.
type Manifest map[string]Entry

// Entry is the recorded state of one validated data file.
type Entry struct {
	Digest string `json:"digest"` // file:sha256:<hex>
	Size   int64  `json:"size"`
}

func NewEntry(d digest.Digest, size int64) Entry {
	return Entry{Digest: d.String(), Size: size}
}

func (e Entry) ParsedDigest() (digest.Digest, error) {
	return digest.Parse(e.Digest)
}

// Names returns the recorded file names in sorted order.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadManifest decodes manifest.json. A missing file is an empty manifest; anything
// else that goes wrong is reported so the caller can decide to rebuild.
func (s Store) ReadManifest() (Manifest, error) {
	raw := map[string]Entry{}
	if err := decodeJSONFile(s.ManifestPath(), &raw); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{}, nil
		}
		return Manifest{}, fmt.Errorf("decode %s: %w", s.ManifestPath(), err)
	}

	m := make(Manifest, len(raw))
	var invalid []string
	for name, entry := range raw {
		d, err := entry.ParsedDigest()
		if err != nil || d.IsZero() || d.Kind != digest.KindFile || entry.Size < 0 || ValidateName(name) != nil {
			invalid = append(invalid, name)
			continue
		}
		m[name] = entry
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return m, &InvalidEntriesError{Path: s.ManifestPath(), Names: invalid}
	}

	return m, nil
}

// LoadManifest never fails: an absent, unreadable, or corrupt manifest reads as
// empty, and entries are re-derived on the next validation pass.
func (s Store) LoadManifest() Manifest {
	m, err := s.ReadManifest()
	if err != nil {
		var invalid *InvalidEntriesError
		if errors.As(err, &invalid) {
			return m
		}
		return Manifest{}
	}
	return m
}

// SaveManifest replaces manifest.json as a whole. It is not synchronised; callers
// must hold the data directory lock.
func (s Store) SaveManifest(m Manifest) error {
	if m == nil {
		m = Manifest{}
	}
	return writeJSON(s.ManifestPath(), m)
}

// InvalidEntriesError lists manifest entries that were dropped while reading.
// The remaining entries are still usable.
type InvalidEntriesError struct {
	Path  string
	Names []string
}

func (e *InvalidEntriesError) Error() string {
	return fmt.Sprintf("dropped %d invalid manifest entries from %s: %v", len(e.Names), e.Path, e.Names)
}
