package store

import (
	"fmt"

	"github.com/olimci/lakeprep/pkg/digest"
)

type StatusSnapshot struct {
	Root          string
	MarkerPresent bool
	MarkerCurrent bool // marker was written for the queried file set
	LockHeld      bool
	ManifestError error // why manifest.json was (partly) discarded, nil when clean
	Files         []FileStatus
	Untracked     []string // manifest entries not in the queried file set
}

type FileStatus struct {
	Name         string
	Present      bool
	Recorded     bool
	Size         int64
	RecordedSize int64
	Drifted      bool // present and recorded, but the size no longer matches
}

// Complete reports whether a provisioning run would take the fast path.
func (s StatusSnapshot) Complete() bool {
	if !s.MarkerCurrent {
		return false
	}
	for _, f := range s.Files {
		if !f.Present {
			return false
		}
	}
	return true
}

// Status inspects the data directory without taking the lock or hashing anything.
func (s Store) Status(names []string, fingerprint digest.Digest) (StatusSnapshot, error) {
	snap := StatusSnapshot{Root: s.Root}

	markerDigest, present, err := s.MarkerFingerprint()
	if err != nil {
		return StatusSnapshot{}, err
	}
	snap.MarkerPresent = present
	snap.MarkerCurrent = present && !fingerprint.IsZero() && markerDigest.Equal(fingerprint)

	held, err := s.Lock().Held()
	if err != nil {
		return StatusSnapshot{}, err
	}
	snap.LockHeld = held

	m, err := s.ReadManifest()
	if err != nil {
		snap.ManifestError = err
	}

	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		if err := ValidateName(name); err != nil {
			return StatusSnapshot{}, err
		}
		wanted[name] = struct{}{}

		item := FileStatus{Name: name}
		item.Present, item.Size, err = s.HasFile(name)
		if err != nil {
			return StatusSnapshot{}, err
		}
		if entry, ok := m[name]; ok {
			item.Recorded = true
			item.RecordedSize = entry.Size
			item.Drifted = item.Present && entry.Size != item.Size
		}
		snap.Files = append(snap.Files, item)
	}

	for _, name := range m.Names() {
		if _, ok := wanted[name]; !ok {
			snap.Untracked = append(snap.Untracked, name)
		}
	}

	return snap, nil
}

type VerifyResult struct {
	Name     string
	Missing  bool
	Recorded bool
	Expected string
	Actual   string
	Drifted  bool
}

// Verify re-hashes every present file that has a manifest entry and compares it to
// the recorded digest. It never modifies the manifest.
func (s Store) Verify(names []string) ([]VerifyResult, error) {
	m := s.LoadManifest()

	results := make([]VerifyResult, 0, len(names))
	for _, name := range names {
		if err := ValidateName(name); err != nil {
			return nil, err
		}

		res := VerifyResult{Name: name}
		present, _, err := s.HasFile(name)
		if err != nil {
			return nil, err
		}
		entry, recorded := m[name]
		res.Recorded = recorded
		res.Missing = !present

		if present {
			actual, _, err := digest.ForFile(s.FilePath(name))
			if err != nil {
				return nil, fmt.Errorf("verify %s: %w", name, err)
			}
			res.Actual = actual.String()
		}
		if recorded {
			res.Expected = entry.Digest
			res.Drifted = present && res.Actual != entry.Digest
		}

		results = append(results, res)
	}

	return results, nil
}
