package store

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/olimci/lakeprep/pkg/digest"
)

// MarkerExists reports whether the completion marker is present, regardless of
// which file set it was written for.
func (s Store) MarkerExists() (bool, error) {
	if _, err := os.Lstat(s.MarkerPath()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", s.MarkerPath(), err)
	}
	return true, nil
}

// MarkerFingerprint returns the file set fingerprint recorded in the marker. An
// empty or unparseable marker yields a zero digest with ok set, so it never matches.
func (s Store) MarkerFingerprint() (digest.Digest, bool, error) {
	data, err := os.ReadFile(s.MarkerPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return digest.Digest{}, false, nil
		}
		return digest.Digest{}, false, fmt.Errorf("read %s: %w", s.MarkerPath(), err)
	}

	d, err := digest.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return digest.Digest{}, true, nil
	}
	return d, true, nil
}

// SetMarker records that every file in the set identified by fingerprint was validated.
// The marker is not zero-byte: it holds one line with the fingerprint in digest form
// ("set:sha256:<hex>"), so a marker left by a different file set, or an empty one
// from an older tool, never satisfies the fast path.
func (s Store) SetMarker(fingerprint digest.Digest) error {
	return writeFileAtomic(s.MarkerPath(), []byte(fingerprint.String()+"\n"))
}

// ClearMarker removes the completion marker. Clearing an absent marker is not an error.
func (s Store) ClearMarker() error {
	if err := os.Remove(s.MarkerPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", s.MarkerPath(), err)
	}
	return nil
}
