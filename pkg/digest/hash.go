package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// chunkSize bounds how much of a file is held in memory while hashing.
const chunkSize = 64 << 10

// ForFile streams the regular file at path through sha256 and returns its digest and size.
func ForFile(path string) (Digest, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, 0, fmt.Errorf("open file %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Digest{}, 0, fmt.Errorf("stat file %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return Digest{}, 0, fmt.Errorf("unsupported file type at %s (%s)", path, info.Mode().String())
	}

	h := sha256.New()
	n, err := io.CopyBuffer(h, f, make([]byte, chunkSize))
	if err != nil {
		return Digest{}, 0, fmt.Errorf("hash file %s: %w", path, err)
	}

	d, err := New(KindFile, AlgorithmSHA256, hex.EncodeToString(h.Sum(nil)))
	if err != nil {
		return Digest{}, 0, err
	}
	return d, n, nil
}

// ForStrings fingerprints an ordered list of strings. Each part is length-prefixed so
// ["ab", "c"] and ["a", "bc"] differ.
func ForStrings(parts ...string) Digest {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s\n", len(p), p)
	}

	return Digest{
		Kind:      KindSet,
		Algorithm: AlgorithmSHA256,
		Sum:       hex.EncodeToString(h.Sum(nil)),
	}
}
