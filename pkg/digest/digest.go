package digest

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Kind represents the type of object a digest was taken of
type Kind string

const (
	KindFile Kind = "file"
	KindSet  Kind = "set"
)

const AlgorithmSHA256 = "sha256"

func New(kind Kind, algorithm, sum string) (Digest, error) {
	if err := validateKind(kind); err != nil {
		return Digest{}, err
	}

	algorithm = strings.TrimSpace(algorithm)
	sum = strings.ToLower(strings.TrimSpace(sum))
	if algorithm == "" {
		return Digest{}, fmt.Errorf("digest algorithm is required")
	}
	if sum == "" {
		return Digest{}, fmt.Errorf("digest sum is required")
	}
	if algorithm == AlgorithmSHA256 {
		if err := validateSHA256(sum); err != nil {
			return Digest{}, err
		}
	}

	return Digest{
		Kind:      kind,
		Algorithm: algorithm,
		Sum:       sum,
	}, nil
}

// FromHex builds a file digest from a bare sha256 hex string, as printed by sha256sum.
func FromHex(sum string) (Digest, error) {
	return New(KindFile, AlgorithmSHA256, sum)
}

// Digest is a typed digest value.
// represented as "<kind>:<algorithm>:<hex>".
type Digest struct {
	Kind      Kind
	Algorithm string
	Sum       string
}

func (d Digest) IsZero() bool {
	return d.Kind == "" && d.Algorithm == "" && d.Sum == ""
}

func (d Digest) Equal(other Digest) bool {
	return d.Kind == other.Kind && d.Algorithm == other.Algorithm && d.Sum == other.Sum
}

func (d Digest) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%s:%s", d.Kind, d.Algorithm, d.Sum)
}

func Parse(raw string) (Digest, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Digest{}, nil
	}

	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return Digest{}, fmt.Errorf("invalid digest %q (expected kind:algorithm:sum)", raw)
	}

	return New(Kind(parts[0]), parts[1], parts[2])
}

func validateKind(kind Kind) error {
	switch kind {
	case KindFile, KindSet:
		return nil
	default:
		return fmt.Errorf("unsupported digest kind %q", kind)
	}
}

func validateSHA256(sum string) error {
	if len(sum) != 64 {
		return fmt.Errorf("invalid sha256 sum %q (expected 64 hex characters)", sum)
	}
	if _, err := hex.DecodeString(sum); err != nil {
		return fmt.Errorf("invalid sha256 sum %q: %w", sum, err)
	}
	return nil
}
