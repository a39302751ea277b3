package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

const Version = "0.1.0"

// Parse parses versions in the form "MAJOR.MINOR.PATCH" with an optional "v" prefix.
func Parse(raw string) (*semver.Version, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, fmt.Errorf("version is empty")
	}

	v, err := semver.StrictNewVersion(strings.TrimPrefix(value, "v"))
	if err != nil {
		return nil, fmt.Errorf("invalid semantic version %q: %w", raw, err)
	}
	if v.Prerelease() != "" || v.Metadata() != "" {
		return nil, fmt.Errorf("invalid semantic version %q (expected MAJOR.MINOR.PATCH)", raw)
	}

	return v, nil
}

// EnsureCompatible validates whether a target version is supported by the current app version.
// Empty versions are treated as compatible so hand-written files may omit them.
func EnsureCompatible(target string) error {
	value := strings.TrimSpace(target)
	if value == "" {
		return nil
	}

	current, err := Parse(Version)
	if err != nil {
		return fmt.Errorf("parse current version %q: %w", Version, err)
	}
	required, err := Parse(value)
	if err != nil {
		return err
	}

	if required.Major() != current.Major() {
		return fmt.Errorf("unsupported major version %d (current major is %d)", required.Major(), current.Major())
	}
	if current.LessThan(required) {
		return fmt.Errorf("requires lakeprep >= %s (current %s)", required.String(), current.String())
	}

	return nil
}
