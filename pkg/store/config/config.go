package config

import (
	"fmt"
	"time"
)

type Config struct {
	Lakeprep Lakeprep `toml:"lakeprep"` // Application metadata
	Lock     Lock     `toml:"lock"`     // Advisory lock timing
	Options  Options  `toml:"options"`  // Provisioning options
}

type Lakeprep struct {
	Version string `toml:"version"` // Application version
}

type Lock struct {
	Timeout Duration `toml:"timeout"` // how long to wait for another process's run to finish
	Poll    Duration `toml:"poll"`    // how often to re-check the lock marker while waiting
}

type Options struct {
	Verify bool `toml:"verify"` // re-hash recorded files on every run instead of trusting the manifest
}

// Duration is a time.Duration written as a Go duration string ("30m", "2s").
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", string(text), err)
	}
	if v < 0 {
		return fmt.Errorf("duration %q must not be negative", string(text))
	}
	*d = Duration(v)
	return nil
}
