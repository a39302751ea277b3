package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/olimci/lakeprep/pkg/store/config"
	"github.com/olimci/lakeprep/pkg/store/lock"
	"github.com/olimci/lakeprep/pkg/utils/fileutils"
	"github.com/olimci/lakeprep/pkg/version"
)

const (
	dirName      = "lakeprep"
	configFile   = "config.toml"
	manifestFile = "manifest.json"
	lockFile     = ".downloading.lock"
	markerFile   = ".download_complete"
	envDataDir   = "LAKEPREP_DATA_DIR"

	DefaultLockTimeout  = 30 * time.Minute
	DefaultPollInterval = 2 * time.Second
)

// Store points to a data directory and the bookkeeping files inside it.
type Store struct {
	Root string
}

// Resolve picks the data directory: an explicit dir wins, then $LAKEPREP_DATA_DIR,
// then the user cache directory.
func Resolve(dir string) (Store, error) {
	if trimmed := strings.TrimSpace(dir); trimmed != "" {
		abs, err := fileutils.AbsPath(trimmed)
		if err != nil {
			return Store{}, fmt.Errorf("resolve data directory: %w", err)
		}
		return Store{Root: abs}, nil
	}

	if customRoot := strings.TrimSpace(os.Getenv(envDataDir)); customRoot != "" {
		abs, err := fileutils.AbsPath(customRoot)
		if err != nil {
			return Store{}, fmt.Errorf("resolve %s: %w", envDataDir, err)
		}
		return Store{Root: abs}, nil
	}

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return Store{}, fmt.Errorf("resolve user cache directory: %w", err)
	}

	return Store{Root: filepath.Join(cacheDir, dirName)}, nil
}

func (s Store) ConfigPath() string {
	return filepath.Join(s.Root, configFile)
}

func (s Store) ManifestPath() string {
	return filepath.Join(s.Root, manifestFile)
}

func (s Store) LockPath() string {
	return filepath.Join(s.Root, lockFile)
}

func (s Store) MarkerPath() string {
	return filepath.Join(s.Root, markerFile)
}

// FilePath is where a required data file lives. Callers validate name first.
func (s Store) FilePath(name string) string {
	return filepath.Join(s.Root, name)
}

// Lock returns the advisory lock guarding this data directory.
func (s Store) Lock() *lock.Lock {
	return lock.New(s.LockPath())
}

// EnsureDir creates the data directory if it is missing.
func (s Store) EnsureDir() error {
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return fmt.Errorf("create data directory %s: %w", s.Root, err)
	}
	return nil
}

// HasFile reports whether a required data file is physically present as a regular file.
func (s Store) HasFile(name string) (bool, int64, error) {
	info, err := os.Stat(s.FilePath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("stat %s: %w", s.FilePath(name), err)
	}
	if !info.Mode().IsRegular() {
		return false, 0, fmt.Errorf("data path is not a regular file: %s", s.FilePath(name))
	}
	return true, info.Size(), nil
}

// ValidateName rejects names that would resolve outside the data directory or
// collide with bookkeeping files.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return fmt.Errorf("file name is empty")
	case trimmed != name:
		return fmt.Errorf("file name %q has surrounding whitespace", name)
	case name == "." || name == "..":
		return fmt.Errorf("invalid file name %q", name)
	case strings.ContainsAny(name, `/\`) || filepath.Base(name) != name:
		return fmt.Errorf("file name %q must not contain path separators", name)
	}

	switch name {
	case configFile, manifestFile, lockFile, markerFile:
		return fmt.Errorf("file name %q is reserved", name)
	}
	return nil
}

func DefaultConfig() config.Config {
	return config.Config{
		Lakeprep: config.Lakeprep{
			Version: version.Version,
		},
		Lock: config.Lock{
			Timeout: config.Duration(DefaultLockTimeout),
			Poll:    config.Duration(DefaultPollInterval),
		},
		Options: config.Options{
			Verify: false,
		},
	}
}

// LoadConfig reads config.toml from the data directory, falling back to defaults
// when the file does not exist.
func (s Store) LoadConfig() (config.Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(s.ConfigPath()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return config.Config{}, fmt.Errorf("stat %s: %w", s.ConfigPath(), err)
	}

	if _, err := toml.DecodeFile(s.ConfigPath(), &cfg); err != nil {
		return config.Config{}, fmt.Errorf("decode %s: %w", s.ConfigPath(), err)
	}

	if cfg.Lakeprep.Version == "" {
		cfg.Lakeprep.Version = version.Version
	}
	if err := version.EnsureCompatible(cfg.Lakeprep.Version); err != nil {
		return config.Config{}, fmt.Errorf("unsupported config version %q: %w", cfg.Lakeprep.Version, err)
	}
	if cfg.Lock.Poll <= 0 {
		cfg.Lock.Poll = config.Duration(DefaultPollInterval)
	}

	return cfg, nil
}

func (s Store) SaveConfig(cfg config.Config) error {
	if cfg.Lakeprep.Version == "" {
		cfg.Lakeprep.Version = version.Version
	}
	return writeTOML(s.ConfigPath(), cfg)
}
