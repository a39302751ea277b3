package fileutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

func ExpandHome(path string) string {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}

	return path
}

func AbsPath(path string) (string, error) {
	expanded := ExpandHome(strings.TrimSpace(path))
	if expanded == "" {
		return "", fmt.Errorf("path is empty")
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}

	return filepath.Clean(abs), nil
}

// CopyFile copies the regular file at src to dest. dest is only ever replaced by a
// complete copy; a failed copy leaves no file behind.
func CopyFile(src, dest string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source file %s: %w", src, err)
	}
	if !srcInfo.Mode().IsRegular() {
		return fmt.Errorf("source is not a regular file: %s", src)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source file %s: %w", src, err)
	}
	defer srcFile.Close()

	return WriteAtomic(dest, srcInfo.Mode().Perm(), func(w io.Writer) error {
		if _, err := io.Copy(w, srcFile); err != nil {
			return fmt.Errorf("copy %s: %w", src, err)
		}
		return nil
	})
}

// WriteAtomic streams content produced by fill into a temp file next to dest and
// renames it into place once fill and the flush succeed.
func WriteAtomic(dest string, perm os.FileMode, fill func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create parent directory for %s: %w", dest, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.partial")
	if err != nil {
		return fmt.Errorf("create temporary file for %s: %w", dest, err)
	}
	tmpDest := tmp.Name()

	fillErr := fill(tmp)
	if fillErr == nil {
		fillErr = tmp.Sync()
	}
	closeErr := tmp.Close()
	if fillErr != nil {
		_ = os.Remove(tmpDest)
		return fillErr
	}
	if closeErr != nil {
		_ = os.Remove(tmpDest)
		return fmt.Errorf("close temporary file %s: %w", tmpDest, closeErr)
	}
	if err := os.Chmod(tmpDest, perm); err != nil {
		_ = os.Remove(tmpDest)
		return fmt.Errorf("chmod temporary file %s: %w", tmpDest, err)
	}

	if err := os.Rename(tmpDest, dest); err != nil {
		_ = os.Remove(tmpDest)
		return fmt.Errorf("replace %s with %s: %w", dest, tmpDest, err)
	}

	return nil
}
