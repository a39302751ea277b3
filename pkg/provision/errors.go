package provision

import (
	"errors"
	"fmt"
)

var (
	ErrLockTimeout      = errors.New("timeout waiting for existing provisioning to finish")
	ErrLockBusy         = errors.New("could not acquire lock")
	ErrDownloadFailed   = errors.New("download failed")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// DownloadError names the required file whose download failed. It matches both
// ErrDownloadFailed and the downloader's own error.
type DownloadError struct {
	Name string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.Name, e.Err)
}

func (e *DownloadError) Unwrap() []error {
	return []error{ErrDownloadFailed, e.Err}
}

// ChecksumError reports a downloaded file whose digest differs from the expected one.
type ChecksumError struct {
	Name     string
	Expected string
	Got      string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s (expected %s, got %s)", e.Name, e.Expected, e.Got)
}

func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// failureMessage is the human-readable message for a failed run.
func failureMessage(err error) string {
	var (
		downloadErr *DownloadError
		checksumErr *ChecksumError
	)
	switch {
	case errors.As(err, &downloadErr):
		return "Failed to download " + downloadErr.Name
	case errors.As(err, &checksumErr):
		return "Checksum mismatch for " + checksumErr.Name
	case errors.Is(err, ErrLockTimeout):
		return "Timeout waiting for existing provisioning to finish"
	case errors.Is(err, ErrLockBusy):
		return "Could not acquire lock"
	default:
		return "Provisioning failed: " + err.Error()
	}
}
