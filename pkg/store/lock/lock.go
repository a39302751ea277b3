package lock

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrTimeout is returned when the lock marker outlives the wait deadline.
var ErrTimeout = errors.New("timed out waiting for lock")

// TimeoutError reports how long a waiter polled before giving up.
type TimeoutError struct {
	Path     string
	Waited   time.Duration
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("lock %s still held after %s (%d check(s))", e.Path, e.Waited.Truncate(time.Millisecond), e.Attempts)
}

func (e *TimeoutError) Unwrap() error { return ErrTimeout }

// Lock is an advisory cross-process lock realised as a zero-byte marker file.
// Only cooperating processes honour it; nothing detects or breaks a marker left
// behind by a crashed holder.
type Lock struct {
	path string
}

func New(path string) *Lock {
	return &Lock{path: path}
}

func (l *Lock) Path() string {
	return l.path
}

// TryAcquire atomically creates the marker. It reports false without error when
// another holder already owns it.
func (l *Lock) TryAcquire() (bool, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create lock %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(l.path)
		return false, fmt.Errorf("close lock %s: %w", l.path, err)
	}

	return true, nil
}

// WaitUntilFree polls every poll interval until the marker disappears or timeout
// elapses. It never acquires the lock; another waiter may win the next TryAcquire.
func (l *Lock) WaitUntilFree(timeout, poll time.Duration) error {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}

	start := time.Now()
	attempts := 0
	for {
		attempts++
		held, err := l.Held()
		if err != nil {
			return err
		}
		if !held {
			return nil
		}

		waited := time.Since(start)
		if waited >= timeout {
			return &TimeoutError{Path: l.path, Waited: waited, Attempts: attempts}
		}
		time.Sleep(min(poll, timeout-waited))
	}
}

// Held reports whether the marker currently exists.
func (l *Lock) Held() (bool, error) {
	if _, err := os.Lstat(l.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat lock %s: %w", l.path, err)
	}
	return true, nil
}

// Release removes the marker. Releasing an absent marker is not an error.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock %s: %w", l.path, err)
	}
	return nil
}
