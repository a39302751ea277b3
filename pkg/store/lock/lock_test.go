package lock

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryAcquireIsExclusive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".downloading.lock")
	first := New(path)
	second := New(path)

	ok, err := first.TryAcquire()
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.TryAcquire()
	require.NoError(t, err)
	assert.False(t, ok, "second acquire should observe the existing marker")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Zero(t, info.Size(), "lock marker should be zero bytes")

	require.NoError(t, first.Release())
	ok, err = second.TryAcquire()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Release())
}

func TestTryAcquireConcurrentSingleWinner(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".downloading.lock")

	const contenders = 16
	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := New(path).TryAcquire()
			if err == nil && ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestTryAcquireMissingDirectory(t *testing.T) {
	t.Parallel()

	l := New(filepath.Join(t.TempDir(), "missing", ".downloading.lock"))
	ok, err := l.TryAcquire()
	require.Error(t, err)
	assert.False(t, ok)
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	l := New(filepath.Join(t.TempDir(), ".downloading.lock"))
	require.NoError(t, l.Release())

	ok, err := l.TryAcquire()
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Release())
	require.NoError(t, l.Release())

	held, err := l.Held()
	require.NoError(t, err)
	assert.False(t, held)
}

func TestWaitUntilFreeReturnsWhenReleased(t *testing.T) {
	t.Parallel()

	l := New(filepath.Join(t.TempDir(), ".downloading.lock"))
	ok, err := l.TryAcquire()
	require.NoError(t, err)
	require.True(t, ok)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = l.Release()
	}()

	start := time.Now()
	require.NoError(t, l.WaitUntilFree(5*time.Second, 10*time.Millisecond))
	assert.Less(t, time.Since(start), 5*time.Second)

	held, err := l.Held()
	require.NoError(t, err)
	assert.False(t, held, "waiting must not acquire the lock")
}

func TestWaitUntilFreeImmediateWhenFree(t *testing.T) {
	t.Parallel()

	l := New(filepath.Join(t.TempDir(), ".downloading.lock"))
	require.NoError(t, l.WaitUntilFree(0, time.Second))
}

func TestWaitUntilFreeTimesOut(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".downloading.lock")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	err := New(path).WaitUntilFree(60*time.Millisecond, 10*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.GreaterOrEqual(t, timeoutErr.Waited, 60*time.Millisecond)
	assert.Greater(t, timeoutErr.Attempts, 1)

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr, "a timed out waiter must not break the lock")
}
