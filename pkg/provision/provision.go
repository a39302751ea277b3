// Package provision makes sure a set of required data files is present and
// recorded in a data directory before anything downstream relies on it.
//
// Independent processes sharing one data directory coordinate through an
// advisory lock file: at most one of them resolves files at a time, the others
// either take the completion-marker fast path or wait for the holder to finish.
package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/olimci/lakeprep/pkg/digest"
	"github.com/olimci/lakeprep/pkg/store"
	"github.com/olimci/lakeprep/pkg/store/config"
	"github.com/olimci/lakeprep/pkg/store/lock"
)

// Downloader fetches one required file. A nil error means dest holds the complete
// file; on error dest must not hold a partial file that could pass for valid data.
type Downloader interface {
	Download(ctx context.Context, name, dest string) error
}

type DownloaderFunc func(ctx context.Context, name, dest string) error

func (f DownloaderFunc) Download(ctx context.Context, name, dest string) error {
	return f(ctx, name, dest)
}

type Provisioner struct {
	store      store.Store
	downloader Downloader
	logger     *log.Logger

	lockTimeout  time.Duration
	pollInterval time.Duration
	verify       bool

	// afterWait runs between the end of a lock wait and the retry; tests use it
	// to let another waiter win the race.
	afterWait func()
}

type Option func(*Provisioner)

func WithLogger(logger *log.Logger) Option {
	return func(p *Provisioner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithLockTimeout bounds how long a run waits for another process's run.
func WithLockTimeout(d time.Duration) Option {
	return func(p *Provisioner) { p.lockTimeout = d }
}

func WithPollInterval(d time.Duration) Option {
	return func(p *Provisioner) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// WithVerify re-hashes files that already have a manifest entry instead of trusting it.
func WithVerify(verify bool) Option {
	return func(p *Provisioner) { p.verify = verify }
}

// WithConfig applies the data directory's config.toml settings.
func WithConfig(cfg config.Config) Option {
	return func(p *Provisioner) {
		WithLockTimeout(cfg.Lock.Timeout.Std())(p)
		WithPollInterval(cfg.Lock.Poll.Std())(p)
		WithVerify(cfg.Options.Verify)(p)
	}
}

func New(s store.Store, downloader Downloader, opts ...Option) *Provisioner {
	p := &Provisioner{
		store:        s,
		downloader:   downloader,
		logger:       log.New(io.Discard),
		lockTimeout:  store.DefaultLockTimeout,
		pollInterval: store.DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provisioner) Store() store.Store {
	return p.store
}

// Ensure brings every file in req into the data directory and records it. All
// failures come back as an unsuccessful Result with a message and a matching error.
//
// The only blocking step besides the downloader is the wait for another run's lock,
// which is bounded by the lock timeout and does not observe ctx. ctx is handed to
// the downloader.
func (p *Provisioner) Ensure(ctx context.Context, req Request) (Result, error) {
	for _, name := range req.Files {
		if err := store.ValidateName(name); err != nil {
			return failed(err)
		}
	}
	if p.downloader == nil {
		return failed(fmt.Errorf("no downloader configured"))
	}

	if err := p.store.EnsureDir(); err != nil {
		return failed(err)
	}

	fingerprint := req.Fingerprint()

	if req.ForceRefresh {
		p.logger.Debug("forced refresh, clearing completion marker", "dir", p.store.Root)
		if err := p.store.ClearMarker(); err != nil {
			return failed(err)
		}
	} else if p.complete(fingerprint, req.Files) {
		p.logger.Debug("completion marker current, skipping", "dir", p.store.Root)
		return Result{Success: true, Message: MessageAllPresent, FastPath: true}, nil
	}

	lck := p.store.Lock()
	acquired, err := p.acquire(lck, fingerprint, req)
	if err != nil {
		return failed(err)
	}
	if !acquired {
		return Result{Success: true, Message: MessageAllPresent, FastPath: true}, nil
	}
	defer func() {
		if err := lck.Release(); err != nil {
			p.logger.Error("release lock", "lock", lck.Path(), "err", err)
		}
	}()

	res, err := p.resolve(ctx, req)
	if err != nil {
		return failed(err)
	}

	res.Success = true
	res.Message = MessageProvisioned
	return res, nil
}

// complete is the lock-free fast path: the marker was written for this file set and
// every file is still physically present. It errs on the side of the slow path.
func (p *Provisioner) complete(fingerprint digest.Digest, names []string) bool {
	recorded, ok, err := p.store.MarkerFingerprint()
	if err != nil {
		p.logger.Warn("read completion marker", "err", err)
		return false
	}
	if !ok {
		return false
	}
	if !recorded.Equal(fingerprint) {
		p.logger.Debug("completion marker is for a different file set", "dir", p.store.Root)
		return false
	}

	for _, name := range names {
		present, _, err := p.store.HasFile(name)
		if err != nil {
			p.logger.Warn("check data file", "file", name, "err", err)
			return false
		}
		if !present {
			p.logger.Debug("completion marker present but file missing", "file", name)
			return false
		}
	}
	return true
}

// acquire takes the lock, waiting at most once for a concurrent holder and then
// retrying exactly once. It reports false without error when the holder's run
// already completed this file set while we waited.
func (p *Provisioner) acquire(lck *lock.Lock, fingerprint digest.Digest, req Request) (bool, error) {
	ok, err := lck.TryAcquire()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLockBusy, err)
	}
	if ok {
		return true, nil
	}

	p.logger.Info("waiting for another provisioning run", "lock", lck.Path(), "timeout", p.lockTimeout)
	start := time.Now()
	if err := lck.WaitUntilFree(p.lockTimeout, p.pollInterval); err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return false, fmt.Errorf("%w: %w", ErrLockTimeout, err)
		}
		return false, fmt.Errorf("%w: %w", ErrLockBusy, err)
	}
	p.logger.Debug("lock released by other run", "waited", time.Since(start).Truncate(time.Millisecond))

	if !req.ForceRefresh && p.complete(fingerprint, req.Files) {
		return false, nil
	}
	if p.afterWait != nil {
		p.afterWait()
	}

	ok, err = lck.TryAcquire()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLockBusy, err)
	}
	if !ok {
		return false, fmt.Errorf("%w: %s was taken by another waiter", ErrLockBusy, lck.Path())
	}
	return true, nil
}

func failed(err error) (Result, error) {
	return Result{Success: false, Message: failureMessage(err)}, err
}
