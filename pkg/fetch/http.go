package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/olimci/lakeprep/pkg/utils/fileutils"
)

// HTTP downloads <BaseURL>/<name>. Transport errors, 5xx and 429 responses are
// retried with exponential backoff; any other non-200 status fails immediately.
type HTTP struct {
	BaseURL  string
	Client   *http.Client
	Attempts int

	// InitialInterval is the first backoff delay. Zero uses the backoff default.
	InitialInterval time.Duration
	Logger          *log.Logger
}

func NewHTTP(baseURL string) *HTTP {
	return &HTTP{
		BaseURL:  baseURL,
		Client:   &http.Client{Timeout: DefaultTimeout},
		Attempts: DefaultAttempts,
	}
}

// StatusError is an unexpected HTTP response status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Temporary reports whether the request is worth repeating.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

func (h *HTTP) Download(ctx context.Context, name, dest string) error {
	target, err := url.JoinPath(h.BaseURL, name)
	if err != nil {
		return fmt.Errorf("build url for %s: %w", name, err)
	}

	attempt := 0
	op := func() error {
		attempt++
		return h.fetch(ctx, target, dest)
	}
	notify := func(err error, wait time.Duration) {
		h.logger().Warn("download attempt failed, retrying", "url", target, "attempt", attempt, "wait", wait, "err", err)
	}

	if err := backoff.RetryNotify(op, h.policy(ctx), notify); err != nil {
		return err
	}
	return nil
}

func (h *HTTP) fetch(ctx context.Context, target, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := h.client().Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return fmt.Errorf("GET %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{URL: target, Code: resp.StatusCode}
		if statusErr.Temporary() {
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}

	return fileutils.WriteAtomic(dest, 0o644, func(w io.Writer) error {
		if _, err := io.Copy(w, resp.Body); err != nil {
			return fmt.Errorf("read body of %s: %w", target, err)
		}
		return nil
	})
}

func (h *HTTP) policy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	if h.InitialInterval > 0 {
		b.InitialInterval = h.InitialInterval
	}
	b.MaxElapsedTime = 0

	attempts := h.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

func (h *HTTP) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return http.DefaultClient
}

func (h *HTTP) logger() *log.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return log.New(io.Discard)
}

func (h *HTTP) String() string {
	return h.BaseURL
}
