// Package session holds a process-local handle that provisions a file set once
// and remembers the outcome for later callers.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/olimci/lakeprep/pkg/fileset"
	"github.com/olimci/lakeprep/pkg/provision"
)

var ErrNotInitialized = errors.New("session not initialized")

type Session struct {
	provisioner *provision.Provisioner
	files       fileset.FileSet

	mu          sync.Mutex
	initialized bool
	forceNext   bool
	runs        int
	last        provision.Result
	lastErr     error
}

type Status struct {
	Initialized bool
	DataDir     string
	Files       []string
	Runs        int    // provisioning runs attempted through this session
	LastMessage string // message of the most recent run, empty before the first
	LastError   error
}

func New(p *provision.Provisioner, files fileset.FileSet) *Session {
	return &Session{provisioner: p, files: files}
}

// Initialize provisions the file set unless an earlier call already succeeded.
// Concurrent callers are serialised; only one of them runs the provisioner.
func (s *Session) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}
	if s.provisioner == nil {
		return fmt.Errorf("session has no provisioner")
	}

	req := provision.Request{
		Files:        s.files.Names(),
		Expected:     s.files.Expected(),
		ForceRefresh: s.forceNext,
	}
	res, err := s.provisioner.Ensure(ctx, req)
	s.runs++
	s.last = res
	s.lastErr = err
	if err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}

	s.initialized = true
	s.forceNext = false
	return nil
}

// Ready returns ErrNotInitialized until Initialize has succeeded.
func (s *Session) Ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	return nil
}

// Result is the outcome of the most recent provisioning run.
func (s *Session) Result() provision.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.last
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Initialized: s.initialized,
		Files:       s.files.Names(),
		Runs:        s.runs,
		LastMessage: s.last.Message,
		LastError:   s.lastErr,
	}
	if s.provisioner != nil {
		st.DataDir = s.provisioner.Store().Root
	}
	return st
}

// Reset returns the session to its uninitialised state. The next Initialize
// ignores the completion marker and re-runs the locked resolve pass.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = false
	s.forceNext = true
}
