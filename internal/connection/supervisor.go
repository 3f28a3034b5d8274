package connection

import (
	"errors"
	"fmt"
	"sync"

	"voxshell/internal/logging"
	"voxshell/internal/window"
)

// ErrWindowDestroyed is returned by Retry when there is no main window
var ErrWindowDestroyed = errors.New("main window destroyed")

// Status is the connection state
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// State is a snapshot of the supervisor
type State struct {
	Status  Status `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Attempt uint64 `json:"attempt"`
}

// Loader drives the main window's content
type Loader interface {
	LoadMain(url string) error
	ShowMainFallback() error
}

// Supervisor loads the remote origin into the main window and tracks
// whether it succeeded. Each load is an attempt; results reported for an
// older attempt are ignored, so a retry supersedes a stuck load.
type Supervisor struct {
	loader Loader
	origin string

	mu       sync.Mutex
	status   Status
	reason   string
	attempt  uint64
	onChange func(State)
}

// NewSupervisor creates a supervisor for origin
func NewSupervisor(loader Loader, origin string) *Supervisor {
	return &Supervisor{loader: loader, origin: origin, status: StatusLoading}
}

// OnChange sets a callback for state transitions
func (s *Supervisor) OnChange(fn func(State)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Start begins the first load
func (s *Supervisor) Start() error {
	return s.load()
}

// Retry re-attempts the load. The captured failure reason is cleared
// right away; the next transition comes from the load result.
func (s *Supervisor) Retry() error {
	logging.Info("Connection retry requested", "origin", s.origin)
	return s.load()
}

func (s *Supervisor) load() error {
	s.mu.Lock()
	s.attempt++
	attempt := s.attempt
	s.status = StatusLoading
	s.reason = ""
	snapshot, notify := s.snapshotLocked()
	s.mu.Unlock()
	notify(snapshot)

	err := s.loader.LoadMain(s.origin)
	if errors.Is(err, window.ErrNoMainWindow) {
		s.Failed(attempt, "The application window is no longer available.")
		return ErrWindowDestroyed
	}
	if err != nil {
		s.Failed(attempt, fmt.Sprintf("Unable to load %s: %v", s.origin, err))
		return nil
	}
	return nil
}

// Pending returns the attempt currently loading. ok is false once the
// attempt has settled as ready or failed.
func (s *Supervisor) Pending() (attempt uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt, s.status == StatusLoading
}

// Succeeded records that attempt finished loading
func (s *Supervisor) Succeeded(attempt uint64) {
	s.mu.Lock()
	if attempt != s.attempt || s.status != StatusLoading {
		s.mu.Unlock()
		return
	}
	s.status = StatusReady
	s.reason = ""
	snapshot, notify := s.snapshotLocked()
	s.mu.Unlock()

	logging.Info("Origin loaded", "origin", s.origin, "attempt", attempt)
	notify(snapshot)
}

// Failed records that attempt could not load and switches the main window
// to the fallback page
func (s *Supervisor) Failed(attempt uint64, reason string) {
	s.mu.Lock()
	if attempt != s.attempt || s.status != StatusLoading {
		s.mu.Unlock()
		return
	}
	s.status = StatusFailed
	s.reason = reason
	snapshot, notify := s.snapshotLocked()
	s.mu.Unlock()

	logging.Warn("Origin failed to load", "origin", s.origin, "attempt", attempt, "reason", reason)

	if err := s.loader.ShowMainFallback(); err != nil && !errors.Is(err, window.ErrNoMainWindow) {
		logging.Error("Failed to show fallback page", "error", err)
	}
	notify(snapshot)
}

// State returns the current state
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{Status: s.status, Reason: s.reason, Attempt: s.attempt}
}

// ErrorDetails returns the last captured failure reason, or ""
func (s *Supervisor) ErrorDetails() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

func (s *Supervisor) snapshotLocked() (State, func(State)) {
	st := State{Status: s.status, Reason: s.reason, Attempt: s.attempt}
	fn := s.onChange
	return st, func(st State) {
		if fn != nil {
			defer logging.Recover("connection state observer")
			fn(st)
		}
	}
}
