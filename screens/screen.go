// Package screens holds the per-screen controllers: each owns its caches,
// its optimistic state and its visible/loading/error tri-state, and is
// constructed on screen entry and disposed on exit. Rendering and layout
// live in the UI layer; screens only expose view models and notify on
// change.
package screens

import (
	"sync"

	"go.uber.org/zap"

	"avara_app/state"
)

// Phase is the screen tri-state.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseError
)

// ScreenController is the shared core of every screen: tri-state, a
// transient notice for failed optimistic mutations, a liveness token for
// async continuations, and a change callback for the render layer.
type ScreenController struct {
	mu          sync.Mutex
	phase       Phase
	errMessage  string
	retry       func()
	notice      string
	noticeRetry func()
	live        *state.Liveness
	logger      *zap.Logger
	onChange    func()
}

func (s *ScreenController) initScreen(logger *zap.Logger) {
	s.live = state.NewLiveness()
	s.logger = logger
	s.phase = PhaseLoading
}

// SetOnChange installs the render-invalidation callback.
func (s *ScreenController) SetOnChange(onChange func()) {
	s.mu.Lock()
	s.onChange = onChange
	s.mu.Unlock()
}

// Phase returns the current tri-state.
func (s *ScreenController) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// ErrMessage is the user-facing error text when the screen is in PhaseError.
func (s *ScreenController) ErrMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMessage
}

// Retry re-runs the failed load that put the screen in PhaseError.
func (s *ScreenController) Retry() {
	s.mu.Lock()
	retry := s.retry
	s.mu.Unlock()
	if retry != nil {
		retry()
	}
}

// Notice is the transient, dismissible message from a failed optimistic
// mutation. Empty when there is none.
func (s *ScreenController) Notice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// RetryNotice re-runs the failed mutation behind the current notice.
func (s *ScreenController) RetryNotice() {
	s.mu.Lock()
	retry := s.noticeRetry
	s.notice = ""
	s.noticeRetry = nil
	s.mu.Unlock()
	if retry != nil {
		retry()
	}
	s.notify()
}

// DismissNotice clears the transient notice.
func (s *ScreenController) DismissNotice() {
	s.mu.Lock()
	s.notice = ""
	s.noticeRetry = nil
	s.mu.Unlock()
	s.notify()
}

// Dispose marks the screen dead; in-flight callbacks are dropped from here
// on.
func (s *ScreenController) Dispose() {
	s.live.Dispose()
}

func (s *ScreenController) alive() bool {
	return s.live.Alive()
}

func (s *ScreenController) setLoading() {
	s.mu.Lock()
	s.phase = PhaseLoading
	s.errMessage = ""
	s.retry = nil
	s.mu.Unlock()
	s.notify()
}

func (s *ScreenController) setReady() {
	s.mu.Lock()
	s.phase = PhaseReady
	s.errMessage = ""
	s.retry = nil
	s.mu.Unlock()
	s.notify()
}

func (s *ScreenController) setError(message string, retry func()) {
	s.mu.Lock()
	s.phase = PhaseError
	s.errMessage = message
	s.retry = retry
	s.mu.Unlock()
	s.notify()
}

func (s *ScreenController) showNotice(message string, retry func()) {
	s.mu.Lock()
	s.notice = message
	s.noticeRetry = retry
	s.mu.Unlock()
	s.notify()
}

func (s *ScreenController) notify() {
	s.mu.Lock()
	onChange := s.onChange
	s.mu.Unlock()
	if onChange != nil {
		onChange()
	}
}
