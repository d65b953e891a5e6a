// Package state holds the screen-scoped client state: paginated feed
// controllers, optimistic engagement toggles and the per-screen resolution
// caches. Everything here is owned by exactly one screen instance and is
// discarded when the screen is disposed.
package state

import "sync/atomic"

// Liveness is the cancellation flag a screen hands to its async
// continuations. Callbacks capture it at call time and check Alive before
// touching screen state, so results landing after disposal are dropped.
type Liveness struct {
	dead atomic.Bool
}

func NewLiveness() *Liveness {
	return &Liveness{}
}

// Alive reports whether the owning screen still exists.
func (l *Liveness) Alive() bool {
	return !l.dead.Load()
}

// Dispose marks the owner gone. Safe to call more than once.
func (l *Liveness) Dispose() {
	l.dead.Store(true)
}
