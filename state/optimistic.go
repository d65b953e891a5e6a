package state

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ConfirmFunc issues the authoritative toggle for an entity and returns the
// server-confirmed state.
type ConfirmFunc func(ctx context.Context, id string) (bool, error)

// pendingEntry is the OptimisticPending arm of the per-entity machine: the
// entity has at least one unconfirmed flip. Absence from the pending map is
// the Clean arm, whose value lives in the authoritative cache.
type pendingEntry struct {
	value       bool // current optimistic value
	base        bool // effective value before the first unconfirmed flip
	outstanding int  // confirming calls still in flight
}

// EngagementState wraps one kind of engagement toggle (like, follow or
// bookmark) with optimistic local state. A toggle flips the visible flag and
// its dependent counter synchronously, then confirms with the backend; a
// failed confirmation reverts both by the exact inverse delta. Concurrent
// toggles compose on the optimistic value and the last server response wins
// on the authoritative cache.
type EngagementState struct {
	mu      sync.Mutex
	cache   *EngagementStatusCache
	confirm ConfirmFunc
	live    *Liveness
	logger  *zap.Logger

	pending map[string]*pendingEntry

	adjust   func(id string, delta int64)
	onChange func()
	onError  func(id string, err error, retry func())
}

func NewEngagementState(cache *EngagementStatusCache, confirm ConfirmFunc, live *Liveness, logger *zap.Logger) *EngagementState {
	return &EngagementState{
		cache:   cache,
		confirm: confirm,
		live:    live,
		logger:  logger,
		pending: make(map[string]*pendingEntry),
	}
}

// SetCounterAdjust installs the counter side effect applied on every
// optimistic flip and reverted on failure.
func (e *EngagementState) SetCounterAdjust(adjust func(id string, delta int64)) {
	e.adjust = adjust
}

// SetOnChange installs the render-invalidation callback.
func (e *EngagementState) SetOnChange(onChange func()) {
	e.onChange = onChange
}

// SetOnError installs the transient-error surface. retry re-runs the failed
// toggle from the current effective state.
func (e *EngagementState) SetOnError(onError func(id string, err error, retry func())) {
	e.onError = onError
}

// Effective returns the value to render: the optimistic override when one is
// pending, else the authoritative cache, else false.
func (e *EngagementState) Effective(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.effectiveLocked(id)
}

func (e *EngagementState) effectiveLocked(id string) bool {
	if p, ok := e.pending[id]; ok {
		return p.value
	}
	return e.cache.Get(id)
}

// Pending reports whether the entity has unconfirmed flips.
func (e *EngagementState) Pending(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[id]
	return ok
}

// Toggle flips the flag optimistically and issues the confirming call.
func (e *EngagementState) Toggle(ctx context.Context, id string) {
	e.mu.Lock()
	current := e.effectiveLocked(id)
	next := !current

	p, ok := e.pending[id]
	if !ok {
		p = &pendingEntry{base: current}
		e.pending[id] = p
	}
	p.value = next
	p.outstanding++

	var delta int64 = 1
	if !next {
		delta = -1
	}
	if e.adjust != nil {
		e.adjust(id, delta)
	}
	e.mu.Unlock()

	e.notify()
	go e.confirmToggle(ctx, id, delta)
}

func (e *EngagementState) confirmToggle(ctx context.Context, id string, delta int64) {
	server, err := e.confirm(ctx, id)
	if e.live != nil && !e.live.Alive() {
		return
	}

	e.mu.Lock()
	p := e.pending[id]
	if p == nil {
		// Collapsed already; a late success still refreshes the cache.
		if err == nil {
			e.cache.Set(id, server)
			e.mu.Unlock()
			e.notify()
			return
		}
		e.mu.Unlock()
		return
	}
	p.outstanding--

	if err != nil {
		// Revert this flip exactly: inverse counter delta, value flipped back.
		if e.adjust != nil {
			e.adjust(id, -delta)
		}
		p.value = !p.value
		if p.outstanding == 0 {
			delete(e.pending, id)
		}
		e.mu.Unlock()

		if e.logger != nil {
			e.logger.Warn("engagement toggle failed", zap.String("id", id), zap.Error(err))
		}
		e.notify()
		if e.onError != nil {
			e.onError(id, err, func() { e.Toggle(ctx, id) })
		}
		return
	}

	// Last write wins on the authoritative cache.
	e.cache.Set(id, server)
	if p.outstanding == 0 {
		delete(e.pending, id)
	}
	e.mu.Unlock()
	e.notify()
}

func (e *EngagementState) notify() {
	if e.onChange != nil {
		e.onChange()
	}
}
