// Package video wraps the shared video playback collaborator. Decoder pools
// and actual media work live outside this module; what matters here is the
// call contract: operations may be invoked redundantly and must be
// idempotent, and preloading is budgeted so it never delays page display.
package video

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AnalyticsFunc receives playback events (preloaded, play, pause).
type AnalyticsFunc func(event, url string)

// Loader performs the actual media fetch for a preload.
type Loader interface {
	Fetch(ctx context.Context, url string) error
}

// PlaybackService is the collaborator contract the screens consume.
type PlaybackService interface {
	Initialize(ctx context.Context) error
	Preload(ctx context.Context, url string)
	Play(url string)
	Pause(url string)
	PauseAll()
	MuteAll()
	UnmuteAll()
	SetAnalyticsCallback(fn AnalyticsFunc)
}

// defaultPreloadBudget caps a single preload so a slow CDN never blocks the
// feed.
const defaultPreloadBudget = 3 * time.Second

// PooledPlayer is the in-process implementation of PlaybackService.
type PooledPlayer struct {
	loader Loader
	logger *zap.Logger
	budget time.Duration

	mu        sync.Mutex
	ready     bool
	preloaded map[string]bool
	playing   map[string]bool
	muted     bool
	analytics AnalyticsFunc
}

func NewPooledPlayer(loader Loader, logger *zap.Logger) *PooledPlayer {
	return &PooledPlayer{
		loader:    loader,
		logger:    logger,
		budget:    defaultPreloadBudget,
		preloaded: make(map[string]bool),
		playing:   make(map[string]bool),
	}
}

// SetPreloadBudget overrides the per-URL preload timeout.
func (p *PooledPlayer) SetPreloadBudget(d time.Duration) {
	if d > 0 {
		p.budget = d
	}
}

func (p *PooledPlayer) SetAnalyticsCallback(fn AnalyticsFunc) {
	p.mu.Lock()
	p.analytics = fn
	p.mu.Unlock()
}

func (p *PooledPlayer) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready = true
	return nil
}

// Preload warms the cache for a URL. Redundant calls are no-ops; a preload
// that blows its budget is logged and forgotten, never surfaced.
func (p *PooledPlayer) Preload(ctx context.Context, url string) {
	p.mu.Lock()
	if p.preloaded[url] {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, p.budget)
	defer cancel()
	if err := p.loader.Fetch(fetchCtx, url); err != nil {
		if p.logger != nil {
			p.logger.Warn("video preload failed", zap.String("url", url), zap.Error(err))
		}
		return
	}

	p.mu.Lock()
	p.preloaded[url] = true
	fn := p.analytics
	p.mu.Unlock()
	if fn != nil {
		fn("preloaded", url)
	}
}

// PreloadAll warms a batch of URLs sequentially within the shared context.
func (p *PooledPlayer) PreloadAll(ctx context.Context, urls []string) {
	for _, url := range urls {
		if ctx.Err() != nil {
			return
		}
		p.Preload(ctx, url)
	}
}

func (p *PooledPlayer) Play(url string) {
	p.mu.Lock()
	already := p.playing[url]
	p.playing[url] = true
	fn := p.analytics
	p.mu.Unlock()
	if !already && fn != nil {
		fn("play", url)
	}
}

func (p *PooledPlayer) Pause(url string) {
	p.mu.Lock()
	playing := p.playing[url]
	delete(p.playing, url)
	fn := p.analytics
	p.mu.Unlock()
	if playing && fn != nil {
		fn("pause", url)
	}
}

func (p *PooledPlayer) PauseAll() {
	p.mu.Lock()
	urls := make([]string, 0, len(p.playing))
	for url := range p.playing {
		urls = append(urls, url)
	}
	p.mu.Unlock()
	for _, url := range urls {
		p.Pause(url)
	}
}

func (p *PooledPlayer) MuteAll() {
	p.mu.Lock()
	p.muted = true
	p.mu.Unlock()
}

func (p *PooledPlayer) UnmuteAll() {
	p.mu.Lock()
	p.muted = false
	p.mu.Unlock()
}

// Muted reports the global mute flag.
func (p *PooledPlayer) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// Preloaded reports whether a URL has been warmed.
func (p *PooledPlayer) Preloaded(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.preloaded[url]
}

// Playing reports whether a URL is currently playing.
func (p *PooledPlayer) Playing(url string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing[url]
}
