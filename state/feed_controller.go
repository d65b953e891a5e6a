package state

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"avara_app/models"
)

// PageFetcher loads one page of feed content for an ordering.
type PageFetcher func(ctx context.Context, pageIndex, pageSize int, orderBy string) ([]models.Post, error)

// PreloadHook receives the video posts of a freshly appended page. It runs on
// its own goroutine and must budget itself; page display never waits for it.
type PreloadHook func(ctx context.Context, posts []models.Post)

// loadMoreLookahead is how close to the tail the visible index may get
// before the next page is requested.
const loadMoreLookahead = 2

// PaginatedFeedController owns the ordered item list of one feed screen:
// cursor pagination with an in-flight guard, an explicit exhausted flag, and
// the dual load-more triggers (trailing scroll edge, visible index near the
// tail). First-page failures become an error state; continuation failures
// are logged and swallowed so scrolling is never interrupted.
type PaginatedFeedController struct {
	fetch    PageFetcher
	pageSize int
	logger   *zap.Logger
	preload  PreloadHook
	onChange func()

	mu          sync.Mutex
	orderBy     string
	posts       []models.Post
	page        int
	loading     bool
	loadingMore bool
	exhausted   bool
	loadErr     error
}

func NewPaginatedFeedController(fetch PageFetcher, pageSize int, logger *zap.Logger) *PaginatedFeedController {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &PaginatedFeedController{fetch: fetch, pageSize: pageSize, logger: logger}
}

// SetPreloadHook installs the video preload side effect.
func (c *PaginatedFeedController) SetPreloadHook(hook PreloadHook) {
	c.preload = hook
}

// SetOnChange installs the render-invalidation callback.
func (c *PaginatedFeedController) SetOnChange(onChange func()) {
	c.onChange = onChange
}

// LoadFirstPage replaces the item list with page 0 of the given ordering.
// A call while another first-page load is in flight is a no-op.
func (c *PaginatedFeedController) LoadFirstPage(ctx context.Context, orderBy string) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	c.loadErr = nil
	c.orderBy = orderBy
	c.mu.Unlock()
	c.notify()

	items, err := c.fetch(ctx, 0, c.pageSize, orderBy)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.loadErr = err
		c.mu.Unlock()
		c.notify()
		return err
	}
	c.posts = items
	c.page = 1
	c.exhausted = len(items) < c.pageSize
	c.mu.Unlock()

	c.notify()
	c.preloadVideos(ctx, items)
	return nil
}

// LoadNextPage appends the next page. No-op while a load is in flight or
// once the feed is exhausted. The page counter advances only after a page
// was successfully appended.
func (c *PaginatedFeedController) LoadNextPage(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || c.loadingMore || c.exhausted {
		c.mu.Unlock()
		return nil
	}
	c.loadingMore = true
	page := c.page
	orderBy := c.orderBy
	c.mu.Unlock()
	c.notify()

	items, err := c.fetch(ctx, page, c.pageSize, orderBy)

	c.mu.Lock()
	c.loadingMore = false
	if err != nil {
		c.mu.Unlock()
		// Continuation failures never interrupt scrolling.
		if c.logger != nil {
			c.logger.Warn("failed to load next feed page", zap.Int("page", page), zap.Error(err))
		}
		c.notify()
		return nil
	}
	if len(items) == 0 {
		c.exhausted = true
		c.mu.Unlock()
		c.notify()
		return nil
	}
	c.posts = append(c.posts, items...)
	c.page++
	if len(items) < c.pageSize {
		c.exhausted = true
	}
	c.mu.Unlock()

	c.notify()
	c.preloadVideos(ctx, items)
	return nil
}

// OnVisibleIndexChanged is the swipe trigger: loads more once the visible
// index comes within loadMoreLookahead of the tail.
func (c *PaginatedFeedController) OnVisibleIndexChanged(ctx context.Context, visibleIndex int) {
	if c.ShouldLoadMore(visibleIndex) {
		_ = c.LoadNextPage(ctx)
	}
}

// OnTrailingEdge is the scroll trigger: the list hit its trailing edge.
func (c *PaginatedFeedController) OnTrailingEdge(ctx context.Context) {
	_ = c.LoadNextPage(ctx)
}

// ShouldLoadMore reports whether the visible index is close enough to the
// tail to warrant the next page.
func (c *PaginatedFeedController) ShouldLoadMore(visibleIndex int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading || c.loadingMore || c.exhausted || len(c.posts) == 0 {
		return false
	}
	return visibleIndex >= len(c.posts)-1-loadMoreLookahead
}

// Posts returns a snapshot of the item list.
func (c *PaginatedFeedController) Posts() []models.Post {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Post, len(c.posts))
	copy(out, c.posts)
	return out
}

func (c *PaginatedFeedController) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.posts)
}

// Page is the next page index to fetch.
func (c *PaginatedFeedController) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

func (c *PaginatedFeedController) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *PaginatedFeedController) LoadingMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadingMore
}

func (c *PaginatedFeedController) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exhausted
}

// Err is the first-page error, if the controller is in the error state.
func (c *PaginatedFeedController) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

func (c *PaginatedFeedController) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

func (c *PaginatedFeedController) preloadVideos(ctx context.Context, items []models.Post) {
	if c.preload == nil {
		return
	}
	var videos []models.Post
	for _, p := range items {
		if p.IsVideo() {
			videos = append(videos, p)
		}
	}
	if len(videos) == 0 {
		return
	}
	go c.preload(ctx, videos)
}
