package screens

import (
	"context"

	"go.uber.org/zap"

	"avara_app/models"
	"avara_app/services"
	"avara_app/state"
	"avara_app/video"
)

// FeedBackend is the slice of the feed service the feed screen consumes.
type FeedBackend interface {
	GetPage(ctx context.Context, pageIndex, pageSize int, orderBy string) ([]models.Post, error)
	GetAvatarsBatch(ctx context.Context, ids []string) (map[string]models.Avatar, error)
	GetLikedBatch(ctx context.Context, ids []string) (map[string]bool, error)
	ToggleLike(ctx context.Context, postID string) (bool, error)
	IncrementViewCount(ctx context.Context, postID string) error
}

var _ FeedBackend = (*services.FeedService)(nil)

// FeedItem is the merged view model the render layer consumes.
type FeedItem struct {
	Post        models.Post
	Avatar      models.Avatar
	Liked       bool
	LikePending bool
}

// FeedScreen drives the trending feed: cursor pagination, per-page avatar
// and engagement hydration, optimistic likes and budgeted video preload.
type FeedScreen struct {
	ScreenController

	backend   FeedBackend
	analytics services.AnalyticsService
	player    video.PlaybackService

	controller *state.PaginatedFeedController
	avatars    *state.AvatarResolutionCache
	liked      *state.EngagementStatusCache
	likes      *state.EngagementState

	likeDeltas map[string]int64
}

func NewFeedScreen(backend FeedBackend, player video.PlaybackService, analytics services.AnalyticsService, pageSize int, logger *zap.Logger) *FeedScreen {
	s := &FeedScreen{
		backend:    backend,
		analytics:  analytics,
		player:     player,
		likeDeltas: make(map[string]int64),
	}
	s.initScreen(logger)

	s.avatars = state.NewAvatarResolutionCache(backend.GetAvatarsBatch)
	s.liked = state.NewEngagementStatusCache(backend.GetLikedBatch)

	s.likes = state.NewEngagementState(s.liked, backend.ToggleLike, s.live, logger)
	s.likes.SetCounterAdjust(s.adjustLikeCount)
	s.likes.SetOnChange(s.notify)
	s.likes.SetOnError(func(id string, err error, retry func()) {
		s.showNotice("Couldn't update like", retry)
	})

	s.controller = state.NewPaginatedFeedController(backend.GetPage, pageSize, logger)
	s.controller.SetOnChange(s.notify)
	s.controller.SetPreloadHook(s.preloadVideos)
	return s
}

// Load fetches the first page. On failure the screen enters the error state
// with a retry bound to this call; it never shows stale data as success.
func (s *FeedScreen) Load(ctx context.Context) {
	s.setLoading()
	err := s.controller.LoadFirstPage(ctx, models.OrderTrending)
	if !s.alive() {
		return
	}
	if err != nil {
		s.setError("Couldn't load your feed", func() { s.Load(ctx) })
		return
	}
	s.hydrate(ctx, s.controller.Posts())
	if !s.alive() {
		return
	}
	s.setReady()
}

// OnPostVisible is the swipe trigger: it tracks the impression and loads
// more when the visible index nears the tail.
func (s *FeedScreen) OnPostVisible(ctx context.Context, index int) {
	posts := s.controller.Posts()
	if index >= 0 && index < len(posts) {
		post := posts[index]
		go func() {
			if err := s.backend.IncrementViewCount(ctx, post.ID); err != nil && s.alive() {
				s.logger.Debug("view count increment failed", zap.String("postId", post.ID), zap.Error(err))
			}
		}()
		s.analytics.Track("post_impression", map[string]string{"postId": post.ID})
		if post.IsVideo() {
			s.player.Play(post.MediaURL)
		}
	}

	if s.controller.ShouldLoadMore(index) {
		go s.loadMore(ctx)
	}
}

// OnTrailingEdge is the scroll trigger for the same load-more path.
func (s *FeedScreen) OnTrailingEdge(ctx context.Context) {
	go s.loadMore(ctx)
}

func (s *FeedScreen) loadMore(ctx context.Context) {
	before := s.controller.Len()
	_ = s.controller.LoadNextPage(ctx)
	if !s.alive() {
		return
	}
	posts := s.controller.Posts()
	if len(posts) > before {
		s.hydrate(ctx, posts[before:])
	}
	if !s.alive() {
		return
	}
	s.notify()
}

// hydrate fills the avatar and engagement caches for a page of posts.
// Failures degrade to placeholders and unknown-as-false, never to errors.
func (s *FeedScreen) hydrate(ctx context.Context, posts []models.Post) {
	avatarIDs := make([]string, 0, len(posts))
	postIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		avatarIDs = append(avatarIDs, p.AvatarID)
		postIDs = append(postIDs, p.ID)
	}

	if err := s.avatars.Resolve(ctx, avatarIDs); err != nil && s.alive() {
		s.logger.Warn("avatar resolution failed", zap.Error(err))
	}
	if err := s.liked.Resolve(ctx, postIDs); err != nil && s.alive() {
		s.logger.Warn("engagement resolution failed", zap.Error(err))
	}
}

// ToggleLike flips the like optimistically; confirmation runs in the
// background.
func (s *FeedScreen) ToggleLike(ctx context.Context, postID string) {
	s.likes.Toggle(ctx, postID)
}

// Items returns the merged view models in feed order.
func (s *FeedScreen) Items() []FeedItem {
	posts := s.controller.Posts()

	s.mu.Lock()
	deltas := make(map[string]int64, len(s.likeDeltas))
	for id, d := range s.likeDeltas {
		deltas[id] = d
	}
	s.mu.Unlock()

	items := make([]FeedItem, 0, len(posts))
	for _, p := range posts {
		p.LikesCount += deltas[p.ID]
		items = append(items, FeedItem{
			Post:        p,
			Avatar:      s.avatars.GetOrPlaceholder(p.AvatarID),
			Liked:       s.likes.Effective(p.ID),
			LikePending: s.likes.Pending(p.ID),
		})
	}
	return items
}

// LoadingMore mirrors the controller's loading-more indicator.
func (s *FeedScreen) LoadingMore() bool {
	return s.controller.LoadingMore()
}

// Exhausted reports whether the feed has no further pages.
func (s *FeedScreen) Exhausted() bool {
	return s.controller.Exhausted()
}

func (s *FeedScreen) adjustLikeCount(id string, delta int64) {
	s.mu.Lock()
	s.likeDeltas[id] += delta
	s.mu.Unlock()
}

func (s *FeedScreen) preloadVideos(ctx context.Context, posts []models.Post) {
	for _, p := range posts {
		if ctx.Err() != nil {
			return
		}
		s.player.Preload(ctx, p.MediaURL)
	}
}

// Dispose releases the screen: playback stops, in-flight callbacks are
// dropped, caches die with the instance.
func (s *FeedScreen) Dispose() {
	s.ScreenController.Dispose()
	s.player.PauseAll()
}
