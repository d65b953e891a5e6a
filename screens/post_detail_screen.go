package screens

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"avara_app/models"
	"avara_app/services"
	"avara_app/state"
)

// PostDetailBackend is the slice of the feed service the detail screen
// consumes.
type PostDetailBackend interface {
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetAvatarFor(ctx context.Context, avatarID string) (*models.Avatar, error)
	GetLikedBatch(ctx context.Context, ids []string) (map[string]bool, error)
	GetFollowingBatch(ctx context.Context, ids []string) (map[string]bool, error)
	GetBookmarkedBatch(ctx context.Context, ids []string) (map[string]bool, error)
	ToggleLike(ctx context.Context, postID string) (bool, error)
	ToggleFollow(ctx context.Context, avatarID string) (bool, error)
	ToggleBookmark(ctx context.Context, postID string) (bool, error)
	IncrementViewCount(ctx context.Context, postID string) error
	SharePost(ctx context.Context, postID, platform string) error
	ReportPost(ctx context.Context, postID, reason string) error
	BlockUser(ctx context.Context, ownerID string) error
}

var _ PostDetailBackend = (*services.FeedService)(nil)

// PostDetail is the merged view model for the detail screen.
type PostDetail struct {
	Post       models.Post
	Avatar     models.Avatar
	Liked      bool
	Following  bool
	Bookmarked bool
}

// PostDetailScreen shows a single post with optimistic like, follow and
// bookmark toggles plus the share/report/block actions.
type PostDetailScreen struct {
	ScreenController

	backend   PostDetailBackend
	analytics services.AnalyticsService

	liked      *state.EngagementStatusCache
	following  *state.EngagementStatusCache
	bookmarked *state.EngagementStatusCache
	likes      *state.EngagementState
	follows    *state.EngagementState
	bookmarks  *state.EngagementState

	postID      string
	post        models.Post
	avatar      models.Avatar
	loaded      bool
	likeDelta   int64
	followDelta int64
}

func NewPostDetailScreen(backend PostDetailBackend, analytics services.AnalyticsService, logger *zap.Logger) *PostDetailScreen {
	s := &PostDetailScreen{backend: backend, analytics: analytics}
	s.initScreen(logger)

	s.liked = state.NewEngagementStatusCache(backend.GetLikedBatch)
	s.following = state.NewEngagementStatusCache(backend.GetFollowingBatch)
	s.bookmarked = state.NewEngagementStatusCache(backend.GetBookmarkedBatch)

	s.likes = state.NewEngagementState(s.liked, backend.ToggleLike, s.live, logger)
	s.likes.SetOnChange(s.notify)
	s.likes.SetOnError(func(id string, err error, retry func()) {
		s.showNotice("Couldn't update like", retry)
	})
	s.likes.SetCounterAdjust(func(_ string, delta int64) {
		s.mu.Lock()
		s.likeDelta += delta
		s.mu.Unlock()
	})

	s.follows = state.NewEngagementState(s.following, backend.ToggleFollow, s.live, logger)
	s.follows.SetOnChange(s.notify)
	s.follows.SetOnError(func(id string, err error, retry func()) {
		s.showNotice("Couldn't update follow", retry)
	})
	s.follows.SetCounterAdjust(func(_ string, delta int64) {
		s.mu.Lock()
		s.followDelta += delta
		s.mu.Unlock()
	})

	s.bookmarks = state.NewEngagementState(s.bookmarked, backend.ToggleBookmark, s.live, logger)
	s.bookmarks.SetOnChange(s.notify)
	s.bookmarks.SetOnError(func(id string, err error, retry func()) {
		s.showNotice("Couldn't update bookmark", retry)
	})
	return s
}

// Load fetches the post, its avatar and the viewer's engagement flags.
func (s *PostDetailScreen) Load(ctx context.Context, postID string) {
	s.setLoading()

	post, err := s.backend.GetByID(ctx, postID)
	if !s.alive() {
		return
	}
	if err != nil {
		message := "Couldn't load post"
		if errors.Is(err, services.ErrNotFound) {
			message = "This post is no longer available"
		}
		s.setError(message, func() { s.Load(ctx, postID) })
		return
	}

	avatar := models.PlaceholderAvatar(post.AvatarID)
	if resolved, err := s.backend.GetAvatarFor(ctx, post.AvatarID); err == nil {
		avatar = *resolved
	} else if s.alive() {
		s.logger.Warn("avatar resolution failed", zap.String("avatarId", post.AvatarID), zap.Error(err))
	}
	if !s.alive() {
		return
	}

	if err := s.liked.Resolve(ctx, []string{post.ID}); err != nil && s.alive() {
		s.logger.Warn("like status resolution failed", zap.Error(err))
	}
	if err := s.following.Resolve(ctx, []string{post.AvatarID}); err != nil && s.alive() {
		s.logger.Warn("follow status resolution failed", zap.Error(err))
	}
	if err := s.bookmarked.Resolve(ctx, []string{post.ID}); err != nil && s.alive() {
		s.logger.Warn("bookmark status resolution failed", zap.Error(err))
	}
	if !s.alive() {
		return
	}

	s.mu.Lock()
	s.postID = post.ID
	s.post = *post
	s.avatar = avatar
	s.loaded = true
	s.likeDelta = 0
	s.followDelta = 0
	s.mu.Unlock()
	s.setReady()

	go func() {
		if err := s.backend.IncrementViewCount(ctx, post.ID); err != nil && s.alive() {
			s.logger.Debug("view count increment failed", zap.Error(err))
		}
	}()
}

// Detail returns the merged view model. Valid once the screen is ready.
func (s *PostDetailScreen) Detail() PostDetail {
	s.mu.Lock()
	post := s.post
	avatar := s.avatar
	post.LikesCount += s.likeDelta
	avatar.FollowersCount += s.followDelta
	postID := s.postID
	avatarID := avatar.ID
	s.mu.Unlock()

	return PostDetail{
		Post:       post,
		Avatar:     avatar,
		Liked:      s.likes.Effective(postID),
		Following:  s.follows.Effective(avatarID),
		Bookmarked: s.bookmarks.Effective(postID),
	}
}

func (s *PostDetailScreen) ToggleLike(ctx context.Context) {
	s.mu.Lock()
	id := s.postID
	s.mu.Unlock()
	s.likes.Toggle(ctx, id)
}

func (s *PostDetailScreen) ToggleFollow(ctx context.Context) {
	s.mu.Lock()
	id := s.avatar.ID
	s.mu.Unlock()
	s.follows.Toggle(ctx, id)
}

func (s *PostDetailScreen) ToggleBookmark(ctx context.Context) {
	s.mu.Lock()
	id := s.postID
	s.mu.Unlock()
	s.bookmarks.Toggle(ctx, id)
}

// Share records a share to the given platform in the background.
func (s *PostDetailScreen) Share(ctx context.Context, platform string) {
	s.mu.Lock()
	id := s.postID
	s.mu.Unlock()

	s.analytics.Track("post_share", map[string]string{"postId": id, "platform": platform})
	go func() {
		if err := s.backend.SharePost(ctx, id, platform); err != nil && s.alive() {
			s.showNotice("Couldn't share post", func() { s.Share(ctx, platform) })
		}
	}()
}

// Report files a moderation report in the background.
func (s *PostDetailScreen) Report(ctx context.Context, reason string) {
	s.mu.Lock()
	id := s.postID
	s.mu.Unlock()

	go func() {
		if err := s.backend.ReportPost(ctx, id, reason); err != nil && s.alive() {
			s.showNotice("Couldn't submit report", func() { s.Report(ctx, reason) })
		}
	}()
}

// BlockOwner blocks the post's owner in the background.
func (s *PostDetailScreen) BlockOwner(ctx context.Context) {
	s.mu.Lock()
	ownerID := s.avatar.ID
	s.mu.Unlock()

	go func() {
		if err := s.backend.BlockUser(ctx, ownerID); err != nil && s.alive() {
			s.showNotice("Couldn't block user", func() { s.BlockOwner(ctx) })
		}
	}()
}
