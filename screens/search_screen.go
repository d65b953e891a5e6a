package screens

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"avara_app/models"
	"avara_app/services"
	"avara_app/state"
)

// SearchBackend is the search service contract.
type SearchBackend interface {
	SearchAvatars(ctx context.Context, query string, limit int) ([]models.Avatar, error)
	SearchPosts(ctx context.Context, hashtag string, pageIndex, pageSize int) ([]models.Post, error)
}

// FollowBackend is the follow slice of the feed service, shared by the
// search and followers screens.
type FollowBackend interface {
	GetFollowingBatch(ctx context.Context, ids []string) (map[string]bool, error)
	ToggleFollow(ctx context.Context, avatarID string) (bool, error)
}

var (
	_ SearchBackend = (*services.SearchService)(nil)
	_ FollowBackend = (*services.FeedService)(nil)
)

// searchAvatarLimit caps the avatar result list.
const searchAvatarLimit = 20

// AvatarResult is one avatar hit with its follow state merged in.
type AvatarResult struct {
	Avatar    models.Avatar
	Following bool
}

// SearchScreen runs avatar search plus, for hashtag queries, a paginated
// post search, with optimistic follow toggles on the results.
type SearchScreen struct {
	ScreenController

	search  SearchBackend
	follows FollowBackend

	posts     *state.PaginatedFeedController
	following *state.EngagementStatusCache
	follow    *state.EngagementState

	query         string
	avatarResults []models.Avatar
	followDeltas  map[string]int64
}

func NewSearchScreen(search SearchBackend, follows FollowBackend, pageSize int, logger *zap.Logger) *SearchScreen {
	s := &SearchScreen{
		search:       search,
		follows:      follows,
		followDeltas: make(map[string]int64),
	}
	s.initScreen(logger)

	s.following = state.NewEngagementStatusCache(follows.GetFollowingBatch)
	s.follow = state.NewEngagementState(s.following, follows.ToggleFollow, s.live, logger)
	s.follow.SetOnChange(s.notify)
	s.follow.SetOnError(func(id string, err error, retry func()) {
		s.showNotice("Couldn't update follow", retry)
	})
	s.follow.SetCounterAdjust(func(id string, delta int64) {
		s.mu.Lock()
		s.followDeltas[id] += delta
		s.mu.Unlock()
	})

	// The post pager reuses the feed controller; the ordering argument is
	// unused because hashtag search has a fixed order.
	s.posts = state.NewPaginatedFeedController(func(ctx context.Context, pageIndex, pageSize int, _ string) ([]models.Post, error) {
		s.mu.Lock()
		query := s.query
		s.mu.Unlock()
		return s.search.SearchPosts(ctx, query, pageIndex, pageSize)
	}, pageSize, logger)
	s.posts.SetOnChange(s.notify)
	return s
}

// Search runs a fresh query, replacing any previous results.
func (s *SearchScreen) Search(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()

	if query == "" {
		s.mu.Lock()
		s.avatarResults = nil
		s.mu.Unlock()
		s.setReady()
		return
	}

	s.setLoading()

	avatars, err := s.search.SearchAvatars(ctx, query, searchAvatarLimit)
	if !s.alive() {
		return
	}
	if err != nil {
		s.setError("Search failed", func() { s.Search(ctx, query) })
		return
	}

	ids := make([]string, 0, len(avatars))
	for _, a := range avatars {
		ids = append(ids, a.ID)
	}
	if err := s.following.Resolve(ctx, ids); err != nil && s.alive() {
		s.logger.Warn("follow status resolution failed", zap.Error(err))
	}
	if !s.alive() {
		return
	}

	s.mu.Lock()
	s.avatarResults = avatars
	s.mu.Unlock()

	// Hashtag queries also get a post result pager; its failure is logged,
	// not surfaced, so avatar hits still render.
	if strings.HasPrefix(query, "#") {
		if err := s.posts.LoadFirstPage(ctx, ""); err != nil && s.alive() {
			s.logger.Warn("post search failed", zap.String("query", query), zap.Error(err))
		}
	}
	if !s.alive() {
		return
	}
	s.setReady()
}

// OnPostResultVisible pages the hashtag results on fast swipes.
func (s *SearchScreen) OnPostResultVisible(ctx context.Context, index int) {
	if s.posts.ShouldLoadMore(index) {
		go func() { _ = s.posts.LoadNextPage(ctx) }()
	}
}

// ToggleFollow flips the follow state of a result optimistically.
func (s *SearchScreen) ToggleFollow(ctx context.Context, avatarID string) {
	s.follow.Toggle(ctx, avatarID)
}

// AvatarResults returns the avatar hits with follow state merged in.
func (s *SearchScreen) AvatarResults() []AvatarResult {
	s.mu.Lock()
	avatars := make([]models.Avatar, len(s.avatarResults))
	copy(avatars, s.avatarResults)
	deltas := make(map[string]int64, len(s.followDeltas))
	for id, d := range s.followDeltas {
		deltas[id] = d
	}
	s.mu.Unlock()

	results := make([]AvatarResult, 0, len(avatars))
	for _, a := range avatars {
		a.FollowersCount += deltas[a.ID]
		results = append(results, AvatarResult{
			Avatar:    a,
			Following: s.follow.Effective(a.ID),
		})
	}
	return results
}

// PostResults returns the hashtag post hits loaded so far.
func (s *SearchScreen) PostResults() []models.Post {
	return s.posts.Posts()
}
