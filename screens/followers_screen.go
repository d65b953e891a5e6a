package screens

import (
	"context"

	"go.uber.org/zap"

	"avara_app/models"
	"avara_app/services"
	"avara_app/state"
)

// FollowListBackend pages through the avatars the user follows.
type FollowListBackend interface {
	FollowBackend
	GetFollowedAvatars(ctx context.Context, pageIndex, pageSize int) ([]models.Avatar, error)
}

var _ FollowListBackend = (*services.FeedService)(nil)

// FollowersScreen lists the avatars the user follows, with optimistic
// unfollow/refollow toggles and the same near-tail pagination trigger as the
// feed.
type FollowersScreen struct {
	ScreenController

	backend  FollowListBackend
	pageSize int

	following *state.EngagementStatusCache
	follow    *state.EngagementState

	avatars      []models.Avatar
	page         int
	loadingMore  bool
	exhausted    bool
	followDeltas map[string]int64
}

func NewFollowersScreen(backend FollowListBackend, pageSize int, logger *zap.Logger) *FollowersScreen {
	if pageSize <= 0 {
		pageSize = 20
	}
	s := &FollowersScreen{
		backend:      backend,
		pageSize:     pageSize,
		followDeltas: make(map[string]int64),
	}
	s.initScreen(logger)

	s.following = state.NewEngagementStatusCache(backend.GetFollowingBatch)
	s.follow = state.NewEngagementState(s.following, backend.ToggleFollow, s.live, logger)
	s.follow.SetOnChange(s.notify)
	s.follow.SetOnError(func(id string, err error, retry func()) {
		s.showNotice("Couldn't update follow", retry)
	})
	s.follow.SetCounterAdjust(func(id string, delta int64) {
		s.mu.Lock()
		s.followDeltas[id] += delta
		s.mu.Unlock()
	})
	return s
}

// Load fetches the first page of followed avatars.
func (s *FollowersScreen) Load(ctx context.Context) {
	s.setLoading()

	avatars, err := s.backend.GetFollowedAvatars(ctx, 0, s.pageSize)
	if !s.alive() {
		return
	}
	if err != nil {
		s.setError("Couldn't load your follows", func() { s.Load(ctx) })
		return
	}

	// Everything on this list is followed right now; seed the cache instead
	// of re-asking the backend.
	for _, a := range avatars {
		s.following.Set(a.ID, true)
	}

	s.mu.Lock()
	s.avatars = avatars
	s.page = 1
	s.exhausted = len(avatars) < s.pageSize
	s.mu.Unlock()
	s.setReady()
}

// OnVisibleIndexChanged pages in more follows near the tail.
func (s *FollowersScreen) OnVisibleIndexChanged(ctx context.Context, index int) {
	s.mu.Lock()
	trigger := !s.loadingMore && !s.exhausted && len(s.avatars) > 0 &&
		index >= len(s.avatars)-3
	if trigger {
		s.loadingMore = true
	}
	page := s.page
	s.mu.Unlock()

	if !trigger {
		return
	}

	go func() {
		avatars, err := s.backend.GetFollowedAvatars(ctx, page, s.pageSize)
		if !s.alive() {
			return
		}

		s.mu.Lock()
		s.loadingMore = false
		if err != nil {
			s.mu.Unlock()
			s.logger.Warn("failed to load more follows", zap.Int("page", page), zap.Error(err))
			s.notify()
			return
		}
		if len(avatars) == 0 {
			s.exhausted = true
			s.mu.Unlock()
			s.notify()
			return
		}
		for _, a := range avatars {
			s.following.Set(a.ID, true)
		}
		s.avatars = append(s.avatars, avatars...)
		s.page++
		if len(avatars) < s.pageSize {
			s.exhausted = true
		}
		s.mu.Unlock()
		s.notify()
	}()
}

// ToggleFollow flips one avatar's follow state optimistically.
func (s *FollowersScreen) ToggleFollow(ctx context.Context, avatarID string) {
	s.follow.Toggle(ctx, avatarID)
}

// Items returns the follow list with current follow state merged in.
// Unfollowed avatars stay visible until a reload, matching the usual list
// behavior.
func (s *FollowersScreen) Items() []AvatarResult {
	s.mu.Lock()
	avatars := make([]models.Avatar, len(s.avatars))
	copy(avatars, s.avatars)
	deltas := make(map[string]int64, len(s.followDeltas))
	for id, d := range s.followDeltas {
		deltas[id] = d
	}
	s.mu.Unlock()

	items := make([]AvatarResult, 0, len(avatars))
	for _, a := range avatars {
		a.FollowersCount += deltas[a.ID]
		items = append(items, AvatarResult{
			Avatar:    a,
			Following: s.follow.Effective(a.ID),
		})
	}
	return items
}
