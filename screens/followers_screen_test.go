package screens

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"avara_app/models"
)

type fakeFollowList struct {
	fakeFollows

	mu    sync.Mutex
	pages [][]models.Avatar
	calls []int
}

func (f *fakeFollowList) GetFollowedAvatars(ctx context.Context, pageIndex, pageSize int) ([]models.Avatar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, pageIndex)
	if pageIndex >= len(f.pages) {
		return nil, nil
	}
	return f.pages[pageIndex], nil
}

func avatarPage(page, n int) []models.Avatar {
	avatars := make([]models.Avatar, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("a%d-%d", page, i)
		avatars = append(avatars, models.Avatar{ID: id, DisplayName: "Creator " + id})
	}
	return avatars
}

func TestFollowersLoadSeedsFollowState(t *testing.T) {
	backend := &fakeFollowList{pages: [][]models.Avatar{avatarPage(0, 3)}}
	screen := NewFollowersScreen(backend, 3, zap.NewNop())

	screen.Load(context.Background())

	assert.Equal(t, PhaseReady, screen.Phase())
	items := screen.Items()
	require.Len(t, items, 3)
	for _, item := range items {
		assert.True(t, item.Following, "everything on the list is followed at load time")
	}
}

func TestFollowersLoadMoreNearTail(t *testing.T) {
	backend := &fakeFollowList{
		pages: [][]models.Avatar{avatarPage(0, 3), avatarPage(1, 2)},
	}
	screen := NewFollowersScreen(backend, 3, zap.NewNop())
	screen.Load(context.Background())

	screen.OnVisibleIndexChanged(context.Background(), 2)

	require.Eventually(t, func() bool {
		return len(screen.Items()) == 5
	}, time.Second, 5*time.Millisecond)

	// The short second page exhausts the list; further triggers do nothing.
	screen.OnVisibleIndexChanged(context.Background(), 4)
	time.Sleep(20 * time.Millisecond)

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []int{0, 1}, backend.calls)
}

func TestFollowersUnfollowStaysVisible(t *testing.T) {
	backend := &fakeFollowList{pages: [][]models.Avatar{avatarPage(0, 2)}}
	backend.following = map[string]bool{"a0-0": true, "a0-1": true}
	screen := NewFollowersScreen(backend, 3, zap.NewNop())
	screen.Load(context.Background())

	screen.ToggleFollow(context.Background(), "a0-0")

	items := screen.Items()
	require.Len(t, items, 2, "unfollowed avatars stay in the list until reload")
	assert.False(t, items[0].Following)
	assert.True(t, items[1].Following)
}
