package state

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"avara_app/models"
)

func makePosts(page, n int) []models.Post {
	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, models.Post{ID: fmt.Sprintf("post-%d-%d", page, i)})
	}
	return posts
}

func TestLoadFirstPage(t *testing.T) {
	fetch := func(ctx context.Context, pageIndex, pageSize int, orderBy string) ([]models.Post, error) {
		assert.Equal(t, 0, pageIndex)
		assert.Equal(t, models.OrderTrending, orderBy)
		return makePosts(0, pageSize), nil
	}

	c := NewPaginatedFeedController(fetch, 5, zap.NewNop())
	require.NoError(t, c.LoadFirstPage(context.Background(), models.OrderTrending))

	assert.Equal(t, 5, c.Len())
	assert.Equal(t, 1, c.Page())
	assert.False(t, c.Exhausted())
	assert.NoError(t, c.Err())
}

func TestLoadFirstPageShortPageExhausts(t *testing.T) {
	fetch := func(ctx context.Context, pageIndex, pageSize int, orderBy string) ([]models.Post, error) {
		return makePosts(0, 3), nil
	}

	c := NewPaginatedFeedController(fetch, 5, zap.NewNop())
	require.NoError(t, c.LoadFirstPage(context.Background(), models.OrderNewest))

	assert.Equal(t, 3, c.Len())
	assert.True(t, c.Exhausted())
}

func TestLoadFirstPageError(t *testing.T) {
	wantErr := errors.New("backend down")
	fetch := func(ctx context.Context, pageIndex, pageSize int, orderBy string) ([]models.Post, error) {
		return nil, wantErr
	}

	c := NewPaginatedFeedController(fetch, 5, zap.NewNop())
	err := c.LoadFirstPage(context.Background(), models.OrderTrending)

	require.ErrorIs(t, err, wantErr)
	assert.ErrorIs(t, c.Err(), wantErr)
	assert.Equal(t, 0, c.Len())
}

func TestLoadNextPageAppendsAndAdvances(t *testing.T) {
	fetch := func(ctx context.Context, pageIndex, pageSize int, orderBy string) ([]models.Post, error) {
		return makePosts(pageIndex, pageSize), nil
	}

	c := NewPaginatedFeedController(fetch, 5, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, c.LoadFirstPage(ctx, models.OrderTrending))
	require.NoError(t, c.LoadNextPage(ctx))

	assert.Equal(t, 10, c.Len())
	assert.Equal(t, 2, c.Page())
	assert.Equal(t, "post-1-0", c.Posts()[5].ID)
}

func TestLoadNextPageEmptyExhausts(t *testing.T) {
	fetch := func(ctx context.Context, pageIndex, pageSize int, orderBy string) ([]models.Post, error) {
		if pageIndex == 0 {
			return makePosts(0, pageSize), nil
		}
		return nil, nil
	}

	c := NewPaginatedFeedController(fetch, 5, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, c.LoadFirstPage(ctx, models.OrderTrending))
	require.NoError(t, c.LoadNextPage(ctx))

	assert.Equal(t, 5, c.Len())
	assert.True(t, c.Exhausted())

	// Once exhausted, further calls are no-ops.
	require.NoError(t, c.LoadNextPage(ctx))
	assert.Equal(t, 5, c.Len())
}

func TestLoadNextPageErrorDoesNotInterrupt(t *testing.T) {
	var fail atomic.Bool
	fetch := func(ctx context.Context, pageIndex, pageSize int, orderBy string) ([]models.Post, error) {
		if fail.Load() {
			return nil, errors.New("flaky network")
		}
		return makePosts(pageIndex, pageSize), nil
	}

	c := NewPaginatedFeedController(fetch, 5, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, c.LoadFirstPage(ctx, models.OrderTrending))

	fail.Store(true)
	require.NoError(t, c.LoadNextPage(ctx), "continuation failures are swallowed")
	assert.Equal(t, 5, c.Len())
	assert.Equal(t, 1, c.Page(), "page counter advances only on success")
	assert.False(t, c.Exhausted())

	// The same page is retried on the next trigger.
	fail.Store(false)
	require.NoError(t, c.LoadNextPage(ctx))
	assert.Equal(t, 10, c.Len())
	assert.Equal(t, 2, c.Page())
}

func TestLoadNextPageInFlightGuard(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context, pageIndex, pageSize int, orderBy string) ([]models.Post, error) {
		if pageIndex == 0 {
			return makePosts(0, pageSize), nil
		}
		calls.Add(1)
		close(started)
		<-release
		return makePosts(pageIndex, pageSize), nil
	}

	c := NewPaginatedFeedController(fetch, 5, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, c.LoadFirstPage(ctx, models.OrderTrending))

	done := make(chan struct{})
	go func() {
		_ = c.LoadNextPage(ctx)
		close(done)
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("load-more never started")
	}

	// Triggers landing while the fetch is in flight must not start another.
	require.NoError(t, c.LoadNextPage(ctx))
	c.OnTrailingEdge(ctx)
	c.OnVisibleIndexChanged(ctx, c.Len()-1)

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("load-more never finished")
	}

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 10, c.Len())
}

func TestShouldLoadMore(t *testing.T) {
	fetch := func(ctx context.Context, pageIndex, pageSize int, orderBy string) ([]models.Post, error) {
		return makePosts(pageIndex, pageSize), nil
	}

	c := NewPaginatedFeedController(fetch, 10, zap.NewNop())
	require.NoError(t, c.LoadFirstPage(context.Background(), models.OrderTrending))

	tests := []struct {
		name  string
		index int
		want  bool
	}{
		{"far from tail", 3, false},
		{"just outside lookahead", 6, false},
		{"within lookahead", 7, true},
		{"at tail", 9, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ShouldLoadMore(tt.index))
		})
	}
}

func TestShouldLoadMoreNeverOnEmptyOrExhausted(t *testing.T) {
	fetch := func(ctx context.Context, pageIndex, pageSize int, orderBy string) ([]models.Post, error) {
		return makePosts(0, 2), nil
	}

	c := NewPaginatedFeedController(fetch, 10, zap.NewNop())
	assert.False(t, c.ShouldLoadMore(0), "empty list never triggers")

	require.NoError(t, c.LoadFirstPage(context.Background(), models.OrderTrending))
	require.True(t, c.Exhausted())
	assert.False(t, c.ShouldLoadMore(1))
}

func TestPreloadHookReceivesOnlyVideos(t *testing.T) {
	fetch := func(ctx context.Context, pageIndex, pageSize int, orderBy string) ([]models.Post, error) {
		return []models.Post{
			{ID: "a", MediaKind: models.MediaKindImage},
			{ID: "b", MediaKind: models.MediaKindVideo},
			{ID: "c", MediaKind: models.MediaKindVideo},
		}, nil
	}

	c := NewPaginatedFeedController(fetch, 5, zap.NewNop())
	got := make(chan []models.Post, 1)
	c.SetPreloadHook(func(ctx context.Context, posts []models.Post) {
		got <- posts
	})

	require.NoError(t, c.LoadFirstPage(context.Background(), models.OrderTrending))

	select {
	case videos := <-got:
		require.Len(t, videos, 2)
		assert.Equal(t, "b", videos[0].ID)
		assert.Equal(t, "c", videos[1].ID)
	case <-time.After(time.Second):
		t.Fatal("preload hook never ran")
	}
}
