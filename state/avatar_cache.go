package state

import (
	"context"
	"sync"

	"avara_app/models"
)

// AvatarBatchResolver fetches avatar summaries for the given ids. Ids the
// backend cannot resolve are simply absent from the result.
type AvatarBatchResolver func(ctx context.Context, ids []string) (map[string]models.Avatar, error)

// AvatarResolutionCache maps avatar ids to their summaries, filled lazily per
// unique id encountered in a page of content. A miss renders as a
// placeholder, never as an error, and may stay a placeholder forever if the
// id never resolves.
type AvatarResolutionCache struct {
	mu       sync.RWMutex
	avatars  map[string]models.Avatar
	resolver AvatarBatchResolver
}

func NewAvatarResolutionCache(resolver AvatarBatchResolver) *AvatarResolutionCache {
	return &AvatarResolutionCache{
		avatars:  make(map[string]models.Avatar),
		resolver: resolver,
	}
}

// Get returns the cached summary and whether it is resolved.
func (c *AvatarResolutionCache) Get(id string) (models.Avatar, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.avatars[id]
	return a, ok
}

// GetOrPlaceholder never fails: unresolved ids come back as the generic
// placeholder.
func (c *AvatarResolutionCache) GetOrPlaceholder(id string) models.Avatar {
	if a, ok := c.Get(id); ok {
		return a
	}
	return models.PlaceholderAvatar(id)
}

// Set stores a summary fetched out-of-band (e.g. a single-avatar lookup).
func (c *AvatarResolutionCache) Set(avatar models.Avatar) {
	c.mu.Lock()
	c.avatars[avatar.ID] = avatar
	c.mu.Unlock()
}

// Resolve batch-fetches the ids not yet cached and merges the results.
func (c *AvatarResolutionCache) Resolve(ctx context.Context, ids []string) error {
	c.mu.RLock()
	var missing []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := c.avatars[id]; !ok {
			missing = append(missing, id)
		}
	}
	c.mu.RUnlock()

	if len(missing) == 0 {
		return nil
	}

	resolved, err := c.resolver(ctx, missing)
	if err != nil {
		return err
	}

	c.mu.Lock()
	for id, avatar := range resolved {
		c.avatars[id] = avatar
	}
	c.mu.Unlock()
	return nil
}
