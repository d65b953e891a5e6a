package state

import (
	"context"
	"sync"
)

// BatchResolver fetches engagement flags for the given entity ids.
type BatchResolver func(ctx context.Context, ids []string) (map[string]bool, error)

// EngagementStatusCache maps entity ids to one kind of engagement flag
// (liked, following or bookmarked) for the viewing user. An id that was
// never resolved reads as false. Entries are never evicted; the cache lives
// and dies with its screen.
type EngagementStatusCache struct {
	mu       sync.RWMutex
	flags    map[string]bool
	resolver BatchResolver
}

func NewEngagementStatusCache(resolver BatchResolver) *EngagementStatusCache {
	return &EngagementStatusCache{
		flags:    make(map[string]bool),
		resolver: resolver,
	}
}

// Get returns the cached flag, defaulting to false for unknown ids.
func (c *EngagementStatusCache) Get(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.flags[id]
}

// Known reports whether the id has ever been resolved or set.
func (c *EngagementStatusCache) Known(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.flags[id]
	return ok
}

// Set writes an authoritative value, e.g. a toggle confirmation.
func (c *EngagementStatusCache) Set(id string, value bool) {
	c.mu.Lock()
	c.flags[id] = value
	c.mu.Unlock()
}

// Resolve batch-fetches flags for the ids not yet cached and merges the
// results. Already-cached entries keep their value unless the resolver
// returns a fresh one for them.
func (c *EngagementStatusCache) Resolve(ctx context.Context, ids []string) error {
	c.mu.RLock()
	var missing []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := c.flags[id]; !ok {
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
	for id, value := range resolved {
		c.flags[id] = value
	}
	c.mu.Unlock()
	return nil
}
