package progress

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"go.uber.org/atomic"
)

// Fetcher is the slice of the library client the cache needs.
type Fetcher interface {
	Progress(ctx context.Context) ([]int64, error)
	CompleteTopic(ctx context.Context, topicID int64) error
}

// Session reports whether a user is logged in.
type Session interface {
	Present() bool
}

// Cache holds the set of topics the logged-in user has completed.
type Cache struct {
	fetcher Fetcher
	session Session
	logger  *slog.Logger

	// epoch advances on every Reset; results launched under an older epoch
	// are dropped.
	epoch atomic.Uint64

	mu        sync.RWMutex
	completed map[int64]struct{}
}

// NewCache builds an empty Cache.
func NewCache(fetcher Fetcher, session Session, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{
		fetcher:   fetcher,
		session:   session,
		logger:    logger,
		completed: make(map[int64]struct{}),
	}
}

// Refresh replaces the set with the backend's view. Failures empty the set
// and are only logged.
func (c *Cache) Refresh(ctx context.Context) {
	epoch := c.epoch.Load()
	ids, err := c.fetcher.Progress(ctx)
	if err != nil {
		c.logger.Warn("progress refresh failed", "error", err)
		ids = nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.currentLocked(epoch) {
		c.logger.Debug("dropping stale progress refresh")
		return
	}
	next := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	c.completed = next
}

// MarkComplete records a topic as completed on the backend and, on success,
// in the cache. On failure the set is untouched and the error returned.
func (c *Cache) MarkComplete(ctx context.Context, topicID int64) error {
	epoch := c.epoch.Load()
	if err := c.fetcher.CompleteTopic(ctx, topicID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentLocked(epoch) {
		c.completed[topicID] = struct{}{}
	}
	return nil
}

// Reset empties the set and invalidates in-flight results.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch.Inc()
	c.completed = make(map[int64]struct{})
}

// IsComplete reports whether topicID is in the set.
func (c *Cache) IsComplete(topicID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.completed[topicID]
	return ok
}

// CompletedCount returns the size of the set.
func (c *Cache) CompletedCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.completed)
}

// Completed returns the completed ids in ascending order.
func (c *Cache) Completed() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.completed) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(c.completed))
	for id := range c.completed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (c *Cache) currentLocked(epoch uint64) bool {
	if c.epoch.Load() != epoch {
		return false
	}
	return c.session == nil || c.session.Present()
}
