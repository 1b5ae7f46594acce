// Package cache keeps process-wide snapshots of the two Codeforces
// catalogs and refreshes them through a TTL. Refresh failures are never
// surfaced: readers get the last-known snapshot, or an empty one.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"cf-coach/internal/codeforces"
)

type snapshot[T any] struct {
	value     []T
	fetchedAt time.Time
}

func (s snapshot[T]) stale(ttl time.Duration, now time.Time) bool {
	return s.fetchedAt.IsZero() || now.Sub(s.fetchedAt) >= ttl
}

// Source is the subset of the Codeforces client the cache needs.
type Source interface {
	Problems(ctx context.Context) ([]codeforces.Problem, error)
	Contests(ctx context.Context) ([]codeforces.Contest, error)
}

type Cache struct {
	source Source
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	problems snapshot[codeforces.Problem]
	contests snapshot[codeforces.Contest]
}

func New(source Source, ttl time.Duration, log *zap.Logger) *Cache {
	return &Cache{source: source, ttl: ttl, log: log, now: time.Now}
}

// Problems returns the problem snapshot, refreshing it at most once per
// call when it is absent or past the TTL.
func (c *Cache) Problems(ctx context.Context) []codeforces.Problem {
	c.mu.RLock()
	snap := c.problems
	c.mu.RUnlock()

	if !snap.stale(c.ttl, c.now()) {
		return snap.value
	}

	fresh, err := c.source.Problems(ctx)
	if err != nil {
		c.log.Warn("problem catalog refresh failed, serving stale",
			zap.Error(err), zap.Int("cached", len(snap.value)))
		return snap.value
	}

	c.mu.Lock()
	c.problems = snapshot[codeforces.Problem]{value: fresh, fetchedAt: c.now()}
	c.mu.Unlock()
	c.log.Info("problem catalog refreshed", zap.Int("problems", len(fresh)))
	return fresh
}

// Contests returns the contest snapshot with the same refresh policy.
func (c *Cache) Contests(ctx context.Context) []codeforces.Contest {
	c.mu.RLock()
	snap := c.contests
	c.mu.RUnlock()

	if !snap.stale(c.ttl, c.now()) {
		return snap.value
	}

	fresh, err := c.source.Contests(ctx)
	if err != nil {
		c.log.Warn("contest catalog refresh failed, serving stale",
			zap.Error(err), zap.Int("cached", len(snap.value)))
		return snap.value
	}

	c.mu.Lock()
	c.contests = snapshot[codeforces.Contest]{value: fresh, fetchedAt: c.now()}
	c.mu.Unlock()
	c.log.Info("contest catalog refreshed", zap.Int("contests", len(fresh)))
	return fresh
}
