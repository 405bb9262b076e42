package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/support-desk/internal/domain"
)

const statsCacheKey = "support-desk:ticket-stats"

// StatsCache is a redis read-through cache for ticket stats. All methods are
// nil-receiver safe so the service degrades to uncached counting when redis
// is not configured.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache builds a cache with the given TTL.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &StatsCache{client: client, ttl: ttl}
}

// Get returns cached stats, or ok=false on miss or redis failure.
func (c *StatsCache) Get(ctx context.Context) (*domain.TicketStats, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var stats domain.TicketStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

// Set stores stats with the configured TTL. Failures are reported but the
// caller treats them as advisory.
func (c *StatsCache) Set(ctx context.Context, stats *domain.TicketStats) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsCacheKey, raw, c.ttl).Err()
}

// Invalidate drops the cached entry after a ticket mutation.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, statsCacheKey).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
