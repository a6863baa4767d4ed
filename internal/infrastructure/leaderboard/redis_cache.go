package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/avelier/club-ladder/internal/domain/season"
	"github.com/avelier/club-ladder/internal/platform/resilience"
)

// RedisCache keeps serialized leaderboards in Redis with a TTL. A
// circuit breaker shields the read path: when Redis misbehaves the
// service falls back to the database instead of queueing on a dead
// connection.
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
}

func NewRedisCache(client *redis.Client, ttl time.Duration, breakerCfg resilience.CircuitBreakerConfig) *RedisCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	breakerCfg = resilience.NormalizeCircuitBreakerConfig(breakerCfg)
	return &RedisCache{
		client:  client,
		ttl:     ttl,
		breaker: resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
	}
}

func cacheKey(seasonID string) string {
	return "leaderboard:" + seasonID
}

func (c *RedisCache) Get(ctx context.Context, seasonID string) ([]season.LeaderboardEntry, bool, error) {
	if err := c.breaker.Allow(); err != nil {
		return nil, false, err
	}

	raw, err := c.client.Get(ctx, cacheKey(seasonID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.breaker.RecordSuccess()
			return nil, false, nil
		}
		c.breaker.RecordFailure()
		return nil, false, fmt.Errorf("read leaderboard cache: %w", err)
	}
	c.breaker.RecordSuccess()

	var entries []season.LeaderboardEntry
	if err := sonic.Unmarshal(raw, &entries); err != nil {
		return nil, false, fmt.Errorf("decode leaderboard cache: %w", err)
	}
	return entries, true, nil
}

func (c *RedisCache) Set(ctx context.Context, seasonID string, entries []season.LeaderboardEntry) error {
	if err := c.breaker.Allow(); err != nil {
		return err
	}

	raw, err := sonic.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode leaderboard cache: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(seasonID), raw, c.ttl).Err(); err != nil {
		c.breaker.RecordFailure()
		return fmt.Errorf("write leaderboard cache: %w", err)
	}
	c.breaker.RecordSuccess()
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, seasonID string) error {
	if err := c.breaker.Allow(); err != nil {
		return err
	}

	if err := c.client.Del(ctx, cacheKey(seasonID)).Err(); err != nil {
		c.breaker.RecordFailure()
		return fmt.Errorf("invalidate leaderboard cache: %w", err)
	}
	c.breaker.RecordSuccess()
	return nil
}
