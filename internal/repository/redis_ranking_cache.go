package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/redis"
)

const rankingKeyPrefix = "trending:ranking"

// RedisRankingCache caches the computed top-N ranking between batch
// recomputes, keyed by requested limit.
type RedisRankingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRankingCache creates a new RedisRankingCache
func NewRedisRankingCache(client *redis.Client, ttl time.Duration) *RedisRankingCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisRankingCache{client: client, ttl: ttl}
}

func rankingKey(limit int) string {
	return fmt.Sprintf("%s:%d", rankingKeyPrefix, limit)
}

// Get returns the cached ranking, or ok=false on miss. A corrupt cache
// entry is treated as a miss.
func (c *RedisRankingCache) Get(ctx context.Context, limit int) ([]*RankedEvent, bool) {
	raw, err := c.client.Get(ctx, rankingKey(limit)).Bytes()
	if err == goredis.Nil {
		return nil, false
	}
	if err != nil {
		return nil, false
	}

	var ranking []*RankedEvent
	if err := json.Unmarshal(raw, &ranking); err != nil {
		return nil, false
	}
	return ranking, true
}

// Set stores the ranking
func (c *RedisRankingCache) Set(ctx context.Context, limit int, ranking []*RankedEvent) error {
	raw, err := json.Marshal(ranking)
	if err != nil {
		return fmt.Errorf("failed to marshal ranking: %w", err)
	}
	if err := c.client.Set(ctx, rankingKey(limit), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache ranking: %w", err)
	}
	return nil
}

// Invalidate drops all cached rankings regardless of limit
func (c *RedisRankingCache) Invalidate(ctx context.Context) error {
	iter := c.client.Client().Scan(ctx, 0, rankingKeyPrefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan ranking keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate ranking cache: %w", err)
	}
	return nil
}
