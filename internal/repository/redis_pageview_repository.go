package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/redis"
)

const (
	pageViewKeyPrefix = "views:event"
	dateBucketLayout  = "2006-01-02"
)

// RedisPageViewRepository counts event page views in Redis with one
// counter key per event per day. Buckets expire on their own, so the
// total naturally reflects a sliding window.
type RedisPageViewRepository struct {
	client        *redis.Client
	retentionDays int
}

// NewRedisPageViewRepository creates a new RedisPageViewRepository.
// retentionDays controls both bucket TTL and how many daily buckets
// TotalViews sums.
func NewRedisPageViewRepository(client *redis.Client, retentionDays int) *RedisPageViewRepository {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &RedisPageViewRepository{client: client, retentionDays: retentionDays}
}

func pageViewKey(eventID string, day time.Time) string {
	return fmt.Sprintf("%s:%s:%s", pageViewKeyPrefix, eventID, day.UTC().Format(dateBucketLayout))
}

// IncrementView adds one view to today's bucket
func (r *RedisPageViewRepository) IncrementView(ctx context.Context, eventID string) error {
	key := pageViewKey(eventID, time.Now())

	pipe := r.client.Pipeline()
	pipe.IncrBy(ctx, key, 1)
	pipe.Expire(ctx, key, time.Duration(r.retentionDays+1)*24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment view counter for %s: %w", eventID, err)
	}
	return nil
}

// TotalViews sums the retained daily buckets for the event
func (r *RedisPageViewRepository) TotalViews(ctx context.Context, eventID string) (int64, error) {
	keys := r.bucketKeys(eventID)

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil && err != goredis.Nil {
		return 0, fmt.Errorf("failed to read view counters for %s: %w", eventID, err)
	}

	var total int64
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			continue
		}
		total += n
	}
	return total, nil
}

// DeleteViews drops all retained buckets for the event
func (r *RedisPageViewRepository) DeleteViews(ctx context.Context, eventID string) error {
	keys := r.bucketKeys(eventID)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete view counters for %s: %w", eventID, err)
	}
	return nil
}

func (r *RedisPageViewRepository) bucketKeys(eventID string) []string {
	now := time.Now()
	keys := make([]string, 0, r.retentionDays)
	for i := 0; i < r.retentionDays; i++ {
		keys = append(keys, pageViewKey(eventID, now.AddDate(0, 0, -i)))
	}
	return keys
}
