package redis

import (
	"context"
	"fmt"
	"time"

	"job-search-mas/internal/infra/metrics"
)

// RateLimiter is a fixed-window counter per key.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Incr(ctx, key)
	if err != nil {
		return false, err
	}

	if count == 1 {
		if err := r.client.Expire(ctx, key, window); err != nil {
			return false, err
		}
	}

	if count > int64(limit) {
		metrics.IncRateLimitTriggered()
		return false, nil
	}
	return true, nil
}

func UserCommandKey(tgID int64, command string) string {
	return fmt.Sprintf("rate_limit:%d:%s", tgID, command)
}
