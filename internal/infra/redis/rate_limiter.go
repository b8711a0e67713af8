package redis

import (
	"context"
	"strconv"
	"time"
)

// RateLimiter is a fixed-window counter shared across replicas. Every window
// has its own key.
type RateLimiter struct {
	client RedisClient
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(client RedisClient, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{client: client, limit: limit, window: window, now: time.Now}
}

func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := windowKey(key, r.now(), r.window)
	count, err := r.client.Incr(ctx, bucket)
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, bucket, r.window); err != nil {
			return false, err
		}
	}
	return count <= int64(r.limit), nil
}

func windowKey(key string, now time.Time, window time.Duration) string {
	return key + ":" + strconv.FormatInt(now.UnixNano()/int64(window), 10)
}

// ClientKey namespaces limiter counters per client address.
func ClientKey(ip string) string {
	return "rate_limit:ip:" + ip
}
