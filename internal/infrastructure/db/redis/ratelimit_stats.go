package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/entityhub/entity-manager/internal/ratelimit"
)

const (
	defaultStatsTTL = 24 * time.Hour

	fieldAllowed = "allowed"
	fieldDenied  = "denied"
)

// RateLimitStats stores per-identifier admission counters in Redis.
// Key format: ratelimit:stats:<limiter>:<identifier>
type RateLimitStats struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRateLimitStats wraps client. Keys expire ttl after the last write.
func NewRateLimitStats(client redis.Cmdable, ttl time.Duration) *RateLimitStats {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &RateLimitStats{client: client, ttl: ttl}
}

// Record increments the allowed or denied counter for d.
func (s *RateLimitStats) Record(ctx context.Context, d ratelimit.Decision) error {
	field := fieldDenied
	if d.Allowed {
		field = fieldAllowed
	}

	key := s.key(d.Limiter, d.Identifier)
	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, key, field, 1)
	pipe.HSet(ctx, key, "last_seen", d.At.Unix())
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record rate limit decision: %w", err)
	}
	return nil
}

// Get reads the counters for one limiter and identifier.
func (s *RateLimitStats) Get(ctx context.Context, limiter, identifier string) (ratelimit.Counts, error) {
	vals, err := s.client.HMGet(ctx, s.key(limiter, identifier), fieldAllowed, fieldDenied).Result()
	if err != nil {
		return ratelimit.Counts{}, fmt.Errorf("read rate limit stats: %w", err)
	}
	return ratelimit.Counts{
		Allowed: parseCount(vals[0]),
		Denied:  parseCount(vals[1]),
	}, nil
}

func (s *RateLimitStats) key(limiter, identifier string) string {
	return fmt.Sprintf("ratelimit:stats:%s:%s", limiter, identifier)
}

func parseCount(v any) int64 {
	str, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
