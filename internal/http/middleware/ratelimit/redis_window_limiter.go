package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"loadboard-dispatch/internal/logx"
)

var windowScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// RedisWindowLimiter allows Limit calls per key in each fixed Window.
// Counters live in Redis so every instance shares them. Redis errors fail open.
type RedisWindowLimiter struct {
	rdb    redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
	logger logx.Logger
}

// NewRedisWindowLimiter creates a RedisWindowLimiter.
func NewRedisWindowLimiter(rdb redis.UniversalClient, prefix string, limit int, window time.Duration, logger logx.Logger) *RedisWindowLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &RedisWindowLimiter{rdb: rdb, prefix: prefix, limit: limit, window: window, logger: logger}
}

// Allow counts one call for key.
func (l *RedisWindowLimiter) Allow(ctx context.Context, key string) bool {
	n, err := windowScript.Run(ctx, l.rdb, []string{l.prefix + key}, l.window.Milliseconds()).Int()
	if err != nil {
		l.logger.Warn("rate limit store unavailable, allowing", logx.String("key", key), logx.Err(err))
		return true
	}
	return n <= l.limit
}
