package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"loadboard-dispatch/internal/config"
	"loadboard-dispatch/internal/http/middleware/ratelimit"
	"loadboard-dispatch/internal/logx"
)

const acceptLimitPrefix = "ratelimit:accept:"

func newRateLimiter(cfg *config.Config, clock ratelimit.Clock) ratelimit.Limiter {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return ratelimit.NopLimiter{}
	}
	return ratelimit.NewTokenBucketLimiter(clock, ratelimit.Config{
		Rate:       rl.Rate,
		Burst:      rl.Burst,
		TTL:        rl.TTL,
		MaxBuckets: rl.MaxBuckets,
	})
}

func newRateLimitClock() ratelimit.Clock {
	return ratelimit.RealClock{}
}

type rateLimitIn struct {
	dig.In
	Config  *config.Config
	Logger  logx.Logger
	Redis   *redis.Client
	Counter prometheus.Counter `name:"rate_limit_exceeded_total"`
	Limiter ratelimit.Limiter
}

type rateLimitOut struct {
	dig.Out
	Driver *ratelimit.Middleware `name:"driver_rate_limit"`
	Accept *ratelimit.Middleware `name:"accept_rate_limit"`
}

// newRateLimitMiddleware returns the per-client limiter of driver routes and
// the per-assignment cap on code submissions. The latter is nil when rate
// limiting is disabled.
func newRateLimitMiddleware(in rateLimitIn) rateLimitOut {
	logger := in.Logger.With(logx.String("component", "ratelimit"))
	driver := ratelimit.New(logger, in.Counter, in.Limiter)
	out := rateLimitOut{Driver: driver}

	rl := in.Config.RateLimit
	if rl.Enabled && rl.AcceptAttempts > 0 {
		window := ratelimit.NewRedisWindowLimiter(in.Redis, acceptLimitPrefix, rl.AcceptAttempts, rl.AcceptPeriod, logger)
		out.Accept = driver.WithLimiter(window, ratelimit.ByURLParam("id"))
	}
	return out
}
