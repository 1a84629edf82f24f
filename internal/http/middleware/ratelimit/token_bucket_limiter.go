package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Config stores TokenBucketLimiter settings.
type Config struct {
	Rate       float64       // tokens per second
	Burst      int           // bucket capacity
	TTL        time.Duration // idle buckets are dropped after TTL, 0 keeps them
	MaxBuckets int           // 0 means unbounded
}

// TokenBucketLimiter keeps one in-memory bucket per key.
type TokenBucketLimiter struct {
	cfg   Config
	clock Clock

	mu          sync.Mutex
	buckets     map[string]*bucket
	lastCleanup time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucketLimiter creates a limiter. A nil clock means wall time.
func NewTokenBucketLimiter(clock Clock, cfg Config) *TokenBucketLimiter {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.MaxBuckets < 0 {
		cfg.MaxBuckets = 0
	}
	return &TokenBucketLimiter{
		cfg:     cfg,
		clock:   clock,
		buckets: make(map[string]*bucket),
	}
}

// Allow takes one token from the bucket of key. New keys are refused once
// MaxBuckets buckets exist.
func (l *TokenBucketLimiter) Allow(_ context.Context, key string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.cleanupLocked(now)

	b, ok := l.buckets[key]
	if !ok {
		if l.cfg.MaxBuckets > 0 && len(l.buckets) >= l.cfg.MaxBuckets {
			return false
		}
		b = &bucket{tokens: float64(l.cfg.Burst), last: now}
		l.buckets[key] = b
	}
	return b.take(now, l.cfg.Rate, float64(l.cfg.Burst))
}

// Len returns the number of live buckets.
func (l *TokenBucketLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (b *bucket) take(now time.Time, rate, capacity float64) bool {
	if elapsed := now.Sub(b.last); elapsed > 0 {
		b.tokens = min(capacity, b.tokens+elapsed.Seconds()*rate)
	}
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (l *TokenBucketLimiter) cleanupLocked(now time.Time) {
	if l.cfg.TTL <= 0 {
		return
	}
	every := max(time.Minute, l.cfg.TTL/2)
	if !l.lastCleanup.IsZero() && now.Sub(l.lastCleanup) < every {
		return
	}
	l.lastCleanup = now
	for k, b := range l.buckets {
		if now.Sub(b.last) > l.cfg.TTL {
			delete(l.buckets, k)
		}
	}
}
