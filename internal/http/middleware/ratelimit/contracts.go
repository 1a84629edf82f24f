package ratelimit

import (
	"context"
	"net/http"
)

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// KeyFunc derives the limiter key of a request.
type KeyFunc func(r *http.Request) string

// NopLimiter allows everything
type NopLimiter struct{}

// Allow always returns true
func (NopLimiter) Allow(context.Context, string) bool { return true }
