package ratelimit

import (
	"io"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"loadboard-dispatch/internal/logx"
)

// Middleware rejects requests whose key ran out of budget.
type Middleware struct {
	logger  logx.Logger
	counter prometheus.Counter // отказы
	limiter Limiter
	key     KeyFunc // по чему считаем бюджет
}

// New creates a Middleware keyed by client IP.
func New(logger logx.Logger, counter prometheus.Counter, limiter Limiter) *Middleware {
	if limiter == nil {
		limiter = NopLimiter{}
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Middleware{
		logger:  logger,
		counter: counter,
		limiter: limiter,
		key:     ByClientIP,
	}
}

// WithLimiter returns a copy of m that uses limiter and key.
func (m *Middleware) WithLimiter(limiter Limiter, key KeyFunc) *Middleware {
	cp := *m
	if limiter != nil {
		cp.limiter = limiter
	}
	if key != nil {
		cp.key = key
	}
	return &cp
}

// Handler returns chi-style middleware.
func (m *Middleware) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := m.key(r)
			if m.limiter.Allow(r.Context(), key) {
				next.ServeHTTP(w, r)
				return
			}

			// отказ, next не вызываем
			if m.counter != nil {
				m.counter.Inc()
			}
			m.logger.Warn("rate limit exceeded",
				logx.String("key", key),
				logx.String("method", r.Method),
				logx.String("path", r.URL.Path),
			)
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			if _, err := io.WriteString(w, `{"error":"too_many_requests"}`); err != nil {
				// клиент мог уже отключиться
				m.logger.Debug("rate limit response write failed", logx.String("key", key), logx.Err(err))
			}
		})
	}
}

// ByClientIP keys requests by remote address.
func ByClientIP(r *http.Request) string {
	return clientIP(r)
}

// ByURLParam keys requests by a chi route parameter, falling back to the client IP.
func ByURLParam(name string) KeyFunc {
	return func(r *http.Request) string {
		if v := chi.URLParam(r, name); v != "" {
			return name + ":" + v
		}
		return clientIP(r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
