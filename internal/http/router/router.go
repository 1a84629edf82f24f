package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"loadboard-dispatch/internal/http/handlers"
	"loadboard-dispatch/internal/http/middleware"
	"loadboard-dispatch/internal/http/middleware/ratelimit"
	"loadboard-dispatch/internal/logx"
)

// Deps collects what the router mounts. Nil limiters disable limiting and a
// nil Metrics handler leaves /metrics unmounted.
type Deps struct {
	Logger      logx.Logger
	Base        *handlers.Handlers
	Assignments *handlers.AssignmentHandler
	Loads       *handlers.LoadHandler
	HTTPMetrics *middleware.HTTPMetrics
	Metrics     http.Handler
	// DriverLimit guards every driver-facing route per client.
	DriverLimit *ratelimit.Middleware
	// AcceptLimit additionally caps code submissions per assignment.
	AcceptLimit *ratelimit.Middleware
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Observability(d.Logger, d.HTTPMetrics))
	r.Use(chimw.Timeout(5 * time.Second))

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Post("/assignments", d.Assignments.Create)
	r.Get("/assignments/{id}", d.Assignments.Get)
	r.Post("/loads/{id}/status", d.Loads.UpdateStatus)

	r.Group(func(r chi.Router) {
		use(r, d.DriverLimit)
		r.With(handler(d.AcceptLimit)...).Post("/assignments/{id}/accept", d.Assignments.Accept)
		r.Post("/assignments/{id}/decline", d.Assignments.Decline)
		r.Post("/assignments/{id}/resend", d.Assignments.Resend)
	})

	r.NotFound(http.HandlerFunc(d.Base.NotFound))
	return r
}

func use(r chi.Router, m *ratelimit.Middleware) {
	if m != nil {
		r.Use(m.Handler())
	}
}

func handler(m *ratelimit.Middleware) []func(http.Handler) http.Handler {
	if m == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{m.Handler()}
}
