package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/dig"

	"loadboard-dispatch/internal/http/handlers"
	"loadboard-dispatch/internal/http/middleware"
	"loadboard-dispatch/internal/http/middleware/ratelimit"
	"loadboard-dispatch/internal/http/router"
	"loadboard-dispatch/internal/logx"
	"loadboard-dispatch/internal/metrics"
)

type routerIn struct {
	dig.In
	Logger      logx.Logger
	Base        *handlers.Handlers
	Assignments *handlers.AssignmentHandler
	Loads       *handlers.LoadHandler
	HTTPMetrics *middleware.HTTPMetrics
	Gatherer    prometheus.Gatherer
	DriverLimit *ratelimit.Middleware `name:"driver_rate_limit"`
	AcceptLimit *ratelimit.Middleware `name:"accept_rate_limit"`
}

func newRouter(in routerIn) http.Handler {
	return router.New(router.Deps{
		Logger:      in.Logger,
		Base:        in.Base,
		Assignments: in.Assignments,
		Loads:       in.Loads,
		HTTPMetrics: in.HTTPMetrics,
		Metrics:     promhttp.HandlerFor(in.Gatherer, promhttp.HandlerOpts{}),
		DriverLimit: in.DriverLimit,
		AcceptLimit: in.AcceptLimit,
	})
}

func newHTTPMetrics(reg prometheus.Registerer) (*middleware.HTTPMetrics, error) {
	m := middleware.NewHTTPMetrics()
	return m, metrics.Register(reg, m.Collectors()...)
}

func registerHTTP(container *dig.Container) error {
	return provideAll(container,
		handlers.New,
		handlers.NewAssignmentUsecase,
		handlers.NewAssignmentHandler,
		handlers.NewLoadUsecase,
		handlers.NewLoadHandler,
		newHTTPMetrics,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		newRouter,
		newServer,
	)
}
