package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"loadboard-dispatch/internal/config"
	"loadboard-dispatch/internal/http/debugserver"
	"loadboard-dispatch/internal/logx"
	"loadboard-dispatch/internal/metrics"
	"loadboard-dispatch/internal/ports/assignmenttx"
	"loadboard-dispatch/internal/repository"
	"loadboard-dispatch/internal/scheduler"
	"loadboard-dispatch/internal/service/assignment"
	"loadboard-dispatch/internal/transport/kafka"
	"loadboard-dispatch/internal/verification"
)

type dbConnectFunc func(context.Context, logx.Logger, string, int, time.Duration) (*pgxpool.Pool, error)

type redisConnectFunc func(context.Context, config.Redis) (*redis.Client, error)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	dbConnect    dbConnectFunc
	redisConnect redisConnectFunc
	loadConfig   func() (*config.Config, error)
	registry     *prometheus.Registry
	logFatalf    func(string, ...interface{})
}

// NewContainerBuilder returns a new dig container builder
func NewContainerBuilder() *ContainerBuilder {
	return &ContainerBuilder{
		dbConnect:    connectDbWithRetry,
		redisConnect: connectRedis,
		loadConfig:   config.Load,
		logFatalf:    log.Fatalf,
	}
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(fn dbConnectFunc) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithRedisConnect sets the Redis connection function
func (b *ContainerBuilder) WithRedisConnect(fn redisConnectFunc) *ContainerBuilder {
	if fn != nil {
		b.redisConnect = fn
	}
	return b
}

// WithConfig replaces config.Load
func (b *ContainerBuilder) WithConfig(fn func() (*config.Config, error)) *ContainerBuilder {
	if fn != nil {
		b.loadConfig = fn
	}
	return b
}

// WithRegistry registers metrics on reg instead of the default registry
func (b *ContainerBuilder) WithRegistry(reg *prometheus.Registry) *ContainerBuilder {
	b.registry = reg
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds the API container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

// MustBuildWorker builds the notification worker container
func (b *ContainerBuilder) MustBuildWorker(ctx context.Context) *dig.Container {
	container, err := b.buildWorker(ctx)
	if err != nil {
		b.logFatalf("failed to build worker container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	steps := []struct {
		name string
		fn   func(*dig.Container) error
	}{
		{"core", func(c *dig.Container) error { return b.registerCore(c, ctx) }},
		{"DB", func(c *dig.Container) error { return registerDb(c, b.dbConnect) }},
		{"redis", func(c *dig.Container) error { return registerRedis(c, b.redisConnect) }},
		{"metrics", registerMetrics},
		{"service", registerService},
		{"notify", registerNotify},
		{"http", registerHTTP},
	}
	for _, s := range steps {
		if err := s.fn(container); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return container, nil
}

func (b *ContainerBuilder) buildWorker(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := b.registerCore(container, ctx); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if err := registerDb(container, b.dbConnect); err != nil {
		return nil, fmt.Errorf("DB: %w", err)
	}
	if err := registerMetrics(container); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if err := registerWorker(container); err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds the API container with production defaults
func MustBuildContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuild(ctx)
}

// MustBuildWorkerContainer builds the worker container with production defaults
func MustBuildWorkerContainer(ctx context.Context) *dig.Container {
	return NewContainerBuilder().MustBuildWorker(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func (b *ContainerBuilder) registerCore(container *dig.Container, ctx context.Context) error {
	var (
		reg      prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if b.registry != nil {
		reg, gatherer = b.registry, b.registry
	}
	return provideAll(container,
		func() context.Context { return ctx },
		b.loadConfig,
		NewLogger,
		func() prometheus.Registerer { return reg },
		func() prometheus.Gatherer { return gatherer },
		func(cfg *config.Config, g prometheus.Gatherer, logger logx.Logger) *debugserver.Server {
			return debugserver.New(debugserver.Config{
				Addr: cfg.Debug.Addr,
				User: cfg.Debug.User,
				Pass: cfg.Debug.Pass,
			}, g, logger)
		},
	)
}

func registerDb(container *dig.Container, dbConnect dbConnectFunc) error {
	providerDB := func(ctx context.Context, logger logx.Logger, cfg *config.Config) (*pgxpool.Pool, error) {
		return dbConnect(ctx, logger, cfg.DB.DSN(), 10, time.Second)
	}
	return provideAll(container, providerDB)
}

func registerRedis(container *dig.Container, redisConnect redisConnectFunc) error {
	return provideAll(container, func(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
		return redisConnect(ctx, cfg.Redis)
	})
}

type countersOut struct {
	dig.Out
	RateLimitExceeded prometheus.Counter `name:"rate_limit_exceeded_total"`
	SMSRetries        prometheus.Counter `name:"sms_gateway_retries_total"`
}

func registerMetrics(container *dig.Container) error {
	return provideAll(container,
		func(reg prometheus.Registerer) (*metrics.Assignment, error) {
			m := metrics.NewAssignment()
			return m, metrics.Register(reg, m.Collectors()...)
		},
		func(reg prometheus.Registerer) (countersOut, error) {
			out := countersOut{
				RateLimitExceeded: metrics.NewRateLimitExceededTotal(),
				SMSRetries:        metrics.NewSMSRetriesTotal(),
			}
			return out, metrics.Register(reg, out.RateLimitExceeded, out.SMSRetries)
		},
	)
}

type coordinatorIn struct {
	dig.In
	Runner    assignmenttx.Runner
	Codes     *verification.Gateway
	Scheduler *scheduler.Scheduler
	Notifier  assignment.Notifier
	Metrics   *metrics.Assignment
	Config    *config.Config
	Logger    logx.Logger
}

// newCoordinator builds the coordinator and points the scheduler's fire
// callback at it.
func newCoordinator(in coordinatorIn) *assignment.Coordinator {
	c := assignment.NewCoordinator(
		in.Runner,
		in.Codes,
		in.Scheduler,
		in.Notifier,
		in.Metrics,
		assignment.Config{AcceptWindow: in.Config.Assignment.AcceptWindow},
		in.Logger.With(logx.String("component", "coordinator")),
	)
	in.Scheduler.SetHandler(c.Expire)
	return c
}

func registerService(container *dig.Container) error {
	return provideAll(container,
		func(pool *pgxpool.Pool) assignmenttx.Runner {
			return repository.NewAssignmentRepo(pool)
		},
		func(rdb *redis.Client, cfg *config.Config) *verification.Gateway {
			return verification.NewGateway(rdb, verification.Config{
				CodeLength: cfg.Assignment.CodeLength,
				MaxResends: cfg.Assignment.MaxResends,
				Secret:     cfg.Assignment.VerificationSecret,
			})
		},
		func(rdb *redis.Client, logger logx.Logger, m *metrics.Assignment) *scheduler.Scheduler {
			store := scheduler.NewRedisStore(rdb, scheduler.DefaultKey)
			return scheduler.New(store, logger.With(logx.String("component", "scheduler")), m.ArmedTimers)
		},
		newCoordinator,
	)
}

func registerNotify(container *dig.Container) error {
	return provideAll(container,
		func(logger logx.Logger, cfg *config.Config, m *metrics.Assignment) (*kafka.Dispatcher, error) {
			return kafka.NewDispatcher(logger, cfg.Kafka.Brokers, cfg.Kafka.Topic, m.NotificationFailures)
		},
		newNotifier,
	)
}

func newNotifier(d *kafka.Dispatcher, logger logx.Logger) assignment.Notifier {
	if d == nil {
		logger.Warn("kafka not configured, notifications are only logged")
		return kafka.NewLogDispatcher(logger)
	}
	return d
}

func newServer(cfg *config.Config, mux http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
