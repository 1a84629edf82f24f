package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"loadboard-dispatch/internal/config"
	"loadboard-dispatch/internal/gateway/sms"
	"loadboard-dispatch/internal/http/debugserver"
	"loadboard-dispatch/internal/logx"
	"loadboard-dispatch/internal/repository"
	"loadboard-dispatch/internal/service/notify"
	"loadboard-dispatch/internal/transport/kafka"
)

// WorkerRunner runs the notification worker
type WorkerRunner struct {
	runFn func(*dig.Container) error
}

// NewWorkerRunner returns a new WorkerRunner
func NewWorkerRunner() *WorkerRunner {
	return &WorkerRunner{runFn: runWorker}
}

// MustRun consumes notifications until the container context is done
func (r *WorkerRunner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

type smsSenderIn struct {
	dig.In
	Config  *config.Config
	Logger  logx.Logger
	Retries prometheus.Counter `name:"sms_gateway_retries_total"`
}

func newSMSSender(in smsSenderIn) notify.Sender {
	if in.Config.SMS.URL == "" {
		in.Logger.Warn("sms gateway not configured, notifications will be dropped")
	}
	client := sms.NewClient(in.Config.SMS.URL, in.Config.SMS.Token, 0)
	return sms.NewRetryingSender(client, in.Logger.With(logx.String("component", "sms")), in.Retries, sms.RetryConfig{
		MaxAttempts: in.Config.SMS.MaxAttempts,
		BaseDelay:   in.Config.SMS.BaseDelay,
		MaxDelay:    in.Config.SMS.MaxDelay,
	})
}

func registerWorker(container *dig.Container) error {
	return provideAll(container,
		repository.NewDriverRepo,
		func(r *repository.DriverRepo) notify.PhoneBook { return r },
		newSMSSender,
		func(phones notify.PhoneBook, sender notify.Sender, logger logx.Logger) *notify.Processor {
			return notify.NewProcessor(phones, sender, logger.With(logx.String("component", "notify")))
		},
		func(p *notify.Processor) kafka.HandleFunc { return makeNotifyKafka(p) },
		func(logger logx.Logger, cfg *config.Config, h kafka.HandleFunc) (*kafka.Consumer, error) {
			return kafka.NewConsumer(logger, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, h)
		},
	)
}

type workerIn struct {
	dig.In
	Ctx      context.Context
	Pool     *pgxpool.Pool
	Logger   logx.Logger
	Consumer *kafka.Consumer
	Debug    *debugserver.Server
}

func runWorker(container *dig.Container) error {
	return container.Invoke(func(in workerIn) error {
		return workerRun(in.Ctx, in.Pool, in.Logger, in.Consumer, in.Debug)
	})
}

func workerRun(
	ctx context.Context,
	pool *pgxpool.Pool,
	logger logx.Logger,
	consumer *kafka.Consumer,
	debug *debugserver.Server,
) error {
	if consumer == nil {
		return fmt.Errorf("kafka consumer is nil: worker container misconfigured")
	}
	defer closeWorker(pool, logger, consumer, debug)

	debug.Start()
	logger.Info("dispatch-notify-worker started")
	return consumer.Run(ctx)
}

func closeWorker(pool *pgxpool.Pool, logger logx.Logger, consumer *kafka.Consumer, debug *debugserver.Server) {
	if err := debug.Shutdown(context.Background()); err != nil {
		logger.Warn("debug server shutdown error", logx.Err(err))
	}
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Error("kafka close error", logx.Err(err))
		}
	}
	if pool != nil {
		pool.Close()
	}
	_ = logger.Sync()
}
