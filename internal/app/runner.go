package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"loadboard-dispatch/internal/config"
	"loadboard-dispatch/internal/http/debugserver"
	"loadboard-dispatch/internal/logx"
	"loadboard-dispatch/internal/scheduler"
	"loadboard-dispatch/internal/service/assignment"
	"loadboard-dispatch/internal/transport/kafka"
)

const shutdownTimeout = 15 * time.Second

// MustRun starts the API using the provided DI container
func MustRun(container *dig.Container) {
	if err := run(container); err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			log.Println("shutdown requested, exiting")
			return
		case errors.Is(err, context.DeadlineExceeded):
			log.Println("startup aborted: startup timeout exceeded")
			return
		default:
			log.Fatalf("run error: %v", err)
		}
	}
}

type apiIn struct {
	dig.In
	Ctx         context.Context
	Config      *config.Config
	Logger      logx.Logger
	Server      *http.Server
	Debug       *debugserver.Server
	Pool        *pgxpool.Pool
	Redis       *redis.Client
	Scheduler   *scheduler.Scheduler
	Coordinator *assignment.Coordinator
	Dispatcher  *kafka.Dispatcher
}

func run(container *dig.Container) error {
	return container.Invoke(serve)
}

func serve(in apiIn) error {
	defer closeResources(in)

	// timers of offers made before a restart
	if _, err := in.Scheduler.Recover(in.Ctx); err != nil {
		return err
	}

	sweepCtx, stopSweep := context.WithCancel(in.Ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		in.Coordinator.RunSweeper(sweepCtx, in.Config.Assignment.SweepInterval)
	}()

	in.Debug.Start()
	serveErr := waitForShutdown(in.Ctx, startServer(in.Server, in.Logger), in.Logger)

	stopSweep()
	wg.Wait()
	gracefulShutdown(in.Server, in.Debug, in.Logger, shutdownTimeout)
	return serveErr
}

func startServer(server *http.Server, logger logx.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("service-dispatch listening", logx.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("listen: %w", err)
		}
		close(errCh)
	}()
	return errCh
}

func waitForShutdown(ctx context.Context, serverErr <-chan error, logger logx.Logger) error {
	select {
	case <-ctx.Done():
		logger.Info("shutting down service-dispatch")
		return nil
	case err := <-serverErr:
		return err
	}
}

func gracefulShutdown(srv *http.Server, debug *debugserver.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("graceful shutdown error", logx.Err(err))
	}
	if err := debug.Shutdown(shCtx); err != nil {
		logger.Warn("debug server shutdown error", logx.Err(err))
	}
}

// closeResources releases dependencies in reverse order of use. The
// scheduler goes first so no expiry runs against closed stores.
func closeResources(in apiIn) {
	in.Scheduler.Close()
	if err := in.Dispatcher.Close(); err != nil {
		in.Logger.Warn("kafka producer close error", logx.Err(err))
	}
	if err := in.Redis.Close(); err != nil {
		in.Logger.Warn("redis close error", logx.Err(err))
	}
	in.Pool.Close()
	_ = in.Logger.Sync()
}
