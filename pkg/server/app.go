package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	drepo "OptWatch/internal/domain/repository"
	"OptWatch/internal/usecase"
	"OptWatch/pkg/cache"
	xhttp "OptWatch/pkg/http"
	"OptWatch/pkg/kafka"
	"OptWatch/pkg/logger"
)

// App ties the monitoring session, the status HTTP server and the
// optional Kafka bridge consumer into one lifecycle. Run blocks until
// the session completes, a signal arrives or the monitor fails, then
// shuts everything down in order.
type App struct {
	httpServer      *xhttp.Server
	monitor         *usecase.Monitor
	sink            drepo.RecordSink
	cache           cache.Service
	consumer        *kafka.Consumer
	log             *logger.Logger
	shutdownTimeout time.Duration
}

func NewApp(
	httpServer *xhttp.Server,
	monitor *usecase.Monitor,
	sink drepo.RecordSink,
	cacheSvc cache.Service,
	consumer *kafka.Consumer,
	log *logger.Logger,
	shutdownTimeout time.Duration,
) *App {
	return &App{
		httpServer:      httpServer,
		monitor:         monitor,
		sink:            sink,
		cache:           cacheSvc,
		consumer:        consumer,
		log:             log,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run starts everything and blocks until shutdown.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.sink.Init(ctx); err != nil {
		return err
	}

	if err := a.httpServer.Start(); err != nil {
		return err
	}

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			return err
		}
	}

	monitorDone := make(chan error, 1)
	go func() { monitorDone <- a.monitor.Run(ctx) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case s := <-sig:
		a.log.Info("signal received, shutting down", logger.String("signal", s.String()))
		cancel()
		<-monitorDone
	case err := <-monitorDone:
		if err != nil {
			a.log.Error("monitor failed", logger.Error(err))
			runErr = err
		} else {
			a.log.Info("monitoring session complete, shutting down")
		}
	}

	a.shutdown()
	return runErr
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Error("consumer shutdown failed", logger.Error(err))
		}
	}
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http server shutdown failed", logger.Error(err))
	}
	if err := a.sink.Close(); err != nil {
		a.log.Error("sink close failed", logger.Error(err))
	}
	if err := a.cache.Close(); err != nil {
		a.log.Error("cache close failed", logger.Error(err))
	}
	a.log.Info("shutdown complete")
}
