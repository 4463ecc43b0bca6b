package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bvandewe/tools-provider-sub014/config"
	"github.com/bvandewe/tools-provider-sub014/internal/admin"
	"github.com/bvandewe/tools-provider-sub014/internal/circuitbreaker"
	"github.com/bvandewe/tools-provider-sub014/internal/events"
	"github.com/bvandewe/tools-provider-sub014/internal/httpserver"
	"github.com/bvandewe/tools-provider-sub014/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The collector outlives the signal context so that transitions emitted
	// by requests still in flight during graceful shutdown are drained
	// rather than stranded in the buffer.
	collectorCtx, stopCollector := context.WithCancel(context.Background())
	defer stopCollector()

	collector := events.NewCollector(cfg.Events.BufferSize, log)
	collector.Start(collectorCtx)

	registry := circuitbreaker.NewRegistry(breakerConfig(cfg), collector)

	adminHandler := admin.NewHandler(log, registry, cfg.Admin.AuthSecret)

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(adminHandler))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Circuit breaker admin service starting",
		slog.String("address", cfg.Server.Address),
		slog.Int("failure_threshold", cfg.CircuitBreaker.FailureThreshold),
		slog.Float64("recovery_timeout_seconds", cfg.CircuitBreaker.RecoveryTimeout))

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
		stopCollector()
		<-collector.Done()
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting admin service", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func breakerConfig(cfg *config.Config) circuitbreaker.Config {
	return circuitbreaker.Config{
		FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
		RecoveryTimeout:  cfg.CircuitBreaker.RecoveryDuration(),
		HalfOpenMaxCalls: cfg.CircuitBreaker.HalfOpenMaxCalls,
	}
}
