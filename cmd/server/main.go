// Package main is the entry point of the agents HTTP server.
//
// Import Path: eagle-eye.io/fieldagent/cmd/server
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"eagle-eye.io/fieldagent/internal/app"
	"eagle-eye.io/fieldagent/internal/config"
	"eagle-eye.io/fieldagent/internal/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting "+cfg.App.Name,
		zap.String("version", cfg.App.Version),
		zap.String("driver", cfg.Database.Driver),
		zap.String("addr", cfg.Server.Addr()),
		zap.Bool("openapi_validation", cfg.Server.OpenAPIValidation),
	)

	// Cancelled on SIGINT/SIGTERM; everything below winds down from it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer application.Shutdown()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	return serve(ctx, cfg.Server, application.Router)
}

// serve runs the HTTP listener until ctx is cancelled or the listener
// fails, then drains in-flight requests within the shutdown timeout.
func serve(ctx context.Context, cfg config.ServerConfig, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- srv.ListenAndServe()
	}()
	logger.Info("Agents API listening", zap.String("addr", srv.Addr))

	select {
	case err := <-listenErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("drain http server: %w", err)
	}
	logger.Info("Agents API stopped")
	return nil
}
