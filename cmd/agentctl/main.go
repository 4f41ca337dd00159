// Package main is the operator console for field agent records.
//
// Import Path: eagle-eye.io/fieldagent/cmd/agentctl
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"eagle-eye.io/fieldagent/internal/config"
	"eagle-eye.io/fieldagent/internal/console"
	"eagle-eye.io/fieldagent/internal/infrastructure"
	"eagle-eye.io/fieldagent/internal/pkg/logger"
	"eagle-eye.io/fieldagent/internal/service"
)

func main() {
	if err := run(); err != nil {
		if !console.IsReported(err) {
			fmt.Fprintf(os.Stderr, "agentctl: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Logs go to a file so they never interleave with the menu.
	if err := logger.Init(cfg.Log.Level, "json", cfg.Log.File); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root, cleanup := console.NewRootCmd(openService(cfg), cfg.App.Version)
	defer cleanup()
	return root.ExecuteContext(ctx)
}

func openService(cfg *config.Config) console.Opener {
	return func(ctx context.Context) (*service.AgentService, func(), error) {
		db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("open record store: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := db.AutoMigrate(ctx); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("auto-migrate: %w", err)
			}
		}
		return service.NewAgentService(db.Store), db.Close, nil
	}
}
