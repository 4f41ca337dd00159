// Package main imports a YAML roster of field agents into the record store.
//
// Rows are created concurrently through the import worker pool. Each row is
// counted as created, duplicate (codename taken) or invalid; any other
// failure aborts the import.
//
// Import Path: eagle-eye.io/fieldagent/cmd/seed
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"eagle-eye.io/fieldagent/internal/config"
	"eagle-eye.io/fieldagent/internal/infrastructure"
	apperrors "eagle-eye.io/fieldagent/internal/pkg/errors"
	"eagle-eye.io/fieldagent/internal/pkg/logger"
	"eagle-eye.io/fieldagent/internal/pkg/worker"
	"eagle-eye.io/fieldagent/internal/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "seed error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	file := flags.StringP("file", "f", "roster.yaml", "YAML roster to import")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	entries, err := loadRoster(f)
	if err != nil {
		return err
	}

	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	pools, err := worker.NewPools(worker.PoolConfig{ImportPoolSize: cfg.Worker.ImportPoolSize})
	if err != nil {
		return fmt.Errorf("init worker pools: %w", err)
	}
	defer pools.Shutdown()

	logger.Info("Starting roster import", zap.String("file", *file), zap.Int("rows", len(entries)))

	result, err := importRoster(ctx, service.NewAgentService(db.Store), pools.Import, entries)
	if err != nil {
		return err
	}

	logger.Info("Roster import completed",
		zap.Int("created", result.Created),
		zap.Int("duplicate", result.Duplicate),
		zap.Int("invalid", result.Invalid),
	)
	fmt.Printf("created: %d, duplicate: %d, invalid: %d\n", result.Created, result.Duplicate, result.Invalid)
	return nil
}

// rosterFile is the YAML layout:
//
//	agents:
//	  - codename: Falcon
//	    realname: Ann Smith
//	    location: Berlin
//	    status: active
//	    missionscompleted: 3
type rosterFile struct {
	Agents []service.CreateAgentInput `yaml:"agents"`
}

func loadRoster(r io.Reader) ([]service.CreateAgentInput, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var roster rosterFile
	if err := dec.Decode(&roster); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	return roster.Agents, nil
}

type importResult struct {
	Created   int
	Duplicate int
	Invalid   int
}

func importRoster(
	ctx context.Context,
	agents *service.AgentService,
	pool *worker.Pool,
	entries []service.CreateAgentInput,
) (importResult, error) {
	var (
		mu       sync.Mutex
		result   importResult
		firstErr error
	)

	batch := pool.Group(ctx)
	for i, entry := range entries {
		err := batch.Submit(func(ctx context.Context) {
			_, err := agents.Create(ctx, entry)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Created++
			case apperrors.HasCode(err, apperrors.CodeDuplicateCodename):
				result.Duplicate++
				logger.Warn("Roster row skipped: duplicate codename",
					zap.Int("row", i+1), zap.String("codename", entry.Codename))
			case apperrors.HasCode(err, apperrors.CodeInvalidInput):
				result.Invalid++
				logger.Warn("Roster row skipped: invalid",
					zap.Int("row", i+1), zap.String("codename", entry.Codename), zap.Error(err))
			default:
				if firstErr == nil {
					firstErr = fmt.Errorf("import row %d (%s): %w", i+1, entry.Codename, err)
				}
			}
		})
		if err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("submit row %d: %w", i+1, err)
			}
			mu.Unlock()
			break
		}
	}
	batch.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, firstErr
}
