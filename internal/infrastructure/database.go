// Package infrastructure provides record store backends and connection pool setup.
//
// On PostgreSQL a single pgxpool is shared by the record store (through a
// database/sql wrapper) and River, so the two never hold separate pools.
//
// Import Path: eagle-eye.io/fieldagent/internal/infrastructure
package infrastructure

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"go.uber.org/zap"

	"eagle-eye.io/fieldagent/internal/config"
	"eagle-eye.io/fieldagent/internal/pkg/logger"
	"eagle-eye.io/fieldagent/internal/repository"
)

// DatabaseClients contains all database-related clients for the configured driver.
//
// Use this struct to manage connection pools.
// Do not create separate sql.Open() and pgxpool.New() (doubles connections).
type DatabaseClients struct {
	// Driver is the configured database driver.
	Driver string

	// Pool is the shared PostgreSQL connection pool (record store + River).
	// nil for sqlite and memory.
	Pool *pgxpool.Pool

	// DB is the *sql.DB the SQL record store runs on. For PostgreSQL it wraps
	// Pool via stdlib.OpenDBFromPool. nil for memory.
	DB *sql.DB

	// Store is the record store for the configured driver.
	Store repository.AgentStore

	// RiverClient is the River job queue client backed by the shared pool.
	RiverClient *river.Client[pgx.Tx]
}

// NewDatabaseClients opens the record store selected by cfg.Driver.
func NewDatabaseClients(ctx context.Context, cfg config.DatabaseConfig) (*DatabaseClients, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return newPostgresClients(ctx, cfg)
	case config.DriverSQLite:
		db, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store, err := repository.NewSQLStore(db, dialect.SQLite)
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("SQLite record store opened", zap.String("path", cfg.SQLitePath))
		return &DatabaseClients{Driver: cfg.Driver, DB: db, Store: store}, nil
	case config.DriverMemory:
		logger.Info("In-memory record store created")
		return &DatabaseClients{Driver: cfg.Driver, Store: repository.NewMemoryStore()}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func newPostgresClients(ctx context.Context, cfg config.DatabaseConfig) (*DatabaseClients, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	poolConfig.HealthCheckPeriod = time.Minute

	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET timezone = 'UTC'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Reuse the pgxpool connections instead of opening a second pool.
	db := stdlib.OpenDBFromPool(pool)
	store, err := repository.NewSQLStore(db, dialect.Postgres)
	if err != nil {
		db.Close()
		pool.Close()
		return nil, err
	}

	logger.Info("Database connection pool created",
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns),
	)

	return &DatabaseClients{
		Driver: cfg.Driver,
		Pool:   pool,
		DB:     db,
		Store:  store,
	}, nil
}

// OpenSQLite opens (creating if needed) the SQLite database file at path.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// A single writer connection keeps SQLite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return db, nil
}

// SQLDialect returns the ent dialect of the SQL store, or "" for memory.
func (c *DatabaseClients) SQLDialect() string {
	switch c.Driver {
	case config.DriverPostgres:
		return dialect.Postgres
	case config.DriverSQLite:
		return dialect.SQLite
	default:
		return ""
	}
}

// AutoMigrate creates the agents schema and, on PostgreSQL, River's queue tables.
func (c *DatabaseClients) AutoMigrate(ctx context.Context) error {
	if c.DB == nil {
		return nil
	}

	logger.Info("Running agents schema migration...", zap.String("driver", c.Driver))
	if err := repository.Migrate(ctx, c.DB, c.SQLDialect()); err != nil {
		return fmt.Errorf("agents auto-migrate: %w", err)
	}
	logger.Info("Agents schema migration completed")

	if c.Pool == nil {
		return nil
	}

	logger.Info("Running River migration...")
	migrator, err := rivermigrate.New(riverpgxv5.New(c.Pool), nil)
	if err != nil {
		return fmt.Errorf("create river migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return fmt.Errorf("river migrate up: %w", err)
	}
	if len(res.Versions) > 0 {
		logger.Info("River migration completed",
			zap.Int("versions_applied", len(res.Versions)),
		)
	} else {
		logger.Info("River migration: already up-to-date")
	}

	return nil
}

// InitRiverClient creates a River client with registered workers and
// periodic jobs. River needs PostgreSQL; on other drivers it is a no-op.
func (c *DatabaseClients) InitRiverClient(workers *river.Workers, periodic []*river.PeriodicJob, cfg config.RiverConfig) error {
	if c.Pool == nil {
		logger.Info("River disabled: requires the postgres driver", zap.String("driver", c.Driver))
		return nil
	}
	riverClient, err := river.NewClient(riverpgxv5.New(c.Pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: cfg.MaxWorkers},
		},
		Workers:                     workers,
		PeriodicJobs:                periodic,
		CompletedJobRetentionPeriod: cfg.CompletedJobRetentionPeriod,
	})
	if err != nil {
		return fmt.Errorf("create river client: %w", err)
	}
	c.RiverClient = riverClient
	logger.Info("River client initialized", zap.Int("max_workers", cfg.MaxWorkers))
	return nil
}

// Close closes all connection pools gracefully.
func (c *DatabaseClients) Close() {
	if c.DB != nil {
		c.DB.Close()
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
}
