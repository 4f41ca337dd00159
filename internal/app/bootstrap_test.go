package app

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eagle-eye.io/fieldagent/internal/config"
	"eagle-eye.io/fieldagent/internal/pkg/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func TestBootstrap_NoDB(t *testing.T) {
	// Bootstrap without a reachable database should fail at DB connection.
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver:   config.DriverPostgres,
			Host:     "localhost",
			Port:     65432, // Non-existent port
			User:     "test",
			Password: "test",
			Database: "test",
			SSLMode:  "disable",
			MaxConns: 5,
			MinConns: 1,
		},
		Worker: config.WorkerConfig{ImportPoolSize: 2},
	}

	app, err := Bootstrap(context.Background(), cfg)
	require.Error(t, err, "Bootstrap should fail without database")
	assert.Nil(t, app, "Application should be nil on bootstrap failure")
}

func TestBootstrap_SQLite(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Name: "Agent Management System", Version: "1.0.0"},
		Server: config.ServerConfig{
			Port:              8000,
			OpenAPIValidation: true,
		},
		Database: config.DatabaseConfig{
			Driver:      config.DriverSQLite,
			SQLitePath:  filepath.Join(t.TempDir(), "agents.db"),
			AutoMigrate: true,
		},
		River:  config.RiverConfig{Enabled: true},
		Worker: config.WorkerConfig{ImportPoolSize: 2},
	}

	app, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Shutdown()

	assert.NotNil(t, app.Router)
	assert.Nil(t, app.DB.RiverClient, "River needs PostgreSQL")
	require.Len(t, app.Modules, 1)
	assert.Equal(t, "agent", app.Modules[0].Name())
	require.NoError(t, app.Start(context.Background()))

	w := do(app.Router, http.MethodPost, "/api/v1/agents/",
		`{"codename":"Falcon","realname":"Ann Smith","location":"Berlin","status":"active"}`)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestApplication_Shutdown_Nil(t *testing.T) {
	// Shutdown on empty application should not panic.
	app := &Application{}

	assert.NotPanics(t, func() {
		app.Shutdown()
	}, "Shutdown on empty Application should not panic")
}
