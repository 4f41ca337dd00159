// roster is the full-screen terminal roster of field agents: a table of
// every agent with forms for adding, relocating and retiring records.
//
// It reads the same configuration as the server (config.yaml and
// environment variables). Flags override the record store selection so an
// operator can point the roster at a local SQLite file without editing
// config.
//
// Import Path: eagle-eye.io/fieldagent/cmd/roster
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"eagle-eye.io/fieldagent/internal/config"
	"eagle-eye.io/fieldagent/internal/infrastructure"
	"eagle-eye.io/fieldagent/internal/pkg/logger"
	"eagle-eye.io/fieldagent/internal/roster"
	"eagle-eye.io/fieldagent/internal/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "roster: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		driver      string
		databaseURL string
		sqlitePath  string
		logOutput   string
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("roster", pflag.ContinueOnError)
	flagSet.StringVar(&driver, "driver", "", "record store driver: postgres, sqlite or memory (default from config)")
	flagSet.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL")
	flagSet.StringVar(&sqlitePath, "sqlite-path", "", "SQLite database file")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file (default from config)")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if showVersion {
		fmt.Printf("roster %s\n", cfg.App.Version)
		return nil
	}

	if driver != "" {
		cfg.Database.Driver = driver
	}
	if databaseURL != "" {
		cfg.Database.URL = databaseURL
	}
	if sqlitePath != "" {
		cfg.Database.SQLitePath = sqlitePath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if logOutput == "" {
		logOutput = cfg.Log.File
	}

	// The alternate screen owns the terminal; logs go to a file.
	if err := logger.Init(cfg.Log.Level, "json", logOutput); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	defer db.Close()
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	model := roster.New(ctx, service.NewAgentService(db.Store))
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `roster: interactive terminal roster of field agents.

Usage:
  roster [flags]

Keys:
  /  search        a  add agent      l  update location
  d  delete        m  +1 mission     r  status report
  g  refresh       q  quit

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
