package repository

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS agents (
		id                 BIGSERIAL PRIMARY KEY,
		codename           VARCHAR(50)  NOT NULL,
		realname           VARCHAR(100) NOT NULL,
		location           VARCHAR(100) NOT NULL,
		status             VARCHAR(20)  NOT NULL,
		missions_completed INTEGER      NOT NULL DEFAULT 0 CHECK (missions_completed >= 0),
		CONSTRAINT agents_codename_key UNIQUE (codename)
	)`,
	`CREATE INDEX IF NOT EXISTS agents_status_idx ON agents (status)`,
}

// AUTOINCREMENT keeps SQLite from reusing the ids of deleted rows. SQLite
// integers are 64-bit, so the upper missions bound is a CHECK here.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS agents (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		codename           TEXT    NOT NULL UNIQUE,
		realname           TEXT    NOT NULL,
		location           TEXT    NOT NULL,
		status             TEXT    NOT NULL,
		missions_completed INTEGER NOT NULL DEFAULT 0
			CHECK (missions_completed BETWEEN 0 AND 2147483647)
	)`,
	`CREATE INDEX IF NOT EXISTS agents_status_idx ON agents (status)`,
}

// Migrate creates the agents table and its indexes if they do not exist.
func Migrate(ctx context.Context, db *sql.DB, dialectName string) error {
	var stmts []string
	switch dialectName {
	case dialect.Postgres:
		stmts = postgresSchema
	case dialect.SQLite:
		stmts = sqliteSchema
	default:
		return fmt.Errorf("migrate: unsupported dialect %q", dialectName)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate agents schema: %w", err)
		}
	}
	return nil
}
