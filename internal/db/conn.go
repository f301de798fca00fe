// Package db owns all Postgres access for the pipeline: the transactional
// staging loader, schema setup, and the run audit table.
package db

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/skelland/tripline/internal/lib"
	"github.com/skelland/tripline/internal/models"
)

// DB wraps a sql.DB pool with scoped acquisition helpers. Connections are
// only ever held for the duration of a single helper call and released on
// every exit path.
type DB struct {
	sql    *sql.DB
	cfg    models.DatabaseConfig
	logger *lib.Logger
}

// Open creates a lazily connected pool from the database configuration.
// Connectivity is not verified until Ping or the first unit of work.
func Open(cfg models.DatabaseConfig, logger *lib.Logger) (*DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, lib.ErrConnectionFailed(cfg.Host, cfg.Port, err)
	}
	return &DB{sql: sqlDB, cfg: cfg, logger: logger}, nil
}

// NewFromSQL wraps an existing pool. Used by tests to inject a mock driver.
func NewFromSQL(sqlDB *sql.DB, cfg models.DatabaseConfig, logger *lib.Logger) *DB {
	return &DB{sql: sqlDB, cfg: cfg, logger: logger}
}

// Ping verifies the database is reachable with the configured credentials
func (d *DB) Ping(ctx context.Context) error {
	if err := d.sql.PingContext(ctx); err != nil {
		return lib.ErrConnectionFailed(d.cfg.Host, d.cfg.Port, err)
	}
	return nil
}

// Close releases the pool
func (d *DB) Close() error {
	return d.sql.Close()
}

// withTx runs fn as one atomic unit of work: a single connection is
// acquired for the call, the transaction commits when fn returns nil and
// rolls back otherwise, and the connection is released on every path.
func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		// Could not acquire the resource at all; nothing was attempted
		return lib.ErrConnectionFailed(d.cfg.Host, d.cfg.Port, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after a successful commit

	if err := fn(tx); err != nil {
		d.logger.Debug("Transaction rolled back", "error", err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return lib.ErrDatabaseFailure("commit", err)
	}
	return nil
}

// withConn runs fn on one scoped connection with no transaction wrapping,
// for statements that must not run transactionally (schema DDL). Errors
// propagate unchanged and the connection is still released.
func (d *DB) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := d.sql.Conn(ctx)
	if err != nil {
		return lib.ErrConnectionFailed(d.cfg.Host, d.cfg.Port, err)
	}
	defer conn.Close()

	return fn(conn)
}
