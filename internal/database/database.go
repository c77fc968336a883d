// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/duckdb/duckdb-go/v2"
	_ "modernc.org/sqlite"

	"github.com/tomtom215/reviewscope/internal/config"
	"github.com/tomtom215/reviewscope/internal/logging"
)

// queryTimeout bounds single-row and per-business queries. Bulk loads rely on
// the caller's context instead.
const queryTimeout = 30 * time.Second

// DB wraps the store connection and provides data access methods.
// Both DuckDB and SQLite are reached through database/sql with '?' placeholders,
// so the repositories are shared between drivers.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
	sb   sq.StatementBuilderType
}

// New opens the configured store and applies pending migrations.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	if cfg.Path != ":memory:" {
		// 0750 per gosec G301
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	var (
		conn *sql.DB
		err  error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		conn, err = openSQLite(cfg)
	case config.DriverDuckDB, "":
		conn, err = openDuckDB(cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	db := &DB{
		conn: conn,
		cfg:  cfg,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}

	if err := db.Migrate(context.Background()); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return db, nil
}

func openDuckDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "2GB"
	}

	// Connections opened through one connector share a single database
	// instance, so ":memory:" works with a normal pool.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s", cfg.Path, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return conn, nil
}

// openSQLite opens a pure-Go SQLite store. Pragmas go in the DSN so every
// pooled connection gets them, not just the first one.
func openSQLite(cfg *config.DatabaseConfig) (*sql.DB, error) {
	busy := cfg.BusyTimeout
	if busy <= 0 {
		busy = 5 * time.Second
	}

	dsn := cfg.Path
	if dsn != ":memory:" {
		pragmas := []string{
			fmt.Sprintf("_pragma=busy_timeout(%d)", busy.Milliseconds()),
			"_pragma=journal_mode(WAL)",
			"_pragma=synchronous(NORMAL)",
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + strings.Join(pragmas, "&")
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.Path == ":memory:" {
		// each connection to ":memory:" is a separate database
		conn.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

// Driver returns the configured driver name.
func (db *DB) Driver() string {
	if db.cfg.Driver == "" {
		return config.DriverDuckDB
	}
	return db.cfg.Driver
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close closes the store. DuckDB gets a CHECKPOINT first so the WAL is
// flushed into the main file before the next open.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	if db.Driver() == config.DriverDuckDB {
		ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()
	}
	return db.conn.Close()
}

// withTx runs fn inside a transaction, rolling back on error.
func (db *DB) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		rollbackQuietly(tx)
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
