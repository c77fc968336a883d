// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/reviewscope/internal/logging"
)

// Migration represents a versioned schema change.
//
// Migrations are append-only: never modify or remove one once stores exist
// with it applied. Each migration runs in its own transaction together with
// its schema_migrations row.
type Migration struct {
	Version     int
	Name        string
	Description string
	Statements  []string
	AppliedAt   time.Time // populated on query

	// indexOnly migrations are skipped (and left unrecorded) when the
	// config asks for a store without secondary indexes.
	indexOnly bool
}

// schemaMigrationsTable creates the migration tracking table. applied_at is
// TEXT (RFC 3339) so both drivers store and scan it the same way.
const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TEXT NOT NULL
)`

// Table and index names shared with the repositories.
const (
	TableBusiness     = "business"
	TableReview       = "review"
	TableUser         = `"user"` // reserved word in both dialects
	TableBusinessNLP  = "business_nlp"
	TableUserClusters = "user_clusters"

	userClustersStaging  = "user_clusters_staging"
	idxUserClustersUser  = "idx_user_clusters_user_id"
	createUserClustersDL = `(
	user_id TEXT NOT NULL,
	cluster_label BIGINT NOT NULL
)`
)

// getMigrations returns all versioned migrations in order.
func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Name:        "create_source_tables",
			Description: "Raw business, review and user records",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS business (
					business_id TEXT PRIMARY KEY,
					name TEXT,
					stars DOUBLE,
					review_count BIGINT,
					city TEXT
				)`,
				`CREATE TABLE IF NOT EXISTS review (
					review_id TEXT,
					business_id TEXT NOT NULL,
					user_id TEXT NOT NULL,
					stars BIGINT,
					text TEXT
				)`,
				`CREATE TABLE IF NOT EXISTS "user" (
					user_id TEXT PRIMARY KEY,
					review_count BIGINT,
					useful BIGINT,
					funny BIGINT,
					cool BIGINT,
					average_stars DOUBLE
				)`,
			},
		},
		{
			Version:     2,
			Name:        "create_derived_tables",
			Description: "Per-business sentiment/keywords and per-user cluster labels",
			Statements: []string{
				`CREATE TABLE IF NOT EXISTS business_nlp (
					business_id TEXT PRIMARY KEY,
					positivity_score DOUBLE,
					positive_keywords TEXT,
					negative_keywords TEXT
				)`,
				"CREATE TABLE IF NOT EXISTS " + TableUserClusters + " " + createUserClustersDL,
			},
		},
		{
			Version:     3,
			Name:        "create_lookup_indexes",
			Description: "Indexes used by the dashboard joins",
			Statements: []string{
				"CREATE INDEX IF NOT EXISTS idx_review_business_id ON review(business_id)",
				"CREATE INDEX IF NOT EXISTS idx_review_user_id ON review(user_id)",
				"CREATE INDEX IF NOT EXISTS " + idxUserClustersUser + " ON " + TableUserClusters + "(user_id)",
			},
			indexOnly: true,
		},
	}
}

// schemaContext returns a context for schema operations.
func schemaContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 60*time.Second)
}

// Migrate creates the tracking table and applies pending migrations.
// It is safe to run against a store created by another tool: every
// statement is IF NOT EXISTS.
func (db *DB) Migrate(parent context.Context) error {
	ctx, cancel := schemaContext(parent)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range getMigrations() {
		if _, exists := applied[m.Version]; exists {
			continue
		}
		if m.indexOnly && db.cfg.SkipIndexes {
			continue
		}

		err := db.withTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range m.Statements {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
				}
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name, description, applied_at) VALUES (?, ?, ?, ?)`,
				m.Version, m.Name, m.Description, time.Now().UTC().Format(time.RFC3339))
			if err != nil {
				return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("count", newMigrations).Str("driver", db.Driver()).Msg("Applied database migrations")
	}
	return nil
}

// getAppliedMigrations returns a map of version -> Migration for all applied migrations
func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	history, err := db.migrationRows(ctx)
	if err != nil {
		return nil, err
	}
	applied := make(map[int]Migration, len(history))
	for _, m := range history {
		applied[m.Version] = m
	}
	return applied, nil
}

// GetCurrentSchemaVersion returns the highest applied migration version
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// GetMigrationHistory returns all applied migrations in order
func (db *DB) GetMigrationHistory(ctx context.Context) ([]Migration, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.migrationRows(ctx)
}

func (db *DB) migrationRows(ctx context.Context) ([]Migration, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT version, name, COALESCE(description, ''), applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query migration history: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var history []Migration
	for rows.Next() {
		var (
			m         Migration
			appliedAt string
		)
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		if ts, perr := time.Parse(time.RFC3339, appliedAt); perr == nil {
			m.AppliedAt = ts
		}
		history = append(history, m)
	}
	return history, rows.Err()
}
