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

	sq "github.com/Masterminds/squirrel"
)

// InsertBusinesses writes a batch of businesses in one transaction.
// Existing rows with the same id are replaced.
func (db *DB) InsertBusinesses(ctx context.Context, batch []Business) (err error) {
	defer func(start time.Time) { observe("INSERT", TableBusiness, start, err) }(time.Now())

	return db.insertBatch(ctx, len(batch), func(from, to int) sq.InsertBuilder {
		ins := db.sb.Insert(TableBusiness).
			Options("OR REPLACE").
			Columns("business_id", "name", "stars", "review_count", "city")
		for _, b := range batch[from:to] {
			ins = ins.Values(b.BusinessID, b.Name, b.Stars, b.ReviewCount, b.City)
		}
		return ins
	})
}

// InsertReviews appends a batch of reviews in one transaction.
// Empty text is stored as NULL.
func (db *DB) InsertReviews(ctx context.Context, batch []Review) (err error) {
	defer func(start time.Time) { observe("INSERT", TableReview, start, err) }(time.Now())

	return db.insertBatch(ctx, len(batch), func(from, to int) sq.InsertBuilder {
		ins := db.sb.Insert(TableReview).
			Columns("review_id", "business_id", "user_id", "stars", "text")
		for _, r := range batch[from:to] {
			text := sql.NullString{String: r.Text, Valid: r.Text != ""}
			ins = ins.Values(r.ReviewID, r.BusinessID, r.UserID, r.Stars, text)
		}
		return ins
	})
}

// InsertUsers writes a batch of users in one transaction.
// Existing rows with the same id are replaced.
func (db *DB) InsertUsers(ctx context.Context, batch []User) (err error) {
	defer func(start time.Time) { observe("INSERT", "user", start, err) }(time.Now())

	return db.insertBatch(ctx, len(batch), func(from, to int) sq.InsertBuilder {
		ins := db.sb.Insert(TableUser).
			Options("OR REPLACE").
			Columns("user_id", "review_count", "useful", "funny", "cool", "average_stars")
		for _, u := range batch[from:to] {
			ins = ins.Values(u.UserID, u.ReviewCount, u.Useful, u.Funny, u.Cool, u.AverageStars)
		}
		return ins
	})
}

// insertBatch splits n rows into multi-row INSERTs of insertBatchSize and
// runs them all in one transaction.
func (db *DB) insertBatch(ctx context.Context, n int, build func(from, to int) sq.InsertBuilder) error {
	if n == 0 {
		return nil
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for from := 0; from < n; from += insertBatchSize {
			to := min(from+insertBatchSize, n)
			query, args, err := build(from, to).ToSql()
			if err != nil {
				return fmt.Errorf("failed to build insert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to insert rows %d-%d: %w", from, to, err)
			}
		}
		return nil
	})
}

// CountRows returns the number of rows in one of the known tables.
func (db *DB) CountRows(ctx context.Context, table string) (n int64, err error) {
	switch table {
	case TableBusiness, TableReview, TableUser, TableBusinessNLP, TableUserClusters:
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	defer func(start time.Time) { observe("COUNT", table, start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query, args, err := db.sb.Select("COUNT(*)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
