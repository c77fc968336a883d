// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// insertBatchSize is the number of rows per multi-row INSERT.
const insertBatchSize = 500

// UpsertBusinessNLP writes the sentiment row for one business, replacing any
// previous row for the same business id.
func (db *DB) UpsertBusinessNLP(ctx context.Context, rec BusinessNLP) (err error) {
	defer func(start time.Time) { observe("UPSERT", TableBusinessNLP, start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query, args, err := db.sb.Insert(TableBusinessNLP).
		Options("OR REPLACE").
		Columns("business_id", "positivity_score", "positive_keywords", "negative_keywords").
		Values(rec.BusinessID, rec.PositivityScore, JoinKeywords(rec.PositiveKeywords), JoinKeywords(rec.NegativeKeywords)).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build upsert: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert sentiment for %s: %w", rec.BusinessID, err)
	}
	return nil
}

// GetBusinessNLP reads back one sentiment row. Returns ErrNotFound when the
// business has none.
func (db *DB) GetBusinessNLP(ctx context.Context, businessID string) (rec *BusinessNLP, err error) {
	defer func(start time.Time) { observe("SELECT", TableBusinessNLP, start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query, args, err := db.sb.Select("positivity_score", "positive_keywords", "negative_keywords").
		From(TableBusinessNLP).
		Where(sq.Eq{"business_id": businessID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sentiment query: %w", err)
	}

	var (
		score    sql.NullFloat64
		pos, neg sql.NullString
	)
	err = db.conn.QueryRowContext(ctx, query, args...).Scan(&score, &pos, &neg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sentiment for %s: %w", businessID, err)
	}
	return &BusinessNLP{
		BusinessID:       businessID,
		PositivityScore:  score.Float64,
		PositiveKeywords: SplitKeywords(pos.String),
		NegativeKeywords: SplitKeywords(neg.String),
	}, nil
}

// ReplaceUserClusters swaps the whole user_clusters table for the given
// assignments. Rows are first bulk-loaded into a staging table; the live
// table is then replaced from staging inside one short transaction, so
// readers see either the previous snapshot or the new one.
func (db *DB) ReplaceUserClusters(ctx context.Context, assignments []UserCluster) (err error) {
	defer func(start time.Time) { observe("REPLACE", TableUserClusters, start, err) }(time.Now())

	if _, err := db.conn.ExecContext(ctx, "DROP TABLE IF EXISTS "+userClustersStaging); err != nil {
		return fmt.Errorf("failed to drop staging table: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, "CREATE TABLE "+userClustersStaging+" "+createUserClustersDL); err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}
	defer func() {
		if _, derr := db.conn.ExecContext(context.WithoutCancel(ctx), "DROP TABLE IF EXISTS "+userClustersStaging); derr != nil && err == nil {
			err = fmt.Errorf("failed to drop staging table: %w", derr)
		}
	}()

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		for start := 0; start < len(assignments); start += insertBatchSize {
			end := min(start+insertBatchSize, len(assignments))
			ins := db.sb.Insert(userClustersStaging).Columns("user_id", "cluster_label")
			for _, a := range assignments[start:end] {
				ins = ins.Values(a.UserID, a.Label)
			}
			query, args, err := ins.ToSql()
			if err != nil {
				return fmt.Errorf("failed to build staging insert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to load staging rows: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+TableUserClusters); err != nil {
			return fmt.Errorf("failed to clear %s: %w", TableUserClusters, err)
		}
		swap := "INSERT INTO " + TableUserClusters + " (user_id, cluster_label) SELECT user_id, cluster_label FROM " + userClustersStaging
		if _, err := tx.ExecContext(ctx, swap); err != nil {
			return fmt.Errorf("failed to publish cluster labels: %w", err)
		}
		return nil
	})
}

// LoadUserClusters returns every cluster assignment ordered by user id.
func (db *DB) LoadUserClusters(ctx context.Context) (out []UserCluster, err error) {
	defer func(start time.Time) { observe("SELECT", TableUserClusters, start, err) }(time.Now())

	query, args, err := db.sb.Select("user_id", "cluster_label").
		From(TableUserClusters).
		OrderBy("user_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build cluster query: %w", err)
	}
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cluster labels: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			uc    UserCluster
			label int64
		)
		if err := rows.Scan(&uc.UserID, &label); err != nil {
			return nil, fmt.Errorf("failed to scan cluster label: %w", err)
		}
		uc.Label = int(label)
		out = append(out, uc)
	}
	return out, rows.Err()
}
