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

	"github.com/tomtom215/reviewscope/internal/metrics"
)

// observe records a query metric. Call it deferred with a named error.
func observe(operation, table string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
}

// ListBusinessIDs returns business ids in id order. limit <= 0 means all.
func (db *DB) ListBusinessIDs(ctx context.Context, limit int) (ids []string, err error) {
	defer func(start time.Time) { observe("SELECT", TableBusiness, start, err) }(time.Now())

	q := db.sb.Select("business_id").From(TableBusiness).OrderBy("business_id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build business query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var id sql.NullString
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan business id: %w", err)
		}
		if id.Valid {
			ids = append(ids, id.String)
		}
	}
	return ids, rows.Err()
}

// ReviewsForBusiness returns the text and rating of every review of a business.
// Rows come back in a stable order so repeated runs see identical input.
func (db *DB) ReviewsForBusiness(ctx context.Context, businessID string) (out []ReviewText, err error) {
	defer func(start time.Time) { observe("SELECT", TableReview, start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query, args, err := db.sb.Select("text", "stars").
		From(TableReview).
		Where(sq.Eq{"business_id": businessID}).
		OrderBy("stars", "text").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build review query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews for %s: %w", businessID, err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			text  sql.NullString
			stars any
		)
		if err := rows.Scan(&text, &stars); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		out = append(out, ReviewText{
			Text:    text.String,
			HasText: text.Valid,
			Stars:   int(toFloat(stars)),
		})
	}
	return out, rows.Err()
}

// LoadUserFeatures loads the clustering features of every user, ordered by
// user id. limit <= 0 means all users.
func (db *DB) LoadUserFeatures(ctx context.Context, limit int) (out []UserFeatures, err error) {
	defer func(start time.Time) { observe("SELECT", "user", start, err) }(time.Now())

	q := db.sb.Select("user_id", "review_count", "useful", "funny", "cool", "average_stars").
		From(TableUser).
		OrderBy("user_id")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			id  sql.NullString
			raw [5]any
		)
		if err := rows.Scan(&id, &raw[0], &raw[1], &raw[2], &raw[3], &raw[4]); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		uf := UserFeatures{UserID: id.String}
		for i, v := range raw {
			uf.Features[i] = toFloat(v)
		}
		out = append(out, uf)
	}
	return out, rows.Err()
}

// LoadLabeledReviews returns every review rated 1 or 5 stars. NULL text
// becomes "".
func (db *DB) LoadLabeledReviews(ctx context.Context) (out []LabeledReview, err error) {
	defer func(start time.Time) { observe("SELECT", TableReview, start, err) }(time.Now())

	query, args, err := db.sb.Select("text", "stars").
		From(TableReview).
		Where(sq.Eq{"stars": []int{1, 5}}).
		OrderBy("review_id", "text").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build training query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query labeled reviews: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var (
			text  sql.NullString
			stars any
		)
		if err := rows.Scan(&text, &stars); err != nil {
			return nil, fmt.Errorf("failed to scan labeled review: %w", err)
		}
		out = append(out, LabeledReview{Text: text.String, Stars: int(toFloat(stars))})
	}
	return out, rows.Err()
}
