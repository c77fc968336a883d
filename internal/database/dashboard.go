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

// GetBusinessSummary runs the first dashboard lookup: the business row left
// joined with its sentiment row. Returns ErrNotFound for an unknown id.
func (db *DB) GetBusinessSummary(ctx context.Context, businessID string) (summary *BusinessSummary, err error) {
	defer func(start time.Time) { observe("SELECT", TableBusiness, start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query, args, err := db.sb.Select(
		"b.business_id", "b.name", "b.stars", "b.review_count", "b.city",
		"n.business_id", "n.positivity_score", "n.positive_keywords", "n.negative_keywords",
	).
		From(TableBusiness + " b").
		LeftJoin(TableBusinessNLP + " n ON b.business_id = n.business_id").
		Where(sq.Eq{"b.business_id": businessID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build summary query: %w", err)
	}

	var (
		id, name, city     sql.NullString
		stars, reviewCount any
		nlpID, pos, neg    sql.NullString
		score              sql.NullFloat64
	)
	err = db.conn.QueryRowContext(ctx, query, args...).Scan(
		&id, &name, &stars, &reviewCount, &city,
		&nlpID, &score, &pos, &neg,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read business %s: %w", businessID, err)
	}

	return &BusinessSummary{
		Business: Business{
			BusinessID:  id.String,
			Name:        name.String,
			Stars:       toFloat(stars),
			ReviewCount: int64(toFloat(reviewCount)),
			City:        city.String,
		},
		HasNLP:           nlpID.Valid,
		PositivityScore:  score.Float64,
		PositiveKeywords: pos.String,
		NegativeKeywords: neg.String,
	}, nil
}

// GetCustomerArchetypes runs the second dashboard lookup: reviews of the
// business joined to their authors' cluster labels, counted per label.
// Ordered by count descending, then label ascending.
func (db *DB) GetCustomerArchetypes(ctx context.Context, businessID string) (out []ArchetypeCount, err error) {
	defer func(start time.Time) { observe("SELECT", TableUserClusters, start, err) }(time.Now())

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query, args, err := db.sb.Select("uc.cluster_label", "COUNT(*) AS visit_count").
		From(TableReview+" r").
		Join(TableUserClusters+" uc ON r.user_id = uc.user_id").
		Where(sq.Eq{"r.business_id": businessID}).
		GroupBy("uc.cluster_label").
		OrderBy("visit_count DESC", "uc.cluster_label ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build archetype query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query archetypes for %s: %w", businessID, err)
	}
	defer closeWithLog(rows, "rows")

	out = []ArchetypeCount{}
	for rows.Next() {
		var label, count int64
		if err := rows.Scan(&label, &count); err != nil {
			return nil, fmt.Errorf("failed to scan archetype: %w", err)
		}
		out = append(out, ArchetypeCount{Label: int(label), Count: count})
	}
	return out, rows.Err()
}
