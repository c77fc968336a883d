// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package precompute

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/tomtom215/reviewscope/internal/config"
	"github.com/tomtom215/reviewscope/internal/database"
	"github.com/tomtom215/reviewscope/internal/logging"
)

// TestJobsAgainstStore runs both jobs end to end on an in-memory SQLite store.
func TestJobsAgainstStore(t *testing.T) {
	db, err := database.New(&config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if err := db.InsertBusinesses(ctx, []database.Business{
		{BusinessID: "b1", Name: "One"},
		{BusinessID: "b2", Name: "Two"},
	}); err != nil {
		t.Fatalf("InsertBusinesses: %v", err)
	}
	users := make([]database.User, 12)
	for i := range users {
		users[i] = database.User{UserID: fmt.Sprintf("u%02d", i), ReviewCount: int64(i % 4 * 50), AverageStars: float64(i%4) + 1}
	}
	if err := db.InsertUsers(ctx, users); err != nil {
		t.Fatalf("InsertUsers: %v", err)
	}
	if err := db.InsertReviews(ctx, []database.Review{
		{ReviewID: "r1", BusinessID: "b1", UserID: "u00", Stars: 5, Text: "good pizza, good crust"},
		{ReviewID: "r2", BusinessID: "b1", UserID: "u01", Stars: 1, Text: "bad parking"},
		{ReviewID: "r3", BusinessID: "b1", UserID: "u02", Stars: 4},
	}); err != nil {
		t.Fatalf("InsertReviews: %v", err)
	}

	logger := logging.NewTestLogger(io.Discard)
	runner := NewRunner(
		NewExtractor(db, wordAnalyzer{}, testExtractorConfig(), logger),
		NewClusterer(db, testClusterConfig(4), logger),
	)
	summaries, err := runner.Run(ctx, JobNLP, JobClusters)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summaries) != 2 || summaries[0].OK != 2 || summaries[1].OK != 12 {
		t.Fatalf("summaries = %v %v", summaries[0], summaries[1])
	}

	b2, err := db.GetBusinessNLP(ctx, "b2")
	if err != nil {
		t.Fatalf("GetBusinessNLP(b2): %v", err)
	}
	if b2.PositivityScore != 0 || len(b2.PositiveKeywords) != 0 || len(b2.NegativeKeywords) != 0 {
		t.Errorf("b2 = %+v, want default row", b2)
	}

	b1, err := db.GetBusinessNLP(ctx, "b1")
	if err != nil {
		t.Fatalf("GetBusinessNLP(b1): %v", err)
	}
	if len(b1.PositiveKeywords) == 0 || b1.PositiveKeywords[0] != "good" {
		t.Errorf("b1 positive keywords = %v", b1.PositiveKeywords)
	}

	labels, err := db.LoadUserClusters(ctx)
	if err != nil {
		t.Fatalf("LoadUserClusters: %v", err)
	}
	seen := make(map[int]bool)
	for _, l := range labels {
		seen[l.Label] = true
	}
	if len(labels) != 12 || len(seen) != 4 {
		t.Errorf("got %d labels over %d clusters, want 12 over 4", len(labels), len(seen))
	}
}
