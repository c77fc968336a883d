// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package database

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tomtom215/reviewscope/internal/config"
)

// testDBSemaphore serializes DuckDB-backed tests. Concurrent CGO connections
// under CI pressure have been seen to hang.
var testDBSemaphore = make(chan struct{}, 1)

// testDrivers lists the drivers every repository test runs against.
var testDrivers = []string{config.DriverSQLite, config.DriverDuckDB}

// setupTestDB creates a new in-memory store for the given driver. The DuckDB
// semaphore is held until the test completes.
func setupTestDB(t *testing.T, driver string) *DB {
	t.Helper()

	if driver == config.DriverDuckDB {
		testDBSemaphore <- struct{}{}
		t.Cleanup(func() { <-testDBSemaphore })
	}

	db, err := New(&config.DatabaseConfig{
		Driver:    driver,
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   2,
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return db
}

// seedFixture inserts three businesses, four users and a handful of reviews.
// biz-empty has no reviews at all.
func seedFixture(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()

	businesses := []Business{
		{BusinessID: "biz-a", Name: "Alpha Diner", Stars: 4.5, ReviewCount: 3, City: "Tempe"},
		{BusinessID: "biz-b", Name: "Beta Grill", Stars: 2.0, ReviewCount: 2, City: "Mesa"},
		{BusinessID: "biz-empty", Name: "Empty Cafe", Stars: 3.0, ReviewCount: 0, City: "Tempe"},
	}
	if err := db.InsertBusinesses(ctx, businesses); err != nil {
		t.Fatalf("InsertBusinesses: %v", err)
	}

	users := []User{
		{UserID: "u1", ReviewCount: 10, Useful: 2, Funny: 1, Cool: 0, AverageStars: 4.2},
		{UserID: "u2", ReviewCount: 200, Useful: 50, Funny: 40, Cool: 30, AverageStars: 3.1},
		{UserID: "u3", ReviewCount: 1, Useful: 0, Funny: 0, Cool: 0, AverageStars: 5},
		{UserID: "u4", ReviewCount: 3, Useful: 1, Funny: 0, Cool: 1, AverageStars: 1.5},
	}
	if err := db.InsertUsers(ctx, users); err != nil {
		t.Fatalf("InsertUsers: %v", err)
	}

	reviews := []Review{
		{ReviewID: "r1", BusinessID: "biz-a", UserID: "u1", Stars: 5, Text: "Great tacos, friendly staff"},
		{ReviewID: "r2", BusinessID: "biz-a", UserID: "u2", Stars: 1, Text: "Cold food and rude service"},
		{ReviewID: "r3", BusinessID: "biz-a", UserID: "u3", Stars: 4, Text: ""},
		{ReviewID: "r4", BusinessID: "biz-b", UserID: "u2", Stars: 2, Text: "Slow"},
		{ReviewID: "r5", BusinessID: "biz-b", UserID: "u4", Stars: 5, Text: "Amazing"},
	}
	if err := db.InsertReviews(ctx, reviews); err != nil {
		t.Fatalf("InsertReviews: %v", err)
	}
}

func TestNew_AppliesMigrations(t *testing.T) {
	for _, driver := range testDrivers {
		t.Run(driver, func(t *testing.T) {
			db := setupTestDB(t, driver)
			ctx := context.Background()

			version, err := db.GetCurrentSchemaVersion(ctx)
			if err != nil {
				t.Fatalf("GetCurrentSchemaVersion: %v", err)
			}
			if want := len(getMigrations()); version != want {
				t.Errorf("schema version = %d, want %d", version, want)
			}

			// Running again is a no-op
			if err := db.Migrate(ctx); err != nil {
				t.Fatalf("second Migrate: %v", err)
			}
			history, err := db.GetMigrationHistory(ctx)
			if err != nil {
				t.Fatalf("GetMigrationHistory: %v", err)
			}
			if len(history) != len(getMigrations()) {
				t.Errorf("history has %d entries, want %d", len(history), len(getMigrations()))
			}
			if history[0].AppliedAt.IsZero() {
				t.Error("AppliedAt should be populated")
			}
		})
	}
}

func TestNew_SkipIndexes(t *testing.T) {
	db, err := New(&config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:", SkipIndexes: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()

	version, err := db.GetCurrentSchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentSchemaVersion: %v", err)
	}
	if version != 2 {
		t.Errorf("schema version = %d, want 2 (index migration skipped)", version)
	}
}

func TestNew_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "reviews.db")
	db, err := New(&config.DatabaseConfig{Driver: config.DriverSQLite, Path: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := New(&config.DatabaseConfig{Driver: "oracle", Path: ":memory:"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestSourceReads(t *testing.T) {
	for _, driver := range testDrivers {
		t.Run(driver, func(t *testing.T) {
			db := setupTestDB(t, driver)
			seedFixture(t, db)
			ctx := context.Background()

			ids, err := db.ListBusinessIDs(ctx, 0)
			if err != nil {
				t.Fatalf("ListBusinessIDs: %v", err)
			}
			if want := []string{"biz-a", "biz-b", "biz-empty"}; !reflect.DeepEqual(ids, want) {
				t.Errorf("ListBusinessIDs = %v, want %v", ids, want)
			}
			limited, err := db.ListBusinessIDs(ctx, 2)
			if err != nil {
				t.Fatalf("ListBusinessIDs(limit): %v", err)
			}
			if len(limited) != 2 {
				t.Errorf("limited ids = %v, want 2 entries", limited)
			}

			reviews, err := db.ReviewsForBusiness(ctx, "biz-a")
			if err != nil {
				t.Fatalf("ReviewsForBusiness: %v", err)
			}
			if len(reviews) != 3 {
				t.Fatalf("got %d reviews, want 3", len(reviews))
			}
			nullText := 0
			for _, r := range reviews {
				if !r.HasText {
					nullText++
					if r.Text != "" || r.Stars != 4 {
						t.Errorf("NULL-text review = %+v, want empty text and 4 stars", r)
					}
				}
			}
			if nullText != 1 {
				t.Errorf("NULL-text reviews = %d, want 1", nullText)
			}

			none, err := db.ReviewsForBusiness(ctx, "biz-empty")
			if err != nil {
				t.Fatalf("ReviewsForBusiness(empty): %v", err)
			}
			if len(none) != 0 {
				t.Errorf("biz-empty reviews = %v, want none", none)
			}

			users, err := db.LoadUserFeatures(ctx, 0)
			if err != nil {
				t.Fatalf("LoadUserFeatures: %v", err)
			}
			if len(users) != 4 || users[0].UserID != "u1" {
				t.Fatalf("users = %+v, want 4 ordered by id", users)
			}
			if want := [5]float64{200, 50, 40, 30, 3.1}; users[1].Features != want {
				t.Errorf("u2 features = %v, want %v", users[1].Features, want)
			}

			labeled, err := db.LoadLabeledReviews(ctx)
			if err != nil {
				t.Fatalf("LoadLabeledReviews: %v", err)
			}
			if len(labeled) != 3 {
				t.Errorf("labeled reviews = %d, want 3 (stars 1 or 5)", len(labeled))
			}
			for _, l := range labeled {
				if l.Stars != 1 && l.Stars != 5 {
					t.Errorf("unexpected label %d", l.Stars)
				}
			}
		})
	}
}

func TestUpsertBusinessNLP(t *testing.T) {
	for _, driver := range testDrivers {
		t.Run(driver, func(t *testing.T) {
			db := setupTestDB(t, driver)
			ctx := context.Background()

			first := BusinessNLP{BusinessID: "biz-a", PositivityScore: 0.4, PositiveKeywords: []string{"tacos", "great tacos"}}
			if err := db.UpsertBusinessNLP(ctx, first); err != nil {
				t.Fatalf("UpsertBusinessNLP: %v", err)
			}
			second := BusinessNLP{BusinessID: "biz-a", PositivityScore: -0.2, NegativeKeywords: []string{"cold"}}
			if err := db.UpsertBusinessNLP(ctx, second); err != nil {
				t.Fatalf("UpsertBusinessNLP (replace): %v", err)
			}

			got, err := db.GetBusinessNLP(ctx, "biz-a")
			if err != nil {
				t.Fatalf("GetBusinessNLP: %v", err)
			}
			if got.PositivityScore != -0.2 {
				t.Errorf("score = %v, want -0.2", got.PositivityScore)
			}
			if len(got.PositiveKeywords) != 0 {
				t.Errorf("positive keywords = %v, want replaced with empty", got.PositiveKeywords)
			}
			if !reflect.DeepEqual(got.NegativeKeywords, []string{"cold"}) {
				t.Errorf("negative keywords = %v, want [cold]", got.NegativeKeywords)
			}

			n, err := db.CountRows(ctx, TableBusinessNLP)
			if err != nil {
				t.Fatalf("CountRows: %v", err)
			}
			if n != 1 {
				t.Errorf("business_nlp rows = %d, want 1", n)
			}

			if _, err := db.GetBusinessNLP(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetBusinessNLP(missing) err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestReplaceUserClusters(t *testing.T) {
	for _, driver := range testDrivers {
		t.Run(driver, func(t *testing.T) {
			db := setupTestDB(t, driver)
			ctx := context.Background()

			first := make([]UserCluster, 0, 1200)
			for i := 0; i < 1200; i++ {
				first = append(first, UserCluster{UserID: "user-" + string(rune('a'+i%26)) + itoa(i), Label: i % 3})
			}
			if err := db.ReplaceUserClusters(ctx, first); err != nil {
				t.Fatalf("ReplaceUserClusters: %v", err)
			}
			n, err := db.CountRows(ctx, TableUserClusters)
			if err != nil {
				t.Fatalf("CountRows: %v", err)
			}
			if n != 1200 {
				t.Errorf("rows after first swap = %d, want 1200", n)
			}

			second := []UserCluster{{UserID: "u1", Label: 0}, {UserID: "u2", Label: 1}}
			if err := db.ReplaceUserClusters(ctx, second); err != nil {
				t.Fatalf("ReplaceUserClusters (second): %v", err)
			}
			got, err := db.LoadUserClusters(ctx)
			if err != nil {
				t.Fatalf("LoadUserClusters: %v", err)
			}
			if !reflect.DeepEqual(got, second) {
				t.Errorf("clusters = %v, want %v (whole table replaced)", got, second)
			}
		})
	}
}

func TestDashboardQueries(t *testing.T) {
	for _, driver := range testDrivers {
		t.Run(driver, func(t *testing.T) {
			db := setupTestDB(t, driver)
			seedFixture(t, db)
			ctx := context.Background()

			summary, err := db.GetBusinessSummary(ctx, "biz-a")
			if err != nil {
				t.Fatalf("GetBusinessSummary: %v", err)
			}
			if summary.Name != "Alpha Diner" || summary.Stars != 4.5 || summary.ReviewCount != 3 {
				t.Errorf("summary = %+v", summary.Business)
			}
			if summary.HasNLP {
				t.Error("HasNLP should be false before the extractor runs")
			}

			if err := db.UpsertBusinessNLP(ctx, BusinessNLP{BusinessID: "biz-a", PositivityScore: 0.3, PositiveKeywords: []string{"tacos"}}); err != nil {
				t.Fatalf("UpsertBusinessNLP: %v", err)
			}
			summary, err = db.GetBusinessSummary(ctx, "biz-a")
			if err != nil {
				t.Fatalf("GetBusinessSummary: %v", err)
			}
			if !summary.HasNLP || summary.PositivityScore != 0.3 || summary.PositiveKeywords != "tacos" {
				t.Errorf("summary with nlp = %+v", summary)
			}

			if _, err := db.GetBusinessSummary(ctx, "nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetBusinessSummary(nope) err = %v, want ErrNotFound", err)
			}

			// No cluster table contents yet
			archetypes, err := db.GetCustomerArchetypes(ctx, "biz-a")
			if err != nil {
				t.Fatalf("GetCustomerArchetypes: %v", err)
			}
			if archetypes == nil || len(archetypes) != 0 {
				t.Errorf("archetypes = %v, want empty non-nil", archetypes)
			}

			err = db.ReplaceUserClusters(ctx, []UserCluster{
				{UserID: "u1", Label: 2}, {UserID: "u2", Label: 0}, {UserID: "u3", Label: 2}, {UserID: "u4", Label: 1},
			})
			if err != nil {
				t.Fatalf("ReplaceUserClusters: %v", err)
			}
			archetypes, err = db.GetCustomerArchetypes(ctx, "biz-a")
			if err != nil {
				t.Fatalf("GetCustomerArchetypes: %v", err)
			}
			want := []ArchetypeCount{{Label: 2, Count: 2}, {Label: 0, Count: 1}}
			if !reflect.DeepEqual(archetypes, want) {
				t.Errorf("archetypes = %v, want %v", archetypes, want)
			}

			// Tie on count falls back to label order
			archetypes, err = db.GetCustomerArchetypes(ctx, "biz-b")
			if err != nil {
				t.Fatalf("GetCustomerArchetypes: %v", err)
			}
			want = []ArchetypeCount{{Label: 0, Count: 1}, {Label: 1, Count: 1}}
			if !reflect.DeepEqual(archetypes, want) {
				t.Errorf("archetypes(biz-b) = %v, want %v", archetypes, want)
			}
		})
	}
}

func TestCountRows_UnknownTable(t *testing.T) {
	db := setupTestDB(t, config.DriverSQLite)
	if _, err := db.CountRows(context.Background(), "sqlite_master; DROP TABLE business"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestKeywordsRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		terms []string
		want  string
	}{
		{"empty", []string{}, ""},
		{"single", []string{"tacos"}, "tacos"},
		{"bigram", []string{"great food", "tacos"}, "great food,tacos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			joined := JoinKeywords(tt.terms)
			if joined != tt.want {
				t.Errorf("JoinKeywords = %q, want %q", joined, tt.want)
			}
			if back := SplitKeywords(joined); !reflect.DeepEqual(back, tt.terms) {
				t.Errorf("SplitKeywords = %v, want %v", back, tt.terms)
			}
		})
	}
}

func TestToFloat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want float64
	}{
		{nil, 0},
		{int64(7), 7},
		{3.5, 3.5},
		{"12", 12},
		{[]byte("4.25"), 4.25},
		{"not a number", 0},
		{"NaN", 0},
		{true, 1},
	}
	for _, tt := range tests {
		if got := toFloat(tt.in); got != tt.want {
			t.Errorf("toFloat(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}
