// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package dashboard

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/reviewscope/internal/config"
	"github.com/tomtom215/reviewscope/internal/database"
	"github.com/tomtom215/reviewscope/internal/logging"
	"github.com/tomtom215/reviewscope/internal/metrics"
)

type fakeStore struct {
	summaries  map[string]*database.BusinessSummary
	archetypes map[string][]database.ArchetypeCount
	err        error
	calls      atomic.Int64
}

func (f *fakeStore) GetBusinessSummary(_ context.Context, id string) (*database.BusinessSummary, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.summaries[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) GetCustomerArchetypes(_ context.Context, id string) ([]database.ArchetypeCount, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.archetypes[id], nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		summaries: map[string]*database.BusinessSummary{
			"biz-a": {
				Business:         database.Business{BusinessID: "biz-a", Name: "Taqueria", Stars: 4.5, ReviewCount: 12, City: "Tucson"},
				HasNLP:           true,
				PositivityScore:  0.62,
				PositiveKeywords: "tacos,salsa verde",
				NegativeKeywords: "wait",
			},
			"biz-bare": {
				Business: database.Business{BusinessID: "biz-bare", Name: "New Place", Stars: 3, City: "Reno"},
			},
		},
		archetypes: map[string][]database.ArchetypeCount{
			"biz-a": {{Label: 2, Count: 7}, {Label: 0, Count: 3}},
		},
	}
}

func testConfig() config.DashboardConfig {
	return config.DashboardConfig{
		QueryTimeout:   time.Second,
		BreakerTimeout: time.Minute,
		BreakerFailMin: 2,
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(newFakeStore(), testConfig(), logging.NewTestLogger(io.Discard))

	tests := []struct {
		name    string
		id      string
		want    *Record
		wantErr error
	}{
		{
			name: "full record",
			id:   "biz-a",
			want: &Record{
				BusinessID: "biz-a", Name: "Taqueria", Stars: 4.5, ReviewCount: 12, City: "Tucson",
				PositivityScore:    0.62,
				PositiveKeywords:   []string{"tacos", "salsa verde"},
				NegativeKeywords:   []string{"wait"},
				CustomerArchetypes: []Archetype{{Type: 2, Count: 7}, {Type: 0, Count: 3}},
			},
		},
		{
			name: "no sentiment row",
			id:   "biz-bare",
			want: &Record{
				BusinessID: "biz-bare", Name: "New Place", Stars: 3, City: "Reno",
				PositiveKeywords:   []string{},
				NegativeKeywords:   []string{},
				CustomerArchetypes: []Archetype{},
			},
		},
		{name: "unknown", id: "nope", wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := agg.Lookup(context.Background(), tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || got != nil {
					t.Fatalf("Lookup(%q) = %+v, %v; want nil, %v", tt.id, got, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q): %v", tt.id, err)
			}
			gotJSON, _ := json.Marshal(got)
			wantJSON, _ := json.Marshal(tt.want)
			if string(gotJSON) != string(wantJSON) {
				t.Errorf("Lookup(%q)\n got  %s\n want %s", tt.id, gotJSON, wantJSON)
			}
		})
	}
}

func TestRecord_JSONShape(t *testing.T) {
	t.Parallel()

	rec := Merge(&database.BusinessSummary{Business: database.Business{BusinessID: "b", Name: "Diner"}}, nil)
	data, err := json.Marshal(rec.Legacy())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{
		"business_id", "name", "stars", "review_count", "city", "positivity_score",
		"positive_keywords", "negative_keywords", "customer_archetypes",
		"top_positive_keywords", "top_negative_keywords", "restaurant_name",
	} {
		if _, ok := m[key]; !ok {
			t.Errorf("legacy record missing %q: %s", key, data)
		}
	}
	if m["restaurant_name"] != "Diner" {
		t.Errorf("restaurant_name = %v", m["restaurant_name"])
	}
	if arr, ok := m["customer_archetypes"].([]any); !ok || len(arr) != 0 {
		t.Errorf("customer_archetypes = %v, want []", m["customer_archetypes"])
	}

	plain, _ := json.Marshal(rec)
	var pm map[string]any
	_ = json.Unmarshal(plain, &pm)
	if _, ok := pm["restaurant_name"]; ok {
		t.Error("plain record must not carry legacy keys")
	}
}

func TestLookup_StoreFailureTripsBreaker(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.err = errors.New("database is locked")
	agg := NewAggregator(store, testConfig(), logging.NewTestLogger(io.Discard))

	for range 2 {
		if _, err := agg.Lookup(context.Background(), "biz-a"); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("err = %v, want ErrUnavailable", err)
		}
	}
	if agg.BreakerState() != "open" {
		t.Fatalf("breaker = %s, want open", agg.BreakerState())
	}

	before := store.calls.Load()
	if _, err := agg.Lookup(context.Background(), "biz-a"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable while open", err)
	}
	if store.calls.Load() != before {
		t.Error("open breaker must not reach the store")
	}
}

func TestLookup_NotFoundDoesNotTrip(t *testing.T) {
	t.Parallel()

	agg := NewAggregator(newFakeStore(), testConfig(), logging.NewTestLogger(io.Discard))
	for range 5 {
		if _, err := agg.Lookup(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v", err)
		}
	}
	if agg.BreakerState() != "closed" {
		t.Errorf("breaker = %s, want closed", agg.BreakerState())
	}
}

func TestLookup_Cache(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	cfg := testConfig()
	cfg.CacheEnabled = true
	cfg.CacheTTL = time.Minute
	cfg.CacheSize = 16
	agg := NewAggregator(store, cfg, logging.NewTestLogger(io.Discard))

	hitsBefore := testutil.ToFloat64(metrics.DashboardCacheHits)
	for range 3 {
		if _, err := agg.Lookup(context.Background(), "biz-a"); err != nil {
			t.Fatalf("Lookup: %v", err)
		}
	}
	if calls := store.calls.Load(); calls != 2 {
		t.Errorf("store calls = %d, want 2 (one lookup, two queries)", calls)
	}
	if testutil.ToFloat64(metrics.DashboardCacheHits)-hitsBefore < 2 {
		t.Error("cache hits not recorded")
	}
}

func TestLookup_CacheSweepsExpired(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	cfg := testConfig()
	cfg.CacheEnabled = true
	cfg.CacheTTL = 20 * time.Millisecond
	cfg.CacheSize = 16
	agg := NewAggregator(store, cfg, logging.NewTestLogger(io.Discard))

	ctx := context.Background()
	if _, err := agg.Lookup(ctx, "biz-a"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if _, err := agg.Lookup(ctx, "biz-bare"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if n := agg.cache.Len(); n != 2 {
		t.Fatalf("cache len = %d, want 2", n)
	}

	time.Sleep(3 * cfg.CacheTTL)

	// Any lookup after the interval sweeps both stale entries before
	// caching the fresh one.
	if _, err := agg.Lookup(ctx, "biz-a"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if n := agg.cache.Len(); n != 1 {
		t.Errorf("cache len after sweep = %d, want 1", n)
	}
}

func TestLookup_AgainstSQLite(t *testing.T) {
	t.Parallel()

	db, err := database.New(&config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "yelp.db"),
	})
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := db.InsertBusinesses(ctx, []database.Business{
		{BusinessID: "b1", Name: "Cafe", Stars: 4, ReviewCount: 3, City: "Austin"},
	}); err != nil {
		t.Fatalf("InsertBusinesses: %v", err)
	}
	if err := db.InsertReviews(ctx, []database.Review{
		{ReviewID: "r1", BusinessID: "b1", UserID: "u1", Text: "good", Stars: 5},
		{ReviewID: "r2", BusinessID: "b1", UserID: "u2", Text: "ok", Stars: 3},
		{ReviewID: "r3", BusinessID: "b1", UserID: "u3", Text: "meh", Stars: 2},
	}); err != nil {
		t.Fatalf("InsertReviews: %v", err)
	}
	if err := db.ReplaceUserClusters(ctx, []database.UserCluster{
		{UserID: "u1", Label: 1}, {UserID: "u2", Label: 1}, {UserID: "u3", Label: 0},
	}); err != nil {
		t.Fatalf("ReplaceUserClusters: %v", err)
	}

	agg := NewAggregator(db, testConfig(), logging.NewTestLogger(io.Discard))
	rec, err := agg.Lookup(ctx, "b1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec.PositivityScore != 0 || len(rec.PositiveKeywords) != 0 {
		t.Errorf("no NLP row should default, got %+v", rec)
	}
	want := []Archetype{{Type: 1, Count: 2}, {Type: 0, Count: 1}}
	if len(rec.CustomerArchetypes) != 2 || rec.CustomerArchetypes[0] != want[0] || rec.CustomerArchetypes[1] != want[1] {
		t.Errorf("archetypes = %+v, want %+v", rec.CustomerArchetypes, want)
	}
}
