// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package precompute

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/reviewscope/internal/config"
	"github.com/tomtom215/reviewscope/internal/database"
	"github.com/tomtom215/reviewscope/internal/logging"
)

// keywordPattern matches stored keywords: lower-case ASCII words joined
// by single spaces.
var keywordPattern = regexp.MustCompile(`^[a-z0-9]+( [a-z0-9]+)?$`)

// wordAnalyzer scores +1 for "good" and -1 for "bad", averaged per text.
type wordAnalyzer struct{}

func (wordAnalyzer) Compound(text string) float64 {
	switch {
	case strings.Contains(text, "good"):
		return 1
	case strings.Contains(text, "bad"):
		return -1
	default:
		return 0
	}
}

// memStore is an in-memory ExtractorStore and ClusterStore.
type memStore struct {
	mu        sync.Mutex
	reviews   map[string][]database.ReviewText
	ids       []string
	failRead  map[string]bool
	failWrite map[string]bool
	nlp       map[string]database.BusinessNLP

	users    []database.UserFeatures
	clusters []database.UserCluster
	swaps    int
}

func newMemStore() *memStore {
	return &memStore{
		reviews:   make(map[string][]database.ReviewText),
		failRead:  make(map[string]bool),
		failWrite: make(map[string]bool),
		nlp:       make(map[string]database.BusinessNLP),
	}
}

func (m *memStore) addBusiness(id string, reviews ...database.ReviewText) {
	m.ids = append(m.ids, id)
	m.reviews[id] = reviews
}

func (m *memStore) ListBusinessIDs(_ context.Context, limit int) ([]string, error) {
	ids := append([]string(nil), m.ids...)
	sort.Strings(ids)
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *memStore) ReviewsForBusiness(_ context.Context, id string) ([]database.ReviewText, error) {
	if m.failRead[id] {
		return nil, fmt.Errorf("read failure for %s", id)
	}
	return m.reviews[id], nil
}

func (m *memStore) UpsertBusinessNLP(_ context.Context, rec database.BusinessNLP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite[rec.BusinessID] {
		return fmt.Errorf("write failure for %s", rec.BusinessID)
	}
	m.nlp[rec.BusinessID] = rec
	return nil
}

func (m *memStore) LoadUserFeatures(_ context.Context, limit int) ([]database.UserFeatures, error) {
	users := m.users
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (m *memStore) ReplaceUserClusters(_ context.Context, a []database.UserCluster) error {
	m.swaps++
	m.clusters = append([]database.UserCluster(nil), a...)
	return nil
}

func text(s string, stars int) database.ReviewText {
	return database.ReviewText{Text: s, HasText: true, Stars: stars}
}

func nullText(stars int) database.ReviewText {
	return database.ReviewText{Stars: stars}
}

func testExtractorConfig() config.ExtractorConfig {
	return config.ExtractorConfig{Workers: 4, TopTerms: 5, MaxFeatures: 1000, ProgressInterval: time.Hour}
}

func TestComputeBusinessNLP(t *testing.T) {
	t.Parallel()

	t.Run("no reviews", func(t *testing.T) {
		rec := ComputeBusinessNLP("b1", nil, wordAnalyzer{}, 1000, 5)
		if rec.PositivityScore != 0 || rec.PositiveKeywords == nil || len(rec.PositiveKeywords) != 0 ||
			rec.NegativeKeywords == nil || len(rec.NegativeKeywords) != 0 {
			t.Errorf("rec = %+v, want zero score and empty lists", rec)
		}
	})

	t.Run("mixed reviews", func(t *testing.T) {
		reviews := []database.ReviewText{
			text("Good tacos, good salsa!", 5),
			text("Good burritos", 4),
			text("Bad service, cold tacos", 1),
			text("Average", 3),
			nullText(5),
		}
		rec := ComputeBusinessNLP("b1", reviews, wordAnalyzer{}, 1000, 5)

		// NULL text scores as "" (0) and still counts in the mean
		if want := (1.0 + 1 - 1 + 0 + 0) / 5; rec.PositivityScore != want {
			t.Errorf("score = %v, want %v", rec.PositivityScore, want)
		}
		if len(rec.PositiveKeywords) == 0 || len(rec.PositiveKeywords) > 5 {
			t.Errorf("positive keywords = %v", rec.PositiveKeywords)
		}
		if rec.PositiveKeywords[0] != "good" {
			t.Errorf("top positive keyword = %q, want good", rec.PositiveKeywords[0])
		}
		for _, kw := range append(rec.PositiveKeywords, rec.NegativeKeywords...) {
			if !keywordPattern.MatchString(kw) {
				t.Errorf("keyword %q not lower-case alphanumeric", kw)
			}
		}
		for _, kw := range rec.NegativeKeywords {
			if strings.Contains(kw, "good") {
				t.Errorf("negative keywords leaked a positive review: %v", rec.NegativeKeywords)
			}
		}
	})

	t.Run("only stop words", func(t *testing.T) {
		rec := ComputeBusinessNLP("b1", []database.ReviewText{text("It was the", 5)}, wordAnalyzer{}, 1000, 5)
		if len(rec.PositiveKeywords) != 0 {
			t.Errorf("positive keywords = %v, want empty", rec.PositiveKeywords)
		}
	})
}

func TestExtractor_Run(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.addBusiness("b-good", text("good food good vibes", 5), text("good coffee", 4))
	store.addBusiness("b-bad", text("bad food", 1))
	store.addBusiness("b-empty")
	store.addBusiness("b-readfail", text("good", 5))
	store.addBusiness("b-writefail", text("good", 5))
	store.failRead["b-readfail"] = true
	store.failWrite["b-writefail"] = true

	logger := logging.NewTestLogger(io.Discard)
	e := NewExtractor(store, wordAnalyzer{}, testExtractorConfig(), logger)

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.OK != 3 || summary.Failed != 2 || summary.Total() != 5 {
		t.Errorf("summary = %s, want 3 ok and 2 failed", summary)
	}
	if summary.Outcome() != "partial" {
		t.Errorf("outcome = %q, want partial", summary.Outcome())
	}

	empty := store.nlp["b-empty"]
	if empty.PositivityScore != 0 || len(empty.PositiveKeywords) != 0 || len(empty.NegativeKeywords) != 0 {
		t.Errorf("b-empty = %+v, want default row", empty)
	}
	if store.nlp["b-good"].PositivityScore != 1 {
		t.Errorf("b-good score = %v, want 1", store.nlp["b-good"].PositivityScore)
	}
	if _, ok := store.nlp["b-readfail"]; ok {
		t.Error("failed business should not be written")
	}

	// A second run over unchanged data produces identical rows
	first := make(map[string]database.BusinessNLP, len(store.nlp))
	for k, v := range store.nlp {
		first[k] = v
	}
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !reflect.DeepEqual(first, store.nlp) {
		t.Error("re-run changed derived rows")
	}
}

func TestExtractor_Limit(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	for _, id := range []string{"c", "a", "b"} {
		store.addBusiness(id, text("good", 5))
	}
	cfg := testExtractorConfig()
	cfg.Limit = 2
	e := NewExtractor(store, wordAnalyzer{}, cfg, logging.NewTestLogger(io.Discard))

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.OK != 2 {
		t.Errorf("ok = %d, want 2", summary.OK)
	}
	if _, ok := store.nlp["c"]; ok {
		t.Error("limit should keep the first ids in order")
	}
}

// panickyAnalyzer panics on any text containing "boom".
type panickyAnalyzer struct{ wordAnalyzer }

func (p panickyAnalyzer) Compound(text string) float64 {
	if strings.Contains(text, "boom") {
		panic("lexicon index out of range")
	}
	return p.wordAnalyzer.Compound(text)
}

func TestExtractor_PanicIsUnitFailure(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.addBusiness("a", text("good", 5))
	store.addBusiness("b", text("boom", 1))
	store.addBusiness("c", text("bad", 1))
	e := NewExtractor(store, panickyAnalyzer{}, testExtractorConfig(), logging.NewTestLogger(io.Discard))

	summary, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.OK != 2 || summary.Failed != 1 {
		t.Fatalf("summary = %s, want 2 ok and 1 failed", summary)
	}
	if f := summary.Failures[0]; f.Unit != "b" || !strings.Contains(f.Err.Error(), "panic") {
		t.Errorf("failure = %s: %v, want b: panic", f.Unit, f.Err)
	}
	if _, ok := store.nlp["b"]; ok {
		t.Error("panicking business should not be written")
	}
	if _, ok := store.nlp["c"]; !ok {
		t.Error("businesses after the panic should still be written")
	}
}

func TestExtractor_Canceled(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.addBusiness("a", text("good", 5))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExtractor(store, wordAnalyzer{}, testExtractorConfig(), logging.NewTestLogger(io.Discard))
	if _, err := e.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func testClusterConfig(k int) config.ClusterConfig {
	return config.ClusterConfig{K: k, Seed: 42, NInit: 10, MaxIter: 300, Tolerance: 1e-4}
}

func syntheticUsers(n int) []database.UserFeatures {
	users := make([]database.UserFeatures, n)
	for i := range users {
		g := float64(i % 3)
		users[i] = database.UserFeatures{
			UserID:   fmt.Sprintf("u%03d", i),
			Features: [5]float64{g * 100, g * 20, g * 5, g * 10, 1 + g},
		}
	}
	return users
}

func TestClusterer_Run(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.users = syntheticUsers(30)
	c := NewClusterer(store, testClusterConfig(3), logging.NewTestLogger(io.Discard))

	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.OK != 30 {
		t.Errorf("ok = %d, want 30", summary.OK)
	}
	if len(store.clusters) != 30 {
		t.Fatalf("wrote %d labels, want 30", len(store.clusters))
	}

	labels := make(map[int]bool)
	for i, a := range store.clusters {
		labels[a.Label] = true
		// Users in the same synthetic group share a label
		if a.Label != store.clusters[i%3].Label {
			t.Errorf("user %s label %d, want %d", a.UserID, a.Label, store.clusters[i%3].Label)
		}
	}
	if len(labels) != 3 {
		t.Errorf("labels used = %v, want 0..2", labels)
	}

	first := append([]database.UserCluster(nil), store.clusters...)
	if _, err := c.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if !reflect.DeepEqual(first, store.clusters) {
		t.Error("labels changed between identical runs")
	}
}

func TestClusterer_EmptyAndInsufficient(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	c := NewClusterer(store, testClusterConfig(5), logging.NewTestLogger(io.Discard))
	summary, err := c.Run(context.Background())
	if err != nil {
		t.Fatalf("Run(empty): %v", err)
	}
	if summary.Skipped != 1 || store.swaps != 0 {
		t.Errorf("empty run: summary %s, swaps %d", summary, store.swaps)
	}

	store.users = syntheticUsers(3)
	if _, err := c.Run(context.Background()); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
	if store.swaps != 0 {
		t.Error("nothing should be written when there are fewer users than clusters")
	}
}

func TestRunner(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	var order []string
	slow := JobFunc{JobName: "slow", Fn: func(ctx context.Context) (*JobSummary, error) {
		close(started)
		<-release
		order = append(order, "slow")
		return NewJobSummary("slow", "r1"), nil
	}}
	failing := JobFunc{JobName: "failing", Fn: func(ctx context.Context) (*JobSummary, error) {
		order = append(order, "failing")
		return NewJobSummary("failing", "r2"), errors.New("boom")
	}}
	never := JobFunc{JobName: "never", Fn: func(ctx context.Context) (*JobSummary, error) {
		order = append(order, "never")
		return nil, nil
	}}
	r := NewRunner(slow, failing, never)

	if _, err := r.Run(context.Background(), "missing"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("err = %v, want ErrUnknownJob", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background(), "slow", "failing", "never")
		done <- err
	}()
	<-started
	if _, err := r.Run(context.Background(), "never"); !errors.Is(err, ErrJobRunning) {
		t.Errorf("concurrent Run err = %v, want ErrJobRunning", err)
	}
	close(release)

	if err := <-done; err == nil || !strings.Contains(err.Error(), "failing") {
		t.Errorf("err = %v, want failing job error", err)
	}
	if want := []string{"slow", "failing"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestJobSummary(t *testing.T) {
	t.Parallel()

	s := NewJobSummary("nlp", "abc")
	s.Record(UnitResult{Unit: "a", Status: StatusOK})
	s.Record(UnitResult{Unit: "b", Status: StatusSkipped})
	s.RecordOK(3)
	if s.Outcome() != "success" || s.Total() != 5 {
		t.Errorf("summary = %s", s)
	}
	for i := 0; i < maxKeptFailures+10; i++ {
		s.Record(UnitResult{Unit: "x", Status: StatusError, Err: errors.New("e")})
	}
	if s.Failed != maxKeptFailures+10 || len(s.Failures) != maxKeptFailures {
		t.Errorf("failed = %d, kept = %d", s.Failed, len(s.Failures))
	}
	s.Finish(nil)
	if s.Duration <= 0 {
		t.Error("Finish should stamp a duration")
	}
	if !strings.Contains(s.String(), "nlp: 4 ok, 1 skipped") {
		t.Errorf("String = %q", s.String())
	}
}
