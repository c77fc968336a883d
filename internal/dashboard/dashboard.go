// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

// Package dashboard assembles the per-business dashboard record from the
// precomputed tables with exactly two store lookups.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/reviewscope/internal/cache"
	"github.com/tomtom215/reviewscope/internal/config"
	"github.com/tomtom215/reviewscope/internal/database"
	"github.com/tomtom215/reviewscope/internal/metrics"
)

const breakerName = "dashboard-store"

var (
	// ErrNotFound is returned for a business id with no business row.
	ErrNotFound = errors.New("business not found")

	// ErrUnavailable is returned when the store is failing or the breaker is open.
	ErrUnavailable = errors.New("dashboard store unavailable")
)

// Store is the read side the aggregator needs.
type Store interface {
	GetBusinessSummary(ctx context.Context, businessID string) (*database.BusinessSummary, error)
	GetCustomerArchetypes(ctx context.Context, businessID string) ([]database.ArchetypeCount, error)
}

// Archetype is one customer cluster and the number of the business's
// reviews written by its members.
type Archetype struct {
	Type  int   `json:"type"`
	Count int64 `json:"count"`
}

// Record is the merged dashboard response for one business.
type Record struct {
	BusinessID         string      `json:"business_id"`
	Name               string      `json:"name"`
	Stars              float64     `json:"stars"`
	ReviewCount        int64       `json:"review_count"`
	City               string      `json:"city"`
	PositivityScore    float64     `json:"positivity_score"`
	PositiveKeywords   []string    `json:"positive_keywords"`
	NegativeKeywords   []string    `json:"negative_keywords"`
	CustomerArchetypes []Archetype `json:"customer_archetypes"`
}

// LegacyRecord adds the duplicate keys older dashboard clients read.
type LegacyRecord struct {
	Record
	TopPositiveKeywords []string `json:"top_positive_keywords"`
	TopNegativeKeywords []string `json:"top_negative_keywords"`
	RestaurantName      string   `json:"restaurant_name"`
}

// Legacy returns the record with the legacy keys filled in.
func (r *Record) Legacy() LegacyRecord {
	return LegacyRecord{
		Record:              *r,
		TopPositiveKeywords: r.PositiveKeywords,
		TopNegativeKeywords: r.NegativeKeywords,
		RestaurantName:      r.Name,
	}
}

// Merge builds a Record from the two lookup results. NULL sentiment columns
// become 0 and empty lists.
func Merge(summary *database.BusinessSummary, archetypes []database.ArchetypeCount) *Record {
	rec := &Record{
		BusinessID:         summary.BusinessID,
		Name:               summary.Name,
		Stars:              summary.Stars,
		ReviewCount:        summary.ReviewCount,
		City:               summary.City,
		PositiveKeywords:   []string{},
		NegativeKeywords:   []string{},
		CustomerArchetypes: make([]Archetype, 0, len(archetypes)),
	}
	if summary.HasNLP {
		rec.PositivityScore = summary.PositivityScore
		rec.PositiveKeywords = database.SplitKeywords(summary.PositiveKeywords)
		rec.NegativeKeywords = database.SplitKeywords(summary.NegativeKeywords)
	}
	for _, a := range archetypes {
		rec.CustomerArchetypes = append(rec.CustomerArchetypes, Archetype{Type: a.Label, Count: a.Count})
	}
	return rec
}

// Aggregator serves dashboard records. It is safe for concurrent use.
type Aggregator struct {
	store   Store
	cfg     config.DashboardConfig
	breaker *gobreaker.CircuitBreaker[*Record]
	cache   *cache.LRU[*Record]
	sweep   *rate.Sometimes
	logger  zerolog.Logger
}

// NewAggregator wires the store behind a circuit breaker and, when enabled,
// a short-lived response cache.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewAggregator(store Store, cfg config.DashboardConfig, logger zerolog.Logger) *Aggregator {
	if cfg.BreakerFailMin == 0 {
		cfg.BreakerFailMin = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	a := &Aggregator{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "dashboard").Logger(),
	}

	a.breaker = gobreaker.NewCircuitBreaker[*Record](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailMin
		},
		IsSuccessful: func(err error) bool {
			// A missing business is an answer, not a store fault
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			a.logger.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("Circuit breaker state changed")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), int(to))
		},
	})
	metrics.RecordBreakerTransition(breakerName, "init", gobreaker.StateClosed.String(), int(gobreaker.StateClosed))

	if cfg.CacheEnabled && cfg.CacheTTL > 0 {
		a.cache = cache.New[*Record](cfg.CacheSize, cfg.CacheTTL)
		a.sweep = &rate.Sometimes{Interval: cfg.CacheTTL}
	}
	return a
}

// BreakerState reports the store breaker state for health output.
func (a *Aggregator) BreakerState() string {
	return a.breaker.State().String()
}

// Lookup returns the dashboard record for businessID. Unknown ids yield
// ErrNotFound; store failures and an open breaker yield ErrUnavailable.
func (a *Aggregator) Lookup(ctx context.Context, businessID string) (*Record, error) {
	if a.cache != nil {
		a.sweep.Do(a.sweepCache)
		if rec, ok := a.cache.Get(businessID); ok {
			metrics.RecordDashboardCache(true)
			return rec, nil
		}
		metrics.RecordDashboardCache(false)
	}

	rec, err := a.breaker.Execute(func() (*Record, error) {
		return a.lookup(ctx, businessID)
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		return nil, err
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		a.logger.Error().Err(err).Str("business_id", businessID).Msg("Dashboard lookup failed")
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if a.cache != nil {
		a.cache.Add(businessID, rec)
	}
	return rec, nil
}

// sweepCache drops expired records so ids looked up once do not pin memory
// until eviction.
func (a *Aggregator) sweepCache() {
	if n := a.cache.CleanupExpired(); n > 0 {
		a.logger.Debug().Int("removed", n).Msg("Expired dashboard cache entries")
	}
}

func (a *Aggregator) lookup(ctx context.Context, businessID string) (*Record, error) {
	if a.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.QueryTimeout)
		defer cancel()
	}

	summary, err := a.store.GetBusinessSummary(ctx, businessID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, businessID)
	}
	if err != nil {
		return nil, fmt.Errorf("get business summary: %w", err)
	}

	archetypes, err := a.store.GetCustomerArchetypes(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("get customer archetypes: %w", err)
	}
	return Merge(summary, archetypes), nil
}
