// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package precompute

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reviewscope/internal/cluster"
	"github.com/tomtom215/reviewscope/internal/config"
	"github.com/tomtom215/reviewscope/internal/database"
	"github.com/tomtom215/reviewscope/internal/logging"
)

// JobClusters is the clusterer's job name.
const JobClusters = "clusters"

// ErrInsufficientData is returned when there are fewer users than clusters.
// It matches cluster.ErrInsufficientData with errors.Is.
var ErrInsufficientData = cluster.ErrInsufficientData

// ClusterStore is the slice of the store the clusterer reads and writes.
type ClusterStore interface {
	LoadUserFeatures(ctx context.Context, limit int) ([]database.UserFeatures, error)
	ReplaceUserClusters(ctx context.Context, assignments []database.UserCluster) error
}

// Clusterer assigns every user to a behavioral archetype.
type Clusterer struct {
	store  ClusterStore
	cfg    config.ClusterConfig
	logger zerolog.Logger
}

// NewClusterer creates a clusterer.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewClusterer(store ClusterStore, cfg config.ClusterConfig, logger zerolog.Logger) *Clusterer {
	return &Clusterer{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("job", JobClusters).Logger(),
	}
}

// Name implements Job.
func (c *Clusterer) Name() string { return JobClusters }

// Run loads the user features, clusters them and swaps in the new labels.
// An empty user table is a no-op: the summary reports one skipped unit and
// the existing labels are left untouched.
func (c *Clusterer) Run(ctx context.Context) (*JobSummary, error) {
	runID := logging.GenerateRunID()
	ctx = logging.ContextWithRunID(ctx, runID)
	logger := logging.CtxWith(ctx, c.logger)
	summary := NewJobSummary(JobClusters, runID)

	users, err := c.store.LoadUserFeatures(ctx, c.cfg.Limit)
	if err != nil {
		err = fmt.Errorf("load user features: %w", err)
		summary.Finish(err)
		return summary, err
	}
	if len(users) == 0 {
		logger.Warn().Msg("No users found, skipping clustering")
		summary.Record(UnitResult{Unit: "users", Status: StatusSkipped})
		summary.Finish(nil)
		return summary, nil
	}

	rows := make([][]float64, len(users))
	for i := range users {
		rows[i] = users[i].Features[:]
	}
	scaled := cluster.FitScaler(rows).Transform(rows)

	logger.Info().Int("users", len(users)).Int("k", c.cfg.K).Msg("Running k-means")
	res, err := cluster.KMeans(ctx, scaled, cluster.Config{
		K:         c.cfg.K,
		Seed:      c.cfg.Seed,
		NInit:     c.cfg.NInit,
		MaxIter:   c.cfg.MaxIter,
		Tolerance: c.cfg.Tolerance,
	})
	if err != nil {
		err = fmt.Errorf("cluster %d users: %w", len(users), err)
		summary.Finish(err)
		return summary, err
	}

	assignments := make([]database.UserCluster, len(users))
	sizes := make([]int, c.cfg.K)
	for i, u := range users {
		assignments[i] = database.UserCluster{UserID: u.UserID, Label: res.Labels[i]}
		sizes[res.Labels[i]]++
	}

	if err := c.store.ReplaceUserClusters(ctx, assignments); err != nil {
		err = fmt.Errorf("publish cluster labels: %w", err)
		summary.Finish(err)
		return summary, err
	}

	summary.RecordOK(len(users))
	summary.Finish(nil)
	logger.Info().
		Ints("cluster_sizes", sizes).
		Float64("inertia", res.Inertia).
		Int("best_init", res.BestInit).
		Object("summary", summary).
		Msg("Clustering complete")
	return summary, nil
}
