// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reviewscope/internal/precompute"
)

// JobRunner runs named precompute jobs. Satisfied by *precompute.Runner.
type JobRunner interface {
	Run(ctx context.Context, names ...string) ([]*precompute.JobSummary, error)
}

// JobServiceConfig controls scheduling.
type JobServiceConfig struct {
	Jobs         []string
	Interval     time.Duration
	RunOnStartup bool
	// RunTimeout bounds one scheduled run. Default: 6h
	RunTimeout time.Duration
}

// JobService reruns the configured precompute jobs on a fixed interval.
// Job failures are logged and never returned: a bad run must not make the
// supervisor restart the service in a tight loop.
type JobService struct {
	runner JobRunner
	config JobServiceConfig
	logger zerolog.Logger
}

// NewJobService creates a scheduler. A non-positive interval means 24h.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewJobService(runner JobRunner, cfg JobServiceConfig, logger zerolog.Logger) *JobService {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 6 * time.Hour
	}
	return &JobService{
		runner: runner,
		config: cfg,
		logger: logger.With().Str("service", "precompute-jobs").Logger(),
	}
}

// Serve implements suture.Service.
func (s *JobService) Serve(ctx context.Context) error {
	s.logger.Info().
		Strs("jobs", s.config.Jobs).
		Bool("run_on_startup", s.config.RunOnStartup).
		Dur("interval", s.config.Interval).
		Msg("Job scheduler starting")

	if s.config.RunOnStartup {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Job scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *JobService) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.RunTimeout)
	defer cancel()

	summaries, err := s.runner.Run(runCtx, s.config.Jobs...)
	for _, sum := range summaries {
		s.logger.Info().Object("summary", sum).Msg("Scheduled job finished")
	}
	switch {
	case err == nil:
	case errors.Is(err, precompute.ErrJobRunning):
		s.logger.Warn().Msg("Previous run still in progress, skipping")
	case ctx.Err() != nil:
		// shutting down
	default:
		s.logger.Error().Err(err).Msg("Scheduled job failed")
	}
}

// String names the service in supervisor events.
func (s *JobService) String() string {
	return "precompute-jobs"
}
