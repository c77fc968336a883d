// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package precompute

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reviewscope/internal/metrics"
)

// ErrMissingInput is returned when a job's input store or file does not exist.
var ErrMissingInput = errors.New("missing input")

// Status is the outcome of one unit of work.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// UnitResult is the outcome for one business or one batch of users.
type UnitResult struct {
	Unit   string
	Status Status
	Err    error
}

// maxKeptFailures bounds how many failed units a summary retains verbatim.
const maxKeptFailures = 100

// JobSummary aggregates the unit results of one job run.
type JobSummary struct {
	Job      string
	RunID    string
	Started  time.Time
	Duration time.Duration

	OK       int
	Skipped  int
	Failed   int
	Failures []UnitResult
}

// NewJobSummary starts a summary for the named job.
func NewJobSummary(job, runID string) *JobSummary {
	return &JobSummary{Job: job, RunID: runID, Started: time.Now()}
}

// Record adds one unit result.
func (s *JobSummary) Record(r UnitResult) {
	switch r.Status {
	case StatusOK:
		s.OK++
	case StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
		if len(s.Failures) < maxKeptFailures {
			s.Failures = append(s.Failures, r)
		}
	}
}

// RecordOK adds n successful units at once.
func (s *JobSummary) RecordOK(n int) {
	s.OK += n
}

// Total returns the number of recorded units.
func (s *JobSummary) Total() int {
	return s.OK + s.Skipped + s.Failed
}

// Outcome is "success" when no unit failed, "partial" otherwise.
func (s *JobSummary) Outcome() string {
	if s.Failed > 0 {
		return "partial"
	}
	return "success"
}

// Finish stamps the duration and publishes the unit counts. runErr is the
// job-level error, if any.
func (s *JobSummary) Finish(runErr error) {
	s.Duration = time.Since(s.Started)
	outcome := s.Outcome()
	if runErr != nil {
		outcome = "failed"
	}
	metrics.RecordJobRun(s.Job, outcome, s.Duration)
	metrics.RecordJobUnits(s.Job, string(StatusOK), s.OK)
	metrics.RecordJobUnits(s.Job, string(StatusSkipped), s.Skipped)
	metrics.RecordJobUnits(s.Job, string(StatusError), s.Failed)
}

// MarshalZerologObject lets a summary be logged with Object("summary", s).
func (s *JobSummary) MarshalZerologObject(e *zerolog.Event) {
	e.Str("job", s.Job).
		Str("run_id", s.RunID).
		Int("ok", s.OK).
		Int("skipped", s.Skipped).
		Int("failed", s.Failed).
		Dur("duration", s.Duration)
}

// String renders a one-line summary for CLI output.
func (s *JobSummary) String() string {
	return fmt.Sprintf("%s: %d ok, %d skipped, %d failed in %s",
		s.Job, s.OK, s.Skipped, s.Failed, s.Duration.Round(time.Millisecond))
}
