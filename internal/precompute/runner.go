// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package precompute

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrJobRunning is returned when a run is requested while another is active.
var ErrJobRunning = errors.New("a precompute job is already running")

// ErrUnknownJob is returned for a job name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is one named batch job.
type Job interface {
	Name() string
	Run(ctx context.Context) (*JobSummary, error)
}

// JobFunc adapts a function to the Job interface.
type JobFunc struct {
	JobName string
	Fn      func(ctx context.Context) (*JobSummary, error)
}

// Name implements Job.
func (f JobFunc) Name() string { return f.JobName }

// Run implements Job.
func (f JobFunc) Run(ctx context.Context) (*JobSummary, error) { return f.Fn(ctx) }

// Runner holds the registered jobs and guarantees at most one runs at a time.
// The job set is fixed at construction.
type Runner struct {
	jobs map[string]Job
	busy sync.Mutex
}

// NewRunner registers jobs by name.
func NewRunner(jobs ...Job) *Runner {
	r := &Runner{jobs: make(map[string]Job, len(jobs))}
	for _, j := range jobs {
		r.jobs[j.Name()] = j
	}
	return r
}

// Run executes the named jobs in order. It stops at the first job-level
// error and returns the summaries collected so far. Returns ErrJobRunning
// without running anything if another Run is in progress.
func (r *Runner) Run(ctx context.Context, names ...string) ([]*JobSummary, error) {
	if !r.busy.TryLock() {
		return nil, ErrJobRunning
	}
	defer r.busy.Unlock()

	jobs := make([]Job, 0, len(names))
	for _, name := range names {
		j, ok := r.jobs[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownJob, name)
		}
		jobs = append(jobs, j)
	}

	summaries := make([]*JobSummary, 0, len(jobs))
	for _, j := range jobs {
		s, err := j.Run(ctx)
		if s != nil {
			summaries = append(summaries, s)
		}
		if err != nil {
			return summaries, fmt.Errorf("job %s: %w", j.Name(), err)
		}
	}
	return summaries, nil
}
