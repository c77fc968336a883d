// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig tunes restart behavior. Zero fields take DefaultTreeConfig.
type TreeConfig struct {
	// FailureThreshold failures within the decay window put a layer into backoff.
	FailureThreshold float64
	// FailureDecay in seconds.
	FailureDecay   float64
	FailureBackoff time.Duration
	// ShutdownTimeout bounds how long a layer waits for its services to stop.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig mirrors suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) spec() suture.Spec {
	return suture.Spec{
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// SupervisorTree is the server's service hierarchy:
//
//	reviewscope
//	├── jobs-layer  (scheduled precompute jobs, if enabled)
//	└── api-layer   (HTTP server)
//
// A crashing job backs off inside its own layer; the API keeps serving.
type SupervisorTree struct {
	root   *suture.Supervisor
	jobs   *suture.Supervisor
	api    *suture.Supervisor
	config TreeConfig
}

// NewSupervisorTree builds the tree. Supervisor events go to logger.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	config = config.withDefaults()

	rootSpec := config.spec()
	rootSpec.EventHook = (&sutureslog.Handler{Logger: logger}).MustHook()

	t := &SupervisorTree{
		root:   suture.New("reviewscope", rootSpec),
		jobs:   suture.New("jobs-layer", config.spec()),
		api:    suture.New("api-layer", config.spec()),
		config: config,
	}
	// Layers inherit the root's event hook when added.
	t.root.Add(t.jobs)
	t.root.Add(t.api)
	return t, nil
}

func (t *SupervisorTree) Root() *suture.Supervisor { return t.root }

// AddJobService adds svc to the jobs layer.
func (t *SupervisorTree) AddJobService(svc suture.Service) suture.ServiceToken {
	return t.jobs.Add(svc)
}

// AddAPIService adds svc to the API layer.
func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve blocks until ctx is canceled.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that missed the shutdown timeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
