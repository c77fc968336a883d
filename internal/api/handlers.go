// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package api

import (
	"context"
	"time"

	"github.com/tomtom215/reviewscope/internal/classifier"
	"github.com/tomtom215/reviewscope/internal/dashboard"
)

// Pinger reports store reachability for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DashboardLookup serves per-business dashboard records.
type DashboardLookup interface {
	Lookup(ctx context.Context, businessID string) (*dashboard.Record, error)
	BreakerState() string
}

// StarClassifier predicts star ratings for review text.
type StarClassifier interface {
	Predict(text string) classifier.Prediction
	State() classifier.State
	Metadata() *classifier.ArtifactMetadata
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	db         Pinger
	dashboard  DashboardLookup
	classifier StarClassifier
	startTime  time.Time
	version    string
}

// NewHandler creates the handler set.
func NewHandler(db Pinger, dash DashboardLookup, clf StarClassifier) *Handler {
	return &Handler{
		db:         db,
		dashboard:  dash,
		classifier: clf,
		startTime:  time.Now(),
		version:    "dev",
	}
}

// SetVersion sets the version reported by the health endpoint.
func (h *Handler) SetVersion(v string) {
	if v != "" {
		h.version = v
	}
}
