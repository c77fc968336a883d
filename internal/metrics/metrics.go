// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

// Package metrics exposes Prometheus collectors for the store, the HTTP API,
// the precompute jobs and the classifier.
package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Duration of store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_query_errors_total",
			Help: "Total number of store query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Precompute job metrics
	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "precompute_job_runs_total",
			Help: "Total number of precompute job runs by outcome",
		},
		[]string{"job", "outcome"}, // outcome: success, skipped, failed
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "precompute_job_duration_seconds",
			Help:    "Duration of precompute job runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600, 7200},
		},
		[]string{"job"},
	)

	JobUnitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "precompute_job_units_total",
			Help: "Per-unit results of precompute jobs (one unit per business or user)",
		},
		[]string{"job", "status"},
	)

	JobLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "precompute_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run per job",
		},
		[]string{"job"},
	)

	// Classifier metrics
	ClassifierModelLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "classifier_model_loaded",
			Help: "1 when the star classifier artifact was loaded at startup, 0 when serving the heuristic",
		},
	)

	ClassifierPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_predictions_total",
			Help: "Star predictions by path and predicted rating",
		},
		[]string{"path", "stars"}, // path: model, heuristic
	)

	ClassifierTrainingAccuracy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "classifier_training_accuracy",
			Help: "Held-out accuracy of the most recent training run",
		},
	)

	// Dashboard metrics
	DashboardCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_cache_hits_total",
			Help: "Dashboard response cache hits",
		},
	)

	DashboardCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dashboard_cache_misses_total",
			Help: "Dashboard response cache misses",
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)
)

// errorType buckets an error into a low-cardinality label value.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table, errorType(err)).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordJobRun records the outcome and duration of a precompute job run.
func RecordJobRun(job, outcome string, duration time.Duration) {
	JobRunsTotal.WithLabelValues(job, outcome).Inc()
	JobDuration.WithLabelValues(job).Observe(duration.Seconds())
	if outcome == "success" {
		JobLastSuccess.WithLabelValues(job).Set(float64(time.Now().Unix()))
	}
}

// RecordJobUnits adds per-unit result counts for a job.
func RecordJobUnits(job, status string, n int) {
	if n <= 0 {
		return
	}
	JobUnitsTotal.WithLabelValues(job, status).Add(float64(n))
}

// SetModelLoaded publishes the classifier state chosen at startup.
func SetModelLoaded(loaded bool) {
	if loaded {
		ClassifierModelLoaded.Set(1)
	} else {
		ClassifierModelLoaded.Set(0)
	}
}

// RecordPrediction counts one star prediction.
func RecordPrediction(path string, stars int) {
	ClassifierPredictions.WithLabelValues(path, strconv.Itoa(stars)).Inc()
}

// RecordDashboardCache records a dashboard cache lookup.
func RecordDashboardCache(hit bool) {
	if hit {
		DashboardCacheHits.Inc()
	} else {
		DashboardCacheMisses.Inc()
	}
}

// RecordBreakerTransition publishes a circuit breaker state change.
// state is 0 closed, 1 half-open, 2 open.
func RecordBreakerTransition(name, from, to string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}
