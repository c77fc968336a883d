// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package api

import (
	"context"
	"net/http"
	"time"
)

const readyTimeout = 2 * time.Second

// HealthStatus is the body of GET /api/v1/health.
type HealthStatus struct {
	Status            string  `json:"status" example:"healthy"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	ModelState        string  `json:"model_state" example:"MODEL_LOADED"`
	BreakerState      string  `json:"breaker_state" example:"closed"`
	Uptime            float64 `json:"uptime_seconds"`
}

func (h *Handler) dbConnected(ctx context.Context) bool {
	if h.db == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	return h.db.Ping(ctx) == nil
}

// Health handles health check requests
//
// @Summary Service health
// @Description Store connectivity, classifier state and dashboard breaker state. A missing model is not unhealthy; the heuristic serves.
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse{data=HealthStatus}
// @Router /api/v1/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	connected := h.dbConnected(r.Context())
	status := "healthy"
	if !connected {
		status = "degraded"
	}

	NewResponseWriter(w, r).Success(HealthStatus{
		Status:            status,
		Version:           h.version,
		DatabaseConnected: connected,
		ModelState:        string(h.classifier.State()),
		BreakerState:      h.dashboard.BreakerState(),
		Uptime:            time.Since(h.startTime).Seconds(),
	})
}

// HealthLive handles liveness check requests (Kubernetes-style)
// Returns 200 OK if the process is alive, regardless of dependencies
//
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse "Service is alive"
// @Router /api/v1/health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]any{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness check requests (Kubernetes-style)
// Returns 200 OK only if the store answers a ping.
//
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse "Service is ready"
// @Failure 503 {object} APIResponse "Service is not ready"
// @Router /api/v1/health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if !h.dbConnected(r.Context()) {
		rw.ServiceUnavailable("Database not reachable")
		return
	}
	rw.Success(map[string]any{"ready": true})
}
