// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	// Registers the OpenAPI document served at /swagger/doc.json
	_ "github.com/tomtom215/reviewscope/docs"
	"github.com/tomtom215/reviewscope/internal/middleware"
)

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	staticDir     string
}

// NewRouter creates a router. A nil middleware factory uses defaults.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetStaticDir enables the dashboard frontend: index.html at / and the
// directory's files under /static/.
func (router *Router) SetStaticDir(dir string) *Router {
	router.staticDir = dir
	return router
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight
	r.Use(chiMiddleware(middleware.PrometheusMetrics))
	r.Use(chimiddleware.Compress(5, "application/json"))

	// ========================
	// Legacy Routes
	// ========================
	// Paths and bodies match the original dashboard frontend
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Get("/restaurant/{business_id}", router.handler.Restaurant)
	})
	r.With(router.chiMiddleware.RateLimitClassify()).Post("/predict_star", router.handler.PredictStar)

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// ========================
	// Versioned API
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())
			r.Get("/businesses/{business_id}/dashboard", router.handler.BusinessDashboard)
			r.Get("/model", router.handler.Model)
		})
		r.With(router.chiMiddleware.RateLimitClassify()).Post("/classify", router.handler.Classify)
	})

	// ========================
	// Dashboard Frontend
	// ========================
	if router.staticDir != "" {
		r.Get("/", router.serveIndex)
		r.Get("/static/*", router.serveStatic)
	}

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	return r
}
