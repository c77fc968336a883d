// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

/*
Package api provides the HTTP layer for Reviewscope.

Two route families share one chi router:

Legacy routes, kept byte-compatible for the original dashboard frontend:

  - GET  /restaurant/{business_id}  raw dashboard record with legacy keys;
    errors are {"detail": "..."} bodies
  - POST /predict_star              raw {predicted_star, confidence}

Versioned routes under /api/v1, wrapped in the APIResponse envelope:

  - GET  /api/v1/businesses/{business_id}/dashboard
  - POST /api/v1/classify
  - GET  /api/v1/model
  - GET  /api/v1/health, /api/v1/health/live, /api/v1/health/ready

Plus /metrics (Prometheus) and /swagger/ (OpenAPI UI).

Error mapping:

  - dashboard.ErrNotFound      404
  - dashboard.ErrUnavailable   500, detail logged server-side only
  - validation failures        400 VALIDATION_FAILED
  - classification             never fails; the heuristic answers instead

Usage:

	handler := api.NewHandler(db, aggregator, classifierService)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromSecurity(cfg.Security))
	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
*/
package api
