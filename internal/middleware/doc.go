// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

/*
Package middleware provides HTTP middleware for request tracing and
Prometheus instrumentation.

Both middlewares use the http.HandlerFunc form; the api package adapts them
to chi with chiMiddleware:

	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chiMiddleware(middleware.PrometheusMetrics))

RequestID reuses a well-formed upstream X-Request-ID or generates a UUID,
echoes it in the response and stores it in the request context for the
logging package. PrometheusMetrics records request counts and latency
labeled by the matched chi route pattern, so path parameters such as
business ids never become label values.
*/
package middleware
