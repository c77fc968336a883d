// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ctxKey values double as the log field names.
type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	runIDKey     ctxKey = "run_id"
)

// GenerateRequestID returns a random UUID.
func GenerateRequestID() string {
	return uuid.NewString()
}

// GenerateRunID returns 8 hex characters, enough to tell job runs apart.
func GenerateRunID() string {
	return uuid.NewString()[:8]
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns "" outside an HTTP request.
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext returns "" outside a job run.
func RunIDFromContext(ctx context.Context) string {
	return stringValue(ctx, runIDKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// Ctx returns the global logger carrying whichever of request_id and run_id
// ctx holds.
//
//	logging.Ctx(r.Context()).Warn().Msg("Dashboard breaker open")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := CtxWith(ctx, Logger())
	return &l
}

// CtxWith is Ctx for a component logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func CtxWith(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	lc := logger.With()
	for _, key := range []ctxKey{requestIDKey, runIDKey} {
		if v := stringValue(ctx, key); v != "" {
			lc = lc.Str(string(key), v)
		}
	}
	return lc.Logger()
}
