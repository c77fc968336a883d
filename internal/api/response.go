// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reviewscope/internal/logging"
)

// APIResponse wraps every /api/v1 body. Exactly one of Data and Error is set.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError carries a machine-readable Code next to the human message.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type APIMeta struct {
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms,omitempty"`
}

// LegacyError is the error body of the legacy routes.
type LegacyError struct {
	Detail string `json:"detail"`
}

const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeDatabaseError      = "DATABASE_ERROR"
)

// The legacy frontend matches on these strings.
const (
	detailRestaurantNotFound = "Restaurant not found"
	detailInternalError      = "Internal Server Error"
)

// ResponseWriter writes enveloped responses for one request, stamping the
// request ID and elapsed time into the metadata.
type ResponseWriter struct {
	w     http.ResponseWriter
	r     *http.Request
	start time.Time
}

func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r, start: time.Now()}
}

func (rw *ResponseWriter) meta() *APIMeta {
	return &APIMeta{
		RequestID:  logging.RequestIDFromContext(rw.r.Context()),
		Timestamp:  time.Now().UTC(),
		DurationMs: time.Since(rw.start).Milliseconds(),
	}
}

// Success writes 200 with data.
func (rw *ResponseWriter) Success(data any) {
	writeJSON(rw.w, http.StatusOK, APIResponse{Success: true, Data: data, Meta: rw.meta()})
}

func (rw *ResponseWriter) fail(status int, code, message string, details any) {
	m := rw.meta()
	writeJSON(rw.w, status, APIResponse{
		Error: &APIError{Code: code, Message: message, Details: details, RequestID: m.RequestID},
		Meta:  m,
	})
}

// Error writes an error envelope with an arbitrary status and code.
func (rw *ResponseWriter) Error(status int, code, message string) {
	rw.fail(status, code, message, nil)
}

func (rw *ResponseWriter) BadRequest(message string) {
	rw.fail(http.StatusBadRequest, ErrCodeBadRequest, message, nil)
}

func (rw *ResponseWriter) NotFound(message string) {
	rw.fail(http.StatusNotFound, ErrCodeNotFound, message, nil)
}

func (rw *ResponseWriter) ServiceUnavailable(message string) {
	rw.fail(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message, nil)
}

// ValidationError writes 400 with the per-field failures in details.
func (rw *ResponseWriter) ValidationError(message string, details any) {
	rw.fail(http.StatusBadRequest, ErrCodeValidationFailed, message, details)
}

// DatabaseError logs err and writes a generic 500; store errors never reach
// the client.
func (rw *ResponseWriter) DatabaseError(err error) {
	logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Database error")
	rw.fail(http.StatusInternalServerError, ErrCodeDatabaseError, "A database error occurred", nil)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeLegacy writes an unenveloped body for the legacy routes.
func writeLegacy(w http.ResponseWriter, status int, body any) {
	writeJSON(w, status, body)
}

func writeLegacyError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, LegacyError{Detail: detail})
}
