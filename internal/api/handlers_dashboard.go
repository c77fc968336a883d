// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/reviewscope/internal/dashboard"
	"github.com/tomtom215/reviewscope/internal/logging"
	"github.com/tomtom215/reviewscope/internal/validation"
)

// Restaurant serves the legacy dashboard record.
//
// @Summary Legacy restaurant dashboard
// @Description Precomputed sentiment, keywords and customer archetypes for one business, with the legacy duplicate keys. Errors use a {"detail": ...} body.
// @Tags Legacy
// @Produce json
// @Param business_id path string true "Business ID"
// @Success 200 {object} dashboard.LegacyRecord
// @Failure 404 {object} LegacyError "Restaurant not found"
// @Failure 500 {object} LegacyError "Internal Server Error"
// @Router /restaurant/{business_id} [get]
func (h *Handler) Restaurant(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "business_id")

	rec, err := h.dashboard.Lookup(r.Context(), businessID)
	switch {
	case errors.Is(err, dashboard.ErrNotFound):
		writeLegacyError(w, http.StatusNotFound, detailRestaurantNotFound)
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Str("business_id", sanitizeLogValue(businessID)).Msg("Restaurant lookup failed")
		writeLegacyError(w, http.StatusInternalServerError, detailInternalError)
	default:
		writeLegacy(w, http.StatusOK, rec.Legacy())
	}
}

// BusinessDashboard serves the enveloped dashboard record.
//
// @Summary Business dashboard
// @Description Precomputed sentiment, keywords and customer archetypes for one business
// @Tags Dashboard
// @Produce json
// @Param business_id path string true "Business ID"
// @Success 200 {object} APIResponse{data=dashboard.Record}
// @Failure 400 {object} APIResponse "Malformed business id"
// @Failure 404 {object} APIResponse "Business not found"
// @Failure 500 {object} APIResponse "Store failure"
// @Router /api/v1/businesses/{business_id}/dashboard [get]
func (h *Handler) BusinessDashboard(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := DashboardRequest{BusinessID: chi.URLParam(r, "business_id")}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	rec, err := h.dashboard.Lookup(r.Context(), req.BusinessID)
	switch {
	case errors.Is(err, dashboard.ErrNotFound):
		rw.NotFound("Business not found")
	case err != nil:
		rw.DatabaseError(err)
	default:
		rw.Success(rec)
	}
}
