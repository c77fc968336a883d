// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package api

import (
	"net/http"

	"github.com/tomtom215/reviewscope/internal/validation"
)

// legacyPrediction is the unenveloped /predict_star body.
type legacyPrediction struct {
	PredictedStar int     `json:"predicted_star" example:"5"`
	Confidence    float64 `json:"confidence" example:"0.8"`
}

// PredictStar serves the legacy classification route.
//
// @Summary Legacy star prediction
// @Description Predicts 1 or 5 stars for a review text. Falls back to a keyword heuristic when no model is loaded.
// @Tags Legacy
// @Accept json
// @Produce json
// @Param request body ClassifyRequest true "Review text"
// @Success 200 {object} legacyPrediction
// @Failure 422 {object} LegacyError "Malformed body"
// @Router /predict_star [post]
func (h *Handler) PredictStar(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeLegacyError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		writeLegacyError(w, http.StatusUnprocessableEntity, verr.Error())
		return
	}

	p := h.classifier.Predict(*req.Text)
	writeLegacy(w, http.StatusOK, legacyPrediction{PredictedStar: p.Stars, Confidence: p.Confidence})
}

// Classify serves the enveloped classification route.
//
// @Summary Classify review text
// @Description Predicts 1 or 5 stars and reports whether the trained model or the keyword heuristic answered
// @Tags Classifier
// @Accept json
// @Produce json
// @Param request body ClassifyRequest true "Review text"
// @Success 200 {object} APIResponse{data=classifier.Prediction}
// @Failure 400 {object} APIResponse "Malformed body"
// @Router /api/v1/classify [post]
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ClassifyRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	rw.Success(h.classifier.Predict(*req.Text))
}

// Model reports the classifier state and artifact metadata.
//
// @Summary Classifier model state
// @Tags Classifier
// @Produce json
// @Success 200 {object} APIResponse{data=ModelInfo}
// @Router /api/v1/model [get]
func (h *Handler) Model(w http.ResponseWriter, r *http.Request) {
	info := ModelInfo{State: string(h.classifier.State())}
	if meta := h.classifier.Metadata(); meta != nil {
		info.Artifact = meta
	}
	NewResponseWriter(w, r).Success(info)
}
