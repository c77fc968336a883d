// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

// maxBodyBytes caps request bodies. It is the only bound on review text length.
const maxBodyBytes = 1 << 20

// ClassifyRequest is the body of POST /predict_star and POST /api/v1/classify.
// An empty text is valid and classified like any other.
type ClassifyRequest struct {
	Text *string `json:"text" validate:"required" example:"The tacos were great and the staff friendly"`
}

// DashboardRequest carries the path parameter of the dashboard route.
type DashboardRequest struct {
	BusinessID string `json:"business_id" validate:"required,business_id"`
}

// ModelInfo is the body of GET /api/v1/model.
type ModelInfo struct {
	State    string `json:"state" example:"MODEL_LOADED"`
	Artifact any    `json:"artifact,omitempty"`
}

var errEmptyBody = errors.New("request body is empty")

// decodeJSONBody decodes a single JSON object from r into dst.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
