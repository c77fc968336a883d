// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package cluster

import (
	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes features to zero mean and unit population variance.
// A constant feature keeps scale 1 so it maps to 0 instead of NaN.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// FitScaler learns per-column mean and standard deviation from rows.
func FitScaler(rows [][]float64) *Scaler {
	if len(rows) == 0 {
		return &Scaler{}
	}
	dim := len(rows[0])
	s := &Scaler{Mean: make([]float64, dim), Scale: make([]float64, dim)}
	col := make([]float64, len(rows))
	for j := 0; j < dim; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		s.Mean[j] = mean
		if std == 0 {
			std = 1
		}
		s.Scale[j] = std
	}
	return s
}

// Transform returns standardized copies of rows.
func (s *Scaler) Transform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		z := make([]float64, len(r))
		for j, v := range r {
			z[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = z
	}
	return out
}
