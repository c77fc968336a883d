// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package classifier

import (
	"errors"
	"fmt"
	"math"

	"github.com/tomtom215/reviewscope/internal/textproc"
)

// Star labels the classifier distinguishes.
const (
	NegativeStars = 1
	PositiveStars = 5
)

// ErrModelShape is returned when weights and vocabulary disagree.
var ErrModelShape = errors.New("model weights do not match vocabulary")

// Model is a fitted vectorizer plus logistic regression weights.
// Classes[1] is the class predicted when the positive-class probability
// exceeds one half.
type Model struct {
	Vectorizer *textproc.Vectorizer
	Weights    []float64
	Bias       float64
	Classes    [2]int
}

// Prepare validates a decoded model and rebuilds its lookup state.
func (m *Model) Prepare() error {
	if m.Vectorizer == nil {
		return fmt.Errorf("%w: no vectorizer", ErrModelShape)
	}
	if len(m.Weights) != m.Vectorizer.NumFeatures() {
		return fmt.Errorf("%w: %d weights for %d terms", ErrModelShape, len(m.Weights), m.Vectorizer.NumFeatures())
	}
	m.Vectorizer.Prepare()
	return nil
}

// sigmoid is the numerically stable logistic function.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// Probability returns the probability of Classes[1] for text.
func (m *Model) Probability(text string) float64 {
	row := m.Vectorizer.TransformOne(text)
	return sigmoid(row.Dot(m.Weights) + m.Bias)
}

// Predict returns the predicted class and its probability.
func (m *Model) Predict(text string) (stars int, confidence float64) {
	p := m.Probability(text)
	if p > 0.5 {
		return m.Classes[1], p
	}
	return m.Classes[0], 1 - p
}
