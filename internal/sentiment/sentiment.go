// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

// Package sentiment scores review text with the VADER rule-based model.
package sentiment

import (
	"github.com/jonreiter/govader"
)

// Analyzer returns a compound polarity score in [-1, 1] for a text.
type Analyzer interface {
	Compound(text string) float64
}

// Vader is the VADER-backed Analyzer. The lexicon is loaded once; scoring
// does not mutate it, so one Vader may be shared by many goroutines.
type Vader struct {
	sia *govader.SentimentIntensityAnalyzer
}

// NewVader loads the VADER lexicon.
func NewVader() *Vader {
	return &Vader{sia: govader.NewSentimentIntensityAnalyzer()}
}

// Compound returns the normalized compound score of text. Empty text scores 0.
func (v *Vader) Compound(text string) float64 {
	if text == "" {
		return 0
	}
	return v.sia.PolarityScores(text).Compound
}

// Mean returns the average compound score over texts, or 0 for none.
func Mean(a Analyzer, texts []string) float64 {
	if len(texts) == 0 {
		return 0
	}
	var sum float64
	for _, t := range texts {
		sum += a.Compound(t)
	}
	return sum / float64(len(texts))
}
