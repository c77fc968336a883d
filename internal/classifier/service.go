// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package classifier

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reviewscope/internal/metrics"
	"github.com/tomtom215/reviewscope/internal/textproc"
)

// State is the service lifecycle state, fixed at construction.
type State string

const (
	StateLoaded      State = "MODEL_LOADED"
	StateUnavailable State = "MODEL_UNAVAILABLE"
)

// Prediction paths.
const (
	PathModel     = "model"
	PathHeuristic = "heuristic"
)

// Prediction is one classification result.
type Prediction struct {
	Stars      int     `json:"predicted_star"`
	Confidence float64 `json:"confidence"`
	Path       string  `json:"path"`
}

var (
	positiveWords = []string{"great", "excellent", "amazing", "love", "good", "tasty", "friendly", "fresh", "fast", "perfect"}
	negativeWords = []string{"bad", "terrible", "awful", "hate", "slow", "cold", "rude", "dirty", "overpriced", "disappointing"}

	lexicon = textproc.NewMatcher(positiveWords, negativeWords)
)

// Heuristic scores text by counting lexicon words. Five stars when positive
// hits outnumber negative ones, one star otherwise. Confidence grows by 0.1
// per hit (at most five hits count) from 0.5 and is capped at 0.95.
func Heuristic(text string) Prediction {
	counts := lexicon.Count(text)
	pos, neg := counts[0], counts[1]

	stars := NegativeStars
	if pos-neg >= 1 {
		stars = PositiveStars
	}
	confidence := math.Min(0.95, 0.5+0.1*float64(min(pos+neg, 5)))
	return Prediction{Stars: stars, Confidence: confidence, Path: PathHeuristic}
}

// Service answers star predictions. It is immutable after construction and
// safe for concurrent use.
type Service struct {
	model   *Model
	meta    *ArtifactMetadata
	state   State
	loadErr error
	logger  zerolog.Logger
}

// NewService loads the artifact at path. Any load failure leaves the service
// in StateUnavailable, serving the heuristic.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewService(path string, logger zerolog.Logger) *Service {
	logger = logger.With().Str("component", "classifier").Logger()
	model, meta, err := LoadArtifact(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Star classifier unavailable, using keyword heuristic")
		s := &Service{state: StateUnavailable, loadErr: err, logger: logger}
		metrics.SetModelLoaded(false)
		return s
	}
	logger.Info().
		Str("path", path).
		Int("features", meta.Features).
		Float64("accuracy", meta.Accuracy).
		Time("trained_at", meta.TrainedAt).
		Msg("Star classifier loaded")
	return NewServiceWithModel(model, meta, logger)
}

// NewServiceWithModel wraps an already loaded model. A nil model yields an
// unavailable service.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewServiceWithModel(model *Model, meta *ArtifactMetadata, logger zerolog.Logger) *Service {
	if model == nil {
		metrics.SetModelLoaded(false)
		return &Service{state: StateUnavailable, loadErr: ErrArtifactNotFound, logger: logger}
	}
	metrics.SetModelLoaded(true)
	return &Service{model: model, meta: meta, state: StateLoaded, logger: logger}
}

// State returns the lifecycle state.
func (s *Service) State() State { return s.state }

// Metadata returns the loaded artifact's metadata, or nil.
func (s *Service) Metadata() *ArtifactMetadata { return s.meta }

// LoadError returns why the model is unavailable, or nil.
func (s *Service) LoadError() error { return s.loadErr }

// Predict classifies text. It never fails: without a model, or if the model
// panics, the heuristic answers.
func (s *Service) Predict(text string) Prediction {
	p := s.predict(text)
	metrics.RecordPrediction(p.Path, p.Stars)
	return p
}

func (s *Service) predict(text string) Prediction {
	if s.state != StateLoaded {
		return Heuristic(text)
	}
	p, err := s.modelPredict(text)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Model prediction failed, using keyword heuristic")
		return Heuristic(text)
	}
	return p
}

func (s *Service) modelPredict(text string) (p Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panic: %v", r)
		}
	}()
	stars, confidence := s.model.Predict(text)
	if math.IsNaN(confidence) {
		return Prediction{}, fmt.Errorf("model returned NaN confidence")
	}
	return Prediction{Stars: stars, Confidence: confidence, Path: PathModel}, nil
}
