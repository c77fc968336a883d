// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reviewscope/internal/config"
	"github.com/tomtom215/reviewscope/internal/database"
	"github.com/tomtom215/reviewscope/internal/logging"
	"github.com/tomtom215/reviewscope/internal/metrics"
	"github.com/tomtom215/reviewscope/internal/precompute"
	"github.com/tomtom215/reviewscope/internal/textproc"
)

// JobTrain is the trainer's job name.
const JobTrain = "train"

var (
	// ErrInsufficientData is returned when there are too few labeled reviews.
	ErrInsufficientData = errors.New("insufficient labeled reviews")

	// ErrTrainingRunning is returned when a training run is already active.
	ErrTrainingRunning = errors.New("training already in progress")
)

// LabeledStore supplies training examples.
type LabeledStore interface {
	LoadLabeledReviews(ctx context.Context) ([]database.LabeledReview, error)
}

// TrainResult is the outcome of one training run.
type TrainResult struct {
	Metadata *ArtifactMetadata
	Report   *Report
}

// Trainer fits the star classifier and writes its artifact.
type Trainer struct {
	store  LabeledStore
	cfg    config.ClassifierConfig
	logger zerolog.Logger
	mu     sync.Mutex
}

// NewTrainer creates a trainer writing to cfg.ModelPath.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewTrainer(store LabeledStore, cfg config.ClassifierConfig, logger zerolog.Logger) *Trainer {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}
	if cfg.C <= 0 {
		cfg.C = 1
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = 200
	}
	return &Trainer{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("job", JobTrain).Logger(),
	}
}

// stratifiedSplit returns train and test indices. Each class contributes
// round(n_c * testFraction) examples to the test set, chosen by a seeded
// shuffle; the resulting index lists are in input order.
func stratifiedSplit(labels []int, testFraction float64, seed int64) (train, test []int) {
	byClass := make(map[int][]int)
	var classes []int
	for i, l := range labels {
		if _, ok := byClass[l]; !ok {
			classes = append(classes, l)
		}
		byClass[l] = append(byClass[l], i)
	}

	rng := rand.New(rand.NewPCG(uint64(seed), 0)) //nolint:gosec // deterministic split is required
	isTest := make([]bool, len(labels))
	slices.Sort(classes)
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		n := int(math.Round(float64(len(idx)) * testFraction))
		if n == 0 && len(idx) > 1 {
			n = 1
		}
		for _, i := range idx[:n] {
			isTest[i] = true
		}
	}
	for i, t := range isTest {
		if t {
			test = append(test, i)
		} else {
			train = append(train, i)
		}
	}
	return train, test
}

// Train runs one full training pass. Only one pass runs at a time per
// Trainer; a concurrent call returns ErrTrainingRunning.
func (t *Trainer) Train(ctx context.Context) (*TrainResult, error) {
	if !t.mu.TryLock() {
		return nil, ErrTrainingRunning
	}
	defer t.mu.Unlock()

	if logging.RunIDFromContext(ctx) == "" {
		ctx = logging.ContextWithRunID(ctx, logging.GenerateRunID())
	}
	logger := logging.CtxWith(ctx, t.logger)
	start := time.Now()

	reviews, err := t.store.LoadLabeledReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("load labeled reviews: %w", err)
	}
	if len(reviews) < t.cfg.MinRows {
		return nil, fmt.Errorf("%w: %d rows, need %d", ErrInsufficientData, len(reviews), t.cfg.MinRows)
	}

	labels := make([]int, len(reviews))
	for i, r := range reviews {
		labels[i] = r.Stars
	}
	trainIdx, testIdx := stratifiedSplit(labels, t.cfg.TestFraction, t.cfg.Seed)
	logger.Info().Int("rows", len(reviews)).Int("train", len(trainIdx)).Int("test", len(testIdx)).Msg("Training star classifier")

	trainTexts := make([]string, len(trainIdx))
	trainY := make([]float64, len(trainIdx))
	for k, i := range trainIdx {
		trainTexts[k] = reviews[i].Text
		if reviews[i].Stars == PositiveStars {
			trainY[k] = 1
		}
	}

	vec := textproc.NewVectorizer(t.cfg.MaxFeatures)
	rows, err := vec.FitTransform(trainTexts)
	if err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := fitLogistic(rows, trainY, vec.NumFeatures(), t.cfg.C, t.cfg.MaxIter, t.cfg.Workers)
	if err != nil {
		if res == nil {
			return nil, fmt.Errorf("fit logistic regression: %w", err)
		}
		logger.Warn().Err(err).Msg("Solver stopped early, keeping last iterate")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dim := vec.NumFeatures()
	model := &Model{
		Vectorizer: vec,
		Weights:    append([]float64(nil), res.X[:dim]...),
		Bias:       res.X[dim],
		Classes:    [2]int{NegativeStars, PositiveStars},
	}

	truth := make([]int, len(testIdx))
	predicted := make([]int, len(testIdx))
	for k, i := range testIdx {
		truth[k] = reviews[i].Stars
		predicted[k], _ = model.Predict(reviews[i].Text)
	}
	report := NewReport([]int{NegativeStars, PositiveStars}, truth, predicted)

	meta, err := SaveArtifact(t.cfg.ModelPath, model, ArtifactMetadata{
		TrainedAt:          time.Now().UTC(),
		TrainRows:          len(trainIdx),
		TestRows:           len(testIdx),
		Features:           dim,
		Iterations:         res.Stats.MajorIterations,
		Accuracy:           report.Accuracy,
		TrainingDurationMS: time.Since(start).Milliseconds(),
	})
	if err != nil {
		return nil, fmt.Errorf("save artifact: %w", err)
	}
	if err := SaveReport(t.cfg.ModelPath, *meta, report); err != nil {
		logger.Warn().Err(err).Msg("Failed to write classification report")
	}
	metrics.ClassifierTrainingAccuracy.Set(report.Accuracy)

	logger.Info().
		Float64("accuracy", report.Accuracy).
		Int("features", dim).
		Int("iterations", res.Stats.MajorIterations).
		Str("status", res.Status.String()).
		Str("path", t.cfg.ModelPath).
		Msg("Star classifier saved")
	return &TrainResult{Metadata: meta, Report: report}, nil
}

// Name implements precompute.Job.
func (t *Trainer) Name() string { return JobTrain }

// Run implements precompute.Job. The whole training pass is one unit.
func (t *Trainer) Run(ctx context.Context) (*precompute.JobSummary, error) {
	runID := logging.GenerateRunID()
	summary := precompute.NewJobSummary(JobTrain, runID)

	_, err := t.Train(logging.ContextWithRunID(ctx, runID))
	if err != nil {
		summary.Finish(err)
		return summary, err
	}
	summary.Record(precompute.UnitResult{Unit: t.cfg.ModelPath, Status: precompute.StatusOK})
	summary.Finish(nil)
	return summary, nil
}
