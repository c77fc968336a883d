// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package precompute

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tomtom215/reviewscope/internal/config"
	"github.com/tomtom215/reviewscope/internal/database"
	"github.com/tomtom215/reviewscope/internal/logging"
	"github.com/tomtom215/reviewscope/internal/sentiment"
	"github.com/tomtom215/reviewscope/internal/textproc"
)

// JobNLP is the extractor's job name.
const JobNLP = "nlp"

// ExtractorStore is the slice of the store the extractor reads and writes.
type ExtractorStore interface {
	ListBusinessIDs(ctx context.Context, limit int) ([]string, error)
	ReviewsForBusiness(ctx context.Context, businessID string) ([]database.ReviewText, error)
	UpsertBusinessNLP(ctx context.Context, rec database.BusinessNLP) error
}

// Extractor computes the sentiment row of every business.
type Extractor struct {
	store    ExtractorStore
	analyzer sentiment.Analyzer
	cfg      config.ExtractorConfig
	logger   zerolog.Logger
}

// NewExtractor creates an extractor.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewExtractor(store ExtractorStore, analyzer sentiment.Analyzer, cfg config.ExtractorConfig, logger zerolog.Logger) *Extractor {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.TopTerms <= 0 {
		cfg.TopTerms = 5
	}
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = 1000
	}
	return &Extractor{
		store:    store,
		analyzer: analyzer,
		cfg:      cfg,
		logger:   logger.With().Str("job", JobNLP).Logger(),
	}
}

// Name implements Job.
func (e *Extractor) Name() string { return JobNLP }

// ComputeBusinessNLP derives one business's sentiment row from its reviews.
// Reviews without stored text score as "" but are left out of keyword
// extraction. A business without reviews gets 0 and empty lists.
func ComputeBusinessNLP(businessID string, reviews []database.ReviewText, analyzer sentiment.Analyzer, maxFeatures, topTerms int) database.BusinessNLP {
	rec := database.BusinessNLP{
		BusinessID:       businessID,
		PositiveKeywords: []string{},
		NegativeKeywords: []string{},
	}
	if len(reviews) == 0 {
		return rec
	}

	texts := make([]string, len(reviews))
	var positive, negative []string
	for i, r := range reviews {
		texts[i] = r.Text
		if !r.HasText {
			continue
		}
		switch r.Stars {
		case 4, 5:
			positive = append(positive, r.Text)
		case 1, 2:
			negative = append(negative, r.Text)
		}
	}

	rec.PositivityScore = sentiment.Mean(analyzer, texts)
	rec.PositiveKeywords = textproc.TopKeywords(positive, maxFeatures, topTerms)
	rec.NegativeKeywords = textproc.TopKeywords(negative, maxFeatures, topTerms)
	return rec
}

// score runs ComputeBusinessNLP, turning a panic into a unit error.
func (e *Extractor) score(id string, reviews []database.ReviewText) (rec database.BusinessNLP, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = database.BusinessNLP{BusinessID: id}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return ComputeBusinessNLP(id, reviews, e.analyzer, e.cfg.MaxFeatures, e.cfg.TopTerms), nil
}

type extractOutcome struct {
	rec database.BusinessNLP
	err error
}

// Run processes every business. Reads and scoring run on a bounded worker
// pool; all writes go through a single writer goroutine.
func (e *Extractor) Run(ctx context.Context) (*JobSummary, error) {
	runID := logging.GenerateRunID()
	ctx = logging.ContextWithRunID(ctx, runID)
	logger := logging.CtxWith(ctx, e.logger)
	summary := NewJobSummary(JobNLP, runID)

	ids, err := e.store.ListBusinessIDs(ctx, e.cfg.Limit)
	if err != nil {
		err = fmt.Errorf("list businesses: %w", err)
		summary.Finish(err)
		return summary, err
	}
	logger.Info().Int("businesses", len(ids)).Int("workers", e.cfg.Workers).Msg("Starting sentiment and keyword extraction")

	outcomes := make(chan extractOutcome, e.cfg.Workers)
	writerDone := make(chan struct{})
	var processed atomic.Int64
	progress := rate.Sometimes{Interval: e.cfg.ProgressInterval}

	go func() {
		defer close(writerDone)
		for o := range outcomes {
			err := o.err
			if err == nil {
				err = e.store.UpsertBusinessNLP(ctx, o.rec)
			}
			if err != nil {
				logger.Warn().Err(err).Str("business_id", o.rec.BusinessID).Msg("Business failed, continuing")
				summary.Record(UnitResult{Unit: o.rec.BusinessID, Status: StatusError, Err: err})
			} else {
				summary.Record(UnitResult{Unit: o.rec.BusinessID, Status: StatusOK})
			}
			n := processed.Add(1)
			progress.Do(func() {
				logger.Info().Int64("done", n).Int("total", len(ids)).Msg("Extraction progress")
			})
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			o := extractOutcome{rec: database.BusinessNLP{BusinessID: id}}
			reviews, err := e.store.ReviewsForBusiness(gctx, id)
			if err != nil {
				o.err = fmt.Errorf("read reviews: %w", err)
			} else {
				o.rec, o.err = e.score(id, reviews)
			}
			select {
			case outcomes <- o:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	close(outcomes)
	<-writerDone

	summary.Finish(err)
	if err != nil {
		logger.Error().Err(err).Object("summary", summary).Msg("Extraction aborted")
		return summary, fmt.Errorf("extract sentiment: %w", err)
	}
	logger.Info().Object("summary", summary).Msg("Extraction complete")
	return summary, nil
}
