// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

// Package ingest loads the JSON-lines review dumps (one object per line) into
// the store. Files are read in order business, user, review; each batch is
// written in its own transaction.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/reviewscope/internal/config"
	"github.com/tomtom215/reviewscope/internal/database"
	"github.com/tomtom215/reviewscope/internal/logging"
	"github.com/tomtom215/reviewscope/internal/precompute"
)

// JobIngest is the job name used in summaries and metrics.
const JobIngest = "ingest"

const progressInterval = 10 * time.Second

var errMissingID = errors.New("record has no id")

// Store receives decoded batches.
type Store interface {
	InsertBusinesses(ctx context.Context, batch []database.Business) error
	InsertUsers(ctx context.Context, batch []database.User) error
	InsertReviews(ctx context.Context, batch []database.Review) error
}

// Importer streams the dumps named in config.IngestConfig into a Store.
type Importer struct {
	store  Store
	cfg    config.IngestConfig
	logger zerolog.Logger
}

// NewImporter creates an importer. A non-positive batch size falls back to 1000.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewImporter(store Store, cfg config.IngestConfig, logger zerolog.Logger) *Importer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1000
	}
	return &Importer{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "ingest").Logger(),
	}
}

// Name implements precompute.Job.
func (i *Importer) Name() string { return JobIngest }

// Paths returns the resolved business, user and review file paths.
func (i *Importer) Paths() (business, user, review string) {
	return i.resolve(i.cfg.BusinessFile), i.resolve(i.cfg.UserFile), i.resolve(i.cfg.ReviewFile)
}

func (i *Importer) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) || i.cfg.Dir == "" {
		return name
	}
	return filepath.Join(i.cfg.Dir, name)
}

// Run loads all three files. Every file is checked before the first write,
// so a missing file fails with precompute.ErrMissingInput and leaves the
// store untouched. Malformed lines are recorded as failed units and skipped.
func (i *Importer) Run(ctx context.Context) (*precompute.JobSummary, error) {
	runID := logging.GenerateRunID()
	ctx = logging.ContextWithRunID(ctx, runID)
	logger := logging.CtxWith(ctx, i.logger)
	summary := precompute.NewJobSummary(JobIngest, runID)

	business, user, review := i.Paths()
	for _, p := range []string{business, user, review} {
		if err := checkFile(p); err != nil {
			summary.Finish(err)
			return summary, err
		}
	}

	steps := []struct {
		path string
		load func(context.Context, string, *precompute.JobSummary, *zerolog.Logger) error
	}{
		{business, i.loadBusinesses},
		{user, i.loadUsers},
		{review, i.loadReviews},
	}
	for _, step := range steps {
		if err := step.load(ctx, step.path, summary, &logger); err != nil {
			summary.Finish(err)
			return summary, err
		}
	}

	summary.Finish(nil)
	logger.Info().Object("summary", summary).Msg("Ingest complete")
	return summary, nil
}

func checkFile(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", precompute.ErrMissingInput, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		return fmt.Errorf("%w: %s is a directory", precompute.ErrMissingInput, path)
	}
	return nil
}

type rawBusiness struct {
	BusinessID  string  `json:"business_id"`
	Name        string  `json:"name"`
	Stars       float64 `json:"stars"`
	ReviewCount int64   `json:"review_count"`
	City        string  `json:"city"`
}

// Review stars are integers in most dumps and x.0 floats in some.
type rawReview struct {
	ReviewID   string  `json:"review_id"`
	BusinessID string  `json:"business_id"`
	UserID     string  `json:"user_id"`
	Stars      float64 `json:"stars"`
	Text       string  `json:"text"`
}

func (i *Importer) loadBusinesses(ctx context.Context, path string, s *precompute.JobSummary, logger *zerolog.Logger) error {
	return load(ctx, path, i.cfg.BatchSize, s, logger,
		func(line []byte) (database.Business, error) {
			var r rawBusiness
			if err := json.Unmarshal(line, &r); err != nil {
				return database.Business{}, err
			}
			if r.BusinessID == "" {
				return database.Business{}, errMissingID
			}
			return database.Business(r), nil
		},
		i.store.InsertBusinesses)
}

func (i *Importer) loadUsers(ctx context.Context, path string, s *precompute.JobSummary, logger *zerolog.Logger) error {
	return load(ctx, path, i.cfg.BatchSize, s, logger,
		func(line []byte) (database.User, error) {
			var u database.User
			if err := json.Unmarshal(line, &u); err != nil {
				return database.User{}, err
			}
			if u.UserID == "" {
				return database.User{}, errMissingID
			}
			return u, nil
		},
		i.store.InsertUsers)
}

func (i *Importer) loadReviews(ctx context.Context, path string, s *precompute.JobSummary, logger *zerolog.Logger) error {
	return load(ctx, path, i.cfg.BatchSize, s, logger,
		func(line []byte) (database.Review, error) {
			var r rawReview
			if err := json.Unmarshal(line, &r); err != nil {
				return database.Review{}, err
			}
			if r.ReviewID == "" || r.BusinessID == "" {
				return database.Review{}, errMissingID
			}
			return database.Review{
				ReviewID:   r.ReviewID,
				BusinessID: r.BusinessID,
				UserID:     r.UserID,
				Stars:      int(math.Round(r.Stars)),
				Text:       r.Text,
			}, nil
		},
		i.store.InsertReviews)
}

// load streams path line by line, decodes each line and flushes full batches
// through insert. A decode failure costs one unit; an insert failure aborts.
func load[T any](
	ctx context.Context,
	path string,
	batchSize int,
	summary *precompute.JobSummary,
	logger *zerolog.Logger,
	decode func([]byte) (T, error),
	insert func(context.Context, []T) error,
) (err error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	name := filepath.Base(path)
	batch := make([]T, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := insert(ctx, batch); err != nil {
			return fmt.Errorf("insert batch from %s: %w", name, err)
		}
		summary.RecordOK(len(batch))
		batch = batch[:0]
		return nil
	}

	progress := rate.Sometimes{Interval: progressInterval}
	rd := bufio.NewReaderSize(f, 1<<20)
	lineNo := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, readErr := rd.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read %s: %w", name, readErr)
		}
		if len(line) > 0 {
			lineNo++
			if line = bytes.TrimSpace(line); len(line) > 0 {
				rec, decErr := decode(line)
				if decErr != nil {
					summary.Record(precompute.UnitResult{
						Unit:   fmt.Sprintf("%s:%d", name, lineNo),
						Status: precompute.StatusError,
						Err:    decErr,
					})
				} else {
					batch = append(batch, rec)
					if len(batch) >= batchSize {
						if err := flush(); err != nil {
							return err
						}
					}
				}
			}
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		progress.Do(func() {
			logger.Info().Str("file", name).Int("lines", lineNo).Msg("Ingest progress")
		})
	}
	if err := flush(); err != nil {
		return err
	}
	logger.Info().Str("file", name).Int("lines", lineNo).Msg("File loaded")
	return nil
}
