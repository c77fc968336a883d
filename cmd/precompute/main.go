// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

// Command precompute loads the review dumps and runs the offline jobs whose
// output the server reads.
//
//	precompute migrate
//	precompute ingest   [--dir DIR] [--business F] [--user F] [--review F] [--batch N]
//	precompute nlp      [--limit N] [--workers N]
//	precompute clusters [--k K] [--limit N]
//	precompute train    [--model PATH] [--min-rows N]
//	precompute all      nlp, clusters and train in that order
//
// Every subcommand also takes --db PATH and --driver duckdb|sqlite. Other
// settings come from the same config.yaml and environment as the server.
//
// nlp, clusters, train and all need an existing store; only migrate and
// ingest create one.
//
// Exit status: 0 on success (including runs where single units failed),
// 1 on a fatal error, 2 on bad usage, 3 when a job had too little data to
// produce output.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/reviewscope/internal/classifier"
	"github.com/tomtom215/reviewscope/internal/config"
	"github.com/tomtom215/reviewscope/internal/database"
	"github.com/tomtom215/reviewscope/internal/ingest"
	"github.com/tomtom215/reviewscope/internal/logging"
	"github.com/tomtom215/reviewscope/internal/precompute"
	"github.com/tomtom215/reviewscope/internal/sentiment"
)

const (
	exitOK           = 0
	exitFatal        = 1
	exitUsage        = 2
	exitInsufficient = 3
)

const cmdMigrate = "migrate"

const usage = `usage: precompute <command> [flags]

commands:
  migrate    create or upgrade the schema
  ingest     load the business, user and review JSON-lines dumps
  nlp        sentiment and keywords per business
  clusters   k-means customer archetypes
  train      train the star classifier artifact
  all        nlp, clusters, train

run "precompute <command> -h" for the flags of one command
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return exitFatal
	}

	cmd, jobs, fs := parseCommand(args[0], cfg, stderr)
	if fs == nil {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return exitUsage
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "configuration: %v\n", err)
		return exitUsage
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		App:       "precompute",
	})

	// Only migrate and ingest may create the store.
	if cmd != cmdMigrate && cmd != ingest.JobIngest {
		if err := requireStore(cfg.Database.Path); err != nil {
			logging.Error().Err(err).Str("command", cmd).Msg("Store unavailable")
			return exitCode(err)
		}
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Error().Err(err).Str("path", cfg.Database.Path).Msg("Failed to open store")
		return exitFatal
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if cmd == cmdMigrate {
		return reportSchema(ctx, db, stdout)
	}

	runner := precompute.NewRunner(
		ingest.NewImporter(db, cfg.Ingest, logging.WithComponent(ingest.JobIngest)),
		precompute.NewExtractor(db, sentiment.NewVader(), cfg.Extractor, logging.WithComponent(precompute.JobNLP)),
		precompute.NewClusterer(db, cfg.Cluster, logging.WithComponent(precompute.JobClusters)),
		classifier.NewTrainer(db, cfg.Classifier, logging.WithComponent(classifier.JobTrain)),
	)
	summaries, err := runner.Run(ctx, jobs...)
	for _, s := range summaries {
		fmt.Fprintln(stdout, s)
		for _, f := range s.Failures {
			fmt.Fprintf(stdout, "  failed %s: %v\n", f.Unit, f.Err)
		}
	}
	return exitCode(err)
}

// parseCommand maps a subcommand to its jobs and a flag set bound to cfg.
// A nil flag set means the command is unknown.
func parseCommand(name string, cfg *config.Config, stderr io.Writer) (string, []string, *flag.FlagSet) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Database.Path, "db", cfg.Database.Path, "store file")
	fs.StringVar(&cfg.Database.Driver, "driver", cfg.Database.Driver, "store driver: duckdb or sqlite")

	var jobs []string
	switch name {
	case cmdMigrate:
	case ingest.JobIngest:
		fs.StringVar(&cfg.Ingest.Dir, "dir", cfg.Ingest.Dir, "directory holding the dumps")
		fs.StringVar(&cfg.Ingest.BusinessFile, "business", cfg.Ingest.BusinessFile, "business dump")
		fs.StringVar(&cfg.Ingest.UserFile, "user", cfg.Ingest.UserFile, "user dump")
		fs.StringVar(&cfg.Ingest.ReviewFile, "review", cfg.Ingest.ReviewFile, "review dump")
		fs.IntVar(&cfg.Ingest.BatchSize, "batch", cfg.Ingest.BatchSize, "rows per transaction")
		jobs = []string{ingest.JobIngest}
	case precompute.JobNLP:
		fs.IntVar(&cfg.Extractor.Limit, "limit", cfg.Extractor.Limit, "process only the first N businesses (0 = all)")
		fs.IntVar(&cfg.Extractor.Workers, "workers", cfg.Extractor.Workers, "scoring workers (0 = CPUs)")
		jobs = []string{precompute.JobNLP}
	case precompute.JobClusters:
		fs.IntVar(&cfg.Cluster.K, "k", cfg.Cluster.K, "number of archetypes")
		fs.IntVar(&cfg.Cluster.Limit, "limit", cfg.Cluster.Limit, "cluster only the first N users (0 = all)")
		jobs = []string{precompute.JobClusters}
	case classifier.JobTrain:
		fs.StringVar(&cfg.Classifier.ModelPath, "model", cfg.Classifier.ModelPath, "artifact output path")
		fs.IntVar(&cfg.Classifier.MinRows, "min-rows", cfg.Classifier.MinRows, "minimum labeled reviews")
		jobs = []string{classifier.JobTrain}
	case "all":
		jobs = []string{precompute.JobNLP, precompute.JobClusters, classifier.JobTrain}
	default:
		return name, nil, nil
	}
	return name, jobs, fs
}

func requireStore(path string) error {
	st, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: store %s does not exist, run migrate and ingest first", precompute.ErrMissingInput, path)
	case err != nil:
		return fmt.Errorf("stat store %s: %w", path, err)
	case st.IsDir():
		return fmt.Errorf("%w: store %s is a directory", precompute.ErrMissingInput, path)
	}
	return nil
}

func reportSchema(ctx context.Context, db *database.DB, stdout io.Writer) int {
	history, err := db.GetMigrationHistory(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to read migration history")
		return exitFatal
	}
	for _, m := range history {
		fmt.Fprintf(stdout, "%3d  %-28s %s\n", m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
	}
	return exitOK
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, precompute.ErrInsufficientData), errors.Is(err, classifier.ErrInsufficientData):
		logging.Warn().Err(err).Msg("Not enough data, nothing written")
		return exitInsufficient
	case errors.Is(err, precompute.ErrMissingInput):
		logging.Error().Err(err).Msg("Input missing")
		return exitFatal
	default:
		logging.Error().Err(err).Msg("Job failed")
		return exitFatal
	}
}
