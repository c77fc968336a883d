// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

// Package main is the Reviewscope API server.
//
// The server reads the tables written by cmd/precompute and serves the
// dashboard and star classifier over HTTP. Startup order:
//
//  1. Configuration (Koanf v2: defaults, config.yaml, environment)
//  2. Logging
//  3. Store (DuckDB or SQLite, migrations applied)
//  4. Classifier artifact (loaded once; missing or corrupt means heuristic)
//  5. Dashboard aggregator (cache and circuit breaker)
//  6. Supervisor tree with the HTTP server and, if enabled, the job scheduler
//
// SIGINT and SIGTERM cancel the tree; the HTTP server drains in-flight
// requests for server.shutdown_timeout.
//
// @title Reviewscope API
// @version 1.0
// @description Precomputed review analytics and star rating inference.
// @license.name AGPL-3.0-or-later
// @BasePath /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/reviewscope/docs"
	"github.com/tomtom215/reviewscope/internal/api"
	"github.com/tomtom215/reviewscope/internal/classifier"
	"github.com/tomtom215/reviewscope/internal/config"
	"github.com/tomtom215/reviewscope/internal/dashboard"
	"github.com/tomtom215/reviewscope/internal/database"
	"github.com/tomtom215/reviewscope/internal/logging"
	"github.com/tomtom215/reviewscope/internal/precompute"
	"github.com/tomtom215/reviewscope/internal/sentiment"
	"github.com/tomtom215/reviewscope/internal/supervisor"
	"github.com/tomtom215/reviewscope/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		App:       "server",
	})
	logging.Info().
		Str("version", version).
		Str("driver", cfg.Database.Driver).
		Str("db_path", cfg.Database.Path).
		Str("model_path", cfg.Classifier.ModelPath).
		Msg("Starting Reviewscope server")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Server stopped")
}

func run(cfg *config.Config) error {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	clf := classifier.NewService(cfg.Classifier.ModelPath, logging.WithComponent("classifier"))
	if clf.State() == classifier.StateLoaded {
		meta := clf.Metadata()
		logging.Info().Str("trained_at", meta.TrainedAt.Format(time.RFC3339)).Float64("accuracy", meta.Accuracy).Msg("Star classifier loaded")
	} else {
		logging.Warn().Err(clf.LoadError()).Msg("Star classifier unavailable, serving keyword heuristic")
	}

	dash := dashboard.NewAggregator(db, cfg.Dashboard, logging.WithComponent("dashboard"))

	handler := api.NewHandler(db, dash, clf)
	handler.SetVersion(version)
	docs.SwaggerInfo.Version = version

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (RATE_LIMIT_DISABLED=true)")
	}
	router := api.NewRouter(handler, api.NewChiMiddlewareFromSecurity(cfg.Security)).SetStaticDir(cfg.Server.StaticDir)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout + 5*time.Second,
	})
	if err != nil {
		return err
	}
	tree.AddAPIService(services.NewHTTPServerService(server, server.Addr, cfg.Server.ShutdownTimeout, logging.WithComponent("http")))

	if cfg.Jobs.Enabled {
		runner := newJobRunner(cfg, db)
		tree.AddJobService(services.NewJobService(runner, services.JobServiceConfig{
			Jobs:         cfg.Jobs.Jobs,
			Interval:     cfg.Jobs.Interval,
			RunOnStartup: cfg.Jobs.RunOnStartup,
		}, logging.WithComponent("jobs")))
		logging.Info().Strs("jobs", cfg.Jobs.Jobs).Dur("interval", cfg.Jobs.Interval).Msg("In-process job scheduling enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newJobRunner registers the jobs the scheduler may run. A model trained
// here is picked up on the next restart.
func newJobRunner(cfg *config.Config, db *database.DB) *precompute.Runner {
	return precompute.NewRunner(
		precompute.NewExtractor(db, sentiment.NewVader(), cfg.Extractor, logging.WithComponent(precompute.JobNLP)),
		precompute.NewClusterer(db, cfg.Cluster, logging.WithComponent(precompute.JobClusters)),
		classifier.NewTrainer(db, cfg.Classifier, logging.WithComponent(classifier.JobTrain)),
	)
}
