// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

/*
Package config provides centralized configuration management for Reviewscope.

Configuration is layered with Koanf v2: built-in defaults, then an optional YAML
file, then environment variables. The result is validated before it is returned.

# Configuration Sources

  - Defaults from defaultConfig()
  - YAML file found via CONFIG_PATH or DefaultConfigPaths
  - Environment variables listed in envMappings

# Environment Variables

Database:
  - DATABASE_DRIVER: duckdb or sqlite (default: duckdb)
  - DATABASE_PATH / DUCKDB_PATH: store file (default: yelp.db)
  - DUCKDB_MAX_MEMORY, DUCKDB_THREADS, SQLITE_BUSY_TIMEOUT

HTTP Server:
  - HTTP_HOST (default: 0.0.0.0), HTTP_PORT (default: 8000), HTTP_TIMEOUT
  - STATIC_DIR: dashboard frontend directory (default: frontend, "" disables)

Batch jobs:
  - EXTRACTOR_WORKERS, EXTRACTOR_TOP_TERMS, EXTRACTOR_MAX_FEATURES, EXTRACTOR_LIMIT
  - CLUSTER_K (default: 5), CLUSTER_SEED (default: 42), CLUSTER_N_INIT, CLUSTER_LIMIT
  - MODEL_PATH, CLASSIFIER_MIN_ROWS (default: 1000), CLASSIFIER_MAX_FEATURES
  - JOBS_ENABLED, JOBS_INTERVAL, JOBS_RUN_ON_STARTUP, JOBS_NAMES

Logging:
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json or console (default: json)

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal().Err(err).Msg("Failed to load config")
	}
	db, err := database.New(&cfg.Database)

Slice values (CORS_ORIGINS, JOBS_NAMES) are accepted as comma-separated strings.
*/
package config
