// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package config

import (
	"fmt"
	"strings"
)

// Lower bounds that configuration may not go below.
const (
	MinClusterInits = 10
	MinTrainingRows = 1000
)

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// ValidJobNames lists the precompute jobs that can be scheduled.
var ValidJobNames = map[string]bool{
	"nlp":      true,
	"clusters": true,
	"train":    true,
}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateRateLimits(); err != nil {
		return err
	}

	if err := c.validateExtractor(); err != nil {
		return err
	}

	if err := c.validateCluster(); err != nil {
		return err
	}

	if err := c.validateClassifier(); err != nil {
		return err
	}

	if err := c.validateJobs(); err != nil {
		return err
	}

	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("INGEST_BATCH_SIZE must be at least 1")
	}

	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB, DriverSQLite:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be one of: duckdb, sqlite")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	return nil
}

// validateRateLimits validates rate limiting bounds
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 || c.Security.RateLimitReqs > 100000 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between 1 and 100000")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateExtractor() error {
	if c.Extractor.Workers < 0 {
		return fmt.Errorf("EXTRACTOR_WORKERS must be >= 0")
	}
	if c.Extractor.TopTerms < 1 {
		return fmt.Errorf("EXTRACTOR_TOP_TERMS must be >= 1")
	}
	if c.Extractor.MaxFeatures < 1 {
		return fmt.Errorf("EXTRACTOR_MAX_FEATURES must be >= 1")
	}
	if c.Extractor.Limit < 0 {
		return fmt.Errorf("EXTRACTOR_LIMIT must be >= 0")
	}
	return nil
}

func (c *Config) validateCluster() error {
	if c.Cluster.K < 1 {
		return fmt.Errorf("CLUSTER_K must be >= 1")
	}
	if c.Cluster.NInit < MinClusterInits {
		return fmt.Errorf("CLUSTER_N_INIT must be >= %d", MinClusterInits)
	}
	if c.Cluster.MaxIter < 1 {
		return fmt.Errorf("CLUSTER_MAX_ITER must be >= 1")
	}
	if c.Cluster.Tolerance < 0 {
		return fmt.Errorf("CLUSTER_TOLERANCE must be >= 0")
	}
	if c.Cluster.Limit < 0 {
		return fmt.Errorf("CLUSTER_LIMIT must be >= 0")
	}
	return nil
}

func (c *Config) validateClassifier() error {
	if strings.TrimSpace(c.Classifier.ModelPath) == "" {
		return fmt.Errorf("MODEL_PATH is required")
	}
	if c.Classifier.TestFraction <= 0 || c.Classifier.TestFraction >= 1 {
		return fmt.Errorf("CLASSIFIER_TEST_FRACTION must be between 0 and 1 (exclusive)")
	}
	if c.Classifier.MaxFeatures < 1 {
		return fmt.Errorf("CLASSIFIER_MAX_FEATURES must be >= 1")
	}
	if c.Classifier.MaxIter < 1 {
		return fmt.Errorf("CLASSIFIER_MAX_ITER must be >= 1")
	}
	if c.Classifier.C <= 0 {
		return fmt.Errorf("CLASSIFIER_C must be positive")
	}
	if c.Classifier.MinRows < MinTrainingRows {
		return fmt.Errorf("CLASSIFIER_MIN_ROWS must be >= %d", MinTrainingRows)
	}
	return nil
}

// validateJobs only checks the schedule when it is enabled.
func (c *Config) validateJobs() error {
	if !c.Jobs.Enabled {
		return nil
	}
	if c.Jobs.Interval <= 0 {
		return fmt.Errorf("JOBS_INTERVAL must be positive when JOBS_ENABLED=true")
	}
	if len(c.Jobs.Jobs) == 0 {
		return fmt.Errorf("JOBS_NAMES must list at least one job when JOBS_ENABLED=true")
	}
	for _, name := range c.Jobs.Jobs {
		if !ValidJobNames[name] {
			return fmt.Errorf("JOBS_NAMES contains unknown job %q (valid: nlp, clusters, train)", name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if err := c.validateLogLevel(); err != nil {
		return err
	}
	return c.validateLogFormat()
}

// validateLogLevel validates the log level configuration
func (c *Config) validateLogLevel() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	return nil
}

// validateLogFormat validates the log format configuration
func (c *Config) validateLogFormat() error {
	if c.Logging.Format == "" {
		return nil
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}
