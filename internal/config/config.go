// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml)
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Infrastructure:
//     - Database: store driver (DuckDB or SQLite), path, memory
//     - Server: HTTP server configuration
//     - Security: rate limiting and CORS
//
//  2. Batch jobs:
//     - Extractor: sentiment and keyword precomputation
//     - Cluster: user k-means clustering
//     - Classifier: star classifier training and artifact location
//     - Jobs: in-process scheduling of the batch jobs
//
//  3. Serving:
//     - Dashboard: response cache and circuit breaker
//
//  4. Observability:
//     - Logging: Log levels and output formats
type Config struct {
	Database   DatabaseConfig   `koanf:"database"`
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Logging    LoggingConfig    `koanf:"logging"`
	Extractor  ExtractorConfig  `koanf:"extractor"`
	Cluster    ClusterConfig    `koanf:"cluster"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Dashboard  DashboardConfig  `koanf:"dashboard"`
	Jobs       JobsConfig       `koanf:"jobs"`
	Ingest     IngestConfig     `koanf:"ingest"`
}

// Supported store drivers.
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite"
)

// DatabaseConfig holds store settings
type DatabaseConfig struct {
	Driver      string        `koanf:"driver"` // duckdb or sqlite
	Path        string        `koanf:"path"`
	MaxMemory   string        `koanf:"max_memory"`   // DuckDB only
	Threads     int           `koanf:"threads"`      // Number of DuckDB threads (0 = use NumCPU)
	BusyTimeout time.Duration `koanf:"busy_timeout"` // SQLite only
	SkipIndexes bool          `koanf:"skip_indexes"` // Skip index creation (fast test setup)
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// StaticDir holds the dashboard frontend (index.html plus assets). Empty
	// disables / and /static/.
	StaticDir string `koanf:"static_dir"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds request-level protections for the HTTP surface.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// ExtractorConfig holds sentiment and keyword precomputation settings.
type ExtractorConfig struct {
	Workers          int           `koanf:"workers"` // 0 = use runtime.NumCPU()
	TopTerms         int           `koanf:"top_terms"`
	MaxFeatures      int           `koanf:"max_features"`
	Limit            int           `koanf:"limit"` // 0 = all businesses
	ProgressInterval time.Duration `koanf:"progress_interval"`
}

// ClusterConfig holds user clustering settings.
type ClusterConfig struct {
	K         int     `koanf:"k"`
	Seed      int64   `koanf:"seed"`
	NInit     int     `koanf:"n_init"`
	MaxIter   int     `koanf:"max_iter"`
	Tolerance float64 `koanf:"tolerance"`
	Limit     int     `koanf:"limit"` // 0 = all users
}

// ClassifierConfig holds star classifier training and inference settings.
type ClassifierConfig struct {
	ModelPath    string  `koanf:"model_path"`
	MinRows      int     `koanf:"min_rows"`
	TestFraction float64 `koanf:"test_fraction"`
	MaxFeatures  int     `koanf:"max_features"`
	MaxIter      int     `koanf:"max_iter"`
	C            float64 `koanf:"c"`
	Seed         int64   `koanf:"seed"`
	Workers      int     `koanf:"workers"` // 0 = use runtime.NumCPU()
}

// DashboardConfig holds read-path settings.
type DashboardConfig struct {
	CacheEnabled   bool          `koanf:"cache_enabled"`
	CacheTTL       time.Duration `koanf:"cache_ttl"`
	CacheSize      int           `koanf:"cache_size"`
	QueryTimeout   time.Duration `koanf:"query_timeout"`
	BreakerTimeout time.Duration `koanf:"breaker_timeout"`
	BreakerFailMin uint32        `koanf:"breaker_failures"`
}

// JobsConfig controls in-process scheduling of the precompute jobs.
// Disabled by default: the jobs are normally run from cmd/precompute.
type JobsConfig struct {
	Enabled      bool          `koanf:"enabled"`
	Interval     time.Duration `koanf:"interval"`
	RunOnStartup bool          `koanf:"run_on_startup"`
	Jobs         []string      `koanf:"names"`
}

// IngestConfig locates the JSON-lines dumps loaded by the ingest command.
// Relative file names resolve against Dir.
type IngestConfig struct {
	Dir          string `koanf:"dir"`
	BusinessFile string `koanf:"business_file"`
	ReviewFile   string `koanf:"review_file"`
	UserFile     string `koanf:"user_file"`
	BatchSize    int    `koanf:"batch_size"`
}
