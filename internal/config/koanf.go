// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are tried in order when CONFIG_PATH is unset or missing.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reviewscope/config.yaml",
	"/etc/reviewscope/config.yml",
}

const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig is the lowest configuration layer.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:      DriverDuckDB,
			Path:        "yelp.db",
			MaxMemory:   "2GB",
			Threads:     0, // 0 = use runtime.NumCPU()
			BusyTimeout: 5 * time.Second,
		},
		Server: ServerConfig{
			Port:            8000,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			StaticDir:       "frontend",
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Extractor: ExtractorConfig{
			Workers:          0,
			TopTerms:         5,
			MaxFeatures:      1000,
			ProgressInterval: 10 * time.Second,
		},
		Cluster: ClusterConfig{
			K:         5,
			Seed:      42,
			NInit:     10,
			MaxIter:   300,
			Tolerance: 1e-4,
		},
		Classifier: ClassifierConfig{
			ModelPath:    "star_classifier.model",
			MinRows:      1000,
			TestFraction: 0.2,
			MaxFeatures:  15000,
			MaxIter:      200,
			C:            1.0,
			Seed:         42,
		},
		Dashboard: DashboardConfig{
			CacheEnabled:   false,
			CacheTTL:       30 * time.Second,
			CacheSize:      10000,
			QueryTimeout:   10 * time.Second,
			BreakerTimeout: 30 * time.Second,
			BreakerFailMin: 5,
		},
		// Off by default: a full run pins every core for minutes.
		Jobs: JobsConfig{
			Enabled:      false,
			Interval:     24 * time.Hour,
			RunOnStartup: false,
			Jobs:         []string{"nlp", "clusters"},
		},
		Ingest: IngestConfig{
			Dir:          "data",
			BusinessFile: "yelp_academic_dataset_business.json",
			ReviewFile:   "yelp_academic_dataset_review.json",
			UserFile:     "yelp_academic_dataset_user.json",
			BatchSize:    1000,
		},
	}
}

// LoadWithKoanf layers configuration, later sources winning:
//
//	defaults (defaultConfig) < YAML file (findConfigFile) < mapped env vars
//
// and validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	for _, key := range sliceKeys {
		if err := splitCommaList(k, key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// findConfigFile returns $CONFIG_PATH if that file exists, else the first
// existing entry of DefaultConfigPaths, else "".
func findConfigFile() string {
	candidates := DefaultConfigPaths
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		candidates = append([]string{p}, candidates...)
	}
	for _, p := range candidates {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// sliceKeys arrive from the environment as "a, b,c".
var sliceKeys = []string{"security.cors_origins", "jobs.names"}

func splitCommaList(k *koanf.Koanf, key string) error {
	raw, ok := k.Get(key).(string)
	if !ok || raw == "" {
		return nil
	}
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return nil
	}
	if err := k.Set(key, items); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Database mappings
	"database_driver":       "database.driver",
	"database_path":         "database.path",
	"duckdb_path":           "database.path",
	"duckdb_max_memory":     "database.max_memory",
	"duckdb_threads":        "database.threads",
	"sqlite_busy_timeout":   "database.busy_timeout",
	"database_skip_indexes": "database.skip_indexes",

	// Server mappings
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"static_dir":            "server.static_dir",

	// Security mappings
	"rate_limit_requests": "security.rate_limit_requests",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Extractor mappings
	"extractor_workers":      "extractor.workers",
	"extractor_top_terms":    "extractor.top_terms",
	"extractor_max_features": "extractor.max_features",
	"extractor_limit":        "extractor.limit",

	// Cluster mappings
	"cluster_k":         "cluster.k",
	"cluster_seed":      "cluster.seed",
	"cluster_n_init":    "cluster.n_init",
	"cluster_max_iter":  "cluster.max_iter",
	"cluster_tolerance": "cluster.tolerance",
	"cluster_limit":     "cluster.limit",

	// Classifier mappings
	"model_path":               "classifier.model_path",
	"classifier_min_rows":      "classifier.min_rows",
	"classifier_test_fraction": "classifier.test_fraction",
	"classifier_max_features":  "classifier.max_features",
	"classifier_max_iter":      "classifier.max_iter",
	"classifier_c":             "classifier.c",
	"classifier_seed":          "classifier.seed",
	"classifier_workers":       "classifier.workers",

	// Dashboard mappings
	"dashboard_cache_enabled":   "dashboard.cache_enabled",
	"dashboard_cache_ttl":       "dashboard.cache_ttl",
	"dashboard_cache_size":      "dashboard.cache_size",
	"dashboard_query_timeout":   "dashboard.query_timeout",
	"dashboard_breaker_timeout": "dashboard.breaker_timeout",

	// Scheduled jobs mappings
	"jobs_enabled":        "jobs.enabled",
	"jobs_interval":       "jobs.interval",
	"jobs_run_on_startup": "jobs.run_on_startup",
	"jobs_names":          "jobs.names",

	// Ingest mappings
	"ingest_dir":           "ingest.dir",
	"ingest_business_file": "ingest.business_file",
	"ingest_review_file":   "ingest.review_file",
	"ingest_user_file":     "ingest.user_file",
	"ingest_batch_size":    "ingest.batch_size",
}

// envTransformFunc maps DATABASE_PATH to database.path and so on. Unmapped
// variables return "" and are dropped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
