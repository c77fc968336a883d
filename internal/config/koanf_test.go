// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Driver != DriverDuckDB {
		t.Errorf("Database.Driver = %q, want duckdb", cfg.Database.Driver)
	}
	if cfg.Database.Path != "yelp.db" {
		t.Errorf("Database.Path = %q, want yelp.db", cfg.Database.Path)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Extractor.TopTerms != 5 {
		t.Errorf("Extractor.TopTerms = %d, want 5", cfg.Extractor.TopTerms)
	}
	if cfg.Extractor.MaxFeatures != 1000 {
		t.Errorf("Extractor.MaxFeatures = %d, want 1000", cfg.Extractor.MaxFeatures)
	}
	if cfg.Cluster.K != 5 || cfg.Cluster.Seed != 42 || cfg.Cluster.NInit != 10 {
		t.Errorf("Cluster = %+v, want k=5 seed=42 n_init=10", cfg.Cluster)
	}
	if cfg.Classifier.MinRows != 1000 {
		t.Errorf("Classifier.MinRows = %d, want 1000", cfg.Classifier.MinRows)
	}
	if cfg.Classifier.MaxFeatures != 15000 {
		t.Errorf("Classifier.MaxFeatures = %d, want 15000", cfg.Classifier.MaxFeatures)
	}
	if cfg.Classifier.TestFraction != 0.2 {
		t.Errorf("Classifier.TestFraction = %v, want 0.2", cfg.Classifier.TestFraction)
	}
	if cfg.Jobs.Enabled {
		t.Error("Jobs.Enabled should be false by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"DATABASE_PATH", "database.path"},
		{"DUCKDB_PATH", "database.path"},
		{"DATABASE_DRIVER", "database.driver"},
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"CLUSTER_K", "cluster.k"},
		{"CLUSTER_LIMIT", "cluster.limit"},
		{"MODEL_PATH", "classifier.model_path"},
		{"JOBS_NAMES", "jobs.names"},
		{"cors_origins", "security.cors_origins"},

		// Unmapped keys are dropped
		{"HOME", ""},
		{"PATH", ""},
		{"RANDOM_VAR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := envTransformFunc(tt.input)
			if result != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestFindConfigFile verifies config file discovery
func TestFindConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	t.Run("no config file exists", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "")
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})

	t.Run("config.yaml exists", func(t *testing.T) {
		configPath := filepath.Join(tmpDir, "config.yaml")
		if err := os.WriteFile(configPath, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
			t.Fatalf("Failed to create config file: %v", err)
		}
		defer os.Remove(configPath)

		t.Setenv(ConfigPathEnvVar, "")
		if result := findConfigFile(); result != "config.yaml" {
			t.Errorf("findConfigFile() = %q, want config.yaml", result)
		}
	})

	t.Run("CONFIG_PATH env var takes precedence", func(t *testing.T) {
		customPath := filepath.Join(tmpDir, "custom.yaml")
		if err := os.WriteFile(customPath, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
			t.Fatalf("Failed to create custom config file: %v", err)
		}
		defer os.Remove(customPath)

		t.Setenv(ConfigPathEnvVar, customPath)
		if result := findConfigFile(); result != customPath {
			t.Errorf("findConfigFile() = %q, want %q", result, customPath)
		}
	})

	t.Run("CONFIG_PATH env var with non-existent file", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/non/existent/config.yaml")
		if result := findConfigFile(); result != "" {
			t.Errorf("findConfigFile() = %q, want empty string", result)
		}
	})
}

// TestLoadWithKoanfEnvVars tests loading configuration from environment variables
func TestLoadWithKoanfEnvVars(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(ConfigPathEnvVar, "")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CLUSTER_K", "8")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("JOBS_NAMES", "nlp, train")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Cluster.K != 8 {
		t.Errorf("Cluster.K = %d, want 8", cfg.Cluster.K)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if len(cfg.Jobs.Jobs) != 2 || cfg.Jobs.Jobs[0] != "nlp" || cfg.Jobs.Jobs[1] != "train" {
		t.Errorf("Jobs.Jobs = %v, want [nlp train]", cfg.Jobs.Jobs)
	}

	// Defaults survive for unset values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0 (default)", cfg.Server.Host)
	}
	if cfg.Cluster.Seed != 42 {
		t.Errorf("Cluster.Seed = %d, want 42 (default)", cfg.Cluster.Seed)
	}
}

// TestLoadWithKoanfConfigFile tests file loading and env precedence over the file
func TestLoadWithKoanfConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := `
database:
  driver: sqlite
  path: /tmp/reviews.db
server:
  port: 9100
cluster:
  k: 7
dashboard:
  cache_enabled: true
  cache_ttl: 1m
security:
  cors_origins:
    - https://a.example
    - https://b.example
`
	if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("CLUSTER_K", "3")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Database.Path != "/tmp/reviews.db" {
		t.Errorf("Database.Path = %q, want /tmp/reviews.db", cfg.Database.Path)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100", cfg.Server.Port)
	}
	if cfg.Cluster.K != 3 {
		t.Errorf("Cluster.K = %d, want 3 (env overrides file)", cfg.Cluster.K)
	}
	if !cfg.Dashboard.CacheEnabled || cfg.Dashboard.CacheTTL != time.Minute {
		t.Errorf("Dashboard = %+v, want cache enabled with 1m TTL", cfg.Dashboard)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v, want 2 entries", cfg.Security.CORSOrigins)
	}
}

// TestLoadWithKoanfValidation tests that invalid values are rejected
func TestLoadWithKoanfValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"invalid port", map[string]string{"HTTP_PORT": "70000"}},
		{"invalid log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"invalid driver", map[string]string{"DATABASE_DRIVER": "postgres"}},
		{"zero clusters", map[string]string{"CLUSTER_K": "0"}},
		{"too few k-means inits", map[string]string{"CLUSTER_N_INIT": "1"}},
		{"training floor lowered", map[string]string{"CLASSIFIER_MIN_ROWS": "0"}},
		{"bad test fraction", map[string]string{"CLASSIFIER_TEST_FRACTION": "1.5"}},
		{"unknown job", map[string]string{"JOBS_ENABLED": "true", "JOBS_NAMES": "nlp,reindex"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv(ConfigPathEnvVar, "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadWithKoanf(); err == nil {
				t.Error("LoadWithKoanf() expected validation error, got nil")
			}
		})
	}
}

func TestServerConfigAddr(t *testing.T) {
	t.Parallel()
	s := ServerConfig{Host: "127.0.0.1", Port: 8000}
	if got := s.Addr(); got != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8000", got)
	}
}
