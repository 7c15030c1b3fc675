// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

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

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/homevalue/config.yaml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultDatasetURL and DefaultDatasetSHA256 identify the cal_housing.tgz
// archive published from the StatLib repository.
const (
	DefaultDatasetURL    = "https://ndownloader.figshare.com/files/5976036"
	DefaultDatasetSHA256 = "aaa5c9a6afe2225cc2aed2723682ae403280c4a3695a2ddda4ffb5d8215ea681"
)

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		TestSize:    0.2,
		RandomState: 42,
		Alpha:       1.0,
		Training: TrainingConfig{
			Families:        []string{"ridge", "decision_tree", "random_forest"},
			NEstimators:     10,
			MinSamplesSplit: 2,
			Experiment:      "CaliforniaHousing",
		},
		Dataset: DatasetConfig{
			Source:        "remote",
			URL:           DefaultDatasetURL,
			SHA256:        DefaultDatasetSHA256,
			CachePath:     "data/cal_housing.tgz",
			CSVPath:       "",
			SnapshotPath:  "data/housing.csv",
			FetchAttempts: 3,
			RetryInterval: 2 * time.Second,
			Timeout:       60 * time.Second,
		},
		Tracking: TrackingConfig{
			DBPath:       "mlruns/tracking.duckdb",
			ArtifactRoot: "mlruns",
		},
		Registry: RegistryConfig{
			Name: "CaliforniaHousingModel",
			Path: "registry/db",
			Dir:  "registry/models",
		},
		Model: ModelConfig{
			Path: "model.json",
		},
		Database: DatabaseConfig{
			Path:      "data/predictions.duckdb",
			MaxMemory: "512MB",
			Threads:   0,
		},
		Server: ServerConfig{
			Port:            8000,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Retrain: RetrainConfig{
			Command: "./train",
			Args:    []string{},
			WorkDir: "",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf with layered sources:
//  1. Defaults
//  2. Config file (optional)
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// TEST_SIZE -> test_size, HTTP_PORT -> server.port
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	normalizeMaxDepth(k)

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"training.families",
	"retrain.args",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// normalizeMaxDepth drops max_depth when it is spelled as "none", "null" or
// left empty, so the field unmarshals to a nil pointer (unbounded depth).
// Defaults never carry the key: a typed-nil pointer cannot be deep-copied by Get.
func normalizeMaxDepth(k *koanf.Koanf) {
	if !k.Exists("max_depth") {
		return
	}
	s, ok := k.Get("max_depth").(string)
	if !ok {
		return
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "null":
		k.Delete("max_depth")
	}
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Hyperparameters
		"test_size":    "test_size",
		"random_state": "random_state",
		"alpha":        "alpha",
		"max_depth":    "max_depth",

		// Training
		"training_families":          "training.families",
		"training_n_estimators":      "training.n_estimators",
		"training_min_samples_split": "training.min_samples_split",
		"mlflow_experiment":          "training.experiment",

		// Dataset
		"dataset_source":         "dataset.source",
		"dataset_url":            "dataset.url",
		"dataset_sha256":         "dataset.sha256",
		"dataset_cache_path":     "dataset.cache_path",
		"dataset_csv_path":       "dataset.csv_path",
		"dataset_snapshot_path":  "dataset.snapshot_path",
		"dataset_fetch_attempts": "dataset.fetch_attempts",
		"dataset_retry_interval": "dataset.retry_interval",
		"dataset_timeout":        "dataset.timeout",

		// Tracking
		"tracking_db_path":       "tracking.db_path",
		"tracking_artifact_root": "tracking.artifact_root",

		// Registry and serving artifact
		"registry_model_name": "registry.name",
		"registry_path":       "registry.path",
		"registry_dir":        "registry.dir",
		"model_path":          "model.path",

		// Prediction log database
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Server
		"http_port":               "server.port",
		"http_host":               "server.host",
		"http_timeout":            "server.timeout",
		"server_shutdown_timeout": "server.shutdown_timeout",

		// Security
		"cors_origins":        "security.cors_origins",
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",

		// Retrain subprocess
		"retrain_command": "retrain.command",
		"retrain_args":    "retrain.args",
		"retrain_workdir": "retrain.workdir",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
