// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// The four flat fields map directly to the Dataset Provider (TestSize,
// RandomState) and the Candidate Trainer (Alpha, MaxDepth).
type Config struct {
	TestSize    float64 `koanf:"test_size"`
	RandomState int64   `koanf:"random_state"`
	Alpha       float64 `koanf:"alpha"`

	// MaxDepth is nil for unbounded trees ("none" in YAML or env).
	MaxDepth *int `koanf:"max_depth,omitempty"`

	Training TrainingConfig `koanf:"training"`
	Dataset  DatasetConfig  `koanf:"dataset"`
	Tracking TrackingConfig `koanf:"tracking"`
	Registry RegistryConfig `koanf:"registry"`
	Model    ModelConfig    `koanf:"model"`
	Database DatabaseConfig `koanf:"database"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Retrain  RetrainConfig  `koanf:"retrain"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// TrainingConfig selects which candidate families the pipeline fits.
type TrainingConfig struct {
	// Families lists candidate families in registration order.
	// Supported: ridge, linear, decision_tree, random_forest.
	Families        []string `koanf:"families"`
	NEstimators     int      `koanf:"n_estimators"`
	MinSamplesSplit int      `koanf:"min_samples_split"`
	Experiment      string   `koanf:"experiment"`
}

// DatasetConfig configures where the California Housing data comes from.
type DatasetConfig struct {
	// Source is "remote" (download the StatLib archive) or "csv" (read CSVPath).
	Source        string        `koanf:"source"`
	URL           string        `koanf:"url"`
	// SHA256 is the expected archive checksum. Empty disables verification.
	SHA256        string        `koanf:"sha256"`
	CachePath     string        `koanf:"cache_path"`
	CSVPath       string        `koanf:"csv_path"`
	SnapshotPath  string        `koanf:"snapshot_path"`
	FetchAttempts int           `koanf:"fetch_attempts"`
	RetryInterval time.Duration `koanf:"retry_interval"`
	Timeout       time.Duration `koanf:"timeout"`
}

// TrackingConfig configures the experiment recorder.
type TrackingConfig struct {
	DBPath       string `koanf:"db_path"`
	ArtifactRoot string `koanf:"artifact_root"`
}

// RegistryConfig configures the model registry.
type RegistryConfig struct {
	// Name is the registered model name promoted by training and read by serving.
	Name string `koanf:"name"`

	// Path is the BadgerDB directory holding registry pointers.
	Path string `koanf:"path"`

	// Dir holds the versioned copies of promoted artifacts.
	Dir string `koanf:"dir"`
}

// ModelConfig locates the serving artifact.
type ModelConfig struct {
	// Path is the fixed file the registry exports to and the server loads.
	Path string `koanf:"path"`
}

// DatabaseConfig configures the prediction log DuckDB database.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds CORS and rate limiting settings.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// RetrainConfig describes the subordinate training process run by POST /retrain.
type RetrainConfig struct {
	Command string   `koanf:"command"`
	Args    []string `koanf:"args"`
	WorkDir string   `koanf:"workdir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	Caller bool `koanf:"caller"`
}

// Load reads configuration from defaults, config file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns the listen address for the HTTP server.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MaxDepthValue returns the tree depth limit, or 0 for unbounded.
func (c *Config) MaxDepthValue() int {
	if c.MaxDepth == nil {
		return 0
	}
	return *c.MaxDepth
}
