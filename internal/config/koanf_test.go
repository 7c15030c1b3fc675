// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// isolate moves the test into an empty directory with no CONFIG_PATH so that
// neither a stray config.yaml nor the caller's environment leaks in.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv(ConfigPathEnvVar, "")
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.TestSize != 0.2 {
		t.Errorf("TestSize = %v, want 0.2", cfg.TestSize)
	}
	if cfg.RandomState != 42 {
		t.Errorf("RandomState = %d, want 42", cfg.RandomState)
	}
	if cfg.Alpha != 1.0 {
		t.Errorf("Alpha = %v, want 1.0", cfg.Alpha)
	}
	if cfg.MaxDepth != nil {
		t.Errorf("MaxDepth = %v, want nil", *cfg.MaxDepth)
	}
	if cfg.Training.Experiment != "CaliforniaHousing" {
		t.Errorf("Training.Experiment = %q, want CaliforniaHousing", cfg.Training.Experiment)
	}
	if cfg.Dataset.SnapshotPath != "data/housing.csv" {
		t.Errorf("Dataset.SnapshotPath = %q, want data/housing.csv", cfg.Dataset.SnapshotPath)
	}
	if cfg.Dataset.RetryInterval != 2*time.Second {
		t.Errorf("Dataset.RetryInterval = %v, want 2s", cfg.Dataset.RetryInterval)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Retrain.Command != "./train" {
		t.Errorf("Retrain.Command = %q, want ./train", cfg.Retrain.Command)
	}
	if cfg.Model.Path != "model.json" {
		t.Errorf("Model.Path = %q, want model.json", cfg.Model.Path)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"TEST_SIZE", "test_size"},
		{"RANDOM_STATE", "random_state"},
		{"MAX_DEPTH", "max_depth"},
		{"TRAINING_FAMILIES", "training.families"},
		{"MLFLOW_EXPERIMENT", "training.experiment"},
		{"DATASET_CSV_PATH", "dataset.csv_path"},
		{"REGISTRY_MODEL_NAME", "registry.name"},
		{"MODEL_PATH", "model.path"},
		{"DUCKDB_PATH", "database.path"},
		{"HTTP_PORT", "server.port"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"RETRAIN_COMMAND", "retrain.command"},
		{"LOG_LEVEL", "logging.level"},
		{"log_format", "logging.format"},

		// Unmapped variables are skipped
		{"HOME", ""},
		{"PATH", ""},
		{"UNKNOWN_SETTING", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	dir := isolate(t)

	if got := findConfigFile(); got != "" {
		t.Errorf("findConfigFile() = %q, want empty", got)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte("alpha: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := findConfigFile(); got != "config.yml" {
		t.Errorf("findConfigFile() = %q, want config.yml", got)
	}

	custom := writeConfig(t, dir, "alpha: 3\n")
	t.Setenv(ConfigPathEnvVar, custom)
	if got := findConfigFile(); got != custom {
		t.Errorf("findConfigFile() = %q, want %q", got, custom)
	}

	t.Setenv(ConfigPathEnvVar, filepath.Join(dir, "missing.yaml"))
	if got := findConfigFile(); got != "config.yml" {
		t.Errorf("missing CONFIG_PATH should fall back, got %q", got)
	}
}

func TestLoadWithKoanfDefaults(t *testing.T) {
	isolate(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.TestSize != 0.2 || cfg.RandomState != 42 || cfg.Alpha != 1.0 {
		t.Errorf("hyperparameters = (%v, %d, %v), want (0.2, 42, 1)", cfg.TestSize, cfg.RandomState, cfg.Alpha)
	}
	if cfg.MaxDepth != nil {
		t.Errorf("MaxDepth = %d, want nil", *cfg.MaxDepth)
	}
	if got := strings.Join(cfg.Training.Families, ","); got != "ridge,decision_tree,random_forest" {
		t.Errorf("Training.Families = %q, want ridge,decision_tree,random_forest", got)
	}
}

func TestDefaultsOmitUnsetMaxDepth(t *testing.T) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if k.Exists("max_depth") {
		t.Fatalf("defaults carry max_depth = %v, want key absent", k.Get("max_depth"))
	}
	// Must not panic on the absent key.
	normalizeMaxDepth(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.MaxDepth != nil {
		t.Errorf("MaxDepth = %d, want nil", *cfg.MaxDepth)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
test_size: 0.25
random_state: 7
alpha: 0.5
max_depth: 6
training:
  families: [ridge, decision_tree]
server:
  port: 9090
retrain:
  command: /usr/local/bin/train
  args: ["-v"]
`)
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.TestSize != 0.25 {
		t.Errorf("TestSize = %v, want 0.25", cfg.TestSize)
	}
	if cfg.RandomState != 7 {
		t.Errorf("RandomState = %d, want 7", cfg.RandomState)
	}
	if cfg.Alpha != 0.5 {
		t.Errorf("Alpha = %v, want 0.5", cfg.Alpha)
	}
	if cfg.MaxDepth == nil || *cfg.MaxDepth != 6 {
		t.Errorf("MaxDepth = %v, want 6", cfg.MaxDepth)
	}
	if got := strings.Join(cfg.Training.Families, ","); got != "ridge,decision_tree" {
		t.Errorf("Training.Families = %q, want ridge,decision_tree", got)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Retrain.Command != "/usr/local/bin/train" || len(cfg.Retrain.Args) != 1 {
		t.Errorf("Retrain = %+v", cfg.Retrain)
	}
	// Untouched sections keep their defaults
	if cfg.Model.Path != "model.json" {
		t.Errorf("Model.Path = %q, want model.json", cfg.Model.Path)
	}
}

func TestLoadWithKoanfMaxDepthNone(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"none", "max_depth: none\n"},
		{"null", "max_depth: null\n"},
		{"quoted none", "max_depth: \"None\"\n"},
		{"empty", "max_depth: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			t.Setenv(ConfigPathEnvVar, writeConfig(t, dir, tt.yaml))

			cfg, err := LoadWithKoanf()
			if err != nil {
				t.Fatalf("LoadWithKoanf() error = %v", err)
			}
			if cfg.MaxDepth != nil {
				t.Errorf("MaxDepth = %d, want nil", *cfg.MaxDepth)
			}
			if cfg.MaxDepthValue() != 0 {
				t.Errorf("MaxDepthValue() = %d, want 0", cfg.MaxDepthValue())
			}
		})
	}
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	dir := isolate(t)
	t.Setenv(ConfigPathEnvVar, writeConfig(t, dir, "alpha: 0.5\nmax_depth: 4\n"))

	t.Setenv("ALPHA", "2.5")
	t.Setenv("MAX_DEPTH", "none")
	t.Setenv("TRAINING_FAMILIES", "ridge, random_forest")
	t.Setenv("HTTP_PORT", "8181")
	t.Setenv("CORS_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Alpha != 2.5 {
		t.Errorf("Alpha = %v, want 2.5 (env overrides file)", cfg.Alpha)
	}
	if cfg.MaxDepth != nil {
		t.Errorf("MaxDepth = %d, want nil", *cfg.MaxDepth)
	}
	if got := strings.Join(cfg.Training.Families, ","); got != "ridge,random_forest" {
		t.Errorf("Training.Families = %q, want ridge,random_forest", got)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("Server.Port = %d, want 8181", cfg.Server.Port)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Errorf("Security.CORSOrigins = %v, want 2 entries", cfg.Security.CORSOrigins)
	}
	if cfg.Security.RateLimitWindow != 30*time.Second {
		t.Errorf("Security.RateLimitWindow = %v, want 30s", cfg.Security.RateLimitWindow)
	}
}

func TestLoadWithKoanfInvalid(t *testing.T) {
	dir := isolate(t)
	t.Setenv(ConfigPathEnvVar, writeConfig(t, dir, "test_size: 1.5\n"))

	if _, err := LoadWithKoanf(); err == nil {
		t.Error("expected validation error for test_size 1.5")
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()
	s := ServerConfig{Host: "127.0.0.1", Port: 8000}
	if got := s.Addr(); got != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8000", got)
	}
}
