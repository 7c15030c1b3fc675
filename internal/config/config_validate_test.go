// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package config

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	depth := func(d int) *int { return &d }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"test size zero", func(c *Config) { c.TestSize = 0 }, "TEST_SIZE"},
		{"test size one", func(c *Config) { c.TestSize = 1 }, "TEST_SIZE"},
		{"negative alpha", func(c *Config) { c.Alpha = -0.1 }, "ALPHA"},
		{"zero alpha", func(c *Config) { c.Alpha = 0 }, ""},
		{"max depth zero", func(c *Config) { c.MaxDepth = depth(0) }, "MAX_DEPTH"},
		{"max depth set", func(c *Config) { c.MaxDepth = depth(5) }, ""},
		{"no families", func(c *Config) { c.Training.Families = nil }, "TRAINING_FAMILIES"},
		{"unknown family", func(c *Config) { c.Training.Families = []string{"svm"} }, "unknown family"},
		{"no estimators", func(c *Config) { c.Training.NEstimators = 0 }, "N_ESTIMATORS"},
		{"min split one", func(c *Config) { c.Training.MinSamplesSplit = 1 }, "MIN_SAMPLES_SPLIT"},
		{"bad source", func(c *Config) { c.Dataset.Source = "s3" }, "DATASET_SOURCE"},
		{"csv without path", func(c *Config) { c.Dataset.Source = "csv" }, "DATASET_CSV_PATH"},
		{"csv with path", func(c *Config) {
			c.Dataset.Source = "csv"
			c.Dataset.CSVPath = "data/housing.csv"
		}, ""},
		{"ftp url", func(c *Config) { c.Dataset.URL = "ftp://example.com/x.tgz" }, "scheme"},
		{"no model path", func(c *Config) { c.Model.Path = "" }, "MODEL_PATH"},
		{"no retrain command", func(c *Config) { c.Retrain.Command = " " }, "RETRAIN_COMMAND"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"rate limit zero", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQUESTS"},
		{"rate limit disabled", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitReqs = 0
		}, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
