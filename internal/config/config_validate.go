// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package config

import (
	"fmt"
	"net/url"
	"strings"
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

// ValidFamilies lists the model families the trainer can fit.
var ValidFamilies = map[string]bool{
	"ridge":         true,
	"linear":        true,
	"decision_tree": true,
	"random_forest": true,
}

var validDatasetSources = map[string]bool{
	"remote": true,
	"csv":    true,
}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateHyperparameters(); err != nil {
		return err
	}
	if err := c.validateTraining(); err != nil {
		return err
	}
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateHyperparameters() error {
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("TEST_SIZE must be between 0 and 1 (exclusive), got %v", c.TestSize)
	}
	if c.Alpha < 0 {
		return fmt.Errorf("ALPHA must be non-negative, got %v", c.Alpha)
	}
	if c.MaxDepth != nil && *c.MaxDepth < 1 {
		return fmt.Errorf("MAX_DEPTH must be at least 1 or none, got %d", *c.MaxDepth)
	}
	return nil
}

func (c *Config) validateTraining() error {
	if len(c.Training.Families) == 0 {
		return fmt.Errorf("TRAINING_FAMILIES must list at least one family")
	}
	for _, f := range c.Training.Families {
		if !ValidFamilies[f] {
			return fmt.Errorf("TRAINING_FAMILIES contains unknown family %q (valid: ridge, linear, decision_tree, random_forest)", f)
		}
	}
	if c.Training.NEstimators < 1 {
		return fmt.Errorf("TRAINING_N_ESTIMATORS must be at least 1")
	}
	if c.Training.MinSamplesSplit < 2 {
		return fmt.Errorf("TRAINING_MIN_SAMPLES_SPLIT must be at least 2")
	}
	if c.Training.Experiment == "" {
		return fmt.Errorf("MLFLOW_EXPERIMENT is required")
	}
	return nil
}

func (c *Config) validateDataset() error {
	if !validDatasetSources[c.Dataset.Source] {
		return fmt.Errorf("DATASET_SOURCE must be one of: remote, csv")
	}
	switch c.Dataset.Source {
	case "remote":
		if err := validateHTTPURL(c.Dataset.URL, "DATASET_URL"); err != nil {
			return err
		}
		if c.Dataset.FetchAttempts < 1 {
			return fmt.Errorf("DATASET_FETCH_ATTEMPTS must be at least 1")
		}
	case "csv":
		if c.Dataset.CSVPath == "" {
			return fmt.Errorf("DATASET_CSV_PATH is required when DATASET_SOURCE=csv")
		}
	}
	if c.Dataset.Timeout <= 0 {
		return fmt.Errorf("DATASET_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validatePaths() error {
	required := []struct {
		value string
		name  string
	}{
		{c.Tracking.DBPath, "TRACKING_DB_PATH"},
		{c.Tracking.ArtifactRoot, "TRACKING_ARTIFACT_ROOT"},
		{c.Registry.Name, "REGISTRY_MODEL_NAME"},
		{c.Registry.Path, "REGISTRY_PATH"},
		{c.Registry.Dir, "REGISTRY_DIR"},
		{c.Model.Path, "MODEL_PATH"},
		{c.Database.Path, "DUCKDB_PATH"},
		{c.Retrain.Command, "RETRAIN_COMMAND"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// validateHTTPURL checks that rawURL is an absolute http(s) URL with a host.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}
