// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

// Command train runs one training session: load and split the dataset, fit
// every configured candidate as a tracked run, select the lowest test MSE and
// promote it into the registry, which also exports it to model.path.
//
// The run summary is printed to stdout as JSON; logs go to stderr so that
// POST /retrain can return both streams separately. Any failure exits 1 and
// leaves the previously registered model in place.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/tomtom215/homevalue/internal/config"
	"github.com/tomtom215/homevalue/internal/database"
	"github.com/tomtom215/homevalue/internal/dataset"
	"github.com/tomtom215/homevalue/internal/logging"
	"github.com/tomtom215/homevalue/internal/pipeline"
	"github.com/tomtom215/homevalue/internal/registry"
	"github.com/tomtom215/homevalue/internal/tracking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	summary, err := run(ctx, cfg)
	stop()
	if err != nil {
		logging.Error().Err(err).Msg("Training failed")
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		logging.Error().Err(err).Msg("Failed to write summary")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) (*pipeline.Summary, error) {
	provider, err := dataset.NewProvider(&cfg.Dataset)
	if err != nil {
		return nil, err
	}

	trackingDB, err := database.New(&config.DatabaseConfig{
		Path:      cfg.Tracking.DBPath,
		MaxMemory: cfg.Database.MaxMemory,
		Threads:   cfg.Database.Threads,
	})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := trackingDB.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing tracking database")
		}
	}()

	store := tracking.NewDuckDBStore(trackingDB.Conn())
	if err := store.CreateTable(ctx); err != nil {
		return nil, err
	}
	recorder := tracking.NewRecorder(store, cfg.Tracking.ArtifactRoot)

	reg, err := registry.Open(&cfg.Registry, cfg.Model.Path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing registry")
		}
	}()

	p := pipeline.New(provider, recorder, reg, pipeline.OptionsFromConfig(cfg))
	for _, c := range pipeline.CandidatesFromConfig(cfg) {
		p.RegisterCandidate(c)
	}

	return p.Run(ctx)
}
