// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/homevalue/internal/api"
	"github.com/tomtom215/homevalue/internal/audit"
	"github.com/tomtom215/homevalue/internal/config"
	"github.com/tomtom215/homevalue/internal/database"
	"github.com/tomtom215/homevalue/internal/logging"
	"github.com/tomtom215/homevalue/internal/models"
	"github.com/tomtom215/homevalue/internal/registry"
	"github.com/tomtom215/homevalue/internal/serving"
	"github.com/tomtom215/homevalue/internal/supervisor"
	"github.com/tomtom215/homevalue/internal/supervisor/services"
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
	})

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func run(cfg *config.Config) error {
	logging.Info().
		Str("model_path", cfg.Model.Path).
		Str("db_path", cfg.Database.Path).
		Str("addr", cfg.Server.Addr()).
		Msg("Starting prediction server")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	store := audit.NewDuckDBStore(db.Conn())
	if err := store.CreateTable(context.Background()); err != nil {
		return err
	}

	svc, err := serving.NewService(serving.Options{
		ModelPath: cfg.Model.Path,
		Store:     store,
		Retrain:   cfg.Retrain,
	})
	if err != nil {
		if errors.Is(err, serving.ErrArtifactMissing) {
			logging.Error().Str("path", cfg.Model.Path).Msg("No model artifact found; run the train command before starting the server")
		}
		return err
	}
	svc.SetRegistered(readRegistered(cfg))

	handler := api.NewHandler(svc)
	router := api.NewRouter(handler, api.NewMiddleware(api.MiddlewareConfigFromSecurity(&cfg.Security)))

	// No WriteTimeout: POST /retrain holds the response open for the whole
	// training run.
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("Services did not stop within the shutdown timeout")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if err := db.Checkpoint(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Final prediction log checkpoint failed")
	}
	logging.Info().Msg("Server stopped")
	return nil
}

// readRegistered reads the registry pointer once for GET /model. The
// registry is optional for serving; any failure is logged and ignored.
func readRegistered(cfg *config.Config) *models.RegisteredRef {
	reg, err := registry.OpenReadOnly(&cfg.Registry, cfg.Model.Path)
	if err != nil {
		logging.Warn().Err(err).Str("path", cfg.Registry.Path).Msg("Registry unavailable; /model will omit registration")
		return nil
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error closing registry")
		}
	}()

	mv, err := reg.Get(context.Background(), cfg.Registry.Name)
	if err != nil {
		logging.Warn().Err(err).Str("name", cfg.Registry.Name).Msg("No registered model version")
		return nil
	}
	return &models.RegisteredRef{
		Name:       mv.Name,
		Version:    mv.Version,
		RunID:      mv.RunID,
		Metric:     mv.Metric,
		PromotedAt: mv.PromotedAt,
	}
}
