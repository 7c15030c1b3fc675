// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

// Package serving holds the loaded model and implements the prediction and
// retrain operations behind the HTTP API.
//
// A Service is created once at startup from the artifact at model.path and
// never reloads it. Retraining runs the configured training command as a
// subprocess; the new artifact is picked up on the next server start.
package serving

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/homevalue/internal/audit"
	"github.com/tomtom215/homevalue/internal/config"
	"github.com/tomtom215/homevalue/internal/dataset"
	"github.com/tomtom215/homevalue/internal/logging"
	"github.com/tomtom215/homevalue/internal/metrics"
	"github.com/tomtom215/homevalue/internal/models"
	"github.com/tomtom215/homevalue/internal/trainer"
	"github.com/tomtom215/homevalue/internal/validation"
)

var (
	// ErrArtifactMissing is returned by NewService when no model file exists.
	ErrArtifactMissing = errors.New("model artifact missing")

	// ErrValidation wraps every rejected prediction payload.
	ErrValidation = errors.New("invalid prediction input")

	// ErrNonFinitePrediction is returned when the model yields NaN or Inf.
	ErrNonFinitePrediction = errors.New("model produced a non-finite prediction")

	// ErrPredictionLog is returned when the prediction log row cannot be written.
	ErrPredictionLog = errors.New("prediction log append failed")
)

// Options configures a Service.
type Options struct {
	ModelPath string
	Store     audit.Store
	Retrain   config.RetrainConfig
}

// Service serves one loaded model. It is safe for concurrent use.
type Service struct {
	artifact  *trainer.Artifact
	modelPath string
	store     audit.Store
	retrain   config.RetrainConfig
	loadedAt  time.Time
	now       func() time.Time

	mu         sync.RWMutex
	registered *models.RegisteredRef
}

// NewService loads the artifact at opts.ModelPath.
func NewService(opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("prediction log store is required")
	}

	data, err := os.ReadFile(opts.ModelPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (run the training command first)", ErrArtifactMissing, opts.ModelPath)
		}
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	art, err := trainer.DecodeModel(data)
	if err != nil {
		return nil, fmt.Errorf("load model artifact %s: %w", opts.ModelPath, err)
	}
	if !sameFeatureSet(art.FeatureNames, dataset.FeatureNames) {
		return nil, fmt.Errorf("load model artifact %s: features %v do not match %v",
			opts.ModelPath, art.FeatureNames, dataset.FeatureNames)
	}

	metrics.SetModelInfo(art.Family)
	logging.Info().
		Str("path", opts.ModelPath).
		Str("family", art.Family).
		Time("trained_at", art.TrainedAt).
		Msg("Model loaded")

	return &Service{
		artifact:  art,
		modelPath: opts.ModelPath,
		store:     opts.Store,
		retrain:   opts.Retrain,
		loadedAt:  time.Now().UTC(),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// sameFeatureSet reports whether a and b hold the same names in any order.
func sameFeatureSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

// Predict validates f, runs inference in the artifact's feature order,
// records metrics and appends a prediction log row.
func (s *Service) Predict(ctx context.Context, f *models.HouseFeatures) (float64, error) {
	start := time.Now()

	if f == nil {
		metrics.RecordPredictionError("validation")
		return 0, fmt.Errorf("%w: empty payload", ErrValidation)
	}
	if verr := validation.ValidateStruct(f); verr != nil {
		metrics.RecordPredictionError("validation")
		return 0, fmt.Errorf("%w: %w", ErrValidation, verr)
	}

	values := f.ToMap()
	x := make([]float64, len(s.artifact.FeatureNames))
	for i, name := range s.artifact.FeatureNames {
		x[i] = values[name]
	}

	y := s.artifact.Model.Predict(x)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		metrics.RecordPredictionError("non_finite")
		return 0, ErrNonFinitePrediction
	}
	metrics.RecordPrediction(time.Since(start))

	input, err := json.Marshal(f)
	if err != nil {
		metrics.RecordPredictionError("encode")
		return 0, fmt.Errorf("encode prediction input: %w", err)
	}
	if _, err := s.store.Append(ctx, s.now(), string(input), y); err != nil {
		metrics.RecordPredictionError("log_append")
		return 0, fmt.Errorf("%w: %w", ErrPredictionLog, err)
	}

	logging.Ctx(ctx).Debug().Float64("prediction", y).Msg("Prediction served")
	return y, nil
}

// SetRegistered records the registry pointer read at startup.
func (s *Service) SetRegistered(ref *models.RegisteredRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered = ref
}

// Family returns the loaded model family.
func (s *Service) Family() string {
	return s.artifact.Family
}

// LoadedAt returns when the model was loaded.
func (s *Service) LoadedAt() time.Time {
	return s.loadedAt
}

// Health reports readiness. A constructed Service is always ready.
func (s *Service) Health() models.HealthStatus {
	return models.HealthStatus{
		Status:      "healthy",
		Ready:       true,
		ModelFamily: s.artifact.Family,
		LoadedAt:    s.loadedAt,
		Uptime:      s.now().Sub(s.loadedAt).Seconds(),
	}
}

// ModelInfo describes the loaded artifact.
func (s *Service) ModelInfo() models.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.ModelInfo{
		Family:        s.artifact.Family,
		FormatVersion: s.artifact.FormatVersion,
		FeatureNames:  slices.Clone(s.artifact.FeatureNames),
		TrainedAt:     s.artifact.TrainedAt,
		Path:          s.modelPath,
		Registered:    s.registered,
	}
}
