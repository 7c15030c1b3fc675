// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package tracking

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/homevalue/internal/logging"
)

// Recorder starts runs against a Store and an artifact root directory.
type Recorder struct {
	store        Store
	artifactRoot string
	now          func() time.Time
}

// NewRecorder creates a Recorder.
func NewRecorder(store Store, artifactRoot string) *Recorder {
	return &Recorder{
		store:        store,
		artifactRoot: artifactRoot,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Store returns the backing store.
func (r *Recorder) Store() Store {
	return r.store
}

// StartRun persists a RUNNING record under a fresh run ID.
func (r *Recorder) StartRun(ctx context.Context, experiment, runName string) (*ActiveRun, error) {
	if experiment == "" {
		experiment = DefaultExperiment
	}
	run := &Run{
		RunID:      uuid.NewString(),
		Experiment: experiment,
		RunName:    runName,
		Status:     StatusRunning,
		Params:     map[string]string{},
		Metrics:    map[string]float64{},
		StartTime:  r.now(),
	}
	if err := r.store.Save(ctx, run); err != nil {
		return nil, fmt.Errorf("%w: start run %s: %v", ErrRecordingFailed, runName, err)
	}

	logging.Ctx(ctx).Debug().
		Str("experiment", experiment).
		Str("run_name", runName).
		Str("run_id", run.RunID).
		Msg("Run started")

	return &ActiveRun{rec: r, run: run}, nil
}

// ActiveRun accumulates params, metrics and an artifact until End.
// It is safe for concurrent use.
type ActiveRun struct {
	rec   *Recorder
	mu    sync.Mutex
	run   *Run
	ended bool
}

// RunID returns the run's UUID.
func (a *ActiveRun) RunID() string {
	return a.run.RunID
}

// Snapshot returns a copy of the record as it stands.
func (a *ActiveRun) Snapshot() Run {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.run.clone()
}

// LogParams merges params into the run. Later values win.
func (a *ActiveRun) LogParams(params map[string]string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ended {
		return ErrRunEnded
	}
	for k, v := range params {
		a.run.Params[k] = v
	}
	return nil
}

// LogMetric sets one metric.
func (a *ActiveRun) LogMetric(key string, value float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ended {
		return ErrRunEnded
	}
	a.run.Metrics[key] = value
	return nil
}

// LogArtifact writes data under the run's artifact directory and returns its
// URI, which is the file path.
func (a *ActiveRun) LogArtifact(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: invalid artifact name %q", ErrRecordingFailed, name)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ended {
		return "", ErrRunEnded
	}

	dir := filepath.Join(a.rec.artifactRoot, a.run.Experiment, a.run.RunID, "artifacts", name)
	path := filepath.Join(dir, artifactFile)
	if err := writeFileAtomic(dir, path, data); err != nil {
		return "", fmt.Errorf("%w: log artifact %s: %v", ErrRecordingFailed, name, err)
	}
	a.run.ArtifactURI = path

	logging.Ctx(ctx).Debug().Str("run_id", a.run.RunID).Str("uri", path).Int("bytes", len(data)).Msg("Artifact logged")
	return path, nil
}

// End persists the final record and returns the run ID. A run ends once.
func (a *ActiveRun) End(ctx context.Context, status Status) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ended {
		return "", ErrRunEnded
	}
	if status != StatusFinished && status != StatusFailed {
		return "", fmt.Errorf("%w: invalid final status %q", ErrRecordingFailed, status)
	}

	end := a.rec.now()
	prevStatus, prevEnd := a.run.Status, a.run.EndTime
	a.run.Status = status
	a.run.EndTime = &end

	// An unsaved end leaves the run open so the caller can still fail it.
	if err := a.rec.store.Save(ctx, a.run); err != nil {
		a.run.Status, a.run.EndTime = prevStatus, prevEnd
		return "", fmt.Errorf("%w: end run %s: %v", ErrRecordingFailed, a.run.RunID, err)
	}
	a.ended = true

	logging.Ctx(ctx).Info().
		Str("run_id", a.run.RunID).
		Str("run_name", a.run.RunName).
		Str("status", string(status)).
		Dur("duration", end.Sub(a.run.StartTime)).
		Msg("Run ended")
	return a.run.RunID, nil
}

// writeFileAtomic writes through a temp file in dir and renames it into place.
func writeFileAtomic(dir, path string, data []byte) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".artifact-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
