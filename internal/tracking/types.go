// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

// Package tracking records experiment runs: the hyperparameters, metrics and
// model artifact of every candidate the training pipeline fits.
//
// A Recorder hands out one ActiveRun per candidate. Each run gets a fresh UUID,
// so two runs started concurrently under the same experiment never merge.
// Run records are persisted through a Store:
//
//   - DuckDBStore: durable storage in the tracking DuckDB file
//   - MemoryStore: in-process storage for tests
//
// Artifacts are plain files under the artifact root:
//
//	<artifact_root>/<experiment>/<run_id>/artifacts/<name>/model.json
//
// A failure to persist a record or write an artifact is returned wrapped in
// ErrRecordingFailed and is not retried.
package tracking

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of a run.
type Status string

// Run states.
const (
	StatusRunning  Status = "RUNNING"
	StatusFinished Status = "FINISHED"
	StatusFailed   Status = "FAILED"
)

const (
	// DefaultExperiment is used when StartRun is given an empty experiment.
	DefaultExperiment = "CaliforniaHousing"

	// DefaultArtifactName is the artifact name the pipeline logs models under.
	DefaultArtifactName = "model"

	artifactFile = "model.json"
)

var (
	// ErrRecordingFailed wraps any failure to persist a run or its artifact.
	ErrRecordingFailed = errors.New("experiment recording failed")

	// ErrRunNotFound is returned by Store.Get for an unknown run ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunEnded is returned when logging into a run that has already ended.
	ErrRunEnded = errors.New("run already ended")
)

// Run is one persisted run record.
type Run struct {
	RunID       string             `json:"run_id"`
	Experiment  string             `json:"experiment"`
	RunName     string             `json:"run_name"`
	Status      Status             `json:"status"`
	Params      map[string]string  `json:"params"`
	Metrics     map[string]float64 `json:"metrics"`
	ArtifactURI string             `json:"artifact_uri,omitempty"`
	StartTime   time.Time          `json:"start_time"`
	EndTime     *time.Time         `json:"end_time,omitempty"`
}

// clone returns a deep copy so stored records cannot be mutated by callers.
func (r *Run) clone() Run {
	out := *r
	out.Params = make(map[string]string, len(r.Params))
	for k, v := range r.Params {
		out.Params[k] = v
	}
	out.Metrics = make(map[string]float64, len(r.Metrics))
	for k, v := range r.Metrics {
		out.Metrics[k] = v
	}
	if r.EndTime != nil {
		t := *r.EndTime
		out.EndTime = &t
	}
	return out
}

// Store persists run records. Save inserts or replaces by RunID.
type Store interface {
	Save(ctx context.Context, run *Run) error
	Get(ctx context.Context, runID string) (*Run, error)

	// List returns the runs of an experiment ordered by start time.
	List(ctx context.Context, experiment string) ([]Run, error)

	// Count returns the number of runs in an experiment.
	Count(ctx context.Context, experiment string) (int64, error)
}
