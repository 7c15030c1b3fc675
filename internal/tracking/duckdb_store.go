// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/homevalue/internal/logging"
	"github.com/tomtom215/homevalue/internal/metrics"
)

const schema = `
	CREATE TABLE IF NOT EXISTS experiments (
		name TEXT PRIMARY KEY,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		experiment TEXT NOT NULL,
		run_name TEXT NOT NULL,
		status TEXT NOT NULL,
		params TEXT NOT NULL,
		metrics TEXT NOT NULL,
		artifact_uri TEXT,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_experiment ON runs(experiment);
	CREATE INDEX IF NOT EXISTS idx_runs_start_time ON runs(start_time)
`

// DuckDBStore implements Store on a DuckDB database. Params and metrics are
// stored as JSON objects of strings.
type DuckDBStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewDuckDBStore wraps db. Call CreateTable before use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the experiments and runs tables if they do not exist.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	logging.Debug().Msg("Tracking tables created/verified")
	return nil
}

// Save registers the experiment on first use and inserts or replaces the run.
func (s *DuckDBStore) Save(ctx context.Context, run *Run) (err error) {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}

	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "runs", time.Since(start), err) }()

	params, err := json.Marshal(nonNilParams(run.Params))
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}
	metricsJSON, err := json.Marshal(encodeMetrics(run.Metrics))
	if err != nil {
		return fmt.Errorf("failed to encode metrics: %w", err)
	}

	var endTime any
	if run.EndTime != nil {
		endTime = run.EndTime.UTC()
	}
	var artifactURI any
	if run.ArtifactURI != "" {
		artifactURI = run.ArtifactURI
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO experiments (name, created_at) VALUES (?, ?)`,
		run.Experiment, run.StartTime.UTC(),
	); err != nil {
		return fmt.Errorf("failed to save experiment: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (
			run_id, experiment, run_name, status, params, metrics,
			artifact_uri, start_time, end_time
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Experiment, run.RunName, string(run.Status),
		string(params), string(metricsJSON),
		artifactURI, run.StartTime.UTC(), endTime,
	); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

const selectRun = `
	SELECT run_id, experiment, run_name, status, params, metrics,
	       artifact_uri, start_time, end_time
	FROM runs`

// Get retrieves a run by ID.
func (s *DuckDBStore) Get(ctx context.Context, runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := scanRun(s.db.QueryRowContext(ctx, selectRun+` WHERE run_id = ?`, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// List returns the experiment's runs ordered by start time.
func (s *DuckDBStore) List(ctx context.Context, experiment string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectRun+` WHERE experiment = ? ORDER BY start_time, run_id`, experiment)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// Count returns the number of runs in the experiment.
func (s *DuckDBStore) Count(ctx context.Context, experiment string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE experiment = ?`, experiment).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run             Run
		status          string
		params, metricsText string
		artifactURI     sql.NullString
		endTime         sql.NullTime
	)
	if err := row.Scan(&run.RunID, &run.Experiment, &run.RunName, &status,
		&params, &metricsText, &artifactURI, &run.StartTime, &endTime); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.ArtifactURI = artifactURI.String
	run.StartTime = run.StartTime.UTC()
	if endTime.Valid {
		t := endTime.Time.UTC()
		run.EndTime = &t
	}
	if err := json.Unmarshal([]byte(params), &run.Params); err != nil {
		return nil, fmt.Errorf("decode params: %w", err)
	}
	encoded := map[string]string{}
	if err := json.Unmarshal([]byte(metricsText), &encoded); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	run.Metrics = make(map[string]float64, len(encoded))
	for k, v := range encoded {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("decode metric %s: %w", k, err)
		}
		run.Metrics[k] = f
	}
	return &run, nil
}

func nonNilParams(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

// encodeMetrics formats values as strings because JSON has no NaN or Inf,
// and a diverged candidate can produce either.
func encodeMetrics(m map[string]float64) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return out
}
