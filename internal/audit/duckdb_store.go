// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/homevalue/internal/logging"
	"github.com/tomtom215/homevalue/internal/metrics"
)

const table = "prediction_log"

// DuckDBStore implements Store on the prediction log DuckDB database.
type DuckDBStore struct {
	db *sql.DB
}

// NewDuckDBStore wraps db. Call CreateTable before use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the prediction_log table and its ID sequence.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	query := `
		CREATE SEQUENCE IF NOT EXISTS prediction_log_id_seq START 1;

		CREATE TABLE IF NOT EXISTS prediction_log (
			id BIGINT PRIMARY KEY DEFAULT nextval('prediction_log_id_seq'),
			timestamp VARCHAR NOT NULL,
			input_json VARCHAR NOT NULL,
			prediction DOUBLE NOT NULL
		)
	`
	for _, stmt := range strings.Split(query, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Info().Msg("Prediction log table created/verified")
	return nil
}

// Append inserts one row.
func (s *DuckDBStore) Append(ctx context.Context, at time.Time, inputJSON string, prediction float64) (row *PredictionRow, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", table, time.Since(start), err) }()

	row = &PredictionRow{
		Timestamp:  formatTimestamp(at),
		InputJSON:  inputJSON,
		Prediction: prediction,
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO prediction_log (timestamp, input_json, prediction) VALUES (?, ?, ?) RETURNING id`,
		row.Timestamp, row.InputJSON, row.Prediction,
	).Scan(&row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to append prediction log row: %w", err)
	}
	return row, nil
}

// Query returns rows newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) (out []PredictionRow, err error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", table, time.Since(start), err) }()

	query := `SELECT id, timestamp, input_json, prediction FROM prediction_log ORDER BY id DESC`
	var args []any
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r PredictionRow
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.InputJSON, &r.Prediction); err != nil {
			return nil, fmt.Errorf("failed to scan prediction log row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prediction log: %w", err)
	}
	return out, nil
}

// Count returns the number of rows.
func (s *DuckDBStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM prediction_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count prediction log: %w", err)
	}
	return n, nil
}
