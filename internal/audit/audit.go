// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

// Package audit keeps the prediction log: one append-only row per served
// prediction holding the request payload and the value returned.
//
// Writes are synchronous. The prediction handler fails the request when the
// append fails, so a returned prediction always has a row behind it. The
// DuckDB store serializes writers itself; callers add no locking.
package audit

import (
	"context"
	"time"
)

// TimestampFormat is the ISO-8601 layout of PredictionRow.Timestamp.
const TimestampFormat = time.RFC3339Nano

// PredictionRow is one logged prediction.
type PredictionRow struct {
	ID         int64   `json:"id"`
	Timestamp  string  `json:"timestamp"`
	InputJSON  string  `json:"input_json"`
	Prediction float64 `json:"prediction"`
}

// QueryFilter narrows Query results.
type QueryFilter struct {
	// Limit caps the number of rows; 0 means no limit.
	Limit int
}

// Store persists prediction rows.
type Store interface {
	// Append writes a row and returns it with its assigned ID.
	Append(ctx context.Context, at time.Time, inputJSON string, prediction float64) (*PredictionRow, error)

	// Query returns rows newest first.
	Query(ctx context.Context, filter QueryFilter) ([]PredictionRow, error)

	// Count returns the number of rows.
	Count(ctx context.Context) (int64, error)
}

func formatTimestamp(at time.Time) string {
	return at.UTC().Format(TimestampFormat)
}
