// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in memory. Suitable for tests. Data is lost
// on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   []PredictionRow
	nextID int64

	// FailWith, when set, makes Append return it.
	FailWith error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// Append stores a row.
func (s *MemoryStore) Append(_ context.Context, at time.Time, inputJSON string, prediction float64) (*PredictionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	row := PredictionRow{
		ID:         s.nextID,
		Timestamp:  formatTimestamp(at),
		InputJSON:  inputJSON,
		Prediction: prediction,
	}
	s.nextID++
	s.rows = append(s.rows, row)
	return &row, nil
}

// Query returns rows newest first.
func (s *MemoryStore) Query(_ context.Context, filter QueryFilter) ([]PredictionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []PredictionRow
	for i := len(s.rows) - 1; i >= 0; i-- {
		out = append(out, s.rows[i])
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of rows.
func (s *MemoryStore) Count(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.rows)), nil
}
