// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package tracking

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore implements Store in memory. Data is lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]Run
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]Run)}
}

// Save stores a copy of run.
func (s *MemoryStore) Save(_ context.Context, run *Run) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.RunID] = run.clone()
	return nil
}

// Get returns a copy of the run.
func (s *MemoryStore) Get(_ context.Context, runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	out := r.clone()
	return &out, nil
}

// List returns the experiment's runs ordered by start time.
func (s *MemoryStore) List(_ context.Context, experiment string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Run
	for _, r := range s.runs {
		if r.Experiment == experiment {
			out = append(out, r.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].RunID < out[j].RunID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

// Count returns the number of runs in the experiment.
func (s *MemoryStore) Count(_ context.Context, experiment string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, r := range s.runs {
		if r.Experiment == experiment {
			n++
		}
	}
	return n, nil
}
