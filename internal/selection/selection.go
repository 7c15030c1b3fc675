// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

// Package selection picks the winning candidate of a training run.
package selection

import (
	"errors"
	"math"
)

// ErrNoCandidates is returned by Select for an empty input.
var ErrNoCandidates = errors.New("no candidates to select from")

// Result is one evaluated candidate. Lower Metric is better.
type Result struct {
	CandidateName string  `json:"candidate"`
	Metric        float64 `json:"metric"`
	RunID         string  `json:"run_id"`
	ArtifactURI   string  `json:"artifact_uri"`
}

// Select returns the result with the smallest metric. The earliest entry wins
// an exact tie. NaN never wins against a number; if every metric is NaN the
// first entry is returned.
func Select(results []Result) (Result, error) {
	if len(results) == 0 {
		return Result{}, ErrNoCandidates
	}
	best := results[0]
	for _, r := range results[1:] {
		if math.IsNaN(r.Metric) {
			continue
		}
		if math.IsNaN(best.Metric) || r.Metric < best.Metric {
			best = r
		}
	}
	return best, nil
}
