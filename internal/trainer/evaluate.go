// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package trainer

import "fmt"

// MeanSquaredError evaluates m on a held-out set.
func MeanSquaredError(m Model, X [][]float64, y []float64) (float64, error) {
	if len(X) == 0 {
		return 0, fmt.Errorf("%w: empty evaluation set", ErrInvalidTrainingData)
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("%w: %d rows but %d targets", ErrInvalidTrainingData, len(X), len(y))
	}
	for i, row := range X {
		if len(row) != m.NumFeatures() {
			return 0, fmt.Errorf("%w: row %d has %d features, model expects %d",
				ErrInvalidTrainingData, i, len(row), m.NumFeatures())
		}
	}

	preds := m.PredictBatch(X)
	var sum float64
	for i, p := range preds {
		d := y[i] - p
		sum += d * d
	}
	return sum / float64(len(y)), nil
}
