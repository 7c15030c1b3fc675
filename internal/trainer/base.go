// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package trainer

// baseModel carries what every fitted model shares.
type baseModel struct {
	family   string
	Features int `json:"n_features"`
}

func newBaseModel(family string, features int) baseModel {
	return baseModel{family: family, Features: features}
}

// Family returns the model family name.
func (b *baseModel) Family() string {
	return b.family
}

// NumFeatures returns the fitted feature count.
func (b *baseModel) NumFeatures() int {
	return b.Features
}

// predictBatch applies predict to every row.
func predictBatch(predict func([]float64) float64, X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = predict(row)
	}
	return out
}
