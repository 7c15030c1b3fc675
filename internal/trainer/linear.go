// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package trainer

import (
	"context"
	"fmt"
	"math"
)

// LinearModel is y = Coef . x + Intercept.
type LinearModel struct {
	baseModel
	Coef      []float64 `json:"coef"`
	Intercept float64   `json:"intercept"`
	Alpha     float64   `json:"alpha"`
}

// Predict implements Model.
func (m *LinearModel) Predict(x []float64) float64 {
	y := m.Intercept
	for j, w := range m.Coef {
		y += w * x[j]
	}
	return y
}

// PredictBatch implements Model.
func (m *LinearModel) PredictBatch(X [][]float64) []float64 {
	return predictBatch(m.Predict, X)
}

type ridgeTrainer struct {
	family string
	alpha  float64
}

func newRidgeTrainer(family string, alpha float64) (Trainer, error) {
	if alpha < 0 || math.IsNaN(alpha) || math.IsInf(alpha, 0) {
		return nil, fmt.Errorf("%w: alpha %v must be a finite value >= 0", ErrInvalidParams, alpha)
	}
	return &ridgeTrainer{family: family, alpha: alpha}, nil
}

func (t *ridgeTrainer) Family() string { return t.family }

func (t *ridgeTrainer) Params() map[string]string {
	if t.family == FamilyLinear {
		return map[string]string{}
	}
	return map[string]string{"alpha": formatFloat(t.alpha)}
}

// Fit solves (Xc'Xc + alpha*I) w = Xc'yc on centered data, then recovers the
// intercept from the means, so the intercept is never penalized.
func (t *ridgeTrainer) Fit(ctx context.Context, X [][]float64, y []float64) (Model, error) {
	n, p, err := checkTrainingData(X, y)
	if err != nil {
		return nil, err
	}
	if contextCancelled(ctx) {
		return nil, ctx.Err()
	}

	xMean := make([]float64, p)
	var yMean float64
	for i, row := range X {
		for j, v := range row {
			xMean[j] += v
		}
		yMean += y[i]
	}
	for j := range xMean {
		xMean[j] /= float64(n)
	}
	yMean /= float64(n)

	gram := newMatrix(p, p)
	rhs := make([]float64, p)
	xc := make([]float64, p)
	for i, row := range X {
		for j, v := range row {
			xc[j] = v - xMean[j]
		}
		yc := y[i] - yMean
		for j := 0; j < p; j++ {
			rhs[j] += xc[j] * yc
			for k := j; k < p; k++ {
				gram[j][k] += xc[j] * xc[k]
			}
		}
	}
	for j := 0; j < p; j++ {
		for k := 0; k < j; k++ {
			gram[j][k] = gram[k][j]
		}
		gram[j][j] += t.alpha
	}

	if contextCancelled(ctx) {
		return nil, ctx.Err()
	}

	var coef []float64
	if L, err := choleskyDecomposition(gram); err == nil {
		coef = choleskySolve(L, rhs)
	} else {
		coef = matVec(pseudoInverse(gram), rhs)
	}

	intercept := yMean
	for j, w := range coef {
		intercept -= w * xMean[j]
	}

	return &LinearModel{
		baseModel: newBaseModel(t.family, p),
		Coef:      coef,
		Intercept: intercept,
		Alpha:     t.alpha,
	}, nil
}
