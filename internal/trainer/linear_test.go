// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package trainer

import (
	"context"
	"math"
	"testing"
)

func TestLinear_ExactFit(t *testing.T) {
	t.Parallel()

	X, y := planeData()
	m, err := Fit(context.Background(), FamilyLinear, Params{}, X, y)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	lm := m.(*LinearModel)

	want := []float64{2, -3}
	for j, w := range want {
		if !approxEqual(lm.Coef[j], w, 1e-9) {
			t.Errorf("Coef[%d] = %v, want %v", j, lm.Coef[j], w)
		}
	}
	if !approxEqual(lm.Intercept, 5, 1e-9) {
		t.Errorf("Intercept = %v, want 5", lm.Intercept)
	}

	mse, err := MeanSquaredError(m, X, y)
	if err != nil {
		t.Fatalf("MeanSquaredError() error = %v", err)
	}
	if mse > 1e-16 {
		t.Errorf("MeanSquaredError() = %v, want ~0", mse)
	}
}

func TestRidge_Shrinkage(t *testing.T) {
	t.Parallel()

	X, y := planeData()
	var yMean float64
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(len(y))

	norm := func(alpha float64) (float64, *LinearModel) {
		m, err := Fit(context.Background(), FamilyRidge, Params{Alpha: alpha}, X, y)
		if err != nil {
			t.Fatalf("Fit(alpha=%v) error = %v", alpha, err)
		}
		lm := m.(*LinearModel)
		var s float64
		for _, w := range lm.Coef {
			s += w * w
		}
		return math.Sqrt(s), lm
	}

	n0, _ := norm(0)
	n1, _ := norm(1)
	n2, huge := norm(1e9)

	if !(n0 > n1 && n1 > n2) {
		t.Errorf("coefficient norms = %v, %v, %v, want strictly decreasing", n0, n1, n2)
	}
	if !approxEqual(huge.Intercept, yMean, 1e-6) {
		t.Errorf("Intercept at huge alpha = %v, want target mean %v", huge.Intercept, yMean)
	}
	if huge.Alpha != 1e9 {
		t.Errorf("Alpha = %v, want 1e9", huge.Alpha)
	}
}

func TestLinear_SingularFallsBackToPseudoInverse(t *testing.T) {
	t.Parallel()

	// Two identical columns make the Gram matrix singular. The minimum-norm
	// solution splits the weight evenly.
	X := [][]float64{{-1, -1}, {1, 1}, {-1, -1}, {1, 1}}
	y := []float64{-1, 3, -1, 3}

	m, err := Fit(context.Background(), FamilyLinear, Params{}, X, y)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	lm := m.(*LinearModel)

	for j, w := range lm.Coef {
		if !approxEqual(w, 1, 1e-9) {
			t.Errorf("Coef[%d] = %v, want 1", j, w)
		}
	}
	if !approxEqual(lm.Intercept, 1, 1e-9) {
		t.Errorf("Intercept = %v, want 1", lm.Intercept)
	}
}

func TestCholesky_NotPositiveDefinite(t *testing.T) {
	t.Parallel()

	if _, err := choleskyDecomposition([][]float64{{1, 2}, {2, 1}}); err == nil {
		t.Error("choleskyDecomposition() error = nil, want error for indefinite matrix")
	}
}

func TestPseudoInverse_Invertible(t *testing.T) {
	t.Parallel()

	A := [][]float64{{4, 1}, {1, 3}}
	inv := pseudoInverse(A)
	prod := newMatrix(2, 2)
	mulInto(prod, A, inv)
	for i := range prod {
		for j := range prod[i] {
			want := 0.0
			if i == j {
				want = 1
			}
			if !approxEqual(prod[i][j], want, 1e-10) {
				t.Errorf("(A*inv)[%d][%d] = %v, want %v", i, j, prod[i][j], want)
			}
		}
	}
}
