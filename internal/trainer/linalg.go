// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package trainer

import (
	"fmt"
	"math"
)

// choleskyDecomposition computes the Cholesky factor L of a symmetric
// positive-definite matrix A such that A = L * L'.
//
//nolint:gocritic // A, L follow standard linear algebra notation
func choleskyDecomposition(A [][]float64) ([][]float64, error) {
	n := len(A)
	L := newMatrix(n, n)

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}

			if i == j {
				if sum <= 0 || math.IsNaN(sum) {
					return nil, fmt.Errorf("matrix is not positive definite")
				}
				L[i][j] = math.Sqrt(sum)
			} else {
				L[i][j] = sum / L[j][j]
			}
		}
	}

	return L, nil
}

// choleskySolve solves L L' x = b by forward then back substitution.
//
//nolint:gocritic // L follows standard linear algebra notation
func choleskySolve(L [][]float64, b []float64) []float64 {
	n := len(L)

	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= L[i][k] * z[k]
		}
		z[i] = sum / L[i][i]
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for k := i + 1; k < n; k++ {
			sum -= L[k][i] * x[k]
		}
		x[i] = sum / L[i][i]
	}
	return x
}

// pseudoInverse approximates the Moore-Penrose inverse of a square matrix
// with Newton-Schulz iteration X <- X(2I - AX). Starting from
// A' / (||A||_1 ||A||_inf) the iteration converges for any A, including
// singular ones, which is the case the Cholesky path cannot handle.
//
//nolint:gocritic // A follows standard linear algebra notation
func pseudoInverse(A [][]float64) [][]float64 {
	n := len(A)

	var norm1, normInf float64
	for i := 0; i < n; i++ {
		var row, col float64
		for j := 0; j < n; j++ {
			row += math.Abs(A[i][j])
			col += math.Abs(A[j][i])
		}
		normInf = math.Max(normInf, row)
		norm1 = math.Max(norm1, col)
	}

	inv := newMatrix(n, n)
	if norm1 == 0 || normInf == 0 {
		return inv
	}
	scale := 1 / (norm1 * normInf)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			inv[i][j] = A[j][i] * scale
		}
	}

	ax := newMatrix(n, n)
	for iter := 0; iter < 200; iter++ {
		mulInto(ax, A, inv)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j {
					ax[i][j] = 2 - ax[i][j]
				} else {
					ax[i][j] = -ax[i][j]
				}
			}
		}
		next := newMatrix(n, n)
		mulInto(next, inv, ax)

		var delta float64
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				delta = math.Max(delta, math.Abs(next[i][j]-inv[i][j]))
			}
		}
		inv = next
		if delta < 1e-14 {
			break
		}
	}
	return inv
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

// mulInto stores A*B in dst.
//
//nolint:gocritic // A, B follow standard linear algebra notation
func mulInto(dst, A, B [][]float64) {
	for i := range A {
		for j := range B[0] {
			var sum float64
			for k := range B {
				sum += A[i][k] * B[k][j]
			}
			dst[i][j] = sum
		}
	}
}

func matVec(A [][]float64, x []float64) []float64 {
	out := make([]float64, len(A))
	for i, row := range A {
		var sum float64
		for j, v := range row {
			sum += v * x[j]
		}
		out[i] = sum
	}
	return out
}
