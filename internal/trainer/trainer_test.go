// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package trainer

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// planeData returns rows on y = 2a - 3b + 5.
func planeData() ([][]float64, []float64) {
	X := [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {2, 1}, {1, 3}, {4, 2}}
	y := make([]float64, len(X))
	for i, r := range X {
		y[i] = 2*r[0] - 3*r[1] + 5
	}
	return X, y
}

func TestFamilies(t *testing.T) {
	t.Parallel()

	got := Families()
	want := []string{FamilyDecisionTree, FamilyLinear, FamilyRandomForest, FamilyRidge}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Families() = %v, want %v", got, want)
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		family  string
		params  Params
		wantErr error
		want    map[string]string
	}{
		{
			name:   "ridge",
			family: FamilyRidge,
			params: DefaultParams(),
			want:   map[string]string{"alpha": "1"},
		},
		{
			name:   "linear ignores alpha",
			family: FamilyLinear,
			params: Params{Alpha: 3},
			want:   map[string]string{},
		},
		{
			name:   "tree unbounded",
			family: FamilyDecisionTree,
			params: Params{},
			want:   map[string]string{"max_depth": "None", "min_samples_split": "2"},
		},
		{
			name:   "forest",
			family: FamilyRandomForest,
			params: Params{MaxDepth: 4, NEstimators: 3, RandomState: 7},
			want: map[string]string{
				"max_depth": "4", "min_samples_split": "2",
				"n_estimators": "3", "random_state": "7",
			},
		},
		{name: "unknown", family: "svm", wantErr: ErrUnknownFamily},
		{name: "negative alpha", family: FamilyRidge, params: Params{Alpha: -1}, wantErr: ErrInvalidParams},
		{name: "NaN alpha", family: FamilyRidge, params: Params{Alpha: math.NaN()}, wantErr: ErrInvalidParams},
		{name: "negative depth", family: FamilyDecisionTree, params: Params{MaxDepth: -1}, wantErr: ErrInvalidParams},
		{name: "min split one", family: FamilyDecisionTree, params: Params{MinSamplesSplit: 1}, wantErr: ErrInvalidParams},
		{name: "negative estimators", family: FamilyRandomForest, params: Params{NEstimators: -2}, wantErr: ErrInvalidParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tr, err := New(tt.family, tt.params)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if tr.Family() != tt.family {
				t.Errorf("Family() = %q, want %q", tr.Family(), tt.family)
			}
			if got := tr.Params(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Params() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFit_InvalidTrainingData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		X    [][]float64
		y    []float64
	}{
		{name: "empty", X: nil, y: nil},
		{name: "length mismatch", X: [][]float64{{1}, {2}}, y: []float64{1}},
		{name: "no features", X: [][]float64{{}}, y: []float64{1}},
		{name: "ragged", X: [][]float64{{1, 2}, {3}}, y: []float64{1, 2}},
	}

	for _, family := range Families() {
		for _, tt := range tests {
			t.Run(family+"/"+tt.name, func(t *testing.T) {
				t.Parallel()
				_, err := Fit(context.Background(), family, DefaultParams(), tt.X, tt.y)
				if !errors.Is(err, ErrInvalidTrainingData) {
					t.Errorf("Fit() error = %v, want %v", err, ErrInvalidTrainingData)
				}
			})
		}
	}
}

func TestFit_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	X, y := planeData()

	for _, family := range Families() {
		t.Run(family, func(t *testing.T) {
			t.Parallel()
			_, err := Fit(ctx, family, DefaultParams(), X, y)
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Fit() error = %v, want %v", err, context.Canceled)
			}
		})
	}
}

func TestFit_Deterministic(t *testing.T) {
	t.Parallel()

	X, y := planeData()
	probe := [][]float64{{0.5, 0.5}, {3, 1}, {-1, 2}}

	for _, family := range Families() {
		t.Run(family, func(t *testing.T) {
			t.Parallel()
			p := Params{Alpha: 0.5, NEstimators: 5, RandomState: 11}
			a, err := Fit(context.Background(), family, p, X, y)
			if err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			b, err := Fit(context.Background(), family, p, X, y)
			if err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			if got, want := a.PredictBatch(probe), b.PredictBatch(probe); !reflect.DeepEqual(got, want) {
				t.Errorf("second fit predicts %v, want %v", got, want)
			}
		})
	}
}

func TestMeanSquaredError(t *testing.T) {
	t.Parallel()

	m := &LinearModel{baseModel: newBaseModel(FamilyLinear, 1), Coef: []float64{1}}

	got, err := MeanSquaredError(m, [][]float64{{1}, {2}}, []float64{2, 2})
	if err != nil {
		t.Fatalf("MeanSquaredError() error = %v", err)
	}
	if got != 0.5 {
		t.Errorf("MeanSquaredError() = %v, want 0.5", got)
	}

	bad := []struct {
		name string
		X    [][]float64
		y    []float64
	}{
		{name: "empty", X: nil, y: nil},
		{name: "length mismatch", X: [][]float64{{1}}, y: []float64{1, 2}},
		{name: "feature mismatch", X: [][]float64{{1, 2}}, y: []float64{1}},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := MeanSquaredError(m, tt.X, tt.y); !errors.Is(err, ErrInvalidTrainingData) {
				t.Errorf("MeanSquaredError() error = %v, want %v", err, ErrInvalidTrainingData)
			}
		})
	}
}
