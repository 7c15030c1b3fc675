// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

// Package trainer fits and evaluates regression models.
//
// # Families
//
//   - ridge: closed-form L2-regularized least squares with an unpenalized intercept
//   - linear: ridge with alpha = 0
//   - decision_tree: CART regression tree, squared-error criterion
//   - random_forest: bootstrap-aggregated CART trees
//
// Every fitted Model is immutable and safe for concurrent Predict calls.
// Ridge, linear and decision_tree are deterministic; random_forest is
// deterministic for a fixed RandomState.
//
// Models serialize with EncodeModel and DecodeModel into a versioned JSON
// envelope so that the serving process can load what training produced.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Model families.
const (
	FamilyRidge        = "ridge"
	FamilyLinear       = "linear"
	FamilyDecisionTree = "decision_tree"
	FamilyRandomForest = "random_forest"
)

var (
	// ErrUnknownFamily is returned for a family with no registered trainer.
	ErrUnknownFamily = errors.New("unknown model family")

	// ErrInvalidTrainingData is returned for empty, ragged or mismatched input.
	ErrInvalidTrainingData = errors.New("invalid training data")

	// ErrInvalidParams is returned for out-of-range hyperparameters.
	ErrInvalidParams = errors.New("invalid hyperparameters")
)

// Params holds the hyperparameters of every family. Each family reads only
// the fields it uses.
type Params struct {
	// Alpha is the ridge penalty. Must be >= 0.
	Alpha float64

	// MaxDepth limits tree depth; 0 means unbounded.
	MaxDepth int

	// MinSamplesSplit is the smallest node that may be split. Must be >= 2.
	MinSamplesSplit int

	// NEstimators is the number of trees in a forest.
	NEstimators int

	// RandomState seeds the forest bootstrap.
	RandomState int64
}

// DefaultParams returns the default hyperparameters.
func DefaultParams() Params {
	return Params{
		Alpha:           1.0,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		NEstimators:     10,
		RandomState:     42,
	}
}

// Model is a fitted regression model.
type Model interface {
	// Family returns the model family name.
	Family() string

	// NumFeatures returns the feature vector length the model was fitted on.
	NumFeatures() int

	// Predict returns the prediction for one feature vector.
	Predict(x []float64) float64

	// PredictBatch returns one prediction per row of X.
	PredictBatch(X [][]float64) []float64
}

// Trainer fits one model family.
type Trainer interface {
	Family() string

	// Params returns the hyperparameters relevant to this family, formatted
	// for experiment tracking.
	Params() map[string]string

	Fit(ctx context.Context, X [][]float64, y []float64) (Model, error)
}

// Factory builds a Trainer from hyperparameters.
type Factory func(p Params) (Trainer, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[string]Factory{}
)

// Register adds a family. Registering an existing family replaces it.
func Register(family string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[family] = f
}

func init() {
	Register(FamilyRidge, func(p Params) (Trainer, error) { return newRidgeTrainer(FamilyRidge, p.Alpha) })
	Register(FamilyLinear, func(Params) (Trainer, error) { return newRidgeTrainer(FamilyLinear, 0) })
	Register(FamilyDecisionTree, newTreeTrainer)
	Register(FamilyRandomForest, newForestTrainer)
}

// Families returns the registered family names in sorted order.
func Families() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	out := make([]string, 0, len(factories))
	for name := range factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New returns the Trainer for family.
func New(family string, p Params) (Trainer, error) {
	factoriesMu.RLock()
	f, ok := factories[family]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFamily, family)
	}
	return f(p)
}

// Fit trains a model of the given family on X and y.
func Fit(ctx context.Context, family string, p Params, X [][]float64, y []float64) (Model, error) {
	t, err := New(family, p)
	if err != nil {
		return nil, err
	}
	return t.Fit(ctx, X, y)
}

// checkTrainingData verifies X is a non-empty rectangular matrix matching y.
func checkTrainingData(X [][]float64, y []float64) (rows, cols int, err error) {
	if len(X) == 0 {
		return 0, 0, fmt.Errorf("%w: no rows", ErrInvalidTrainingData)
	}
	if len(X) != len(y) {
		return 0, 0, fmt.Errorf("%w: %d rows but %d targets", ErrInvalidTrainingData, len(X), len(y))
	}
	cols = len(X[0])
	if cols == 0 {
		return 0, 0, fmt.Errorf("%w: no features", ErrInvalidTrainingData)
	}
	for i, row := range X {
		if len(row) != cols {
			return 0, 0, fmt.Errorf("%w: row %d has %d features, want %d", ErrInvalidTrainingData, i, len(row), cols)
		}
	}
	return len(X), cols, nil
}

// contextCancelled reports whether ctx is done without blocking.
func contextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// formatDepth renders a depth limit the way experiment params show it.
func formatDepth(d int) string {
	if d <= 0 {
		return "None"
	}
	return strconv.Itoa(d)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
