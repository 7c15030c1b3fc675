// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package trainer

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"strconv"
	"sync"
)

// forestStream is the fixed second PCG word for bootstrap draws.
const forestStream = 0xda3e39cb94b95bdb

// ForestModel averages the predictions of bootstrap-trained trees.
type ForestModel struct {
	baseModel
	NEstimators int          `json:"n_estimators"`
	MaxDepth    int          `json:"max_depth"`
	RandomState int64        `json:"random_state"`
	Trees       []*TreeModel `json:"trees"`
}

// Predict implements Model.
func (m *ForestModel) Predict(x []float64) float64 {
	var sum float64
	for _, t := range m.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(m.Trees))
}

// PredictBatch implements Model.
func (m *ForestModel) PredictBatch(X [][]float64) []float64 {
	return predictBatch(m.Predict, X)
}

type forestTrainer struct {
	tree        treeTrainer
	nEstimators int
	randomState int64
	numWorkers  int
}

func newForestTrainer(p Params) (Trainer, error) {
	tree, err := newTreeConfig(p)
	if err != nil {
		return nil, err
	}
	n := p.NEstimators
	if n == 0 {
		n = 10
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: n_estimators %d must be >= 1", ErrInvalidParams, n)
	}
	return &forestTrainer{
		tree:        tree,
		nEstimators: n,
		randomState: p.RandomState,
		numWorkers:  runtime.NumCPU(),
	}, nil
}

func (t *forestTrainer) Family() string { return FamilyRandomForest }

func (t *forestTrainer) Params() map[string]string {
	return map[string]string{
		"max_depth":         formatDepth(t.tree.maxDepth),
		"min_samples_split": strconv.Itoa(t.tree.minSamplesSplit),
		"n_estimators":      strconv.Itoa(t.nEstimators),
		"random_state":      strconv.FormatInt(t.randomState, 10),
	}
}

// Fit grows the trees in parallel. Tree i draws its bootstrap sample from a
// PCG seeded with RandomState+i, so the result does not depend on scheduling.
func (t *forestTrainer) Fit(ctx context.Context, X [][]float64, y []float64) (Model, error) {
	n, p, err := checkTrainingData(X, y)
	if err != nil {
		return nil, err
	}

	trees := make([]*TreeModel, t.nEstimators)
	errs := make([]error, t.nEstimators)
	jobs := make(chan int)

	workers := min(t.numWorkers, t.nEstimators)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if contextCancelled(ctx) {
					errs[i] = ctx.Err()
					continue
				}
				rng := rand.New(rand.NewPCG(uint64(t.randomState)+uint64(i), forestStream))
				idx := make([]int, n)
				for k := range idx {
					idx[k] = rng.IntN(n)
				}
				trees[i], errs[i] = t.tree.fitIndices(ctx, FamilyDecisionTree, X, y, p, idx)
			}
		}()
	}
	for i := 0; i < t.nEstimators; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}

	return &ForestModel{
		baseModel:   newBaseModel(FamilyRandomForest, p),
		NEstimators: t.nEstimators,
		MaxDepth:    t.tree.maxDepth,
		RandomState: t.randomState,
		Trees:       trees,
	}, nil
}
