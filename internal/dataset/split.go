// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// splitStream is the fixed second PCG word; the first is the random state.
const splitStream = 0x9e3779b97f4a7c15

func checkTestSize(testSize float64) error {
	if math.IsNaN(testSize) || testSize <= 0 || testSize >= 1 {
		return fmt.Errorf("%w: test size %v must be in (0, 1)", ErrInvalidSplit, testSize)
	}
	return nil
}

// SplitDataset partitions ds with a seeded permutation. The first
// ceil(testSize*n) permuted rows form the test set and the rest the training
// set, both kept in permutation order.
func SplitDataset(ds *Dataset, testSize float64, randomState int64) (*Split, error) {
	if err := checkTestSize(testSize); err != nil {
		return nil, err
	}

	n := ds.Len()
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, fmt.Errorf("%w: %d rows with test size %v leaves %d train and %d test rows",
			ErrInvalidSplit, n, testSize, nTrain, nTest)
	}

	rng := rand.New(rand.NewPCG(uint64(randomState), splitStream))
	perm := rng.Perm(n)

	split := &Split{
		XTest:  make([][]float64, nTest),
		YTest:  make([]float64, nTest),
		XTrain: make([][]float64, nTrain),
		YTrain: make([]float64, nTrain),
	}
	for i, idx := range perm[:nTest] {
		split.XTest[i] = ds.X[idx]
		split.YTest[i] = ds.Y[idx]
	}
	for i, idx := range perm[nTest:] {
		split.XTrain[i] = ds.X[idx]
		split.YTrain[i] = ds.Y[idx]
	}
	return split, nil
}
