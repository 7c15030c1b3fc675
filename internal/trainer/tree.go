// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package trainer

import (
	"context"
	"fmt"
	"sort"
)

// leafMarker marks a node without children.
const leafMarker = -1

// TreeNode is one node of a flattened regression tree. Internal nodes send
// x[Feature] <= Threshold to Left and everything else to Right.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Samples   int     `json:"samples"`
}

// IsLeaf reports whether the node has no children.
func (n *TreeNode) IsLeaf() bool {
	return n.Left == leafMarker
}

// TreeModel is a CART regression tree stored in preorder.
type TreeModel struct {
	baseModel
	MaxDepth        int        `json:"max_depth"`
	MinSamplesSplit int        `json:"min_samples_split"`
	Nodes           []TreeNode `json:"nodes"`
}

// Predict implements Model.
func (m *TreeModel) Predict(x []float64) float64 {
	i := 0
	for {
		n := &m.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// PredictBatch implements Model.
func (m *TreeModel) PredictBatch(X [][]float64) []float64 {
	return predictBatch(m.Predict, X)
}

// Depth returns the length of the longest root-to-leaf path.
func (m *TreeModel) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := &m.Nodes[i]
		if n.IsLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	if len(m.Nodes) == 0 {
		return 0
	}
	return walk(0)
}

type treeTrainer struct {
	maxDepth        int
	minSamplesSplit int
}

func newTreeTrainer(p Params) (Trainer, error) {
	t, err := newTreeConfig(p)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func newTreeConfig(p Params) (treeTrainer, error) {
	if p.MaxDepth < 0 {
		return treeTrainer{}, fmt.Errorf("%w: max_depth %d must be >= 1 or unbounded", ErrInvalidParams, p.MaxDepth)
	}
	minSplit := p.MinSamplesSplit
	if minSplit == 0 {
		minSplit = 2
	}
	if minSplit < 2 {
		return treeTrainer{}, fmt.Errorf("%w: min_samples_split %d must be >= 2", ErrInvalidParams, minSplit)
	}
	return treeTrainer{maxDepth: p.MaxDepth, minSamplesSplit: minSplit}, nil
}

func (t *treeTrainer) Family() string { return FamilyDecisionTree }

func (t *treeTrainer) Params() map[string]string {
	return map[string]string{
		"max_depth":         formatDepth(t.maxDepth),
		"min_samples_split": fmt.Sprint(t.minSamplesSplit),
	}
}

func (t *treeTrainer) Fit(ctx context.Context, X [][]float64, y []float64) (Model, error) {
	n, p, err := checkTrainingData(X, y)
	if err != nil {
		return nil, err
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.fitIndices(ctx, FamilyDecisionTree, X, y, p, idx)
}

// fitIndices grows a tree over the rows listed in idx. Rows may repeat,
// which is how the forest passes a bootstrap sample.
func (t *treeTrainer) fitIndices(ctx context.Context, family string, X [][]float64, y []float64, p int, idx []int) (*TreeModel, error) {
	b := &treeBuilder{
		ctx:             ctx,
		X:               X,
		y:               y,
		features:        p,
		maxDepth:        t.maxDepth,
		minSamplesSplit: t.minSamplesSplit,
		order:           make([]int, len(idx)),
	}
	if _, err := b.grow(idx, 0); err != nil {
		return nil, err
	}
	return &TreeModel{
		baseModel:       newBaseModel(family, p),
		MaxDepth:        t.maxDepth,
		MinSamplesSplit: t.minSamplesSplit,
		Nodes:           b.nodes,
	}, nil
}

type treeBuilder struct {
	ctx             context.Context
	X               [][]float64
	y               []float64
	features        int
	maxDepth        int
	minSamplesSplit int
	nodes           []TreeNode
	order           []int // scratch buffer for sorting
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	found     bool
}

// grow appends the subtree for idx in preorder and returns its root index.
func (b *treeBuilder) grow(idx []int, depth int) (int, error) {
	if contextCancelled(b.ctx) {
		return 0, b.ctx.Err()
	}

	var sum, sumSq float64
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	count := float64(len(idx))
	mean := sum / count

	self := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{
		Feature: leafMarker,
		Left:    leafMarker,
		Right:   leafMarker,
		Value:   mean,
		Samples: len(idx),
	})

	pure := sumSq-sum*sum/count <= 1e-12*count
	if pure || len(idx) < b.minSamplesSplit || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return self, nil
	}

	best := b.bestSplit(idx, sum)
	if !best.found {
		return self, nil
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.X[i][best.feature] <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l, err := b.grow(left, depth+1)
	if err != nil {
		return 0, err
	}
	r, err := b.grow(right, depth+1)
	if err != nil {
		return 0, err
	}

	node := &b.nodes[self]
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = l
	node.Right = r
	return self, nil
}

// bestSplit scans every feature and every midpoint between consecutive
// distinct values. Minimizing the children's squared error is equivalent to
// maximizing sumL^2/nL + sumR^2/nR. Only a strictly better candidate replaces
// the current best, so the first feature and lowest threshold win ties.
func (b *treeBuilder) bestSplit(idx []int, total float64) split {
	n := len(idx)
	order := b.order[:n]
	best := split{}

	for f := 0; f < b.features; f++ {
		copy(order, idx)
		sort.SliceStable(order, func(i, j int) bool {
			return b.X[order[i]][f] < b.X[order[j]][f]
		})

		var sumL float64
		for k := 0; k < n-1; k++ {
			sumL += b.y[order[k]]
			lo := b.X[order[k]][f]
			hi := b.X[order[k+1]][f]
			if lo == hi {
				continue
			}

			nL := float64(k + 1)
			nR := float64(n - k - 1)
			sumR := total - sumL
			gain := sumL*sumL/nL + sumR*sumR/nR

			if !best.found || gain > best.gain {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, gain: gain, found: true}
			}
		}
	}
	return best
}
