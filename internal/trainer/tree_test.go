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

func fitTree(t *testing.T, p Params, X [][]float64, y []float64) *TreeModel {
	t.Helper()
	m, err := Fit(context.Background(), FamilyDecisionTree, p, X, y)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	return m.(*TreeModel)
}

func TestTree_StepFunction(t *testing.T) {
	t.Parallel()

	m := fitTree(t, Params{}, [][]float64{{1}, {2}, {3}, {4}}, []float64{0, 0, 10, 10})

	if len(m.Nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(m.Nodes))
	}
	root := m.Nodes[0]
	if root.Feature != 0 || root.Threshold != 2.5 {
		t.Errorf("root split = feature %d at %v, want feature 0 at 2.5", root.Feature, root.Threshold)
	}
	if root.Left != 1 || root.Right != 2 {
		t.Errorf("root children = %d/%d, want 1/2 (preorder)", root.Left, root.Right)
	}

	tests := []struct {
		x    float64
		want float64
	}{
		{x: -5, want: 0},
		{x: 2.5, want: 0},
		{x: 2.51, want: 10},
		{x: 100, want: 10},
	}
	for _, tt := range tests {
		if got := m.Predict([]float64{tt.x}); got != tt.want {
			t.Errorf("Predict(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestTree_TiePrefersFirstFeature(t *testing.T) {
	t.Parallel()

	m := fitTree(t, Params{}, [][]float64{{1, 1}, {2, 2}}, []float64{0, 1})
	if m.Nodes[0].Feature != 0 {
		t.Errorf("root feature = %d, want 0", m.Nodes[0].Feature)
	}
}

func TestTree_ThresholdStaysBelowUpperValue(t *testing.T) {
	t.Parallel()

	hi := math.Nextafter(1, 2)
	m := fitTree(t, Params{}, [][]float64{{1}, {hi}}, []float64{0, 1})

	if m.Nodes[0].Threshold != 1 {
		t.Errorf("Threshold = %v, want 1", m.Nodes[0].Threshold)
	}
	if got := m.Predict([]float64{hi}); got != 1 {
		t.Errorf("Predict(hi) = %v, want 1", got)
	}
	if got := m.Predict([]float64{1}); got != 0 {
		t.Errorf("Predict(lo) = %v, want 0", got)
	}
}

func TestTree_StoppingRules(t *testing.T) {
	t.Parallel()

	X := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}}
	y := []float64{0, 1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name      string
		params    Params
		wantDepth int
		wantNodes int
	}{
		{name: "unbounded grows to purity", params: Params{}, wantDepth: 3, wantNodes: 15},
		{name: "max depth one", params: Params{MaxDepth: 1}, wantDepth: 1, wantNodes: 3},
		{name: "max depth two", params: Params{MaxDepth: 2}, wantDepth: 2, wantNodes: 7},
		{name: "min samples split above n", params: Params{MinSamplesSplit: 9}, wantDepth: 0, wantNodes: 1},
		{name: "min samples split five", params: Params{MinSamplesSplit: 5}, wantDepth: 1, wantNodes: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := fitTree(t, tt.params, X, y)
			if got := m.Depth(); got != tt.wantDepth {
				t.Errorf("Depth() = %d, want %d", got, tt.wantDepth)
			}
			if got := len(m.Nodes); got != tt.wantNodes {
				t.Errorf("len(Nodes) = %d, want %d", got, tt.wantNodes)
			}
			if m.Nodes[0].Samples != len(X) {
				t.Errorf("root Samples = %d, want %d", m.Nodes[0].Samples, len(X))
			}
		})
	}
}

func TestTree_PureNodeIsLeaf(t *testing.T) {
	t.Parallel()

	m := fitTree(t, Params{}, [][]float64{{1}, {2}, {3}}, []float64{4, 4, 4})
	if len(m.Nodes) != 1 || !m.Nodes[0].IsLeaf() {
		t.Fatalf("Nodes = %+v, want a single leaf", m.Nodes)
	}
	if m.Nodes[0].Value != 4 {
		t.Errorf("leaf Value = %v, want 4", m.Nodes[0].Value)
	}
}

func TestTree_ConstantFeatureIsLeaf(t *testing.T) {
	t.Parallel()

	m := fitTree(t, Params{}, [][]float64{{3}, {3}, {3}, {3}}, []float64{1, 2, 3, 4})
	if len(m.Nodes) != 1 {
		t.Fatalf("len(Nodes) = %d, want 1", len(m.Nodes))
	}
	if m.Nodes[0].Value != 2.5 {
		t.Errorf("leaf Value = %v, want 2.5", m.Nodes[0].Value)
	}
}
