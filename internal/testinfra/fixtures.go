// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

// Package testinfra provides shared fixtures for tests that need a real model
// artifact or a prediction payload.
//
//	path := testinfra.WriteLinearArtifact(t, t.TempDir())
//	svc, err := serving.NewService(serving.Options{ModelPath: path, Store: audit.NewMemoryStore()})
//	got, err := svc.Predict(ctx, testinfra.SampleFeatures())
//	want := testinfra.LinearTarget(testinfra.SampleVector())
package testinfra

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/homevalue/internal/dataset"
	"github.com/tomtom215/homevalue/internal/models"
	"github.com/tomtom215/homevalue/internal/trainer"
)

// linearCoef and linearIntercept define the plane the fixture model is
// fitted to, in canonical feature order.
var linearCoef = []float64{0.43, 0.0094, -0.107, 0.645, -0.000004, -0.0038, -0.42, -0.43}

const linearIntercept = -36.9

// LinearTarget returns the exact value the fixture model predicts for x.
func LinearTarget(x []float64) float64 {
	y := linearIntercept
	for j, c := range linearCoef {
		y += c * x[j]
	}
	return y
}

// LinearModel fits an ordinary least squares model to noiseless rows on the
// fixture plane, so it recovers the plane to within rounding.
func LinearModel(t testing.TB) trainer.Model {
	t.Helper()

	rng := rand.New(rand.NewPCG(1, 2))
	X := make([][]float64, 64)
	y := make([]float64, len(X))
	for i := range X {
		X[i] = []float64{
			1 + 9*rng.Float64(),
			1 + 50*rng.Float64(),
			2 + 6*rng.Float64(),
			0.5 + rng.Float64(),
			100 + 3000*rng.Float64(),
			1 + 4*rng.Float64(),
			32 + 10*rng.Float64(),
			-124 + 10*rng.Float64(),
		}
		y[i] = LinearTarget(X[i])
	}

	m, err := trainer.Fit(context.Background(), trainer.FamilyLinear, trainer.Params{}, X, y)
	if err != nil {
		t.Fatalf("fit fixture model: %v", err)
	}
	return m
}

// WriteLinearArtifact writes the fixture model to dir/model.json and returns
// the path.
func WriteLinearArtifact(t testing.TB, dir string) string {
	t.Helper()
	return WriteArtifact(t, filepath.Join(dir, "model.json"), LinearModel(t))
}

// WriteArtifact encodes m with the canonical feature names and writes it to path.
func WriteArtifact(t testing.TB, path string, m trainer.Model) string {
	t.Helper()
	data, err := trainer.EncodeModel(m, dataset.FeatureNames)
	if err != nil {
		t.Fatalf("encode fixture model: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("create artifact dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write fixture model: %v", err)
	}
	return path
}

// SampleVector is the first row of the California Housing data in canonical order.
func SampleVector() []float64 {
	return []float64{8.3252, 41, 6.984127, 1.02381, 322, 2.555556, 37.88, -122.23}
}

// SampleFeatures returns SampleVector as a prediction payload.
func SampleFeatures() *models.HouseFeatures {
	v := SampleVector()
	return &models.HouseFeatures{
		MedInc:     &v[0],
		HouseAge:   &v[1],
		AveRooms:   &v[2],
		AveBedrms:  &v[3],
		Population: &v[4],
		AveOccup:   &v[5],
		Latitude:   &v[6],
		Longitude:  &v[7],
	}
}

// SamplePayload is SampleFeatures as a JSON request body.
const SamplePayload = `{"MedInc":8.3252,"HouseAge":41,"AveRooms":6.984127,"AveBedrms":1.02381,` +
	`"Population":322,"AveOccup":2.555556,"Latitude":37.88,"Longitude":-122.23}`
