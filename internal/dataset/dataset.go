// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

// Package dataset loads the California Housing dataset and splits it into
// reproducible train and test partitions.
//
// Two sources are supported: RemoteSource downloads and caches the original
// cal_housing.tgz archive, and CSVSource reads a snapshot previously written
// by Provider.Load. Every successful Load rewrites the snapshot.
package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/homevalue/internal/config"
	"github.com/tomtom215/homevalue/internal/logging"
)

// FeatureNames is the canonical feature order shared by training and serving.
var FeatureNames = []string{
	"MedInc",
	"HouseAge",
	"AveRooms",
	"AveBedrms",
	"Population",
	"AveOccup",
	"Latitude",
	"Longitude",
}

// TargetName is the regression target, median house value in $100,000s.
const TargetName = "MedHouseVal"

var (
	// ErrDataUnavailable is returned when the dataset cannot be fetched or parsed.
	ErrDataUnavailable = errors.New("dataset unavailable")

	// ErrInvalidSplit is returned for a test size outside (0,1) or one that
	// leaves either partition empty.
	ErrInvalidSplit = errors.New("invalid train/test split")
)

// Dataset is the full labeled table.
type Dataset struct {
	FeatureNames []string
	TargetName   string
	X            [][]float64
	Y            []float64
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Y)
}

func (d *Dataset) validate() error {
	if len(d.X) != len(d.Y) {
		return fmt.Errorf("%w: %d feature rows but %d targets", ErrDataUnavailable, len(d.X), len(d.Y))
	}
	if len(d.Y) == 0 {
		return fmt.Errorf("%w: no rows", ErrDataUnavailable)
	}
	for i, row := range d.X {
		if len(row) != len(d.FeatureNames) {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrDataUnavailable, i, len(row), len(d.FeatureNames))
		}
	}
	return nil
}

// Split is a train/test partition of a Dataset.
type Split struct {
	XTrain [][]float64
	XTest  [][]float64
	YTrain []float64
	YTest  []float64
}

// Source fetches the full dataset.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*Dataset, error)
}

// Provider loads a Dataset from its Source, snapshots it to disk and splits it.
type Provider struct {
	source       Source
	snapshotPath string
}

// NewProvider builds a Provider for the configured source.
func NewProvider(cfg *config.DatasetConfig) (*Provider, error) {
	var src Source
	switch cfg.Source {
	case "remote", "":
		src = NewRemoteSource(cfg)
	case "csv":
		src = NewCSVSource(cfg.CSVPath)
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.Source)
	}
	return NewProviderWithSource(src, cfg.SnapshotPath), nil
}

// NewProviderWithSource builds a Provider around an explicit Source. An empty
// snapshotPath disables the snapshot.
func NewProviderWithSource(src Source, snapshotPath string) *Provider {
	return &Provider{source: src, snapshotPath: snapshotPath}
}

// Load fetches the dataset, writes the CSV snapshot and returns the split.
// Identical (testSize, randomState) arguments yield identical splits.
func (p *Provider) Load(ctx context.Context, testSize float64, randomState int64) (*Split, error) {
	if err := checkTestSize(testSize); err != nil {
		return nil, err
	}

	ds, err := p.source.Fetch(ctx)
	if err != nil {
		if errors.Is(err, ErrDataUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrDataUnavailable, p.source.Name(), err)
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}

	logging.Info().
		Str("source", p.source.Name()).
		Int("rows", ds.Len()).
		Msg("Dataset loaded")

	if p.snapshotPath != "" {
		if err := WriteSnapshot(p.snapshotPath, ds); err != nil {
			return nil, fmt.Errorf("write dataset snapshot: %w", err)
		}
		logging.Debug().Str("path", p.snapshotPath).Msg("Dataset snapshot written")
	}

	return SplitDataset(ds, testSize, randomState)
}
