// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// CSVSource reads a dataset snapshot written by WriteSnapshot.
type CSVSource struct {
	path string
}

// NewCSVSource creates a CSVSource for path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Name implements Source.
func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

// Fetch implements Source.
func (s *CSVSource) Fetch(_ context.Context) (*Dataset, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a snapshot. Columns are matched by header name, so their
// order in the file does not matter.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrDataUnavailable, err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}

	cols := make([]int, len(FeatureNames))
	for i, name := range FeatureNames {
		c, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrDataUnavailable, name)
		}
		cols[i] = c
	}
	targetCol, ok := index[TargetName]
	if !ok {
		return nil, fmt.Errorf("%w: missing column %q", ErrDataUnavailable, TargetName)
	}

	ds := &Dataset{
		FeatureNames: append([]string(nil), FeatureNames...),
		TargetName:   TargetName,
	}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrDataUnavailable, line, err)
		}

		row := make([]float64, len(cols))
		for i, c := range cols {
			if row[i], err = strconv.ParseFloat(rec[c], 64); err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %w", ErrDataUnavailable, line, FeatureNames[i], err)
			}
		}
		y, err := strconv.ParseFloat(rec[targetCol], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d column %s: %w", ErrDataUnavailable, line, TargetName, err)
		}
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, y)
	}

	if err := ds.validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

// WriteSnapshot writes ds as CSV with a header row, replacing path atomically.
func WriteSnapshot(path string, ds *Dataset) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".housing-*.csv")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := writeCSV(tmp, ds); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, ds *Dataset) error {
	cw := csv.NewWriter(w)

	header := append(append([]string(nil), ds.FeatureNames...), ds.TargetName)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write snapshot header: %w", err)
	}

	rec := make([]string, len(header))
	for i, row := range ds.X {
		for j, v := range row {
			rec[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		rec[len(row)] = strconv.FormatFloat(ds.Y[i], 'g', -1, 64)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write snapshot row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}
