// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package dataset

import (
	"archive/tar"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// archiveMember is the data file inside cal_housing.tgz.
const archiveMember = "CaliforniaHousing/cal_housing.data"

// Raw column positions in cal_housing.data.
const (
	rawLongitude = iota
	rawLatitude
	rawHousingMedianAge
	rawTotalRooms
	rawTotalBedrooms
	rawPopulation
	rawHouseholds
	rawMedianIncome
	rawMedianHouseValue
	rawColumns
)

// parseArchive extracts and parses the data member of a gzip-compressed tar.
func parseArchive(r io.Reader) (*Dataset, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open gzip: %w", ErrDataUnavailable, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: archive has no %s", ErrDataUnavailable, archiveMember)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read tar: %w", ErrDataUnavailable, err)
		}
		if hdr.Typeflag == tar.TypeReg && strings.HasSuffix(hdr.Name, archiveMember) {
			return parseRawData(tr)
		}
	}
}

// parseRawData reads the nine raw census columns and derives the per-household
// features: rooms, bedrooms and occupants are divided by households and the
// house value is scaled to units of $100,000.
func parseRawData(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = rawColumns
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	ds := &Dataset{
		FeatureNames: append([]string(nil), FeatureNames...),
		TargetName:   TargetName,
	}

	var raw [rawColumns]float64
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrDataUnavailable, line, err)
		}
		for i, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %d: %w", ErrDataUnavailable, line, i+1, err)
			}
			raw[i] = v
		}
		households := raw[rawHouseholds]
		if households == 0 {
			return nil, fmt.Errorf("%w: line %d: zero households", ErrDataUnavailable, line)
		}

		ds.X = append(ds.X, []float64{
			raw[rawMedianIncome],
			raw[rawHousingMedianAge],
			raw[rawTotalRooms] / households,
			raw[rawTotalBedrooms] / households,
			raw[rawPopulation],
			raw[rawPopulation] / households,
			raw[rawLatitude],
			raw[rawLongitude],
		})
		ds.Y = append(ds.Y, raw[rawMedianHouseValue]/100000)
	}

	if len(ds.Y) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrDataUnavailable, archiveMember)
	}
	return ds, nil
}
