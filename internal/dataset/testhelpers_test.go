// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package dataset

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
)

// rawRows are the first rows of cal_housing.data.
var rawRows = []string{
	"-122.230000,37.880000,41.000000,880.000000,129.000000,322.000000,126.000000,8.325200,452600.000000",
	"-122.220000,37.860000,21.000000,7099.000000,1106.000000,2401.000000,1138.000000,8.301400,358500.000000",
	"-122.240000,37.850000,52.000000,1467.000000,190.000000,496.000000,177.000000,7.257400,352100.000000",
	"-122.250000,37.850000,52.000000,1274.000000,235.000000,558.000000,219.000000,5.643100,341300.000000",
	"-122.250000,37.850000,52.000000,1627.000000,280.000000,565.000000,259.000000,3.846200,342200.000000",
}

// buildArchive packs data as CaliforniaHousing/cal_housing.data in a .tgz.
func buildArchive(t *testing.T, data string) []byte {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	files := []struct{ name, body string }{
		{"CaliforniaHousing/cal_housing.domain", "longitude: continuous.\n"},
		{archiveMember, data},
	}
	for _, f := range files {
		hdr := &tar.Header{Name: f.name, Mode: 0o644, Size: int64(len(f.body)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(f.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func checksum(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// syntheticRaw returns n raw rows with distinct values.
func syntheticRaw(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "%f,%f,%d,%d,%d,%d,%d,%f,%d\n",
			-122.0-float64(i)/100, 37.0+float64(i)/100, 10+i%40, 1000+i, 200+i, 500+i, 100+i%50, 2.0+float64(i)/10, 100000+i*1000)
	}
	return sb.String()
}

// syntheticDataset builds an n-row dataset whose target equals the row index.
func syntheticDataset(n int) *Dataset {
	ds := &Dataset{FeatureNames: append([]string(nil), FeatureNames...), TargetName: TargetName}
	for i := 0; i < n; i++ {
		row := make([]float64, len(FeatureNames))
		for j := range row {
			row[j] = float64(i*len(FeatureNames) + j)
		}
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, float64(i))
	}
	return ds
}
