// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package models

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestHouseFeatures_ToMap(t *testing.T) {
	t.Parallel()

	var h HouseFeatures
	body := `{"MedInc":8.3252,"HouseAge":41,"AveRooms":6.98,"AveBedrms":1.02,
		"Population":322,"AveOccup":2.55,"Latitude":37.88,"Longitude":-122.23}`
	if err := json.Unmarshal([]byte(body), &h); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	m := h.ToMap()
	if len(m) != 8 {
		t.Fatalf("ToMap() has %d keys, want 8", len(m))
	}
	if m["Longitude"] != -122.23 {
		t.Errorf("Longitude = %v, want -122.23", m["Longitude"])
	}
}

func TestHouseFeatures_NullIsMissing(t *testing.T) {
	t.Parallel()

	var h HouseFeatures
	if err := json.Unmarshal([]byte(`{"MedInc":null,"HouseAge":0}`), &h); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if h.MedInc != nil {
		t.Error("null MedInc should decode to nil")
	}
	if h.HouseAge == nil || *h.HouseAge != 0 {
		t.Error("explicit zero HouseAge should decode to a non-nil zero")
	}
	if _, ok := h.ToMap()["MedInc"]; ok {
		t.Error("ToMap() should omit nil fields")
	}
}

func TestAPIResponse_OmitsNilError(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(APIResponse{Status: "success", Data: map[string]int{"n": 1}})
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["error"]; ok {
		t.Errorf("success response should omit error, got %s", b)
	}
}
