// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package models

import "time"

// HouseFeatures is the POST /predict body. Every field is required; a JSON
// null is treated the same as a missing key.
type HouseFeatures struct {
	MedInc     *float64 `json:"MedInc" validate:"required,finite"`
	HouseAge   *float64 `json:"HouseAge" validate:"required,finite"`
	AveRooms   *float64 `json:"AveRooms" validate:"required,finite"`
	AveBedrms  *float64 `json:"AveBedrms" validate:"required,finite"`
	Population *float64 `json:"Population" validate:"required,finite"`
	AveOccup   *float64 `json:"AveOccup" validate:"required,finite"`
	Latitude   *float64 `json:"Latitude" validate:"required,finite"`
	Longitude  *float64 `json:"Longitude" validate:"required,finite"`
}

// ToMap returns the features keyed by name. Nil fields are omitted.
func (h *HouseFeatures) ToMap() map[string]float64 {
	out := make(map[string]float64, 8)
	set := func(name string, v *float64) {
		if v != nil {
			out[name] = *v
		}
	}
	set("MedInc", h.MedInc)
	set("HouseAge", h.HouseAge)
	set("AveRooms", h.AveRooms)
	set("AveBedrms", h.AveBedrms)
	set("Population", h.Population)
	set("AveOccup", h.AveOccup)
	set("Latitude", h.Latitude)
	set("Longitude", h.Longitude)
	return out
}

// PredictionResponse is the POST /predict success body.
type PredictionResponse struct {
	Prediction float64 `json:"prediction"`
}

// RetrainResponse is the POST /retrain body for both outcomes.
type RetrainResponse struct {
	Message string `json:"message"`
	Stdout  string `json:"stdout"`
	Stderr  string `json:"stderr"`
}

// HealthStatus is the GET /health payload.
type HealthStatus struct {
	Status      string    `json:"status"`
	Ready       bool      `json:"ready"`
	ModelFamily string    `json:"model_family"`
	LoadedAt    time.Time `json:"loaded_at"`
	Uptime      float64   `json:"uptime_seconds"`
}

// ModelInfo is the GET /model payload.
type ModelInfo struct {
	Family        string         `json:"family"`
	FormatVersion int            `json:"format_version"`
	FeatureNames  []string       `json:"feature_names"`
	TrainedAt     time.Time      `json:"trained_at"`
	Path          string         `json:"path"`
	Registered    *RegisteredRef `json:"registered,omitempty"`
}

// RegisteredRef describes the registry pointer that was current at startup.
type RegisteredRef struct {
	Name       string    `json:"name"`
	Version    uint64    `json:"version"`
	RunID      string    `json:"run_id"`
	Metric     float64   `json:"metric"`
	PromotedAt time.Time `json:"promoted_at"`
}
