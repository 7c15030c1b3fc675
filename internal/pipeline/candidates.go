// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package pipeline

import (
	"github.com/tomtom215/homevalue/internal/config"
	"github.com/tomtom215/homevalue/internal/trainer"
)

// CandidatesFromConfig builds one candidate per configured family, sharing the
// top-level hyperparameters.
func CandidatesFromConfig(cfg *config.Config) []Candidate {
	params := trainer.Params{
		Alpha:           cfg.Alpha,
		MaxDepth:        cfg.MaxDepthValue(),
		MinSamplesSplit: cfg.Training.MinSamplesSplit,
		NEstimators:     cfg.Training.NEstimators,
		RandomState:     cfg.RandomState,
	}
	out := make([]Candidate, 0, len(cfg.Training.Families))
	for _, family := range cfg.Training.Families {
		out = append(out, Candidate{Name: family, Family: family, Params: params})
	}
	return out
}

// OptionsFromConfig maps the configuration onto pipeline Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Experiment:  cfg.Training.Experiment,
		ModelName:   cfg.Registry.Name,
		TestSize:    cfg.TestSize,
		RandomState: cfg.RandomState,
	}
}
