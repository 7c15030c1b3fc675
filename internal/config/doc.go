// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

// Package config loads HomeValue configuration with Koanf v2.
//
// Configuration is layered, highest priority last:
//
//  1. Struct defaults (defaultConfig)
//  2. A YAML file: CONFIG_PATH, then config.yaml / config.yml in the working
//     directory, then /etc/homevalue/config.yaml
//  3. Environment variables listed in envTransformFunc
//
// The training hyperparameters live at the top level of the file so that a
// minimal file keeps the familiar shape:
//
//	test_size: 0.2
//	random_state: 42
//	alpha: 1.0
//	max_depth: none
//
// Everything else is grouped by component (dataset, tracking, registry,
// model, database, server, security, retrain, logging). Both cmd/train and
// cmd/server call Load and share one Config type; each binary reads only the
// sections it needs.
package config
