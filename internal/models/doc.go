// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

/*
Package models defines the HTTP request and response types shared by the
prediction service handlers.

  - APIResponse, Metadata, APIError: the envelope used by /health, /model and
    every error response
  - HouseFeatures: the POST /predict payload, one pointer per feature so that
    a missing key and an explicit zero are distinguishable
  - PredictionResponse, RetrainResponse: the flat bodies of /predict and /retrain
*/
package models
