// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

/*
Package metrics provides Prometheus metrics for the prediction service.

All collectors are registered on the default registry with promauto and are
served at GET /metrics by promhttp.Handler().

# Prediction Metrics

  - prediction_requests_total: counter, incremented once per accepted request
  - prediction_latency_seconds: histogram of inference plus log latency
  - prediction_errors_total{reason}: rejected or failed requests

# Other Metrics

  - api_requests_total, api_request_duration_seconds, api_active_requests
  - retrain_runs_total{outcome}, retrain_duration_seconds
  - duckdb_query_duration_seconds, duckdb_query_errors_total
  - circuit_breaker_state, circuit_breaker_transitions_total
  - dataset_fetch_attempts_total{result}

Example:

	curl http://localhost:8000/metrics | grep prediction_
*/
package metrics
