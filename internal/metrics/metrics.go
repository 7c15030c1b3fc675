// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Prediction Metrics
	PredictionRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prediction_requests_total",
			Help: "Total number of prediction requests",
		},
	)

	PredictionLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Latency of prediction requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PredictionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prediction_errors_total",
			Help: "Total number of failed prediction requests",
		},
		[]string{"reason"}, // "validation", "inference", "log"
	)

	// ModelInfo is 1 for the family of the currently loaded model.
	ModelInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "model_info",
			Help: "Currently loaded model (1 for the loaded family)",
		},
		[]string{"family"},
	)

	// Retrain Metrics
	RetrainRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrain_runs_total",
			Help: "Total number of retrain subprocess runs",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	RetrainDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retrain_duration_seconds",
			Help:    "Duration of retrain subprocess runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Dataset Metrics
	DatasetFetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dataset_fetch_attempts_total",
			Help: "Total number of remote dataset download attempts",
		},
		[]string{"result"}, // "success", "failure", "cached"
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPrediction counts one accepted prediction and observes its latency.
func RecordPrediction(duration time.Duration) {
	PredictionRequests.Inc()
	PredictionLatency.Observe(duration.Seconds())
}

// RecordPredictionError counts a rejected or failed prediction.
func RecordPredictionError(reason string) {
	PredictionErrors.WithLabelValues(reason).Inc()
}

// RecordRetrain records a completed retrain subprocess run.
func RecordRetrain(duration time.Duration, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	RetrainRuns.WithLabelValues(outcome).Inc()
	RetrainDuration.Observe(duration.Seconds())
}

// SetModelInfo marks family as the loaded model.
func SetModelInfo(family string) {
	ModelInfo.Reset()
	ModelInfo.WithLabelValues(family).Set(1)
}

// RecordCircuitBreakerTransition updates the state gauge and counts the transition.
// States are encoded 0=closed, 1=half-open, 2=open.
func RecordCircuitBreakerTransition(name, from, to string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// RecordDatasetFetch counts a dataset download attempt by result.
func RecordDatasetFetch(result string) {
	DatasetFetchAttempts.WithLabelValues(result).Inc()
}

// StatusLabel formats an HTTP status code as a metric label.
func StatusLabel(code int) string {
	return strconv.Itoa(code)
}
