// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

/*
Package middleware provides chi-compatible HTTP middleware.

  - RequestID: propagates or generates X-Request-ID and seeds the logging
    context with request and correlation IDs
  - PrometheusMetrics: records api_requests_total, api_request_duration_seconds
    and api_active_requests labelled by chi route pattern

Both have the func(http.Handler) http.Handler shape and are mounted with
chi.Router.Use in internal/api.
*/
package middleware
