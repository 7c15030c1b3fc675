// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

/*
Package api provides the HTTP surface of the prediction service.

Routes (chi):

	POST /predict   score one feature vector, flat {"prediction": <float>}
	POST /retrain   run the training command synchronously
	GET  /metrics   Prometheus text exposition
	GET  /health    readiness and model load time (APIResponse envelope)
	GET  /model     loaded artifact metadata and registry pointer (envelope)

Every error response uses the models.APIResponse envelope with one of the
models.ErrCode* constants. Request decoding is strict: unknown keys, nulls,
non-numeric values and missing features are all reported as 422
VALIDATION_ERROR before the model is consulted.

Global middleware runs in this order: RealIP, RequestID, Recoverer, CORS,
PrometheusMetrics. /predict and /retrain are additionally rate limited per
client IP by go-chi/httprate unless security.rate_limit_disabled is set.
*/
package api
