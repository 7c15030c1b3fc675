// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

// Command server serves predictions from the model artifact written by the
// train command.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. Logging (zerolog)
//  3. Prediction log database (DuckDB) and its table
//  4. Model artifact at model.path; a missing artifact is fatal
//  5. Registry pointer (read-only, best effort) for GET /model
//  6. HTTP server under the suture supervisor tree
//
// SIGINT and SIGTERM cancel the root context. The HTTP server then drains
// in-flight requests for up to server.shutdown_timeout.
//
// Example:
//
//	./train                      # trains, registers and writes model.json
//	HTTP_PORT=8000 ./server
//	curl -XPOST localhost:8000/predict -d '{"MedInc":8.3,"HouseAge":41,...}'
package main
