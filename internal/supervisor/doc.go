// HomeValue - California Housing Price Training and Prediction Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homevalue

// Package supervisor runs the prediction server under a thejerf/suture/v4
// tree. Supervisor events are logged through sutureslog into the zerolog
// backed slog handler from internal/logging.
//
//	homevalue (root)
//	└── api-layer
//	    └── http-server (services.HTTPServerService)
//
// A crashed HTTP listener is restarted with suture's backoff; cancelling the
// context passed to Serve shuts the server down gracefully.
package supervisor
