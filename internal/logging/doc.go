// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

// Package logging provides centralized zerolog-based structured logging for Truckmap.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("backend", "gcs").Msg("Document store ready")
//	logging.Error().Err(err).Msg("Save failed")
//
//	// Request-scoped logging (request_id and correlation_id are added automatically)
//	logging.Ctx(ctx).Warn().Str("marker_id", id).Msg("Marker not found")
//
// # Configuration
//
// Environment Variables (read through internal/config):
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send(), and prefer structured
// fields over formatted messages. Never log credentials, tokens or the
// secondary shared secret; log the username and the outcome instead.
package logging
