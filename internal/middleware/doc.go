// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

/*
Package middleware provides HTTP instrumentation middleware.

PrometheusMetrics records api_requests_total, api_request_duration_seconds and
api_active_requests for every request it wraps. It is installed on the chi
router inside the route groups so the endpoint label carries the matched route
pattern:

	r.Group(func(r chi.Router) {
	    r.Use(middleware.PrometheusMetrics)
	    r.Get("/markers/{id}", h.GetMarker)
	})

The wrapped writer supports hijacking, so websocket upgrades pass through it.
*/
package middleware
