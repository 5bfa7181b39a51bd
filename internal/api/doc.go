// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

/*
Package api serves the marker HTTP API with the chi router.

Success bodies are raw JSON: {"token": ...} for login, a marker object for
get, create and update, and a marker array for list and delete. Errors are a
status code with a short plain-text reason:

	401  missing bearer token, missing or wrong login credentials
	403  invalid or expired token, wrong secondarytoken, origin not allowed
	400  missing secondarytoken, non-numeric id, body not a JSON object
	404  no marker with that id
	409  concurrent modification (optimistic concurrency only)
	500  document missing trucksOnMap, storage failure

Login attempts are rate limited per client IP with go-chi/httprate.
*/
package api
