// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package markers

import (
	"errors"
)

// Sentinel errors. Callers classify with errors.Is; wrapped errors carry the
// underlying cause for logging.
var (
	ErrInvalidID       = errors.New("invalid marker id")
	ErrInvalidPayload  = errors.New("marker payload must be a JSON object")
	ErrNotFound        = errors.New("marker not found")
	ErrSchemaViolation = errors.New("document has no trucksOnMap array")
	ErrStorageFailure  = errors.New("document storage failure")
	ErrConflict        = errors.New("document was modified concurrently")
)

// resultLabel classifies err for the marker_operations_total metric.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidID):
		return "invalid_id"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrSchemaViolation):
		return "schema_violation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "storage_failure"
	}
}
