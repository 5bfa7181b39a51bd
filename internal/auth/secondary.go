// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package auth

import (
	"net/http"

	"github.com/tomtom215/truckmap/internal/metrics"
)

// SecondaryTokenHeader carries the shared secret on guarded routes.
const SecondaryTokenHeader = "secondarytoken"

// SecondaryGuard checks the shared secret sent in the secondarytoken header.
type SecondaryGuard struct {
	digest string
}

// NewSecondaryGuard creates a guard comparing against the hex SHA-256 digest.
func NewSecondaryGuard(digest string) *SecondaryGuard {
	return &SecondaryGuard{digest: digest}
}

// Check returns ErrSecondaryTokenMissing when the header is absent or empty
// and ErrSecondaryTokenInvalid when its digest does not match.
func (g *SecondaryGuard) Check(headers http.Header) error {
	token := headers.Get(SecondaryTokenHeader)
	if token == "" {
		metrics.RecordAuthDecision("secondary", "missing")
		return ErrSecondaryTokenMissing
	}

	if !digestMatches(token, g.digest) {
		metrics.RecordAuthDecision("secondary", "invalid")
		return ErrSecondaryTokenInvalid
	}

	metrics.RecordAuthDecision("secondary", "ok")
	return nil
}
