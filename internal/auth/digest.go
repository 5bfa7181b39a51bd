// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Digest returns the lowercase hex SHA-256 of s. Configured credentials are
// stored in this form.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// digestMatches hashes plain and compares it with the configured hex digest
// in constant time. The configured digest may use either letter case.
func digestMatches(plain, digest string) bool {
	return subtle.ConstantTimeCompare([]byte(Digest(plain)), []byte(strings.ToLower(digest))) == 1
}
