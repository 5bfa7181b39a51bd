// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package auth

import "errors"

// Primary credential errors.
var (
	// ErrTokenMissing indicates no "Authorization: Bearer <token>" header was sent.
	ErrTokenMissing = errors.New("bearer token missing")

	// ErrTokenInvalid indicates a token with a bad signature, algorithm or structure.
	ErrTokenInvalid = errors.New("bearer token invalid")

	// ErrTokenExpired indicates a correctly signed token past its expiry.
	ErrTokenExpired = errors.New("bearer token expired")

	// ErrCredentialsMissing indicates a login or basic auth request without credentials.
	ErrCredentialsMissing = errors.New("credentials missing")

	// ErrInvalidCredentials indicates username or password did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrOriginNotAllowed indicates an Origin outside the basic mode whitelist.
	ErrOriginNotAllowed = errors.New("origin not allowed")
)

// Secondary token errors.
var (
	ErrSecondaryTokenMissing = errors.New("secondarytoken header missing")
	ErrSecondaryTokenInvalid = errors.New("secondarytoken invalid")
)
