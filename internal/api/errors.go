// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/truckmap/internal/auth"
	"github.com/tomtom215/truckmap/internal/logging"
	"github.com/tomtom215/truckmap/internal/markers"
)

// errorClass maps a sentinel to its status. The sentinel's text is the
// response body, so wrapped causes never reach the client.
type errorClass struct {
	target error
	status int
}

var errorClasses = []errorClass{
	{auth.ErrTokenMissing, http.StatusUnauthorized},
	{auth.ErrCredentialsMissing, http.StatusUnauthorized},
	{auth.ErrInvalidCredentials, http.StatusUnauthorized},

	{auth.ErrTokenInvalid, http.StatusForbidden},
	{auth.ErrTokenExpired, http.StatusForbidden},
	{auth.ErrSecondaryTokenInvalid, http.StatusForbidden},
	{auth.ErrOriginNotAllowed, http.StatusForbidden},

	{auth.ErrSecondaryTokenMissing, http.StatusBadRequest},
	{markers.ErrInvalidID, http.StatusBadRequest},
	{markers.ErrInvalidPayload, http.StatusBadRequest},

	{markers.ErrNotFound, http.StatusNotFound},
	{markers.ErrConflict, http.StatusConflict},
}

// statusFor returns the HTTP status and the short reason for err.
func statusFor(err error) (int, string) {
	for _, c := range errorClasses {
		if errors.Is(err, c.target) {
			return c.status, c.target.Error()
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}

// writeError writes err as a plain-text response. Server errors are logged
// with the request id.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, reason := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Msg("Request failed")
	}
	http.Error(w, reason, status)
}
