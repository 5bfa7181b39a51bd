// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/truckmap/internal/auth"
	"github.com/tomtom215/truckmap/internal/document"
	"github.com/tomtom215/truckmap/internal/markers"
	"github.com/tomtom215/truckmap/internal/validation"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=256"`
	Password string `json:"password" validate:"required,max=1024"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Token string `json:"token"`
}

// parseLoginRequest decodes and validates the login body. Any problem is
// reported as missing credentials.
func parseLoginRequest(r *http.Request) (*LoginRequest, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrCredentialsMissing, err)
	}

	var req LoginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrCredentialsMissing, err)
	}
	if err := validation.ValidateStruct(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", auth.ErrCredentialsMissing, err)
	}
	return &req, nil
}

// parseMarkerPayload decodes a marker body. It must be a JSON object.
func parseMarkerPayload(r *http.Request) (markers.Marker, error) {
	body, err := readBody(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", markers.ErrInvalidPayload, err)
	}

	m, err := document.ParseMarker(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", markers.ErrInvalidPayload, err)
	}
	return m, nil
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, errors.New("empty body")
	}
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}
