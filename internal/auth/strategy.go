// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package auth

import (
	"net/http"
	"strings"
)

// Strategy authenticates the primary credential of a request.
type Strategy interface {
	Authenticate(headers http.Header) (*Claims, error)

	// Name returns the strategy name for logging and metrics.
	Name() string
}

// Challenger is implemented by strategies that send a WWW-Authenticate
// header with 401 responses.
type Challenger interface {
	Challenge() string
}

// BearerStrategy requires "Authorization: Bearer <token>".
type BearerStrategy struct {
	tokens *TokenManager
}

// NewBearerStrategy creates a BearerStrategy verifying with tokens.
func NewBearerStrategy(tokens *TokenManager) *BearerStrategy {
	return &BearerStrategy{tokens: tokens}
}

// Authenticate verifies the bearer token.
func (s *BearerStrategy) Authenticate(headers http.Header) (*Claims, error) {
	token := bearerToken(headers.Get("Authorization"))
	if token == "" {
		return nil, ErrTokenMissing
	}
	return s.tokens.Verify(token)
}

// Name returns "bearer".
func (s *BearerStrategy) Name() string {
	return "bearer"
}

// bearerToken extracts the token from an Authorization header value, or "".
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// BasicStrategy is the legacy mode: HTTP Basic credentials checked on every
// request, optionally restricted to whitelisted origins.
type BasicStrategy struct {
	credentials    Credentials
	allowedOrigins map[string]struct{}
}

// NewBasicStrategy creates a BasicStrategy. An empty allowedOrigins disables
// the origin check.
func NewBasicStrategy(credentials Credentials, allowedOrigins []string) *BasicStrategy {
	s := &BasicStrategy{credentials: credentials}
	if len(allowedOrigins) > 0 {
		s.allowedOrigins = make(map[string]struct{}, len(allowedOrigins))
		for _, origin := range allowedOrigins {
			s.allowedOrigins[strings.TrimSuffix(origin, "/")] = struct{}{}
		}
	}
	return s
}

// Authenticate checks the origin whitelist, then the Basic credentials.
func (s *BasicStrategy) Authenticate(headers http.Header) (*Claims, error) {
	if s.allowedOrigins != nil {
		if _, ok := s.allowedOrigins[headers.Get("Origin")]; !ok {
			return nil, ErrOriginNotAllowed
		}
	}

	username, password, ok := (&http.Request{Header: headers}).BasicAuth()
	if !ok {
		return nil, ErrCredentialsMissing
	}
	if !s.credentials.Matches(username, password) {
		return nil, ErrInvalidCredentials
	}
	return &Claims{Username: username}, nil
}

// Name returns "basic".
func (s *BasicStrategy) Name() string {
	return "basic"
}

// Challenge returns the WWW-Authenticate value for 401 responses.
func (s *BasicStrategy) Challenge() string {
	return `Basic realm="Truckmap", charset="UTF-8"`
}
