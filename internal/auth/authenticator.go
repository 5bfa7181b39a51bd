// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package auth

import (
	"context"
	"time"

	"github.com/tomtom215/truckmap/internal/logging"
	"github.com/tomtom215/truckmap/internal/metrics"
)

// Authenticator exchanges primary credentials for a token.
type Authenticator struct {
	credentials Credentials
	tokens      *TokenManager
}

// NewAuthenticator creates an Authenticator issuing tokens from tokens.
func NewAuthenticator(credentials Credentials, tokens *TokenManager) *Authenticator {
	return &Authenticator{
		credentials: credentials,
		tokens:      tokens,
	}
}

// Login verifies username and password and issues a token on success.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	if username == "" || password == "" {
		metrics.RecordAuthDecision("login", "missing")
		return "", time.Time{}, ErrCredentialsMissing
	}

	if !a.credentials.Matches(username, password) {
		metrics.RecordAuthDecision("login", "rejected")
		logging.Ctx(ctx).Warn().Msg("Login rejected")
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := a.tokens.Issue(username)
	if err != nil {
		metrics.RecordAuthDecision("login", "error")
		return "", time.Time{}, err
	}

	metrics.RecordAuthDecision("login", "ok")
	logging.Ctx(ctx).Info().Str("username", username).Time("expires_at", expiresAt).Msg("Token issued")
	return token, expiresAt, nil
}
