// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of an issued token.
const DefaultTokenTTL = 5 * time.Minute

// Claims is the payload of an issued token: username, iat and exp.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenOption configures a TokenManager.
type TokenOption func(*TokenManager)

// WithClock replaces time.Now for issuing and verifying tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(m *TokenManager) {
		m.now = now
	}
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenManager creates a TokenManager signing with secret. A ttl of zero
// or less falls back to DefaultTokenTTL.
func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required but was empty")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	m := &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		// Expiry is checked by Verify after the signature, against m.now.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL returns the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a token for username valid for the configured TTL.
func (m *TokenManager) Issue(username string) (string, time.Time, error) {
	issuedAt := m.now()
	expiresAt := issuedAt.Add(m.ttl)

	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks signature and algorithm, then expiry. A token that fails
// both is reported as ErrTokenInvalid.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := m.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: no exp claim", ErrTokenInvalid)
	}
	if !m.now().Before(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("%w: expired at %s", ErrTokenExpired, claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
	}
	return claims, nil
}
