// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/truckmap/internal/config"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"

	// SHA-256 hex digests of "admin", "secret" and "truck-secret".
	adminDigest     = "8c6976e5b5410415bde908bd4dee15dfb167a9c873fc4bb8a81f6f2ab448a918"
	secretDigest    = "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b"
	secondaryDigest = "3a88f11adba125a45f8c45678e41b6cdfc16e797c26064a1df7a7acc4ccc6aee"
)

// fakeClock is a settable clock for token tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		AuthMode:           config.AuthModeBearer,
		JWTSecret:          testSecret,
		TokenTTL:           DefaultTokenTTL,
		UsernameHash:       adminDigest,
		PasswordHash:       secretDigest,
		SecondaryTokenHash: secondaryDigest,
	}
}

func newTestTokenManager(t *testing.T, clock *fakeClock) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecret, DefaultTokenTTL, WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}
	return m
}
