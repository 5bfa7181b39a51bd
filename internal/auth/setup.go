// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package auth

import (
	"fmt"

	"github.com/tomtom215/truckmap/internal/config"
	"github.com/tomtom215/truckmap/internal/logging"
)

// Components bundles the auth pieces built from configuration.
type Components struct {
	Tokens        *TokenManager
	Authenticator *Authenticator
	Gate          *Gate
	Guard         *SecondaryGuard
}

// NewFromConfig builds the auth components for cfg.AuthMode.
func NewFromConfig(cfg *config.SecurityConfig, opts ...TokenOption) (*Components, error) {
	credentials := CredentialsFromConfig(cfg)
	c := &Components{
		Guard: NewSecondaryGuard(cfg.SecondaryTokenHash),
	}

	switch cfg.AuthMode {
	case config.AuthModeBearer, "":
		tokens, err := NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, opts...)
		if err != nil {
			return nil, err
		}
		c.Tokens = tokens
		c.Authenticator = NewAuthenticator(credentials, tokens)
		c.Gate = NewGate(NewBearerStrategy(tokens))

	case config.AuthModeBasic:
		c.Gate = NewGate(NewBasicStrategy(credentials, cfg.AllowedOrigins))

	default:
		return nil, fmt.Errorf("unsupported auth mode: %q", cfg.AuthMode)
	}

	logging.Info().
		Str("strategy", c.Gate.Strategy().Name()).
		Int("allowed_origins", len(cfg.AllowedOrigins)).
		Msg("Authentication configured")
	return c, nil
}
