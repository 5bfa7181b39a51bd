// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package config

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tomtom215/truckmap/internal/validation"
)

// Validate checks struct tags first, then the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := c.validateJWTSecret(); err != nil {
		return err
	}

	if err := c.validatePasswordHash(); err != nil {
		return err
	}

	return c.validateCORS()
}

// validateJWTSecret requires a strong signing secret in bearer mode.
func (c *Config) validateJWTSecret() error {
	if c.Security.AuthMode != AuthModeBearer {
		return nil
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_MODE is bearer")
	}
	if len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
	}
	if containsPlaceholder(c.Security.JWTSecret) {
		return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
	}
	return nil
}

// validatePasswordHash accepts a SHA-256 hex digest or a bcrypt hash.
func (c *Config) validatePasswordHash() error {
	h := c.Security.PasswordHash
	if strings.HasPrefix(h, "$2") {
		return nil
	}
	if len(h) != 64 {
		return fmt.Errorf("ADMIN_PASSWORD_HASH must be a SHA-256 hex digest or a bcrypt hash")
	}
	if _, err := hex.DecodeString(h); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD_HASH must be a SHA-256 hex digest or a bcrypt hash")
	}
	return nil
}

// validateCORS rejects empty origin entries.
func (c *Config) validateCORS() error {
	for _, origin := range c.Security.CORSOrigins {
		if strings.TrimSpace(origin) == "" {
			return fmt.Errorf("CORS_ORIGINS must not contain empty entries")
		}
	}
	return nil
}

// ShouldWarnAboutCORS reports whether the wildcard origin is configured.
func (c *Config) ShouldWarnAboutCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// placeholderPatterns indicate the operator forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
