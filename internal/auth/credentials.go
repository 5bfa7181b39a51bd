// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/truckmap/internal/config"
)

// Credentials holds the configured primary credential digests.
type Credentials struct {
	// UsernameHash is the hex SHA-256 of the username.
	UsernameHash string

	// PasswordHash is the hex SHA-256 of the password, or a bcrypt hash.
	PasswordHash string
}

// CredentialsFromConfig extracts the primary credentials from cfg.
func CredentialsFromConfig(cfg *config.SecurityConfig) Credentials {
	return Credentials{
		UsernameHash: cfg.UsernameHash,
		PasswordHash: cfg.PasswordHash,
	}
}

// Matches reports whether username and password match. Both checks always
// run so the timing does not reveal which one failed.
func (c Credentials) Matches(username, password string) bool {
	usernameOK := digestMatches(username, c.UsernameHash)
	passwordOK := c.passwordMatches(password)
	return usernameOK && passwordOK
}

func (c Credentials) passwordMatches(password string) bool {
	if strings.HasPrefix(c.PasswordHash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
	}
	return digestMatches(password, c.PasswordHash)
}
