// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

/*
Package config provides layered configuration for Truckmap.

Values are loaded with koanf in three layers: struct defaults, an optional
YAML file (CONFIG_PATH, ./config.yaml or /etc/truckmap/config.yaml) and
environment variables. Environment variables use an explicit mapping; unknown
variables are ignored.

# Configuration Structure

  - ServerConfig: listen address and HTTP timeouts
  - SecurityConfig: auth mode, JWT secret, credential digests, CORS, login rate limit
  - StorageConfig: document backend (gcs, badger, memory), object location, concurrency mode, badger value log GC
  - LoggingConfig: level, format, caller

# Example config.yaml

	server:
	  port: 3000
	security:
	  auth_mode: bearer
	  token_ttl: 5m
	storage:
	  backend: gcs
	  bucket: truckmap-prod
	  object: db.json

Secrets (JWT_SECRET, ADMIN_USERNAME_HASH, ADMIN_PASSWORD_HASH,
SECONDARY_TOKEN_HASH) are normally supplied through the environment.

# Validation

Load validates struct tags with go-playground/validator and then applies
cross-field checks: a JWT secret of at least 32 characters in bearer mode and
a password hash that is either a SHA-256 hex digest or a bcrypt hash.
*/
package config
