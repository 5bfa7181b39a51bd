// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values for every optional setting
//  2. Config File: optional YAML file (config.yaml or CONFIG_PATH)
//  3. Environment Variables: override any setting
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("Failed to load config")
//	}
//	srv := &http.Server{Addr: cfg.Server.Addr()}
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Storage  StorageConfig  `koanf:"storage"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host" validate:"omitempty,ip|hostname_rfc1123"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0s"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0s"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Auth modes.
const (
	AuthModeBearer = "bearer"
	AuthModeBasic  = "basic"
)

// SecurityConfig holds authentication and request-limiting settings.
//
// Credentials are never configured in clear text. UsernameHash and
// SecondaryTokenHash are SHA-256 hex digests; PasswordHash is either a
// SHA-256 hex digest or a bcrypt hash.
type SecurityConfig struct {
	AuthMode           string        `koanf:"auth_mode" validate:"oneof=bearer basic"`
	JWTSecret          string        `koanf:"jwt_secret"`
	TokenTTL           time.Duration `koanf:"token_ttl" validate:"gt=0s"`
	UsernameHash       string        `koanf:"username_hash" validate:"required,len=64,hexadecimal"`
	PasswordHash       string        `koanf:"password_hash" validate:"required"`
	SecondaryTokenHash string        `koanf:"secondary_token_hash" validate:"required,len=64,hexadecimal"`

	// AllowedOrigins is the Origin whitelist checked by basic mode. Empty disables the check.
	AllowedOrigins []string `koanf:"allowed_origins"`
	CORSOrigins    []string `koanf:"cors_origins"`

	LoginRateLimit    int           `koanf:"login_rate_limit" validate:"min=1"`
	LoginRateWindow   time.Duration `koanf:"login_rate_window" validate:"gt=0s"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Storage backends.
const (
	BackendGCS    = "gcs"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// StorageConfig selects and configures the document backend.
type StorageConfig struct {
	Backend string `koanf:"backend" validate:"oneof=gcs badger memory"`

	// GCS settings. Bucket and Object double as the Badger key namespace.
	ProjectID       string `koanf:"project_id"`
	Bucket          string `koanf:"bucket" validate:"required_if=Backend gcs"`
	Object          string `koanf:"object" validate:"required"`
	CredentialsFile string `koanf:"credentials_file"`

	BadgerPath string `koanf:"badger_path" validate:"required_if=Backend badger"`

	// GCInterval is how often the badger value log is garbage collected.
	GCInterval     time.Duration `koanf:"gc_interval" validate:"gt=0s"`
	GCDiscardRatio float64       `koanf:"gc_discard_ratio" validate:"gt=0,lt=1"`

	// SeedFile is loaded into an empty badger or memory backend at startup.
	SeedFile string `koanf:"seed_file"`

	// OptimisticConcurrency makes saves conditional on the generation read.
	// Off by default: concurrent writers overwrite each other.
	OptimisticConcurrency bool `koanf:"optimistic_concurrency"`
	BreakerEnabled        bool `koanf:"breaker_enabled"`
}

// LoggingConfig holds logging settings passed to logging.Init.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`

	// Format is the output format: json or console.
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Load reads configuration with the layered koanf loader and validates it.
//
// See LoadWithKoanf() for the underlying implementation.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// String renders the configuration with secrets masked, for startup logging.
func (c *Config) String() string {
	return fmt.Sprintf("server=%s auth_mode=%s token_ttl=%s storage=%s bucket=%q object=%q optimistic=%t breaker=%t jwt_secret=%s",
		c.Server.Addr(), c.Security.AuthMode, c.Security.TokenTTL, c.Storage.Backend,
		c.Storage.Bucket, c.Storage.Object, c.Storage.OptimisticConcurrency, c.Storage.BreakerEnabled,
		MaskSecret(c.Security.JWTSecret))
}

// MaskSecret shows at most the first four characters of a secret.
func MaskSecret(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}
