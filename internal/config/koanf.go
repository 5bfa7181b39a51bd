// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
// The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/truckmap/config.yaml",
	"/etc/truckmap/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with every default applied. Defaults are
// loaded first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			AuthMode:          AuthModeBearer,
			JWTSecret:         "",
			TokenTTL:          5 * time.Minute,
			AllowedOrigins:    []string{},
			CORSOrigins:       []string{"*"},
			LoginRateLimit:    10,
			LoginRateWindow:   1 * time.Minute,
			RateLimitDisabled: false,
		},
		Storage: StorageConfig{
			Backend:               BackendGCS,
			Object:                "db.json",
			BadgerPath:            "/data/truckmap",
			GCInterval:            5 * time.Minute,
			GCDiscardRatio:        0.5,
			OptimisticConcurrency: false,
			BreakerEnabled:        true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration in three layers (defaults, file, env)
// and validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// GCS_BUCKET -> storage.bucket, HTTP_PORT -> server.port
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from env.
var sliceConfigPaths = []string{
	"security.allowed_origins",
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices.
// YAML already yields slices; env vars arrive as strings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":        "server.host",
	"http_port":        "server.port",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	// Security
	"auth_mode":            "security.auth_mode",
	"jwt_secret":           "security.jwt_secret",
	"token_ttl":            "security.token_ttl",
	"admin_username_hash":  "security.username_hash",
	"admin_password_hash":  "security.password_hash",
	"secondary_token_hash": "security.secondary_token_hash",
	"allowed_origins":      "security.allowed_origins",
	"cors_origins":         "security.cors_origins",
	"login_rate_limit":     "security.login_rate_limit",
	"login_rate_window":    "security.login_rate_window",
	"disable_rate_limit":   "security.rate_limit_disabled",

	// Storage
	"storage_backend":         "storage.backend",
	"gcs_project_id":          "storage.project_id",
	"gcs_bucket":              "storage.bucket",
	"gcs_object":              "storage.object",
	"gcs_credentials_file":    "storage.credentials_file",
	"badger_path":             "storage.badger_path",
	"storage_seed_file":       "storage.seed_file",
	"optimistic_concurrency":  "storage.optimistic_concurrency",
	"storage_breaker_enabled": "storage.breaker_enabled",
	"badger_gc_interval":      "storage.gc_interval",
	"badger_gc_discard_ratio": "storage.gc_discard_ratio",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped keys return "" and are skipped, so unrelated environment
// variables never leak into the configuration.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
