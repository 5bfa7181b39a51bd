// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tomtom215/truckmap/internal/config"
	"github.com/tomtom215/truckmap/internal/document"
	"github.com/tomtom215/truckmap/internal/logging"
)

// backend is the opened document store plus what main needs to manage it.
type backend struct {
	client document.Client
	badger *document.BadgerClient // nil unless the badger backend is in use
	closer io.Closer
}

func (b *backend) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

// openBackend opens the configured document backend, seeds it when a seed
// file is set and wraps it in a circuit breaker when enabled.
func openBackend(ctx context.Context, cfg *config.StorageConfig) (*backend, error) {
	b := &backend{}

	switch cfg.Backend {
	case config.BackendGCS:
		c, err := document.NewGCSClient(ctx, document.GCSConfig{
			ProjectID:       cfg.ProjectID,
			Bucket:          cfg.Bucket,
			Object:          cfg.Object,
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			return nil, err
		}
		b.client, b.closer = c, c

	case config.BackendBadger:
		c, err := document.OpenBadger(cfg.BadgerPath, cfg.Bucket, cfg.Object)
		if err != nil {
			return nil, err
		}
		b.client, b.closer, b.badger = c, c, c

	case config.BackendMemory:
		b.client = document.NewMemoryClient()

	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Backend)
	}

	if cfg.SeedFile != "" {
		if err := seedBackend(ctx, b.client, cfg.SeedFile); err != nil {
			_ = b.Close()
			return nil, err
		}
	}

	if cfg.BreakerEnabled {
		b.client = document.NewBreakerClient(b.client, document.DefaultBreakerSettings())
	}

	logging.Info().
		Str("backend", cfg.Backend).
		Str("bucket", cfg.Bucket).
		Str("object", cfg.Object).
		Bool("breaker", cfg.BreakerEnabled).
		Msg("Document store ready")
	return b, nil
}

func seedBackend(ctx context.Context, c document.Client, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	written, err := document.Seed(ctx, c, data)
	if err != nil {
		return err
	}
	if written {
		logging.Info().Str("seed_file", path).Msg("Seeded empty document store")
	}
	return nil
}
