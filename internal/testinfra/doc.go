// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

// Package testinfra provides container-backed infrastructure for integration tests.
//
// Everything here is built only with the integration tag:
//
//	go test -tags integration ./internal/document/...
//
// # Fake GCS
//
// FakeGCSContainer runs fsouza/fake-gcs-server so the GCS document backend can
// be exercised against a real JSON API, generation preconditions included.
// Point the storage client at it with STORAGE_EMULATOR_HOST.
//
// Tests are skipped when Docker is unavailable.
package testinfra
