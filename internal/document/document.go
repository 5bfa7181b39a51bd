// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/truckmap/internal/metrics"
)

// Sentinel errors returned by every Client implementation.
var (
	// ErrObjectNotFound means the document object does not exist yet.
	ErrObjectNotFound = errors.New("document object not found")

	// ErrPreconditionFailed means a conditional save saw a different generation.
	ErrPreconditionFailed = errors.New("document generation precondition failed")
)

// Object is one downloaded copy of the document.
type Object struct {
	Data []byte

	// Generation identifies the stored version Data was read from. It changes
	// on every save and is only meaningful to the backend that produced it.
	Generation int64
}

// Client reads and writes the single JSON document backing the marker collection.
//
// Save with ifGeneration == 0 overwrites unconditionally. A non-zero value
// makes the write conditional: if the stored generation differs, Save returns
// ErrPreconditionFailed and nothing is written. Save returns the generation of
// the newly written object.
type Client interface {
	Download(ctx context.Context) (*Object, error)
	Save(ctx context.Context, data []byte, ifGeneration int64) (int64, error)
}

// Seed writes data as the initial document when none exists yet.
// It reports whether the seed was written.
func Seed(ctx context.Context, c Client, data []byte) (bool, error) {
	if _, err := Parse(data); err != nil {
		return false, fmt.Errorf("seed document: %w", err)
	}

	_, err := c.Download(ctx)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, ErrObjectNotFound):
		return false, fmt.Errorf("seed document: %w", err)
	}

	if _, err := c.Save(ctx, data, 0); err != nil {
		return false, fmt.Errorf("seed document: %w", err)
	}
	return true, nil
}

// observe records one backend round trip.
func observe(backend, operation string, start time.Time, size int, err error) {
	if errors.Is(err, ErrObjectNotFound) {
		err = nil
	}
	metrics.RecordDocumentRequest(backend, operation, size, time.Since(start), err)
}
