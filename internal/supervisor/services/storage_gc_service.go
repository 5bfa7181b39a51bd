// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package services

import (
	"context"
	"time"

	"github.com/tomtom215/truckmap/internal/logging"
)

// GarbageCollector is satisfied by *document.BadgerClient.
type GarbageCollector interface {
	RunGC(discardRatio float64) error
}

// StorageGCService periodically reclaims Badger value log space. Every
// marker write rewrites the whole document, so stale versions pile up fast.
type StorageGCService struct {
	gc           GarbageCollector
	interval     time.Duration
	discardRatio float64
	name         string
}

// NewStorageGCService returns a service that calls gc.RunGC every interval.
func NewStorageGCService(gc GarbageCollector, interval time.Duration, discardRatio float64) *StorageGCService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = 0.5
	}
	return &StorageGCService{
		gc:           gc,
		interval:     interval,
		discardRatio: discardRatio,
		name:         "storage-gc",
	}
}

// Serve runs until ctx is cancelled. A failed GC run is logged and retried
// on the next tick rather than restarting the service.
func (s *StorageGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.gc.RunGC(s.discardRatio); err != nil {
				logging.Warn().Err(err).Msg("Storage garbage collection failed")
				continue
			}
			logging.Debug().Dur("duration", time.Since(start)).Msg("Storage garbage collection finished")
		}
	}
}

func (s *StorageGCService) String() string {
	return s.name
}
