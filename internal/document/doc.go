// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

/*
Package document stores the single JSON document that holds every marker.

The document is one JSON object. Its trucksOnMap key is an array of marker
objects; every other key is opaque and survives writes unchanged:

	{"trucksOnMap":[{"id":1,"lat":0,"lon":0}],"updatedBy":"dispatch"}

# Backends

Client is implemented by:
  - MemoryClient: process memory, used by tests and STORAGE_BACKEND=memory
  - BadgerClient: embedded BadgerDB, key "<bucket>/<object>"
  - GCSClient: Google Cloud Storage object gs://<bucket>/<object>

BreakerClient wraps any of them with a sony/gobreaker circuit breaker.

# Generations

Every Download returns the generation of the object read. Save accepts a
generation precondition; zero means overwrite unconditionally. The marker
store passes zero unless optimistic concurrency is enabled.
*/
package document
