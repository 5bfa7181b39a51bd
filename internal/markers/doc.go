// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

/*
Package markers implements CRUD over the trucksOnMap array of the stored
JSON document.

Every operation is a full read-modify-write cycle against a document.Client:

	store := markers.NewStore(client, markers.WithNotifier(hub))
	m, err := store.Create(ctx, payload) // id = len(markers)+1

Ids are assigned as the current marker count plus one, so a delete followed
by a create can reuse an id that is still present. Lookups match the first
marker whose id equals the requested number, accepting both JSON numbers and
numeric strings.

# Concurrency

There is no locking. By default the later of two overlapping saves wins and
the earlier mutation is lost. WithOptimisticConcurrency(true) makes saves
conditional on the downloaded generation and surfaces ErrConflict instead.

# Errors

All failures wrap one of ErrInvalidID, ErrInvalidPayload, ErrNotFound,
ErrSchemaViolation, ErrConflict or ErrStorageFailure.
*/
package markers
