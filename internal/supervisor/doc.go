// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

/*
Package supervisor provides process supervision for Truckmap using suture v4.

# Overview

Long-running services are grouped into layers so a failure in one does not
take down the others:

	Root ("truckmap")
	├── "storage-layer"
	│   └── StorageGCService (badger backend only)
	├── "messaging-layer"
	│   └── WebSocketHubService
	└── "api-layer"
	    └── HTTPServerService

A crashing hub restarts without interrupting marker requests, and a failing
value log GC never affects either.

# Usage Example

	tree, err := supervisor.NewTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to build supervisor tree")
	}
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)

# Service Interface

Services implement suture.Service:
  - Return nil: stopped cleanly, not restarted
  - Return error: crashed, restarted with backoff
  - Context cancelled: shutdown requested, return promptly

# Debugging Shutdown Issues

If a service ignores cancellation, UnstoppedServiceReport names it after
ShutdownTimeout elapses.
*/
package supervisor
