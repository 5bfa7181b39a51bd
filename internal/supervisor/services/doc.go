// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

/*
Package services provides suture.Service wrappers for Truckmap components.

Each wrapper translates a component's own lifecycle into suture's
context-aware Serve pattern and names itself through fmt.Stringer so the
supervisor event log identifies it.

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server running the marker API
  - Drains in-flight requests for a bounded time on shutdown

WebSocket Hub (WebSocketHubService):
  - Wraps websocket.Hub, which pushes marker changes to clients
  - Closes all client connections on shutdown

Storage GC (StorageGCService):
  - Periodically runs Badger value log garbage collection
  - Only registered when the badger backend is selected

# Usage Example

	tree.AddStorageService(services.NewStorageGCService(badgerClient, cfg.Storage.GCInterval, cfg.Storage.GCDiscardRatio))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
*/
package services
