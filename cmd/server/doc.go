// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

/*
Package main is the entry point for the Truckmap server.

Truckmap stores truck position markers in a single JSON document kept in
Google Cloud Storage (or an embedded BadgerDB for local use) and exposes
them over a small authenticated REST API with a WebSocket change feed.

# Application Architecture

	Root ("truckmap")
	├── "storage-layer"
	│   └── Badger value log GC (badger backend only)
	├── "messaging-layer"
	│   └── WebSocket Hub (marker change feed)
	└── "api-layer"
	    └── HTTP Server (chi router)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config.yaml and environment variables
 2. Logging: zerolog with JSON/console output modes
 3. Document store: GCS, Badger or memory, optionally seeded and behind a circuit breaker
 4. Authentication: bearer (JWT from POST /login) or basic, plus the secondarytoken header
 5. WebSocket Hub and marker store
 6. Supervisor Tree: Suture v4 process supervision
 7. HTTP Server

# Configuration

Core environment variables:

	# Server
	HTTP_PORT=3000
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Authentication
	AUTH_MODE=bearer             # bearer or basic
	JWT_SECRET=<32+ chars>
	ADMIN_USERNAME_HASH=<sha256 hex>
	ADMIN_PASSWORD_HASH=<sha256 hex or bcrypt>
	SECONDARY_TOKEN_HASH=<sha256 hex>

	# Storage
	STORAGE_BACKEND=gcs          # gcs, badger or memory
	GCS_BUCKET=my-bucket
	GCS_OBJECT=db.json

# Signal Handling

SIGINT and SIGTERM cancel the supervisor tree. The HTTP server drains
in-flight requests for SHUTDOWN_TIMEOUT, the hub closes client connections
and the document backend is closed last.
*/
package main
