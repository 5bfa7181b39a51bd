// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

/*
Package auth guards the marker API.

Two layers are combined per route through a Pipeline of capabilities:

  - the Gate authenticates the primary credential with a Strategy. In the
    default bearer mode the client first calls POST /login and then sends
    "Authorization: Bearer <token>". The legacy basic mode checks HTTP Basic
    credentials (and an optional Origin whitelist) on every request.
  - the SecondaryGuard compares the secondarytoken header against a shared
    secret digest.

Configured credentials are SHA-256 hex digests; the password may instead be
a bcrypt hash. All comparisons are constant time.

# Usage

	c, err := auth.NewFromConfig(&cfg.Security)
	p := auth.NewPipeline(c.Gate, c.Guard, writeError)
	r.With(p.Require(auth.RequireBearer, auth.RequireSecondaryToken)).Delete("/markers/{id}", h.DeleteMarker)

Tokens are HS256 JWTs holding the username, iat and exp. They expire after
security.token_ttl (5 minutes by default) and cannot be revoked.
*/
package auth
