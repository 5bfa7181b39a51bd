// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

/*
Package websocket pushes marker changes to connected clients.

The Hub implements markers.Notifier. After every successful create, update or
delete the store hands it the saved collection and the hub broadcasts:

	{"type":"markers_changed","data":{"operation":"create","markers":[...]}}

Clients may send {"type":"ping"} and receive {"type":"pong"}; everything else
they send is ignored. Slow clients whose send buffer fills up are dropped.

The hub runs under the supervisor through RunWithContext and closes all
clients when its context ends.
*/
package websocket
