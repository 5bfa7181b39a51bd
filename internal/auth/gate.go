// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package auth

import (
	"net/http"
)

// Paths the gate lets through without credentials.
const (
	LoginPath   = "/login"
	MarkersPath = "/markers"
)

// Decision is the outcome of a successful gate check. Claims is nil when the
// request bypassed authentication.
type Decision struct {
	Bypass bool
	Claims *Claims
}

// Gate decides whether a request may proceed to the marker routes.
type Gate struct {
	strategy Strategy
}

// NewGate creates a Gate delegating to strategy.
func NewGate(strategy Strategy) *Gate {
	return &Gate{strategy: strategy}
}

// Strategy returns the configured strategy.
func (g *Gate) Strategy() Strategy {
	return g.strategy
}

// Authenticate lets the login route and the public listing through and
// hands every other request to the strategy.
func (g *Gate) Authenticate(method, path string, headers http.Header) (Decision, error) {
	if path == LoginPath {
		return Decision{Bypass: true}, nil
	}
	if method == http.MethodGet && path == MarkersPath {
		return Decision{Bypass: true}, nil
	}

	claims, err := g.strategy.Authenticate(headers)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Claims: claims}, nil
}
