// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package auth

import (
	"errors"
	"net/http"

	"github.com/tomtom215/truckmap/internal/logging"
	"github.com/tomtom215/truckmap/internal/metrics"
)

// Capability is a requirement a route declares.
type Capability int

const (
	// PublicRead marks a route that needs no credentials.
	PublicRead Capability = iota

	// RequireBearer runs the gate with the configured primary strategy.
	RequireBearer

	// RequireSecondaryToken checks the secondarytoken header.
	RequireSecondaryToken
)

func (c Capability) String() string {
	switch c {
	case PublicRead:
		return "public_read"
	case RequireBearer:
		return "require_bearer"
	case RequireSecondaryToken:
		return "require_secondary_token"
	default:
		return "unknown"
	}
}

// ErrorWriter writes the response for a rejected request.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Pipeline turns route capabilities into middleware.
type Pipeline struct {
	gate    *Gate
	guard   *SecondaryGuard
	onError ErrorWriter
}

// NewPipeline creates a Pipeline. onError writes every rejection.
func NewPipeline(gate *Gate, guard *SecondaryGuard, onError ErrorWriter) *Pipeline {
	return &Pipeline{
		gate:    gate,
		guard:   guard,
		onError: onError,
	}
}

// Require returns middleware enforcing caps. The primary check always runs
// before the secondary token check, whatever the order of caps.
//
//	r.With(p.Require(auth.RequireBearer, auth.RequireSecondaryToken)).Post("/markers", h.CreateMarker)
func (p *Pipeline) Require(caps ...Capability) func(http.Handler) http.Handler {
	var primary, secondary bool
	for _, c := range caps {
		switch c {
		case RequireBearer:
			primary = true
		case RequireSecondaryToken:
			secondary = true
		}
	}

	return func(next http.Handler) http.Handler {
		if !primary && !secondary {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if primary {
				decision, err := p.gate.Authenticate(r.Method, r.URL.Path, r.Header)
				metrics.RecordAuthDecision("primary", decisionLabel(decision, err))
				if err != nil {
					p.reject(w, r, "primary", err)
					return
				}
				if decision.Claims != nil {
					r = r.WithContext(ContextWithClaims(r.Context(), decision.Claims))
				}
			}

			if secondary {
				if err := p.guard.Check(r.Header); err != nil {
					p.reject(w, r, "secondary", err)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (p *Pipeline) reject(w http.ResponseWriter, r *http.Request, stage string, err error) {
	logging.Ctx(r.Context()).Debug().
		Err(err).
		Str("stage", stage).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Request rejected")

	if errors.Is(err, ErrCredentialsMissing) || errors.Is(err, ErrInvalidCredentials) {
		if c, ok := p.gate.Strategy().(Challenger); ok {
			w.Header().Set("WWW-Authenticate", c.Challenge())
		}
	}
	p.onError(w, r, err)
}

func decisionLabel(d Decision, err error) string {
	switch {
	case err == nil && d.Bypass:
		return "bypass"
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTokenMissing), errors.Is(err, ErrCredentialsMissing):
		return "missing"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrOriginNotAllowed):
		return "origin_denied"
	default:
		return "invalid"
	}
}
