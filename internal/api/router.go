// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/truckmap/internal/auth"
	"github.com/tomtom215/truckmap/internal/middleware"
)

const markerPath = auth.MarkersPath + "/{id}"

// Router wires handlers, auth pipeline and middleware into a chi router.
type Router struct {
	handler       *Handler
	pipeline      *auth.Pipeline
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a Router. The pipeline is built here so its rejections
// go through the same error mapping as the handlers.
func NewRouter(handler *Handler, gate *auth.Gate, guard *auth.SecondaryGuard, chiMiddleware *ChiMiddleware) *Router {
	if chiMiddleware == nil {
		chiMiddleware = NewChiMiddleware(nil)
	}
	return &Router{
		handler:       handler,
		pipeline:      auth.NewPipeline(gate, guard, writeError),
		chiMiddleware: chiMiddleware,
	}
}

// SetupChi builds the HTTP handler.
//
//	POST   /login         no credentials (bearer mode only)
//	GET    /markers       public
//	GET    /markers/{id}  bearer + secondarytoken
//	POST   /markers       bearer + secondarytoken
//	PUT    /markers/{id}  bearer
//	DELETE /markers/{id}  bearer + secondarytoken
//	GET    /ws            bearer
//
// Health probes and /metrics are mounted outside the gated surface.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	p := router.pipeline

	r := chi.NewRouter()
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		if h.authenticator != nil {
			r.With(router.chiMiddleware.RateLimitLogin()).Post(auth.LoginPath, h.Login)
		}

		r.With(p.Require(auth.PublicRead)).Get(auth.MarkersPath, h.ListMarkers)
		r.With(p.Require(auth.RequireBearer, auth.RequireSecondaryToken)).Post(auth.MarkersPath, h.CreateMarker)

		r.With(p.Require(auth.RequireBearer, auth.RequireSecondaryToken)).Get(markerPath, h.GetMarker)
		r.With(p.Require(auth.RequireBearer)).Put(markerPath, h.UpdateMarker)
		r.With(p.Require(auth.RequireBearer, auth.RequireSecondaryToken)).Delete(markerPath, h.DeleteMarker)

		r.With(p.Require(auth.RequireBearer)).Get("/ws", h.WebSocket)
	})

	return r
}
