// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/truckmap/internal/auth"
	"github.com/tomtom215/truckmap/internal/logging"
	"github.com/tomtom215/truckmap/internal/markers"
	ws "github.com/tomtom215/truckmap/internal/websocket"
)

// MarkerStore is the marker engine the handlers call.
type MarkerStore interface {
	List(ctx context.Context) ([]markers.Entry, error)
	Get(ctx context.Context, id string) (markers.Marker, error)
	Create(ctx context.Context, payload markers.Marker) (markers.Marker, error)
	Update(ctx context.Context, id string, payload markers.Marker) (markers.Marker, error)
	Delete(ctx context.Context, id string) ([]markers.Entry, error)
	Ping(ctx context.Context) error
}

// Handler serves the marker API.
type Handler struct {
	store         MarkerStore
	authenticator *auth.Authenticator
	wsHub         *ws.Hub
	corsOrigins   []string
	startTime     time.Time
}

// NewHandler creates a Handler. authenticator is nil in basic mode, where
// there is no login route. wsHub may be nil to disable /ws.
func NewHandler(store MarkerStore, authenticator *auth.Authenticator, wsHub *ws.Hub, corsOrigins []string) *Handler {
	return &Handler{
		store:         store,
		authenticator: authenticator,
		wsHub:         wsHub,
		corsOrigins:   corsOrigins,
		startTime:     time.Now(),
	}
}

// Login exchanges username and password for a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := parseLoginRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	token, _, err := h.authenticator.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, LoginResponse{Token: token})
}

// ListMarkers returns every marker.
func (h *Handler) ListMarkers(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []markers.Entry{}
	}
	respondJSON(w, r, http.StatusOK, list)
}

// GetMarker returns the marker with the path id.
func (h *Handler) GetMarker(w http.ResponseWriter, r *http.Request) {
	m, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, m)
}

// CreateMarker stores the body as a new marker and returns it with its id.
func (h *Handler) CreateMarker(w http.ResponseWriter, r *http.Request) {
	payload, err := parseMarkerPayload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	m, err := h.store.Create(r.Context(), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, m)
}

// UpdateMarker replaces the marker with the path id by the body.
func (h *Handler) UpdateMarker(w http.ResponseWriter, r *http.Request) {
	payload, err := parseMarkerPayload(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	m, err := h.store.Update(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, m)
}

// DeleteMarker removes the marker with the path id and returns the rest.
func (h *Handler) DeleteMarker(w http.ResponseWriter, r *http.Request) {
	remaining, err := h.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if remaining == nil {
		remaining = []markers.Entry{}
	}
	respondJSON(w, r, http.StatusOK, remaining)
}

// WebSocket upgrades an authenticated request to the marker feed.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		http.Error(w, "websocket feed unavailable", http.StatusServiceUnavailable)
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	var username string
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		username = claims.Username
	}

	client := ws.NewClient(h.wsHub, conn, username)
	if !h.wsHub.RegisterClient(client) {
		logging.Ctx(r.Context()).Warn().Msg("WebSocket hub stopped, closing connection")
		_ = conn.Close()
		return
	}
	client.Start()
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin allows requests without Origin (non-browser clients
// already carry a bearer token) and browser origins in the CORS list.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Ctx(r.Context()).Warn().Str("origin", origin).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// HealthLive reports that the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady reports whether the document can be downloaded and parsed.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Readiness check failed")
		respondJSON(w, r, http.StatusServiceUnavailable, map[string]interface{}{
			"ready": false,
		})
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"ready": true,
	})
}
