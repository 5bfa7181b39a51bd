// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/truckmap/internal/logging"
	"github.com/tomtom215/truckmap/internal/markers"
	"github.com/tomtom215/truckmap/internal/metrics"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path.
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline means the context deadline was exceeded.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types
const (
	MessageTypeMarkersChanged = "markers_changed"
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
)

// Message is the envelope of every websocket frame.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// MarkersChangedData is sent after every successful marker mutation.
type MarkersChangedData struct {
	Operation markers.Operation `json:"operation"`
	Markers   []markers.Entry   `json:"markers"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	// stopped is closed when RunWithContext returns and replaced when it
	// starts again.
	stopMu  sync.Mutex
	stopped chan struct{}
}

var _ markers.Notifier = (*Hub)(nil)

// NewHub creates a new Hub. It does nothing until RunWithContext is called.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		stopped:    make(chan struct{}),
	}
}

// RegisterClient hands client to the hub. It reports false without blocking
// further once the hub has stopped.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.stoppedChan():
		return false
	}
}

// unregisterClient is RegisterClient's counterpart for the read pump.
func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.stoppedChan():
	}
}

func (h *Hub) stoppedChan() <-chan struct{} {
	h.stopMu.Lock()
	defer h.stopMu.Unlock()
	return h.stopped
}

// markRunning returns the channel to close when this run ends, replacing
// the one a previous run closed.
func (h *Hub) markRunning() chan struct{} {
	h.stopMu.Lock()
	defer h.stopMu.Unlock()
	select {
	case <-h.stopped:
		h.stopped = make(chan struct{})
	default:
	}
	return h.stopped
}

// RunWithContext serves the hub until ctx is done, then closes every client
// and returns ctx.Err(). Shutdown is checked first and lifecycle events are
// handled before broadcasts, so a client registered before a broadcast
// always receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	stopped := h.markRunning()
	defer close(stopped)

	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(count))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", count).Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(count))
	logging.Info().Uint64("client_id", client.id).Int("total_clients", count).Msg("websocket client disconnected")
}

// shutdown closes all clients and logs why. ctx.Err() is expected here and
// is not logged as an error.
func (h *Hub) shutdown(ctx context.Context) {
	count := h.ClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(shutdownReason(ctx))).
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

func shutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

// sortedClients returns the clients in id order. Caller holds h.mu.
func (h *Hub) sortedClients() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// broadcastToClients delivers message in client id order. Clients whose send
// buffer is full are dropped.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var dropped []*Client
	for _, client := range h.sortedClients() {
		select {
		case client.send <- message:
		default:
			dropped = append(dropped, client)
		}
	}

	for _, client := range dropped {
		close(client.send)
		delete(h.clients, client)
		metrics.WSErrors.WithLabelValues("slow_client").Inc()
		logging.Warn().Uint64("client_id", client.id).Msg("websocket client too slow, disconnected")
	}
	metrics.WSConnections.Set(float64(len(h.clients)))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.sortedClients() {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
}

// BroadcastJSON queues a message for all clients. It never blocks; when the
// queue is full the message is dropped.
func (h *Hub) BroadcastJSON(messageType string, data interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Data: data}:
	default:
		metrics.WSErrors.WithLabelValues("broadcast_full").Inc()
		logging.Warn().Str("message_type", messageType).Msg("broadcast channel full, dropping message")
	}
}

// MarkersChanged broadcasts the saved marker collection after a mutation.
func (h *Hub) MarkersChanged(op markers.Operation, list []markers.Entry) {
	h.BroadcastJSON(MessageTypeMarkersChanged, MarkersChangedData{
		Operation: op,
		Markers:   list,
	})
	logging.Debug().
		Str("operation", string(op)).
		Int("markers", len(list)).
		Int("clients", h.ClientCount()).
		Msg("broadcast markers_changed")
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage encodes msg as JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
