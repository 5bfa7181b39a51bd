// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/truckmap/internal/document"
	"github.com/tomtom215/truckmap/internal/markers"
)

// startHub runs a hub until the test ends.
func startHub(t *testing.T) (*Hub, context.CancelFunc, <-chan error) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	t.Cleanup(cancel)
	return hub, cancel, done
}

// testClient is a client without a connection; tests read its send channel.
func testClient(hub *Hub, buffer int) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, buffer)}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		return msg, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}, false
	}
}

func TestHub_MarkersChangedReachesEveryClient(t *testing.T) {
	hub, _, _ := startHub(t)
	a, b := testClient(hub, 4), testClient(hub, 4)
	hub.Register <- a
	hub.Register <- b
	waitForClients(t, hub, 2)

	list := []markers.Entry{document.EntryOf(markers.Marker{"id": json.RawMessage("1")})}
	hub.MarkersChanged(markers.OpCreate, list)

	for _, c := range []*Client{a, b} {
		msg, ok := receive(t, c)
		if !ok {
			t.Fatal("send channel closed")
		}
		if msg.Type != MessageTypeMarkersChanged {
			t.Errorf("Type = %q, want %q", msg.Type, MessageTypeMarkersChanged)
		}
		data, ok := msg.Data.(MarkersChangedData)
		if !ok {
			t.Fatalf("Data = %T, want MarkersChangedData", msg.Data)
		}
		if data.Operation != markers.OpCreate || len(data.Markers) != 1 {
			t.Errorf("Data = %+v", data)
		}
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub, _, _ := startHub(t)
	c := testClient(hub, 1)
	hub.Register <- c
	waitForClients(t, hub, 1)

	hub.Unregister <- c
	waitForClients(t, hub, 0)

	if _, ok := receive(t, c); ok {
		t.Error("send channel should be closed after unregister")
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub, _, _ := startHub(t)
	slow := testClient(hub, 1)
	hub.Register <- slow
	waitForClients(t, hub, 1)

	hub.BroadcastJSON(MessageTypeMarkersChanged, nil)
	hub.BroadcastJSON(MessageTypeMarkersChanged, nil)
	waitForClients(t, hub, 0)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, cancel, done := startHub(t)
	c := testClient(hub, 1)
	hub.Register <- c
	waitForClients(t, hub, 1)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d after shutdown", hub.ClientCount())
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed after shutdown")
	}
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	hub, cancel, done := startHub(t)
	cancel()
	<-done

	c := testClient(hub, 1)
	finished := make(chan bool, 1)
	go func() {
		ok := hub.RegisterClient(c)
		hub.unregisterClient(c)
		finished <- ok
	}()

	select {
	case ok := <-finished:
		if ok {
			t.Error("RegisterClient() = true after hub stopped")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("register or unregister blocked after hub stopped")
	}
}

func TestHub_RestartAcceptsClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	cancel()
	<-done

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.RunWithContext(ctx) }()

	c := testClient(hub, 1)
	registered := make(chan bool, 1)
	go func() {
		// the second run may not have started yet; retry until it has
		for !hub.RegisterClient(c) {
			time.Sleep(5 * time.Millisecond)
		}
		registered <- true
	}()

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("RegisterClient() never succeeded on restarted hub")
	}
	waitForClients(t, hub, 1)
}

func TestShutdownReason(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := shutdownReason(ctx); got != ShutdownReasonContextCanceled {
		t.Errorf("shutdownReason() = %q", got)
	}

	ctx, cancel = context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	if got := shutdownReason(ctx); got != ShutdownReasonContextDeadline {
		t.Errorf("shutdownReason() = %q", got)
	}
}

func TestClient_OverRealConnection(t *testing.T) {
	hub, _, _ := startHub(t)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade() error = %v", err)
			return
		}
		client := NewClient(hub, conn, "admin")
		if !hub.RegisterClient(client) {
			t.Error("RegisterClient() = false on running hub")
			return
		}
		client.Start()
	}))
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer resp.Body.Close()
	defer conn.Close()
	waitForClients(t, hub, 1)

	// ping round trip
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	assertFrame(t, conn, func(m map[string]json.RawMessage) {
		if string(m["type"]) != `"pong"` {
			t.Errorf("type = %s, want pong", m["type"])
		}
	})

	// mutation broadcast keeps marker fields as raw JSON
	marker, err := document.ParseMarker([]byte(`{"id":2,"lat":5,"lon":5}`))
	if err != nil {
		t.Fatalf("ParseMarker() error = %v", err)
	}
	hub.MarkersChanged(markers.OpUpdate, []markers.Entry{document.EntryOf(marker)})

	assertFrame(t, conn, func(m map[string]json.RawMessage) {
		var data struct {
			Operation string                   `json:"operation"`
			Markers   []map[string]interface{} `json:"markers"`
		}
		if err := json.Unmarshal(m["data"], &data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
		if data.Operation != "update" || len(data.Markers) != 1 || data.Markers[0]["lat"] != float64(5) {
			t.Errorf("data = %+v", data)
		}
	})
}

func assertFrame(t *testing.T, conn *websocket.Conn, check func(map[string]json.RawMessage)) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode frame %s: %v", data, err)
	}
	check(m)
}
