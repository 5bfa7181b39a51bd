// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package api

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/truckmap/internal/auth"
	"github.com/tomtom215/truckmap/internal/config"
	"github.com/tomtom215/truckmap/internal/document"
	"github.com/tomtom215/truckmap/internal/markers"
	ws "github.com/tomtom215/truckmap/internal/websocket"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"

	// SHA-256 hex digests of "admin", "secret" and "truck-secret".
	adminDigest     = "8c6976e5b5410415bde908bd4dee15dfb167a9c873fc4bb8a81f6f2ab448a918"
	secretDigest    = "2bb80d537b1da3e38bd30361aa855686bde0eacd7162fef6a25fe97bf527a25b"
	secondaryDigest = "3a88f11adba125a45f8c45678e41b6cdfc16e797c26064a1df7a7acc4ccc6aee"

	startingDoc = `{"trucksOnMap":[{"id":1,"lat":0,"lon":0}]}`
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testServer is a fully wired API over an in-memory document.
type testServer struct {
	*httptest.Server
	client *document.MemoryClient
	clock  *testClock
	hub    *ws.Hub

	// stopHub ends the hub run and waits for it to return.
	stopHub func()
}

type serverOption func(*config.SecurityConfig, *ChiMiddlewareConfig)

func withAuthMode(mode string) serverOption {
	return func(sec *config.SecurityConfig, _ *ChiMiddlewareConfig) {
		sec.AuthMode = mode
	}
}

func withLoginLimit(n int) serverOption {
	return func(_ *config.SecurityConfig, mw *ChiMiddlewareConfig) {
		mw.LoginRateLimit = n
		mw.LoginRateWindow = time.Hour
		mw.RateLimitDisabled = false
	}
}

func newTestServer(t *testing.T, data string, opts ...serverOption) *testServer {
	t.Helper()

	sec := &config.SecurityConfig{
		AuthMode:           config.AuthModeBearer,
		JWTSecret:          testSecret,
		TokenTTL:           auth.DefaultTokenTTL,
		UsernameHash:       adminDigest,
		PasswordHash:       secretDigest,
		SecondaryTokenHash: secondaryDigest,
		CORSOrigins:        []string{"*"},
	}
	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.RateLimitDisabled = true
	for _, opt := range opts {
		opt(sec, mwCfg)
	}

	clock := &testClock{now: time.Now().Truncate(time.Second)}
	components, err := auth.NewFromConfig(sec, auth.WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}

	var client *document.MemoryClient
	if data == "" {
		client = document.NewMemoryClient()
	} else {
		client = document.NewMemoryClientWithData([]byte(data))
	}

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		_ = hub.RunWithContext(ctx)
	}()

	store := markers.NewStore(client, markers.WithNotifier(hub))
	handler := NewHandler(store, components.Authenticator, hub, sec.CORSOrigins)
	router := NewRouter(handler, components.Gate, components.Guard, NewChiMiddleware(mwCfg))

	srv := httptest.NewServer(router.SetupChi())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &testServer{
		Server: srv,
		client: client,
		clock:  clock,
		hub:    hub,
		stopHub: func() {
			cancel()
			<-hubDone
		},
	}
}

type request struct {
	method    string
	path      string
	body      string
	bearer    string
	secondary string
	basic     [2]string
	headers   map[string]string
}

func (s *testServer) do(t *testing.T, req request) (*http.Response, string) {
	t.Helper()

	var body io.Reader = http.NoBody
	if req.body != "" {
		body = strings.NewReader(req.body)
	}
	r, err := http.NewRequest(req.method, s.URL+req.path, body)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	if req.body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.bearer != "" {
		r.Header.Set("Authorization", "Bearer "+req.bearer)
	}
	if req.basic[0] != "" {
		r.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(req.basic[0]+":"+req.basic[1])))
	}
	if req.secondary != "" {
		r.Header.Set(auth.SecondaryTokenHeader, req.secondary)
	}
	for k, v := range req.headers {
		r.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(r)
	if err != nil {
		t.Fatalf("%s %s error = %v", req.method, req.path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(data)
}

// login returns a bearer token for the test credentials.
func (s *testServer) login(t *testing.T) string {
	t.Helper()
	resp, body := s.do(t, request{method: http.MethodPost, path: "/login", body: `{"username":"admin","password":"secret"}`})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, body %q", resp.StatusCode, body)
	}
	var out LoginResponse
	if err := json.Unmarshal([]byte(body), &out); err != nil || out.Token == "" {
		t.Fatalf("login body %q: %v", body, err)
	}
	return out.Token
}

// decodeJSON decodes body into a generic value for comparison.
func decodeJSON(t *testing.T, body string) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return v
}
