// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/truckmap/internal/config"
)

// recordError writes the sentinel text so tests can assert which check failed.
func recordError(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusForbidden
	switch {
	case errors.Is(err, ErrTokenMissing), errors.Is(err, ErrCredentialsMissing), errors.Is(err, ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrSecondaryTokenMissing):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func okHandler(t *testing.T, wantUser string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		switch {
		case wantUser == "" && claims != nil:
			t.Errorf("unexpected claims %+v", claims)
		case wantUser != "" && (claims == nil || claims.Username != wantUser):
			t.Errorf("claims = %+v, want username %q", claims, wantUser)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestPipeline_Require(t *testing.T) {
	clock := newFakeClock()
	tokens := newTestTokenManager(t, clock)
	p := NewPipeline(NewGate(NewBearerStrategy(tokens)), NewSecondaryGuard(secondaryDigest), recordError)

	token, _, err := tokens.Issue("admin")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name       string
		caps       []Capability
		method     string
		path       string
		bearer     string
		secondary  string
		wantStatus int
		wantUser   string
	}{
		{"public read needs nothing", []Capability{PublicRead}, http.MethodGet, "/markers", "", "", http.StatusNoContent, ""},
		{"bearer checked before secondary", []Capability{RequireBearer, RequireSecondaryToken}, http.MethodGet, "/markers/1", "", "", http.StatusUnauthorized, ""},
		{"order of caps does not matter", []Capability{RequireSecondaryToken, RequireBearer}, http.MethodGet, "/markers/1", "", "truck-secret", http.StatusUnauthorized, ""},
		{"missing secondary with valid bearer", []Capability{RequireBearer, RequireSecondaryToken}, http.MethodPost, "/markers", token, "", http.StatusBadRequest, ""},
		{"wrong secondary", []Capability{RequireBearer, RequireSecondaryToken}, http.MethodDelete, "/markers/1", token, "wrong", http.StatusForbidden, ""},
		{"both valid", []Capability{RequireBearer, RequireSecondaryToken}, http.MethodDelete, "/markers/1", token, "truck-secret", http.StatusNoContent, "admin"},
		{"update needs bearer only", []Capability{RequireBearer}, http.MethodPut, "/markers/1", token, "", http.StatusNoContent, "admin"},
		{"invalid bearer", []Capability{RequireBearer}, http.MethodPut, "/markers/1", "abc", "", http.StatusForbidden, ""},
		{"secondary only", []Capability{RequireSecondaryToken}, http.MethodGet, "/markers/1", "", "truck-secret", http.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			if tt.secondary != "" {
				req.Header.Set(SecondaryTokenHeader, tt.secondary)
			}
			rec := httptest.NewRecorder()

			p.Require(tt.caps...)(okHandler(t, tt.wantUser)).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestPipeline_BasicChallenge(t *testing.T) {
	creds := Credentials{UsernameHash: adminDigest, PasswordHash: secretDigest}
	p := NewPipeline(NewGate(NewBasicStrategy(creds, nil)), NewSecondaryGuard(secondaryDigest), recordError)

	req := httptest.NewRequest(http.MethodPut, "/markers/1", http.NoBody)
	rec := httptest.NewRecorder()
	p.Require(RequireBearer)(okHandler(t, "")).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got == "" {
		t.Error("missing WWW-Authenticate header")
	}

	req = httptest.NewRequest(http.MethodPut, "/markers/1", http.NoBody)
	req.Header.Set("Authorization", basicHeader("admin", "secret"))
	rec = httptest.NewRecorder()
	p.Require(RequireBearer)(okHandler(t, "admin")).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}

func TestCapability_String(t *testing.T) {
	if got := RequireSecondaryToken.String(); got != "require_secondary_token" {
		t.Errorf("String() = %q", got)
	}
	if got := Capability(99).String(); got != "unknown" {
		t.Errorf("String() = %q, want unknown", got)
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Run("bearer", func(t *testing.T) {
		c, err := NewFromConfig(testSecurityConfig())
		if err != nil {
			t.Fatalf("NewFromConfig() error = %v", err)
		}
		if c.Authenticator == nil || c.Tokens == nil {
			t.Fatal("bearer mode should build an authenticator and token manager")
		}
		if name := c.Gate.Strategy().Name(); name != "bearer" {
			t.Errorf("strategy = %q, want bearer", name)
		}
	})

	t.Run("basic", func(t *testing.T) {
		cfg := testSecurityConfig()
		cfg.AuthMode = config.AuthModeBasic
		cfg.JWTSecret = ""
		c, err := NewFromConfig(cfg)
		if err != nil {
			t.Fatalf("NewFromConfig() error = %v", err)
		}
		if c.Authenticator != nil {
			t.Error("basic mode should not build a login authenticator")
		}
		if name := c.Gate.Strategy().Name(); name != "basic" {
			t.Errorf("strategy = %q, want basic", name)
		}
	})

	t.Run("bearer without secret", func(t *testing.T) {
		cfg := testSecurityConfig()
		cfg.JWTSecret = ""
		if _, err := NewFromConfig(cfg); err == nil {
			t.Error("NewFromConfig() expected error for empty secret")
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		cfg := testSecurityConfig()
		cfg.AuthMode = "oidc"
		if _, err := NewFromConfig(cfg); err == nil {
			t.Error("NewFromConfig() expected error for unknown mode")
		}
	})
}
