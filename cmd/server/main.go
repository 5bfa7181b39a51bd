// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/truckmap/internal/api"
	"github.com/tomtom215/truckmap/internal/auth"
	"github.com/tomtom215/truckmap/internal/config"
	"github.com/tomtom215/truckmap/internal/logging"
	"github.com/tomtom215/truckmap/internal/markers"
	"github.com/tomtom215/truckmap/internal/metrics"
	"github.com/tomtom215/truckmap/internal/supervisor"
	"github.com/tomtom215/truckmap/internal/supervisor/services"
	ws "github.com/tomtom215/truckmap/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: os.Stderr,
	})

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
	logging.Info().Str("version", version).Str("config", cfg.String()).Msg("Starting Truckmap")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openBackend(ctx, &cfg.Storage)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open document store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing document store")
		}
	}()

	authComponents, err := auth.NewFromConfig(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to configure authentication")
	}
	if cfg.Security.AuthMode == config.AuthModeBasic {
		logging.Warn().Msg("Basic auth sends credentials with every request. Use HTTPS in production!")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*). Set explicit origins in production")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Login rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	wsHub := ws.NewHub()
	markerStore := markers.NewStore(store.client,
		markers.WithOptimisticConcurrency(cfg.Storage.OptimisticConcurrency),
		markers.WithNotifier(wsHub),
	)

	chiConfig := api.DefaultChiMiddlewareConfig()
	if len(cfg.Security.CORSOrigins) > 0 {
		chiConfig.CORSAllowedOrigins = cfg.Security.CORSOrigins
	}
	chiConfig.LoginRateLimit = cfg.Security.LoginRateLimit
	chiConfig.LoginRateWindow = cfg.Security.LoginRateWindow
	chiConfig.RateLimitDisabled = cfg.Security.RateLimitDisabled

	handler := api.NewHandler(markerStore, authComponents.Authenticator, wsHub, cfg.Security.CORSOrigins)
	router := api.NewRouter(handler, authComponents.Gate, authComponents.Guard, api.NewChiMiddleware(chiConfig))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if store.badger != nil {
		tree.AddStorageService(services.NewStorageGCService(store.badger, cfg.Storage.GCInterval, cfg.Storage.GCDiscardRatio))
	}
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
