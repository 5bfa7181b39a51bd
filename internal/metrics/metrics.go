// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

// Package metrics defines the Prometheus collectors exported on /metrics.
//
// Collectors are registered with the default registry through promauto and
// grouped by concern: API requests, marker store operations, document storage
// round trips, the storage circuit breaker, authentication decisions and the
// websocket hub. Call sites use the Record* helpers rather than the vectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Marker Store Metrics
	MarkerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marker_operations_total",
			Help: "Total number of marker store operations by result",
		},
		[]string{"operation", "result"},
	)

	MarkerOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marker_operation_duration_seconds",
			Help:    "Duration of marker store operations including document round trips",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	MarkersStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "markers_stored",
			Help: "Number of markers in the document after the last successful operation",
		},
	)

	// Document Storage Metrics
	DocumentRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_requests_total",
			Help: "Total number of document backend requests",
		},
		[]string{"backend", "operation", "result"},
	)

	DocumentRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "document_request_duration_seconds",
			Help:    "Duration of document backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	DocumentSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "document_size_bytes",
			Help: "Size of the document at the last download or save",
		},
		[]string{"backend"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Authentication Metrics
	AuthDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_decisions_total",
			Help: "Authentication decisions by stage and result",
		},
		[]string{"stage", "result"}, // stage: "login", "bearer", "basic", "secondary"
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit counts a rejected request on endpoint.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordMarkerOperation records one marker store operation. result is a short
// classification such as "ok", "not_found" or "storage_failure".
func RecordMarkerOperation(operation, result string, duration time.Duration) {
	MarkerOperationsTotal.WithLabelValues(operation, result).Inc()
	MarkerOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetMarkersStored updates the stored marker gauge.
func SetMarkersStored(n int) {
	MarkersStored.Set(float64(n))
}

// RecordDocumentRequest records one backend round trip.
func RecordDocumentRequest(backend, operation string, size int, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	} else {
		DocumentSizeBytes.WithLabelValues(backend).Set(float64(size))
	}
	DocumentRequestsTotal.WithLabelValues(backend, operation, result).Inc()
	DocumentRequestDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordAuthDecision counts one authentication outcome.
func RecordAuthDecision(stage, result string) {
	AuthDecisionsTotal.WithLabelValues(stage, result).Inc()
}
