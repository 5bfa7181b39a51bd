// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/truckmap/internal/logging"
	"github.com/tomtom215/truckmap/internal/metrics"
)

// BreakerSettings tunes the storage circuit breaker.
type BreakerSettings struct {
	Name        string
	MaxRequests uint32        // requests allowed in half-open state
	Interval    time.Duration // closed-state count reset period
	Timeout     time.Duration // open-state duration before half-open
	MinRequests uint32        // requests needed before the failure ratio is considered
	FailureRate float64       // failure ratio that opens the circuit
}

// DefaultBreakerSettings returns the production breaker configuration.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:        "document-storage",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		MinRequests: 10,
		FailureRate: 0.6,
	}
}

// BreakerClient wraps a Client with a circuit breaker. While the circuit is
// open, calls fail fast with gobreaker.ErrOpenState. Missing objects and
// failed preconditions are answers from a healthy backend and never count as
// failures.
type BreakerClient struct {
	next Client
	cb   *gobreaker.CircuitBreaker[interface{}]
	name string
}

// NewBreakerClient wraps next with a circuit breaker.
func NewBreakerClient(next Client, s BreakerSettings) *BreakerClient {
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(s.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= s.FailureRate
			if shouldTrip {
				logging.Warn().Str("breaker", s.Name).Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrObjectNotFound) ||
				errors.Is(err, ErrPreconditionFailed) ||
				errors.Is(err, context.Canceled)
		},
	})

	return &BreakerClient{next: next, cb: cb, name: s.Name}
}

// execute runs fn through the breaker and records the outcome.
func (b *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)

	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		logging.Warn().Err(err).Str("breaker", b.name).Msg("[CIRCUIT BREAKER] Request rejected")
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
	}
	return result, err
}

// Download reads the document through the breaker.
func (b *BreakerClient) Download(ctx context.Context) (*Object, error) {
	return castResult[Object](b.execute(func() (interface{}, error) {
		return b.next.Download(ctx)
	}))
}

// Save writes the document through the breaker.
func (b *BreakerClient) Save(ctx context.Context, data []byte, ifGeneration int64) (int64, error) {
	gen, err := castResult[int64](b.execute(func() (interface{}, error) {
		g, err := b.next.Save(ctx, data, ifGeneration)
		if err != nil {
			return nil, err
		}
		return &g, nil
	}))
	if err != nil {
		return 0, err
	}
	return *gen, nil
}

// State reports the current breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

// castResult type-asserts the breaker result.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts breaker state to the gauge value.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
