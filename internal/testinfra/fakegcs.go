// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

//go:build integration

package testinfra

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultFakeGCSImage is the GCS emulator image.
	DefaultFakeGCSImage = "fsouza/fake-gcs-server:1.52.1"

	fakeGCSPort = "4443/tcp"
)

// FakeGCSContainer is a running GCS emulator.
type FakeGCSContainer struct {
	testcontainers.Container

	// Host is host:port, the form STORAGE_EMULATOR_HOST expects.
	Host string
	URL  string
}

// FakeGCSOption configures the emulator container.
type FakeGCSOption func(*fakeGCSConfig)

type fakeGCSConfig struct {
	image        string
	buckets      []string
	startTimeout time.Duration
}

// WithFakeGCSImage sets a custom emulator image.
func WithFakeGCSImage(image string) FakeGCSOption {
	return func(c *fakeGCSConfig) {
		c.image = image
	}
}

// WithBuckets creates the named buckets once the emulator is up.
func WithBuckets(names ...string) FakeGCSOption {
	return func(c *fakeGCSConfig) {
		c.buckets = append(c.buckets, names...)
	}
}

// WithStartTimeout sets how long to wait for the emulator to start.
func WithStartTimeout(timeout time.Duration) FakeGCSOption {
	return func(c *fakeGCSConfig) {
		c.startTimeout = timeout
	}
}

// NewFakeGCSContainer starts an in-memory GCS emulator.
//
//	gcs, err := testinfra.NewFakeGCSContainer(ctx, testinfra.WithBuckets("trucks"))
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, gcs.Container)
//	t.Setenv("STORAGE_EMULATOR_HOST", gcs.Host)
func NewFakeGCSContainer(ctx context.Context, opts ...FakeGCSOption) (*FakeGCSContainer, error) {
	cfg := &fakeGCSConfig{
		image:        DefaultFakeGCSImage,
		startTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{fakeGCSPort},
		Cmd:          []string{"-scheme", "http", "-port", "4443", "-backend", "memory"},
		WaitingFor: wait.ForHTTP("/storage/v1/b").
			WithPort(fakeGCSPort).
			WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create fake-gcs container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, fakeGCSPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped port: %w", err)
	}

	c := &FakeGCSContainer{
		Container: container,
		Host:      fmt.Sprintf("%s:%s", host, port.Port()),
	}
	c.URL = "http://" + c.Host

	for _, bucket := range cfg.buckets {
		if err := c.CreateBucket(ctx, bucket); err != nil {
			container.Terminate(ctx) //nolint:errcheck
			return nil, err
		}
	}
	return c, nil
}

// CreateBucket creates a bucket through the emulator's JSON API.
func (c *FakeGCSContainer) CreateBucket(ctx context.Context, name string) error {
	body := fmt.Sprintf(`{"name":%q}`, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL+"/storage/v1/b?project=truckmap-test", bytes.NewBufferString(body))
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("create bucket %s: unexpected status %d", name, resp.StatusCode)
	}
	return nil
}
