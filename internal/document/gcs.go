// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const backendGCS = "gcs"

// GCSConfig locates the document in Google Cloud Storage.
type GCSConfig struct {
	ProjectID       string
	Bucket          string
	Object          string
	CredentialsFile string
}

// GCSClient reads and writes the document object in a GCS bucket.
type GCSClient struct {
	client *storage.Client
	bucket string
	object string
}

// NewGCSClient creates a storage client. Without a credentials file the
// client uses Application Default Credentials.
func NewGCSClient(ctx context.Context, cfg GCSConfig, extra ...option.ClientOption) (*GCSClient, error) {
	if cfg.Bucket == "" || cfg.Object == "" {
		return nil, fmt.Errorf("gcs: bucket and object are required")
	}

	opts := make([]option.ClientOption, 0, len(extra)+2)
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(cfg.ProjectID))
	}
	opts = append(opts, extra...)

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create client: %w", err)
	}

	return &GCSClient{
		client: client,
		bucket: cfg.Bucket,
		object: cfg.Object,
	}, nil
}

func (c *GCSClient) handle() *storage.ObjectHandle {
	return c.client.Bucket(c.bucket).Object(c.object)
}

// Download reads the whole object and its generation.
func (c *GCSClient) Download(ctx context.Context) (*Object, error) {
	start := time.Now()

	r, err := c.handle().NewReader(ctx)
	if err != nil {
		err = mapGCSError(err)
		observe(backendGCS, "download", start, 0, err)
		return nil, fmt.Errorf("gcs: open gs://%s/%s: %w", c.bucket, c.object, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		observe(backendGCS, "download", start, 0, err)
		return nil, fmt.Errorf("gcs: read gs://%s/%s: %w", c.bucket, c.object, err)
	}

	observe(backendGCS, "download", start, len(data), nil)
	return &Object{Data: data, Generation: r.Attrs.Generation}, nil
}

// Save uploads data as the whole object. A non-zero ifGeneration is sent as a
// GenerationMatch precondition.
func (c *GCSClient) Save(ctx context.Context, data []byte, ifGeneration int64) (int64, error) {
	start := time.Now()

	obj := c.handle()
	if ifGeneration != 0 {
		obj = obj.If(storage.Conditions{GenerationMatch: ifGeneration})
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	// the document is small; one request per save
	w.ChunkSize = 0

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		err = mapGCSError(err)
		observe(backendGCS, "save", start, 0, err)
		return 0, fmt.Errorf("gcs: write gs://%s/%s: %w", c.bucket, c.object, err)
	}
	if err := w.Close(); err != nil {
		err = mapGCSError(err)
		observe(backendGCS, "save", start, 0, err)
		return 0, fmt.Errorf("gcs: write gs://%s/%s: %w", c.bucket, c.object, err)
	}

	observe(backendGCS, "save", start, len(data), nil)
	return w.Attrs().Generation, nil
}

// Close releases the underlying storage client.
func (c *GCSClient) Close() error {
	return c.client.Close()
}

// mapGCSError translates storage errors into package sentinels.
func mapGCSError(err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrObjectNotFound
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusPreconditionFailed:
			return ErrPreconditionFailed
		case http.StatusNotFound:
			return ErrObjectNotFound
		}
	}
	return err
}
