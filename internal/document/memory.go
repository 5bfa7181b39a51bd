// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package document

import (
	"context"
	"sync"
	"time"
)

const backendMemory = "memory"

// MemoryClient keeps the document in process memory. It backs tests and the
// "memory" storage backend; contents are lost on restart.
type MemoryClient struct {
	mu         sync.RWMutex
	data       []byte
	generation int64
	exists     bool
}

// NewMemoryClient returns an empty client. Download fails with
// ErrObjectNotFound until the first Save.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{}
}

// NewMemoryClientWithData returns a client already holding data at generation 1.
func NewMemoryClientWithData(data []byte) *MemoryClient {
	return &MemoryClient{
		data:       append([]byte(nil), data...),
		generation: 1,
		exists:     true,
	}
}

// Download returns a copy of the stored bytes.
func (c *MemoryClient) Download(ctx context.Context) (*Object, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		observe(backendMemory, "download", start, 0, err)
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.exists {
		observe(backendMemory, "download", start, 0, ErrObjectNotFound)
		return nil, ErrObjectNotFound
	}

	obj := &Object{
		Data:       append([]byte(nil), c.data...),
		Generation: c.generation,
	}
	observe(backendMemory, "download", start, len(obj.Data), nil)
	return obj, nil
}

// Save stores a copy of data.
func (c *MemoryClient) Save(ctx context.Context, data []byte, ifGeneration int64) (int64, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		observe(backendMemory, "save", start, 0, err)
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ifGeneration != 0 && ifGeneration != c.generation {
		observe(backendMemory, "save", start, 0, ErrPreconditionFailed)
		return 0, ErrPreconditionFailed
	}

	c.data = append([]byte(nil), data...)
	c.generation++
	c.exists = true

	observe(backendMemory, "save", start, len(data), nil)
	return c.generation, nil
}

// Bytes returns a copy of the stored bytes, or nil if nothing was saved.
func (c *MemoryClient) Bytes() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.exists {
		return nil
	}
	return append([]byte(nil), c.data...)
}

// Generation returns the current generation.
func (c *MemoryClient) Generation() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}
