// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/truckmap/internal/logging"
)

const backendBadger = "badger"

// BadgerClient stores the document as a single key in an embedded BadgerDB.
// The generation is the Badger commit version of the key.
type BadgerClient struct {
	db     *badger.DB
	key    []byte
	ownsDB bool

	// versionOf finds the commit version of a saved value.
	versionOf func(data []byte) (int64, error)
}

// OpenBadger opens (or creates) a BadgerDB at path and stores the document
// under "<bucket>/<object>". An empty path opens an in-memory database.
func OpenBadger(path, bucket, object string) (*BadgerClient, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // zerolog handles application logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}

	c := NewBadgerClient(db, bucket, object)
	c.ownsDB = true
	return c, nil
}

// NewBadgerClient wraps an already open database. The caller keeps ownership.
func NewBadgerClient(db *badger.DB, bucket, object string) *BadgerClient {
	c := &BadgerClient{
		db:  db,
		key: []byte(bucket + "/" + object),
	}
	c.versionOf = c.committedVersion
	return c
}

// Download reads the document key.
func (c *BadgerClient) Download(ctx context.Context) (*Object, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		observe(backendBadger, "download", start, 0, err)
		return nil, err
	}

	var obj Object
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrObjectNotFound
		}
		if err != nil {
			return fmt.Errorf("get document: %w", err)
		}

		obj.Generation = int64(item.Version()) //nolint:gosec // badger versions are commit timestamps well below MaxInt64
		obj.Data, err = item.ValueCopy(nil)
		return err
	})

	observe(backendBadger, "download", start, len(obj.Data), err)
	if err != nil {
		return nil, err
	}
	return &obj, nil
}

// Save writes the document key. A conditional save reads the key inside the
// same transaction, so a concurrent commit surfaces as badger.ErrConflict,
// which is reported as ErrPreconditionFailed.
//
// Badger does not expose the commit version, so it is read back after the
// commit. A failed read back is logged and reported as generation 0; the
// write itself has landed.
func (c *BadgerClient) Save(ctx context.Context, data []byte, ifGeneration int64) (int64, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		observe(backendBadger, "save", start, 0, err)
		return 0, err
	}

	err := c.db.Update(func(txn *badger.Txn) error {
		if ifGeneration != 0 {
			item, err := txn.Get(c.key)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
				return ErrPreconditionFailed
			case err != nil:
				return fmt.Errorf("get document: %w", err)
			case int64(item.Version()) != ifGeneration: //nolint:gosec // see Download
				return ErrPreconditionFailed
			}
		}
		return txn.Set(c.key, data)
	})
	if errors.Is(err, badger.ErrConflict) {
		err = ErrPreconditionFailed
	}
	if err != nil {
		observe(backendBadger, "save", start, 0, err)
		return 0, err
	}

	gen, err := c.versionOf(data)
	if err != nil {
		logging.Warn().Err(err).Str("backend", backendBadger).Msg("Saved document version unknown")
		gen = 0
	}
	observe(backendBadger, "save", start, len(data), nil)
	return gen, nil
}

// committedVersion returns the newest version of the key holding data. A
// later commit by another writer is skipped.
func (c *BadgerClient) committedVersion(data []byte) (int64, error) {
	var gen int64
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.AllVersions = true
		opts.Prefix = c.key
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(c.key); it.ValidForPrefix(c.key); it.Next() {
			item := it.Item()
			if !bytes.Equal(item.Key(), c.key) || item.IsDeletedOrExpired() {
				continue
			}
			var match bool
			if err := item.Value(func(v []byte) error {
				match = bytes.Equal(v, data)
				return nil
			}); err != nil {
				return fmt.Errorf("read back document version: %w", err)
			}
			if match {
				gen = int64(item.Version()) //nolint:gosec // see Download
				return nil
			}
		}
		return fmt.Errorf("read back document version: %w", badger.ErrKeyNotFound)
	})
	return gen, err
}

// Close closes the database if this client opened it.
func (c *BadgerClient) Close() error {
	if !c.ownsDB {
		return nil
	}
	return c.db.Close()
}

// RunGC rewrites value log files until Badger reports nothing left to
// reclaim. In-memory databases have no value log and return nil.
func (c *BadgerClient) RunGC(discardRatio float64) error {
	for {
		err := c.db.RunValueLogGC(discardRatio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run value log gc: %w", err)
		}
	}
}
