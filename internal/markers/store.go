// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package markers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/truckmap/internal/document"
	"github.com/tomtom215/truckmap/internal/logging"
	"github.com/tomtom215/truckmap/internal/metrics"
)

// Marker is a single truck position record.
type Marker = document.Marker

// Entry is one element of the stored marker array. Elements that are not
// JSON objects are carried along unchanged and never match an id.
type Entry = document.Entry

// Operation names a store mutation.
type Operation string

// Mutations reported to the Notifier.
const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Notifier is told about every successful mutation with the full marker
// collection as saved.
type Notifier interface {
	MarkersChanged(op Operation, entries []Entry)
}

// Option configures a Store.
type Option func(*Store)

// WithOptimisticConcurrency makes every save conditional on the generation
// observed at download. A concurrent writer then causes ErrConflict instead
// of a silently lost update.
func WithOptimisticConcurrency(enabled bool) Option {
	return func(s *Store) {
		s.optimistic = enabled
	}
}

// WithNotifier registers a mutation listener.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// Store performs marker CRUD as whole-document read-modify-write cycles.
//
// Nothing is cached and nothing is locked: each call downloads the document,
// and each mutation saves the whole document back. Without optimistic
// concurrency two overlapping mutations both succeed and the later save wins.
type Store struct {
	client     document.Client
	optimistic bool
	notifier   Notifier
}

// NewStore creates a Store over client.
func NewStore(client document.Client, opts ...Option) *Store {
	s := &Store{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OptimisticConcurrency reports whether conditional saves are enabled.
func (s *Store) OptimisticConcurrency() bool {
	return s.optimistic
}

// List returns every array element in stored order.
func (s *Store) List(ctx context.Context) (entries []Entry, err error) {
	defer s.observe(ctx, "list", time.Now(), &err)

	doc, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	entries, ok := doc.Entries()
	if !ok {
		return nil, schemaError(doc)
	}
	metrics.SetMarkersStored(len(entries))
	return entries, nil
}

// Get returns the first marker whose id matches id.
func (s *Store) Get(ctx context.Context, id string) (marker Marker, err error) {
	defer s.observe(ctx, "get", time.Now(), &err)

	n, err := document.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}

	doc, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	entries, ok := doc.Entries()
	if !ok {
		return nil, schemaError(doc)
	}

	if i := indexOf(entries, n); i >= 0 {
		m, _ := entries[i].Marker()
		return m, nil
	}
	return nil, fmt.Errorf("%w: id %d", ErrNotFound, n)
}

// Create appends payload with a store-assigned id of len(entries)+1, where
// every array element counts whether or not it is an object. Any id in
// payload is discarded. A missing trucksOnMap field, or one that is not an
// array, starts from an empty collection.
func (s *Store) Create(ctx context.Context, payload Marker) (marker Marker, err error) {
	defer s.observe(ctx, "create", time.Now(), &err)

	if payload == nil {
		return nil, ErrInvalidPayload
	}

	doc, gen, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	entries, ok := doc.Entries()
	if !ok {
		logging.Ctx(ctx).Warn().Str("field_state", doc.State().String()).Msg("trucksOnMap missing or not an array, starting empty collection")
		entries = nil
	}

	stored := payload.WithID(int64(len(entries) + 1))
	next := make([]Entry, 0, len(entries)+1)
	next = append(next, entries...)
	next = append(next, document.EntryOf(stored))

	if err := s.save(ctx, doc, next, gen); err != nil {
		return nil, err
	}

	s.notify(OpCreate, next)
	return stored, nil
}

// Update replaces the first marker matching id with payload verbatim. The
// path id is not written into payload, so a payload id that differs from the
// path id (or no id at all) is stored as given. A non-numeric id matches
// nothing and yields ErrNotFound. Nothing is saved unless a marker matched.
func (s *Store) Update(ctx context.Context, id string, payload Marker) (marker Marker, err error) {
	defer s.observe(ctx, "update", time.Now(), &err)

	if payload == nil {
		return nil, ErrInvalidPayload
	}

	doc, gen, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	entries, ok := doc.Entries()
	if !ok {
		return nil, schemaError(doc)
	}

	n, parseErr := document.ParseID(id)
	if parseErr != nil {
		return nil, fmt.Errorf("%w: id %q", ErrNotFound, id)
	}

	i := indexOf(entries, n)
	if i < 0 {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, n)
	}

	next := make([]Entry, len(entries))
	copy(next, entries)
	next[i] = document.EntryOf(payload)

	if err := s.save(ctx, doc, next, gen); err != nil {
		return nil, err
	}

	s.notify(OpUpdate, next)
	return payload, nil
}

// Delete removes the first marker matching id and returns the elements that remain.
func (s *Store) Delete(ctx context.Context, id string) (remaining []Entry, err error) {
	defer s.observe(ctx, "delete", time.Now(), &err)

	n, err := document.ParseID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}

	doc, gen, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	entries, ok := doc.Entries()
	if !ok {
		return nil, schemaError(doc)
	}

	i := indexOf(entries, n)
	if i < 0 {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, n)
	}

	next := make([]Entry, 0, len(entries)-1)
	next = append(next, entries[:i]...)
	next = append(next, entries[i+1:]...)

	if err := s.save(ctx, doc, next, gen); err != nil {
		return nil, err
	}

	s.notify(OpDelete, next)
	return next, nil
}

// Ping downloads and parses the document. Readiness probes use it.
func (s *Store) Ping(ctx context.Context) error {
	_, _, err := s.load(ctx)
	return err
}

// load downloads and parses the document.
func (s *Store) load(ctx context.Context) (*document.Document, int64, error) {
	obj, err := s.client.Download(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: download: %w", ErrStorageFailure, err)
	}

	doc, err := document.Parse(obj.Data)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}
	return doc, obj.Generation, nil
}

// save writes doc with entries. The caller's doc is only modified here, after
// every check passed, so a failed save leaves nothing behind.
func (s *Store) save(ctx context.Context, doc *document.Document, entries []Entry, gen int64) error {
	doc.SetEntries(entries)

	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageFailure, err)
	}

	var ifGeneration int64
	if s.optimistic {
		ifGeneration = gen
	}

	if _, err := s.client.Save(ctx, data, ifGeneration); err != nil {
		if s.optimistic && errors.Is(err, document.ErrPreconditionFailed) {
			return fmt.Errorf("%w: generation %d is stale", ErrConflict, gen)
		}
		return fmt.Errorf("%w: save: %w", ErrStorageFailure, err)
	}

	metrics.SetMarkersStored(len(entries))
	return nil
}

func (s *Store) notify(op Operation, entries []Entry) {
	if s.notifier != nil {
		s.notifier.MarkersChanged(op, entries)
	}
}

// observe records metrics and logs failures the caller cannot fix.
func (s *Store) observe(ctx context.Context, op string, start time.Time, errp *error) {
	err := *errp
	metrics.RecordMarkerOperation(op, resultLabel(err), time.Since(start))

	switch {
	case err == nil:
	case errors.Is(err, ErrStorageFailure), errors.Is(err, ErrSchemaViolation):
		logging.Ctx(ctx).Error().Err(err).Str("operation", op).Msg("Marker operation failed")
	case errors.Is(err, ErrConflict):
		logging.Ctx(ctx).Warn().Err(err).Str("operation", op).Msg("Marker operation lost a concurrent update")
	}
}

func schemaError(doc *document.Document) error {
	return fmt.Errorf("%w: field is %s", ErrSchemaViolation, doc.State())
}

// indexOf returns the index of the first marker matching id, or -1.
func indexOf(entries []Entry, id int64) int {
	for i, e := range entries {
		if e.MatchesID(id) {
			return i
		}
	}
	return -1
}
