// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package document

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// MarkersField is the top-level document key holding the marker sequence.
const MarkersField = "trucksOnMap"

// idField is the marker key carrying the store-assigned id.
const idField = "id"

// ErrNotObject is returned when a document or marker is not a JSON object.
var ErrNotObject = errors.New("not a JSON object")

// Marker is one truck position record. Client-supplied fields are kept as raw
// JSON so they round-trip untouched; only "id" is interpreted by the store.
type Marker map[string]json.RawMessage

// ParseMarker decodes a JSON object into a Marker.
func ParseMarker(data []byte) (Marker, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	var m Marker
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return nil, fmt.Errorf("decode marker: %w", err)
	}
	if m == nil {
		m = Marker{}
	}
	return m, nil
}

// ID returns the marker id as an integer. Integral JSON numbers and strings
// holding an integral number both count, so {"id":"2"} matches path id 2.
func (m Marker) ID() (int64, bool) {
	raw, ok := m[idField]
	if !ok {
		return 0, false
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		return integral(s)
	}
	return integral(string(raw))
}

// MatchesID reports whether the marker id equals id.
func (m Marker) MatchesID(id int64) bool {
	got, ok := m.ID()
	return ok && got == id
}

// WithID returns a copy of m with id set, discarding any existing id.
func (m Marker) WithID(id int64) Marker {
	out := make(Marker, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[idField] = json.RawMessage(strconv.FormatInt(id, 10))
	return out
}

// integral parses s as a number and accepts it only if it is a whole value.
func integral(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// ParseID parses a path id. Only non-negative base-10 integers are accepted.
func ParseID(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid marker id %q", s)
	}
	return n, nil
}

// Entry is one element of the trucksOnMap array. Every element keeps its
// stored bytes; object elements are also decoded so they can match an id.
// Non-object elements such as numbers or null never match.
type Entry struct {
	raw    json.RawMessage
	marker Marker
}

// EntryOf wraps a marker that has not been stored yet.
func EntryOf(m Marker) Entry {
	return Entry{marker: m}
}

func parseEntry(raw json.RawMessage) Entry {
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	e := Entry{raw: raw}
	if m, err := ParseMarker(raw); err == nil {
		e.marker = m
	}
	return e
}

// Marker returns the element as a marker. ok is false for non-object elements.
func (e Entry) Marker() (Marker, bool) {
	return e.marker, e.marker != nil
}

// MatchesID reports whether the element is a marker whose id equals id.
func (e Entry) MatchesID(id int64) bool {
	return e.marker != nil && e.marker.MatchesID(id)
}

// MarshalJSON writes stored elements back byte-for-byte.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.raw != nil {
		return e.raw, nil
	}
	if e.marker == nil {
		return []byte("null"), nil
	}
	return json.Marshal(e.marker)
}

// FieldState describes how the markers field appears in a parsed document.
type FieldState int

const (
	// FieldAbsent means the document has no trucksOnMap key.
	FieldAbsent FieldState = iota
	// FieldMalformed means trucksOnMap exists but is not an array.
	FieldMalformed
	// FieldPresent means trucksOnMap is an array. Its elements may be any
	// JSON value.
	FieldPresent
)

func (s FieldState) String() string {
	switch s {
	case FieldAbsent:
		return "absent"
	case FieldMalformed:
		return "malformed"
	case FieldPresent:
		return "present"
	default:
		return "unknown"
	}
}

// Document is the parsed form of the stored JSON object. Keys other than
// trucksOnMap are kept as raw JSON and written back unchanged.
type Document struct {
	fields  map[string]json.RawMessage
	entries []Entry
	state   FieldState
}

// Parse decodes a stored document. The payload must be a JSON object; the
// shape of trucksOnMap is recorded rather than rejected.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("decode document: %w", ErrNotObject)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if fields == nil {
		fields = map[string]json.RawMessage{}
	}

	doc := &Document{fields: fields, state: FieldAbsent}

	raw, ok := fields[MarkersField]
	if !ok {
		return doc, nil
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		doc.state = FieldMalformed
		return doc, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		doc.state = FieldMalformed
		return doc, nil
	}

	entries := make([]Entry, len(elements))
	for i, el := range elements {
		entries[i] = parseEntry(el)
	}

	doc.entries = entries
	doc.state = FieldPresent
	return doc, nil
}

// State reports how trucksOnMap appeared when the document was parsed, or
// FieldPresent after SetEntries.
func (d *Document) State() FieldState {
	return d.state
}

// Entries returns the array elements and whether trucksOnMap is an array.
func (d *Document) Entries() ([]Entry, bool) {
	if d.state != FieldPresent {
		return nil, false
	}
	return d.entries, true
}

// SetEntries replaces the array elements.
func (d *Document) SetEntries(entries []Entry) {
	if entries == nil {
		entries = []Entry{}
	}
	d.entries = entries
	d.state = FieldPresent
}

// Marshal encodes the document. Other top-level keys and untouched array
// elements keep their raw bytes.
func (d *Document) Marshal() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.fields)+1)
	for k, v := range d.fields {
		out[k] = v
	}

	if d.state == FieldPresent {
		entries := d.entries
		if entries == nil {
			entries = []Entry{}
		}
		raw, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("encode markers: %w", err)
		}
		out[MarkersField] = raw
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}
