// Truckmap - Truck Position Marker Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/truckmap

package markers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/truckmap/internal/document"
)

const startingDoc = `{"trucksOnMap":[{"id":1,"lat":0,"lon":0}],"fleet":"north"}`

func newTestStore(t *testing.T, data string, opts ...Option) (*Store, *document.MemoryClient) {
	t.Helper()
	client := document.NewMemoryClientWithData([]byte(data))
	return NewStore(client, opts...), client
}

func mustMarker(t *testing.T, raw string) Marker {
	t.Helper()
	m, err := document.ParseMarker([]byte(raw))
	if err != nil {
		t.Fatalf("ParseMarker(%s) error = %v", raw, err)
	}
	return m
}

// fieldEquals compares one marker field by decoded value.
func fieldEquals(t *testing.T, m Marker, field string, want interface{}) {
	t.Helper()
	raw, ok := m[field]
	if !ok {
		t.Errorf("marker has no %q field: %v", field, m)
		return
	}
	var got interface{}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode %q: %v", field, err)
	}
	wantJSON, _ := json.Marshal(want)
	gotJSON, _ := json.Marshal(got)
	if string(wantJSON) != string(gotJSON) {
		t.Errorf("marker[%q] = %s, want %s", field, gotJSON, wantJSON)
	}
}

// failingClient fails downloads or saves on demand.
type failingClient struct {
	*document.MemoryClient
	downloadErr error
	saveErr     error
	saves       int
}

func (f *failingClient) Download(ctx context.Context) (*document.Object, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return f.MemoryClient.Download(ctx)
}

func (f *failingClient) Save(ctx context.Context, data []byte, ifGeneration int64) (int64, error) {
	f.saves++
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	return f.MemoryClient.Save(ctx, data, ifGeneration)
}

// recordingNotifier captures notifications.
type recordingNotifier struct {
	mu    sync.Mutex
	ops   []Operation
	sizes []int
}

func (n *recordingNotifier) MarkersChanged(op Operation, entries []Entry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ops = append(n.ops, op)
	n.sizes = append(n.sizes, len(entries))
}

func TestStore_List(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantLen int
		wantErr error
	}{
		{"stored order", `{"trucksOnMap":[{"id":2},{"id":1},{"id":"x"}]}`, 3, nil},
		{"empty", `{"trucksOnMap":[]}`, 0, nil},
		{"absent field", `{"fleet":"north"}`, 0, ErrSchemaViolation},
		{"non-object elements", `{"trucksOnMap":[{"id":1,"lat":0},7,null],"fleet":"north"}`, 3, nil},
		{"malformed field", `{"trucksOnMap":"nope"}`, 0, ErrSchemaViolation},
		{"unparseable document", `not json`, 0, ErrStorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t, tt.doc)
			got, err := s.List(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("List() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("len(List()) = %d, want %d", len(got), tt.wantLen)
			}
		})
	}

	t.Run("preserves order", func(t *testing.T) {
		s, _ := newTestStore(t, `{"trucksOnMap":[{"id":2},{"id":1}]}`)
		got, err := s.List(context.Background())
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if !got[0].MatchesID(2) || !got[1].MatchesID(1) {
			t.Errorf("List() order = %v, want id 2 then id 1", got)
		}
	})
}

func TestStore_Get(t *testing.T) {
	doc := `{"trucksOnMap":[{"id":1,"lat":0},{"id":"2","lat":2},{"id":2,"lat":3}]}`

	tests := []struct {
		name    string
		doc     string
		id      string
		wantLat int
		wantErr error
	}{
		{"numeric id", doc, "1", 0, nil},
		{"string id matches first", doc, "2", 2, nil},
		{"not found", doc, "9", 0, ErrNotFound},
		{"non-numeric", doc, "abc", 0, ErrInvalidID},
		{"negative", doc, "-1", 0, ErrInvalidID},
		{"absent field", `{}`, "1", 0, ErrSchemaViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t, tt.doc)
			got, err := s.Get(context.Background(), tt.id)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Get(%q) error = %v, want %v", tt.id, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Get(%q) error = %v", tt.id, err)
			}
			fieldEquals(t, got, "lat", tt.wantLat)
		})
	}

	t.Run("invalid id does not touch storage", func(t *testing.T) {
		client := &failingClient{MemoryClient: document.NewMemoryClient(), downloadErr: errors.New("unreachable")}
		s := NewStore(client)
		if _, err := s.Get(context.Background(), "x1"); !errors.Is(err, ErrInvalidID) {
			t.Errorf("Get() error = %v, want ErrInvalidID", err)
		}
	})
}

func TestStore_Create(t *testing.T) {
	t.Run("assigns len plus one and discards client id", func(t *testing.T) {
		s, client := newTestStore(t, `{"trucksOnMap":[{"id":1},{"id":7}]}`)

		got, err := s.Create(context.Background(), mustMarker(t, `{"id":42,"lat":5,"lon":5}`))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		fieldEquals(t, got, "id", 3)
		fieldEquals(t, got, "lat", 5)

		doc, _ := document.Parse(client.Bytes())
		entries, _ := doc.Entries()
		if len(entries) != 3 || !entries[2].MatchesID(3) {
			t.Errorf("stored markers = %v, want third marker with id 3", entries)
		}
	})

	t.Run("id collides after delete", func(t *testing.T) {
		s, _ := newTestStore(t, `{"trucksOnMap":[{"id":1},{"id":2}]}`)
		ctx := context.Background()

		if _, err := s.Delete(ctx, "1"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		got, err := s.Create(ctx, mustMarker(t, `{"lat":1}`))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		// one marker remains, so the new id is 2 again
		fieldEquals(t, got, "id", 2)
	})

	for _, tc := range []struct{ name, doc string }{
		{"absent field starts empty", `{"fleet":"north"}`},
		{"malformed field starts empty", `{"trucksOnMap":{"id":1},"fleet":"north"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s, client := newTestStore(t, tc.doc)
			got, err := s.Create(context.Background(), mustMarker(t, `{"lat":1}`))
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			fieldEquals(t, got, "id", 1)

			var stored map[string]json.RawMessage
			if err := json.Unmarshal(client.Bytes(), &stored); err != nil {
				t.Fatalf("decode stored: %v", err)
			}
			if string(stored["fleet"]) != `"north"` {
				t.Errorf("fleet = %s, want preserved", stored["fleet"])
			}
		})
	}

	t.Run("nil payload", func(t *testing.T) {
		s, _ := newTestStore(t, startingDoc)
		if _, err := s.Create(context.Background(), nil); !errors.Is(err, ErrInvalidPayload) {
			t.Errorf("Create(nil) error = %v, want ErrInvalidPayload", err)
		}
	})
}

func TestStore_CreateThenGetRoundTrip(t *testing.T) {
	s, _ := newTestStore(t, startingDoc)
	ctx := context.Background()

	payload := mustMarker(t, `{"lat":12.5,"lon":-3,"driver":"ana","tags":["reefer"],"meta":{"plate":"XY-12"}}`)
	created, err := s.Create(ctx, payload)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	id, ok := created.ID()
	if !ok {
		t.Fatalf("created marker has no id: %v", created)
	}

	got, err := s.Get(ctx, "2")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if id != 2 {
		t.Errorf("created id = %d, want 2", id)
	}

	for field, raw := range payload {
		var want, have interface{}
		_ = json.Unmarshal(raw, &want)
		_ = json.Unmarshal(got[field], &have)
		wantJSON, _ := json.Marshal(want)
		haveJSON, _ := json.Marshal(have)
		if string(wantJSON) != string(haveJSON) {
			t.Errorf("field %q = %s, want %s", field, haveJSON, wantJSON)
		}
	}
	if len(got) != len(payload)+1 {
		t.Errorf("got %d fields, want payload fields plus id", len(got))
	}
}

func TestStore_Update(t *testing.T) {
	t.Run("replaces verbatim without reconciling id", func(t *testing.T) {
		s, client := newTestStore(t, `{"trucksOnMap":[{"id":1,"lat":0},{"id":2,"lat":0}]}`)

		got, err := s.Update(context.Background(), "2", mustMarker(t, `{"id":9,"lat":8}`))
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		fieldEquals(t, got, "id", 9)

		doc, _ := document.Parse(client.Bytes())
		entries, _ := doc.Entries()
		if !entries[1].MatchesID(9) {
			t.Errorf("stored marker = %v, want id 9 (payload id kept)", entries[1])
		}
	})

	t.Run("payload without id stores marker without id", func(t *testing.T) {
		s, client := newTestStore(t, startingDoc)

		if _, err := s.Update(context.Background(), "1", mustMarker(t, `{"lat":4}`)); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		doc, _ := document.Parse(client.Bytes())
		entries, _ := doc.Entries()
		m, _ := entries[0].Marker()
		if _, ok := m["id"]; ok {
			t.Errorf("stored marker = %v, want no id", m)
		}
	})

	for _, id := range []string{"5", "abc"} {
		t.Run("miss leaves document untouched "+id, func(t *testing.T) {
			client := &failingClient{MemoryClient: document.NewMemoryClientWithData([]byte(startingDoc))}
			s := NewStore(client)
			before := client.Bytes()
			genBefore := client.Generation()

			_, err := s.Update(context.Background(), id, mustMarker(t, `{"lat":1}`))
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("Update(%q) error = %v, want ErrNotFound", id, err)
			}
			if client.saves != 0 {
				t.Errorf("Update() saved %d times on miss", client.saves)
			}
			if string(client.Bytes()) != string(before) || client.Generation() != genBefore {
				t.Error("document changed after update miss")
			}
		})
	}

	t.Run("absent field", func(t *testing.T) {
		s, _ := newTestStore(t, `{}`)
		if _, err := s.Update(context.Background(), "1", mustMarker(t, `{}`)); !errors.Is(err, ErrSchemaViolation) {
			t.Errorf("Update() error = %v, want ErrSchemaViolation", err)
		}
	})
}

func TestStore_Delete(t *testing.T) {
	t.Run("returns remaining and get fails afterwards", func(t *testing.T) {
		s, _ := newTestStore(t, `{"trucksOnMap":[{"id":1},{"id":2},{"id":3}]}`)
		ctx := context.Background()

		remaining, err := s.Delete(ctx, "2")
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if len(remaining) != 2 || !remaining[0].MatchesID(1) || !remaining[1].MatchesID(3) {
			t.Errorf("Delete() remaining = %v, want ids 1 and 3", remaining)
		}

		if _, err := s.Get(ctx, "2"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
		}
	})

	tests := []struct {
		name    string
		doc     string
		id      string
		wantErr error
	}{
		{"not found", startingDoc, "4", ErrNotFound},
		{"non-numeric", startingDoc, "one", ErrInvalidID},
		{"absent field", `{"fleet":"north"}`, "1", ErrSchemaViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, client := newTestStore(t, tt.doc)
			before := client.Bytes()
			if _, err := s.Delete(context.Background(), tt.id); !errors.Is(err, tt.wantErr) {
				t.Errorf("Delete(%q) error = %v, want %v", tt.id, err, tt.wantErr)
			}
			if string(client.Bytes()) != string(before) {
				t.Error("document changed after failed delete")
			}
		})
	}
}

// storedArray returns the raw trucksOnMap value of the stored document.
func storedArray(t *testing.T, client *document.MemoryClient) string {
	t.Helper()
	var stored map[string]json.RawMessage
	if err := json.Unmarshal(client.Bytes(), &stored); err != nil {
		t.Fatalf("decode stored: %v", err)
	}
	return string(stored[document.MarkersField])
}

func TestStore_NonObjectElementsKept(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		run       func(ctx context.Context, s *Store) (int, error)
		wantCount int
		wantArray string
	}{
		{
			name: "create counts every element",
			doc:  `{"trucksOnMap":[{"id":1},7,null]}`,
			run: func(ctx context.Context, s *Store) (int, error) {
				m, err := s.Create(ctx, Marker{"lat": json.RawMessage(`5`)})
				if err != nil {
					return 0, err
				}
				id, _ := m.ID()
				return int(id), nil
			},
			wantCount: 4,
			wantArray: `[{"id":1},7,null,{"id":4,"lat":5}]`,
		},
		{
			name: "create keeps null",
			doc:  `{"trucksOnMap":[null,{"id":2}]}`,
			run: func(ctx context.Context, s *Store) (int, error) {
				m, err := s.Create(ctx, Marker{"lat": json.RawMessage(`5`)})
				if err != nil {
					return 0, err
				}
				id, _ := m.ID()
				return int(id), nil
			},
			wantCount: 3,
			wantArray: `[null,{"id":2},{"id":3,"lat":5}]`,
		},
		{
			name: "update leaves other elements",
			doc:  `{"trucksOnMap":[{"id":1},"x",[1,2],{"id":2,"lat":0}]}`,
			run: func(ctx context.Context, s *Store) (int, error) {
				_, err := s.Update(ctx, "2", Marker{"id": json.RawMessage(`2`), "lat": json.RawMessage(`9`)})
				return 0, err
			},
			wantArray: `[{"id":1},"x",[1,2],{"id":2,"lat":9}]`,
		},
		{
			name: "delete returns remaining elements",
			doc:  `{"trucksOnMap":[7,{"id":1},null]}`,
			run: func(ctx context.Context, s *Store) (int, error) {
				remaining, err := s.Delete(ctx, "1")
				return len(remaining), err
			},
			wantCount: 2,
			wantArray: `[7,null]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, client := newTestStore(t, tt.doc)
			got, err := tt.run(context.Background(), s)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if got != tt.wantCount {
				t.Errorf("result = %d, want %d", got, tt.wantCount)
			}
			if array := storedArray(t, client); array != tt.wantArray {
				t.Errorf("stored trucksOnMap = %s, want %s", array, tt.wantArray)
			}
		})
	}

	t.Run("non-object elements never match an id", func(t *testing.T) {
		s, _ := newTestStore(t, `{"trucksOnMap":[7,"7",{"id":7,"lat":1}]}`)
		got, err := s.Get(context.Background(), "7")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		fieldEquals(t, got, "lat", 1)

		if _, err := s.Get(context.Background(), "1"); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(1) error = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_StorageFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("download failure", func(t *testing.T) {
		client := &failingClient{MemoryClient: document.NewMemoryClient(), downloadErr: errors.New("timeout")}
		s := NewStore(client)

		if _, err := s.List(ctx); !errors.Is(err, ErrStorageFailure) {
			t.Errorf("List() error = %v, want ErrStorageFailure", err)
		}
		if _, err := s.Create(ctx, mustMarker(t, `{}`)); !errors.Is(err, ErrStorageFailure) {
			t.Errorf("Create() error = %v, want ErrStorageFailure", err)
		}
		if client.saves != 0 {
			t.Errorf("saves = %d after download failure, want 0", client.saves)
		}
	})

	t.Run("missing object", func(t *testing.T) {
		s := NewStore(document.NewMemoryClient())
		if _, err := s.List(ctx); !errors.Is(err, ErrStorageFailure) {
			t.Errorf("List() error = %v, want ErrStorageFailure", err)
		}
	})

	t.Run("save failure keeps stored document", func(t *testing.T) {
		client := &failingClient{
			MemoryClient: document.NewMemoryClientWithData([]byte(startingDoc)),
			saveErr:      errors.New("503 backend error"),
		}
		notifier := &recordingNotifier{}
		s := NewStore(client, WithNotifier(notifier))

		if _, err := s.Create(ctx, mustMarker(t, `{"lat":1}`)); !errors.Is(err, ErrStorageFailure) {
			t.Fatalf("Create() error = %v, want ErrStorageFailure", err)
		}
		if string(client.Bytes()) != startingDoc {
			t.Errorf("stored = %s, want untouched", client.Bytes())
		}
		if len(notifier.ops) != 0 {
			t.Errorf("notified %v after failed save", notifier.ops)
		}

		// the next successful cycle starts from the stored document again
		client.saveErr = nil
		got, err := s.Create(ctx, mustMarker(t, `{"lat":1}`))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		fieldEquals(t, got, "id", 2)
	})
}

func TestStore_NotifiesMutations(t *testing.T) {
	notifier := &recordingNotifier{}
	s, _ := newTestStore(t, startingDoc, WithNotifier(notifier))
	ctx := context.Background()

	if _, err := s.Create(ctx, mustMarker(t, `{"lat":1}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Update(ctx, "2", mustMarker(t, `{"id":2,"lat":2}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Delete(ctx, "1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.List(ctx); err != nil {
		t.Fatal(err)
	}

	wantOps := []Operation{OpCreate, OpUpdate, OpDelete}
	wantSizes := []int{2, 2, 1}
	if len(notifier.ops) != len(wantOps) {
		t.Fatalf("ops = %v, want %v", notifier.ops, wantOps)
	}
	for i := range wantOps {
		if notifier.ops[i] != wantOps[i] || notifier.sizes[i] != wantSizes[i] {
			t.Errorf("notification %d = (%s, %d), want (%s, %d)", i, notifier.ops[i], notifier.sizes[i], wantOps[i], wantSizes[i])
		}
	}
}

func TestResultLabel(t *testing.T) {
	tests := map[error]string{
		nil:                         "ok",
		ErrInvalidID:                "invalid_id",
		ErrNotFound:                 "not_found",
		ErrSchemaViolation:          "schema_violation",
		ErrConflict:                 "conflict",
		ErrStorageFailure:           "storage_failure",
		errors.New("anything else"): "storage_failure",
	}
	for err, want := range tests {
		if got := resultLabel(err); got != want {
			t.Errorf("resultLabel(%v) = %q, want %q", err, got, want)
		}
	}
}
