package grouping_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"samplesort/internal/broadcast"
	"samplesort/internal/color"
	"samplesort/internal/config"
	"samplesort/internal/grouping"
	"samplesort/internal/items"
	"samplesort/internal/naming"
	"samplesort/internal/testsupport"
)

var t0 = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	deltas []broadcast.Delta
}

func (r *recorder) Notify(delta broadcast.Delta) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas = append(r.deltas, delta)
}

func (r *recorder) forItem(id string) []broadcast.Delta {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []broadcast.Delta
	for _, d := range r.deltas {
		if d.ItemID == id {
			out = append(out, d)
		}
	}
	return out
}

func (r *recorder) kinds(kind broadcast.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, d := range r.deltas {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

type env struct {
	cfg   *config.Config
	store *items.Store
	alloc *naming.Allocator
	svc   *grouping.Service
	rec   *recorder
}

func newEnv(t *testing.T, opts ...testsupport.ConfigOption) *env {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	alloc := naming.NewFromConfig(cfg, store, nil)
	rec := &recorder{}
	svc, err := grouping.NewService(cfg, store, alloc, nil, grouping.WithNotifier(rec))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &env{cfg: cfg, store: store, alloc: alloc, svc: svc, rec: rec}
}

func (e *env) ingest(t *testing.T, origin string, at time.Time) *items.Item {
	t.Helper()
	item, err := e.svc.Ingest(context.Background(), origin, at)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return item
}

func (e *env) extract(t *testing.T, id, code, description string, colors ...string) grouping.Result {
	t.Helper()
	ex := grouping.Extraction{Code: code, Description: description}
	for _, value := range colors {
		ex.Colors = append(ex.Colors, color.Sample{Value: value})
	}
	result, err := e.svc.OnExtractionResult(context.Background(), id, ex)
	if err != nil {
		t.Fatalf("OnExtractionResult: %v", err)
	}
	return result
}

func (e *env) edit(t *testing.T, id, group string) grouping.Result {
	t.Helper()
	result, err := e.svc.OnManualGroupEdit(context.Background(), id, group)
	if err != nil {
		t.Fatalf("OnManualGroupEdit: %v", err)
	}
	return result
}

func (e *env) get(t *testing.T, id string) *items.Item {
	t.Helper()
	item, err := e.store.GetByID(context.Background(), id)
	if err != nil || item == nil {
		t.Fatalf("GetByID %s: %v %v", id, item, err)
	}
	return item
}

// assertUniqueNames fails when two stored items share a non-empty name or
// the index disagrees with the store.
func (e *env) assertUniqueNames(t *testing.T) {
	t.Helper()
	all, err := e.store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	seen := make(map[string]string)
	for _, item := range all {
		if item.AssignedName == "" {
			if item.IsGrouped() {
				t.Fatalf("grouped item %s has no name", item.ID)
			}
			continue
		}
		if other, ok := seen[item.AssignedName]; ok {
			t.Fatalf("name %q shared by %s and %s", item.AssignedName, other, item.ID)
		}
		seen[item.AssignedName] = item.ID
		if holder, ok := e.alloc.Lookup(item.AssignedName); !ok || holder != item.ID {
			t.Fatalf("index has %q -> %q, store has %s", item.AssignedName, holder, item.ID)
		}
	}
	if e.alloc.Len() != len(seen) {
		t.Fatalf("index holds %d names, store %d", e.alloc.Len(), len(seen))
	}
}
