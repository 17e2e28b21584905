package testsupport

import (
	"context"
	"testing"
	"time"

	"samplesort/internal/color"
	"samplesort/internal/config"
	"samplesort/internal/items"
)

// MustOpenStore opens an items.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *items.Store {
	t.Helper()

	store, err := items.Open(cfg)
	if err != nil {
		t.Fatalf("items.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// ItemSpec describes a fixture item.
type ItemSpec struct {
	ID          string
	Origin      string
	CapturedAt  time.Time
	Code        string
	Description string
	Colors      []string
	Status      items.Status
}

// NewItem builds an in-memory item without persisting it.
func NewItem(spec ItemSpec) items.Item {
	item := items.Item{
		ID:          spec.ID,
		Origin:      spec.Origin,
		CapturedAt:  spec.CapturedAt,
		Code:        spec.Code,
		Description: spec.Description,
		Status:      spec.Status,
	}
	if item.Origin == "" {
		item.Origin = "photo.jpg"
	}
	for _, value := range spec.Colors {
		item.Colors = append(item.Colors, color.Sample{Value: value})
	}
	return item
}

// InsertItem persists a fixture item and returns the stored copy.
func InsertItem(t testing.TB, store *items.Store, spec ItemSpec) *items.Item {
	t.Helper()

	item := NewItem(spec)
	if err := store.Insert(context.Background(), &item); err != nil {
		t.Fatalf("store.Insert: %v", err)
	}
	return &item
}
