package naming_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"samplesort/internal/items"
	"samplesort/internal/naming"
	"samplesort/internal/testsupport"
)

var t0 = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func newAllocator(t *testing.T) (*naming.Allocator, *items.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	return naming.NewFromConfig(cfg, store, nil), store
}

// joinGroup mimics a grouping write: assign a name then persist the tuple.
func joinGroup(t *testing.T, alloc *naming.Allocator, store *items.Store, item *items.Item, group string) {
	t.Helper()
	ctx := context.Background()
	members, err := store.ListByGroup(ctx, group)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	var others []items.Item
	for _, m := range members {
		if m.ID != item.ID && items.CapturedBefore(*m, *item) {
			others = append(others, *m)
		}
	}
	name, err := alloc.AssignName(ctx, group, item, others)
	if err != nil {
		t.Fatalf("AssignName: %v", err)
	}
	if err := store.UpdateNaming(ctx, item.ID, items.Naming{Group: group, AssignedName: name, Status: items.StatusHumanGrouped}); err != nil {
		t.Fatalf("UpdateNaming: %v", err)
	}
	item.Group = group
}

func namesByID(t *testing.T, store *items.Store) map[string]string {
	t.Helper()
	all, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	out := make(map[string]string, len(all))
	for _, item := range all {
		out[item.ID] = item.AssignedName
	}
	return out
}

func TestAssignNameFirstMemberGetsBareToken(t *testing.T) {
	alloc, _ := newAllocator(t)
	item := testsupport.NewItem(testsupport.ItemSpec{ID: "a", Origin: "IMG_1.JPG", CapturedAt: t0})

	name, err := alloc.AssignName(context.Background(), "LAB-7", &item, nil)
	if err != nil {
		t.Fatalf("AssignName: %v", err)
	}
	if name != "LAB-7.jpg" || item.AssignedName != name {
		t.Fatalf("unexpected name %q (item %q)", name, item.AssignedName)
	}
	if holder, ok := alloc.Lookup("LAB-7.jpg"); !ok || holder != "a" {
		t.Fatalf("expected index to hold a, got %q %v", holder, ok)
	}
}

func TestAssignNameSanitizesGroup(t *testing.T) {
	alloc, _ := newAllocator(t)
	item := testsupport.NewItem(testsupport.ItemSpec{ID: "a", Origin: "scan.png", CapturedAt: t0})

	name, err := alloc.AssignName(context.Background(), "Shelf 3/Bin: A?", &item, nil)
	if err != nil {
		t.Fatalf("AssignName: %v", err)
	}
	if name != "Shelf_3Bin_A.png" {
		t.Fatalf("unexpected sanitized name %q", name)
	}

	other := testsupport.NewItem(testsupport.ItemSpec{ID: "b", Origin: "x.jpg", CapturedAt: t0})
	name, err = alloc.AssignName(context.Background(), "  ", &other, nil)
	if err != nil {
		t.Fatalf("AssignName: %v", err)
	}
	if name != "ungrouped.jpg" {
		t.Fatalf("expected placeholder name, got %q", name)
	}
}

func TestAssignNameSuffixWhenSiblingHasCode(t *testing.T) {
	alloc, _ := newAllocator(t)
	ctx := context.Background()
	a := testsupport.NewItem(testsupport.ItemSpec{ID: "a", CapturedAt: t0, Code: "LAB-7"})
	b := testsupport.NewItem(testsupport.ItemSpec{ID: "b", CapturedAt: t0.Add(time.Second)})
	c := testsupport.NewItem(testsupport.ItemSpec{ID: "c", CapturedAt: t0.Add(2 * time.Second)})

	if _, err := alloc.AssignName(ctx, "LAB-7", &a, nil); err != nil {
		t.Fatal(err)
	}
	nameB, err := alloc.AssignName(ctx, "LAB-7", &b, []items.Item{a})
	if err != nil {
		t.Fatal(err)
	}
	nameC, err := alloc.AssignName(ctx, "LAB-7", &c, []items.Item{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if nameB != "LAB-7_2.jpg" || nameC != "LAB-7_3.jpg" {
		t.Fatalf("unexpected names %q %q", nameB, nameC)
	}
}

func TestAssignNameCollisionCounterStartsAtTwo(t *testing.T) {
	alloc, _ := newAllocator(t)
	ctx := context.Background()
	a := testsupport.NewItem(testsupport.ItemSpec{ID: "a", CapturedAt: t0})
	b := testsupport.NewItem(testsupport.ItemSpec{ID: "b", CapturedAt: t0.Add(time.Second)})
	c := testsupport.NewItem(testsupport.ItemSpec{ID: "c", CapturedAt: t0.Add(2 * time.Second)})

	for _, item := range []*items.Item{&a, &b, &c} {
		if _, err := alloc.AssignName(ctx, "LAB-7", item, nil); err != nil {
			t.Fatal(err)
		}
	}
	if a.AssignedName != "LAB-7.jpg" || b.AssignedName != "LAB-7_2.jpg" || c.AssignedName != "LAB-7_3.jpg" {
		t.Fatalf("unexpected names %q %q %q", a.AssignedName, b.AssignedName, c.AssignedName)
	}

	// Reassigning an item that already holds its candidate keeps it.
	again, err := alloc.AssignName(ctx, "LAB-7", &a, nil)
	if err != nil || again != "LAB-7.jpg" {
		t.Fatalf("expected a to keep its name, got %q %v", again, err)
	}
}

func TestAssignNameSuffixedCandidateCollisionRestartsCounter(t *testing.T) {
	alloc, _ := newAllocator(t)
	ctx := context.Background()
	squatter := testsupport.NewItem(testsupport.ItemSpec{ID: "z", CapturedAt: t0})
	if _, err := alloc.AssignName(ctx, "LAB-7", &squatter, nil); err != nil {
		t.Fatal(err)
	}
	holder := testsupport.NewItem(testsupport.ItemSpec{ID: "y", CapturedAt: t0})
	if _, err := alloc.AssignName(ctx, "LAB-7", &holder, nil); err != nil {
		t.Fatal(err)
	}
	if holder.AssignedName != "LAB-7_2.jpg" {
		t.Fatalf("expected LAB-7_2.jpg, got %q", holder.AssignedName)
	}

	coded := testsupport.NewItem(testsupport.ItemSpec{ID: "a", CapturedAt: t0, Code: "X"})
	item := testsupport.NewItem(testsupport.ItemSpec{ID: "b", CapturedAt: t0.Add(time.Second)})
	// Candidate LAB-7_2.jpg is taken by y, so the counter restarts from the
	// bare token and lands on the first free suffix.
	name, err := alloc.AssignName(ctx, "LAB-7", &item, []items.Item{coded})
	if err != nil {
		t.Fatal(err)
	}
	if name != "LAB-7_3.jpg" {
		t.Fatalf("expected LAB-7_3.jpg, got %q", name)
	}
}

func TestAssignNameExhaustion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Naming.MaxSuffix = 3
	store := testsupport.MustOpenStore(t, cfg)
	alloc := naming.NewFromConfig(cfg, store, nil)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		item := testsupport.NewItem(testsupport.ItemSpec{ID: id, CapturedAt: t0})
		if _, err := alloc.AssignName(ctx, "LAB-7", &item, nil); err != nil {
			t.Fatalf("AssignName %s: %v", id, err)
		}
	}
	item := testsupport.NewItem(testsupport.ItemSpec{ID: "d", CapturedAt: t0})
	_, err := alloc.AssignName(ctx, "LAB-7", &item, nil)
	if !errors.Is(err, naming.ErrAllocationExhausted) {
		t.Fatalf("expected ErrAllocationExhausted, got %v", err)
	}
}

func TestReleaseFreesName(t *testing.T) {
	alloc, _ := newAllocator(t)
	ctx := context.Background()
	a := testsupport.NewItem(testsupport.ItemSpec{ID: "a", CapturedAt: t0})
	b := testsupport.NewItem(testsupport.ItemSpec{ID: "b", CapturedAt: t0})
	if _, err := alloc.AssignName(ctx, "LAB-7", &a, nil); err != nil {
		t.Fatal(err)
	}
	alloc.Release("a")
	if _, ok := alloc.Lookup("LAB-7.jpg"); ok {
		t.Fatal("expected name to be released")
	}
	name, err := alloc.AssignName(ctx, "LAB-7", &b, nil)
	if err != nil || name != "LAB-7.jpg" {
		t.Fatalf("expected b to take released name, got %q %v", name, err)
	}
}
