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

func TestResequenceAfterCodeArrives(t *testing.T) {
	alloc, store := newAllocator(t)
	ctx := context.Background()

	a := testsupport.InsertItem(t, store, testsupport.ItemSpec{ID: "a", CapturedAt: t0})
	b := testsupport.InsertItem(t, store, testsupport.ItemSpec{ID: "b", CapturedAt: t0.Add(time.Minute)})
	joinGroup(t, alloc, store, a, "LAB-7")
	joinGroup(t, alloc, store, b, "LAB-7")

	names := namesByID(t, store)
	if names["a"] != "LAB-7.jpg" || names["b"] != "LAB-7_2.jpg" {
		t.Fatalf("unexpected initial names: %v", names)
	}

	a.Code = "LAB-7"
	if err := store.Update(ctx, a); err != nil {
		t.Fatalf("Update: %v", err)
	}
	report, err := alloc.ResequenceGroup(ctx, "LAB-7")
	if err != nil {
		t.Fatalf("ResequenceGroup: %v", err)
	}
	if !report.OK() || report.Members != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	names = namesByID(t, store)
	if names["a"] != "LAB-7.jpg" || names["b"] != "LAB-7_2.jpg" {
		t.Fatalf("unexpected names after code: %v", names)
	}
}

func TestResequenceIsIdempotent(t *testing.T) {
	alloc, store := newAllocator(t)
	ctx := context.Background()

	specs := []testsupport.ItemSpec{
		{ID: "c", CapturedAt: t0.Add(2 * time.Minute)},
		{ID: "a", CapturedAt: t0, Code: "LAB-7"},
		{ID: "b", CapturedAt: t0.Add(time.Minute)},
	}
	for _, spec := range specs {
		item := testsupport.InsertItem(t, store, spec)
		joinGroup(t, alloc, store, item, "LAB-7")
	}

	first, err := alloc.ResequenceGroup(ctx, "LAB-7")
	if err != nil {
		t.Fatalf("ResequenceGroup: %v", err)
	}
	if !first.OK() {
		t.Fatalf("unexpected failures: %v", first.Err())
	}
	want := map[string]string{"a": "LAB-7.jpg", "b": "LAB-7_2.jpg", "c": "LAB-7_3.jpg"}
	got := namesByID(t, store)
	for id, name := range want {
		if got[id] != name {
			t.Fatalf("item %s: expected %q, got %q (all %v)", id, name, got[id], got)
		}
	}

	second, err := alloc.ResequenceGroup(ctx, "LAB-7")
	if err != nil {
		t.Fatalf("ResequenceGroup: %v", err)
	}
	if len(second.Renamed) != 0 || second.Unchanged != 3 {
		t.Fatalf("expected no renames on second pass, got %+v", second)
	}
}

func TestResequenceFillsGapAfterRemoval(t *testing.T) {
	alloc, store := newAllocator(t)
	ctx := context.Background()

	a := testsupport.InsertItem(t, store, testsupport.ItemSpec{ID: "a", CapturedAt: t0, Code: "LAB-7"})
	b := testsupport.InsertItem(t, store, testsupport.ItemSpec{ID: "b", CapturedAt: t0.Add(time.Minute)})
	c := testsupport.InsertItem(t, store, testsupport.ItemSpec{ID: "c", CapturedAt: t0.Add(2 * time.Minute)})
	for _, item := range []*items.Item{a, b, c} {
		joinGroup(t, alloc, store, item, "LAB-7")
	}

	alloc.Release("b")
	if err := store.UpdateNaming(ctx, "b", items.Naming{Status: items.StatusUnmatched}); err != nil {
		t.Fatal(err)
	}
	report, err := alloc.ResequenceGroup(ctx, "LAB-7")
	if err != nil {
		t.Fatalf("ResequenceGroup: %v", err)
	}
	if len(report.Renamed) != 1 || report.Renamed[0].ItemID != "c" || report.Renamed[0].To != "LAB-7_2.jpg" {
		t.Fatalf("unexpected renames: %+v", report.Renamed)
	}
	if _, ok := alloc.Lookup("LAB-7_3.jpg"); ok {
		t.Fatal("expected LAB-7_3.jpg to be free after resequence")
	}
}

func TestResequenceEmptyGroup(t *testing.T) {
	alloc, _ := newAllocator(t)
	report, err := alloc.ResequenceGroup(context.Background(), "")
	if err != nil || report.Members != 0 {
		t.Fatalf("expected empty report, got %+v %v", report, err)
	}
}

type flakyStore struct {
	*items.Store
	failID string
}

func (f flakyStore) UpdateName(ctx context.Context, id, name string) error {
	if id == f.failID {
		return errors.New("disk full")
	}
	return f.Store.UpdateName(ctx, id, name)
}

func TestResequenceRecordsPersistenceFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	// Seed names that are out of order so the pass has to rewrite both.
	a := testsupport.InsertItem(t, store, testsupport.ItemSpec{ID: "a", CapturedAt: t0})
	b := testsupport.InsertItem(t, store, testsupport.ItemSpec{ID: "b", CapturedAt: t0.Add(time.Minute)})
	if err := store.UpdateNaming(ctx, a.ID, items.Naming{Group: "LAB-7", AssignedName: "LAB-7_2.jpg", Status: items.StatusMatched}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateNaming(ctx, b.ID, items.Naming{Group: "LAB-7", AssignedName: "LAB-7.jpg", Status: items.StatusMatched}); err != nil {
		t.Fatal(err)
	}

	alloc := naming.New(flakyStore{Store: store, failID: "b"}, naming.Options{}, nil)
	if _, err := alloc.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	report, err := alloc.ResequenceGroup(ctx, "LAB-7")
	if err != nil {
		t.Fatalf("ResequenceGroup: %v", err)
	}
	if report.OK() || len(report.Failures) != 1 || report.Failures[0].ItemID != "b" {
		t.Fatalf("expected one failure for b, got %+v", report)
	}
	if report.Err() == nil {
		t.Fatal("expected joined error")
	}
	names := namesByID(t, store)
	if names["a"] != "LAB-7.jpg" {
		t.Fatalf("expected a renamed despite b failing, got %v", names)
	}
	if names["b"] != "LAB-7.jpg" {
		t.Fatalf("expected b to keep its stale stored name, got %v", names)
	}
}

func TestStaleStoredNameStaysReserved(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	// b's stored name leaves a gap the pass will try to close.
	a := testsupport.InsertItem(t, store, testsupport.ItemSpec{ID: "a", CapturedAt: t0})
	b := testsupport.InsertItem(t, store, testsupport.ItemSpec{ID: "b", CapturedAt: t0.Add(time.Minute)})
	if err := store.UpdateNaming(ctx, a.ID, items.Naming{Group: "LAB-7", AssignedName: "LAB-7.jpg", Status: items.StatusMatched}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateNaming(ctx, b.ID, items.Naming{Group: "LAB-7", AssignedName: "LAB-7_3.jpg", Status: items.StatusMatched}); err != nil {
		t.Fatal(err)
	}

	flaky := &flakyStore{Store: store, failID: "b"}
	alloc := naming.New(flaky, naming.Options{}, nil)
	if _, err := alloc.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	report, err := alloc.ResequenceGroup(ctx, "LAB-7")
	if err != nil {
		t.Fatalf("ResequenceGroup: %v", err)
	}
	if len(report.Failures) != 1 || report.Failures[0].Name != "LAB-7_2.jpg" {
		t.Fatalf("expected b's rename to LAB-7_2.jpg to fail, got %+v", report)
	}
	if holder, ok := alloc.Lookup("LAB-7_3.jpg"); !ok || holder != "b" {
		t.Fatalf("expected stale LAB-7_3.jpg held for b, got %q %v", holder, ok)
	}

	c := testsupport.NewItem(testsupport.ItemSpec{ID: "c", CapturedAt: t0.Add(2 * time.Minute)})
	name, err := alloc.AssignName(ctx, "LAB-7", &c, []items.Item{*a, *b})
	if err != nil {
		t.Fatalf("AssignName: %v", err)
	}
	if name != "LAB-7_4.jpg" {
		t.Fatalf("expected c to skip b's stored name, got %q", name)
	}

	// Once b's rename is written the stale name is free again.
	flaky.failID = ""
	report, err = alloc.ResequenceGroup(ctx, "LAB-7")
	if err != nil || !report.OK() {
		t.Fatalf("ResequenceGroup: %+v %v", report, err)
	}
	if names := namesByID(t, store); names["b"] != "LAB-7_2.jpg" {
		t.Fatalf("expected b renamed, got %v", names)
	}
	if holder, ok := alloc.Lookup("LAB-7_3.jpg"); ok {
		t.Fatalf("expected LAB-7_3.jpg released, still held by %q", holder)
	}
}

func TestRebuildCountsConflicts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i, id := range []string{"a", "b"} {
		item := testsupport.InsertItem(t, store, testsupport.ItemSpec{ID: id, CapturedAt: t0.Add(time.Duration(i) * time.Second)})
		if err := store.UpdateNaming(ctx, item.ID, items.Naming{Group: "LAB-7", AssignedName: "LAB-7.jpg", Status: items.StatusMatched}); err != nil {
			t.Fatal(err)
		}
	}

	alloc := naming.NewFromConfig(cfg, store, nil)
	conflicts, err := alloc.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if conflicts != 1 {
		t.Fatalf("expected 1 conflict, got %d", conflicts)
	}
	if holder, _ := alloc.Lookup("LAB-7.jpg"); holder != "a" {
		t.Fatalf("expected earliest capture to keep the name, got %q", holder)
	}

	if _, err := alloc.ResequenceGroup(ctx, "LAB-7"); err != nil {
		t.Fatal(err)
	}
	names := namesByID(t, store)
	if names["a"] != "LAB-7.jpg" || names["b"] != "LAB-7_2.jpg" {
		t.Fatalf("expected resequence to repair duplicates, got %v", names)
	}
}

func TestDoHoldsLockAcrossSteps(t *testing.T) {
	alloc, store := newAllocator(t)
	ctx := context.Background()
	a := testsupport.InsertItem(t, store, testsupport.ItemSpec{ID: "a", CapturedAt: t0})

	err := alloc.Do(ctx, func(tx *naming.Tx) error {
		name, err := tx.AssignName("LAB-7", a, nil)
		if err != nil {
			return err
		}
		if err := store.UpdateNaming(ctx, a.ID, items.Naming{Group: "LAB-7", AssignedName: name, Status: items.StatusHumanGrouped}); err != nil {
			return err
		}
		_, err = tx.ResequenceGroup("LAB-7")
		return err
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if alloc.Len() != 1 {
		t.Fatalf("expected one indexed name, got %d", alloc.Len())
	}
}
