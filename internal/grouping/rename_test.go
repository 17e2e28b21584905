package grouping_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"samplesort/internal/items"
	"samplesort/internal/services"
)

// failGroupWrites installs a trigger that aborts any write moving id into
// group, standing in for a storage failure partway through an edit.
func failGroupWrites(t *testing.T, store *items.Store, id, group string) {
	t.Helper()
	db, err := sql.Open("sqlite", store.Path())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	stmt := fmt.Sprintf(`CREATE TRIGGER fail_group_write BEFORE UPDATE OF group_key ON items
        WHEN NEW.id = '%s' AND NEW.group_key = '%s'
        BEGIN SELECT RAISE(ABORT, 'disk full'); END`, id, group)
	if _, err := db.Exec(stmt); err != nil {
		t.Fatalf("create trigger: %v", err)
	}
}

func TestRenameGroupFailureResequencesBothGroups(t *testing.T) {
	e := newEnv(t)
	a := e.ingest(t, "IMG_0001.JPG", t0)
	b := e.ingest(t, "IMG_0002.JPG", t0.Add(time.Minute))
	c := e.ingest(t, "IMG_0003.JPG", t0.Add(2*time.Minute))
	for _, item := range []*items.Item{a, b, c} {
		e.edit(t, item.ID, "LAB-7")
	}
	if name := e.get(t, c.ID).AssignedName; name != "LAB-7_3.jpg" {
		t.Fatalf("expected LAB-7_3.jpg before rename, got %q", name)
	}

	failGroupWrites(t, e.store, c.ID, "LAB-9")
	result, err := e.svc.RenameGroup(context.Background(), "LAB-7", "LAB-9")
	if !errors.Is(err, services.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if result.Moved != 2 {
		t.Fatalf("expected 2 moved before the failure, got %d", result.Moved)
	}

	want := map[string][2]string{
		a.ID: {"LAB-9", "LAB-9.jpg"},
		b.ID: {"LAB-9", "LAB-9_2.jpg"},
		c.ID: {"LAB-7", "LAB-7.jpg"},
	}
	for id, w := range want {
		item := e.get(t, id)
		if item.Group != w[0] || item.AssignedName != w[1] {
			t.Fatalf("item %s: expected %s/%s, got %s/%s", id, w[0], w[1], item.Group, item.AssignedName)
		}
	}
	e.assertUniqueNames(t)
}
