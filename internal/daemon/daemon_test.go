package daemon

import (
	"context"
	"testing"
	"time"

	"samplesort/internal/client"
	"samplesort/internal/config"
	"samplesort/internal/items"
	"samplesort/internal/testsupport"
)

func newTestDaemon(t *testing.T, cfg *config.Config) *Daemon {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(d.Stop)
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status := d.Status(context.Background())
	if !status.Running {
		t.Fatal("expected running status")
	}
	if status.APIAddress == "" {
		t.Fatal("expected api address once started")
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("lock path = %q, want %q", status.LockFilePath, cfg.LockPath())
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(context.Background())
	if status.Running || status.APIAddress != "" {
		t.Fatalf("expected stopped status, got %+v", status)
	}
}

func TestDaemonLockIsExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first := newTestDaemon(t, cfg)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start first: %v", err)
	}

	second, err := New(cfg, first.store, nil)
	if err != nil {
		t.Fatalf("New second: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("expected second daemon to fail while lock is held")
	}

	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("Start after release: %v", err)
	}
	second.Stop()
}

func TestDaemonStartRepairsDuplicateNames(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg)
	ctx := context.Background()

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	a := testsupport.InsertItem(t, d.store, testsupport.ItemSpec{Origin: "IMG_0001.JPG", CapturedAt: base, Code: "LAB-7"})
	b := testsupport.InsertItem(t, d.store, testsupport.ItemSpec{Origin: "IMG_0002.JPG", CapturedAt: base.Add(30 * time.Second)})
	for _, id := range []string{a.ID, b.ID} {
		err := d.store.UpdateNaming(ctx, id, items.Naming{
			Group:           "LAB-7",
			AssignedName:    "LAB-7.jpg",
			GroupConfidence: 1,
			Status:          items.StatusMatched,
		})
		if err != nil {
			t.Fatalf("UpdateNaming: %v", err)
		}
	}

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	first, err := d.store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	second, err := d.store.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if first.AssignedName == second.AssignedName {
		t.Fatalf("expected duplicate repaired, both named %q", first.AssignedName)
	}
	if first.AssignedName != "LAB-7.jpg" {
		t.Fatalf("earlier capture should keep the bare name, got %q", first.AssignedName)
	}
}

func TestDaemonStartRequeuesInterruptedItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg)
	ctx := context.Background()

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	stuck := testsupport.InsertItem(t, d.store, testsupport.ItemSpec{
		Origin:     "IMG_0001.JPG",
		CapturedAt: base,
		Status:     items.StatusMatching,
	})

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	got, err := d.store.GetByID(ctx, stuck.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status == items.StatusMatching {
		t.Fatalf("expected interrupted item requeued, still %s", got.Status)
	}
}

func TestDaemonServesStatusOverHTTP(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newTestDaemon(t, cfg)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	c, err := client.New(d.Status(ctx).APIAddress, cfg.Paths.APIToken)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	status, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("unexpected status %+v", status)
	}
}
