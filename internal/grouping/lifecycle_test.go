package grouping_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"samplesort/internal/items"
	"samplesort/internal/testsupport"
)

// statusTrail returns the statuses the recorder saw for id, with repeats
// collapsed.
func (r *recorder) statusTrail(id string) []items.Status {
	var trail []items.Status
	for _, d := range r.forItem(id) {
		if d.Status == "" {
			continue
		}
		if n := len(trail); n > 0 && trail[n-1] == d.Status {
			continue
		}
		trail = append(trail, d.Status)
	}
	return trail
}

func TestLifecycleThroughAutoGroup(t *testing.T) {
	e := newEnv(t, testsupport.WithMatchOnExtract(false))
	a := e.ingest(t, "IMG_0001.JPG", t0)
	e.extract(t, a.ID, "LAB-7", "red bottle cap", "#b32020")

	b := e.ingest(t, "IMG_0002.JPG", t0.Add(time.Minute))
	if _, err := e.svc.MarkExtracting(context.Background(), b.ID); err != nil {
		t.Fatalf("MarkExtracting: %v", err)
	}
	if result := e.extract(t, b.ID, "", "red bottle", "#cc2222"); result.Item.Status != items.StatusExtracted {
		t.Fatalf("expected extracted, got %s", result.Item.Status)
	}

	c := e.ingest(t, "IMG_0003.JPG", t0.Add(20*time.Minute))
	if _, err := e.svc.MarkExtracting(context.Background(), c.ID); err != nil {
		t.Fatalf("MarkExtracting: %v", err)
	}
	e.extract(t, c.ID, "", "green jar", "#22aa22")

	if _, err := e.svc.AutoGroup(context.Background()); err != nil {
		t.Fatalf("AutoGroup: %v", err)
	}

	wantMatched := []items.Status{
		items.StatusUnprocessed,
		items.StatusExtracting,
		items.StatusExtracted,
		items.StatusPendingMatch,
		items.StatusMatching,
		items.StatusMatched,
	}
	if got := e.rec.statusTrail(b.ID); !reflect.DeepEqual(got, wantMatched) {
		t.Fatalf("matched trail = %v, want %v", got, wantMatched)
	}
	// c is scored again in the round after b joins LAB-7.
	wantUnmatched := []items.Status{
		items.StatusUnprocessed,
		items.StatusExtracting,
		items.StatusExtracted,
		items.StatusPendingMatch,
		items.StatusMatching,
		items.StatusPendingMatch,
		items.StatusMatching,
		items.StatusPendingMatch,
		items.StatusUnmatched,
	}
	if got := e.rec.statusTrail(c.ID); !reflect.DeepEqual(got, wantUnmatched) {
		t.Fatalf("unmatched trail = %v, want %v", got, wantUnmatched)
	}
	if status := e.get(t, c.ID).Status; status != items.StatusUnmatched {
		t.Fatalf("expected unmatched, got %s", status)
	}
	e.assertUniqueNames(t)
}

func TestMatchOnExtractPassesThroughMatching(t *testing.T) {
	e := newEnv(t)
	a := e.ingest(t, "IMG_0001.JPG", t0)
	e.extract(t, a.ID, "LAB-7", "red bottle cap", "#b32020")
	b := e.ingest(t, "IMG_0002.JPG", t0.Add(time.Minute))
	e.extract(t, b.ID, "", "red bottle", "#cc2222")
	c := e.ingest(t, "IMG_0003.JPG", t0.Add(20*time.Minute))
	e.extract(t, c.ID, "", "green jar", "#22aa22")

	want := []items.Status{items.StatusUnprocessed, items.StatusExtracted, items.StatusMatching, items.StatusMatched}
	if got := e.rec.statusTrail(b.ID); !reflect.DeepEqual(got, want) {
		t.Fatalf("trail = %v, want %v", got, want)
	}
	want = []items.Status{items.StatusUnprocessed, items.StatusExtracted, items.StatusMatching, items.StatusUnmatched}
	if got := e.rec.statusTrail(c.ID); !reflect.DeepEqual(got, want) {
		t.Fatalf("trail = %v, want %v", got, want)
	}
}

func TestRequeueInterrupted(t *testing.T) {
	e := newEnv(t)
	stuck := testsupport.InsertItem(t, e.store, testsupport.ItemSpec{
		Origin:     "IMG_0001.JPG",
		CapturedAt: t0,
		Status:     items.StatusMatching,
	})
	done := testsupport.InsertItem(t, e.store, testsupport.ItemSpec{
		Origin:     "IMG_0002.JPG",
		CapturedAt: t0.Add(time.Minute),
		Status:     items.StatusUnmatched,
	})

	n, err := e.svc.RequeueInterrupted(context.Background())
	if err != nil {
		t.Fatalf("RequeueInterrupted: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one item requeued, got %d", n)
	}
	if status := e.get(t, stuck.ID).Status; status != items.StatusPendingMatch {
		t.Fatalf("expected pending_match, got %s", status)
	}
	if status := e.get(t, done.ID).Status; status != items.StatusUnmatched {
		t.Fatalf("expected unmatched untouched, got %s", status)
	}
}
