package items

import (
	"testing"
	"time"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want Status
		ok   bool
	}{
		{"matched", StatusMatched, true},
		{" Pending-Match ", StatusPendingMatch, true},
		{"HUMAN_GROUPED", StatusHumanGrouped, true},
		{"", "", false},
		{"done", "done", false},
	}
	for _, tc := range tests {
		got, ok := ParseStatus(tc.in)
		if ok != tc.ok || (tc.ok && got != tc.want) {
			t.Fatalf("ParseStatus(%q) = %q, %v", tc.in, got, ok)
		}
	}
	if len(AllStatuses()) != 9 {
		t.Fatalf("expected 9 statuses, got %d", len(AllStatuses()))
	}
}

func TestStatusClassification(t *testing.T) {
	for _, status := range []Status{StatusMatched, StatusUnmatched, StatusHumanGrouped, StatusInvalidGroup} {
		if !status.IsTerminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
	if StatusPendingMatch.IsTerminal() || !StatusExtracting.IsProcessing() || StatusExtracted.IsProcessing() {
		t.Fatal("unexpected status classification")
	}
}

func TestCapturedBefore(t *testing.T) {
	now := time.Now()
	a := Item{ID: "a", CapturedAt: now}
	b := Item{ID: "b", CapturedAt: now}
	c := Item{ID: "c", CapturedAt: now.Add(-time.Second)}
	if !CapturedBefore(a, b) || CapturedBefore(b, a) {
		t.Fatal("expected ID tie break")
	}
	if !CapturedBefore(c, a) {
		t.Fatal("expected earlier capture first")
	}
}
