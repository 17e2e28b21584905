package items

import (
	"strings"
	"time"

	"samplesort/internal/color"
)

// Status represents the lifecycle of an item.
type Status string

const (
	StatusUnprocessed  Status = "unprocessed"
	StatusExtracting   Status = "extracting"
	StatusExtracted    Status = "extracted"
	StatusPendingMatch Status = "pending_match"
	StatusMatching     Status = "matching"
	StatusMatched      Status = "matched"
	StatusUnmatched    Status = "unmatched"
	StatusHumanGrouped Status = "human_grouped"
	StatusInvalidGroup Status = "invalid_group"
)

var allStatuses = []Status{
	StatusUnprocessed,
	StatusExtracting,
	StatusExtracted,
	StatusPendingMatch,
	StatusMatching,
	StatusMatched,
	StatusUnmatched,
	StatusHumanGrouped,
	StatusInvalidGroup,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusExtracting: {},
	StatusMatching:   {},
}

var terminalStatuses = map[Status]struct{}{
	StatusMatched:      {},
	StatusUnmatched:    {},
	StatusHumanGrouped: {},
	StatusInvalidGroup: {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	return append([]Status(nil), allStatuses...)
}

// ParseStatus converts a string into a known Status. Hyphenated spellings
// ("pending-match") are accepted.
func ParseStatus(value string) (Status, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "-", "_")
	if normalized == "" {
		return "", false
	}
	status := Status(normalized)
	_, ok := statusSet[status]
	return status, ok
}

// IsTerminal reports whether the status stays put until a retry or manual edit.
func (s Status) IsTerminal() bool {
	_, ok := terminalStatuses[s]
	return ok
}

// IsProcessing reports whether a collaborator is currently working on the item.
func (s Status) IsProcessing() bool {
	_, ok := processingStatuses[s]
	return ok
}

// Item is one photographed sample persisted in SQLite.
type Item struct {
	ID              string
	CapturedAt      time.Time
	Origin          string
	Code            string
	Description     string
	Colors          []color.Sample
	Group           string
	AssignedName    string
	GroupConfidence float64
	Status          Status
	StatusReason    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsGrouped reports whether the item carries a non-empty group.
func (i Item) IsGrouped() bool {
	return strings.TrimSpace(i.Group) != ""
}

// HasCode reports whether the item carries an extracted code.
func (i Item) HasCode() bool {
	return strings.TrimSpace(i.Code) != ""
}

// CapturedBefore orders items by capture time, breaking ties by ID so the
// order is total and reproducible.
func CapturedBefore(a, b Item) bool {
	if !a.CapturedAt.Equal(b.CapturedAt) {
		return a.CapturedAt.Before(b.CapturedAt)
	}
	return a.ID < b.ID
}

// GroupSummary reports the membership of one group.
type GroupSummary struct {
	Group        string
	Members      int
	Named        int
	CodeBearing  int
	Invalid      int
	FirstCapture time.Time
}

// DatabaseHealth captures diagnostic information about the items database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TableExists      bool
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	DuplicateNames   int
	Error            string
}
