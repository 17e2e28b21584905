package api

import "samplesort/internal/color"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Item describes a sample in a transport-friendly format.
type Item struct {
	ID              string         `json:"id"`
	CapturedAt      string         `json:"capturedAt"`
	Origin          string         `json:"origin"`
	Code            string         `json:"code,omitempty"`
	Description     string         `json:"description,omitempty"`
	Colors          []color.Sample `json:"colors,omitempty"`
	Group           string         `json:"group,omitempty"`
	AssignedName    string         `json:"assignedName,omitempty"`
	GroupConfidence float64        `json:"groupConfidence"`
	Status          string         `json:"status"`
	StatusReason    string         `json:"statusReason,omitempty"`
	CreatedAt       string         `json:"createdAt,omitempty"`
	UpdatedAt       string         `json:"updatedAt,omitempty"`
}

// ItemListResponse wraps a collection of items.
type ItemListResponse struct {
	Items []Item `json:"items"`
}

// ItemResponse wraps a single item.
type ItemResponse struct {
	Item Item `json:"item"`
}

// Group summarizes one group.
type Group struct {
	Group        string `json:"group"`
	Members      int    `json:"members"`
	Named        int    `json:"named"`
	CodeBearing  int    `json:"codeBearing"`
	Invalid      int    `json:"invalid"`
	FirstCapture string `json:"firstCapture,omitempty"`
}

// GroupListResponse wraps group summaries.
type GroupListResponse struct {
	Groups []Group `json:"groups"`
}

// Rename is one name change made by resequencing.
type Rename struct {
	ItemID string `json:"itemId"`
	From   string `json:"from,omitempty"`
	To     string `json:"to"`
}

// Failure is one member a resequencing pass could not rename.
type Failure struct {
	ItemID string `json:"itemId,omitempty"`
	Name   string `json:"name,omitempty"`
	Error  string `json:"error"`
}

// Report is the outcome of resequencing one or more groups.
type Report struct {
	Members   int       `json:"members"`
	Renamed   []Rename  `json:"renamed,omitempty"`
	Unchanged int       `json:"unchanged"`
	Failures  []Failure `json:"failures,omitempty"`
	Partial   bool      `json:"partial"`
}

// Match explains an inferred group.
type Match struct {
	Group      string  `json:"group"`
	Confidence float64 `json:"confidence"`
	Score      float64 `json:"score,omitempty"`
	Strategy   string  `json:"strategy"`
	SourceID   string  `json:"sourceId"`
	Reason     string  `json:"reason"`
}

// EditResponse is returned by every operation that moves an item.
type EditResponse struct {
	Item          Item   `json:"item"`
	PreviousGroup string `json:"previousGroup,omitempty"`
	Match         *Match `json:"match,omitempty"`
	Report        Report `json:"report"`
}

// RenameResponse is returned by a group rename.
type RenameResponse struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Moved  int    `json:"moved"`
	Report Report `json:"report"`
}

// Applied is one match written by a sweep.
type Applied struct {
	ItemID     string  `json:"itemId"`
	Group      string  `json:"group"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	Round      int     `json:"round"`
}

// SweepResponse summarizes one sweep.
type SweepResponse struct {
	Strategy   string    `json:"strategy"`
	Rounds     int       `json:"rounds"`
	Considered int       `json:"considered"`
	Grouped    int       `json:"grouped"`
	Remaining  int       `json:"remaining"`
	Cancelled  bool      `json:"cancelled"`
	DurationMS int64     `json:"durationMs"`
	Applied    []Applied `json:"applied,omitempty"`
}

// ClearResponse reports how many items were deleted.
type ClearResponse struct {
	Removed int64 `json:"removed"`
}

// CreateItemRequest registers a new item.
type CreateItemRequest struct {
	Origin     string `json:"origin"`
	CapturedAt string `json:"capturedAt,omitempty"`
}

// ExtractionRequest carries extraction evidence.
type ExtractionRequest struct {
	Code        string         `json:"code"`
	Description string         `json:"description"`
	Colors      []color.Sample `json:"colors"`
}

// GroupEditRequest carries a manually entered group. An empty group clears it.
type GroupEditRequest struct {
	Group string `json:"group"`
}

// RenameGroupRequest moves every member of From into To.
type RenameGroupRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// StatusResponse describes a running daemon.
type StatusResponse struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"databasePath"`
	APIAddress   string         `json:"apiAddress"`
	Observers    int            `json:"observers"`
	IndexedNames int            `json:"indexedNames"`
	Stats        map[string]int `json:"stats"`
}
