package broadcast

import (
	"time"

	"samplesort/internal/items"
)

// Kind classifies a delta.
type Kind string

const (
	KindItemUpdated Kind = "item_updated"
	KindItemRemoved Kind = "item_removed"
	KindCleared     Kind = "cleared"
)

// Delta describes one observable change to an item's grouping state.
type Delta struct {
	Kind            Kind         `json:"kind"`
	ItemID          string       `json:"itemId,omitempty"`
	Group           string       `json:"group,omitempty"`
	AssignedName    string       `json:"assignedName,omitempty"`
	GroupConfidence float64      `json:"groupConfidence,omitempty"`
	Status          items.Status `json:"status,omitempty"`
	Reason          string       `json:"reason,omitempty"`
	At              time.Time    `json:"at"`
}

// ItemDelta captures the current naming state of item.
func ItemDelta(item items.Item) Delta {
	return Delta{
		Kind:            KindItemUpdated,
		ItemID:          item.ID,
		Group:           item.Group,
		AssignedName:    item.AssignedName,
		GroupConfidence: item.GroupConfidence,
		Status:          item.Status,
		Reason:          item.StatusReason,
		At:              time.Now().UTC(),
	}
}
