package matcher

import (
	"sort"
	"time"

	"samplesort/internal/items"
)

// Pool is a capture-ordered snapshot of candidates that narrows a scan to
// the items inside a target's window with binary search.
type Pool struct {
	items []items.Item
}

// NewPool copies and sorts candidates by capture time.
func NewPool(candidates []items.Item) *Pool {
	sorted := append([]items.Item(nil), candidates...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return items.CapturedBefore(sorted[i], sorted[j])
	})
	return &Pool{items: sorted}
}

// Len returns the number of candidates in the pool.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

// Around returns the candidates captured strictly inside window of at.
func (p *Pool) Around(at time.Time, window time.Duration) []items.Item {
	if p == nil || len(p.items) == 0 {
		return nil
	}
	lower := at.Add(-window)
	upper := at.Add(window)
	start := sort.Search(len(p.items), func(i int) bool {
		return p.items[i].CapturedAt.After(lower)
	})
	end := sort.Search(len(p.items), func(i int) bool {
		return !p.items[i].CapturedAt.Before(upper)
	})
	if start >= end {
		return nil
	}
	return p.items[start:end]
}

// Add inserts an item keeping capture order, replacing any entry with the
// same ID.
func (p *Pool) Add(item items.Item) {
	for i := range p.items {
		if p.items[i].ID == item.ID {
			p.items = append(p.items[:i], p.items[i+1:]...)
			break
		}
	}
	idx := sort.Search(len(p.items), func(i int) bool {
		return items.CapturedBefore(item, p.items[i])
	})
	p.items = append(p.items, items.Item{})
	copy(p.items[idx+1:], p.items[idx:])
	p.items[idx] = item
}
