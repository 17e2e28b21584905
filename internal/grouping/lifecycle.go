package grouping

import (
	"context"

	"samplesort/internal/items"
	"samplesort/internal/logging"
	"samplesort/internal/naming"
	"samplesort/internal/services"
)

// transition moves every ungrouped item in ids whose status is one of from
// to status, under the allocator lock. Items that changed underneath are
// skipped. It returns the items it moved, in ids order.
func (s *Service) transition(ctx context.Context, ids []string, from []items.Status, to items.Status, reason string) ([]items.Item, error) {
	var moved []items.Item
	err := s.alloc.Do(ctx, func(*naming.Tx) error {
		for _, id := range ids {
			item, err := s.store.GetByID(ctx, id)
			if err != nil {
				return services.Wrap(services.ErrPersistence, component, "transition", "reload item", err)
			}
			if item == nil || item.IsGrouped() || !hasStatus(item.Status, from) {
				continue
			}
			if item.Status != to || item.StatusReason != reason {
				item.Status = to
				item.StatusReason = reason
				if err := s.saveEvidence(ctx, item); err != nil {
					return err
				}
				s.notify(*item)
			}
			moved = append(moved, *item)
		}
		return nil
	})
	return moved, err
}

// release returns items still marked matching to status. It runs even when
// ctx is already cancelled so an aborted match never strands an item.
func (s *Service) release(ctx context.Context, claimed []items.Item, status items.Status, reason string) {
	if len(claimed) == 0 {
		return
	}
	ids := idsOf(claimed)
	if _, err := s.transition(context.WithoutCancel(ctx), ids, []items.Status{items.StatusMatching}, status, reason); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "matching items not released", "release_failed",
			logging.Int("items", len(ids)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "items stay matching until the daemon restarts"),
		)
	}
}

// RequeueInterrupted moves items left in matching by an earlier process back
// to pending_match. Run it before any sweep starts.
func (s *Service) RequeueInterrupted(ctx context.Context) (int, error) {
	stuck, err := s.store.List(ctx, items.StatusMatching)
	if err != nil {
		return 0, services.Wrap(services.ErrPersistence, component, "requeue", "load matching items", err)
	}
	ids := make([]string, 0, len(stuck))
	for _, item := range stuck {
		ids = append(ids, item.ID)
	}
	moved, err := s.transition(ctx, ids, []items.Status{items.StatusMatching}, items.StatusPendingMatch, "matching interrupted")
	return len(moved), err
}

func idsOf(list []items.Item) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, item.ID)
	}
	return out
}

func hasStatus(status items.Status, set []items.Status) bool {
	for _, candidate := range set {
		if status == candidate {
			return true
		}
	}
	return false
}
