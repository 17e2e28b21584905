package grouping

import (
	"context"
	"fmt"

	"samplesort/internal/broadcast"
	"samplesort/internal/codes"
	"samplesort/internal/items"
	"samplesort/internal/logging"
	"samplesort/internal/naming"
	"samplesort/internal/services"
)

// OnManualGroupEdit applies a group typed by a person. A value that passes
// the code rules yields human_grouped; any other non-empty value yields
// invalid_group but still gets a name. An empty value clears the group and
// the name. Both the old and the new group are resequenced.
func (s *Service) OnManualGroupEdit(ctx context.Context, id, newGroup string) (Result, error) {
	ctx = services.WithItemID(ctx, id)
	group := codes.Normalize(newGroup)

	p := placement{group: group, confidence: 1}
	switch {
	case group == "":
		p.confidence = 0
		p.status = items.StatusUnmatched
		p.reason = "group cleared by edit"
	case s.codes.Valid(group):
		p.status = items.StatusHumanGrouped
		p.reason = "manual edit"
	default:
		p.status = items.StatusInvalidGroup
		p.reason = "group does not match any code rule"
	}

	var result Result
	err := s.alloc.Do(ctx, func(tx *naming.Tx) error {
		item, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		result.PreviousGroup = item.Group
		report, err := s.place(ctx, tx, item, p)
		result.Item = *item
		result.Report = report
		return err
	})
	if err != nil {
		return result, err
	}
	logging.WithContext(ctx, s.logger).Info("group edited",
		logging.Decision("manual_edit", string(p.status), p.reason,
			logging.String(logging.FieldGroup, group),
			logging.String("previous_group", result.PreviousGroup),
			logging.String("name", result.Item.AssignedName),
		)...,
	)
	return result, nil
}

// RenameResult reports a group rename.
type RenameResult struct {
	From   string
	To     string
	Moved  int
	Report naming.Report
}

// RenameGroup moves every member of from into to, keeping each member's
// confidence. Statuses follow the validity of the new key.
func (s *Service) RenameGroup(ctx context.Context, from, to string) (RenameResult, error) {
	from = codes.Normalize(from)
	to = codes.Normalize(to)
	result := RenameResult{From: from, To: to}
	if from == "" || to == "" {
		return result, services.Wrap(services.ErrValidation, component, "rename group", "source and target groups are required", nil)
	}
	ctx = services.WithGroup(ctx, to)
	valid := s.codes.Valid(to)

	err := s.alloc.Do(ctx, func(tx *naming.Tx) error {
		members, err := s.store.ListByGroup(ctx, from)
		if err != nil {
			return services.Wrap(services.ErrPersistence, component, "rename group", "load members", err)
		}
		if len(members) == 0 {
			return services.Wrap(services.ErrNotFound, component, "rename group", fmt.Sprintf("group %q", from), nil)
		}
		if from == to {
			result.Report = s.resequence(ctx, tx, to)
			return nil
		}
		if err := s.moveMembers(ctx, tx, members, to, valid, &result); err != nil {
			if result.Moved > 0 {
				// Both groups hold members now; their names must still agree.
				result.Report = s.resequence(ctx, tx, from)
				result.Report.Merge(s.resequence(ctx, tx, to))
			}
			return err
		}
		result.Report = s.resequence(ctx, tx, to)
		return nil
	})
	if result.Moved > 0 {
		s.notifyGroups(ctx, from, to)
	}
	if err != nil {
		return result, err
	}
	logging.WithContext(ctx, s.logger).Info("group renamed",
		logging.String("from", from),
		logging.String("to", to),
		logging.Int("moved", result.Moved),
	)
	return result, nil
}

// moveMembers rewrites members into group to, one UpdateNaming each. It
// stops at the first failure; result.Moved counts the members already moved.
func (s *Service) moveMembers(ctx context.Context, tx *naming.Tx, members []*items.Item, to string, valid bool, result *RenameResult) error {
	for _, member := range members {
		status := member.Status
		reason := member.StatusReason
		switch {
		case !valid:
			status = items.StatusInvalidGroup
			reason = "group does not match any code rule"
		case status == items.StatusInvalidGroup:
			status = items.StatusHumanGrouped
			reason = "group renamed"
		}
		others, err := s.earlierMembers(ctx, to, *member)
		if err != nil {
			return err
		}
		candidate := *member
		name, err := tx.AssignName(to, &candidate, others)
		if err != nil {
			tx.Claim(member.AssignedName, member.ID)
			return services.Wrap(services.ErrConflict, component, "rename group", member.ID, err)
		}
		if err := s.store.UpdateNaming(ctx, member.ID, items.Naming{
			Group:           to,
			AssignedName:    name,
			GroupConfidence: member.GroupConfidence,
			Status:          status,
			StatusReason:    reason,
		}); err != nil {
			tx.Release(member.ID)
			tx.Claim(member.AssignedName, member.ID)
			return services.Wrap(services.ErrPersistence, component, "rename group", member.ID, err)
		}
		tx.Stored(member.ID)
		result.Moved++
	}
	return nil
}

// notifyGroups pushes the current state of every member of groups.
func (s *Service) notifyGroups(ctx context.Context, groups ...string) {
	for _, group := range groups {
		members, err := s.store.ListByGroup(ctx, group)
		if err != nil {
			continue
		}
		for _, member := range members {
			s.notify(*member)
		}
	}
}

// Retry reopens an item for matching. Inferred groups are dropped and the old
// group resequenced. Items grouped by code or by a person are left alone.
func (s *Service) Retry(ctx context.Context, id string) (Result, error) {
	ctx = services.WithItemID(ctx, id)
	var result Result
	err := s.alloc.Do(ctx, func(tx *naming.Tx) error {
		item, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		result.PreviousGroup = item.Group
		switch {
		case item.Status.IsProcessing() || item.Status == items.StatusUnprocessed:
			return services.Wrap(services.ErrConflict, component, "retry", fmt.Sprintf("item is %s", item.Status), nil)
		case item.Status == items.StatusHumanGrouped || item.Status == items.StatusInvalidGroup:
			return services.Wrap(services.ErrConflict, component, "retry", "item was grouped by hand; edit its group instead", nil)
		case item.HasCode() && item.Group == item.Code:
			return services.Wrap(services.ErrConflict, component, "retry", "item is grouped by its code", nil)
		}
		report, err := s.place(ctx, tx, item, placement{
			status: items.StatusPendingMatch,
			reason: "retry requested",
		})
		result.Item = *item
		result.Report = report
		return err
	})
	return result, err
}

// Remove deletes an item, frees its name and resequences its group.
func (s *Service) Remove(ctx context.Context, id string) error {
	ctx = services.WithItemID(ctx, id)
	return s.alloc.Do(ctx, func(tx *naming.Tx) error {
		item, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if _, err := s.store.Remove(ctx, id); err != nil {
			return services.Wrap(services.ErrPersistence, component, "remove", id, err)
		}
		tx.Release(id)
		s.notifier.Notify(broadcast.Delta{Kind: broadcast.KindItemRemoved, ItemID: id, Group: item.Group})
		if item.IsGrouped() {
			s.resequence(ctx, tx, item.Group)
		}
		return nil
	})
}

// ClearAll cancels running sweeps and deletes every item.
func (s *Service) ClearAll(ctx context.Context) (int64, error) {
	s.CancelSweeps()
	var removed int64
	err := s.alloc.Do(ctx, func(tx *naming.Tx) error {
		n, err := s.store.Clear(ctx)
		if err != nil {
			return services.Wrap(services.ErrPersistence, component, "clear", "delete items", err)
		}
		tx.Reset()
		removed = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.notifier.Notify(broadcast.Delta{Kind: broadcast.KindCleared})
	logging.WithContext(ctx, s.logger).Info("pool cleared", logging.Int("removed", int(removed)))
	return removed, nil
}

// ResequenceGroup recomputes the names of one group.
func (s *Service) ResequenceGroup(ctx context.Context, group string) (naming.Report, error) {
	group = codes.Normalize(group)
	if group == "" {
		return naming.Report{}, services.Wrap(services.ErrValidation, component, "resequence", "group is required", nil)
	}
	ctx = services.WithGroup(ctx, group)
	report, err := s.alloc.ResequenceGroup(ctx, group)
	if err != nil {
		return report, services.Wrap(services.ErrPersistence, component, "resequence", group, err)
	}
	s.reportFailures(ctx, report)
	s.notifyRenamed(ctx, report)
	return report, nil
}

// ResequenceAll rebuilds the name index and resequences every group. It is
// the repair path for stale or duplicated names.
func (s *Service) ResequenceAll(ctx context.Context) (naming.Report, error) {
	var total naming.Report
	if _, err := s.alloc.Rebuild(ctx); err != nil {
		return total, services.Wrap(services.ErrPersistence, component, "resequence all", "rebuild index", err)
	}
	groups, err := s.Groups(ctx)
	if err != nil {
		return total, err
	}
	for _, summary := range groups {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		report, err := s.ResequenceGroup(ctx, summary.Group)
		if err != nil {
			return total, err
		}
		total.Merge(report)
	}
	return total, nil
}
