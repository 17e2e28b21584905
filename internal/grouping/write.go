package grouping

import (
	"context"
	"fmt"

	"samplesort/internal/items"
	"samplesort/internal/logging"
	"samplesort/internal/naming"
	"samplesort/internal/services"
)

// placement is the naming tuple an item is moved to.
type placement struct {
	group      string
	confidence float64
	status     items.Status
	reason     string
}

// place writes item's new group and name together, then resequences the
// group it left and the group it joined. The caller holds tx. Resequencing
// problems are reported, never returned.
func (s *Service) place(ctx context.Context, tx *naming.Tx, item *items.Item, p placement) (naming.Report, error) {
	report := naming.Report{Group: p.group}
	previousGroup := item.Group
	previousName := item.AssignedName

	name := ""
	if p.group != "" {
		others, err := s.earlierMembers(ctx, p.group, *item)
		if err != nil {
			return report, err
		}
		candidate := *item
		name, err = tx.AssignName(p.group, &candidate, others)
		if err != nil {
			tx.Claim(previousName, item.ID)
			return report, services.Wrap(services.ErrConflict, component, "assign name", fmt.Sprintf("group %q", p.group), err)
		}
	} else {
		tx.Release(item.ID)
	}

	tuple := items.Naming{
		Group:           p.group,
		AssignedName:    name,
		GroupConfidence: p.confidence,
		Status:          p.status,
		StatusReason:    p.reason,
	}
	if err := s.store.UpdateNaming(ctx, item.ID, tuple); err != nil {
		tx.Release(item.ID)
		tx.Claim(previousName, item.ID)
		return report, services.Wrap(services.ErrPersistence, component, "update naming", item.ID, err)
	}
	tx.Stored(item.ID)
	item.Group = p.group
	item.AssignedName = name
	item.GroupConfidence = p.confidence
	item.Status = p.status
	item.StatusReason = p.reason

	if previousGroup != "" && previousGroup != p.group {
		report.Merge(s.resequence(ctx, tx, previousGroup))
	}
	if p.group != "" {
		report.Merge(s.resequence(ctx, tx, p.group))
		if refreshed, err := s.store.GetByID(ctx, item.ID); err == nil && refreshed != nil {
			item.AssignedName = refreshed.AssignedName
		}
	}

	s.notify(*item)
	logging.WithContext(ctx, s.logger).Debug("item placed",
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldGroup, p.group),
		logging.String("previous_group", previousGroup),
		logging.String("name", item.AssignedName),
		logging.String("status", string(p.status)),
	)
	return report, nil
}

// resequence runs a pass for group under tx and reports its outcome.
func (s *Service) resequence(ctx context.Context, tx *naming.Tx, group string) naming.Report {
	report, err := tx.ResequenceGroup(group)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "resequence skipped", "resequence_failed",
			logging.String(logging.FieldGroup, group),
			logging.Error(err),
			logging.String(logging.FieldImpact, "group names unchanged until the next resequence"),
		)
		report.Failures = append(report.Failures, naming.Failure{Err: err})
		return report
	}
	s.reportFailures(ctx, report)
	s.notifyRenamed(ctx, report)
	return report
}

// earlierMembers returns the members of group captured before item.
func (s *Service) earlierMembers(ctx context.Context, group string, item items.Item) ([]items.Item, error) {
	members, err := s.store.ListByGroup(ctx, group)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "list group", group, err)
	}
	out := make([]items.Item, 0, len(members))
	for _, member := range members {
		if member.ID == item.ID || !items.CapturedBefore(*member, item) {
			continue
		}
		out = append(out, *member)
	}
	return out, nil
}
