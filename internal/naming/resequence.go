package naming

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"samplesort/internal/items"
	"samplesort/internal/logging"
)

// Rename records one name change made by a resequencing pass.
type Rename struct {
	ItemID string
	From   string
	To     string
}

// Failure records a member whose new name could not be computed or stored.
type Failure struct {
	ItemID string
	Name   string
	Err    error
}

// Report is the partial-success result of a resequencing pass.
type Report struct {
	Group     string
	Members   int
	Renamed   []Rename
	Unchanged int
	Failures  []Failure
}

// OK reports whether every member was renamed and persisted.
func (r Report) OK() bool {
	return len(r.Failures) == 0
}

// Err joins the member failures, nil when there are none.
func (r Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, failure := range r.Failures {
		errs = append(errs, fmt.Errorf("item %s: %w", failure.ItemID, failure.Err))
	}
	return errors.Join(errs...)
}

// Merge folds other into r, used when one edit touches two groups.
func (r *Report) Merge(other Report) {
	r.Members += other.Members
	r.Renamed = append(r.Renamed, other.Renamed...)
	r.Unchanged += other.Unchanged
	r.Failures = append(r.Failures, other.Failures...)
}

// ResequenceGroup recomputes the names of every member of group in capture
// order. Each member's name is computed against the earlier members of the
// same pass, so the result is idempotent. A member whose name cannot be
// stored is recorded in the report and the pass continues; only a failure to
// load the members is returned as an error.
func (tx *Tx) ResequenceGroup(group string) (Report, error) {
	report := Report{Group: group}
	if strings.TrimSpace(group) == "" {
		return report, nil
	}
	if err := tx.ctx.Err(); err != nil {
		return report, err
	}
	// Once names are released the pass must finish even if the caller gives up.
	ctx := context.WithoutCancel(tx.ctx)

	loaded, err := tx.a.store.ListByGroup(ctx, group)
	if err != nil {
		return report, fmt.Errorf("load group %q: %w", group, err)
	}
	members := make([]items.Item, 0, len(loaded))
	for _, item := range loaded {
		members = append(members, *item)
	}
	sort.SliceStable(members, func(i, j int) bool { return items.CapturedBefore(members[i], members[j]) })
	report.Members = len(members)

	for _, member := range members {
		tx.a.release(member.ID)
	}

	log := logging.WithContext(ctx, tx.a.logger).With(logging.String(logging.FieldGroup, group))
	for i := range members {
		member := &members[i]
		previous := member.AssignedName
		name, err := tx.AssignName(group, member, members[:i])
		if err != nil {
			report.Failures = append(report.Failures, Failure{ItemID: member.ID, Err: err})
			logging.ErrorWithContext(log, "name allocation failed", "name_allocation_failed",
				logging.String(logging.FieldItemID, member.ID),
				logging.Error(err),
			)
			// Keep the previous name claimed so it is not handed to another member.
			if previous != "" && tx.a.available(previous, member.ID) {
				tx.a.claim(previous, member.ID)
			}
			member.AssignedName = previous
			continue
		}
		if name == previous {
			tx.a.settle(member.ID)
			report.Unchanged++
			continue
		}
		if err := tx.a.store.UpdateName(ctx, member.ID, name); err != nil {
			report.Failures = append(report.Failures, Failure{ItemID: member.ID, Name: name, Err: err})
			// The store still carries previous; nobody else may take it.
			if tx.a.available(previous, member.ID) {
				tx.a.holdStale(previous, member.ID)
			}
			logging.WarnWithContext(log, "name update not persisted", "name_persist_failed",
				logging.String(logging.FieldItemID, member.ID),
				logging.String("name", name),
				logging.String("stored_name", previous),
				logging.Error(err),
				logging.String(logging.FieldImpact, "stored name stays stale until the next resequence"),
			)
			continue
		}
		tx.a.settle(member.ID)
		report.Renamed = append(report.Renamed, Rename{ItemID: member.ID, From: previous, To: name})
	}

	if len(report.Renamed) > 0 || len(report.Failures) > 0 {
		log.Info("group resequenced",
			logging.Int("members", report.Members),
			logging.Int("renamed", len(report.Renamed)),
			logging.Int("failures", len(report.Failures)),
		)
	}
	return report, nil
}
