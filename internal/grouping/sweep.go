package grouping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"samplesort/internal/items"
	"samplesort/internal/logging"
	"samplesort/internal/matcher"
	"samplesort/internal/naming"
	"samplesort/internal/notifications"
	"samplesort/internal/services"
)

// Applied is one match a sweep wrote.
type Applied struct {
	ItemID     string
	Group      string
	Name       string
	Confidence float64
	Reason     string
	Round      int
}

// SweepReport summarizes one sweep.
type SweepReport struct {
	Strategy   string
	Rounds     int
	Considered int
	Grouped    int
	Remaining  int
	Applied    []Applied
	Cancelled  bool
	Duration   time.Duration
}

type sweepSpec struct {
	strategy matcher.Strategy
	// statuses are the entry statuses of a target.
	statuses []items.Status
	// queued is where targets wait between rounds, with queuedReason.
	queued       items.Status
	queuedReason string
	// missStatus, when set, is written to targets still ungrouped at the end.
	missStatus items.Status
}

// AutoGroup runs the weighted strategy over fresh ungrouped items. Targets
// move to pending_match when queued and to matching while a round scores
// them. Targets that stay ungrouped are marked unmatched so InferUngrouped
// can revisit them.
func (s *Service) AutoGroup(ctx context.Context) (SweepReport, error) {
	return s.sweep(ctx, sweepSpec{
		strategy:     s.weighted,
		statuses:     []items.Status{items.StatusExtracted, items.StatusPendingMatch},
		queued:       items.StatusPendingMatch,
		queuedReason: "queued for " + s.weighted.Name() + " sweep",
		missStatus:   items.StatusUnmatched,
	})
}

// InferUngrouped runs the strict strategy over unmatched items.
func (s *Service) InferUngrouped(ctx context.Context) (SweepReport, error) {
	return s.sweep(ctx, sweepSpec{
		strategy:     s.strict,
		statuses:     []items.Status{items.StatusUnmatched},
		queued:       items.StatusUnmatched,
		queuedReason: fmt.Sprintf("no %s match within %s", s.strict.Name(), s.policy.Window),
	})
}

func (s *Service) sweep(ctx context.Context, spec sweepSpec) (SweepReport, error) {
	started := time.Now()
	report := SweepReport{Strategy: spec.strategy.Name()}
	ctx, cancel := s.sweepContext(ctx)
	defer cancel()
	ctx = services.WithStrategy(ctx, spec.strategy.Name())
	log := logging.WithContext(ctx, s.logger)

	var claimed []items.Item
	defer func() {
		s.release(ctx, claimed, spec.queued, spec.queuedReason)
	}()

	finish := func(err error) (SweepReport, error) {
		report.Duration = time.Since(started)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			report.Cancelled = true
			log.Info("sweep cancelled",
				logging.Int("rounds", report.Rounds),
				logging.Int("grouped", report.Grouped),
			)
			return report, err
		}
		if err != nil {
			logging.ErrorWithContext(log, "sweep failed", "sweep_failed", logging.Error(err))
			s.publish(ctx, notifications.EventError, notifications.Payload{"context": spec.strategy.Name() + " sweep", "error": err})
			return report, err
		}
		log.Info("sweep completed",
			logging.Int("rounds", report.Rounds),
			logging.Int("considered", report.Considered),
			logging.Int("grouped", report.Grouped),
			logging.Int("remaining", report.Remaining),
			logging.Duration("duration", report.Duration),
		)
		s.publish(ctx, notifications.EventSweepCompleted, notifications.Payload{
			"strategy":  report.Strategy,
			"grouped":   report.Grouped,
			"rounds":    report.Rounds,
			"remaining": report.Remaining,
		})
		return report, nil
	}

	fresh, err := s.sweepTargets(ctx, spec.statuses)
	if err != nil {
		return finish(err)
	}
	report.Considered = len(fresh)
	if _, err := s.transition(ctx, idsOf(fresh), spec.statuses, spec.queued, spec.queuedReason); err != nil {
		return finish(err)
	}

	queued := []items.Status{spec.queued}
	matchingReason := "matching with " + spec.strategy.Name() + " strategy"
	for round := 1; round <= s.maxRounds; round++ {
		waiting, err := s.sweepTargets(ctx, queued)
		if err != nil {
			return finish(err)
		}
		if len(waiting) == 0 {
			break
		}
		claimed, err = s.transition(ctx, idsOf(waiting), queued, items.StatusMatching, matchingReason)
		if err != nil {
			return finish(err)
		}
		if len(claimed) == 0 {
			break
		}
		report.Rounds = round

		matches, err := s.scoreRound(ctx, spec.strategy, claimed)
		if err != nil {
			return finish(err)
		}
		applied := 0
		for i, match := range matches {
			if match == nil {
				continue
			}
			if err := ctx.Err(); err != nil {
				return finish(err)
			}
			ok, err := s.applyMatch(ctx, claimed[i].ID, *match, round, &report)
			if err != nil {
				return finish(err)
			}
			if ok {
				applied++
			}
		}
		// Unmatched targets wait for the next round.
		s.release(ctx, claimed, spec.queued, spec.queuedReason)
		claimed = nil
		if applied == 0 {
			break
		}
	}

	remaining, err := s.sweepTargets(ctx, queued)
	if err != nil {
		return finish(err)
	}
	report.Remaining = len(remaining)
	if spec.missStatus != "" && len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		reason := fmt.Sprintf("no %s match within %s", spec.strategy.Name(), s.policy.Window)
		if _, err := s.transition(ctx, idsOf(remaining), queued, spec.missStatus, reason); err != nil {
			return finish(err)
		}
	}
	return finish(nil)
}

// sweepTargets lists the ungrouped items in statuses, in capture order.
func (s *Service) sweepTargets(ctx context.Context, statuses []items.Status) ([]items.Item, error) {
	list, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "sweep", "load targets", err)
	}
	out := make([]items.Item, 0, len(list))
	for _, item := range list {
		if !item.IsGrouped() {
			out = append(out, *item)
		}
	}
	return out, nil
}

// scoreRound evaluates every target concurrently against one snapshot of
// the grouped items.
func (s *Service) scoreRound(ctx context.Context, strategy matcher.Strategy, targets []items.Item) ([]*matcher.Match, error) {
	grouped, err := s.store.ListGrouped(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "sweep", "load grouped items", err)
	}
	pool := matcher.NewPool(derefAll(grouped))
	matches := make([]*matcher.Match, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range targets {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			target := targets[i]
			if match, ok := strategy.FindGroup(target, pool.Around(target.CapturedAt, s.policy.Window)); ok {
				matches[i] = &match
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

// applyMatch writes one accepted match after confirming under the lock that
// the target is still ungrouped and matching.
func (s *Service) applyMatch(ctx context.Context, id string, match matcher.Match, round int, report *SweepReport) (bool, error) {
	ctx = services.WithItemID(ctx, id)
	applied := false
	var placed items.Item
	err := s.alloc.Do(ctx, func(tx *naming.Tx) error {
		item, err := s.store.GetByID(ctx, id)
		if err != nil {
			return services.Wrap(services.ErrPersistence, component, "sweep", "reload target", err)
		}
		if item == nil || item.IsGrouped() || item.Status != items.StatusMatching {
			return nil
		}
		if _, err := s.place(ctx, tx, item, placement{
			group:      match.Group,
			confidence: match.Confidence,
			status:     items.StatusMatched,
			reason:     match.Reason,
		}); err != nil {
			return err
		}
		applied = true
		placed = *item
		return nil
	})
	if err != nil {
		if errors.Is(err, services.ErrConflict) {
			// Allocation exhausted for this target only; the sweep goes on.
			logging.ErrorWithContext(logging.WithContext(ctx, s.logger), "match not applied", "allocation_failed",
				logging.String(logging.FieldGroup, match.Group),
				logging.Error(err),
			)
			s.publish(ctx, notifications.EventAllocationFailed, notifications.Payload{"group": match.Group, "error": err})
			return false, nil
		}
		return false, err
	}
	if !applied {
		return false, nil
	}
	report.Grouped++
	report.Applied = append(report.Applied, Applied{
		ItemID:     placed.ID,
		Group:      placed.Group,
		Name:       placed.AssignedName,
		Confidence: placed.GroupConfidence,
		Reason:     match.Reason,
		Round:      round,
	})
	s.logDecision(ctx, placed, &match)
	return true, nil
}
