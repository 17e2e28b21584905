package grouping

import (
	"context"
	"fmt"
	"strings"
	"time"

	"samplesort/internal/color"
	"samplesort/internal/codes"
	"samplesort/internal/items"
	"samplesort/internal/logging"
	"samplesort/internal/matcher"
	"samplesort/internal/naming"
	"samplesort/internal/services"
)

// Extraction is the evidence the extraction collaborator reports for an item.
type Extraction struct {
	Code        string
	Description string
	Colors      []color.Sample
}

// Result describes the state an operation left an item in.
type Result struct {
	Item          items.Item
	PreviousGroup string
	Match         *matcher.Match
	Report        naming.Report
}

// Ingest registers a newly photographed item. A zero capture time means now.
func (s *Service) Ingest(ctx context.Context, origin string, capturedAt time.Time) (*items.Item, error) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return nil, services.Wrap(services.ErrValidation, component, "ingest", "origin is required", nil)
	}
	item := &items.Item{
		Origin:     origin,
		CapturedAt: capturedAt,
		Status:     items.StatusUnprocessed,
	}
	if err := s.store.Insert(ctx, item); err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "ingest", "insert item", err)
	}
	s.notify(*item)
	logging.WithContext(ctx, s.logger).Info("item ingested",
		logging.String(logging.FieldItemID, item.ID),
		logging.String("origin", origin),
		logging.String("captured_at", item.CapturedAt.Format(time.RFC3339Nano)),
	)
	return item, nil
}

// MarkExtracting records that the extraction collaborator picked the item up.
func (s *Service) MarkExtracting(ctx context.Context, id string) (*items.Item, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Status = items.StatusExtracting
	item.StatusReason = ""
	if err := s.store.Update(ctx, item); err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "mark extracting", id, err)
	}
	s.notify(*item)
	return item, nil
}

// OnExtractionResult stores extraction evidence. A valid code becomes the
// item's group with confidence 1.0 without consulting the matcher. Without
// one the item is left extracted for the next sweep, or is matched at once
// with the weighted strategy when match-on-extract is enabled. An item that
// already carries a group keeps it.
func (s *Service) OnExtractionResult(ctx context.Context, id string, ex Extraction) (Result, error) {
	ctx = services.WithItemID(ctx, id)
	log := logging.WithContext(ctx, s.logger)

	code := codes.Normalize(ex.Code)
	if code != "" && !s.codes.Valid(code) {
		log.Info("discarding malformed code",
			logging.Decision("code_validation", "rejected", "no code rule matched", logging.String("code", code))...,
		)
		code = ""
	}

	var result Result
	err := s.alloc.Do(ctx, func(tx *naming.Tx) error {
		item, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		result.PreviousGroup = item.Group
		item.Code = code
		item.Description = strings.TrimSpace(ex.Description)
		item.Colors = ex.Colors

		if code != "" {
			if err := s.saveEvidence(ctx, item); err != nil {
				return err
			}
			report, err := s.place(ctx, tx, item, placement{
				group:      code,
				confidence: 1,
				status:     items.StatusMatched,
				reason:     "code " + code + " extracted",
			})
			result.Item = *item
			result.Report = report
			if err == nil {
				log.Info("grouped by code",
					logging.String(logging.FieldGroup, code),
					logging.String("name", item.AssignedName),
				)
			}
			return err
		}

		if item.IsGrouped() {
			// Evidence changed but the group stands; a lost code may change names.
			if err := s.saveEvidence(ctx, item); err != nil {
				return err
			}
			result.Report = s.resequence(ctx, tx, item.Group)
			if refreshed, err := s.store.GetByID(ctx, item.ID); err == nil && refreshed != nil {
				item = refreshed
			}
			result.Item = *item
			s.notify(*item)
			return nil
		}

		item.Status = items.StatusExtracted
		item.StatusReason = "no valid code"
		if err := s.saveEvidence(ctx, item); err != nil {
			return err
		}
		result.Item = *item
		s.notify(*item)
		return nil
	})
	if err != nil {
		return result, err
	}

	if s.matchOnExtract && !result.Item.IsGrouped() {
		return s.matchNow(ctx, result)
	}
	return result, nil
}

func (s *Service) saveEvidence(ctx context.Context, item *items.Item) error {
	if err := s.store.Update(ctx, item); err != nil {
		return services.Wrap(services.ErrPersistence, component, "save evidence", item.ID, err)
	}
	return nil
}

// matchNow runs the weighted strategy for a single freshly extracted item.
// The item is marked matching while the strategy runs.
func (s *Service) matchNow(ctx context.Context, result Result) (Result, error) {
	ctx = services.WithStrategy(ctx, s.weighted.Name())
	claimed, err := s.transition(ctx, []string{result.Item.ID}, []items.Status{items.StatusExtracted},
		items.StatusMatching, "matching with "+s.weighted.Name()+" strategy")
	if err != nil {
		return result, err
	}
	if len(claimed) == 0 {
		return result, nil
	}
	target := claimed[0]
	result.Item = target

	grouped, err := s.store.ListGrouped(ctx)
	if err != nil {
		s.release(ctx, claimed, items.StatusExtracted, "no valid code")
		return result, services.Wrap(services.ErrPersistence, component, "match", "load grouped items", err)
	}
	pool := matcher.NewPool(derefAll(grouped))
	match, ok := s.weighted.FindGroup(target, pool.Around(target.CapturedAt, s.policy.Window))

	err = s.alloc.Do(ctx, func(tx *naming.Tx) error {
		item, err := s.Get(ctx, target.ID)
		if err != nil {
			return err
		}
		if item.IsGrouped() || item.Status != items.StatusMatching {
			result.Item = *item
			return nil
		}
		if !ok {
			item.Status = items.StatusUnmatched
			item.StatusReason = fmt.Sprintf("no %s match within %s", s.weighted.Name(), s.policy.Window)
			if err := s.saveEvidence(ctx, item); err != nil {
				return err
			}
			result.Item = *item
			s.notify(*item)
			return nil
		}
		report, err := s.place(ctx, tx, item, placement{
			group:      match.Group,
			confidence: match.Confidence,
			status:     items.StatusMatched,
			reason:     match.Reason,
		})
		result.Item = *item
		result.Report = report
		result.Match = &match
		return err
	})
	if err != nil {
		s.release(ctx, claimed, items.StatusExtracted, "no valid code")
		return result, err
	}
	s.logDecision(ctx, result.Item, result.Match)
	return result, nil
}

func (s *Service) logDecision(ctx context.Context, item items.Item, match *matcher.Match) {
	log := logging.WithContext(ctx, s.logger)
	if match == nil {
		log.Debug("no match",
			logging.Decision("group_inference", "none", item.StatusReason,
				logging.String(logging.FieldItemID, item.ID))...,
		)
		return
	}
	log.Info("group inferred",
		logging.Decision("group_inference", match.Group, match.Reason,
			logging.String(logging.FieldItemID, item.ID),
			logging.String("source_id", match.SourceID),
			logging.Confidence(match.Confidence),
			logging.String("name", item.AssignedName),
		)...,
	)
}

func derefAll(list []*items.Item) []items.Item {
	out := make([]items.Item, 0, len(list))
	for _, item := range list {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}
