package grouping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"samplesort/internal/broadcast"
	"samplesort/internal/codes"
	"samplesort/internal/config"
	"samplesort/internal/items"
	"samplesort/internal/logging"
	"samplesort/internal/matcher"
	"samplesort/internal/naming"
	"samplesort/internal/notifications"
	"samplesort/internal/services"
)

const component = "grouping"

// Notifier receives a delta for every observable item change.
type Notifier interface {
	Notify(delta broadcast.Delta)
}

type noopNotifier struct{}

func (noopNotifier) Notify(broadcast.Delta) {}

// Option customizes a Service.
type Option func(*Service)

// WithNotifier routes deltas to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithNotifications publishes sweep summaries and naming failures.
func WithNotifications(n notifications.Service) Option {
	return func(s *Service) {
		if n != nil {
			s.notifications = n
		}
	}
}

// WithStrategies overrides the strict and weighted strategies.
func WithStrategies(strict, weighted matcher.Strategy) Option {
	return func(s *Service) {
		if strict != nil {
			s.strict = strict
		}
		if weighted != nil {
			s.weighted = weighted
		}
	}
}

// Service coordinates grouping state changes.
type Service struct {
	store         *items.Store
	alloc         *naming.Allocator
	codes         *codes.Validator
	policy        matcher.Policy
	strict        matcher.Strategy
	weighted      matcher.Strategy
	notifier      Notifier
	notifications notifications.Service
	logger        *slog.Logger

	maxRounds      int
	concurrency    int
	matchOnExtract bool

	sweepMu     sync.Mutex
	sweepCtx    context.Context
	sweepCancel context.CancelFunc
}

// NewService builds the grouping service from configuration.
func NewService(cfg *config.Config, store *items.Store, alloc *naming.Allocator, logger *slog.Logger, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "config is nil", nil)
	}
	if store == nil || alloc == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "store and allocator are required", nil)
	}
	validator, err := codes.NewFromConfig(cfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "compile code patterns", err)
	}
	policy := matcher.PolicyFromConfig(cfg)
	s := &Service{
		store:          store,
		alloc:          alloc,
		codes:          validator,
		policy:         policy,
		strict:         matcher.NewStrictStrategy(policy),
		weighted:       matcher.NewWeightedStrategy(policy),
		notifier:       noopNotifier{},
		notifications:  notifications.NewService(nil),
		logger:         logging.NewComponentLogger(logger, component),
		maxRounds:      cfg.Grouping.MaxRounds,
		concurrency:    cfg.Grouping.SweepConcurrency,
		matchOnExtract: cfg.Grouping.MatchOnExtract,
	}
	if s.maxRounds <= 0 {
		s.maxRounds = 1
	}
	if s.concurrency <= 0 {
		s.concurrency = 1
	}
	s.sweepCtx, s.sweepCancel = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Policy returns the matcher policy in effect.
func (s *Service) Policy() matcher.Policy {
	return s.policy
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id string) (*items.Item, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "get", "load item", err)
	}
	if item == nil {
		return nil, services.Wrap(services.ErrNotFound, component, "get", fmt.Sprintf("item %s", id), nil)
	}
	return item, nil
}

// List returns items filtered by status in capture order.
func (s *Service) List(ctx context.Context, statuses ...items.Status) ([]*items.Item, error) {
	list, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "list", "load items", err)
	}
	return list, nil
}

// Groups summarizes every group.
func (s *Service) Groups(ctx context.Context) ([]items.GroupSummary, error) {
	groups, err := s.store.Groups(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "groups", "summarize groups", err)
	}
	return groups, nil
}

// CancelSweeps stops every sweep currently running. Later sweeps are
// unaffected.
func (s *Service) CancelSweeps() {
	s.sweepMu.Lock()
	defer s.sweepMu.Unlock()
	s.sweepCancel()
	s.sweepCtx, s.sweepCancel = context.WithCancel(context.Background())
}

// sweepContext derives a context cancelled by either ctx or CancelSweeps.
func (s *Service) sweepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	s.sweepMu.Lock()
	generation := s.sweepCtx
	s.sweepMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(generation, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (s *Service) notify(item items.Item) {
	s.notifier.Notify(broadcast.ItemDelta(item))
}

// notifyRenamed pushes the current state of every item a resequencing pass
// renamed.
func (s *Service) notifyRenamed(ctx context.Context, report naming.Report) {
	for _, rename := range report.Renamed {
		item, err := s.store.GetByID(ctx, rename.ItemID)
		if err != nil || item == nil {
			continue
		}
		s.notify(*item)
	}
}

func (s *Service) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := s.notifications.Publish(ctx, event, payload); err != nil {
		s.logger.Debug("notification not delivered",
			logging.String("event", string(event)),
			logging.Error(err),
		)
	}
}

// reportFailures logs and publishes the partial failures of a resequencing
// pass. They never fail the triggering operation.
func (s *Service) reportFailures(ctx context.Context, report naming.Report) {
	if report.OK() {
		return
	}
	exhausted := false
	for _, failure := range report.Failures {
		if errors.Is(failure.Err, naming.ErrAllocationExhausted) {
			exhausted = true
		}
	}
	logging.WarnWithContext(logging.WithContext(ctx, s.logger), "resequence incomplete", "resequence_partial",
		logging.String(logging.FieldGroup, report.Group),
		logging.Int("failures", len(report.Failures)),
		logging.Error(report.Err()),
		logging.String(logging.FieldImpact, "some names are stale until the group is resequenced again"),
	)
	if exhausted {
		s.publish(ctx, notifications.EventAllocationFailed, notifications.Payload{"group": report.Group, "error": report.Err()})
		return
	}
	s.publish(ctx, notifications.EventResequenceFailed, notifications.Payload{"group": report.Group, "failures": len(report.Failures)})
}
