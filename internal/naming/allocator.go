package naming

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"samplesort/internal/config"
	"samplesort/internal/items"
	"samplesort/internal/logging"
	"samplesort/internal/textutil"
)

// ErrAllocationExhausted reports that the collision counter reached its cap.
// It indicates a broken pool invariant, not a normal condition.
var ErrAllocationExhausted = errors.New("name allocation exhausted")

const defaultMaxSuffix = 10000

// Persister is the slice of the item store the allocator reads and writes.
type Persister interface {
	List(ctx context.Context, statuses ...items.Status) ([]*items.Item, error)
	ListByGroup(ctx context.Context, group string) ([]*items.Item, error)
	UpdateName(ctx context.Context, id, name string) error
}

// Options tunes name construction.
type Options struct {
	Placeholder string
	MaxSuffix   int
}

// Allocator assigns collision-free names and keeps the name index.
type Allocator struct {
	mu     sync.Mutex
	store  Persister
	opts   Options
	logger *slog.Logger
	byName map[string]string
	byItem map[string]string
	// stale holds stored names whose rewrite failed, keyed by name. They stay
	// reserved for their item until a later write for it succeeds.
	stale map[string]string
}

// New constructs an allocator with an empty index. Call Rebuild to load the
// names already persisted.
func New(store Persister, opts Options, logger *slog.Logger) *Allocator {
	if strings.TrimSpace(opts.Placeholder) == "" {
		opts.Placeholder = textutil.DefaultPlaceholder
	}
	if opts.MaxSuffix <= 1 {
		opts.MaxSuffix = defaultMaxSuffix
	}
	return &Allocator{
		store:  store,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "naming"),
		byName: make(map[string]string),
		byItem: make(map[string]string),
		stale:  make(map[string]string),
	}
}

// NewFromConfig builds an allocator from the [naming] section.
func NewFromConfig(cfg *config.Config, store Persister, logger *slog.Logger) *Allocator {
	opts := Options{}
	if cfg != nil {
		opts.Placeholder = cfg.Naming.Placeholder
		opts.MaxSuffix = cfg.Naming.MaxSuffix
	}
	return New(store, opts, logger)
}

// Tx exposes allocation operations to a caller already holding the lock.
type Tx struct {
	ctx context.Context
	a   *Allocator
}

// Do runs fn while holding the allocation lock.
func (a *Allocator) Do(ctx context.Context, fn func(tx *Tx) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fn(&Tx{ctx: ctx, a: a})
}

// AssignName computes and records the name for item joining group. See
// Tx.AssignName.
func (a *Allocator) AssignName(ctx context.Context, group string, item *items.Item, others []items.Item) (string, error) {
	var name string
	err := a.Do(ctx, func(tx *Tx) error {
		var err error
		name, err = tx.AssignName(group, item, others)
		return err
	})
	return name, err
}

// ResequenceGroup recomputes the names of every member of group. See
// Tx.ResequenceGroup.
func (a *Allocator) ResequenceGroup(ctx context.Context, group string) (Report, error) {
	var report Report
	err := a.Do(ctx, func(tx *Tx) error {
		var err error
		report, err = tx.ResequenceGroup(group)
		return err
	})
	return report, err
}

// Release drops whatever name the item holds from the index.
func (a *Allocator) Release(itemID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.release(itemID)
}

// Lookup returns the item holding name, including a stale stored name.
func (a *Allocator) Lookup(name string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.byName[name]; ok {
		return id, true
	}
	id, ok := a.stale[name]
	return id, ok
}

// Len returns the number of indexed names.
func (a *Allocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.byName)
}

// Reset empties the index, e.g. after the pool was cleared.
func (a *Allocator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

func (a *Allocator) reset() {
	a.byName = make(map[string]string)
	a.byItem = make(map[string]string)
	a.stale = make(map[string]string)
}

// Rebuild reloads the index from persisted names. When two items claim the
// same name the earlier capture keeps it in the index; the count of such
// conflicts is returned so callers can schedule a resequence.
func (a *Allocator) Rebuild(ctx context.Context) (int, error) {
	all, err := a.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("load items: %w", err)
	}
	sort.SliceStable(all, func(i, j int) bool { return items.CapturedBefore(*all[i], *all[j]) })

	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
	conflicts := 0
	for _, item := range all {
		if item.AssignedName == "" {
			continue
		}
		if holder, taken := a.byName[item.AssignedName]; taken {
			conflicts++
			logging.WarnWithContext(a.logger, "duplicate assigned name in store", "name_conflict",
				logging.String("name", item.AssignedName),
				logging.String(logging.FieldItemID, item.ID),
				logging.String("holder_id", holder),
				logging.String(logging.FieldImpact, "item will be renamed on next resequence"),
			)
			continue
		}
		a.claim(item.AssignedName, item.ID)
	}
	a.logger.Debug("name index rebuilt", logging.Int("names", len(a.byName)), logging.Int("conflicts", conflicts))
	return conflicts, nil
}

func (a *Allocator) claim(name, itemID string) {
	a.release(itemID)
	if name == "" {
		return
	}
	a.byName[name] = itemID
	a.byItem[itemID] = name
}

func (a *Allocator) release(itemID string) {
	if name, ok := a.byItem[itemID]; ok {
		if a.byName[name] == itemID {
			delete(a.byName, name)
		}
		delete(a.byItem, itemID)
	}
}

func (a *Allocator) available(name, itemID string) bool {
	if holder, taken := a.byName[name]; taken && holder != itemID {
		return false
	}
	holder, held := a.stale[name]
	return !held || holder == itemID
}

// holdStale keeps name reserved for itemID while the store still carries it.
func (a *Allocator) holdStale(name, itemID string) {
	if name == "" {
		return
	}
	a.settle(itemID)
	a.stale[name] = itemID
}

// settle drops the stale name held for itemID.
func (a *Allocator) settle(itemID string) {
	for name, holder := range a.stale {
		if holder == itemID {
			delete(a.stale, name)
		}
	}
}

// AssignName computes the name for item joining group given the group's
// other members in capture order, records it in the index, and sets
// item.AssignedName. The caller persists the name together with the group.
func (tx *Tx) AssignName(group string, item *items.Item, others []items.Item) (string, error) {
	if item == nil {
		return "", errors.New("item is nil")
	}
	name, err := tx.a.candidate(group, item, others)
	if err != nil {
		return "", err
	}
	tx.a.claim(name, item.ID)
	item.AssignedName = name
	return name, nil
}

// Release drops the item's name from the index, along with any stale name
// held for it.
func (tx *Tx) Release(itemID string) {
	tx.a.release(itemID)
	tx.a.settle(itemID)
}

// Stored records that the item's claimed name is now the stored one.
func (tx *Tx) Stored(itemID string) {
	tx.a.settle(itemID)
}

// Claim records name for itemID when no other item holds it, e.g. to put a
// stored name back after a failed write. It reports whether the claim held.
func (tx *Tx) Claim(name, itemID string) bool {
	if name == "" || !tx.a.available(name, itemID) {
		return false
	}
	tx.a.claim(name, itemID)
	return true
}

// Reset empties the index.
func (tx *Tx) Reset() {
	tx.a.reset()
}

func (a *Allocator) candidate(group string, item *items.Item, others []items.Item) (string, error) {
	ext := textutil.FileExtension(item.Origin)
	base := textutil.SanitizeGroupToken(group, a.opts.Placeholder)

	name := base + ext
	if len(others) > 0 && anyCode(others) {
		name = base + "_" + strconv.Itoa(len(others)+1) + ext
	}
	if a.available(name, item.ID) {
		return name, nil
	}
	for counter := 2; counter <= a.opts.MaxSuffix; counter++ {
		next := base + "_" + strconv.Itoa(counter) + ext
		if a.available(next, item.ID) {
			return next, nil
		}
	}
	return "", fmt.Errorf("%w: group %q after %d attempts", ErrAllocationExhausted, group, a.opts.MaxSuffix-1)
}

func anyCode(list []items.Item) bool {
	for _, item := range list {
		if item.HasCode() {
			return true
		}
	}
	return false
}
