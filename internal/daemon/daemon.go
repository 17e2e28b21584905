package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"samplesort/internal/api"
	"samplesort/internal/broadcast"
	"samplesort/internal/config"
	"samplesort/internal/grouping"
	"samplesort/internal/items"
	"samplesort/internal/logging"
	"samplesort/internal/naming"
	"samplesort/internal/notifications"
)

// Daemon owns the grouping service and its transports.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *items.Store
	alloc  *naming.Allocator
	svc    *grouping.Service
	hub    *broadcast.Hub
	notify notifications.Service

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	APIAddress   string
	Observers    int
	IndexedNames int
	Stats        map[items.Status]int
}

// New constructs a daemon and the services it coordinates.
func New(cfg *config.Config, store *items.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	notify := notifications.NewService(cfg)
	hub := broadcast.NewHub(logger)
	alloc := naming.NewFromConfig(cfg, store, logger)
	svc, err := grouping.NewService(cfg, store, alloc, logger,
		grouping.WithNotifier(hub),
		grouping.WithNotifications(notify),
	)
	if err != nil {
		return nil, err
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		alloc:    alloc,
		svc:      svc,
		hub:      hub,
		notify:   notify,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, svc, hub, logger)
	d.api.status = d.apiStatus
	return d, nil
}

// Service exposes the grouping service.
func (d *Daemon) Service() *grouping.Service {
	return d.svc
}

// Start acquires the lock, rebuilds the name index, requeues items an
// earlier run left matching, and starts the hub, the API server and the
// auto-group schedule.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another samplesort daemon instance is already running")
	}

	conflicts, err := d.alloc.Rebuild(ctx)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("rebuild name index: %w", err)
	}
	if conflicts > 0 {
		report, err := d.svc.ResequenceAll(ctx)
		if err != nil {
			_ = d.lock.Unlock()
			return fmt.Errorf("repair duplicate names: %w", err)
		}
		d.logger.Info("duplicate names repaired",
			logging.Int("conflicts", conflicts),
			logging.Int("renamed", len(report.Renamed)),
		)
	}
	requeued, err := d.svc.RequeueInterrupted(ctx)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("requeue interrupted items: %w", err)
	}
	if requeued > 0 {
		d.logger.Info("interrupted items requeued", logging.Int("items", requeued))
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.hub.Run(runCtx)
	}()
	if interval := d.cfg.AutoGroupInterval(); interval > 0 {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.autoGroupLoop(runCtx, interval)
		}()
	}

	d.running.Store(true)
	d.logger.Info("samplesort daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.api.address()),
		logging.Int("indexed_names", d.alloc.Len()),
	)
	return nil
}

// Stop stops background work and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}
	d.svc.CancelSweeps()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove "+d.lockPath+" if no daemon is running"),
		)
	}
	d.running.Store(false)
	d.logger.Info("samplesort daemon stopped")
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Debug("stats unavailable", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		APIAddress:   d.api.address(),
		Observers:    d.hub.ClientCount(),
		IndexedNames: d.alloc.Len(),
		Stats:        stats,
	}
}

func (d *Daemon) apiStatus(ctx context.Context) api.StatusResponse {
	status := d.Status(ctx)
	stats := make(map[string]int, len(status.Stats))
	for key, count := range status.Stats {
		stats[string(key)] = count
	}
	return api.StatusResponse{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		APIAddress:   status.APIAddress,
		Observers:    status.Observers,
		IndexedNames: status.IndexedNames,
		Stats:        stats,
	}
}

// TestNotification sends a test notification with the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.notify.Publish(ctx, notifications.EventTest, nil)
}

func (d *Daemon) autoGroupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.svc.AutoGroup(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.WarnWithContext(d.logger, "scheduled auto-group failed", "auto_group_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "ungrouped items wait for the next tick"),
				)
			}
		}
	}
}
