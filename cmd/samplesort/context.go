package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"samplesort/internal/config"
	"samplesort/internal/grouping"
	"samplesort/internal/items"
	"samplesort/internal/logging"
	"samplesort/internal/naming"
)

var errDaemonRunning = errors.New("a samplesort daemon is running; use its HTTP API for changes")

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) logger() *slog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil {
		return logging.NewNop()
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// withStore opens the item database for a read-only command.
func (c *commandContext) withStore(fn func(*items.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := items.Open(cfg)
	if err != nil {
		return fmt.Errorf("open item store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

// withService runs fn against a grouping service backed by the local
// database. The daemon lock is held for the duration so a daemon cannot start
// with a stale name index underneath the command.
func (c *commandContext) withService(cmd *cobra.Command, fn func(context.Context, *grouping.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errDaemonRunning
	}
	defer lock.Unlock() //nolint:errcheck

	logger := c.logger()
	store, err := items.Open(cfg)
	if err != nil {
		return fmt.Errorf("open item store: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	alloc := naming.NewFromConfig(cfg, store, logger)
	conflicts, err := alloc.Rebuild(ctx)
	if err != nil {
		return fmt.Errorf("rebuild name index: %w", err)
	}
	svc, err := grouping.NewService(cfg, store, alloc, logger)
	if err != nil {
		return err
	}
	if conflicts > 0 {
		if _, err := svc.ResequenceAll(ctx); err != nil {
			return fmt.Errorf("repair duplicate names: %w", err)
		}
	}
	return fn(ctx, svc)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
