package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"samplesort/internal/daemon"
	"samplesort/internal/items"
	"samplesort/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon with the HTTP API and observer hub",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := items.Open(cfg)
			if err != nil {
				return fmt.Errorf("open item store: %w", err)
			}
			d, err := daemon.New(cfg, store, logger)
			if err != nil {
				store.Close()
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			if err := d.Start(runCtx); err != nil {
				return err
			}
			status := d.Status(runCtx)
			fmt.Fprintf(cmd.OutOrStdout(), "samplesort listening on %s (database %s)\n", status.APIAddress, status.DatabasePath)

			<-runCtx.Done()
			logger.Info("samplesort shutting down")
			return nil
		},
	}
}

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification using the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Notifications.NtfyTopic == "" {
				return fmt.Errorf("notifications.ntfy_topic is not configured")
			}
			return ctx.withStore(func(store *items.Store) error {
				d, err := daemon.New(cfg, store, logging.NewNop())
				if err != nil {
					return err
				}
				if err := d.TestNotification(cmd.Context()); err != nil {
					return fmt.Errorf("send test notification: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
				return nil
			})
		},
	}
}
