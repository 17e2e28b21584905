package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"samplesort/internal/api"
	"samplesort/internal/client"
	"samplesort/internal/items"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status, or local database counts when no daemon runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			c, err := client.New(cfg.Paths.APIBind, cfg.Paths.APIToken)
			if err != nil {
				return fmt.Errorf("api address: %w", err)
			}
			status, err := c.Status(cmd.Context())
			if err != nil && !client.IsUnavailable(err) {
				return err
			}
			if err != nil {
				status, err = localStatus(cmd, ctx)
				if err != nil {
					return err
				}
			}
			return ctx.emit(cmd, status, func() {
				renderStatus(cmd, status)
			})
		},
	}
}

func localStatus(cmd *cobra.Command, ctx *commandContext) (api.StatusResponse, error) {
	status := api.StatusResponse{Stats: map[string]int{}}
	err := ctx.withStore(func(store *items.Store) error {
		stats, err := store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		for key, count := range stats {
			status.Stats[string(key)] = count
		}
		status.DatabasePath = store.Path()
		return nil
	})
	return status, err
}

func renderStatus(cmd *cobra.Command, status api.StatusResponse) {
	out := cmd.OutOrStdout()
	if status.Running {
		fmt.Fprintf(out, "Daemon:     running (pid %d)\n", status.PID)
		fmt.Fprintf(out, "API:        %s\n", status.APIAddress)
		fmt.Fprintf(out, "Observers:  %d\n", status.Observers)
		fmt.Fprintf(out, "Names:      %d indexed\n", status.IndexedNames)
	} else {
		fmt.Fprintln(out, "Daemon:     not running")
	}
	fmt.Fprintf(out, "Database:   %s\n", status.DatabasePath)
	keys := make([]string, 0, len(status.Stats))
	for key := range status.Stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(out, "  %-15s %d\n", key, status.Stats[key])
	}
}
