package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"samplesort/internal/items"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the item database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *items.Store) error {
				health, err := store.CheckHealth(cmd.Context())
				if err != nil {
					return err
				}
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{"health": health, "stats": stats})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database:        %s\n", health.DBPath)
				fmt.Fprintf(out, "Readable:        %s\n", yesNo(health.DatabaseReadable))
				fmt.Fprintf(out, "Schema version:  %d\n", health.SchemaVersion)
				fmt.Fprintf(out, "Integrity:       %s\n", yesNo(health.IntegrityCheck))
				fmt.Fprintf(out, "Items:           %d\n", health.TotalItems)
				fmt.Fprintf(out, "Duplicate names: %d\n", health.DuplicateNames)
				if len(health.MissingColumns) > 0 {
					fmt.Fprintf(out, "Missing columns: %s\n", strings.Join(health.MissingColumns, ", "))
				}
				for _, status := range items.AllStatuses() {
					if count := stats[status]; count > 0 {
						fmt.Fprintf(out, "  %-15s %d\n", status, count)
					}
				}
				if health.Error != "" {
					return fmt.Errorf("database unhealthy: %s", health.Error)
				}
				return nil
			})
		},
	}
}
