package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"samplesort/internal/api"
	"samplesort/internal/color"
	"samplesort/internal/grouping"
	"samplesort/internal/items"
)

func newItemsCommand(ctx *commandContext) *cobra.Command {
	itemsCmd := &cobra.Command{
		Use:   "items",
		Short: "Inspect and edit photographed items",
	}
	itemsCmd.AddCommand(newItemsListCommand(ctx))
	itemsCmd.AddCommand(newItemsShowCommand(ctx))
	itemsCmd.AddCommand(newItemsAddCommand(ctx))
	itemsCmd.AddCommand(newItemsExtractCommand(ctx))
	itemsCmd.AddCommand(newItemsRetryCommand(ctx))
	itemsCmd.AddCommand(newItemsRemoveCommand(ctx))
	itemsCmd.AddCommand(newItemsClearCommand(ctx))
	return itemsCmd
}

func newItemsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items, optionally filtered by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *items.Store) error {
				list, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, api.ItemListResponse{Items: api.FromItems(list)}, func() {
					renderItems(cmd, list)
				})
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable)")
	return cmd
}

func newItemsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *items.Store) error {
				item, err := resolveItem(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, api.ItemResponse{Item: api.FromItem(item)}, func() {
					renderItemDetail(cmd, *item)
				})
			})
		},
	}
}

func newItemsAddCommand(ctx *commandContext) *cobra.Command {
	var capturedFlag string
	cmd := &cobra.Command{
		Use:   "add <origin>",
		Short: "Register a new photographed item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			capturedAt, err := api.ParseTime(strings.TrimSpace(capturedFlag))
			if err != nil {
				return fmt.Errorf("--captured-at must be RFC3339: %w", err)
			}
			return ctx.withService(cmd, func(c context.Context, svc *grouping.Service) error {
				item, err := svc.Ingest(c, args[0], capturedAt)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, api.ItemResponse{Item: api.FromItem(item)}, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "Added item %s\n", item.ID)
				})
			})
		},
	}
	cmd.Flags().StringVar(&capturedFlag, "captured-at", "", "Capture time in RFC3339 (defaults to now)")
	return cmd
}

func newItemsExtractCommand(ctx *commandContext) *cobra.Command {
	var (
		code        string
		description string
		colorFlags  []string
	)
	cmd := &cobra.Command{
		Use:   "extract <id>",
		Short: "Record extraction evidence for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := parseColorFlags(colorFlags)
			if err != nil {
				return err
			}
			return ctx.withService(cmd, func(c context.Context, svc *grouping.Service) error {
				id, err := resolveServiceID(c, svc, args[0])
				if err != nil {
					return err
				}
				result, err := svc.OnExtractionResult(c, id, grouping.Extraction{
					Code:        code,
					Description: description,
					Colors:      samples,
				})
				if err != nil {
					return err
				}
				return ctx.emit(cmd, api.FromResult(result), func() {
					renderResult(cmd, result)
				})
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "Extracted identifier code")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Extracted description")
	cmd.Flags().StringArrayVar(&colorFlags, "color", nil, "Dominant color as #rrggbb or #rrggbb=name (repeatable)")
	return cmd
}

func newItemsRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Clear an inferred group so the next sweep reconsiders the item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(c context.Context, svc *grouping.Service) error {
				id, err := resolveServiceID(c, svc, args[0])
				if err != nil {
					return err
				}
				result, err := svc.Retry(c, id)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, api.FromResult(result), func() {
					renderResult(cmd, result)
				})
			})
		},
	}
}

func newItemsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an item and resequence its group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(c context.Context, svc *grouping.Service) error {
				id, err := resolveServiceID(c, svc, args[0])
				if err != nil {
					return err
				}
				if err := svc.Remove(c, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed item %s\n", id)
				return nil
			})
		},
	}
}

func newItemsClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every item",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to delete every item without --yes")
			}
			return ctx.withService(cmd, func(c context.Context, svc *grouping.Service) error {
				removed, err := svc.ClearAll(c)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, api.ClearResponse{Removed: removed}, func() {
					fmt.Fprintf(cmd.OutOrStdout(), "Removed %d item(s)\n", removed)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm deletion")
	return cmd
}

func parseStatuses(values []string) ([]items.Status, error) {
	var statuses []items.Status
	for _, value := range values {
		status, ok := items.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func parseColorFlags(values []string) ([]color.Sample, error) {
	samples := make([]color.Sample, 0, len(values))
	for _, value := range values {
		hex, name, _ := strings.Cut(strings.TrimSpace(value), "=")
		if _, err := color.ParseHSL(hex); err != nil {
			return nil, fmt.Errorf("invalid color %q: %w", value, err)
		}
		samples = append(samples, color.Sample{Value: hex, Name: strings.TrimSpace(name)})
	}
	return samples, nil
}

// resolveItem accepts a full ID or a unique prefix such as the short IDs
// printed by list.
func resolveItem(ctx context.Context, store *items.Store, ref string) (*items.Item, error) {
	ref = strings.TrimSpace(ref)
	if item, err := store.GetByID(ctx, ref); err == nil && item != nil {
		return item, nil
	}
	list, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	return matchPrefix(list, ref)
}

func resolveServiceID(ctx context.Context, svc *grouping.Service, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if item, err := svc.Get(ctx, ref); err == nil {
		return item.ID, nil
	}
	list, err := svc.List(ctx)
	if err != nil {
		return "", err
	}
	item, err := matchPrefix(list, ref)
	if err != nil {
		return "", err
	}
	return item.ID, nil
}

func matchPrefix(list []*items.Item, ref string) (*items.Item, error) {
	var found *items.Item
	for _, item := range list {
		if ref == "" || !strings.HasPrefix(item.ID, ref) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("item reference %q is ambiguous", ref)
		}
		found = item
	}
	if found == nil {
		return nil, fmt.Errorf("item %q not found", ref)
	}
	return found, nil
}
