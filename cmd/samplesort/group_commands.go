package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"samplesort/internal/api"
	"samplesort/internal/grouping"
	"samplesort/internal/items"
	"samplesort/internal/naming"
)

func newGroupCommand(ctx *commandContext) *cobra.Command {
	groupCmd := &cobra.Command{
		Use:   "group",
		Short: "Edit group membership and names",
	}
	groupCmd.AddCommand(newGroupSetCommand(ctx))
	groupCmd.AddCommand(newGroupRenameCommand(ctx))
	groupCmd.AddCommand(newGroupResequenceCommand(ctx))
	return groupCmd
}

func newGroupSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <id> [group]",
		Short: "Set an item's group by hand; omit the group to clear it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			group := ""
			if len(args) == 2 {
				group = args[1]
			}
			return ctx.withService(cmd, func(c context.Context, svc *grouping.Service) error {
				id, err := resolveServiceID(c, svc, args[0])
				if err != nil {
					return err
				}
				result, err := svc.OnManualGroupEdit(c, id, group)
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

func newGroupRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <from> <to>",
		Short: "Move every member of a group into another group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(c context.Context, svc *grouping.Service) error {
				result, err := svc.RenameGroup(c, args[0], args[1])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, api.FromRename(result), func() {
					fmt.Fprintf(cmd.OutOrStdout(), "Moved %d item(s) from %s to %s\n", result.Moved, result.From, result.To)
					renderReport(cmd, result.Report)
				})
			})
		},
	}
}

func newGroupResequenceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resequence [group]",
		Short: "Recompute names for one group, or every group when omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(c context.Context, svc *grouping.Service) error {
				var (
					report naming.Report
					err    error
				)
				if len(args) == 1 {
					report, err = svc.ResequenceGroup(c, args[0])
				} else {
					report, err = svc.ResequenceAll(c)
				}
				if err != nil {
					return err
				}
				return ctx.emit(cmd, api.FromReport(report), func() {
					fmt.Fprintf(cmd.OutOrStdout(), "Resequenced %d member(s): %d renamed, %d unchanged\n",
						report.Members, len(report.Renamed), report.Unchanged)
					renderReport(cmd, report)
				})
			})
		},
	}
}

func newGroupsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "groups",
		Short: "List groups with member counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *items.Store) error {
				groups, err := store.Groups(cmd.Context())
				if err != nil {
					return err
				}
				return ctx.emit(cmd, api.GroupListResponse{Groups: api.FromGroups(groups)}, func() {
					renderGroups(cmd, groups)
				})
			})
		},
	}
}
