package main

import (
	"context"

	"github.com/spf13/cobra"

	"samplesort/internal/api"
	"samplesort/internal/grouping"
)

func newInferCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "infer",
		Short: "Group unmatched items with the strict strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, ctx, (*grouping.Service).InferUngrouped)
		},
	}
}

func newAutoGroupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "autogroup",
		Short: "Group extracted items with the weighted strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, ctx, (*grouping.Service).AutoGroup)
		},
	}
}

func runSweep(cmd *cobra.Command, ctx *commandContext, sweep func(*grouping.Service, context.Context) (grouping.SweepReport, error)) error {
	return ctx.withService(cmd, func(c context.Context, svc *grouping.Service) error {
		report, err := sweep(svc, c)
		if err != nil && !report.Cancelled {
			return err
		}
		return ctx.emit(cmd, api.FromSweep(report), func() {
			renderSweep(cmd, report)
		})
	})
}
