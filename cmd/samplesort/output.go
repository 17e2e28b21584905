package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"samplesort/internal/grouping"
	"samplesort/internal/items"
	"samplesort/internal/naming"
	"samplesort/internal/textutil"
)

const shortIDLength = 8

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// newTable returns a writer with the shared style. Columns listed in right
// are right-aligned.
func newTable(headers table.Row, right ...int) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(headers)
	configs := make([]table.ColumnConfig, 0, len(right))
	for _, number := range right {
		configs = append(configs, table.ColumnConfig{
			Number:      number,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw
}

func statusColors(status items.Status) text.Colors {
	switch status {
	case items.StatusMatched, items.StatusHumanGrouped:
		return text.Colors{text.FgGreen}
	case items.StatusInvalidGroup:
		return text.Colors{text.FgYellow}
	case items.StatusUnmatched:
		return text.Colors{text.FgRed}
	case items.StatusExtracting, items.StatusMatching:
		return text.Colors{text.FgCyan}
	default:
		return nil
	}
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func dash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func renderItems(cmd *cobra.Command, list []*items.Item) {
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No items")
		return
	}
	colorize := shouldColorize(out)
	tw := newTable(table.Row{"ID", "Captured", "Origin", "Group", "Name", "Confidence", "Status"}, 6)
	for _, item := range list {
		status := textutil.TitleCase(string(item.Status))
		if colors := statusColors(item.Status); colorize && colors != nil {
			status = colors.Sprint(status)
		}
		tw.AppendRow(table.Row{
			shortID(item.ID),
			item.CapturedAt.Local().Format("2006-01-02 15:04:05"),
			item.Origin,
			dash(item.Group),
			dash(item.AssignedName),
			strconv.FormatFloat(item.GroupConfidence, 'f', 2, 64),
			status,
		})
	}
	fmt.Fprintln(out, tw.Render())
}

func renderItemDetail(cmd *cobra.Command, item items.Item) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:          %s\n", item.ID)
	fmt.Fprintf(out, "Origin:      %s\n", item.Origin)
	fmt.Fprintf(out, "Captured:    %s\n", item.CapturedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "Code:        %s\n", dash(item.Code))
	fmt.Fprintf(out, "Description: %s\n", dash(item.Description))
	for i, sample := range item.Colors {
		label := "Colors:"
		if i > 0 {
			label = ""
		}
		fmt.Fprintf(out, "%-12s %s %s\n", label, sample.Value, sample.Name)
	}
	fmt.Fprintf(out, "Group:       %s\n", dash(item.Group))
	fmt.Fprintf(out, "Name:        %s\n", dash(item.AssignedName))
	fmt.Fprintf(out, "Confidence:  %.2f\n", item.GroupConfidence)
	fmt.Fprintf(out, "Status:      %s\n", textutil.TitleCase(string(item.Status)))
	if item.StatusReason != "" {
		fmt.Fprintf(out, "Reason:      %s\n", item.StatusReason)
	}
}

func renderResult(cmd *cobra.Command, result grouping.Result) {
	renderItemDetail(cmd, result.Item)
	out := cmd.OutOrStdout()
	if result.Match != nil {
		fmt.Fprintf(out, "Matched via %s against %s (score %.2f)\n",
			result.Match.Strategy, shortID(result.Match.SourceID), result.Match.Score)
	}
	renderReport(cmd, result.Report)
}

func renderReport(cmd *cobra.Command, report naming.Report) {
	out := cmd.OutOrStdout()
	for _, rename := range report.Renamed {
		fmt.Fprintf(out, "  %s: %s -> %s\n", shortID(rename.ItemID), dash(rename.From), rename.To)
	}
	for _, failure := range report.Failures {
		fmt.Fprintf(out, "  %s: rename failed: %v\n", shortID(failure.ItemID), failure.Err)
	}
}

func renderGroups(cmd *cobra.Command, groups []items.GroupSummary) {
	out := cmd.OutOrStdout()
	if len(groups) == 0 {
		fmt.Fprintln(out, "No groups")
		return
	}
	tw := newTable(table.Row{"Group", "Members", "Named", "Coded", "Invalid", "First Capture"}, 2, 3, 4, 5)
	for _, group := range groups {
		first := "-"
		if !group.FirstCapture.IsZero() {
			first = group.FirstCapture.Local().Format("2006-01-02 15:04:05")
		}
		tw.AppendRow(table.Row{group.Group, group.Members, group.Named, group.CodeBearing, group.Invalid, first})
	}
	fmt.Fprintln(out, tw.Render())
}

func renderSweep(cmd *cobra.Command, report grouping.SweepReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s sweep: grouped %d of %d item(s) in %d round(s), %d remaining (%s)\n",
		report.Strategy, report.Grouped, report.Considered, report.Rounds, report.Remaining,
		report.Duration.Round(1e6))
	if report.Cancelled {
		fmt.Fprintln(out, "Sweep cancelled before completion")
	}
	if len(report.Applied) == 0 {
		return
	}
	tw := newTable(table.Row{"Round", "Item", "Group", "Name", "Confidence", "Reason"}, 1, 5)
	for _, applied := range report.Applied {
		tw.AppendRow(table.Row{
			applied.Round,
			shortID(applied.ItemID),
			applied.Group,
			applied.Name,
			strconv.FormatFloat(applied.Confidence, 'f', 2, 64),
			applied.Reason,
		})
	}
	fmt.Fprintln(out, tw.Render())
}

// emit writes v as JSON in --json mode, otherwise calls render.
func (c *commandContext) emit(cmd *cobra.Command, v any, render func()) error {
	if c.jsonOutput() {
		return writeJSON(cmd, v)
	}
	render()
	return nil
}
