package api

import (
	"time"

	"samplesort/internal/grouping"
	"samplesort/internal/items"
	"samplesort/internal/matcher"
	"samplesort/internal/naming"
)

// FromItem converts an item to its API representation.
func FromItem(item *items.Item) Item {
	if item == nil {
		return Item{}
	}
	dto := Item{
		ID:              item.ID,
		Origin:          item.Origin,
		Code:            item.Code,
		Description:     item.Description,
		Colors:          item.Colors,
		Group:           item.Group,
		AssignedName:    item.AssignedName,
		GroupConfidence: item.GroupConfidence,
		Status:          string(item.Status),
		StatusReason:    item.StatusReason,
		CapturedAt:      formatTime(item.CapturedAt),
		CreatedAt:       formatTime(item.CreatedAt),
		UpdatedAt:       formatTime(item.UpdatedAt),
	}
	return dto
}

// FromItems converts a slice of items into API DTOs.
func FromItems(list []*items.Item) []Item {
	out := make([]Item, 0, len(list))
	for _, item := range list {
		out = append(out, FromItem(item))
	}
	return out
}

// FromGroups converts group summaries.
func FromGroups(list []items.GroupSummary) []Group {
	out := make([]Group, 0, len(list))
	for _, summary := range list {
		out = append(out, Group{
			Group:        summary.Group,
			Members:      summary.Members,
			Named:        summary.Named,
			CodeBearing:  summary.CodeBearing,
			Invalid:      summary.Invalid,
			FirstCapture: formatTime(summary.FirstCapture),
		})
	}
	return out
}

// FromReport converts a resequencing report.
func FromReport(report naming.Report) Report {
	dto := Report{
		Members:   report.Members,
		Unchanged: report.Unchanged,
		Partial:   !report.OK(),
	}
	for _, rename := range report.Renamed {
		dto.Renamed = append(dto.Renamed, Rename{ItemID: rename.ItemID, From: rename.From, To: rename.To})
	}
	for _, failure := range report.Failures {
		msg := "unknown failure"
		if failure.Err != nil {
			msg = failure.Err.Error()
		}
		dto.Failures = append(dto.Failures, Failure{ItemID: failure.ItemID, Name: failure.Name, Error: msg})
	}
	return dto
}

// FromMatch converts an accepted inference.
func FromMatch(match *matcher.Match) *Match {
	if match == nil {
		return nil
	}
	return &Match{
		Group:      match.Group,
		Confidence: match.Confidence,
		Score:      match.Score,
		Strategy:   match.Strategy,
		SourceID:   match.SourceID,
		Reason:     match.Reason,
	}
}

// FromResult converts the outcome of an item edit.
func FromResult(result grouping.Result) EditResponse {
	item := result.Item
	return EditResponse{
		Item:          FromItem(&item),
		PreviousGroup: result.PreviousGroup,
		Match:         FromMatch(result.Match),
		Report:        FromReport(result.Report),
	}
}

// FromRename converts the outcome of a group rename.
func FromRename(result grouping.RenameResult) RenameResponse {
	return RenameResponse{
		From:   result.From,
		To:     result.To,
		Moved:  result.Moved,
		Report: FromReport(result.Report),
	}
}

// FromSweep converts a sweep report.
func FromSweep(report grouping.SweepReport) SweepResponse {
	dto := SweepResponse{
		Strategy:   report.Strategy,
		Rounds:     report.Rounds,
		Considered: report.Considered,
		Grouped:    report.Grouped,
		Remaining:  report.Remaining,
		Cancelled:  report.Cancelled,
		DurationMS: report.Duration.Milliseconds(),
	}
	for _, applied := range report.Applied {
		dto.Applied = append(dto.Applied, Applied{
			ItemID:     applied.ItemID,
			Group:      applied.Group,
			Name:       applied.Name,
			Confidence: applied.Confidence,
			Reason:     applied.Reason,
			Round:      applied.Round,
		})
	}
	return dto
}

// ParseTime accepts RFC3339 with or without fractional seconds. An empty
// value yields the zero time.
func ParseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
