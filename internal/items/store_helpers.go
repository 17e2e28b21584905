package items

import (
	"database/sql"
	"errors"
	"time"

	"samplesort/internal/color"
)

const itemColumns = "id, captured_at, origin, code, description, colors_json, group_key, assigned_name, group_confidence, status, status_reason, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id           string
		capturedNano int64
		origin       sql.NullString
		code         sql.NullString
		description  sql.NullString
		colorsJSON   sql.NullString
		group        sql.NullString
		assignedName sql.NullString
		confidence   sql.NullFloat64
		statusStr    string
		reason       sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&capturedNano,
		&origin,
		&code,
		&description,
		&colorsJSON,
		&group,
		&assignedName,
		&confidence,
		&statusStr,
		&reason,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		CapturedAt:      time.Unix(0, capturedNano).UTC(),
		Origin:          origin.String,
		Code:            code.String,
		Description:     description.String,
		Colors:          color.ParseSamples(colorsJSON.String),
		Group:           group.String,
		AssignedName:    assignedName.String,
		GroupConfidence: confidence.Float64,
		Status:          Status(statusStr),
		StatusReason:    reason.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func scanItems(rows *sql.Rows) ([]*Item, error) {
	defer rows.Close()
	var out []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
