package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"samplesort/internal/color"
)

// ErrNotFound is returned when a write targets an item that does not exist.
var ErrNotFound = errors.New("item not found")

// Naming is the tuple written atomically whenever an item's group changes.
type Naming struct {
	Group           string
	AssignedName    string
	GroupConfidence float64
	Status          Status
	StatusReason    string
}

// Insert persists a new item. A missing ID is generated, a missing status
// defaults to unprocessed, and a zero capture time defaults to now.
func (s *Store) Insert(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	if strings.TrimSpace(item.ID) == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = StatusUnprocessed
	}
	now := time.Now().UTC()
	if item.CapturedAt.IsZero() {
		item.CapturedAt = now
	}
	item.CapturedAt = item.CapturedAt.UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO items (
            id, captured_at, origin, code, description, colors_json,
            group_key, assigned_name, group_confidence, status, status_reason,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.CapturedAt.UnixNano(),
		nullableString(item.Origin),
		nullableString(item.Code),
		nullableString(item.Description),
		nullableString(color.EncodeSamples(item.Colors)),
		nullableString(item.Group),
		nullableString(item.AssignedName),
		item.GroupConfidence,
		item.Status,
		nullableString(item.StatusReason),
		formatTime(item.CreatedAt),
		formatTime(item.UpdatedAt),
	); err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetByID fetches an item by identifier. A missing item yields (nil, nil).
func (s *Store) GetByID(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// Update persists extraction evidence and lifecycle status. It never touches
// the capture time or the naming tuple; use UpdateNaming for those.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE items
         SET origin = ?, code = ?, description = ?, colors_json = ?,
             status = ?, status_reason = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(item.Origin),
		nullableString(item.Code),
		nullableString(item.Description),
		nullableString(color.EncodeSamples(item.Colors)),
		item.Status,
		nullableString(item.StatusReason),
		formatTime(item.UpdatedAt),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return requireAffected(res, item.ID)
}

// UpdateNaming writes group, assigned name, confidence, and status in one
// statement.
func (s *Store) UpdateNaming(ctx context.Context, id string, naming Naming) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE items
         SET group_key = ?, assigned_name = ?, group_confidence = ?,
             status = ?, status_reason = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(naming.Group),
		nullableString(naming.AssignedName),
		naming.GroupConfidence,
		naming.Status,
		nullableString(naming.StatusReason),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update naming: %w", err)
	}
	return requireAffected(res, id)
}

// UpdateName rewrites only the assigned name of an item whose group is
// unchanged, as happens when a group is resequenced.
func (s *Store) UpdateName(ctx context.Context, id, name string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE items SET assigned_name = ?, updated_at = ? WHERE id = ?`,
		nullableString(name),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("update name: %w", err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// List returns items filtered by status set (or all items when no status is
// provided) in capture order.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	baseQuery := `SELECT ` + itemColumns + ` FROM items`
	orderClause := ` ORDER BY captured_at, id`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return scanItems(rows)
}

// ListByGroup returns the members of group in capture order.
func (s *Store) ListByGroup(ctx context.Context, group string) ([]*Item, error) {
	if strings.TrimSpace(group) == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE group_key = ? ORDER BY captured_at, id`, group)
	if err != nil {
		return nil, fmt.Errorf("list group %q: %w", group, err)
	}
	return scanItems(rows)
}

// ListGrouped returns every item carrying a group, in capture order.
func (s *Store) ListGrouped(ctx context.Context) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE group_key IS NOT NULL AND group_key <> '' ORDER BY captured_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list grouped items: %w", err)
	}
	return scanItems(rows)
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all items.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM items`)
	if err != nil {
		return 0, fmt.Errorf("clear items: %w", err)
	}
	return res.RowsAffected()
}
