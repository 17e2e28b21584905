package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("item stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Groups summarizes every non-empty group ordered by the capture time of its
// first member.
func (s *Store) Groups(ctx context.Context) ([]GroupSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT group_key,
               COUNT(1),
               SUM(CASE WHEN assigned_name IS NOT NULL AND assigned_name <> '' THEN 1 ELSE 0 END),
               SUM(CASE WHEN code IS NOT NULL AND code <> '' THEN 1 ELSE 0 END),
               SUM(CASE WHEN status = ? THEN 1 ELSE 0 END),
               MIN(captured_at)
        FROM items
        WHERE group_key IS NOT NULL AND group_key <> ''
        GROUP BY group_key
        ORDER BY MIN(captured_at), group_key`, StatusInvalidGroup)
	if err != nil {
		return nil, fmt.Errorf("group summary: %w", err)
	}
	defer rows.Close()

	var out []GroupSummary
	for rows.Next() {
		var (
			summary GroupSummary
			first   int64
		)
		if err := rows.Scan(&summary.Group, &summary.Members, &summary.Named, &summary.CodeBearing, &summary.Invalid, &first); err != nil {
			return nil, err
		}
		summary.FirstCapture = time.Unix(0, first).UTC()
		out = append(out, summary)
	}
	return out, rows.Err()
}

// CheckHealth returns diagnostic information about the items database,
// including a count of assigned names shared by more than one item.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("items database path is unknown")
	}
	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat items database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("items database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping items database: %w", err)
	}
	health.DatabaseReadable = true

	if err := s.db.QueryRowContext(connCtx, "SELECT version FROM schema_version LIMIT 1").Scan(&health.SchemaVersion); err != nil && !errors.Is(err, sql.ErrNoRows) {
		health.Error = err.Error()
		return health, fmt.Errorf("read schema version: %w", err)
	}

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'items'")
	if err := row.Scan(&tableName); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		columns, err := s.tableColumns(connCtx)
		if err != nil {
			health.Error = err.Error()
			return health, err
		}
		present := make(map[string]struct{}, len(columns))
		for _, col := range columns {
			present[col] = struct{}{}
		}
		for _, col := range expectedColumns {
			if _, ok := present[col]; !ok {
				health.MissingColumns = append(health.MissingColumns, col)
			}
		}

		if err := s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM items").Scan(&health.TotalItems); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count items: %w", err)
		}
		if err := s.db.QueryRowContext(connCtx, `
            SELECT COUNT(*) FROM (
                SELECT assigned_name FROM items
                WHERE assigned_name IS NOT NULL AND assigned_name <> ''
                GROUP BY assigned_name HAVING COUNT(1) > 1
            )`).Scan(&health.DuplicateNames); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count duplicate names: %w", err)
		}
	}

	var integrityResult string
	if err := s.db.QueryRowContext(connCtx, "PRAGMA integrity_check").Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")
	return health, nil
}

func (s *Store) tableColumns(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info(items)")
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info: %w", err)
	}
	return columns, nil
}
