package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// SQLSource fetches snapshot rows from a live catalog over database/sql.
// The caller supplies the connected handle and one query per row type; this
// package never builds connection strings.
type SQLSource struct {
	DB      *sql.DB
	Queries map[RowType]string
	Logger  *slog.Logger
}

// CheckAccess verifies the query for rt can be executed at all. A query
// that yields zero rows is still a success; access is denied only on an
// explicit driver error. Row counts are never used as a privilege proxy,
// since an empty-but-readable object and a forbidden one would be
// indistinguishable.
func (s *SQLSource) CheckAccess(ctx context.Context, rt RowType) error {
	query, ok := s.Queries[rt]
	if !ok {
		return fmt.Errorf("no query configured for row type %s", rt)
	}
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("access check failed for %s: %w", rt, err)
	}
	defer rows.Close()
	return rows.Err()
}

// Fetch runs the configured query for rt and returns its rows as flat
// field/value records keyed by the result column names.
func (s *SQLSource) Fetch(ctx context.Context, rt RowType) ([]Record, error) {
	query, ok := s.Queries[rt]
	if !ok {
		return nil, fmt.Errorf("no query configured for row type %s", rt)
	}

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rt, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns for %s: %w", rt, err)
	}

	var records []Record
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", rt, err)
		}

		rec := make(Record, len(columns))
		for i, name := range columns {
			if b, ok := values[i].([]byte); ok {
				rec[name] = string(b)
			} else {
				rec[name] = values[i]
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", rt, err)
	}

	if s.Logger != nil {
		s.Logger.Debug("fetched rows", "row_type", string(rt), "count", len(records))
	}
	return records, nil
}
