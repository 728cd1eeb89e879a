package dataset

import (
	"context"
	"fmt"

	"github.com/pranavkoushik/vaccination-project/pkg/sqlite"
)

// QueryResult represents the result of a query execution.
type QueryResult struct {
	Columns []string
	Rows    []map[string]any
	Count   int
}

// Empty reports whether the result carries no rows.
func (r *QueryResult) Empty() bool {
	return r == nil || len(r.Rows) == 0
}

// Query executes a SQL query and scans the results into maps keyed by column
// name. SQLite values come back as int64, float64, string, or nil; []byte is
// normalized to string.
func Query(ctx context.Context, db sqlite.DB, query string, args ...any) (*QueryResult, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var resultRows []map[string]any
	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &QueryResult{
		Columns: columns,
		Rows:    resultRows,
		Count:   len(resultRows),
	}, nil
}

func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Float reads a row value as float64, accepting the integer and text forms
// SQLite may hand back. ok is false for NULL or non-numeric values.
func Float(row map[string]any, col string) (float64, bool) {
	switch v := row[col].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Int reads a row value as int64. ok is false for NULL or non-integer values.
func Int(row map[string]any, col string) (int64, bool) {
	switch v := row[col].(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// String reads a row value as a string. ok is false for NULL.
func String(row map[string]any, col string) (string, bool) {
	if v, ok := row[col].(string); ok {
		return v, true
	}
	return "", false
}
