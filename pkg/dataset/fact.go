package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pranavkoushik/vaccination-project/pkg/sqlite"
)

// FactDataset wraps a FactSchema with DDL generation and full-replace batch
// writes. Every fact table gets a synthetic autoincrement id; natural keys
// into the dimensions stay logical and are never enforced by the storage
// layer, so dangling references are tolerated.
type FactDataset struct {
	log    *slog.Logger
	schema FactSchema

	cols []string
}

func NewFactDataset(log *slog.Logger, schema FactSchema) (*FactDataset, error) {
	cols, err := extractColumnNames(schema.Columns())
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("fact %q has no columns", schema.Name())
	}
	return &FactDataset{
		log:    log,
		schema: schema,
		cols:   cols,
	}, nil
}

func (f *FactDataset) TableName() string {
	return "fact_" + f.schema.Name()
}

func (f *FactDataset) Columns() []string {
	return f.cols
}

// CreateSQL returns the CREATE TABLE statement for the fact table.
func (f *FactDataset) CreateSQL() (string, error) {
	colDDLs, err := columnDDLs(f.schema.Columns())
	if err != nil {
		return "", fmt.Errorf("failed to build column DDL: %w", err)
	}
	cols := append([]string{"id INTEGER PRIMARY KEY AUTOINCREMENT"}, colDDLs...)
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)", f.TableName(), strings.Join(cols, ",\n    ")), nil
}

// DropSQL returns the DROP TABLE statement for the fact table.
func (f *FactDataset) DropSQL() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", f.TableName())
}

// IndexSQL returns CREATE INDEX statements for the schema's indexes.
func (f *FactDataset) IndexSQL() []string {
	stmts := make([]string, 0, len(f.schema.Indexes()))
	for _, idx := range f.schema.Indexes() {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s ON %s(%s)", idx.Name, f.TableName(), strings.Join(idx.Columns, ", ")))
	}
	return stmts
}

// Replace empties the fact table and bulk-inserts count rows produced by
// rowFn. rowFn must return values in the order of Columns.
func (f *FactDataset) Replace(ctx context.Context, db sqlite.DB, count int, rowFn func(i int) ([]any, error)) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", f.TableName())); err != nil {
		return fmt.Errorf("failed to clear %s: %w", f.TableName(), err)
	}
	if count == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(f.cols)), ", ")
	stmt, err := db.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)", f.TableName(), strings.Join(f.cols, ", "), placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", f.TableName(), err)
	}
	defer stmt.Close()

	for i := 0; i < count; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during batch insert: %w", ctx.Err())
		default:
		}

		row, err := rowFn(i)
		if err != nil {
			return fmt.Errorf("failed to get row %d for %s: %w", i, f.TableName(), err)
		}
		if len(row) != len(f.cols) {
			return fmt.Errorf("row %d for %s has %d values, expected %d", i, f.TableName(), len(row), len(f.cols))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, f.TableName(), err)
		}
	}

	f.log.Debug("replaced fact rows", "table", f.TableName(), "count", count)
	return nil
}
