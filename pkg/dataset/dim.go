package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pranavkoushik/vaccination-project/pkg/sqlite"
)

// DimensionDataset wraps a DimensionSchema with DDL generation and
// full-replace writes. Dimension tables carry descriptive reference data and
// are rebuilt from scratch on every pipeline run.
type DimensionDataset struct {
	log    *slog.Logger
	schema DimensionSchema

	keyCols     []string
	payloadCols []string
}

func NewDimensionDataset(log *slog.Logger, schema DimensionSchema) (*DimensionDataset, error) {
	keyCols, err := extractColumnNames(schema.KeyColumns())
	if err != nil {
		return nil, fmt.Errorf("failed to extract key columns: %w", err)
	}
	if len(keyCols) == 0 {
		return nil, fmt.Errorf("dimension %q has no key columns", schema.Name())
	}
	payloadCols, err := extractColumnNames(schema.PayloadColumns())
	if err != nil {
		return nil, fmt.Errorf("failed to extract payload columns: %w", err)
	}
	return &DimensionDataset{
		log:         log,
		schema:      schema,
		keyCols:     keyCols,
		payloadCols: payloadCols,
	}, nil
}

func (d *DimensionDataset) TableName() string {
	return "dim_" + d.schema.Name()
}

func (d *DimensionDataset) KeyColumns() []string {
	return d.keyCols
}

func (d *DimensionDataset) AllColumns() []string {
	return append(append([]string{}, d.keyCols...), d.payloadCols...)
}

// CreateSQL returns the CREATE TABLE statement for the dimension.
// A single key column becomes an inline PRIMARY KEY; composite keys get a
// table-level constraint.
func (d *DimensionDataset) CreateSQL() (string, error) {
	keyDDLs, err := columnDDLs(d.schema.KeyColumns())
	if err != nil {
		return "", fmt.Errorf("failed to build key column DDL: %w", err)
	}
	payloadDDLs, err := columnDDLs(d.schema.PayloadColumns())
	if err != nil {
		return "", fmt.Errorf("failed to build payload column DDL: %w", err)
	}

	cols := make([]string, 0, len(keyDDLs)+len(payloadDDLs)+1)
	if len(keyDDLs) == 1 {
		cols = append(cols, keyDDLs[0]+" PRIMARY KEY")
	} else {
		cols = append(cols, keyDDLs...)
	}
	cols = append(cols, payloadDDLs...)
	if len(keyDDLs) > 1 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(d.keyCols, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n    %s\n)", d.TableName(), strings.Join(cols, ",\n    ")), nil
}

// DropSQL returns the DROP TABLE statement for the dimension.
func (d *DimensionDataset) DropSQL() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", d.TableName())
}

// Replace empties the dimension table and inserts count rows produced by
// rowFn, in order. rowFn must return values matching AllColumns.
func (d *DimensionDataset) Replace(ctx context.Context, db sqlite.DB, count int, rowFn func(i int) ([]any, error)) error {
	if _, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", d.TableName())); err != nil {
		return fmt.Errorf("failed to clear %s: %w", d.TableName(), err)
	}
	if count == 0 {
		return nil
	}

	cols := d.AllColumns()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := db.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)", d.TableName(), strings.Join(cols, ", "), placeholders))
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", d.TableName(), err)
	}
	defer stmt.Close()

	for i := 0; i < count; i++ {
		row, err := rowFn(i)
		if err != nil {
			return fmt.Errorf("failed to get row %d for %s: %w", i, d.TableName(), err)
		}
		if len(row) != len(cols) {
			return fmt.Errorf("row %d for %s has %d values, expected %d", i, d.TableName(), len(row), len(cols))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to insert row %d into %s: %w", i, d.TableName(), err)
		}
	}

	d.log.Debug("replaced dimension rows", "table", d.TableName(), "count", count)
	return nil
}
