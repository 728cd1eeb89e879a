package dataset

import (
	"fmt"
	"strings"
)

// DimensionSchema defines the structure of a dimension table.
// Column definitions use "name:TYPE" format; TYPE may carry SQLite column
// constraints (e.g. "country_name:TEXT NOT NULL").
type DimensionSchema interface {
	// Name returns the dataset name (e.g. "countries"); the table is dim_<name>.
	Name() string
	// KeyColumns returns the column definitions for the primary key fields.
	KeyColumns() []string
	// PayloadColumns returns the column definitions for all other fields.
	PayloadColumns() []string
}

// FactSchema defines the structure of a fact table.
type FactSchema interface {
	// Name returns the dataset name (e.g. "vaccination_coverage"); the table
	// is fact_<name>.
	Name() string
	// Columns returns the column definitions for all fields, in insert order.
	Columns() []string
	// Indexes returns index definitions for the table.
	Indexes() []Index
}

// Index names an index over a set of fact columns.
type Index struct {
	Name    string
	Columns []string
}

// ViewSchema defines a derived analytical view.
type ViewSchema interface {
	// Name returns the view name (e.g. "v_coverage_analysis").
	Name() string
	// SelectSQL returns the SELECT statement body of the view.
	SelectSQL() string
}

// extractColumnNames extracts column names from a slice of "name:TYPE" strings.
func extractColumnNames(colDefs []string) ([]string, error) {
	names := make([]string, 0, len(colDefs))
	for _, colDef := range colDefs {
		name, err := extractColumnName(colDef)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// extractColumnName extracts the column name from a "name:TYPE" string.
func extractColumnName(colDef string) (string, error) {
	parts := strings.SplitN(colDef, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid column definition %q: expected format 'name:TYPE'", colDef)
	}
	return strings.TrimSpace(parts[0]), nil
}

// columnDDL renders a "name:TYPE" definition as SQL column DDL.
func columnDDL(colDef string) (string, error) {
	parts := strings.SplitN(colDef, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid column definition %q: expected format 'name:TYPE'", colDef)
	}
	return strings.TrimSpace(parts[0]) + " " + strings.TrimSpace(parts[1]), nil
}

func columnDDLs(colDefs []string) ([]string, error) {
	ddls := make([]string, 0, len(colDefs))
	for _, colDef := range colDefs {
		ddl, err := columnDDL(colDef)
		if err != nil {
			return nil, err
		}
		ddls = append(ddls, ddl)
	}
	return ddls, nil
}
