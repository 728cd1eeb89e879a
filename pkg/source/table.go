package source

import (
	"strconv"
	"strings"
)

// Table is a raw in-memory dataset: an ordered header plus string cells. An
// empty string cell means missing. No validation has happened yet; columns
// are surfaced exactly as found in the source file.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string

	colIndex map[string]int
}

// NewTable builds a table, padding ragged rows to the header width.
func NewTable(name string, columns []string, rows [][]string) *Table {
	padded := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) < len(columns) {
			grown := make([]string, len(columns))
			copy(grown, row)
			row = grown
		} else if len(row) > len(columns) {
			row = row[:len(columns)]
		}
		padded = append(padded, row)
	}

	colIndex := make(map[string]int, len(columns))
	for i, col := range columns {
		colIndex[col] = i
	}

	return &Table{
		Name:     name,
		Columns:  columns,
		Rows:     padded,
		colIndex: colIndex,
	}
}

// Cell returns the trimmed value at (row, column name), or "" if the column
// does not exist.
func (t *Table) Cell(row int, col string) string {
	i, ok := t.colIndex[col]
	if !ok {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][i])
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(col string) bool {
	_, ok := t.colIndex[col]
	return ok
}

// UpperColumns returns a copy of the table with column names upper-cased,
// the canonical form the cleaner operates on.
func (t *Table) UpperColumns() *Table {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = strings.ToUpper(strings.TrimSpace(c))
	}
	return NewTable(t.Name, cols, t.Rows)
}

// ColumnType is the inferred storage type of a raw column.
type ColumnType string

const (
	TypeInteger ColumnType = "integer"
	TypeReal    ColumnType = "real"
	TypeText    ColumnType = "text"
	TypeEmpty   ColumnType = "empty"
)

// Profile summarizes a raw table for the load report: shape, null counts and
// inferred column types. Purely descriptive; never feeds back into loading.
type Profile struct {
	Kind         Kind
	RowCount     int
	ColumnCount  int
	MissingCells int
	ColumnTypes  map[string]ColumnType
}

// Profiles the table by scanning every cell once.
func (t *Table) Profile(kind Kind) Profile {
	p := Profile{
		Kind:        kind,
		RowCount:    len(t.Rows),
		ColumnCount: len(t.Columns),
		ColumnTypes: make(map[string]ColumnType, len(t.Columns)),
	}

	for ci, col := range t.Columns {
		inferred := TypeEmpty
		for _, row := range t.Rows {
			cell := strings.TrimSpace(row[ci])
			if cell == "" {
				p.MissingCells++
				continue
			}
			inferred = widenType(inferred, inferCellType(cell))
		}
		p.ColumnTypes[col] = inferred
	}

	return p
}

func inferCellType(cell string) ColumnType {
	if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return TypeInteger
	}
	if _, err := strconv.ParseFloat(cell, 64); err == nil {
		return TypeReal
	}
	return TypeText
}

// widenType merges per-cell types: integer widens to real, anything mixed
// with text is text.
func widenType(current, next ColumnType) ColumnType {
	if current == TypeEmpty {
		return next
	}
	if current == next {
		return current
	}
	if (current == TypeInteger && next == TypeReal) || (current == TypeReal && next == TypeInteger) {
		return TypeReal
	}
	return TypeText
}
