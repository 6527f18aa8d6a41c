// Package table holds the in-memory row-table shared by the readers, the
// transform engine and the writers.
package table

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrDuplicateColumn is returned when a table would contain the same column name twice.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrRaggedColumns is returned when columns of one table differ in length.
	ErrRaggedColumns = errors.New("columns differ in length")

	// ErrColumnMismatch is returned when concatenated tables do not share a column set.
	ErrColumnMismatch = errors.New("column sets differ")
)

// Table is an immutable, column-oriented row-table. Column names are unique
// and every column has Len() values.
type Table struct {
	names []string
	index map[string]int
	cols  [][]Value
	rows  int
}

// New builds a table from parallel names and columns. The slices are copied.
func New(names []string, cols [][]Value) (*Table, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("new table: %d names for %d columns", len(names), len(cols))
	}
	t := &Table{
		names: slices.Clone(names),
		index: make(map[string]int, len(names)),
		cols:  make([][]Value, len(cols)),
	}
	for i, name := range names {
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("new table: %w: %q", ErrDuplicateColumn, name)
		}
		t.index[name] = i
		if i == 0 {
			t.rows = len(cols[i])
		} else if len(cols[i]) != t.rows {
			return nil, fmt.Errorf("new table: %w: %q has %d rows, want %d", ErrRaggedColumns, name, len(cols[i]), t.rows)
		}
		t.cols[i] = slices.Clone(cols[i])
	}
	return t, nil
}

// FromRows builds a table from row-major data. Short rows are padded with Missing.
func FromRows(names []string, rows [][]Value) (*Table, error) {
	cols := make([][]Value, len(names))
	for c := range cols {
		cols[c] = make([]Value, len(rows))
	}
	for r, row := range rows {
		if len(row) > len(names) {
			return nil, fmt.Errorf("from rows: row %d has %d cells for %d columns", r, len(row), len(names))
		}
		for c, v := range row {
			cols[c][r] = v
		}
	}
	return New(names, cols)
}

// Empty returns a table with the given columns and no rows.
func Empty(names []string) (*Table, error) {
	return New(names, make([][]Value, len(names)))
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return slices.Clone(t.names) }

// Has reports whether the table contains the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of the named column.
func (t *Table) Column(name string) ([]Value, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(t.cols[i]), true
}

// At returns the value at row r of the named column. Unknown columns yield Missing.
func (t *Table) At(r int, name string) Value {
	i, ok := t.index[name]
	if !ok {
		return Missing()
	}
	return t.cols[i][r]
}

// Row returns row r as a column-name keyed map.
func (t *Table) Row(r int) map[string]Value {
	row := make(map[string]Value, len(t.names))
	for i, name := range t.names {
		row[name] = t.cols[i][r]
	}
	return row
}

// Values returns row r in column order.
func (t *Table) Values(r int) []Value {
	vals := make([]Value, len(t.cols))
	for i := range t.cols {
		vals[i] = t.cols[i][r]
	}
	return vals
}

// Concat stacks tables vertically in argument order. All tables must share
// the same column names in the same order.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return Empty(nil)
	}
	names := tables[0].names
	total := 0
	for i, t := range tables {
		if !slices.Equal(t.names, names) {
			return nil, fmt.Errorf("concat: %w: table %d has %v, want %v", ErrColumnMismatch, i, t.names, names)
		}
		total += t.rows
	}
	cols := make([][]Value, len(names))
	for c := range cols {
		cols[c] = make([]Value, 0, total)
		for _, t := range tables {
			cols[c] = append(cols[c], t.cols[c]...)
		}
	}
	return New(names, cols)
}
