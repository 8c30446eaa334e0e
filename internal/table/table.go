package table

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrDuplicateColumn is returned when two columns share a name.
	ErrDuplicateColumn = errors.New("table: duplicate column name")
	// ErrLengthMismatch is returned when columns differ in length.
	ErrLengthMismatch = errors.New("table: column length mismatch")
)

// Table is an immutable ordered collection of equally long, uniquely named
// columns.
type Table struct {
	cols  []Column
	index map[string]int
	rows  int
}

// New builds a Table from cols.
func New(cols ...Column) (*Table, error) {
	t := &Table{cols: slices.Clone(cols), index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := t.index[c.name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.name)
		}
		t.index[c.name] = i
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, c.name, c.Len(), t.rows)
		}
	}
	return t, nil
}

// MustNew is New that panics on error. Intended for tests and literals.
func MustNew(cols ...Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) NumRows() int { return t.rows }
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in order.
func (t *Table) Columns() []Column { return slices.Clone(t.cols) }

// Column returns the column at position i.
func (t *Table) Column(i int) Column { return t.cols[i] }

// ColumnByName looks a column up by name.
func (t *Table) ColumnByName(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i], true
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.name
	}
	return out
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.cells[i]
	}
	return out
}

// SelectRows returns a table holding the rows at idx, in idx order.
func (t *Table) SelectRows(idx []int) *Table {
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.take(idx)
	}
	return &Table{cols: cols, index: t.index, rows: len(idx)}
}

// Head returns the first n rows (fewer when the table is shorter).
func (t *Table) Head(n int) *Table {
	n = min(max(n, 0), t.rows)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.SelectRows(idx)
}

// WithColumns returns a table with cols appended after the existing columns.
func (t *Table) WithColumns(cols ...Column) (*Table, error) {
	return New(append(t.Columns(), cols...)...)
}

// Replace returns a table where the column named c.Name() is swapped for c.
func (t *Table) Replace(c Column) (*Table, error) {
	i, ok := t.index[c.name]
	if !ok {
		return nil, fmt.Errorf("table: replace: no column %q", c.name)
	}
	cols := t.Columns()
	cols[i] = c
	return New(cols...)
}

// DropColumns returns a table without the columns for which drop reports true.
func (t *Table) DropColumns(drop func(name string) bool) *Table {
	keep := make([]Column, 0, len(t.cols))
	for _, c := range t.cols {
		if !drop(c.name) {
			keep = append(keep, c)
		}
	}
	out, _ := New(keep...)
	return out
}

// Rename returns a table whose columns carry names, in order.
func (t *Table) Rename(names []string) (*Table, error) {
	if len(names) != len(t.cols) {
		return nil, fmt.Errorf("table: rename: got %d names for %d columns", len(names), len(t.cols))
	}
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.WithName(names[i])
	}
	return New(cols...)
}
