package table

import "slices"

// Column is an immutable named sequence of cells with an inferred kind.
type Column struct {
	name  string
	kind  Kind
	cells []Value
}

// NewColumn copies cells into a new Column and infers its kind: number,
// bool or datetime when every non-missing cell has that kind, text for any
// mixture. An all-missing column is a number column.
func NewColumn(name string, cells []Value) Column {
	return newColumn(name, slices.Clone(cells))
}

func newColumn(name string, cells []Value) Column {
	return Column{name: name, kind: inferKind(cells), cells: cells}
}

func inferKind(cells []Value) Kind {
	k := KindMissing
	for _, v := range cells {
		if v.kind == KindMissing {
			continue
		}
		if k == KindMissing {
			k = v.kind
			continue
		}
		if k != v.kind {
			return KindText
		}
	}
	if k == KindMissing {
		return KindNumber
	}
	return k
}

func (c Column) Name() string { return c.name }
func (c Column) Kind() Kind   { return c.kind }
func (c Column) Len() int     { return len(c.cells) }

// At returns the cell at row i.
func (c Column) At(i int) Value { return c.cells[i] }

// Values returns a copy of the cells.
func (c Column) Values() []Value { return slices.Clone(c.cells) }

// WithName returns the same cells under a different name.
func (c Column) WithName(name string) Column {
	c.name = name
	return c
}

// IsNumeric reports whether the column holds numbers (or only missing cells).
func (c Column) IsNumeric() bool { return c.kind == KindNumber }

// Numbers returns the non-missing numeric cells in row order.
func (c Column) Numbers() []float64 {
	out := make([]float64, 0, len(c.cells))
	for _, v := range c.cells {
		if f, ok := v.AsNumber(); ok {
			out = append(out, f)
		}
	}
	return out
}

// MissingCount returns the number of missing cells.
func (c Column) MissingCount() int {
	n := 0
	for _, v := range c.cells {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// Strings returns the canonical string form of every cell.
func (c Column) Strings() []string {
	out := make([]string, len(c.cells))
	for i, v := range c.cells {
		out[i] = v.String()
	}
	return out
}

// take keeps the column kind so row selection never changes a column's type.
func (c Column) take(idx []int) Column {
	cells := make([]Value, len(idx))
	for i, j := range idx {
		cells[i] = c.cells[j]
	}
	return Column{name: c.name, kind: c.kind, cells: cells}
}
