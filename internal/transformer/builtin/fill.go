package builtin

import "dqpipe/internal/table"

// Fill imputes missing cells by carrying the previous non-missing value
// forward, then back-filling any leading gap from the first non-missing
// value. All-missing columns are left unchanged. Columns limits the fill to
// the named columns; empty means every column.
type Fill struct {
	Columns []string
}

// Apply returns t with gaps filled.
func (f Fill) Apply(t *table.Table) (*table.Table, error) {
	out, _, err := f.ApplyMask(t)
	return out, err
}

// ApplyMask is Apply that also reports, per row, whether any cell in that
// row was filled.
func (f Fill) ApplyMask(t *table.Table) (*table.Table, []bool, error) {
	only := map[string]bool{}
	for _, name := range f.Columns {
		if _, ok := t.ColumnByName(name); !ok {
			return nil, nil, errUnknownColumn("fill", name)
		}
		only[name] = true
	}

	filledRows := make([]bool, t.NumRows())
	cols := t.Columns()
	for j, c := range cols {
		if len(only) > 0 && !only[c.Name()] {
			continue
		}
		filled, mask := FillColumn(c)
		for i, m := range mask {
			if m {
				filledRows[i] = true
			}
		}
		cols[j] = filled
	}
	out, err := table.New(cols...)
	if err != nil {
		return nil, nil, err
	}
	return out, filledRows, nil
}

// FillColumn forward- then back-fills one column and returns the filled
// column plus a mask of the cells that were filled.
func FillColumn(c table.Column) (table.Column, []bool) {
	cells := c.Values()
	mask := make([]bool, len(cells))
	if c.MissingCount() == 0 || c.MissingCount() == len(cells) {
		return c, mask
	}

	last := table.Missing()
	for i, v := range cells {
		if v.IsMissing() {
			if !last.IsMissing() {
				cells[i] = last
				mask[i] = true
			}
			continue
		}
		last = v
	}
	next := table.Missing()
	for i := len(cells) - 1; i >= 0; i-- {
		if cells[i].IsMissing() {
			cells[i] = next
			mask[i] = true
			continue
		}
		next = cells[i]
	}
	return table.NewColumn(c.Name(), cells), mask
}
