package builtin

import (
	"fmt"
	"strings"

	"dqpipe/internal/probe"
	"dqpipe/internal/table"
)

// Coerce converts the named columns to a target kind. Types maps a column
// to "number" or "datetime". Cells that do not convert become missing.
// Unknown columns and unknown target types are errors.
type Coerce struct {
	Types      map[string]string
	Preference probe.Preference
}

// Apply returns t with the coerced columns swapped in.
func (c Coerce) Apply(t *table.Table) (*table.Table, error) {
	for name, typ := range c.Types {
		if _, ok := t.ColumnByName(name); !ok {
			return nil, errUnknownColumn("coerce", name)
		}
		if typ != "number" && typ != "datetime" {
			return nil, fmt.Errorf("coerce: unsupported type %q for column %q", typ, name)
		}
	}
	out := t
	for _, name := range t.Names() {
		typ, ok := c.Types[name]
		if !ok {
			continue
		}
		col, _ := out.ColumnByName(name)
		var next table.Column
		switch typ {
		case "number":
			next, _ = ToNumber(col)
		case "datetime":
			next, _ = ToTime(col, c.Preference)
		}
		var err error
		if out, err = out.Replace(next); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ToNumber converts a column to numbers. Text cells may carry surrounding
// whitespace and a trailing "%"; bools and datetimes become missing. It
// returns the converted column and the number of non-missing cells that
// became missing.
func ToNumber(col table.Column) (table.Column, int) {
	cells := make([]table.Value, col.Len())
	failed := 0
	for i := 0; i < col.Len(); i++ {
		v := col.At(i)
		switch v.Kind() {
		case table.KindMissing:
			cells[i] = v
			continue
		case table.KindNumber:
			cells[i] = v
			continue
		}
		s, _ := v.AsText()
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		if f, ok := table.ParseNumber(strings.TrimSpace(s)); ok {
			cells[i] = table.Number(f)
			continue
		}
		cells[i] = table.Missing()
		failed++
	}
	return table.NewColumn(col.Name(), cells), failed
}

// ToTime converts a column to datetimes with probe.ParseTimes.
func ToTime(col table.Column, pref probe.Preference) (table.Column, int) {
	cells, failed := probe.ParseTimes(col, pref)
	return table.NewColumn(col.Name(), cells), failed
}
