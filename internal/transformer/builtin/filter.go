package builtin

import (
	"fmt"
	"strings"

	"dqpipe/internal/table"
)

// Filter keeps rows whose Column cell, in canonical string form, equals
// Value's string form ignoring case. A missing cell has the form "", so a
// Value of "" selects the missing rows.
type Filter struct {
	Column string
	Value  any
}

// Apply returns the matching rows of t.
func (f Filter) Apply(t *table.Table) (*table.Table, error) {
	c, ok := t.ColumnByName(f.Column)
	if !ok {
		return nil, errUnknownColumn("filter", f.Column)
	}
	want := TargetString(f.Value)
	keep := make([]int, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if strings.EqualFold(c.At(i).String(), want) {
			keep = append(keep, i)
		}
	}
	if len(keep) == t.NumRows() {
		return t, nil
	}
	return t.SelectRows(keep), nil
}

// TargetString renders a filter target the way cells render, so a YAML
// integer 2020 matches a number cell 2020 and a YAML bool true matches a
// bool cell.
func TargetString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return table.FormatNumber(x)
	case float32:
		return table.FormatNumber(float64(x))
	case int:
		return table.FormatNumber(float64(x))
	case int64:
		return table.FormatNumber(float64(x))
	case uint64:
		return table.FormatNumber(float64(x))
	case bool:
		if x {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
