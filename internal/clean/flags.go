package clean

import (
	"strings"

	"dqpipe/internal/table"
)

// Quality flag column names.
const (
	FlagPrefix        = "_qc_"
	FlagMissing       = FlagPrefix + "missing"
	FlagImputed       = FlagPrefix + "imputed"
	FlagOutlierPrefix = FlagPrefix + "outlier_"
)

// IsFlagColumn reports whether name is a derived quality flag column.
func IsFlagColumn(name string) bool { return strings.HasPrefix(name, FlagPrefix) }

// OutlierFlags is the outlier mask of one numeric column.
type OutlierFlags struct {
	Column string
	Mask   []bool
}

// Flags is the per-row quality flag set produced by Clean.
type Flags struct {
	Missing  []bool
	Imputed  []bool
	Outliers []OutlierFlags
}

// take keeps the rows at idx of every mask except Imputed, which Clean
// computes after row selection.
func (f Flags) take(idx []int) Flags {
	out := Flags{Missing: pick(f.Missing, idx), Outliers: make([]OutlierFlags, len(f.Outliers))}
	for i, o := range f.Outliers {
		out.Outliers[i] = OutlierFlags{Column: o.Column, Mask: pick(o.Mask, idx)}
	}
	return out
}

// Columns renders the flags as bool columns: missing, outliers in column
// order, imputed.
func (f Flags) Columns() []table.Column {
	cols := make([]table.Column, 0, len(f.Outliers)+2)
	cols = append(cols, boolColumn(FlagMissing, f.Missing))
	for _, o := range f.Outliers {
		cols = append(cols, boolColumn(FlagOutlierPrefix+o.Column, o.Mask))
	}
	return append(cols, boolColumn(FlagImputed, f.Imputed))
}

func boolColumn(name string, mask []bool) table.Column {
	cells := make([]table.Value, len(mask))
	for i, b := range mask {
		cells[i] = table.Bool(b)
	}
	return table.NewColumn(name, cells)
}

func pick(mask []bool, idx []int) []bool {
	out := make([]bool, len(idx))
	for i, j := range idx {
		out[i] = mask[j]
	}
	return out
}

func countTrue(mask []bool) int {
	n := 0
	for _, b := range mask {
		if b {
			n++
		}
	}
	return n
}

// missingRows marks rows with at least one missing cell.
func missingRows(t *table.Table) []bool {
	mask := make([]bool, t.NumRows())
	for _, c := range t.Columns() {
		for i := 0; i < c.Len(); i++ {
			if c.At(i).IsMissing() {
				mask[i] = true
			}
		}
	}
	return mask
}
