// Package builtin contains reusable table transformers: row de-duplication,
// gap filling, equality filtering and type coercion.
package builtin

import (
	"strings"

	"dqpipe/internal/table"

	"github.com/zeebo/xxh3"
)

// DeDup removes rows whose key repeats an earlier (or later) row.
//
// The key is the tuple of cells in Keys, or the whole row when Keys is
// empty. Cells compare by kind and payload, so missing equals missing.
// Policy selects the survivor:
//
//   - "keep-first": keep the earliest occurrence (default)
//   - "keep-last" : keep the latest occurrence
//
// Survivors keep their original relative order.
type DeDup struct {
	Keys   []string
	Policy string
}

// Apply returns t without the duplicate rows.
func (d DeDup) Apply(t *table.Table) (*table.Table, error) {
	dup, err := d.Mask(t)
	if err != nil {
		return nil, err
	}
	keep := make([]int, 0, len(dup))
	for i, isDup := range dup {
		if !isDup {
			keep = append(keep, i)
		}
	}
	if len(keep) == t.NumRows() {
		return t, nil
	}
	return t.SelectRows(keep), nil
}

// Mask marks the rows Apply would drop.
func (d DeDup) Mask(t *table.Table) ([]bool, error) {
	cols, err := keyColumns(t, d.Keys)
	if err != nil {
		return nil, err
	}
	n := t.NumRows()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if strings.EqualFold(strings.TrimSpace(d.Policy), "keep-last") {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}

	dup := make([]bool, n)
	buckets := make(map[uint64][]int, n)
	var buf []byte
	for _, i := range order {
		buf = rowKey(buf[:0], cols, i)
		h := xxh3.Hash(buf)
		seen := false
		for _, j := range buckets[h] {
			if sameRow(cols, i, j) {
				seen = true
				break
			}
		}
		if seen {
			dup[i] = true
			continue
		}
		buckets[h] = append(buckets[h], i)
	}
	return dup, nil
}

// CountDuplicates returns how many rows of t repeat an earlier row across
// all columns.
func CountDuplicates(t *table.Table) int {
	dup, _ := DeDup{}.Mask(t)
	n := 0
	for _, d := range dup {
		if d {
			n++
		}
	}
	return n
}

func keyColumns(t *table.Table, keys []string) ([]table.Column, error) {
	if len(keys) == 0 {
		return t.Columns(), nil
	}
	cols := make([]table.Column, 0, len(keys))
	for _, k := range keys {
		c, ok := t.ColumnByName(k)
		if !ok {
			return nil, errUnknownColumn("dedup", k)
		}
		cols = append(cols, c)
	}
	return cols, nil
}

func rowKey(buf []byte, cols []table.Column, i int) []byte {
	for _, c := range cols {
		buf = c.At(i).AppendKey(buf)
	}
	return buf
}

func sameRow(cols []table.Column, i, j int) bool {
	for _, c := range cols {
		if !c.At(i).Equal(c.At(j)) {
			return false
		}
	}
	return true
}
