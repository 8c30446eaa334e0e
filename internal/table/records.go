package table

import (
	"fmt"
	"strconv"
	"strings"
)

// naTokens are the cell spellings read as missing, matching common
// spreadsheet and dataframe exports.
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsNA reports whether s spells a missing value.
func IsNA(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

// ParseNumber parses s as a float, ignoring surrounding whitespace.
func ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// FromRecords builds a Table from a header and string rows.
//
// Each column is typed as a whole: number when every non-missing cell parses
// as a float, bool when every non-missing cell is true/false, text otherwise.
// Empty header cells become "Unnamed: <i>" and repeated names get ".1", ".2"
// suffixes. Short rows are padded with missing cells; long rows are truncated.
func FromRecords(header []string, rows [][]string) (*Table, error) {
	names := uniqueHeader(header)
	cols := make([]Column, len(names))
	raw := make([]string, len(rows))
	for j, name := range names {
		for i, r := range rows {
			if j < len(r) {
				raw[i] = r[j]
			} else {
				raw[i] = ""
			}
		}
		cols[j] = newColumn(name, typeCells(raw))
	}
	t, err := New(cols...)
	if err != nil {
		return nil, fmt.Errorf("table: from records: %w", err)
	}
	if len(cols) == 0 {
		t.rows = len(rows)
	}
	return t, nil
}

func typeCells(raw []string) []Value {
	cells := make([]Value, len(raw))
	allNum, allBool := true, true
	for _, s := range raw {
		if IsNA(s) {
			continue
		}
		if _, ok := ParseNumber(s); !ok {
			allNum = false
		}
		if _, ok := parseBool(s); !ok {
			allBool = false
		}
		if !allNum && !allBool {
			break
		}
	}
	for i, s := range raw {
		switch {
		case IsNA(s):
			cells[i] = Missing()
		case allNum:
			f, _ := ParseNumber(s)
			cells[i] = Number(f)
		case allBool:
			b, _ := parseBool(s)
			cells[i] = Bool(b)
		default:
			cells[i] = Text(s)
		}
	}
	return cells
}

func uniqueHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	next := make(map[string]int)
	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		name := h
		for used[name] {
			next[h]++
			name = fmt.Sprintf("%s.%d", h, next[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// Records renders t as a header plus string rows using Value.String.
func Records(t *Table) (header []string, rows [][]string) {
	header = t.Names()
	rows = make([][]string, t.NumRows())
	for i := range rows {
		r := make([]string, t.NumCols())
		for j, c := range t.cols {
			r[j] = c.cells[i].String()
		}
		rows[i] = r
	}
	return header, rows
}
