// Package clean deduplicates rows, imputes gaps and attaches per-row
// quality flags.
package clean

import (
	"context"
	"fmt"
	"log"

	"dqpipe/internal/advisor"
	"dqpipe/internal/stats"
	"dqpipe/internal/table"
	"dqpipe/internal/transformer/builtin"
)

// Options tune Clean.
type Options struct {
	// Advisor is consulted with a row sample before cleaning. Nil skips it.
	Advisor advisor.Advisor
	// SampleRows caps the advisor sample; 0 means 100.
	SampleRows int
	// Method computes the IQR quartiles; empty means linear.
	Method stats.Method
	// Logf receives advisor outcomes; nil means log.Printf.
	Logf func(format string, args ...any)

	// DedupKeys restricts the duplicate key to these columns; empty
	// compares whole rows.
	DedupKeys []string
	// DedupPolicy is "keep-first" (default) or "keep-last".
	DedupPolicy string
	// FillColumns limits the gap fill; empty fills every column.
	FillColumns []string
}

// ColumnMissing is the missing count of one column before and after Clean.
type ColumnMissing struct {
	Column string `json:"column"`
	Before int    `json:"before"`
	After  int    `json:"after"`
}

// OutlierCount is the number of flagged rows of one numeric column in the
// cleaned table.
type OutlierCount struct {
	Column string `json:"column"`
	Flag   string `json:"flag"`
	Count  int    `json:"count"`
}

// Report describes one Clean call.
type Report struct {
	RowsBefore        int             `json:"rows_before"`
	RowsAfter         int             `json:"rows_after"`
	DuplicatesRemoved int             `json:"duplicates_removed"`
	DuplicateRows     int             `json:"duplicate_rows"`
	DedupKeys         []string        `json:"dedup_keys"`
	DedupPolicy       string          `json:"dedup_policy"`
	FillColumns       []string        `json:"fill_columns"`
	MissingBefore     int             `json:"missing_before"`
	MissingAfter      int             `json:"missing_after"`
	Columns           []ColumnMissing `json:"columns"`
	Outliers          []OutlierCount  `json:"outliers"`
	RowsWithMissing   int             `json:"rows_with_missing"`
	RowsImputed       int             `json:"rows_imputed"`
	DroppedFlags      []string        `json:"dropped_flags"`
	Method            stats.Method    `json:"quantile_method"`
	Notes             []string        `json:"notes"`
}

// Notes explaining the flag columns.
var flagNotes = []string{
	"`" + FlagMissing + "`: row had at least one missing value before cleaning.",
	"`" + FlagOutlierPrefix + "<col>`: value outside [Q1 - 1.5*IQR, Q3 + 1.5*IQR] before cleaning; constant columns are never flagged and columns without values get no flag.",
	"`" + FlagImputed + "`: at least one cell of the row was filled by forward or backward fill.",
}

// Clean drops stale flag columns, computes missing and outlier flags on the
// incoming rows, removes duplicate rows (whole rows keeping the first,
// unless opts names keys or keep-last), fills gaps forward then backward,
// and appends the flag columns.
func Clean(ctx context.Context, t *table.Table, opts Options) (*table.Table, Report, error) {
	if t == nil {
		return nil, Report{}, fmt.Errorf("clean: nil table")
	}
	if err := ctx.Err(); err != nil {
		return nil, Report{}, fmt.Errorf("clean: %w", err)
	}
	method := opts.Method
	if method == "" {
		method = stats.Linear
	}
	logf := opts.Logf
	if logf == nil {
		logf = log.Printf
	}

	policy := opts.DedupPolicy
	if policy == "" {
		policy = "keep-first"
	}

	rep := Report{
		DroppedFlags: []string{},
		Outliers:     []OutlierCount{},
		DedupKeys:    append([]string{}, opts.DedupKeys...),
		DedupPolicy:  policy,
		FillColumns:  append([]string{}, opts.FillColumns...),
		Method:       method,
		Notes:        flagNotes,
	}
	for _, name := range t.Names() {
		if IsFlagColumn(name) {
			rep.DroppedFlags = append(rep.DroppedFlags, name)
		}
	}
	in := t
	if len(rep.DroppedFlags) > 0 {
		in = t.DropColumns(IsFlagColumn)
	}

	rep.RowsBefore = in.NumRows()
	rep.DuplicateRows = builtin.CountDuplicates(in)
	before := make([]int, in.NumCols())
	for i, c := range in.Columns() {
		before[i] = c.MissingCount()
		rep.MissingBefore += before[i]
	}

	flags := Flags{Missing: missingRows(in)}
	for _, c := range in.Columns() {
		if c.IsNumeric() && c.MissingCount() < c.Len() {
			flags.Outliers = append(flags.Outliers, OutlierFlags{Column: c.Name(), Mask: stats.OutlierMask(c, method)})
		}
	}

	consult(ctx, opts.Advisor, in, opts.SampleRows, logf)

	dup, err := builtin.DeDup{Keys: opts.DedupKeys, Policy: policy}.Mask(in)
	if err != nil {
		return nil, Report{}, fmt.Errorf("clean: dedup: %w", err)
	}
	keep := make([]int, 0, len(dup))
	for i, d := range dup {
		if !d {
			keep = append(keep, i)
		}
	}
	rep.DuplicatesRemoved = len(dup) - len(keep)
	deduped := in.SelectRows(keep)
	flags = flags.take(keep)

	filled, imputed, err := builtin.Fill{Columns: opts.FillColumns}.ApplyMask(deduped)
	if err != nil {
		return nil, Report{}, fmt.Errorf("clean: fill: %w", err)
	}
	flags.Imputed = imputed

	out, err := filled.WithColumns(flags.Columns()...)
	if err != nil {
		return nil, Report{}, fmt.Errorf("clean: flags: %w", err)
	}

	rep.RowsAfter = out.NumRows()
	rep.Columns = make([]ColumnMissing, in.NumCols())
	for i, c := range filled.Columns() {
		after := c.MissingCount()
		rep.Columns[i] = ColumnMissing{Column: c.Name(), Before: before[i], After: after}
		rep.MissingAfter += after
	}
	for _, o := range flags.Outliers {
		rep.Outliers = append(rep.Outliers, OutlierCount{Column: o.Column, Flag: FlagOutlierPrefix + o.Column, Count: countTrue(o.Mask)})
	}
	rep.RowsWithMissing = countTrue(flags.Missing)
	rep.RowsImputed = countTrue(flags.Imputed)
	return out, rep, nil
}

// consult runs the advisor on a head sample. Its answer, error or panic is
// logged and otherwise discarded.
func consult(ctx context.Context, a advisor.Advisor, t *table.Table, rows int, logf func(string, ...any)) {
	if a == nil {
		return
	}
	if rows <= 0 {
		rows = 100
	}
	defer func() {
		if r := recover(); r != nil {
			logf("clean: advisor panicked: %v", r)
		}
	}()
	advice, err := a.Suggest(ctx, t.Head(rows))
	switch {
	case err != nil:
		logf("clean: advisor unavailable: %v", err)
	case advice == "":
		logf("clean: advisor returned no suggestions")
	default:
		logf("clean: advisor suggestions: %s", advice)
	}
}
