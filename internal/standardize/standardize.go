// Package standardize normalizes column names and converts columns whose
// names or contents mark them as datetimes or percentages.
package standardize

import (
	"fmt"
	"strconv"

	"dqpipe/internal/probe"
	"dqpipe/internal/table"
	"dqpipe/internal/transformer/builtin"
)

// MonthSuffix is appended to a datetime column's name to form its derived
// year-month column.
const MonthSuffix = "_yyyy_mm"

// DetectorConfig names conversions requested through Options.Coerce.
const DetectorConfig = "config"

// Options tune Standardize.
type Options struct {
	FoldAccents bool
	Preference  probe.Preference
	// Classifier overrides the default detector list when non-nil.
	Classifier probe.Classifier
	SampleSize int
	Seed       uint64
	// Coerce maps standardized column names to "number" or "datetime".
	// Listed columns skip detection and are converted unconditionally.
	Coerce map[string]string
}

// Collision records a normalized name that was already taken.
type Collision struct {
	Original   string `json:"original"`
	Normalized string `json:"normalized"`
	Resolved   string `json:"resolved"`
}

// Conversion records one accepted column conversion.
type Conversion struct {
	Column   string    `json:"column"`
	Tag      probe.Tag `json:"tag"`
	Detector string    `json:"detector"`
	// Coerced counts non-missing cells that became missing.
	Coerced int `json:"coerced"`
	// Derived names the year-month column for datetime conversions.
	Derived string `json:"derived,omitempty"`
}

// Rejection records a detector hit whose conversion produced no values.
type Rejection struct {
	Column   string    `json:"column"`
	Tag      probe.Tag `json:"tag"`
	Detector string    `json:"detector"`
}

// ColumnKind is a column name with its kind after standardization.
type ColumnKind struct {
	Column string `json:"column"`
	Kind   string `json:"kind"`
}

// Report describes one Standardize call.
type Report struct {
	SchemaMap  SchemaMap    `json:"schema_map"`
	Kinds      []ColumnKind `json:"kinds"`
	Dates      []Conversion `json:"dates"`
	Percents   []Conversion `json:"percents"`
	Explicit   []Conversion `json:"explicit"`
	Derived    []string     `json:"derived"`
	Collisions []Collision  `json:"collisions"`
	Rejected   []Rejection  `json:"rejected"`
}

// DateColumns returns the names of the converted datetime columns.
func (r Report) DateColumns() []string {
	out := make([]string, len(r.Dates))
	for i, c := range r.Dates {
		out[i] = c.Column
	}
	return out
}

// PercentColumns returns the names of the converted percent columns.
func (r Report) PercentColumns() []string {
	out := make([]string, len(r.Percents))
	for i, c := range r.Percents {
		out[i] = c.Column
	}
	return out
}

// Standardize renames every column of t to its normalized form, then runs
// the classifier over each column and applies the first conversion that
// yields at least one value. Columns named in opts.Coerce are converted to
// the requested kind instead. Datetime conversions append a derived
// year-month column after the existing columns.
func Standardize(t *table.Table, opts Options) (*table.Table, SchemaMap, Report, error) {
	if t == nil {
		return nil, SchemaMap{}, Report{}, fmt.Errorf("standardize: nil table")
	}
	classifier := opts.Classifier
	if classifier == nil {
		classifier = probe.DefaultClassifier(opts.SampleSize, opts.Seed)
	}
	pref := opts.Preference
	if pref == "" {
		pref = probe.PreferAuto
	}

	rep := Report{
		Kinds:      []ColumnKind{},
		Dates:      []Conversion{},
		Percents:   []Conversion{},
		Explicit:   []Conversion{},
		Derived:    []string{},
		Collisions: []Collision{},
		Rejected:   []Rejection{},
	}

	used := make(map[string]bool, t.NumCols())
	sm := newSchemaMap(t.NumCols())
	names := make([]string, t.NumCols())
	for i, orig := range t.Names() {
		norm := probe.NormalizeName(orig, opts.FoldAccents)
		if norm == "" {
			norm = "unnamed_" + strconv.Itoa(i)
		}
		name := claim(used, norm)
		if name != norm {
			rep.Collisions = append(rep.Collisions, Collision{Original: orig, Normalized: norm, Resolved: name})
		}
		sm.add(orig, name)
		names[i] = name
	}
	renamed, err := t.Rename(names)
	if err != nil {
		return nil, SchemaMap{}, Report{}, fmt.Errorf("standardize: rename: %w", err)
	}

	cols := renamed.Columns()
	var derived []table.Column
	for i, c := range cols {
		if _, ok := opts.Coerce[c.Name()]; ok {
			continue
		}
		for _, m := range classifier.Classify(c.Name(), c) {
			next, coerced, ok := convert(c, m.Tag, pref)
			if !ok {
				rep.Rejected = append(rep.Rejected, Rejection{Column: c.Name(), Tag: m.Tag, Detector: m.Detector})
				continue
			}
			cols[i] = next
			conv := Conversion{Column: c.Name(), Tag: m.Tag, Detector: m.Detector, Coerced: coerced}
			switch m.Tag {
			case probe.TagDatetime:
				month := YearMonth(next, claim(used, c.Name()+MonthSuffix))
				conv.Derived = month.Name()
				derived = append(derived, month)
				rep.Derived = append(rep.Derived, month.Name())
				rep.Dates = append(rep.Dates, conv)
			case probe.TagPercent:
				rep.Percents = append(rep.Percents, conv)
			}
			break
		}
	}

	base, err := table.New(cols...)
	if err != nil {
		return nil, SchemaMap{}, Report{}, fmt.Errorf("standardize: build: %w", err)
	}
	if len(opts.Coerce) > 0 {
		coerced, err := builtin.Coerce{Types: opts.Coerce, Preference: pref}.Apply(base)
		if err != nil {
			return nil, SchemaMap{}, Report{}, fmt.Errorf("standardize: %w", err)
		}
		for i, c := range coerced.Columns() {
			typ, ok := opts.Coerce[c.Name()]
			if !ok {
				continue
			}
			conv := Conversion{
				Column:   c.Name(),
				Tag:      probe.Tag(typ),
				Detector: DetectorConfig,
				Coerced:  c.MissingCount() - base.Column(i).MissingCount(),
			}
			if typ == "datetime" {
				month := YearMonth(c, claim(used, c.Name()+MonthSuffix))
				conv.Derived = month.Name()
				derived = append(derived, month)
				rep.Derived = append(rep.Derived, month.Name())
			}
			rep.Explicit = append(rep.Explicit, conv)
		}
		base = coerced
	}

	out, err := base.WithColumns(derived...)
	if err != nil {
		return nil, SchemaMap{}, Report{}, fmt.Errorf("standardize: build: %w", err)
	}
	for _, c := range out.Columns() {
		rep.Kinds = append(rep.Kinds, ColumnKind{Column: c.Name(), Kind: c.Kind().String()})
	}
	rep.SchemaMap = sm
	return out, sm, rep, nil
}

// convert applies the conversion for tag and reports whether it was
// accepted. A datetime conversion that parses no cell is rejected; percent
// conversions always apply, leaving non-numeric cells missing.
func convert(c table.Column, tag probe.Tag, pref probe.Preference) (table.Column, int, bool) {
	switch tag {
	case probe.TagDatetime:
		next, coerced := builtin.ToTime(c, pref)
		if next.MissingCount() == next.Len() {
			return c, 0, false
		}
		return next, coerced, true
	case probe.TagPercent:
		next, coerced := builtin.ToNumber(c)
		return next, coerced, true
	default:
		return c, 0, false
	}
}

// YearMonth derives a text column named name holding each datetime's
// "YYYY-MM" form.
func YearMonth(c table.Column, name string) table.Column {
	cells := make([]table.Value, c.Len())
	for i := range cells {
		if ts, ok := c.At(i).AsTime(); ok {
			cells[i] = table.Text(ts.Format("2006-01"))
		} else {
			cells[i] = table.Missing()
		}
	}
	return table.NewColumn(name, cells)
}

// claim reserves name in used, suffixing _2, _3, ... when it is taken.
func claim(used map[string]bool, name string) string {
	if !used[name] {
		used[name] = true
		return name
	}
	for n := 2; ; n++ {
		cand := name + "_" + strconv.Itoa(n)
		if !used[cand] {
			used[cand] = true
			return cand
		}
	}
}
