// Package insights computes descriptive statistics, missingness, outlier
// counts, category frequencies and domain aggregates for the final table,
// and chooses which chart to draw.
package insights

import (
	"sort"

	"github.com/shopspring/decimal"

	"dqpipe/internal/chart"
	"dqpipe/internal/clean"
	"dqpipe/internal/stats"
	"dqpipe/internal/table"
)

// Label names the scope of the descriptive statistics.
const Label = "full-table"

// HistogramFile is the generic chart artifact name.
const HistogramFile = "numeric_distributions.png"

// Options tune Generate.
type Options struct {
	TopK          int
	TopGroups     int
	HistogramBins int
	Method        stats.Method
	// Aggregates run in order; the first that applies provides the domain
	// aggregate. Nil means a RoleAggregate with default keywords.
	Aggregates []Aggregate
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = 5
	}
	if o.TopGroups <= 0 {
		o.TopGroups = 10
	}
	if o.HistogramBins <= 0 {
		o.HistogramBins = 20
	}
	if o.Method == "" {
		o.Method = stats.Linear
	}
	if o.Aggregates == nil {
		o.Aggregates = []Aggregate{RoleAggregate{}}
	}
	return o
}

// ColumnStats describes one column. Numeric columns fill Summary; the
// others fill Unique, Top and Freq.
type ColumnStats struct {
	Column  string         `json:"column"`
	Kind    string         `json:"kind"`
	Count   int            `json:"count"`
	Summary *stats.Summary `json:"summary,omitempty"`
	Unique  int            `json:"unique,omitempty"`
	Top     string         `json:"top,omitempty"`
	Freq    int            `json:"freq,omitempty"`
}

// Missing is one row of the missingness table.
type Missing struct {
	Column  string          `json:"column"`
	Count   int             `json:"count"`
	Percent decimal.Decimal `json:"percent"`
}

// Outliers is one row of the outlier-count table.
type Outliers struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// Category is one frequency entry. Missing marks the missing category.
type Category struct {
	Value   string `json:"value"`
	Missing bool   `json:"missing,omitempty"`
	Count   int    `json:"count"`
}

// TopValues is the top-K table of one categorical column.
type TopValues struct {
	Column string     `json:"column"`
	Values []Category `json:"values"`
}

// FlagCount is the number of true cells in one quality flag column.
type FlagCount struct {
	Column string `json:"column"`
	True   int    `json:"true"`
	Rows   int    `json:"rows"`
}

// Report is the insight bundle for one run.
type Report struct {
	Label      string        `json:"label"`
	Rows       int           `json:"rows"`
	Cols       int           `json:"cols"`
	Describe   []ColumnStats `json:"describe"`
	Missing    []Missing     `json:"missing"`
	Outliers   []Outliers    `json:"outliers"`
	Categories []TopValues   `json:"categories"`
	Flags      []FlagCount   `json:"flags"`
	Aggregate  *Result       `json:"aggregate,omitempty"`
	Charts     []chart.Spec  `json:"-"`
}

// Generate computes the insight report of t and the charts to draw. The
// first applicable aggregate supplies the domain chart; without one, a
// histogram grid over the numeric columns is requested. A table with no
// numeric columns and no aggregate yields no chart. A nil table reports as
// an empty one.
func Generate(t *table.Table, opts Options) (Report, []chart.Spec) {
	if t == nil {
		t = table.MustNew()
	}
	opts = opts.withDefaults()
	rep := Report{
		Label:      Label,
		Rows:       t.NumRows(),
		Cols:       t.NumCols(),
		Describe:   Describe(t),
		Missing:    Missingness(t),
		Outliers:   OutlierCounts(t, opts.Method),
		Categories: []TopValues{},
		Flags:      []FlagCount{},
	}
	for _, c := range t.Columns() {
		switch {
		case c.Kind() == table.KindBool && clean.IsFlagColumn(c.Name()):
			rep.Flags = append(rep.Flags, FlagCount{Column: c.Name(), True: trueCount(c), Rows: c.Len()})
		case !c.IsNumeric():
			rep.Categories = append(rep.Categories, TopValues{Column: c.Name(), Values: TopK(c, opts.TopK)})
		}
	}

	var charts []chart.Spec
	for _, agg := range opts.Aggregates {
		res, ok := agg.Aggregate(t, opts)
		if !ok {
			continue
		}
		rep.Aggregate = res
		if res.Chart != nil {
			charts = append(charts, *res.Chart)
		}
		break
	}
	if rep.Aggregate == nil {
		if spec, ok := histogramSpec(t, opts.HistogramBins); ok {
			charts = append(charts, spec)
		}
	}
	rep.Charts = charts
	return rep, charts
}

// Describe summarizes every column of t.
func Describe(t *table.Table) []ColumnStats {
	out := make([]ColumnStats, 0, t.NumCols())
	for _, c := range t.Columns() {
		cs := ColumnStats{Column: c.Name(), Kind: c.Kind().String(), Count: c.Len() - c.MissingCount()}
		if c.IsNumeric() {
			s := stats.Summarize(c.Numbers())
			cs.Summary = &s
		} else {
			freq := frequencies(c, false)
			cs.Unique = len(freq)
			if len(freq) > 0 {
				cs.Top, cs.Freq = freq[0].Value, freq[0].Count
			}
		}
		out = append(out, cs)
	}
	return out
}

// Missingness counts missing cells per column. The percentage is taken
// against the row count, rounded to two decimals, and 0 for an empty table.
func Missingness(t *table.Table) []Missing {
	out := make([]Missing, 0, t.NumCols())
	rows := decimal.NewFromInt(int64(t.NumRows()))
	for _, c := range t.Columns() {
		n := c.MissingCount()
		pct := decimal.Zero
		if t.NumRows() > 0 {
			pct = decimal.NewFromInt(int64(n) * 100).Div(rows).Round(2)
		}
		out = append(out, Missing{Column: c.Name(), Count: n, Percent: pct})
	}
	return out
}

// OutlierCounts applies the IQR rule to every numeric column of t.
func OutlierCounts(t *table.Table, m stats.Method) []Outliers {
	out := []Outliers{}
	for _, c := range t.Columns() {
		if c.IsNumeric() {
			out = append(out, Outliers{Column: c.Name(), Count: stats.OutlierCount(c, m)})
		}
	}
	return out
}

// TopK returns the k most frequent values of c, counting missing as its
// own category. Ties keep first-occurrence order.
func TopK(c table.Column, k int) []Category {
	freq := frequencies(c, true)
	if len(freq) > k {
		freq = freq[:k]
	}
	return freq
}

// frequencies counts values in first-occurrence order, then sorts by count
// descending with a stable sort.
func frequencies(c table.Column, withMissing bool) []Category {
	index := map[string]int{}
	var out []Category
	for i := 0; i < c.Len(); i++ {
		v := c.At(i)
		if v.IsMissing() && !withMissing {
			continue
		}
		key := v.String()
		if v.IsMissing() {
			key = "\x00missing"
		}
		j, ok := index[key]
		if !ok {
			j = len(out)
			index[key] = j
			out = append(out, Category{Value: v.String(), Missing: v.IsMissing()})
		}
		out[j].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if out == nil {
		out = []Category{}
	}
	return out
}

func trueCount(c table.Column) int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if b, ok := c.At(i).AsBool(); ok && b {
			n++
		}
	}
	return n
}

func histogramSpec(t *table.Table, bins int) (chart.Spec, bool) {
	var series []chart.Series
	for _, c := range t.Columns() {
		if !c.IsNumeric() {
			continue
		}
		vals := c.Numbers()
		if len(vals) == 0 {
			continue
		}
		series = append(series, chart.Series{Name: c.Name(), Values: vals})
	}
	if len(series) == 0 {
		return chart.Spec{}, false
	}
	return chart.Spec{
		Kind:   chart.KindHistograms,
		File:   HistogramFile,
		Title:  "Numeric distributions",
		Bins:   bins,
		Series: series,
	}, true
}
