package insights

import (
	"sort"
	"strings"
	"time"

	"dqpipe/internal/chart"
	"dqpipe/internal/clean"
	"dqpipe/internal/probe"
	"dqpipe/internal/stats"
	"dqpipe/internal/table"
)

// Aggregate is a pluggable domain aggregate. It reports false when the
// table lacks the columns it needs.
type Aggregate interface {
	Name() string
	Aggregate(t *table.Table, opts Options) (*Result, bool)
}

// GroupMean is the mean measurement of one group.
type GroupMean struct {
	Group string  `json:"group"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// MonthTotal is the summed measurement of one calendar month.
type MonthTotal struct {
	Month time.Time `json:"month"`
	Sum   float64   `json:"sum"`
}

// Result is the outcome of a domain aggregate.
type Result struct {
	Name       string       `json:"name"`
	Measure    string       `json:"measure"`
	Group      string       `json:"group"`
	Date       string       `json:"date"`
	GroupMeans []GroupMean  `json:"group_means"`
	Monthly    []MonthTotal `json:"monthly"`
	Chart      *chart.Spec  `json:"-"`
}

// Default role keywords, matched as lowercase name substrings.
var (
	DefaultMeasureKeywords = []string{"rain", "precip", "amount", "value", "total", "sales", "revenue", "price", "qty", "quantity"}
	DefaultGroupKeywords   = []string{"district", "region", "group", "category", "city", "station", "state", "country", "segment"}
)

// RoleAggregate finds a numeric measurement column, a text group column and
// a datetime column by name and reports the group-wise mean of the
// measurement plus its monthly sum.
type RoleAggregate struct {
	MeasureKeywords []string
	GroupKeywords   []string
	DateKeywords    []string
}

func (RoleAggregate) Name() string { return "role" }

func (a RoleAggregate) Aggregate(t *table.Table, opts Options) (*Result, bool) {
	measure, ok := findColumn(t, orDefault(a.MeasureKeywords, DefaultMeasureKeywords), func(c table.Column) bool {
		return c.IsNumeric() && len(c.Numbers()) > 0
	})
	if !ok {
		return nil, false
	}
	group, ok := findColumn(t, orDefault(a.GroupKeywords, DefaultGroupKeywords), func(c table.Column) bool {
		return c.Kind() == table.KindText
	})
	if !ok {
		return nil, false
	}
	date, ok := findColumn(t, orDefault(a.DateKeywords, probe.DefaultDateKeywords), func(c table.Column) bool {
		return c.Kind() == table.KindTime
	})
	if !ok {
		return nil, false
	}
	monthly := MonthlySum(measure, date)
	if len(monthly) == 0 {
		return nil, false
	}

	topGroups := opts.TopGroups
	if topGroups <= 0 {
		topGroups = 10
	}
	means := GroupMeans(measure, group)
	if len(means) > topGroups {
		means = means[:topGroups]
	}

	points := make([]chart.Point, len(monthly))
	for i, m := range monthly {
		points[i] = chart.Point{X: m.Month, Y: m.Sum}
	}
	spec := &chart.Spec{
		Kind:   chart.KindLine,
		File:   "monthly_" + measure.Name() + ".png",
		Title:  "Monthly " + measure.Name(),
		XLabel: "month",
		YLabel: measure.Name(),
		Points: points,
	}
	return &Result{
		Name:       a.Name(),
		Measure:    measure.Name(),
		Group:      group.Name(),
		Date:       date.Name(),
		GroupMeans: means,
		Monthly:    monthly,
		Chart:      spec,
	}, true
}

// GroupMeans averages measure per group value, skipping missing groups and
// groups without a measurement. Results sort by mean descending, ties in
// first-occurrence order.
func GroupMeans(measure, group table.Column) []GroupMean {
	index := map[string]int{}
	var vals [][]float64
	var out []GroupMean
	for i := 0; i < group.Len(); i++ {
		g := group.At(i)
		f, ok := measure.At(i).AsNumber()
		if g.IsMissing() || !ok {
			continue
		}
		key := g.String()
		j, seen := index[key]
		if !seen {
			j = len(out)
			index[key] = j
			out = append(out, GroupMean{Group: key})
			vals = append(vals, nil)
		}
		vals[j] = append(vals[j], f)
	}
	for j := range out {
		out[j].Mean = stats.Mean(vals[j])
		out[j].Count = len(vals[j])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	return out
}

// MonthlySum totals measure per calendar month of date, from the first to
// the last month present, with empty months as 0.
func MonthlySum(measure, date table.Column) []MonthTotal {
	sums := map[time.Time]float64{}
	var first, last time.Time
	for i := 0; i < date.Len(); i++ {
		ts, ok := date.At(i).AsTime()
		if !ok {
			continue
		}
		m := time.Date(ts.Year(), ts.Month(), 1, 0, 0, 0, 0, time.UTC)
		if first.IsZero() || m.Before(first) {
			first = m
		}
		if last.IsZero() || m.After(last) {
			last = m
		}
		if f, ok := measure.At(i).AsNumber(); ok {
			sums[m] += f
		} else if _, seen := sums[m]; !seen {
			sums[m] = 0
		}
	}
	if first.IsZero() {
		return nil
	}
	var out []MonthTotal
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		out = append(out, MonthTotal{Month: m, Sum: sums[m]})
	}
	return out
}

func findColumn(t *table.Table, keywords []string, accept func(table.Column) bool) (table.Column, bool) {
	for _, c := range t.Columns() {
		if clean.IsFlagColumn(c.Name()) || !accept(c) {
			continue
		}
		name := strings.ToLower(c.Name())
		for _, kw := range keywords {
			if kw != "" && strings.Contains(name, strings.ToLower(kw)) {
				return c, true
			}
		}
	}
	return table.Column{}, false
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
