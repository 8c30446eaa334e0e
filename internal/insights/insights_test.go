package insights

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dqpipe/internal/chart"
	"dqpipe/internal/table"
)

func day(y int, m time.Month, d int) table.Value {
	return table.Time(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func rainTable() *table.Table {
	return table.MustNew(
		table.NewColumn("rain_mm", []table.Value{table.Number(10), table.Number(1000), table.Number(12), table.Number(12)}),
		table.NewColumn("district", []table.Value{table.Text("north"), table.Text("north"), table.Text("south"), table.Missing()}),
		table.NewColumn("_qc_missing", []table.Value{table.Bool(false), table.Bool(false), table.Bool(false), table.Bool(true)}),
	)
}

func TestGenerateGenericPath(t *testing.T) {
	t.Parallel()
	rep, charts := Generate(rainTable(), Options{})
	require.Equal(t, Label, rep.Label)
	require.Equal(t, 4, rep.Rows)

	require.Len(t, charts, 1)
	require.Equal(t, chart.KindHistograms, charts[0].Kind)
	require.Equal(t, HistogramFile, charts[0].File)
	require.Equal(t, "rain_mm", charts[0].Series[0].Name)
	require.Nil(t, rep.Aggregate)

	require.Equal(t, []FlagCount{{Column: "_qc_missing", True: 1, Rows: 4}}, rep.Flags)
	require.Len(t, rep.Categories, 1)
	require.Equal(t, "district", rep.Categories[0].Column)
	require.Equal(t, []Category{
		{Value: "north", Count: 2},
		{Value: "south", Count: 1},
		{Value: "", Missing: true, Count: 1},
	}, rep.Categories[0].Values)
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	d := Describe(rainTable())
	require.Len(t, d, 3)
	require.Equal(t, 4, d[0].Count)
	require.NotNil(t, d[0].Summary)
	require.Equal(t, 10.0, d[0].Summary.Min)
	require.Equal(t, 1000.0, d[0].Summary.Max)
	require.Equal(t, 12.0, d[0].Summary.Median)

	require.Equal(t, 3, d[1].Count)
	require.Equal(t, 2, d[1].Unique)
	require.Equal(t, "north", d[1].Top)
	require.Equal(t, 2, d[1].Freq)
}

func TestMissingness(t *testing.T) {
	t.Parallel()
	in := table.MustNew(table.NewColumn("a", []table.Value{table.Missing(), table.Number(1), table.Number(2)}))
	m := Missingness(in)
	require.Equal(t, 1, m[0].Count)
	require.Equal(t, "33.33", m[0].Percent.String())

	empty := table.MustNew(table.NewColumn("a", nil))
	m = Missingness(empty)
	require.True(t, m[0].Percent.IsZero())
}

func TestOutlierCounts(t *testing.T) {
	t.Parallel()
	in := table.MustNew(
		table.NewColumn("v", []table.Value{table.Number(1), table.Number(2), table.Number(3), table.Number(4), table.Number(100)}),
		table.NewColumn("flat", []table.Value{table.Number(5), table.Number(5), table.Number(5), table.Number(5), table.Number(5)}),
		table.NewColumn("s", []table.Value{table.Text("a"), table.Text("b"), table.Text("c"), table.Text("d"), table.Text("e")}),
	)
	require.Equal(t, []Outliers{{"v", 1}, {"flat", 0}}, OutlierCounts(in, ""))
}

func TestTopKTiesKeepFirstOccurrence(t *testing.T) {
	t.Parallel()
	c := table.NewColumn("c", []table.Value{
		table.Text("b"), table.Text("a"), table.Text("c"), table.Text("a"), table.Text("b"),
		table.Text("d"), table.Text("e"), table.Text("f"),
	})
	got := TopK(c, 5)
	require.Equal(t, []Category{
		{Value: "b", Count: 2}, {Value: "a", Count: 2},
		{Value: "c", Count: 1}, {Value: "d", Count: 1}, {Value: "e", Count: 1},
	}, got)
}

func TestGenerateNoNumericNoChart(t *testing.T) {
	t.Parallel()
	in := table.MustNew(table.NewColumn("s", []table.Value{table.Text("a")}))
	_, charts := Generate(in, Options{})
	require.Empty(t, charts)
}

func TestGenerateNilTable(t *testing.T) {
	t.Parallel()
	rep, charts := Generate(nil, Options{})
	require.Equal(t, 0, rep.Rows)
	require.Equal(t, 0, rep.Cols)
	require.Empty(t, rep.Describe)
	require.Nil(t, rep.Aggregate)
	require.Empty(t, charts)
}

func TestRoleAggregate(t *testing.T) {
	t.Parallel()
	in := table.MustNew(
		table.NewColumn("obs_date", []table.Value{day(2024, 1, 5), day(2024, 1, 20), day(2024, 3, 2), day(2024, 3, 9), table.Missing()}),
		table.NewColumn("rain_mm", []table.Value{table.Number(10), table.Number(5), table.Number(30), table.Missing(), table.Number(7)}),
		table.NewColumn("district", []table.Value{table.Text("south"), table.Text("north"), table.Text("north"), table.Text("east"), table.Text("south")}),
	)
	rep, charts := Generate(in, Options{})
	require.NotNil(t, rep.Aggregate)
	agg := rep.Aggregate
	require.Equal(t, "rain_mm", agg.Measure)
	require.Equal(t, "district", agg.Group)
	require.Equal(t, "obs_date", agg.Date)

	require.Equal(t, []GroupMean{
		{Group: "north", Mean: 17.5, Count: 2},
		{Group: "south", Mean: 8.5, Count: 2},
	}, agg.GroupMeans)

	require.Len(t, agg.Monthly, 3)
	require.Equal(t, 15.0, agg.Monthly[0].Sum)
	require.Equal(t, 0.0, agg.Monthly[1].Sum)
	require.Equal(t, time.February, agg.Monthly[1].Month.Month())
	require.Equal(t, 30.0, agg.Monthly[2].Sum)

	require.Len(t, charts, 1)
	require.Equal(t, chart.KindLine, charts[0].Kind)
	require.Equal(t, "monthly_rain_mm.png", charts[0].File)
}

func TestGroupMeansTopGroupsCap(t *testing.T) {
	t.Parallel()
	var dates, rain, groups []table.Value
	for i := 0; i < 15; i++ {
		dates = append(dates, day(2024, 1, 1+i))
		rain = append(rain, table.Number(float64(i)))
		groups = append(groups, table.Text(string(rune('a'+i))))
	}
	in := table.MustNew(
		table.NewColumn("date", dates),
		table.NewColumn("rain", rain),
		table.NewColumn("region", groups),
	)
	rep, _ := Generate(in, Options{TopGroups: 3})
	require.Len(t, rep.Aggregate.GroupMeans, 3)
	require.Equal(t, "o", rep.Aggregate.GroupMeans[0].Group)
}

func TestSummaryOfSingleValue(t *testing.T) {
	t.Parallel()
	in := table.MustNew(table.NewColumn("v", []table.Value{table.Number(3)}))
	d := Describe(in)
	require.True(t, math.IsNaN(d[0].Summary.Std))
}
