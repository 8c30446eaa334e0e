package clean

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"dqpipe/internal/stats"
	"dqpipe/internal/table"
)

func rainTable() *table.Table {
	return table.MustNew(
		table.NewColumn("rain_mm", []table.Value{table.Number(10), table.Number(1000), table.Number(12), table.Missing()}),
		table.NewColumn("district", []table.Value{table.Text("north"), table.Text("north"), table.Text("south"), table.Text("south")}),
	)
}

func boolsOf(t *testing.T, tb *table.Table, name string) []bool {
	t.Helper()
	c, ok := tb.ColumnByName(name)
	require.True(t, ok, "column %s", name)
	out := make([]bool, c.Len())
	for i := range out {
		b, ok := c.At(i).AsBool()
		require.True(t, ok)
		out[i] = b
	}
	return out
}

type recordingAdvisor struct {
	mu     sync.Mutex
	rows   int
	answer string
	err    error
	panics bool
}

func (r *recordingAdvisor) Suggest(_ context.Context, sample *table.Table) (string, error) {
	r.mu.Lock()
	r.rows = sample.NumRows()
	r.mu.Unlock()
	if r.panics {
		panic("boom")
	}
	return r.answer, r.err
}

func quiet(string, ...any) {}

func TestCleanRainExample(t *testing.T) {
	t.Parallel()
	out, rep, err := Clean(context.Background(), rainTable(), Options{Logf: quiet})
	require.NoError(t, err)

	require.Equal(t, []string{"rain_mm", "district", FlagMissing, "_qc_outlier_rain_mm", FlagImputed}, out.Names())
	rain, _ := out.ColumnByName("rain_mm")
	require.Equal(t, []string{"10", "1000", "12", "12"}, rain.Strings())
	require.Equal(t, []bool{false, false, false, true}, boolsOf(t, out, FlagMissing))
	require.Equal(t, []bool{false, false, false, true}, boolsOf(t, out, FlagImputed))

	require.Equal(t, 4, rep.RowsBefore)
	require.Equal(t, 4, rep.RowsAfter)
	require.Equal(t, 1, rep.MissingBefore)
	require.Equal(t, 0, rep.MissingAfter)
	require.Equal(t, []ColumnMissing{{"rain_mm", 1, 0}, {"district", 0, 0}}, rep.Columns)
}

func TestCleanOutlierMethods(t *testing.T) {
	t.Parallel()
	// Linear quartiles of {10, 12, 1000} are 11 and 506, so the upper fence
	// is 1248.5 and 1000 stays unflagged. Lower quartiles are 10 and 12,
	// putting the fence at 15.
	out, _, err := Clean(context.Background(), rainTable(), Options{Logf: quiet})
	require.NoError(t, err)
	require.Equal(t, []bool{false, false, false, false}, boolsOf(t, out, "_qc_outlier_rain_mm"))

	out, rep, err := Clean(context.Background(), rainTable(), Options{Method: stats.Lower, Logf: quiet})
	require.NoError(t, err)
	require.Equal(t, []bool{false, true, false, false}, boolsOf(t, out, "_qc_outlier_rain_mm"))
	require.Equal(t, []OutlierCount{{Column: "rain_mm", Flag: "_qc_outlier_rain_mm", Count: 1}}, rep.Outliers)
}

func TestCleanFlagsComputedBeforeDedup(t *testing.T) {
	t.Parallel()
	in := table.MustNew(
		table.NewColumn("v", []table.Value{table.Number(1), table.Number(1), table.Missing(), table.Number(3)}),
		table.NewColumn("k", []table.Value{table.Text("a"), table.Text("a"), table.Text("b"), table.Text("c")}),
	)
	out, rep, err := Clean(context.Background(), in, Options{Logf: quiet})
	require.NoError(t, err)
	require.Equal(t, 1, rep.DuplicatesRemoved)
	require.Equal(t, 1, rep.DuplicateRows)
	require.Equal(t, "keep-first", rep.DedupPolicy)
	require.Equal(t, 3, out.NumRows())
	require.Equal(t, []bool{false, true, false}, boolsOf(t, out, FlagMissing))
	require.Equal(t, []bool{false, true, false}, boolsOf(t, out, FlagImputed))
	v, _ := out.ColumnByName("v")
	require.Equal(t, []string{"1", "1", "3"}, v.Strings())
}

func TestCleanAllMissingColumnStaysMissing(t *testing.T) {
	t.Parallel()
	in := table.MustNew(
		table.NewColumn("empty", []table.Value{table.Missing(), table.Missing()}),
		table.NewColumn("k", []table.Value{table.Text("a"), table.Text("b")}),
	)
	out, rep, err := Clean(context.Background(), in, Options{Logf: quiet})
	require.NoError(t, err)
	c, _ := out.ColumnByName("empty")
	require.Equal(t, 2, c.MissingCount())
	require.Equal(t, []bool{false, false}, boolsOf(t, out, FlagImputed))
	_, ok := out.ColumnByName("_qc_outlier_empty")
	require.False(t, ok, "all-missing column must not get an outlier flag")
	require.Empty(t, rep.Outliers)
	require.Equal(t, 2, rep.MissingAfter)
}

func TestCleanHeaderOnlyTable(t *testing.T) {
	t.Parallel()
	in := table.MustNew(
		table.NewColumn("rain_mm", []table.Value{}),
		table.NewColumn("district", []table.Value{}),
	)
	out, rep, err := Clean(context.Background(), in, Options{Logf: quiet})
	require.NoError(t, err)
	require.Equal(t, []string{"rain_mm", "district", FlagMissing, FlagImputed}, out.Names())
	require.Equal(t, 0, out.NumRows())
	require.Empty(t, rep.Outliers)
	require.Equal(t, 0, rep.DuplicatesRemoved)
}

func TestCleanKeyedKeepLast(t *testing.T) {
	t.Parallel()
	in := table.MustNew(
		table.NewColumn("station", []table.Value{table.Text("a"), table.Text("b"), table.Text("a")}),
		table.NewColumn("rain_mm", []table.Value{table.Number(1), table.Missing(), table.Number(3)}),
	)

	out, rep, err := Clean(context.Background(), in, Options{
		Logf:        quiet,
		DedupKeys:   []string{"station"},
		DedupPolicy: "keep-last",
	})
	require.NoError(t, err)
	station, _ := out.ColumnByName("station")
	require.Equal(t, []string{"b", "a"}, station.Strings())
	rain, _ := out.ColumnByName("rain_mm")
	require.Equal(t, []string{"3", "3"}, rain.Strings())
	require.Equal(t, []bool{true, false}, boolsOf(t, out, FlagMissing))
	require.Equal(t, []bool{true, false}, boolsOf(t, out, FlagImputed))

	require.Equal(t, 1, rep.DuplicatesRemoved)
	require.Equal(t, 0, rep.DuplicateRows)
	require.Equal(t, []string{"station"}, rep.DedupKeys)
	require.Equal(t, "keep-last", rep.DedupPolicy)

	_, _, err = Clean(context.Background(), in, Options{Logf: quiet, DedupKeys: []string{"nope"}})
	require.ErrorContains(t, err, "clean: dedup")
}

func TestCleanFillColumns(t *testing.T) {
	t.Parallel()
	in := table.MustNew(
		table.NewColumn("x", []table.Value{table.Number(1), table.Missing(), table.Number(3)}),
		table.NewColumn("y", []table.Value{table.Missing(), table.Text("p"), table.Missing()}),
	)

	out, rep, err := Clean(context.Background(), in, Options{Logf: quiet, FillColumns: []string{"x"}})
	require.NoError(t, err)
	x, _ := out.ColumnByName("x")
	require.Equal(t, []string{"1", "1", "3"}, x.Strings())
	y, _ := out.ColumnByName("y")
	require.Equal(t, 2, y.MissingCount())
	require.Equal(t, []bool{false, true, false}, boolsOf(t, out, FlagImputed))
	require.Equal(t, []ColumnMissing{{"x", 1, 0}, {"y", 2, 2}}, rep.Columns)

	_, _, err = Clean(context.Background(), in, Options{Logf: quiet, FillColumns: []string{"z"}})
	require.ErrorContains(t, err, "clean: fill")
}

func TestCleanDropsStaleFlags(t *testing.T) {
	t.Parallel()
	first, _, err := Clean(context.Background(), rainTable(), Options{Logf: quiet})
	require.NoError(t, err)
	second, rep, err := Clean(context.Background(), first, Options{Logf: quiet})
	require.NoError(t, err)
	require.Equal(t, first.Names(), second.Names())
	require.Len(t, rep.DroppedFlags, 3)
	// Filling made the two south rows identical and left no gaps.
	require.Equal(t, 1, rep.DuplicatesRemoved)
	require.Equal(t, []bool{false, false, false}, boolsOf(t, second, FlagMissing))
}

func TestCleanAdvisorNeverAffectsOutput(t *testing.T) {
	t.Parallel()
	base, baseRep, err := Clean(context.Background(), rainTable(), Options{Logf: quiet})
	require.NoError(t, err)
	_, wantRows := table.Records(base)

	advisors := []*recordingAdvisor{
		{answer: "drop row 2"},
		{err: errors.New("quota exceeded")},
		{panics: true},
	}
	for i, a := range advisors {
		var logged []string
		logf := func(format string, args ...any) { logged = append(logged, fmt.Sprintf(format, args...)) }
		out, rep, err := Clean(context.Background(), rainTable(), Options{Advisor: a, SampleRows: 2, Logf: logf})
		require.NoError(t, err, "advisor %d", i)
		_, gotRows := table.Records(out)
		require.Equal(t, wantRows, gotRows, "advisor %d", i)
		require.Equal(t, baseRep, rep, "advisor %d", i)
		require.Equal(t, 2, a.rows)
		require.Len(t, logged, 1)
	}
}

func TestCleanCancelledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := Clean(ctx, rainTable(), Options{Logf: quiet})
	require.ErrorIs(t, err, context.Canceled)
}
