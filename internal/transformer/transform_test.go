package transformer

import (
	"errors"
	"reflect"
	"testing"

	"dqpipe/internal/table"
)

func rainTable() *table.Table {
	return table.MustNew(
		table.NewColumn("rain_mm", []table.Value{table.Number(10), table.Number(1000), table.Number(12), table.Missing()}),
		table.NewColumn("district", []table.Value{table.Text("north"), table.Text("North"), table.Text("south"), table.Text("south")}),
		table.NewColumn("ok", []table.Value{table.Bool(true), table.Bool(false), table.Bool(true), table.Bool(true)}),
	)
}

func TestTransformEmptySpecIsIdentity(t *testing.T) {
	t.Parallel()
	in := rainTable()
	out, rep, err := Transform(in, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out != in || rep.RowsBefore != 4 || rep.RowsAfter != 4 {
		t.Fatalf("identity broken: rows %d -> %d", rep.RowsBefore, rep.RowsAfter)
	}
}

func TestTransformPermissive(t *testing.T) {
	t.Parallel()
	out, rep, err := Transform(rainTable(), FilterSpec{"district": "NORTH", "region": "x"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", out.NumRows())
	}
	if !reflect.DeepEqual(rep.Applied, []string{"district"}) || !reflect.DeepEqual(rep.Ignored, []string{"region"}) {
		t.Fatalf("applied=%v ignored=%v", rep.Applied, rep.Ignored)
	}
}

func TestTransformStrict(t *testing.T) {
	t.Parallel()
	_, rep, err := Transform(rainTable(), FilterSpec{"region": "x"}, Options{Strict: true})
	if !errors.Is(err, ErrUnknownFilterColumn) {
		t.Fatalf("err = %v, want ErrUnknownFilterColumn", err)
	}
	if !reflect.DeepEqual(rep.Ignored, []string{"region"}) {
		t.Fatalf("ignored = %v", rep.Ignored)
	}
}

func TestTransformIdempotentAndCommutative(t *testing.T) {
	t.Parallel()
	a := FilterSpec{"district": "south"}
	b := FilterSpec{"ok": true}

	ab1, _, _ := Transform(rainTable(), a, Options{})
	ab, _, _ := Transform(ab1, b, Options{})
	ba1, _, _ := Transform(rainTable(), b, Options{})
	ba, _, _ := Transform(ba1, a, Options{})
	_, abRows := table.Records(ab)
	_, baRows := table.Records(ba)
	if !reflect.DeepEqual(abRows, baRows) {
		t.Fatalf("filters do not commute")
	}
	again, _, _ := Transform(ab, FilterSpec{"district": "south", "ok": true}, Options{})
	if again.NumRows() != ab.NumRows() {
		t.Fatalf("not idempotent: %d vs %d", again.NumRows(), ab.NumRows())
	}
	if ab.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", ab.NumRows())
	}
}

// step is a Transformer backed by a closure.
type step func(t *table.Table) (*table.Table, error)

func (s step) Apply(t *table.Table) (*table.Table, error) { return s(t) }

func TestChainStopsOnError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	calls := 0
	c := Chain{
		step(func(t *table.Table) (*table.Table, error) { calls++; return t, nil }),
		step(func(t *table.Table) (*table.Table, error) { return nil, boom }),
		step(func(t *table.Table) (*table.Table, error) { calls++; return t, nil }),
	}
	if _, err := c.Apply(rainTable()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestTransformNilTable(t *testing.T) {
	t.Parallel()
	if _, _, err := Transform(nil, FilterSpec{"district": "north"}, Options{}); err == nil {
		t.Fatal("want error for nil table")
	}
}
