package csv_test

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	pcsv "dqpipe/internal/parser/csv"
	"dqpipe/internal/table"
)

func TestDetectDelimiter(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want rune
	}{
		{"a,b\n1,2\n", ','},
		{"a\tb\n1\t2\n", '\t'},
		{"a;b\n1;2\n", ';'},
		{"a b\n1 2\n", ' '},
		{"single\n1\n", ','},
	}
	for _, c := range cases {
		if got := pcsv.DetectDelimiter([]byte(c.in)); got != c.want {
			t.Errorf("DetectDelimiter(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParse_TypedTable(t *testing.T) {
	t.Parallel()

	in := "\uFEFFrain_mm;District\n10;north\n1000;north\n12;south\n;south\n"
	p := pcsv.NewParser(pcsv.Options{})
	tb, skipped, err := p.Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if p.Delimiter() != ';' {
		t.Fatalf("delimiter = %q, want ';'", p.Delimiter())
	}
	if !reflect.DeepEqual(tb.Names(), []string{"rain_mm", "District"}) {
		t.Fatalf("names = %v (BOM not stripped?)", tb.Names())
	}
	rain := tb.Column(0)
	if rain.Kind() != table.KindNumber || !rain.At(3).IsMissing() {
		t.Fatalf("rain_mm = %v kind %v", rain.Strings(), rain.Kind())
	}
}

func TestParse_TrimSpaceAndRaggedRows(t *testing.T) {
	t.Parallel()

	in := "a, b\n 1 , x\n2\n3,y,extra\n"
	tb, _, err := pcsv.NewParser(pcsv.Options{Comma: ',', TrimSpace: true}).Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tb.NumRows() != 3 || tb.NumCols() != 2 {
		t.Fatalf("shape = %dx%d, want 3x2", tb.NumRows(), tb.NumCols())
	}
	if got := tb.Column(1).Strings(); !reflect.DeepEqual(got, []string{"x", "", "y"}) {
		t.Fatalf("b = %v", got)
	}
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	tb, _, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tb.NumCols() != 0 || tb.NumRows() != 0 {
		t.Fatalf("shape = %dx%d, want 0x0", tb.NumRows(), tb.NumCols())
	}
}

func TestWriteFile_RoundTrip(t *testing.T) {
	t.Parallel()

	tb := table.MustNew(
		table.NewColumn("n", []table.Value{table.Number(1.5), table.Missing()}),
		table.NewColumn("s", []table.Value{table.Text("a,b"), table.Text("c")}),
	)
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := pcsv.WriteFile(path, tb); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "n,s\n1.5,\"a,b\"\n,c\n"
	if string(b) != want {
		t.Fatalf("file = %q, want %q", b, want)
	}

	var buf bytes.Buffer
	if err := pcsv.Write(&buf, tb); err != nil {
		t.Fatalf("Write: %v", err)
	}
	back, _, err := pcsv.NewParser(pcsv.Options{}).Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(back.Column(1).Strings(), []string{"a,b", "c"}) {
		t.Fatalf("round trip = %v", back.Column(1).Strings())
	}
}
