package xlsx

import (
	"bytes"
	"reflect"
	"testing"

	"dqpipe/internal/table"

	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, sheet string, rows [][]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("NewSheet: %v", err)
		}
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	return buf
}

func TestParse_FirstSheet(t *testing.T) {
	t.Parallel()

	buf := workbook(t, "Sheet1", [][]any{
		{"Rain MM", "District"},
		{10, "north"},
		{1000, "north"},
		{12, "south"},
	})
	tb, skipped, err := NewParser(Options{}).Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d", skipped)
	}
	if !reflect.DeepEqual(tb.Names(), []string{"Rain MM", "District"}) {
		t.Fatalf("names = %v", tb.Names())
	}
	if tb.NumRows() != 3 || tb.Column(0).Kind() != table.KindNumber {
		t.Fatalf("rows = %d, kind = %v", tb.NumRows(), tb.Column(0).Kind())
	}
}

func TestParse_NamedSheet(t *testing.T) {
	t.Parallel()

	buf := workbook(t, "data", [][]any{{"a"}, {"x"}})
	tb, _, err := NewParser(Options{Sheet: "data"}).Parse(buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := tb.Column(0).Strings(); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("a = %v", got)
	}

	if _, _, err := NewParser(Options{Sheet: "missing"}).Parse(workbook(t, "Sheet1", nil)); err == nil {
		t.Fatal("Parse(missing sheet) error = nil")
	}
}

func TestParse_NotAWorkbook(t *testing.T) {
	t.Parallel()

	if _, _, err := NewParser(Options{}).Parse(bytes.NewBufferString("a,b\n1,2\n")); err == nil {
		t.Fatal("Parse(csv bytes) error = nil")
	}
}
