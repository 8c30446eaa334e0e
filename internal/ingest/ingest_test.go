package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"dqpipe/internal/config"
	"dqpipe/internal/datasource/httpds"
)

const rainCSV = "rain_mm,district\n10,north\n1000,north\n12,south\n,south\n"

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// -----------------------------------------------------------------------------
// Format resolution
// -----------------------------------------------------------------------------

func TestResolveFormat(t *testing.T) {
	t.Parallel()
	cases := []struct {
		typ, loc, format string
		want             string
		wantErr          bool
	}{
		{TypeFile, "data/rain.csv", "auto", FormatCSV, false},
		{TypeFile, "data/rain.TSV", "", FormatTSV, false},
		{TypeFile, "book.xlsx", "", FormatXLSX, false},
		{TypeFile, "rain.json", "", "", true},
		{TypeFile, "rain.json", "csv", FormatCSV, false},
		{TypeFile, "rain.csv", "parquet", "", true},
		{TypeURL, "https://example.com/d/rain.xlsx?sig=abc", "", FormatXLSX, false},
		{TypeURL, "https://example.com/export", "", FormatCSV, false},
	}
	for _, c := range cases {
		got, err := ResolveFormat(c.typ, c.loc, c.format)
		if c.wantErr {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("ResolveFormat(%q, %q) err = %v, want ErrUnsupportedFormat", c.loc, c.format, err)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("ResolveFormat(%q, %q) = %q, %v, want %q", c.loc, c.format, got, err, c.want)
		}
	}
}

// -----------------------------------------------------------------------------
// Load
// -----------------------------------------------------------------------------

func TestLoadLocalCSV(t *testing.T) {
	t.Parallel()
	p := writeFile(t, "rain.csv", rainCSV)
	tb, rep, err := Load(context.Background(), config.DatasetSource{Type: "file", Location: p})
	if err != nil {
		t.Fatal(err)
	}
	if tb.NumRows() != 4 || tb.NumCols() != 2 {
		t.Fatalf("shape = %dx%d, want 4x2", tb.NumRows(), tb.NumCols())
	}
	if rep.Dataset != "rain.csv" || rep.Format != FormatCSV || rep.Delimiter != "," {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Bytes != int64(len(rainCSV)) {
		t.Fatalf("bytes = %d, want %d", rep.Bytes, len(rainCSV))
	}
	if rep.Size() != "53 B" {
		t.Fatalf("size = %q", rep.Size())
	}
	if !reflect.DeepEqual(rep.Columns, []string{"rain_mm", "district"}) {
		t.Fatalf("columns = %v", rep.Columns)
	}
	if rep.Preview.NumRows() != 4 {
		t.Fatalf("preview rows = %d", rep.Preview.NumRows())
	}
}

func TestLoadSemicolonDetected(t *testing.T) {
	t.Parallel()
	p := writeFile(t, "eu.csv", "a;b\n1;2\n")
	tb, rep, err := Load(context.Background(), config.DatasetSource{Location: p})
	if err != nil {
		t.Fatal(err)
	}
	if tb.NumCols() != 2 || rep.Delimiter != ";" || rep.Type != TypeFile {
		t.Fatalf("cols=%d delimiter=%q type=%q", tb.NumCols(), rep.Delimiter, rep.Type)
	}
}

func TestLoadXLSX(t *testing.T) {
	t.Parallel()
	f := excelize.NewFile()
	_ = f.SetSheetRow("Sheet1", "A1", &[]any{"rain_mm", "district"})
	_ = f.SetSheetRow("Sheet1", "A2", &[]any{10, "north"})
	p := filepath.Join(t.TempDir(), "rain.xlsx")
	if err := f.SaveAs(p); err != nil {
		t.Fatal(err)
	}
	tb, rep, err := Load(context.Background(), config.DatasetSource{Location: p})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Format != FormatXLSX || rep.Delimiter != "" || tb.NumRows() != 1 {
		t.Fatalf("format=%q delimiter=%q rows=%d", rep.Format, rep.Delimiter, tb.NumRows())
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	if _, _, err := Load(ctx, config.DatasetSource{Type: "s3", Location: "x.csv"}); !errors.Is(err, ErrUnknownSourceType) {
		t.Errorf("s3: err = %v, want ErrUnknownSourceType", err)
	}
	if _, _, err := Load(ctx, config.DatasetSource{Location: "x.parquet"}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("parquet: err = %v, want ErrUnsupportedFormat", err)
	}
	missing := filepath.Join(t.TempDir(), "nope.csv")
	if _, _, err := Load(ctx, config.DatasetSource{Location: missing}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: err = %v, want ErrNotExist", err)
	}
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/rain.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(rainCSV))
	}))
	defer srv.Close()

	prev := newHTTPClient
	newHTTPClient = func(cfg httpds.Config) *httpds.Client {
		cfg.MaxRetries = 0
		return httpds.NewClient(cfg)
	}
	t.Cleanup(func() { newHTTPClient = prev })

	tb, rep, err := Load(context.Background(), config.DatasetSource{Type: "url", Location: srv.URL + "/data/rain.csv"})
	if err != nil {
		t.Fatal(err)
	}
	if tb.NumRows() != 4 || rep.Dataset != "rain.csv" {
		t.Fatalf("rows=%d dataset=%q", tb.NumRows(), rep.Dataset)
	}

	_, _, err = Load(context.Background(), config.DatasetSource{Type: "url", Location: srv.URL + "/missing.csv"})
	var se *httpds.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 StatusError", err)
	}
}
