// Package ingest acquires the raw dataset from a local file or a URL and
// parses it into a table.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"dqpipe/internal/config"
	"dqpipe/internal/datasource"
	"dqpipe/internal/datasource/file"
	"dqpipe/internal/datasource/httpds"
	"dqpipe/internal/parser"
	csvparser "dqpipe/internal/parser/csv"
	xlsxparser "dqpipe/internal/parser/xlsx"
	"dqpipe/internal/table"
)

// Source types.
const (
	TypeFile = "file"
	TypeURL  = "url"
)

var (
	// ErrUnsupportedFormat is returned for formats no parser handles.
	ErrUnsupportedFormat = errors.New("ingest: unsupported format")
	// ErrUnknownSourceType is returned for dataset_source.type values other
	// than file and url.
	ErrUnknownSourceType = errors.New("ingest: unknown source type")
)

// PreviewRows is the number of rows kept in Report.Preview.
const PreviewRows = 5

// Report describes one ingestion.
type Report struct {
	Dataset   string
	Type      string
	Location  string
	Format    string
	Delimiter string
	Bytes     int64
	Rows      int
	Cols      int
	Columns   []string
	Skipped   int
	Preview   *table.Table
}

// Size renders Bytes for humans.
func (r Report) Size() string { return humanize.Bytes(uint64(max(r.Bytes, 0))) }

// newHTTPClient is replaced in tests.
var newHTTPClient = httpds.NewClient

// Load opens src, parses it and returns the table with its report.
func Load(ctx context.Context, src config.DatasetSource) (*table.Table, Report, error) {
	typ := strings.ToLower(strings.TrimSpace(src.Type))
	if typ == "" {
		typ = TypeFile
	}
	rep := Report{Type: typ, Location: src.Location}

	var ds datasource.Source
	switch typ {
	case TypeFile:
		ds = file.NewLocal(src.Location)
	case TypeURL:
		client := newHTTPClient(httpds.Config{
			Timeout:            src.Options.Seconds("timeout_seconds", 60*time.Second),
			MaxRetries:         src.Options.Int("max_retries", 2),
			InsecureSkipVerify: src.Options.Bool("insecure_tls", false),
		})
		ds = httpds.NewSource(client, src.Location)
	default:
		return nil, rep, fmt.Errorf("%w: %q", ErrUnknownSourceType, src.Type)
	}
	rep.Dataset = ds.Name()

	format, err := ResolveFormat(typ, src.Location, src.Format)
	if err != nil {
		return nil, rep, err
	}
	rep.Format = format

	rc, err := ds.Open(ctx)
	if err != nil {
		return nil, rep, fmt.Errorf("ingest: open %s: %w", src.Location, err)
	}
	defer rc.Close()

	cr := &countingReader{r: rc}
	p, csvp := newParser(format, src.Options)
	t, skipped, err := p.Parse(cr)
	if err != nil {
		return nil, rep, fmt.Errorf("ingest: parse %s: %w", rep.Dataset, err)
	}
	if csvp != nil {
		rep.Delimiter = delimiterName(csvp.Delimiter())
	}

	rep.Bytes = cr.n
	rep.Rows = t.NumRows()
	rep.Cols = t.NumCols()
	rep.Columns = t.Names()
	rep.Skipped = skipped
	rep.Preview = t.Head(PreviewRows)
	return t, rep, nil
}

func newParser(format string, opts config.Options) (parser.Parser, *csvparser.Parser) {
	switch format {
	case FormatXLSX:
		return xlsxparser.NewParser(xlsxparser.Options{Sheet: opts.String("sheet", "")}), nil
	case FormatTSV:
		p := csvparser.NewParser(csvparser.Options{Comma: opts.Rune("delimiter", '\t'), TrimSpace: opts.Bool("trim_space", false)})
		return p, p
	default:
		p := csvparser.NewParser(csvparser.Options{Comma: opts.Rune("delimiter", 0), TrimSpace: opts.Bool("trim_space", false)})
		return p, p
	}
}

func delimiterName(r rune) string {
	switch r {
	case '\t':
		return "tab"
	case ' ':
		return "space"
	case 0:
		return ""
	default:
		return string(r)
	}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
