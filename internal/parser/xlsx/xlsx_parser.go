// Package xlsx reads one worksheet of an Excel workbook into a table.Table.
package xlsx

import (
	"errors"
	"fmt"
	"io"

	"dqpipe/internal/table"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("xlsx: no sheets found")

// Options configures the worksheet reader.
type Options struct {
	// Sheet names the worksheet to read. Empty means the first sheet.
	Sheet string
}

// Parser reads workbooks according to Options.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads the selected worksheet. The first row is the header; cells are
// read as their formatted text and typed column-wise by table.FromRecords.
// Spreadsheets have no malformed rows, so the skipped count is always zero.
func (p *Parser) Parse(r io.Reader) (*table.Table, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("xlsx: open: %w", err)
	}
	defer f.Close()

	sheet := p.opt.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, 0, ErrNoSheets
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, fmt.Errorf("xlsx: read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		t, err := table.FromRecords([]string{}, nil)
		return t, 0, err
	}
	t, err := table.FromRecords(rows[0], rows[1:])
	if err != nil {
		return nil, 0, fmt.Errorf("xlsx: %w", err)
	}
	return t, 0, nil
}
