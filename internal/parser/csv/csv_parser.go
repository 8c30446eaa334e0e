// Package csv reads delimited text into a table.Table and writes tables back
// out as comma-separated files.
package csv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"dqpipe/internal/table"
)

// Candidates are the delimiters tried, in order, when Options.Comma is zero.
var Candidates = []rune{',', '\t', ';', ' '}

// Options configures the CSV parser. All fields are optional.
type Options struct {
	// Comma is the field delimiter. Zero means auto-detect over Candidates:
	// the first delimiter whose header yields more than one column wins, and
	// ',' is used when none does.
	Comma rune

	// TrimSpace trims surrounding whitespace from every field.
	TrimSpace bool
}

// Parser parses delimited text according to Options. It is not safe for
// concurrent use.
type Parser struct {
	opt Options

	// detected is the delimiter used by the last Parse call.
	detected rune
}

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Delimiter returns the delimiter chosen by the most recent Parse.
func (p *Parser) Delimiter() rune { return p.detected }

// Parse reads the whole input, picks the delimiter and builds a typed table.
// The first well-formed record is the header. Records that fail to parse are
// skipped and counted.
func (p *Parser) Parse(r io.Reader) (*table.Table, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("csv: read: %w", err)
	}
	data = stripBOM(data)

	comma := p.opt.Comma
	if comma == 0 {
		comma = DetectDelimiter(data)
	}
	p.detected = comma

	header, rows, skipped := readAll(data, comma, p.opt.TrimSpace)
	t, err := table.FromRecords(header, rows)
	if err != nil {
		return nil, skipped, fmt.Errorf("csv: %w", err)
	}
	return t, skipped, nil
}

// DetectDelimiter returns the first candidate whose header line splits into
// more than one field, or ',' when none does.
func DetectDelimiter(data []byte) rune {
	for _, c := range Candidates {
		rec, err := newReader(bytes.NewReader(data), c).Read()
		if err == nil && len(rec) > 1 {
			return c
		}
	}
	return ','
}

func newReader(r io.Reader, comma rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1 // width is fitted by table.FromRecords
	return cr
}

// readAll is best-effort: malformed records are skipped, never fatal.
// Reads are from memory, so the only errors are parse errors.
func readAll(data []byte, comma rune, trim bool) ([]string, [][]string, int) {
	cr := newReader(bytes.NewReader(data), comma)

	var header []string
	var rows [][]string
	skipped := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		if header == nil {
			header = StripHeaderBOM(fields(rec, trim))
			continue
		}
		rows = append(rows, fields(rec, trim))
	}
	if header == nil {
		header = []string{}
	}
	return header, rows, skipped
}

func fields(rec []string, trim bool) []string {
	if !trim {
		return rec
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	return rec
}
