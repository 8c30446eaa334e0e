package csv

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"dqpipe/internal/table"
)

// Write encodes t as comma-separated text with a header row. Cells use
// their canonical string form, so missing cells are empty fields.
func Write(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	header, rows := table.Records(t)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("csv: write rows: %w", err)
	}
	return nil
}

// WriteFile writes t to path, replacing any existing file.
func WriteFile(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := Write(bw, t); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("csv: flush %s: %w", path, err)
	}
	return f.Close()
}
