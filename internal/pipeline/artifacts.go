package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	csvparser "dqpipe/internal/parser/csv"
	"dqpipe/internal/table"
)

// writeTable stores t as a CSV artifact and returns its path.
func (r *run) writeTable(name string, t *table.Table) (string, error) {
	path := filepath.Join(r.dir, name)
	if err := csvparser.WriteFile(path, t); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

// writeReport stores a rendered markdown report.
func (r *run) writeReport(name, body string) error {
	return r.writeFile(name, []byte(body))
}

func (r *run) writeFile(name string, b []byte) error {
	if err := os.WriteFile(filepath.Join(r.dir, name), b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
