package storage

import (
	"context"
	"fmt"
	"iter"

	"dqpipe/internal/table"
)

// Sink persists stage tables into one backend. Each stage gets its own table
// named TablePrefix+stage, created on first use; rows carry the run id.
type Sink struct {
	Kind        string
	DSN         string
	TablePrefix string
	BatchSize   int
	RunID       string

	// open is New unless replaced in tests.
	open Factory
}

// NewSink returns a Sink for the given backend kind and DSN.
func NewSink(kind, dsn, prefix string, batchSize int, runID string) *Sink {
	return &Sink{Kind: kind, DSN: dsn, TablePrefix: prefix, BatchSize: batchSize, RunID: runID, open: New}
}

// TableName returns the destination table for stage.
func (s *Sink) TableName(stage string) string { return s.TablePrefix + stage }

// Save creates the stage table if needed and appends every row of t.
func (s *Sink) Save(ctx context.Context, stage string, t *table.Table) (int64, error) {
	d, err := LookupDialect(s.Kind)
	if err != nil {
		return 0, err
	}
	def, err := TableDefFor(s.TableName(stage), t, d.MapType)
	if err != nil {
		return 0, err
	}
	open := s.open
	if open == nil {
		open = New
	}
	repo, err := open(ctx, Config{Kind: s.Kind, DSN: s.DSN, Table: def.FQN, Columns: def.Names()})
	if err != nil {
		return 0, fmt.Errorf("storage: open %s: %w", s.Kind, err)
	}
	defer repo.Close()

	if err := EnsureTable(ctx, s.Kind, repo, def); err != nil {
		return 0, err
	}
	batch := s.BatchSize
	if batch <= 0 {
		batch = 1000
	}
	n, err := LoadBatches(ctx, def.Names(), Rows(s.RunID, t), batch, repo.CopyFrom)
	if err != nil {
		return n, fmt.Errorf("storage: load %s: %w", def.FQN, err)
	}
	return n, nil
}

// Rows yields the rows of t as driver values, each prefixed with runID.
func Rows(runID string, t *table.Table) iter.Seq[[]any] {
	return func(yield func([]any) bool) {
		cols := t.Columns()
		for i := 0; i < t.NumRows(); i++ {
			row := make([]any, 0, len(cols)+1)
			row = append(row, runID)
			for _, c := range cols {
				row = append(row, DriverValue(c.At(i)))
			}
			if !yield(row) {
				return
			}
		}
	}
}

// DriverValue converts a cell to the value handed to database drivers;
// missing cells become NULL.
func DriverValue(v table.Value) any {
	switch v.Kind() {
	case table.KindNumber:
		f, _ := v.AsNumber()
		return f
	case table.KindText:
		s, _ := v.AsText()
		return s
	case table.KindBool:
		b, _ := v.AsBool()
		return b
	case table.KindTime:
		tm, _ := v.AsTime()
		return tm
	default:
		return nil
	}
}
