package transformer

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"dqpipe/internal/table"
	"dqpipe/internal/transformer/builtin"
)

// ErrUnknownFilterColumn is returned in strict mode when a filter names a
// column the table does not have.
var ErrUnknownFilterColumn = errors.New("transformer: unknown filter column")

// FilterSpec maps a column name to the value its cells must equal, compared
// case-insensitively on string form.
type FilterSpec map[string]any

// Keys returns the filter columns in sorted order.
func (s FilterSpec) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Options tune Transform.
type Options struct {
	// Strict fails on filter keys that name no column instead of skipping them.
	Strict bool
}

// Report describes one Transform call.
type Report struct {
	RowsBefore int        `json:"rows_before"`
	RowsAfter  int        `json:"rows_after"`
	Filters    FilterSpec `json:"filters"`
	Applied    []string   `json:"applied"`
	Ignored    []string   `json:"ignored"`
}

// Transform keeps the rows of t matching every entry of spec. Entries naming
// an absent column are skipped, or rejected when opts.Strict is set. An
// empty spec returns t unchanged.
func Transform(t *table.Table, spec FilterSpec, opts Options) (*table.Table, Report, error) {
	if t == nil {
		return nil, Report{}, fmt.Errorf("transformer: nil table")
	}
	rep := Report{RowsBefore: t.NumRows(), Filters: spec, Applied: []string{}, Ignored: []string{}}
	if rep.Filters == nil {
		rep.Filters = FilterSpec{}
	}

	var chain Chain
	for _, k := range spec.Keys() {
		if _, ok := t.ColumnByName(k); !ok {
			rep.Ignored = append(rep.Ignored, k)
			continue
		}
		rep.Applied = append(rep.Applied, k)
		chain = append(chain, builtin.Filter{Column: k, Value: spec[k]})
	}
	if opts.Strict && len(rep.Ignored) > 0 {
		return nil, rep, fmt.Errorf("%w: %s", ErrUnknownFilterColumn, strings.Join(rep.Ignored, ", "))
	}

	out, err := chain.Apply(t)
	if err != nil {
		return nil, rep, fmt.Errorf("transformer: transform: %w", err)
	}
	rep.RowsAfter = out.NumRows()
	return out, rep, nil
}
