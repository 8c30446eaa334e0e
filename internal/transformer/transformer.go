// Package transformer defines table-to-table transformers and the scoped
// filtering stage of the pipeline.
package transformer

import "dqpipe/internal/table"

// Transformer turns one table into the next. Implementations never mutate
// their input.
type Transformer interface {
	Apply(t *table.Table) (*table.Table, error)
}

// Chain is an ordered list of transformers.
type Chain []Transformer

func (c Chain) Apply(in *table.Table) (*table.Table, error) {
	out := in
	for _, t := range c {
		var err error
		if out, err = t.Apply(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}
