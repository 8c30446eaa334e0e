// Package advisor asks an external text-generation service for cleaning
// suggestions. Advice is informational only and never feeds back into the
// data.
package advisor

import (
	"context"
	"encoding/json"

	"dqpipe/internal/table"
)

// Advisor returns free-text cleaning suggestions for a sample of rows.
type Advisor interface {
	Suggest(ctx context.Context, sample *table.Table) (string, error)
}

// Nop is the advisor used when no model is configured.
type Nop struct{}

func (Nop) Suggest(context.Context, *table.Table) (string, error) { return "", nil }

// Prompt is the instruction sent ahead of the JSON row sample.
const Prompt = "Suggest data cleaning steps for this data sample:\n"

// SampleJSON encodes t as a JSON array of row objects. Missing cells are
// null, datetimes use their canonical string form.
func SampleJSON(t *table.Table) ([]byte, error) {
	names := t.Names()
	rows := make([]map[string]any, t.NumRows())
	for i := range rows {
		row := make(map[string]any, len(names))
		for j, v := range t.Row(i) {
			row[names[j]] = jsonValue(v)
		}
		rows[i] = row
	}
	return json.Marshal(rows)
}

func jsonValue(v table.Value) any {
	switch v.Kind() {
	case table.KindNumber:
		f, _ := v.AsNumber()
		return f
	case table.KindBool:
		b, _ := v.AsBool()
		return b
	case table.KindMissing:
		return nil
	default:
		return v.String()
	}
}
