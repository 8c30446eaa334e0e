package standardize

import (
	"bytes"
	"encoding/json"
)

// Mapping pairs an original column name with its standardized name.
type Mapping struct {
	Original     string
	Standardized string
}

// SchemaMap is the ordered original -> standardized column name mapping.
// Keys follow the original column order.
type SchemaMap struct {
	entries []Mapping
	index   map[string]int
}

func newSchemaMap(n int) SchemaMap {
	return SchemaMap{entries: make([]Mapping, 0, n), index: make(map[string]int, n)}
}

func (m *SchemaMap) add(original, standardized string) {
	m.index[original] = len(m.entries)
	m.entries = append(m.entries, Mapping{Original: original, Standardized: standardized})
}

// Len returns the number of mapped columns.
func (m SchemaMap) Len() int { return len(m.entries) }

// Get returns the standardized name of original.
func (m SchemaMap) Get(original string) (string, bool) {
	i, ok := m.index[original]
	if !ok {
		return "", false
	}
	return m.entries[i].Standardized, true
}

// Entries returns the mappings in original column order.
func (m SchemaMap) Entries() []Mapping {
	return append([]Mapping(nil), m.entries...)
}

// MarshalJSON writes a flat JSON object whose keys keep column order.
func (m SchemaMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Original)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Standardized)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalIndent renders the map the way schema_map.json is stored on disk.
func (m SchemaMap) MarshalIndent() ([]byte, error) {
	raw, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
