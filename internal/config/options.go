package config

import (
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"
)

// Options fetches typed values from free-form maps. It performs minimal
// coercion and returns the provided default when a key is absent or of an
// unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if s, ok := o[key].(string); ok {
		return s
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if b, ok := o[key].(bool); ok {
		return b
	}
	return def
}

// Int returns the int value for key or def. JSON numbers arrive as float64
// and YAML integers as int; both are accepted.
func (o Options) Int(key string, def int) int {
	switch n := o[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return def
}

// Rune returns the first rune of a string value for key, or def. The
// spellings "\t" and "tab" both mean a tab.
func (o Options) Rune(key string, def rune) rune {
	s, ok := o[key].(string)
	if !ok || s == "" {
		return def
	}
	if s == `\t` || s == "tab" {
		return '\t'
	}
	return []rune(s)[0]
}

// Seconds returns an integer number of seconds for key as a Duration.
func (o Options) Seconds(key string, def time.Duration) time.Duration {
	if n := o.Int(key, -1); n >= 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

// StringSlice returns a []string for key when the value is a list of
// strings. Non-string elements are skipped.
func (o Options) StringSlice(key string) []string {
	switch vv := o[key].(type) {
	case []any:
		out := make([]string, 0, len(vv))
		for _, x := range vv {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return vv
	}
	return nil
}

// UnmarshalJSON decodes a missing or null object to an empty, non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// UnmarshalYAML decodes a null node to an empty, non-nil map.
func (o *Options) UnmarshalYAML(n *yaml.Node) error {
	if n.Tag == "!!null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := n.Decode(&tmp); err != nil {
		return err
	}
	if tmp == nil {
		tmp = map[string]any{}
	}
	*o = Options(tmp)
	return nil
}
