// Package probe infers semantic column types without a declared schema.
//
// Inference is an ordered list of independent Detectors (name keywords,
// percent names, content sampling); Classify runs them all and returns every
// tag that matched, in detector order. The package also owns column-name
// normalization and lenient datetime parsing.
package probe

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName converts header text into a standardized column name:
//  1. trim surrounding whitespace
//  2. lowercase
//  3. optionally strip accents (NFD → remove Mn → NFC)
//  4. replace every remaining whitespace rune with '_'
//
// Other characters, including '%', are kept.
func NormalizeName(s string, foldAccents bool) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if foldAccents {
		s = FoldAccents(s)
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, s)
}

// FoldAccents removes combining marks, e.g. "Srážky" → "Srazky".
func FoldAccents(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
