package probe

import (
	"strings"
	"time"

	"dqpipe/internal/table"
)

// Preference resolves ambiguous numeric dates such as 03/04/2024.
type Preference string

const (
	// PreferAuto lets the match count decide and falls back to ISO, then
	// day-first, then month-first layouts.
	PreferAuto Preference = "auto"
	// PreferUS favours month-first layouts.
	PreferUS Preference = "us"
	// PreferEU favours day-first layouts.
	PreferEU Preference = "eu"
)

// timestampLayouts carry a time component and are tried before dateLayouts.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
	"02.01.2006 15:04:05",
	"2006-01-02 15:04:05 -0700",
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006 01 02",
	"02.01.2006",
	"01.02.2006",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"01-02-2006",
	"2/1/2006",
	"1/2/2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"20060102",
	"2006-01",
}

// layoutOrder groups layouts by field order.
func layoutOrder(layout string) string {
	day := strings.IndexAny(layout, "2")
	month := strings.Index(layout, "01")
	if strings.Contains(layout, "Jan") {
		return "textual"
	}
	if month < 0 {
		month = strings.Index(layout, "1")
	}
	switch {
	case strings.HasPrefix(layout, "2006"):
		return "iso"
	case day >= 0 && month >= 0 && day < month:
		return "dmy"
	default:
		return "mdy"
	}
}

// weight returns a tie-break weight for layout; higher wins.
func (p Preference) weight(layout string) int {
	order := layoutOrder(layout)
	switch order {
	case "iso":
		return 4
	case "textual":
		return 3
	}
	switch p {
	case PreferUS:
		if order == "mdy" {
			return 2
		}
		return 1
	default:
		if order == "dmy" {
			return 2
		}
		return 1
	}
}

// selectBestLayout scores each candidate layout by how many samples it
// matches. Ties go to the higher preference weight, then to declaration
// order. Returns "" when nothing matches.
func selectBestLayout(samples []string, layouts []string, weight func(string) int) string {
	if len(samples) == 0 || len(layouts) == 0 {
		return ""
	}
	scores := make([]int, len(layouts))
	for _, s := range samples {
		for i, lay := range layouts {
			if _, err := time.Parse(lay, s); err == nil {
				scores[i]++
			}
		}
	}

	bestIdx, bestScore, bestPref := -1, 0, -1
	for i, sc := range scores {
		if sc == 0 || sc < bestScore {
			continue
		}
		p := weight(layouts[i])
		if sc > bestScore || p > bestPref {
			bestIdx, bestScore, bestPref = i, sc, p
		}
	}
	if bestIdx < 0 {
		return ""
	}
	return layouts[bestIdx]
}

// ParseTimes leniently converts cells into datetimes. The layout matching
// most cells is tried first for every cell; cells it rejects fall back to the
// remaining layouts in preference order. Existing datetime cells are kept,
// and anything unparseable becomes missing. It returns the converted cells
// and the number of non-missing inputs that failed to parse.
func ParseTimes(col table.Column, pref Preference) ([]table.Value, int) {
	raw := make([]string, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		v := col.At(i)
		if v.Kind() == table.KindText || v.Kind() == table.KindNumber {
			raw = append(raw, strings.TrimSpace(v.String()))
		}
	}

	all := append(append([]string{}, timestampLayouts...), dateLayouts...)
	best := selectBestLayout(raw, all, pref.weight)
	fallback := orderedLayouts(all, pref)

	out := make([]table.Value, col.Len())
	failed := 0
	for i := 0; i < col.Len(); i++ {
		v := col.At(i)
		switch v.Kind() {
		case table.KindMissing:
			out[i] = table.Missing()
			continue
		case table.KindTime:
			out[i] = v
			continue
		case table.KindBool:
			out[i] = table.Missing()
			failed++
			continue
		}
		s := strings.TrimSpace(v.String())
		if ts, ok := parseWith(s, best, fallback); ok {
			out[i] = table.Time(ts)
		} else {
			out[i] = table.Missing()
			failed++
		}
	}
	return out, failed
}

func parseWith(s, best string, fallback []string) (time.Time, bool) {
	if best != "" {
		if ts, err := time.Parse(best, s); err == nil {
			return ts, true
		}
	}
	for _, lay := range fallback {
		if ts, err := time.Parse(lay, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// orderedLayouts returns layouts sorted by preference weight, stable on
// declaration order.
func orderedLayouts(layouts []string, pref Preference) []string {
	out := make([]string, 0, len(layouts))
	for w := 4; w >= 0; w-- {
		for _, lay := range layouts {
			if pref.weight(lay) == w {
				out = append(out, lay)
			}
		}
	}
	return out
}
