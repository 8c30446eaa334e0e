package probe

import (
	"math/rand/v2"
	"regexp"
	"strings"

	"dqpipe/internal/table"
)

// Tag is a semantic classification for a column.
type Tag string

const (
	TagDatetime Tag = "datetime"
	TagPercent  Tag = "percent"
)

// Detector classifies one column. Detectors are independent of each other.
type Detector interface {
	// Name identifies the detector in reports.
	Name() string
	// Detect returns a tag when the column matches.
	Detect(name string, col table.Column) (Tag, bool)
}

// Match is one detector hit.
type Match struct {
	Tag      Tag
	Detector string
}

// Classifier is an ordered detector list.
type Classifier []Detector

// DefaultDateKeywords are the name fragments that mark a datetime column.
var DefaultDateKeywords = []string{"date", "datetime", "timestamp", "time", "dt"}

// DefaultClassifier returns name keyword, percent name and date pattern
// detectors, in that order.
func DefaultClassifier(sampleSize int, seed uint64) Classifier {
	return Classifier{
		NameKeyword{Keywords: DefaultDateKeywords, Tag: TagDatetime},
		PercentName{},
		DatePattern{SampleSize: sampleSize, Seed: seed},
	}
}

// Classify runs every detector and returns the hits in detector order,
// dropping repeated tags.
func (c Classifier) Classify(name string, col table.Column) []Match {
	var out []Match
	seen := map[Tag]bool{}
	for _, d := range c {
		tag, ok := d.Detect(name, col)
		if !ok || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, Match{Tag: tag, Detector: d.Name()})
	}
	return out
}

// NameKeyword tags columns whose lowercase name contains any keyword.
type NameKeyword struct {
	Keywords []string
	Tag      Tag
}

func (NameKeyword) Name() string { return "name-keyword" }

func (d NameKeyword) Detect(name string, _ table.Column) (Tag, bool) {
	n := strings.ToLower(name)
	for _, k := range d.Keywords {
		if k != "" && strings.Contains(n, k) {
			return d.Tag, true
		}
	}
	return "", false
}

// PercentName tags columns whose name contains "%" or "percent".
type PercentName struct{}

func (PercentName) Name() string { return "percent-name" }

func (PercentName) Detect(name string, _ table.Column) (Tag, bool) {
	n := strings.ToLower(name)
	if strings.Contains(n, "%") || strings.Contains(n, "percent") {
		return TagPercent, true
	}
	return "", false
}

var datePattern = regexp.MustCompile(`^\s*\d{1,4}[/.\- ]\d{1,4}[/.\- ]\d{1,4}`)

// DatePattern samples up to SampleSize non-missing text values with a fixed
// seed and tags the column as datetime when more than half of the sample
// looks like a numeric date. Only text columns are sampled.
type DatePattern struct {
	SampleSize int
	Seed       uint64
}

func (DatePattern) Name() string { return "date-pattern" }

func (d DatePattern) Detect(_ string, col table.Column) (Tag, bool) {
	if col.Kind() != table.KindText {
		return "", false
	}
	sample := d.sample(col)
	if len(sample) == 0 {
		return "", false
	}
	hits := 0
	for _, s := range sample {
		if datePattern.MatchString(s) {
			hits++
		}
	}
	if hits*2 > len(sample) {
		return TagDatetime, true
	}
	return "", false
}

func (d DatePattern) sample(col table.Column) []string {
	vals := make([]string, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		if v := col.At(i); !v.IsMissing() {
			vals = append(vals, v.String())
		}
	}
	n := d.SampleSize
	if n <= 0 {
		n = 20
	}
	if len(vals) <= n {
		return vals
	}
	r := rand.New(rand.NewPCG(d.Seed, d.Seed^0x9e3779b97f4a7c15))
	r.Shuffle(len(vals), func(i, j int) { vals[i], vals[j] = vals[j], vals[i] })
	return vals[:n]
}
