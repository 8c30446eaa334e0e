// Package report renders the per-stage markdown summaries.
package report

import (
	"fmt"
	"strings"

	"dqpipe/internal/table"
)

// doc accumulates a markdown document.
type doc struct {
	b strings.Builder
}

func (d *doc) h1(s string)                  { fmt.Fprintf(&d.b, "# %s\n\n", s) }
func (d *doc) h2(s string)                  { fmt.Fprintf(&d.b, "## %s\n\n", s) }
func (d *doc) h3(s string)                  { fmt.Fprintf(&d.b, "### %s\n\n", s) }
func (d *doc) para(s string)                { fmt.Fprintf(&d.b, "%s\n\n", s) }
func (d *doc) bullet(k string, v any)       { fmt.Fprintf(&d.b, "- **%s:** %v\n", k, v) }
func (d *doc) line(format string, a ...any) { fmt.Fprintf(&d.b, format+"\n", a...) }
func (d *doc) blank()                       { d.b.WriteByte('\n') }
func (d *doc) String() string               { return d.b.String() }

// table writes a github-style markdown table.
func (d *doc) table(header []string, rows [][]string) {
	d.b.WriteString("|")
	for _, h := range header {
		d.b.WriteString(" " + cell(h) + " |")
	}
	d.b.WriteString("\n|")
	for range header {
		d.b.WriteString("---|")
	}
	d.b.WriteByte('\n')
	for _, r := range rows {
		d.b.WriteString("|")
		for i := range header {
			v := ""
			if i < len(r) {
				v = r[i]
			}
			d.b.WriteString(" " + cell(v) + " |")
		}
		d.b.WriteByte('\n')
	}
	d.b.WriteByte('\n')
}

// section renders one part of a document. A panic inside fn is replaced by
// a visible placeholder so the rest of the report still renders.
func (d *doc) section(title string, fn func(d *doc)) {
	var part doc
	ok := func() (ok bool) {
		defer func() {
			if r := recover(); r != nil {
				ok = false
			}
		}()
		fn(&part)
		return true
	}()
	if title != "" {
		d.h2(title)
	}
	if !ok {
		d.para(fmt.Sprintf("_Could not render %s._", strings.ToLower(title)))
		return
	}
	d.b.WriteString(part.String())
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// tableRows renders t as a markdown table body, missing cells empty.
func tableRows(t *table.Table) ([]string, [][]string) {
	return table.Records(t)
}

func code(s string) string { return "`" + s + "`" }

func codeList(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = code(n)
	}
	return strings.Join(out, ", ")
}
