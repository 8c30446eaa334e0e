package report

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"dqpipe/internal/clean"
	"dqpipe/internal/ingest"
	"dqpipe/internal/insights"
	"dqpipe/internal/standardize"
	"dqpipe/internal/table"
	"dqpipe/internal/transformer"
)

// Artifact file names, numbered in pipeline order.
const (
	IngestionFile       = "01_ingestion_summary.md"
	StandardizationFile = "02_standardization_summary.md"
	CleaningFile        = "03_cleaning_summary.md"
	TransformationFile  = "04_transformation_summary.md"
	InsightsFile        = "05_insights_summary.md"
)

// Chart is a chart artifact as referenced from the insights report. Err is
// set when rendering failed.
type Chart struct {
	File string
	Err  error
}

// Ingestion renders 01_ingestion_summary.md.
func Ingestion(r ingest.Report) string {
	var d doc
	d.h1("Ingestion Summary")
	d.bullet("Dataset name", code(r.Dataset))
	d.bullet("Source", fmt.Sprintf("%s `%s`", r.Type, r.Location))
	format := r.Format
	if r.Delimiter != "" {
		format += fmt.Sprintf(" (delimiter %s)", code(r.Delimiter))
	}
	d.bullet("Format", format)
	d.bullet("Size", r.Size())
	d.bullet("Rows x Cols", fmt.Sprintf("%d x %d", r.Rows, r.Cols))
	d.bullet("Columns", joinPlain(r.Columns))
	if r.Skipped > 0 {
		d.bullet("Malformed records skipped", r.Skipped)
	}
	d.blank()
	if r.Preview != nil && r.Preview.NumRows() > 0 {
		d.section(fmt.Sprintf("Preview (first %d rows)", ingest.PreviewRows), func(d *doc) {
			d.table(tableRows(r.Preview))
		})
	}
	return d.String()
}

// Standardization renders 02_standardization_summary.md.
func Standardization(r standardize.Report) string {
	var d doc
	d.h1("Standardization Summary")
	d.section("Column Mapping (original → standardized)", func(d *doc) {
		d.table([]string{"Original", "Standardized"}, schemaRows(r.SchemaMap))
	})
	if len(r.Collisions) > 0 {
		d.section("Name Collisions", func(d *doc) {
			rows := make([][]string, len(r.Collisions))
			for i, c := range r.Collisions {
				rows[i] = []string{c.Original, c.Normalized, c.Resolved}
			}
			d.table([]string{"Original", "Normalized", "Resolved"}, rows)
		})
	}
	d.section("Column Kinds after Standardization", func(d *doc) {
		rows := make([][]string, len(r.Kinds))
		for i, k := range r.Kinds {
			rows[i] = []string{k.Column, k.Kind}
		}
		d.table([]string{"Column", "Kind"}, rows)
	})
	d.section("Detected Columns", func(d *doc) {
		if len(r.Dates) == 0 && len(r.Percents) == 0 {
			d.para("No datetime or percent-like columns detected.")
			return
		}
		if len(r.Dates) > 0 {
			d.bullet("Parsed date columns", codeList(r.DateColumns()))
			d.line("- Added corresponding `YYYY-MM` helper columns: %s", codeList(r.Derived))
		}
		if len(r.Percents) > 0 {
			d.bullet("Percent-like columns coerced to numbers", codeList(r.PercentColumns()))
		}
		d.blank()
		rows := make([][]string, 0, len(r.Dates)+len(r.Percents))
		for _, c := range append(append([]standardize.Conversion{}, r.Dates...), r.Percents...) {
			rows = append(rows, []string{c.Column, string(c.Tag), c.Detector, strconv.Itoa(c.Coerced)})
		}
		d.table([]string{"Column", "Type", "Detector", "Cells coerced to missing"}, rows)
	})
	if len(r.Explicit) > 0 {
		d.section("Configured Conversions", func(d *doc) {
			rows := make([][]string, len(r.Explicit))
			for i, c := range r.Explicit {
				rows[i] = []string{c.Column, string(c.Tag), strconv.Itoa(c.Coerced), c.Derived}
			}
			d.table([]string{"Column", "Type", "Cells coerced to missing", "Derived"}, rows)
		})
	}
	if len(r.Rejected) > 0 {
		d.section("Rejected Detections", func(d *doc) {
			rows := make([][]string, len(r.Rejected))
			for i, x := range r.Rejected {
				rows[i] = []string{x.Column, string(x.Tag), x.Detector}
			}
			d.table([]string{"Column", "Type", "Detector"}, rows)
		})
	}
	return d.String()
}

// Cleaning renders 03_cleaning_summary.md.
func Cleaning(r clean.Report) string {
	var d doc
	d.h1("Cleaning Summary")
	d.bullet("Rows before", r.RowsBefore)
	d.bullet("Duplicates removed", r.DuplicatesRemoved)
	if len(r.DedupKeys) > 0 {
		d.bullet("Duplicate key", codeList(r.DedupKeys))
		d.bullet("Fully identical rows", r.DuplicateRows)
	}
	d.bullet("Duplicate policy", r.DedupPolicy)
	d.bullet("Rows after", r.RowsAfter)
	d.bullet("Missing values (total) before", r.MissingBefore)
	d.bullet("Missing values (total) after", r.MissingAfter)
	d.bullet("Rows with missing values before cleaning", r.RowsWithMissing)
	d.bullet("Rows imputed", r.RowsImputed)
	if len(r.FillColumns) > 0 {
		d.bullet("Filled columns", codeList(r.FillColumns))
	}
	d.bullet("Quartile method", r.Method)
	if len(r.DroppedFlags) > 0 {
		d.bullet("Stale flag columns dropped", codeList(r.DroppedFlags))
	}
	d.blank()
	d.section("Missing Values by Column", func(d *doc) {
		rows := make([][]string, len(r.Columns))
		for i, c := range r.Columns {
			rows[i] = []string{c.Column, strconv.Itoa(c.Before), strconv.Itoa(c.After)}
		}
		d.table([]string{"Column", "Before", "After"}, rows)
	})
	if len(r.Outliers) > 0 {
		d.section("Outlier Flags (IQR rule)", func(d *doc) {
			rows := make([][]string, len(r.Outliers))
			for i, o := range r.Outliers {
				rows[i] = []string{o.Column, o.Flag, strconv.Itoa(o.Count)}
			}
			d.table([]string{"Column", "Flag", "Rows flagged"}, rows)
		})
	}
	d.section("Notes on Quality Flags", func(d *doc) {
		for _, n := range r.Notes {
			d.line("- %s", n)
		}
		d.blank()
	})
	return d.String()
}

// Transformation renders 04_transformation_summary.md.
func Transformation(r transformer.Report) string {
	var d doc
	d.h1("Transformation Summary")
	d.bullet("Rows before", r.RowsBefore)
	d.bullet("Rows after", r.RowsAfter)
	spec, err := json.Marshal(r.Filters)
	if err != nil {
		spec = []byte(fmt.Sprintf("%v", r.Filters))
	}
	d.bullet("Filters applied", code(string(spec)))
	d.bullet("Filter columns used", codeList(r.Applied))
	if len(r.Ignored) > 0 {
		d.bullet("Filter columns ignored (not in table)", codeList(r.Ignored))
	}
	d.blank()
	return d.String()
}

// Insights renders 05_insights_summary.md.
func Insights(r insights.Report, sm standardize.SchemaMap, charts []Chart) string {
	var d doc
	d.h1("Dataset Summary & Insights")
	d.bullet("Rows x Cols", fmt.Sprintf("%d x %d", r.Rows, r.Cols))
	d.blank()
	if sm.Len() > 0 {
		d.section("Schema Map (original → standardized)", func(d *doc) {
			d.table([]string{"Original", "Standardized"}, schemaRows(sm))
		})
	}
	d.section(fmt.Sprintf("Summary Statistics (%s)", r.Label), func(d *doc) {
		header := []string{"column", "kind", "count", "mean", "std", "min", "25%", "50%", "75%", "max", "unique", "top", "freq"}
		rows := make([][]string, len(r.Describe))
		for i, c := range r.Describe {
			row := []string{c.Column, c.Kind, strconv.Itoa(c.Count)}
			if s := c.Summary; s != nil {
				row = append(row, num(s.Mean), num(s.Std), num(s.Min), num(s.Q1), num(s.Median), num(s.Q3), num(s.Max), "", "", "")
			} else {
				row = append(row, "", "", "", "", "", "", "", strconv.Itoa(c.Unique), c.Top, freq(c))
			}
			rows[i] = row
		}
		d.table(header, rows)
	})
	d.section("Missing Values", func(d *doc) {
		rows := make([][]string, len(r.Missing))
		for i, m := range r.Missing {
			rows[i] = []string{m.Column, strconv.Itoa(m.Count), m.Percent.StringFixed(2)}
		}
		d.table([]string{"Column", "missing_count", "missing_pct"}, rows)
	})
	if len(r.Outliers) > 0 {
		d.section("Outlier Counts (IQR method)", func(d *doc) {
			rows := make([][]string, len(r.Outliers))
			for i, o := range r.Outliers {
				rows[i] = []string{o.Column, strconv.Itoa(o.Count)}
			}
			d.table([]string{"column", "iqr_outliers"}, rows)
		})
	}
	if len(r.Categories) > 0 {
		d.section("Categorical Columns Value Counts (Top 5)", func(d *doc) {
			for _, tv := range r.Categories {
				d.h3("Column: " + tv.Column)
				rows := make([][]string, len(tv.Values))
				for i, c := range tv.Values {
					v := c.Value
					if c.Missing {
						v = "(missing)"
					}
					rows[i] = []string{v, strconv.Itoa(c.Count)}
				}
				d.table([]string{tv.Column, "count"}, rows)
			}
		})
	}
	if len(r.Flags) > 0 {
		d.section("Quality Flags", func(d *doc) {
			rows := make([][]string, len(r.Flags))
			for i, f := range r.Flags {
				rows[i] = []string{f.Column, strconv.Itoa(f.True), strconv.Itoa(f.Rows)}
			}
			d.table([]string{"Flag", "True", "Rows"}, rows)
		})
	}
	if a := r.Aggregate; a != nil {
		d.section(fmt.Sprintf("Mean %s by %s (top %d)", a.Measure, a.Group, len(a.GroupMeans)), func(d *doc) {
			rows := make([][]string, len(a.GroupMeans))
			for i, g := range a.GroupMeans {
				rows[i] = []string{g.Group, num(g.Mean), strconv.Itoa(g.Count)}
			}
			d.table([]string{a.Group, "mean_" + a.Measure, "rows"}, rows)
		})
		d.section(fmt.Sprintf("Monthly total %s over %s", a.Measure, a.Date), func(d *doc) {
			rows := make([][]string, len(a.Monthly))
			for i, m := range a.Monthly {
				rows[i] = []string{m.Month.Format("2006-01"), num(m.Sum)}
			}
			d.table([]string{"month", "sum_" + a.Measure}, rows)
		})
	}
	for _, c := range charts {
		if c.Err != nil {
			d.para(fmt.Sprintf("_Chart `%s` could not be rendered: %v._", c.File, c.Err))
			continue
		}
		d.para(fmt.Sprintf("**Chart saved:** `%s`", c.File))
	}
	return d.String()
}

func schemaRows(sm standardize.SchemaMap) [][]string {
	entries := sm.Entries()
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.Original, e.Standardized}
	}
	return rows
}

func num(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return table.FormatNumber(math.Round(f*1e6) / 1e6)
}

func freq(c insights.ColumnStats) string {
	if c.Count == 0 {
		return ""
	}
	return strconv.Itoa(c.Freq)
}

func joinPlain(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
