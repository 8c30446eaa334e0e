// Package config defines the pipeline configuration model and its loader.
//
// A pipeline file is YAML (or JSON, chosen by the .json extension):
//
//	job: rainfall_qc
//	dataset_source:
//	  type: file            # file | url
//	  location: data/rain.csv
//	  format: auto          # auto | csv | tsv | xlsx
//	scope:
//	  filters: { district: north }
//	llm:
//	  model: gemini-1.5-flash
//
// Every section is optional except dataset_source; WithDefaults fills the
// rest. Free-form, format-specific settings go in Options bags.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job labels metrics and names the run; defaults to "dqpipe".
	Job string `yaml:"job" json:"job"`

	DatasetSource DatasetSource `yaml:"dataset_source" json:"dataset_source"`
	Scope         Scope         `yaml:"scope" json:"scope"`
	LLM           LLM           `yaml:"llm" json:"llm"`
	Standardize   Standardize   `yaml:"standardize" json:"standardize"`
	Cleaning      Cleaning      `yaml:"cleaning" json:"cleaning"`
	Insights      Insights      `yaml:"insights" json:"insights"`
	Output        Output        `yaml:"output" json:"output"`
	Metrics       Metrics       `yaml:"metrics" json:"metrics"`
	Storage       Storage       `yaml:"storage" json:"storage"`
}

// DatasetSource identifies the raw dataset.
type DatasetSource struct {
	// Type is "file" (local path) or "url" (HTTP GET).
	Type string `yaml:"type" json:"type"`

	// Location is the path or URL.
	Location string `yaml:"location" json:"location"`

	// Format is "auto", "csv", "tsv" or "xlsx". Auto picks xlsx by extension
	// and delimited text otherwise.
	Format string `yaml:"format" json:"format"`

	// Options holds format and transport settings:
	//   delimiter (string), sheet (string), trim_space (bool),
	//   insecure_tls (bool), timeout_seconds (int), max_retries (int)
	Options Options `yaml:"options" json:"options"`
}

// Scope restricts the cleaned dataset before insights.
type Scope struct {
	// Filters maps column name to target value; rows are kept when every
	// named column equals its target case-insensitively.
	Filters map[string]any `yaml:"filters" json:"filters"`

	// StrictFilters rejects filters naming unknown columns instead of
	// ignoring them.
	StrictFilters bool `yaml:"strict_filters" json:"strict_filters"`
}

// LLM configures the best-effort cleaning advisor.
type LLM struct {
	Model          string `yaml:"model" json:"model"`
	Disabled       bool   `yaml:"disabled" json:"disabled"`
	APIKeyEnv      string `yaml:"api_key_env" json:"api_key_env"`
	Endpoint       string `yaml:"endpoint" json:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Standardize tunes column naming and type inference.
type Standardize struct {
	// FoldAccents strips diacritics from column names; nil means true.
	FoldAccents *bool `yaml:"fold_accents" json:"fold_accents"`

	// DatePreference resolves ambiguous dates: "auto", "us" or "eu".
	DatePreference string `yaml:"date_preference" json:"date_preference"`

	// SampleSize bounds the content sample used by the date pattern detector.
	SampleSize int `yaml:"sample_size" json:"sample_size"`

	// Seed makes the content sample reproducible.
	Seed uint64 `yaml:"seed" json:"seed"`

	// Coerce forces standardized columns to "number" or "datetime",
	// bypassing detection for those columns.
	Coerce map[string]string `yaml:"coerce" json:"coerce"`
}

// FoldAccentsEnabled resolves the FoldAccents default.
func (s Standardize) FoldAccentsEnabled() bool {
	return s.FoldAccents == nil || *s.FoldAccents
}

// Cleaning tunes the cleaning stage.
type Cleaning struct {
	AdvisorSampleRows int    `yaml:"advisor_sample_rows" json:"advisor_sample_rows"`
	QuantileMethod    string `yaml:"quantile_method" json:"quantile_method"`

	// DedupKeys restricts the duplicate key to these standardized columns;
	// empty compares whole rows.
	DedupKeys []string `yaml:"dedup_keys" json:"dedup_keys"`

	// DedupPolicy is "keep-first" or "keep-last".
	DedupPolicy string `yaml:"dedup_policy" json:"dedup_policy"`

	// FillColumns limits forward/backward fill to these columns; empty
	// fills every column.
	FillColumns []string `yaml:"fill_columns" json:"fill_columns"`
}

// Insights tunes the insight stage.
type Insights struct {
	TopK            int      `yaml:"top_k" json:"top_k"`
	TopGroups       int      `yaml:"top_groups" json:"top_groups"`
	HistogramBins   int      `yaml:"histogram_bins" json:"histogram_bins"`
	MeasureKeywords []string `yaml:"measure_keywords" json:"measure_keywords"`
	GroupKeywords   []string `yaml:"group_keywords" json:"group_keywords"`
	DateKeywords    []string `yaml:"date_keywords" json:"date_keywords"`
}

// Output selects where run artifacts are written.
type Output struct {
	Dir string `yaml:"dir" json:"dir"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "pushgateway" or "datadog".
	Backend        string `yaml:"backend" json:"backend"`
	PushgatewayURL string `yaml:"pushgateway_url" json:"pushgateway_url"`
	DatadogAddr    string `yaml:"datadog_addr" json:"datadog_addr"`
}

// Storage optionally persists stage tables to a database.
type Storage struct {
	// Kind is "", "sqlite" or "postgres". Empty disables the sink.
	Kind string `yaml:"kind" json:"kind"`

	// DSN is a file path for sqlite or a connection URL for postgres.
	DSN string `yaml:"dsn" json:"dsn"`

	// TablePrefix is prepended to stage names to form table names.
	TablePrefix string `yaml:"table_prefix" json:"table_prefix"`

	// Stages lists the tables to persist: raw, standardized, cleaned,
	// transformed. Empty means transformed only.
	Stages []string `yaml:"stages" json:"stages"`

	// BatchSize is the number of rows per insert batch.
	BatchSize int `yaml:"batch_size" json:"batch_size"`
}

// Load reads and decodes a pipeline file. It does not apply defaults or
// validate.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Decode(b, strings.EqualFold(filepath.Ext(path), ".json"))
}

// Decode decodes pipeline bytes as JSON or YAML.
func Decode(b []byte, isJSON bool) (Pipeline, error) {
	var p Pipeline
	if isJSON {
		if err := json.Unmarshal(b, &p); err != nil {
			return Pipeline{}, fmt.Errorf("config: decode json: %w", err)
		}
		return p, nil
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Pipeline{}, fmt.Errorf("config: decode yaml: %w", err)
	}
	return p, nil
}

// WithDefaults returns a copy of p with zero values replaced by defaults.
func (p Pipeline) WithDefaults() Pipeline {
	if p.Job == "" {
		p.Job = "dqpipe"
	}
	if p.DatasetSource.Type == "" {
		p.DatasetSource.Type = "file"
	}
	if p.DatasetSource.Format == "" {
		p.DatasetSource.Format = "auto"
	}
	if p.DatasetSource.Options == nil {
		p.DatasetSource.Options = Options{}
	}
	if p.LLM.Model == "" {
		p.LLM.Model = "gemini-1.5-flash"
	}
	if p.LLM.APIKeyEnv == "" {
		p.LLM.APIKeyEnv = "GEMINI_API_KEY"
	}
	if p.LLM.TimeoutSeconds <= 0 {
		p.LLM.TimeoutSeconds = 20
	}
	if p.Standardize.DatePreference == "" {
		p.Standardize.DatePreference = "auto"
	}
	if p.Standardize.SampleSize <= 0 {
		p.Standardize.SampleSize = 20
	}
	if p.Standardize.Seed == 0 {
		p.Standardize.Seed = 42
	}
	if p.Cleaning.AdvisorSampleRows <= 0 {
		p.Cleaning.AdvisorSampleRows = 100
	}
	if p.Cleaning.QuantileMethod == "" {
		p.Cleaning.QuantileMethod = "linear"
	}
	if p.Cleaning.DedupPolicy == "" {
		p.Cleaning.DedupPolicy = "keep-first"
	}
	if p.Insights.TopK <= 0 {
		p.Insights.TopK = 5
	}
	if p.Insights.TopGroups <= 0 {
		p.Insights.TopGroups = 10
	}
	if p.Insights.HistogramBins <= 0 {
		p.Insights.HistogramBins = 20
	}
	if p.Output.Dir == "" {
		p.Output.Dir = "run_artifacts"
	}
	if p.Metrics.Backend == "" {
		p.Metrics.Backend = "none"
	}
	if p.Storage.Kind != "" && len(p.Storage.Stages) == 0 {
		p.Storage.Stages = []string{"transformed"}
	}
	if p.Storage.BatchSize <= 0 {
		p.Storage.BatchSize = 1000
	}
	return p
}
