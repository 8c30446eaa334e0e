package config

import (
	"fmt"
	"os"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config, e.g. "dataset_source.location".
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// getenv is swapped in tests.
var getenv = os.Getenv

// ValidatePipeline statically checks a pipeline, normally after
// WithDefaults. It never mutates p.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue
	issues = append(issues, validateSource(p.DatasetSource)...)
	issues = append(issues, validateStandardize(p.Standardize)...)
	issues = append(issues, validateCleaning(p.Cleaning)...)
	issues = append(issues, validateLLM(p.LLM)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateStorage(p.Storage)...)
	for col, v := range p.Scope.Filters {
		switch v.(type) {
		case map[string]any, []any:
			issues = append(issues, errorf("scope.filters."+col, "filter target must be a scalar, got %T", v))
		}
	}
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

func errorf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)}
}

func warnf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)}
}

func validateSource(s DatasetSource) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.Location) == "" {
		issues = append(issues, errorf("dataset_source.location", "dataset_source.location must not be empty"))
	}
	switch s.Type {
	case "file", "url":
	default:
		issues = append(issues, errorf("dataset_source.type", "unknown dataset source type %q; want file or url", s.Type))
	}
	switch s.Format {
	case "auto", "csv", "tsv", "xlsx":
	default:
		issues = append(issues, errorf("dataset_source.format", "unsupported format %q; want auto, csv, tsv or xlsx", s.Format))
	}
	if s.Type == "url" && s.Location != "" &&
		!strings.HasPrefix(s.Location, "http://") && !strings.HasPrefix(s.Location, "https://") {
		issues = append(issues, warnf("dataset_source.location", "url source %q has no http(s) scheme", s.Location))
	}
	return issues
}

func validateStandardize(s Standardize) []Issue {
	var issues []Issue
	switch s.DatePreference {
	case "auto", "us", "eu":
	default:
		issues = append(issues, errorf("standardize.date_preference", "unknown date preference %q; want auto, us or eu", s.DatePreference))
	}
	for col, typ := range s.Coerce {
		if strings.TrimSpace(col) == "" {
			issues = append(issues, errorf("standardize.coerce", "coerce column name must not be empty"))
		}
		if typ != "number" && typ != "datetime" {
			issues = append(issues, errorf("standardize.coerce."+col, "unknown coerce type %q; want number or datetime", typ))
		}
	}
	return issues
}

func validateCleaning(c Cleaning) []Issue {
	var issues []Issue
	switch c.QuantileMethod {
	case "linear", "lower", "higher", "nearest", "midpoint":
	default:
		issues = append(issues, errorf("cleaning.quantile_method", "unknown quantile method %q", c.QuantileMethod))
	}
	switch c.DedupPolicy {
	case "keep-first", "keep-last":
	default:
		issues = append(issues, errorf("cleaning.dedup_policy", "unknown dedup policy %q; want keep-first or keep-last", c.DedupPolicy))
	}
	seen := map[string]bool{}
	for i, k := range c.DedupKeys {
		if strings.TrimSpace(k) == "" {
			issues = append(issues, errorf(fmt.Sprintf("cleaning.dedup_keys[%d]", i), "dedup key must not be empty"))
		} else if seen[k] {
			issues = append(issues, warnf(fmt.Sprintf("cleaning.dedup_keys[%d]", i), "dedup key %q is listed twice", k))
		}
		seen[k] = true
	}
	for i, c := range c.FillColumns {
		if strings.TrimSpace(c) == "" {
			issues = append(issues, errorf(fmt.Sprintf("cleaning.fill_columns[%d]", i), "fill column must not be empty"))
		}
	}
	return issues
}

func validateLLM(l LLM) []Issue {
	if l.Disabled {
		return nil
	}
	if getenv(l.APIKeyEnv) == "" {
		return []Issue{warnf("llm.api_key_env", "%s is not set; the cleaning advisor will be skipped", l.APIKeyEnv)}
	}
	return nil
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "none":
	case "pushgateway":
		if m.PushgatewayURL == "" && getenv("PUSHGATEWAY_URL") == "" {
			return []Issue{warnf("metrics.pushgateway_url", "pushgateway backend without a URL; metrics are disabled")}
		}
	case "datadog":
		if m.DatadogAddr == "" && getenv("DD_DOGSTATSD_ADDR") == "" {
			return []Issue{warnf("metrics.datadog_addr", "datadog backend without an address; using 127.0.0.1:8125")}
		}
	default:
		return []Issue{warnf("metrics.backend", "unknown metrics backend %q; metrics are disabled", m.Backend)}
	}
	return nil
}

var knownStages = map[string]bool{"raw": true, "standardized": true, "cleaned": true, "transformed": true}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	switch s.Kind {
	case "":
		return nil
	case "sqlite", "postgres":
	default:
		issues = append(issues, errorf("storage.kind", "unknown storage kind %q; want sqlite or postgres", s.Kind))
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, errorf("storage.dsn", "storage kind %q requires a dsn", s.Kind))
	}
	for i, st := range s.Stages {
		if !knownStages[st] {
			issues = append(issues, errorf(fmt.Sprintf("storage.stages[%d]", i), "unknown stage %q", st))
		}
	}
	return issues
}
