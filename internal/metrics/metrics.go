// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the data-quality pipeline.
//
// A global, pluggable backend defaults to a no-op implementation, so the
// recording helpers are always safe to call even when no real backend is
// configured. Concrete systems (Prometheus Pushgateway, Datadog) live in
// subpackages so the stages depend only on this package.
package metrics

import "time"

// Metric names emitted by the helpers below.
const (
	StageTotal    = "dq_stage_total"
	StageDuration = "dq_stage_duration_seconds"
	RowsTotal     = "dq_rows_total"
	FlagsTotal    = "dq_flags_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStage measures latency and success/failure of one pipeline stage.
func RecordStage(job, stage string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"stage":  stage,
		"status": status,
	}

	backend.IncCounter(StageTotal, 1, lbls)
	backend.ObserveHistogram(StageDuration, d.Seconds(), lbls)
}

// RecordRows increments the row counter for the given job and kind.
//
// Kinds used by the pipeline:
//   - "ingested": rows loaded from the source
//   - "duplicates_removed": rows dropped by the cleaning stage
//   - "transformed": rows left after scope filters
//   - "stored_<stage>": rows persisted for a storage stage
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordFlags increments the quality-flag counter for one flag column.
func RecordFlags(job, flag string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(FlagsTotal, float64(delta), Labels{
		"job":  job,
		"flag": flag,
	})
}
