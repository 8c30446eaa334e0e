// Package pipeline runs the data-quality stages in order and writes every
// run artifact into a fresh per-run directory:
//
//	ingest → standardize → clean → transform → insights → (storage)
//
// Each stage fully materializes its table before the next begins. Fatal
// failures are returned as *StageError naming the stage; report and chart
// problems are recovered and noted instead.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"dqpipe/internal/advisor"
	"dqpipe/internal/chart"
	"dqpipe/internal/clean"
	"dqpipe/internal/config"
	"dqpipe/internal/eventlog"
	"dqpipe/internal/ingest"
	"dqpipe/internal/insights"
	"dqpipe/internal/metrics"
	"dqpipe/internal/probe"
	"dqpipe/internal/provenance"
	"dqpipe/internal/report"
	"dqpipe/internal/standardize"
	"dqpipe/internal/stats"
	"dqpipe/internal/storage"
	"dqpipe/internal/table"
	"dqpipe/internal/transformer"
)

// Stage names used in StageError, metrics and events.
const (
	StageConfig      = "config"
	StageSetup       = "setup"
	StageIngest      = "ingest"
	StageStandardize = "standardize"
	StageClean       = "clean"
	StageTransform   = "transform"
	StageInsights    = "insights"
	StageStorage     = "storage"
)

// Table artifacts inside a run directory.
const (
	RawFile          = "raw.csv"
	StandardizedFile = "standardized.csv"
	CleanedFile      = "cleaned.csv"
	TransformedFile  = "transformed.csv"
	SchemaMapFile    = "schema_map.json"
)

// StageError reports the stage that aborted a run.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline: %s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options carry the run inputs that do not come from the pipeline file.
type Options struct {
	// ConfigPath is recorded in run_metadata.json.
	ConfigPath string

	// Advisor is consulted during cleaning; nil means advisor.Nop.
	Advisor advisor.Advisor
}

// Result summarizes a completed run.
type Result struct {
	RunID string
	Dir   string

	Ingest      ingest.Report
	Standardize standardize.Report
	SchemaMap   standardize.SchemaMap
	Clean       clean.Report
	Transform   transformer.Report
	Insights    insights.Report
	Charts      []report.Chart

	// Stored maps a persisted stage name to the rows written.
	Stored map[string]int64
}

// Seams replaced in tests.
var (
	newRunID    = uuid.NewString
	today       = time.Now
	loadDataset = ingest.Load
	renderChart = chart.Render
	newSaver    = func(s config.Storage, runID string) saver {
		return storage.NewSink(s.Kind, s.DSN, s.TablePrefix, s.BatchSize, runID)
	}
)

// saver persists one stage table.
type saver interface {
	Save(ctx context.Context, stage string, t *table.Table) (int64, error)
}

// RunDir returns the run directory name <YYYY-MM-DD>-<first 8 chars of runID>.
func RunDir(base string, day time.Time, runID string) string {
	prefix := runID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return filepath.Join(base, day.Format("2006-01-02")+"-"+prefix)
}

type run struct {
	p   config.Pipeline
	dir string
	ev  *eventlog.Log
	res Result
}

// Run executes p end to end. p is defaulted and validated first; the run
// directory and its run.log exist from the first stage on.
func Run(ctx context.Context, p config.Pipeline, opts Options) (Result, error) {
	p = p.WithDefaults()
	if issues := config.ValidatePipeline(p); config.HasErrors(issues) {
		return Result{}, &StageError{Stage: StageConfig, Err: firstError(issues)}
	}
	adv := opts.Advisor
	if adv == nil {
		adv = advisor.Nop{}
	}

	runID := newRunID()
	dir := RunDir(p.Output.Dir, today(), runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, &StageError{Stage: StageSetup, Err: err}
	}
	ev, err := eventlog.Open(dir)
	if err != nil {
		return Result{}, &StageError{Stage: StageSetup, Err: err}
	}
	defer ev.Close()

	r := &run{p: p, dir: dir, ev: ev, res: Result{RunID: runID, Dir: dir, Stored: map[string]int64{}}}
	ev.Eventf("Run started: job=%s run_id=%s dir=%s", p.Job, runID, dir)

	datasetPath := ""
	if p.DatasetSource.Type == ingest.TypeFile {
		datasetPath = p.DatasetSource.Location
	}
	md := provenance.Collect(ctx, provenance.Input{
		RunID:           runID,
		Job:             p.Job,
		ConfigPath:      opts.ConfigPath,
		DatasetPath:     datasetPath,
		DatasetLocation: p.DatasetSource.Location,
		LLMModel:        p.LLM.Model,
	})
	if _, err := provenance.Write(dir, md); err != nil {
		return r.res, r.fail(StageSetup, err)
	}

	tables := map[string]*table.Table{}

	raw, err := r.ingest(ctx)
	if err != nil {
		return r.res, err
	}
	tables["raw"] = raw

	std, err := r.standardize(raw)
	if err != nil {
		return r.res, err
	}
	tables["standardized"] = std

	cleaned, err := r.clean(ctx, std, adv)
	if err != nil {
		return r.res, err
	}
	tables["cleaned"] = cleaned

	scoped, err := r.transform(cleaned)
	if err != nil {
		return r.res, err
	}
	tables["transformed"] = scoped

	if err := r.insights(scoped); err != nil {
		return r.res, err
	}

	if p.Storage.Kind != "" {
		if err := r.store(ctx, tables); err != nil {
			return r.res, err
		}
	}

	ev.Eventf("Run completed: artifacts in %s", dir)
	return r.res, nil
}

// step times fn and records its outcome; a failure becomes a StageError.
func (r *run) step(stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStage(r.p.Job, stage, err, time.Since(start))
	if err != nil {
		return r.fail(stage, err)
	}
	return nil
}

func (r *run) fail(stage string, err error) error {
	r.ev.Eventf("Stage %s failed: %v", stage, err)
	return &StageError{Stage: stage, Err: err}
}

func (r *run) ingest(ctx context.Context) (*table.Table, error) {
	var out *table.Table
	err := r.step(StageIngest, func() error {
		t, rep, err := loadDataset(ctx, r.p.DatasetSource)
		if err != nil {
			return err
		}
		r.res.Ingest = rep
		path, err := r.writeTable(RawFile, t)
		if err != nil {
			return err
		}
		if err := r.writeReport(report.IngestionFile, report.Ingestion(rep)); err != nil {
			return err
		}
		metrics.RecordRows(r.p.Job, "ingested", int64(t.NumRows()))
		r.ev.Eventf("Ingested data at %s (%d rows x %d cols, %s)", path, rep.Rows, rep.Cols, rep.Size())
		out = t
		return nil
	})
	return out, err
}

func (r *run) standardize(t *table.Table) (*table.Table, error) {
	var out *table.Table
	err := r.step(StageStandardize, func() error {
		s := r.p.Standardize
		std, sm, rep, err := standardize.Standardize(t, standardize.Options{
			FoldAccents: s.FoldAccentsEnabled(),
			Preference:  probe.Preference(s.DatePreference),
			SampleSize:  s.SampleSize,
			Seed:        s.Seed,
			Coerce:      s.Coerce,
		})
		if err != nil {
			return err
		}
		r.res.Standardize, r.res.SchemaMap = rep, sm
		path, err := r.writeTable(StandardizedFile, std)
		if err != nil {
			return err
		}
		b, err := sm.MarshalIndent()
		if err != nil {
			return fmt.Errorf("encode schema map: %w", err)
		}
		if err := r.writeFile(SchemaMapFile, b); err != nil {
			return err
		}
		if err := r.writeReport(report.StandardizationFile, report.Standardization(rep)); err != nil {
			return err
		}
		r.ev.Eventf("Standardized data saved at %s", path)
		out = std
		return nil
	})
	return out, err
}

func (r *run) clean(ctx context.Context, t *table.Table, adv advisor.Advisor) (*table.Table, error) {
	var out *table.Table
	err := r.step(StageClean, func() error {
		method, err := stats.ParseMethod(r.p.Cleaning.QuantileMethod)
		if err != nil {
			return err
		}
		cleaned, rep, err := clean.Clean(ctx, t, clean.Options{
			Advisor:     adv,
			SampleRows:  r.p.Cleaning.AdvisorSampleRows,
			Method:      method,
			Logf:        r.ev.Eventf,
			DedupKeys:   r.p.Cleaning.DedupKeys,
			DedupPolicy: r.p.Cleaning.DedupPolicy,
			FillColumns: r.p.Cleaning.FillColumns,
		})
		if err != nil {
			return err
		}
		r.res.Clean = rep
		path, err := r.writeTable(CleanedFile, cleaned)
		if err != nil {
			return err
		}
		if err := r.writeReport(report.CleaningFile, report.Cleaning(rep)); err != nil {
			return err
		}
		metrics.RecordRows(r.p.Job, "duplicates_removed", int64(rep.DuplicatesRemoved))
		metrics.RecordFlags(r.p.Job, clean.FlagMissing, int64(rep.RowsWithMissing))
		metrics.RecordFlags(r.p.Job, clean.FlagImputed, int64(rep.RowsImputed))
		for _, o := range rep.Outliers {
			metrics.RecordFlags(r.p.Job, o.Flag, int64(o.Count))
		}
		r.ev.Eventf("Cleaned data saved at %s (%d duplicates removed)", path, rep.DuplicatesRemoved)
		out = cleaned
		return nil
	})
	return out, err
}

func (r *run) transform(t *table.Table) (*table.Table, error) {
	var out *table.Table
	err := r.step(StageTransform, func() error {
		scoped, rep, err := transformer.Transform(t, transformer.FilterSpec(r.p.Scope.Filters), transformer.Options{
			Strict: r.p.Scope.StrictFilters,
		})
		if err != nil {
			return err
		}
		r.res.Transform = rep
		path, err := r.writeTable(TransformedFile, scoped)
		if err != nil {
			return err
		}
		if err := r.writeReport(report.TransformationFile, report.Transformation(rep)); err != nil {
			return err
		}
		metrics.RecordRows(r.p.Job, "transformed", int64(scoped.NumRows()))
		r.ev.Eventf("Transformed data saved at %s (%d of %d rows kept)", path, rep.RowsAfter, rep.RowsBefore)
		out = scoped
		return nil
	})
	return out, err
}

func (r *run) insights(t *table.Table) error {
	return r.step(StageInsights, func() error {
		cfg := r.p.Insights
		method, err := stats.ParseMethod(r.p.Cleaning.QuantileMethod)
		if err != nil {
			return err
		}
		rep, specs := insights.Generate(t, insights.Options{
			TopK:          cfg.TopK,
			TopGroups:     cfg.TopGroups,
			HistogramBins: cfg.HistogramBins,
			Method:        method,
			Aggregates: []insights.Aggregate{insights.RoleAggregate{
				MeasureKeywords: cfg.MeasureKeywords,
				GroupKeywords:   cfg.GroupKeywords,
				DateKeywords:    cfg.DateKeywords,
			}},
		})
		r.res.Insights = rep
		for _, spec := range specs {
			path, err := renderChart(spec, r.dir)
			if err != nil {
				log.Printf("pipeline: chart %s: %v", spec.File, err)
				r.ev.Eventf("Chart %s could not be rendered: %v", spec.File, err)
			} else {
				r.ev.Eventf("Chart saved at %s", path)
			}
			r.res.Charts = append(r.res.Charts, report.Chart{File: spec.File, Err: err})
		}
		if err := r.writeReport(report.InsightsFile, report.Insights(rep, r.res.SchemaMap, r.res.Charts)); err != nil {
			return err
		}
		r.ev.Eventf("Insights written to %s", filepath.Join(r.dir, report.InsightsFile))
		return nil
	})
}

func (r *run) store(ctx context.Context, tables map[string]*table.Table) error {
	return r.step(StageStorage, func() error {
		sink := newSaver(r.p.Storage, r.res.RunID)
		for _, stage := range r.p.Storage.Stages {
			t, ok := tables[stage]
			if !ok {
				return fmt.Errorf("unknown stage %q", stage)
			}
			n, err := sink.Save(ctx, stage, t)
			if err != nil {
				return fmt.Errorf("save %s: %w", stage, err)
			}
			r.res.Stored[stage] = n
			metrics.RecordRows(r.p.Job, "stored_"+stage, n)
			r.ev.Eventf("Stored %d %s rows in %s", n, stage, r.p.Storage.Kind)
		}
		return nil
	})
}

func firstError(issues []config.Issue) error {
	for _, iss := range issues {
		if iss.Severity == config.SeverityError {
			return iss
		}
	}
	return nil
}
