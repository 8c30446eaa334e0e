package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"dqpipe/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL returns error", jobName: "rain", wantErr: true},
		{name: "empty job name uses default", gatewayURL: "http://pushgateway:9091", wantJobName: "dqpipe"},
		{name: "explicit job name is preserved", jobName: "rain", gatewayURL: "http://pushgateway:9091", wantJobName: "rain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil || b != nil {
					t.Fatalf("NewBackend(%q, %q) = %v, %v; want nil, error", tt.jobName, tt.gatewayURL, b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend(%q, %q) error = %v", tt.jobName, tt.gatewayURL, err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
			if b.stageCounter == nil || b.stageDuration == nil || b.rowCounter == nil || b.flagCounter == nil {
				t.Fatalf("collectors not initialized: %+v", b)
			}
		})
	}
}

func TestIncCounter_RoutesByName(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("rain", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.IncCounter(metrics.StageTotal, 2, metrics.Labels{"stage": "clean", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 5, metrics.Labels{"kind": "ingested"})
	b.IncCounter(metrics.FlagsTotal, 1, metrics.Labels{"flag": "_qc_missing"})
	b.IncCounter(metrics.FlagsTotal, 0.5, metrics.Labels{"flag": "_qc_missing"})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"foo": "bar"})

	if got := testutil.ToFloat64(b.stageCounter.WithLabelValues("clean", "success")); got != 2 {
		t.Fatalf("stage counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(b.rowCounter.WithLabelValues("ingested")); got != 5 {
		t.Fatalf("row counter = %v, want 5", got)
	}
	if got := testutil.ToFloat64(b.flagCounter.WithLabelValues("_qc_missing")); got != 1.5 {
		t.Fatalf("flag counter = %v, want 1.5", got)
	}
}

func TestNilCollectorsAreSafe(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.StageTotal, 1, metrics.Labels{"stage": "s", "status": "success"})
	b.IncCounter(metrics.RowsTotal, 1, metrics.Labels{"kind": "ingested"})
	b.IncCounter(metrics.FlagsTotal, 1, metrics.Labels{"flag": "_qc_imputed"})
	b.ObserveHistogram(metrics.StageDuration, 1, metrics.Labels{})
}

func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("rain", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.ObserveHistogram(metrics.StageDuration, 1.5, metrics.Labels{"stage": "insights", "status": "success"})
	b.ObserveHistogram("other", 2, metrics.Labels{"stage": "insights", "status": "success"})

	if n := testutil.CollectAndCount(b.stageDuration); n != 1 {
		t.Fatalf("summary series = %d, want 1", n)
	}
}

func TestFlush_PushesToGateway(t *testing.T) {
	t.Parallel()

	var gotMethod string
	var gotBody int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		gotMethod = r.Method
		gotBody = len(body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("rain", server.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter(metrics.StageTotal, 1, metrics.Labels{"stage": "ingest", "status": "success"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("push method = %q, want PUT", gotMethod)
	}
	if gotBody == 0 {
		t.Fatalf("push body is empty")
	}
}
