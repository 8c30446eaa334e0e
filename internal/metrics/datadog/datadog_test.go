package datadog

import (
	"reflect"
	"testing"

	"dqpipe/internal/metrics"
)

type recordingClient struct {
	counts     []string
	histograms []string
	tags       [][]string
	closed     bool
}

func (r *recordingClient) Count(name string, value int64, tags []string, rate float64) error {
	r.counts = append(r.counts, name)
	r.tags = append(r.tags, tags)
	return nil
}

func (r *recordingClient) Histogram(name string, value float64, tags []string, rate float64) error {
	r.histograms = append(r.histograms, name)
	return nil
}

func (r *recordingClient) Close() error {
	r.closed = true
	return nil
}

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()
	if _, err := NewBackend(Config{}); err == nil {
		t.Fatal("NewBackend(empty) error = nil, want error")
	}
}

func TestBackend_ForwardsToClient(t *testing.T) {
	t.Parallel()

	rc := &recordingClient{}
	b := &Backend{client: rc}

	b.IncCounter(metrics.StageTotal, 1, metrics.Labels{"stage": "clean", "job": "rain"})
	b.ObserveHistogram(metrics.StageDuration, 0.25, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	if !reflect.DeepEqual(rc.counts, []string{metrics.StageTotal}) {
		t.Fatalf("counts = %v", rc.counts)
	}
	if !reflect.DeepEqual(rc.tags[0], []string{"job:rain", "stage:clean"}) {
		t.Fatalf("tags = %v, want sorted key:value", rc.tags[0])
	}
	if !reflect.DeepEqual(rc.histograms, []string{metrics.StageDuration}) {
		t.Fatalf("histograms = %v", rc.histograms)
	}
	if !rc.closed {
		t.Fatal("Flush did not close the client")
	}
}

func TestBackend_NilClientIsNoop(t *testing.T) {
	t.Parallel()
	b := &Backend{}
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
}
