package main

import (
	"log"
	"os"
	"time"

	"dqpipe/internal/advisor"
	"dqpipe/internal/config"
	"dqpipe/internal/metrics"
	"dqpipe/internal/metrics/datadog"
	"dqpipe/internal/metrics/prompush"
)

// setupMetrics installs the configured metrics backend and returns the
// function that flushes it at exit. Failures fall back to the nop backend.
func setupMetrics(p config.Pipeline, verbose bool) (flush func()) {
	noop := func() {}
	flushFn := func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}

	switch p.Metrics.Backend {
	case "pushgateway":
		// Decide Pushgateway URL: config → env.
		gwURL := p.Metrics.PushgatewayURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		b, err := prompush.NewBackend(p.Job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return noop
		}
		log.Printf("metrics: url=%v, backend=pushgateway, job_name=%v", gwURL, p.Job)
		metrics.SetBackend(b)
		return flushFn

	case "datadog":
		addr := p.Metrics.DatadogAddr
		if addr == "" {
			addr = os.Getenv("DD_DOGSTATSD_ADDR")
		}
		if addr == "" {
			addr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "dqpipe.",
			GlobalTags: []string{"job:" + p.Job},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return noop
		}
		log.Printf("metrics: addr=%v, backend=datadog", addr)
		metrics.SetBackend(b)
		return flushFn

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", p.Metrics.Backend)
		}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", p.Metrics.Backend)
	}
	return noop
}

// newAdvisor returns the Gemini advisor when the LLM section is enabled and
// its API key is present, otherwise advisor.Nop.
func newAdvisor(l config.LLM, verbose bool) advisor.Advisor {
	if l.Disabled {
		return advisor.Nop{}
	}
	key := os.Getenv(l.APIKeyEnv)
	if key == "" {
		if verbose {
			log.Printf("advisor: %s not set; skipping", l.APIKeyEnv)
		}
		return advisor.Nop{}
	}
	return advisor.NewGemini(advisor.GeminiConfig{
		Endpoint: l.Endpoint,
		Model:    l.Model,
		APIKey:   key,
		Timeout:  time.Duration(l.TimeoutSeconds) * time.Second,
	})
}
