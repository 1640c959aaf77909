package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JakeFAU/idiom-dictionary-crawler/internal/progress"
)

// PrometheusSink exports run progress via Prometheus collectors.
type PrometheusSink struct {
	runsStarted   *prometheus.CounterVec
	runsCompleted *prometheus.CounterVec
	runRuntime    prometheus.Histogram

	chunksCompleted prometheus.Counter
	chunkDuration   prometheus.Histogram

	fetchTotal    *prometheus.CounterVec
	fetchBytes    prometheus.Counter
	fetchAttempts prometheus.Histogram
	fetchDuration *prometheus.HistogramVec

	extractTotal *prometheus.CounterVec
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		runsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idioms_runs_started_total",
			Help: "Runs started, partitioned by stage kind.",
		}, []string{"kind"}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idioms_runs_completed_total",
			Help: "Runs completed, partitioned by stage kind.",
		}, []string{"kind"}),
		runRuntime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "idioms_run_runtime_seconds",
			Help:    "Wall time per completed run.",
			Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600, 7200},
		}),
		chunksCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "idioms_chunks_completed_total",
			Help: "Fetch chunks fully settled.",
		}),
		chunkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "idioms_chunk_duration_seconds",
			Help:    "Wall time per fetch chunk.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idioms_fetch_total",
			Help: "Identifiers processed by the fetch stage, partitioned by outcome and status class.",
		}, []string{"outcome", "status_class"}),
		fetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "idioms_fetch_bytes_total",
			Help: "Bytes of raw documents downloaded.",
		}),
		fetchAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "idioms_fetch_attempts",
			Help:    "Attempts made per identifier.",
			Buckets: []float64{1, 2, 3, 5, 10},
		}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idioms_fetch_duration_seconds",
			Help:    "Time spent per identifier including retries.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"outcome"}),
		extractTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "idioms_extract_total",
			Help: "Documents handled by the extract stage, partitioned by result.",
		}, []string{"result"}),
	}
	for _, collector := range []prometheus.Collector{
		s.runsStarted,
		s.runsCompleted,
		s.runRuntime,
		s.chunksCompleted,
		s.chunkDuration,
		s.fetchTotal,
		s.fetchBytes,
		s.fetchAttempts,
		s.fetchDuration,
		s.extractTotal,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the Prometheus collectors using the provided batch.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageRunStart:
		s.runsStarted.WithLabelValues(runKind(evt)).Inc()
	case progress.StageRunDone:
		s.runsCompleted.WithLabelValues(runKind(evt)).Inc()
		if evt.Dur > 0 {
			s.runRuntime.Observe(evt.Dur.Seconds())
		}
	case progress.StageChunkDone:
		s.chunksCompleted.Inc()
		if evt.Dur > 0 {
			s.chunkDuration.Observe(evt.Dur.Seconds())
		}
	case progress.StageFetchDone, progress.StageFetchFailed:
		s.handleFetchEvent(evt)
	case progress.StageExtractDone:
		s.extractTotal.WithLabelValues("written").Inc()
	case progress.StageExtractFailed:
		s.extractTotal.WithLabelValues("skipped").Inc()
	}
}

func (s *PrometheusSink) handleFetchEvent(evt progress.Event) {
	outcome := evt.Outcome
	if outcome == "" {
		outcome = "unknown"
	}
	statusClass := string(evt.StatusClass)
	if statusClass == "" {
		statusClass = string(progress.StatusOther)
	}
	s.fetchTotal.WithLabelValues(outcome, statusClass).Inc()
	if evt.Bytes > 0 {
		s.fetchBytes.Add(float64(evt.Bytes))
	}
	if evt.Attempts > 0 {
		s.fetchAttempts.Observe(float64(evt.Attempts))
	}
	if evt.Dur > 0 {
		s.fetchDuration.WithLabelValues(outcome).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}

// runKind reads the run kind carried in the Note of run events.
func runKind(evt progress.Event) string {
	if evt.Note == "" {
		return "unknown"
	}
	return evt.Note
}
