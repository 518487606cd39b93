package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MatchingMetrics records pipeline outcomes for the matching worker.
type MatchingMetrics struct {
	runs          *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	candidates    prometheus.Histogram
}

// NewMatchingMetrics registers the matching metrics on the provided registerer.
func NewMatchingMetrics(reg prometheus.Registerer) *MatchingMetrics {
	if reg == nil {
		return &MatchingMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "matching_runs_total",
		Help: "Matching pipeline runs by outcome.",
	}, []string{"outcome"})
	stageDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "matching_stage_duration_seconds",
		Help:    "Duration of matching pipeline stages in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})
	candidates := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "matching_candidate_count",
		Help:    "Number of catalog candidates retrieved per run.",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
	})
	reg.MustRegister(runs, stageDuration, candidates)
	return &MatchingMetrics{
		runs:          runs,
		stageDuration: stageDuration,
		candidates:    candidates,
	}
}

// IncRun increments the run counter for the given outcome.
func (m *MatchingMetrics) IncRun(outcome string) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveStage records the duration of a named pipeline stage.
func (m *MatchingMetrics) ObserveStage(stage string, duration time.Duration) {
	if m == nil || m.stageDuration == nil {
		return
	}
	m.stageDuration.WithLabelValues(normalizeLabel(stage)).Observe(duration.Seconds())
}

// ObserveCandidates records the candidate count for a run.
func (m *MatchingMetrics) ObserveCandidates(count int) {
	if m == nil || m.candidates == nil {
		return
	}
	m.candidates.Observe(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
