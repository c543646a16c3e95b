package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder holds the metrics for one process.
type Recorder struct {
	registry *prometheus.Registry

	InferenceRequests *prometheus.CounterVec
	InferenceDuration *prometheus.HistogramVec
	InferenceTokens   *prometheus.CounterVec
	Fragments         *prometheus.CounterVec
	CacheLookups      *prometheus.CounterVec
	Files             *prometheus.CounterVec
	Verdicts          *prometheus.CounterVec
}

// New creates a Recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		InferenceRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "glean_inference_requests_total",
			Help: "Total number of inference requests by provider and outcome",
		}, []string{"provider", "outcome"}),
		InferenceDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "glean_inference_duration_seconds",
			Help:    "Inference request latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"provider"}),
		InferenceTokens: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "glean_inference_tokens_total",
			Help: "Total tokens reported by providers",
		}, []string{"provider"}),
		Fragments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "glean_fragments_total",
			Help: "Total number of fragments sent to a model, by stage",
		}, []string{"stage"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "glean_cache_lookups_total",
			Help: "Response cache lookups by result",
		}, []string{"result"}),
		Files: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "glean_files_total",
			Help: "Files processed by analyze, by status",
		}, []string{"status"}),
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "glean_review_verdicts_total",
			Help: "File review verdicts (clean or comments)",
		}, []string{"verdict"}),
	}
}

// Registry returns the registry holding the recorder's metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveInference records one inference request.
func (r *Recorder) ObserveInference(provider string, d time.Duration, tokens int, err error) {
	if r == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	r.InferenceRequests.WithLabelValues(provider, outcome).Inc()
	r.InferenceDuration.WithLabelValues(provider).Observe(d.Seconds())
	if tokens > 0 {
		r.InferenceTokens.WithLabelValues(provider).Add(float64(tokens))
	}
}

// AddFragments counts fragments produced for a stage ("purpose" or "review").
func (r *Recorder) AddFragments(stage string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.Fragments.WithLabelValues(stage).Add(float64(n))
}

// CacheHit records a cache hit.
func (r *Recorder) CacheHit() {
	if r == nil {
		return
	}
	r.CacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss records a cache miss.
func (r *Recorder) CacheMiss() {
	if r == nil {
		return
	}
	r.CacheLookups.WithLabelValues("miss").Inc()
}

// FileProcessed records the outcome of one analyzed file.
func (r *Recorder) FileProcessed(status string) {
	if r == nil {
		return
	}
	r.Files.WithLabelValues(status).Inc()
}

// Verdict records whether a file review came back clean.
func (r *Recorder) Verdict(clean bool) {
	if r == nil {
		return
	}
	v := "comments"
	if clean {
		v = "clean"
	}
	r.Verdicts.WithLabelValues(v).Inc()
}

// WriteFile writes all metrics to path in the Prometheus text format.
func (r *Recorder) WriteFile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}
