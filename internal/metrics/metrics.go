// Package metrics exposes Prometheus collectors for the transcription pipeline.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "yt_scribe"

// Metrics holds the pipeline collectors and their registry
type Metrics struct {
	registry            *prometheus.Registry
	requests            *prometheus.CounterVec
	transcriptFetches   *prometheus.CounterVec
	completionChunks    *prometheus.CounterVec
	transcribeDuration  prometheus.Histogram
	chunksPerTranscript prometheus.Histogram
}

// New creates collectors registered on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcribe_requests_total",
			Help:      "Transcription requests by HTTP status code.",
		}, []string{"status"}),
		transcriptFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcript_fetch_total",
			Help:      "Caption track fetches by result.",
		}, []string{"result"}),
		completionChunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_chunks_total",
			Help:      "Chunks sent to the completion provider by result.",
		}, []string{"result"}),
		transcribeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcribe_duration_seconds",
			Help:      "End-to-end duration of transcription requests.",
			Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}),
		chunksPerTranscript: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunks_per_transcript",
			Help:      "Number of chunks a transcript was split into.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.transcriptFetches,
		m.completionChunks,
		m.transcribeDuration,
		m.chunksPerTranscript,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records a finished transcription request
func (m *Metrics) ObserveRequest(status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(strconv.Itoa(status)).Inc()
	m.transcribeDuration.Observe(d.Seconds())
}

// ObserveFetch records a caption fetch result: ok, not_found or error
func (m *Metrics) ObserveFetch(result string) {
	if m == nil {
		return
	}
	m.transcriptFetches.WithLabelValues(result).Inc()
}

// ObserveChunk records one completion call
func (m *Metrics) ObserveChunk(failed bool) {
	if m == nil {
		return
	}
	result := "ok"
	if failed {
		result = "failed"
	}
	m.completionChunks.WithLabelValues(result).Inc()
}

// ObserveChunkCount records how many chunks a transcript produced
func (m *Metrics) ObserveChunkCount(n int) {
	if m == nil {
		return
	}
	m.chunksPerTranscript.Observe(float64(n))
}
