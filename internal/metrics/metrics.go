// Package metrics instruments the transcription pipeline with Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline and HTTP metrics. Construct one per process
// (or per test registry); promauto registration panics on duplicates.
type Metrics struct {
	ChunksProcessed        prometheus.Counter
	EmptyTranscripts       prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	SummarizationFailures  prometheus.Counter
	SessionsFinalized      prometheus.Counter
	SessionsFailed         prometheus.Counter
	ChunkProcessingSeconds prometheus.Histogram
	LiveStreamsOpen        prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
}

// New registers all metrics against reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ChunksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "handriti_chunks_processed_total",
			Help: "Audio chunks fully processed into a chunk and note",
		}),
		EmptyTranscripts: factory.NewCounter(prometheus.CounterOpts{
			Name: "handriti_empty_transcripts_total",
			Help: "Chunk submissions whose transcription yielded no text",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "handriti_transcription_failures_total",
			Help: "Failed transcription calls",
		}),
		SummarizationFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "handriti_summarization_failures_total",
			Help: "Failed or malformed summarization calls",
		}),
		SessionsFinalized: factory.NewCounter(prometheus.CounterOpts{
			Name: "handriti_sessions_finalized_total",
			Help: "Sessions closed out with a final summary",
		}),
		SessionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "handriti_sessions_failed_total",
			Help: "Sessions marked failed by the upload pipeline",
		}),
		ChunkProcessingSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "handriti_chunk_processing_seconds",
			Help:    "Wall-clock duration of one chunk processing invocation",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		LiveStreamsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "handriti_live_streams_open",
			Help: "Currently connected live update streams",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "handriti_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
	}
}
