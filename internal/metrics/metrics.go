// Package metrics exposes Prometheus collectors for the ingestion and
// question-answering pipeline.
//
// Collectors live on a private registry so that several pipelines can
// coexist in one process (and in tests). All methods are safe on a nil
// *Metrics, which disables collection.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "studybuddy"

// Status label values.
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusIncomplete = "incomplete"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	registry *prometheus.Registry

	documentsIngested  *prometheus.CounterVec
	chunksIngested     prometheus.Counter
	queries            *prometheus.CounterVec
	answers            *prometheus.CounterVec
	retrievalDuration  prometheus.Histogram
	generationDuration prometheus.Histogram
	embeddingErrors    prometheus.Counter
}

// New creates the collectors and registers them, together with the Go
// runtime collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documentsIngested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_ingested_total",
			Help:      "Documents processed by the ingestion pipeline, by outcome.",
		}, []string{"status"}),
		chunksIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_ingested_total",
			Help:      "Chunks added to the vector index.",
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Retrieval queries, by outcome.",
		}, []string{"status"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Streamed answers, by outcome.",
		}, []string{"status"}),
		retrievalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_duration_seconds",
			Help:      "Time spent embedding the question and searching the index.",
			Buckets:   prometheus.DefBuckets,
		}),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time from opening an answer stream until it ends.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		embeddingErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_errors_total",
			Help:      "Failed embedding calls at index or query time.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.documentsIngested,
		m.chunksIngested,
		m.queries,
		m.answers,
		m.retrievalDuration,
		m.generationDuration,
		m.embeddingErrors,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveIngest records one document ingestion.
func (m *Metrics) ObserveIngest(chunks int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.documentsIngested.WithLabelValues(StatusError).Inc()
		return
	}
	m.documentsIngested.WithLabelValues(StatusOK).Inc()
	m.chunksIngested.Add(float64(chunks))
}

// ObserveQuery records one retrieval.
func (m *Metrics) ObserveQuery(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	m.queries.WithLabelValues(status).Inc()
	m.retrievalDuration.Observe(elapsed.Seconds())
}

// ObserveAnswer records one finished answer stream.
func (m *Metrics) ObserveAnswer(elapsed time.Duration, complete bool) {
	if m == nil {
		return
	}
	status := StatusOK
	if !complete {
		status = StatusIncomplete
	}
	m.answers.WithLabelValues(status).Inc()
	m.generationDuration.Observe(elapsed.Seconds())
}

// IncEmbeddingErrors counts a failed embedding call.
func (m *Metrics) IncEmbeddingErrors() {
	if m == nil {
		return
	}
	m.embeddingErrors.Inc()
}
