// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package metrics

import (
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Prometheus instrumentation for the analysis pipeline:
// - SQLite statement performance
// - Token ingestion throughput
// - TF-IDF build progress
// - Similarity matrix production and writer queue depth
// - Prompt scoring and route generation outcomes

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlite_query_duration_seconds",
			Help:    "Duration of SQLite statements in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s .. 10s
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlite_query_errors_total",
			Help: "Total number of SQLite statement errors",
		},
		[]string{"operation", "table"},
	)

	// Ingestion Metrics (token transform + fingerprint writer)
	IngestFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_files_processed_total",
			Help: "Total number of token JSON files fingerprinted",
		},
	)

	IngestFilesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_files_skipped_total",
			Help: "Total number of token JSON files skipped",
		},
		[]string{"reason"}, // "read", "parse", "empty"
	)

	IngestTokensRetained = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_tokens_retained_total",
			Help: "Total number of tokens surviving the ingestion filter",
		},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "Duration of full ingestion runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		},
	)

	// Catalog Metrics
	CatalogDocumentsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_documents_recorded_total",
			Help: "Total number of documents recorded in the catalog",
		},
	)

	CatalogDocumentsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_documents_skipped_total",
			Help: "Total number of documents skipped as already cataloged",
		},
	)

	// TF-IDF Metrics
	TFIDFTermsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tfidf_terms_scored_total",
			Help: "Total number of terms written to the tf_idf table",
		},
	)

	TFIDFTermsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tfidf_terms_dropped_total",
			Help: "Total number of terms below the corpus frequency floor",
		},
	)

	TFIDFBatchesFlushed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tfidf_batches_flushed_total",
			Help: "Total number of TF-IDF upsert batches executed",
		},
	)

	// Similarity Matrix Metrics
	MatrixEdgesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matrix_edges_scored_total",
			Help: "Total number of candidate pairs scored",
		},
	)

	MatrixEdgesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matrix_edges_written_total",
			Help: "Total number of similarity edges persisted",
		},
	)

	MatrixEdgesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matrix_edges_dropped_total",
			Help: "Total number of pairs dropped for non-positive similarity",
		},
	)

	MatrixBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matrix_batch_size",
			Help:    "Number of edges in each writer batch",
			Buckets: []float64{10, 100, 1000, 5000, 10000, 20000},
		},
	)

	MatrixFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matrix_flush_duration_seconds",
			Help:    "Duration of writer batch flushes in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MatrixQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matrix_queue_depth",
			Help: "Current number of batches waiting for the writer",
		},
	)

	MatrixActiveProducers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matrix_active_producers",
			Help: "Current number of running producer goroutines",
		},
	)

	// Prompt Metrics
	PromptQueries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prompt_queries_total",
			Help: "Total number of prompt scoring runs",
		},
	)

	PromptDocumentsEmitted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prompt_documents_emitted",
			Help:    "Number of documents emitted per prompt run",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 1000},
		},
	)

	PromptDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prompt_duration_seconds",
			Help:    "Duration of prompt scoring runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Route Metrics
	RoutesGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "routes_generated_total",
			Help: "Total number of route records generated",
		},
	)

	RouteSteps = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "route_steps",
			Help:    "Number of hops per generated route",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100},
		},
	)

	RouteTerminations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_terminations_total",
			Help: "Total number of route terminations by cause",
		},
		[]string{"reason"}, // "exhausted", "diverged", "loop"
	)

	// Tokenizer Metrics
	TokenizerTitlesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokenizer_titles_processed_total",
			Help: "Total number of documents tokenized into frequency maps",
		},
	)

	TokenizerStemsRetained = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tokenizer_stems_retained_total",
			Help: "Total number of stem occurrences surviving the token filter",
		},
	)

	// Extraction Metrics
	ExtractDocumentsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "extract_documents_processed_total",
			Help: "Total number of PDFs converted to text chunks",
		},
	)

	ExtractDocumentsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extract_documents_skipped_total",
			Help: "Total number of PDFs skipped during extraction",
		},
		[]string{"reason"}, // "known", "oversize", "empty", "error"
	)

	ExtractChunksStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "extract_chunks_stored_total",
			Help: "Total number of text chunks stored",
		},
	)

	// Action Metrics
	ActionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "action_duration_seconds",
			Help:    "Duration of pipeline actions in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		},
		[]string{"action"},
	)

	ActionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "action_failures_total",
			Help: "Total number of failed pipeline actions",
		},
		[]string{"action"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a statement metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordIngestSkip records a skipped token JSON file
func RecordIngestSkip(reason string) {
	IngestFilesSkipped.WithLabelValues(reason).Inc()
}

// RecordMatrixFlush records one writer batch
func RecordMatrixFlush(duration time.Duration, batchSize int) {
	MatrixFlushDuration.Observe(duration.Seconds())
	MatrixBatchSize.Observe(float64(batchSize))
	MatrixEdgesWritten.Add(float64(batchSize))
}

// RecordPromptRun records one prompt scoring run
func RecordPromptRun(duration time.Duration, emitted int) {
	PromptQueries.Inc()
	PromptDuration.Observe(duration.Seconds())
	PromptDocumentsEmitted.Observe(float64(emitted))
}

// RecordAction records one executed pipeline action
func RecordAction(action string, duration time.Duration, err error) {
	ActionDuration.WithLabelValues(action).Observe(duration.Seconds())
	if err != nil {
		ActionFailures.WithLabelValues(action).Inc()
	}
}

// RecordRoute records one completed route
func RecordRoute(steps int, reason string) {
	RoutesGenerated.Inc()
	RouteSteps.Observe(float64(steps))
	RouteTerminations.WithLabelValues(reason).Inc()
}

// Summary gathers the default registry and returns the non-zero totals
// of this application's metrics, keyed by metric name. Runtime series
// (go_*, process_*) are excluded. Used for the end-of-run log line.
func Summary() map[string]float64 {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil
	}

	out := make(map[string]float64)
	for _, mf := range families {
		name := mf.GetName()
		if strings.HasPrefix(name, "go_") || strings.HasPrefix(name, "process_") {
			continue
		}

		var total float64
		for _, m := range mf.GetMetric() {
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				total += m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				total += m.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				total += float64(m.GetHistogram().GetSampleCount())
			default:
				// summaries and untyped series are not used here
			}
		}
		if total != 0 {
			out[name] = total
		}
	}
	return out
}

// SummaryKeys returns the sorted metric names of a Summary result, for
// deterministic logging.
func SummaryKeys(summary map[string]float64) []string {
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
