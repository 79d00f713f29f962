// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

/*
Package metrics provides Prometheus instrumentation for the analysis
pipeline.

Metrics are registered on the default registry via promauto and
aggregated into an end-of-run summary log line by Summary(). The
process is a batch CLI, so no scrape endpoint is exposed; the registry
exists to keep instrumentation uniform and cheap to extend.

# Available Metrics

Database:
  - sqlite_query_duration_seconds: statement latency (histogram)
    Labels: operation, table
  - sqlite_query_errors_total: failed statements (counter)
    Labels: operation, table

Ingestion:
  - ingest_files_processed_total: fingerprinted token files (counter)
  - ingest_files_skipped_total: skipped token files (counter)
    Labels: reason (read, parse, empty)
  - ingest_tokens_retained_total: tokens surviving the filter (counter)
  - ingest_duration_seconds: full run duration (histogram)

Catalog:
  - catalog_documents_recorded_total: new catalog rows (counter)
  - catalog_documents_skipped_total: already-known documents (counter)

TF-IDF:
  - tfidf_terms_scored_total: terms written (counter)
  - tfidf_terms_dropped_total: terms under the frequency floor (counter)
  - tfidf_batches_flushed_total: upsert batches (counter)

Similarity matrix:
  - matrix_edges_scored_total: candidate pairs scored (counter)
  - matrix_edges_written_total: edges persisted (counter)
  - matrix_edges_dropped_total: non-positive similarities (counter)
  - matrix_batch_size: edges per writer batch (histogram)
  - matrix_flush_duration_seconds: writer flush latency (histogram)
  - matrix_queue_depth: batches awaiting the writer (gauge)
  - matrix_active_producers: running producers (gauge)

Prompt scoring:
  - prompt_queries_total: scoring runs (counter)
  - prompt_documents_emitted: results per run (histogram)
  - prompt_duration_seconds: run duration (histogram)

Routes:
  - routes_generated_total: route records (counter)
  - route_steps: hops per route (histogram)
  - route_terminations_total: termination causes (counter)
    Labels: reason (exhausted, diverged, loop)

Tokenizer:
  - tokenizer_titles_processed_total: documents tokenized (counter)
  - tokenizer_stems_retained_total: retained stem occurrences (counter)

Extraction:
  - extract_documents_processed_total: PDFs chunked (counter)
  - extract_documents_skipped_total: PDFs skipped (counter)
    Labels: reason (known, oversize, empty, error)
  - extract_chunks_stored_total: chunks stored (counter)

Actions:
  - action_duration_seconds: per-action wall time (histogram)
    Labels: action
  - action_failures_total: failed actions (counter)
    Labels: action

System:
  - app_info: version and Go runtime (gauge)

# Usage

Record helpers wrap the common patterns:

	defer func(start time.Time) {
	    metrics.RecordDBQuery("insert", "relation_distance", time.Since(start), err)
	}(time.Now())

At the end of a run:

	summary := metrics.Summary()
	for _, name := range metrics.SummaryKeys(summary) {
	    logging.Info().Float64(name, summary[name]).Msg("metric")
	}
*/
package metrics
