// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package config loads and validates the process-wide configuration.
//
// Configuration is resolved from three layers, lowest to highest
// priority:
//
//  1. Defaults: built-in values matching the standard data/ layout
//  2. Config File: optional YAML file (config.yaml, or the path in
//     LEXICOGRAPHUS_CONFIG)
//  3. Environment Variables: LEXICOGRAPHUS_* overrides for any setting
//
// All paths are relative to the working directory unless absolute.
// The configuration is immutable after Load returns; actions receive
// it by pointer and never mutate it.
//
// Example:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("failed to load config")
//	}
//	store, err := database.New(cfg.Paths.Database)
package config

// Config is the root configuration for all pipeline actions.
type Config struct {
	Paths      PathsConfig      `koanf:"paths"`
	Analysis   AnalysisConfig   `koanf:"analysis"`
	Prompt     PromptConfig     `koanf:"prompt"`
	Similarity SimilarityConfig `koanf:"similarity"`
	Extract    ExtractConfig    `koanf:"extract"`
	Pipeline   PipelineConfig   `koanf:"pipeline"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// PathsConfig names every file and directory the pipeline touches.
type PathsConfig struct {
	// Database is the SQLite store file shared by all actions.
	Database string `koanf:"database" validate:"required"`

	// TokenDir holds the per-document token frequency JSON files
	// (title_<id>.json) consumed by ingestion.
	TokenDir string `koanf:"token_dir" validate:"required"`

	// PDFDir holds the raw source documents scanned by the catalog
	// and text extraction actions.
	PDFDir string `koanf:"pdf_dir" validate:"required"`

	// DumpCSV receives the fingerprint summary rows when dumping is
	// enabled. Reset at the start of each ingestion run.
	DumpCSV string `koanf:"dump_csv" validate:"required"`

	// FilteredDir receives one CSV of retained tokens per document.
	FilteredDir string `koanf:"filtered_dir" validate:"required"`

	// InfoCSV receives the catalog summary rows.
	InfoCSV string `koanf:"info_csv" validate:"required"`

	// BufferJSON is the prompt query input, a token to count map.
	BufferJSON string `koanf:"buffer_json" validate:"required"`

	// PromptOutput receives ranked prompt results.
	PromptOutput string `koanf:"prompt_output" validate:"required"`

	// RouteOutput receives generated route records.
	RouteOutput string `koanf:"route_output" validate:"required"`

	// GlobalTerms is the corpus-wide token to count map consumed by
	// the TF-IDF builder.
	GlobalTerms string `koanf:"global_terms" validate:"required"`
}

// AnalysisConfig tunes token ingestion and TF-IDF construction.
type AnalysisConfig struct {
	// MaxTokenLength caps the length of tokens retained at ingestion.
	MaxTokenLength int `koanf:"max_token_length" validate:"min=1"`

	// MinTokenCount is the ingestion frequency floor; tokens that
	// occur fewer times in a document are dropped.
	MinTokenCount int `koanf:"min_token_count" validate:"min=1"`

	// MinTermFreq is the corpus frequency floor for TF-IDF inclusion.
	MinTermFreq int `koanf:"min_term_freq" validate:"min=1"`

	// BatchSize is the number of TF-IDF rows upserted per batch.
	BatchSize int `koanf:"batch_size" validate:"min=1"`
}

// PromptConfig tunes prompt scoring.
type PromptConfig struct {
	// MaxTokenLength caps prompt token length. Looser than the
	// ingestion cap so short free-form queries survive filtering.
	MaxTokenLength int `koanf:"max_token_length" validate:"min=1"`

	// MinTokenCount is the prompt token frequency floor.
	MinTokenCount int `koanf:"min_token_count" validate:"min=1"`

	// TopN bounds the number of scored documents emitted.
	TopN int `koanf:"top_n" validate:"min=1"`
}

// SimilarityConfig tunes the pairwise similarity builder.
type SimilarityConfig struct {
	// Workers is the producer goroutine count. Zero selects a
	// runtime default based on available CPUs.
	Workers int `koanf:"workers" validate:"min=0"`

	// IDsPerWorker is the number of documents a producer claims per
	// cursor advance.
	IDsPerWorker int `koanf:"ids_per_worker" validate:"min=1"`

	// WriteThreshold is the edge count at which a producer hands its
	// local buffer to the writer queue.
	WriteThreshold int `koanf:"write_threshold" validate:"min=1"`
}

// ExtractConfig tunes PDF text extraction.
type ExtractConfig struct {
	// MaxFileSize is the per-PDF size guard in bytes. Larger files
	// are skipped with a warning.
	MaxFileSize int64 `koanf:"max_file_size" validate:"min=1"`

	// ChunkSize is the number of words per stored text chunk.
	ChunkSize int `koanf:"chunk_size" validate:"min=1"`
}

// PipelineConfig selects per-action behavior.
type PipelineConfig struct {
	// ShowProgress emits a per-file progress line during ingestion.
	ShowProgress bool `koanf:"show_progress"`

	// ResetOnIngest clears the fingerprint tables before ingesting.
	ResetOnIngest bool `koanf:"reset_on_ingest"`

	// DumpArtifacts writes the diagnostic CSV dumps alongside the
	// database rows.
	DumpArtifacts bool `koanf:"dump_artifacts"`

	// RemoveSource deletes each token JSON after successful ingestion.
	RemoveSource bool `koanf:"remove_source"`

	// AppendCatalog skips documents already present in the catalog
	// instead of re-recording them.
	AppendCatalog bool `koanf:"append_catalog"`

	// AppendMatrix skips source documents already present in the
	// similarity matrix instead of rescoring them.
	AppendMatrix bool `koanf:"append_matrix"`
}

// LoggingConfig mirrors the logging package configuration.
type LoggingConfig struct {
	Level     string `koanf:"level" validate:"oneof=trace debug info warn error fatal"`
	Format    string `koanf:"format" validate:"oneof=json console"`
	Caller    bool   `koanf:"caller"`
	Timestamp bool   `koanf:"timestamp"`
}

// Load resolves the configuration from defaults, an optional config
// file, and environment variables, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
