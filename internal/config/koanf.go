// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/lexicographus/config.yaml",
	"/etc/lexicographus/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "LEXICOGRAPHUS_CONFIG"

// envPrefix scopes environment variable overrides to this process.
const envPrefix = "LEXICOGRAPHUS_"

// defaultConfig returns a Config with the standard data/ layout and the
// tuning values the pipeline was calibrated with. Defaults are applied
// first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Database:     "data/pdf_text.db",
			TokenDir:     "data/token_json",
			PDFDir:       "data/pdf",
			DumpCSV:      "data/processed_data/data_dumper.csv",
			FilteredDir:  "data/processed_data/filtered",
			InfoCSV:      "data/processed_data/data_info.csv",
			BufferJSON:   "data/buffer.json",
			PromptOutput: "data/output_prompt.txt",
			RouteOutput:  "data/route_list.txt",
			GlobalTerms:  "data/global_terms.json",
		},
		Analysis: AnalysisConfig{
			MaxTokenLength: 14,
			MinTokenCount:  3,
			MinTermFreq:    4,
			BatchSize:      1000,
		},
		Prompt: PromptConfig{
			MaxTokenLength: 16,
			MinTokenCount:  1,
			TopN:           9999,
		},
		Similarity: SimilarityConfig{
			Workers:        0, // 0 = runtime.NumCPU()
			IDsPerWorker:   10,
			WriteThreshold: 10000,
		},
		Extract: ExtractConfig{
			MaxFileSize: 50 << 20, // 50MB
			ChunkSize:   512,
		},
		Pipeline: PipelineConfig{
			ShowProgress:  true,
			ResetOnIngest: true,
			DumpArtifacts: true,
			RemoveSource:  false,
			AppendCatalog: true,
			AppendMatrix:  true,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "console",
			Caller:    false,
			Timestamp: true,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in values
//  2. Config File: optional YAML config file (if present)
//  3. Environment Variables: override any setting
//
// Precedence is ENV > File > Defaults. Environment variable names are
// mapped to koanf paths through an explicit table so that unrelated
// LEXICOGRAPHUS_* variables cannot leak into the configuration.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	// LEXICOGRAPHUS_DATABASE_PATH -> paths.database
	// LEXICOGRAPHUS_TOP_N         -> prompt.top_n
	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string.
func findConfigFile() string {
	// Environment variable wins
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps LEXICOGRAPHUS_* variable names (prefix stripped,
// lowercased) to koanf config paths. Variables absent from this table
// are ignored.
var envMappings = map[string]string{
	// Paths
	"database_path": "paths.database",
	"token_dir":     "paths.token_dir",
	"pdf_dir":       "paths.pdf_dir",
	"dump_csv":      "paths.dump_csv",
	"filtered_dir":  "paths.filtered_dir",
	"info_csv":      "paths.info_csv",
	"buffer_json":   "paths.buffer_json",
	"prompt_output": "paths.prompt_output",
	"route_output":  "paths.route_output",
	"global_terms":  "paths.global_terms",

	// Analysis tunables
	"max_token_length": "analysis.max_token_length",
	"min_token_count":  "analysis.min_token_count",
	"min_term_freq":    "analysis.min_term_freq",
	"batch_size":       "analysis.batch_size",

	// Prompt tunables
	"prompt_max_token_length": "prompt.max_token_length",
	"prompt_min_token_count":  "prompt.min_token_count",
	"top_n":                   "prompt.top_n",

	// Similarity tunables
	"workers":         "similarity.workers",
	"ids_per_worker":  "similarity.ids_per_worker",
	"write_threshold": "similarity.write_threshold",

	// Extraction tunables
	"max_file_size": "extract.max_file_size",
	"chunk_size":    "extract.chunk_size",

	// Pipeline behavior
	"show_progress":   "pipeline.show_progress",
	"reset_on_ingest": "pipeline.reset_on_ingest",
	"dump_artifacts":  "pipeline.dump_artifacts",
	"remove_source":   "pipeline.remove_source",
	"append_catalog":  "pipeline.append_catalog",
	"append_matrix":   "pipeline.append_matrix",

	// Logging
	"log_level":     "logging.level",
	"log_format":    "logging.format",
	"log_caller":    "logging.caller",
	"log_timestamp": "logging.timestamp",
}

// envTransformFunc transforms environment variable names to koanf
// config paths. Unmapped variables return "" and are skipped, so
// LEXICOGRAPHUS_CONFIG and anything else unrelated never collides
// with a config key.
//
// Examples:
//   - LEXICOGRAPHUS_DATABASE_PATH -> paths.database
//   - LEXICOGRAPHUS_LOG_LEVEL     -> logging.level
//   - LEXICOGRAPHUS_TOP_N         -> prompt.top_n
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
