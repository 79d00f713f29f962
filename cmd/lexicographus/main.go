// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package main is the entry point for the Lexicographus command line tool.
//
// Lexicographus analyzes a corpus of PDF documents for content
// relatedness. It extracts and chunks text, stems the chunks into token
// frequency maps, fingerprints documents into an embedded SQLite store,
// weights terms with TF-IDF, scores free-text prompts against the
// corpus, builds a pairwise similarity matrix, and walks greedy reading
// routes over that matrix.
//
// # Pipeline
//
// Each stage is an action flag. Actions always execute in pipeline
// order, whatever order the flags were passed in:
//
//  1. extractText: chunk resource PDFs into pdf_chunks
//  2. generateTokenFrequencies: stem chunks into token JSON maps
//  3. computeRelationalDistance: ingest token maps as fingerprints
//  4. updateDatabaseInformation: refresh the file_info catalog
//  5. computeTFIDF: weight terms across the corpus
//  6. mapItemMatrix: score document pairs into item_matrix_triangle
//  7. processPrompt: rank documents against the query buffer
//  8. createRoutes: walk greedy reading routes over the matrix
//
// --displayHelp prints usage and --interactive opens a terminal menu
// that drives the same actions.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (LEXICOGRAPHUS_ prefix)
//   - Config file (config.yaml, or the path in LEXICOGRAPHUS_CONFIG)
//   - Built-in defaults
//
// A .env file in the working directory is loaded first when present.
//
// # Exit Codes
//
// The process keeps running when an action fails so the remaining
// actions still execute. It exits 0 only when every executed action
// succeeded, 1 otherwise (including the no-flags case, which prints
// help).
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the in-flight action. Work committed before
// the cancellation persists; re-running the same actions resumes from
// the store state.
//
// # Example Usage
//
// Full pipeline over data/pdf:
//
//	lexicographus --extractText --generateTokenFrequencies \
//	  --computeRelationalDistance --updateDatabaseInformation \
//	  --computeTFIDF --mapItemMatrix
//
// Score a prompt (reads data/buffer.json, writes data/output_prompt.txt):
//
//	lexicographus --processPrompt
//
// Interactive menu:
//
//	lexicographus --interactive
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/tomtom215/lexicographus/internal/config"
	"github.com/tomtom215/lexicographus/internal/database"
	"github.com/tomtom215/lexicographus/internal/logging"
	"github.com/tomtom215/lexicographus/internal/metrics"
	"github.com/tomtom215/lexicographus/internal/pipeline"
)

// version is stamped at build time:
//
//	go build -ldflags "-X main.version=v1.2.3" ./cmd/lexicographus
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	_ = godotenv.Load()

	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: cfg.Logging.Timestamp,
	})

	// Stamp a run id into the root logger so every line of one
	// invocation correlates.
	logging.SetLogger(logging.With().Str("run_id", uuid.NewString()).Logger())

	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	selected, unknown := parseActions(args)
	for _, flag := range unknown {
		logging.Error().Str("flag", flag).Msg("Unknown action flag")
	}
	if len(selected) == 0 {
		printHelp(stdout)
		return 1
	}

	logging.Info().
		Str("version", version).
		Strs("actions", selected).
		Msg("Starting Lexicographus")

	var runner *pipeline.Runner
	if needsStore(selected) {
		db, err := database.New(cfg.Paths.Database)
		if err != nil {
			logging.Error().Err(err).Str("path", cfg.Paths.Database).Msg("Failed to open store")
			return 1
		}
		defer func() {
			if err := db.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing store")
			}
		}()

		runner, err = pipeline.NewRunner(cfg, db)
		if err != nil {
			logging.Error().Err(err).Msg("Failed to create pipeline runner")
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := false
	for _, name := range selected {
		start := time.Now()
		logging.Info().Str("action", name).Msg("Action started")

		err := executeAction(ctx, name, runner, cfg, stdin, stdout)
		metrics.RecordAction(name, time.Since(start), err)
		if err != nil {
			failed = true
			logging.Error().
				Err(err).
				Str("action", name).
				Dur("duration", time.Since(start)).
				Msg("Action failed")
			continue
		}

		logging.Info().
			Str("action", name).
			Dur("duration", time.Since(start)).
			Msg("Action finished")
	}

	logSummary()

	if failed {
		return 1
	}
	return 0
}

// needsStore reports whether any selected action touches the store.
// Help alone must not create the database file.
func needsStore(selected []string) bool {
	for _, name := range selected {
		if name != actionHelp {
			return true
		}
	}
	return false
}

// logSummary emits the end-of-run metric totals as one log line.
func logSummary() {
	summary := metrics.Summary()
	if len(summary) == 0 {
		return
	}
	event := logging.Info()
	for _, key := range metrics.SummaryKeys(summary) {
		event = event.Float64(key, summary[key])
	}
	event.Msg("Run summary")
}
