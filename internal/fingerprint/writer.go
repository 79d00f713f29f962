// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package fingerprint persists document fingerprints: one summary row per
// document plus the weighted rows of its filtered tokens.
//
// A run spans a single write transaction across every input file so a
// batch is either fully visible or absent. Individual files that fail to
// parse are skipped and logged; database failures abort the batch and
// roll it back. Optional CSV dumps mirror what was written for offline
// inspection and are never allowed to fail the run.
package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lexicographus/internal/database"
	"github.com/tomtom215/lexicographus/internal/logging"
	"github.com/tomtom215/lexicographus/internal/metrics"
	"github.com/tomtom215/lexicographus/internal/models"
	"github.com/tomtom215/lexicographus/internal/tokens"
)

// progressInterval is how many processed files pass between progress log
// lines when progress reporting is enabled.
const progressInterval = 100

// Config controls one fingerprint writer.
type Config struct {
	// MaxLength is the ingestion token length cap.
	MaxLength int

	// MinValue is the ingestion token frequency floor.
	MinValue int

	// DumpEnabled turns on the CSV mirrors of what was persisted.
	DumpEnabled bool

	// DumpPath receives one summary row per document. The file is reset
	// at the start of each run.
	DumpPath string

	// FilteredDir receives one <stem>.csv per document listing its
	// filtered tokens and counts.
	FilteredDir string

	// RemoveSource deletes each source JSON after the batch commits.
	RemoveSource bool

	// ShowProgress logs a progress line every progressInterval files.
	ShowProgress bool
}

// DefaultConfig returns the writer defaults.
func DefaultConfig() Config {
	return Config{
		MaxLength:   14,
		MinValue:    3,
		DumpEnabled: true,
		DumpPath:    "data/processed_data/data_dumper.csv",
		FilteredDir: "data/processed_data/filtered",
	}
}

// Stats is a point-in-time snapshot of writer counters.
type Stats struct {
	Processed int64 // documents persisted
	Skipped   int64 // inputs skipped on parse or read failure
	TokenRows int64 // relation rows written
}

// Writer ingests token JSON files into the store.
type Writer struct {
	db     *database.DB
	config Config
	logger zerolog.Logger

	processed atomic.Int64
	skipped   atomic.Int64
	tokenRows atomic.Int64
}

// NewWriter creates a fingerprint writer over the store.
func NewWriter(db *database.DB, cfg Config) (*Writer, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	if cfg.MaxLength <= 0 {
		return nil, fmt.Errorf("max token length must be positive")
	}
	if cfg.MinValue <= 0 {
		return nil, fmt.Errorf("min token count must be positive")
	}

	return &Writer{
		db:     db,
		config: cfg,
		logger: logging.With().Str("component", "fingerprint").Logger(),
	}, nil
}

// Stats returns a snapshot of the writer's counters. Counters accumulate
// across runs of the same writer.
func (w *Writer) Stats() Stats {
	return Stats{
		Processed: w.processed.Load(),
		Skipped:   w.skipped.Load(),
		TokenRows: w.tokenRows.Load(),
	}
}

// TokenFiles lists the .json files directly under dir, in lexicographic
// order. Subdirectories are not descended into.
func TokenFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read token dir %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

// Run fingerprints every path inside one write transaction. When reset
// is true the fingerprint tables are cleared first, inside the same
// transaction. Per-file parse failures skip that file; any database
// failure rolls the whole batch back.
func (w *Writer) Run(ctx context.Context, paths []string, reset bool) error {
	start := time.Now()
	w.logger.Info().Int("files", len(paths)).Bool("reset", reset).Msg("fingerprint run starting")

	var dump *dumpFile
	filteredDir := ""
	if w.config.DumpEnabled {
		d, err := newDumpFile(w.config.DumpPath)
		if err != nil {
			w.logger.Error().Err(err).Str("path", w.config.DumpPath).
				Msg("dump file unavailable, continuing without summary dump")
		} else {
			dump = d
			defer dump.Close()
		}

		filteredDir = w.config.FilteredDir
		if err := os.MkdirAll(filteredDir, 0o750); err != nil {
			w.logger.Error().Err(err).Str("dir", filteredDir).
				Msg("filtered dir unavailable, continuing without per-document dumps")
			filteredDir = ""
		}
	}

	ftx, err := w.db.BeginFingerprints(ctx, reset)
	if err != nil {
		return fmt.Errorf("begin fingerprint transaction: %w", err)
	}

	var persisted []string
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			ftx.Rollback()
			return fmt.Errorf("fingerprint run canceled: %w", err)
		}

		doc, err := tokens.ParseFile(path)
		if err != nil {
			w.skipped.Add(1)
			metrics.RecordIngestSkip(skipReason(err))
			continue
		}

		stem := stemOf(path)
		filtered := doc.Filter(w.config.MaxLength, w.config.MinValue)
		summary := models.FingerprintSummary{
			FileName:     stem,
			TotalTokens:  doc.Sum(),
			UniqueTokens: int64(len(filtered)),
			Norm:         doc.Norm(),
		}

		if err := ftx.PutSummary(ctx, summary); err != nil {
			ftx.Rollback()
			return fmt.Errorf("persist fingerprint for %s: %w", stem, err)
		}

		if len(filtered) > 0 {
			rows := make([]models.TokenWeight, len(filtered))
			for i, ft := range filtered {
				rows[i] = models.TokenWeight{
					FileName:  stem,
					Token:     ft.Token,
					Frequency: ft.Frequency,
					Weight:    ft.Weight,
				}
			}
			if err := ftx.PutTokens(ctx, rows); err != nil {
				ftx.Rollback()
				return fmt.Errorf("persist token rows for %s: %w", stem, err)
			}
			w.tokenRows.Add(int64(len(rows)))
			metrics.IngestTokensRetained.Add(float64(len(rows)))
		}

		dump.WriteRow(path, summary)
		writeFilteredCSV(filteredDir, stem, filtered)

		persisted = append(persisted, path)
		n := w.processed.Add(1)
		metrics.IngestFilesProcessed.Inc()
		if w.config.ShowProgress && n%progressInterval == 0 {
			w.logger.Info().Int64("processed", n).Int("total", len(paths)).Msg("fingerprint progress")
		}
	}

	if err := ftx.Commit(); err != nil {
		return fmt.Errorf("commit fingerprint transaction: %w", err)
	}

	if w.config.RemoveSource {
		w.removeSources(persisted)
	}

	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	w.logger.Info().
		Int64("processed", w.processed.Load()).
		Int64("skipped", w.skipped.Load()).
		Int64("token_rows", w.tokenRows.Load()).
		Dur("elapsed", time.Since(start)).
		Msg("fingerprint run complete")
	return nil
}

// removeSources deletes source files whose fingerprints committed.
// Removal failures are logged and do not fail the run.
func (w *Writer) removeSources(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			w.logger.Warn().Err(err).Str("path", path).Msg("processed token file not removed")
		}
	}
}

// skipReason classifies a parse-path failure for the skip counter.
func skipReason(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return "read"
	}
	return "parse"
}

// stemOf returns the base name of path without its extension.
func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
