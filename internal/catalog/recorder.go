// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package catalog records source documents in the file_info table.
//
// Every document gets a stable identity derived from its path, its
// modification time, and the number of text chunks already extracted for
// it. The identity is what the similarity matrix and route generator key
// on, so it must not change between runs unless the document itself
// changed.
package catalog

import (
	"context"
	"crypto/md5" //nolint:gosec // identity fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
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
)

// Config controls one catalog recorder.
type Config struct {
	// InfoCSV receives a dump of the whole catalog after each run.
	InfoCSV string

	// DumpEnabled turns the catalog dump on.
	DumpEnabled bool
}

// DefaultConfig returns the recorder defaults.
func DefaultConfig() Config {
	return Config{
		InfoCSV:     "data/processed_data/data_info.csv",
		DumpEnabled: true,
	}
}

// Stats is a point-in-time snapshot of recorder counters.
type Stats struct {
	Recorded int64 // rows written
	Skipped  int64 // inputs already cataloged or unreadable
}

// Recorder writes resource records for source documents.
type Recorder struct {
	db     *database.DB
	config Config
	logger zerolog.Logger

	recorded atomic.Int64
	skipped  atomic.Int64
}

// NewRecorder creates a catalog recorder over the store.
func NewRecorder(db *database.DB, cfg Config) (*Recorder, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}

	return &Recorder{
		db:     db,
		config: cfg,
		logger: logging.With().Str("component", "catalog").Logger(),
	}, nil
}

// Stats returns a snapshot of the recorder's counters.
func (r *Recorder) Stats() Stats {
	return Stats{
		Recorded: r.recorded.Load(),
		Skipped:  r.skipped.Load(),
	}
}

// DocumentID returns the stable identity for a document: the hex MD5 of
// the path, modification epoch, and chunk count joined with '|'. Distinct
// triples always produce distinct canonical strings.
func DocumentID(path string, epoch, chunkCount int64) string {
	canonical := fmt.Sprintf("%s|%d|%d", path, epoch, chunkCount)
	digest := md5.Sum([]byte(canonical)) //nolint:gosec // identity fingerprint, not a security boundary
	return hex.EncodeToString(digest[:])
}

// ResourceFiles lists the .pdf files directly under dir, in lexicographic
// order.
func ResourceFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read resource dir %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".pdf") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

// Run records every path. In append mode (reset false) paths whose stem
// is already cataloged are skipped untouched; reset clears the catalog
// first. Unreadable paths are skipped with a warning; store failures
// abort the run.
func (r *Recorder) Run(ctx context.Context, paths []string, reset bool) error {
	start := time.Now()
	r.logger.Info().Int("files", len(paths)).Bool("reset", reset).Msg("catalog run starting")

	known := map[string]struct{}{}
	if reset {
		if err := r.db.ResetCatalog(ctx); err != nil {
			return fmt.Errorf("reset catalog: %w", err)
		}
	} else {
		var err error
		known, err = r.db.KnownFileNames(ctx)
		if err != nil {
			return fmt.Errorf("load cataloged names: %w", err)
		}
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("catalog run canceled: %w", err)
		}

		stem := stemOf(path)
		if _, ok := known[stem]; ok {
			r.skipped.Add(1)
			metrics.CatalogDocumentsSkipped.Inc()
			continue
		}

		info, err := os.Stat(path)
		if err != nil {
			r.logger.Warn().Err(err).Str("path", path).Msg("resource not stat-able, skipping")
			r.skipped.Add(1)
			metrics.CatalogDocumentsSkipped.Inc()
			continue
		}

		// Chunk counts live under the stem + ".txt" convention shared
		// with the text extractor.
		chunkCount, err := r.db.ChunkCount(ctx, stem+".txt")
		if err != nil {
			return fmt.Errorf("count chunks for %s: %w", stem, err)
		}

		epoch := info.ModTime().Unix()
		record := models.FileInfo{
			ID:         DocumentID(path, epoch, chunkCount),
			FileName:   stem,
			FilePath:   path,
			EpochTime:  epoch,
			ChunkCount: chunkCount,
		}
		if err := r.db.UpsertFileInfo(ctx, record); err != nil {
			return fmt.Errorf("record %s: %w", stem, err)
		}

		known[stem] = struct{}{}
		r.recorded.Add(1)
		metrics.CatalogDocumentsRecorded.Inc()
	}

	if r.config.DumpEnabled {
		r.dumpCatalog(ctx)
	}

	r.logger.Info().
		Int64("recorded", r.recorded.Load()).
		Int64("skipped", r.skipped.Load()).
		Dur("elapsed", time.Since(start)).
		Msg("catalog run complete")
	return nil
}

// dumpCatalog mirrors the whole file_info table to the info CSV. The
// dump is diagnostic; failures are logged and swallowed.
func (r *Recorder) dumpCatalog(ctx context.Context) {
	infos, err := r.db.FileInfos(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("catalog dump read failed")
		return
	}

	if err := os.MkdirAll(filepath.Dir(r.config.InfoCSV), 0o750); err != nil {
		r.logger.Warn().Err(err).Str("path", r.config.InfoCSV).Msg("catalog dump dir not created")
		return
	}

	f, err := os.Create(r.config.InfoCSV) //nolint:gosec // operator-configured dump path
	if err != nil {
		r.logger.Warn().Err(err).Str("path", r.config.InfoCSV).Msg("catalog dump not created")
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			r.logger.Warn().Err(err).Msg("catalog dump close failed")
		}
	}()

	if _, err := fmt.Fprintln(f, "ID, File Name, File Path, Epoch Time, Chunk Count"); err != nil {
		r.logger.Warn().Err(err).Msg("catalog dump write failed")
		return
	}
	for _, info := range infos {
		_, err := fmt.Fprintf(f, "%s, %s, %s, %d, %d\n",
			info.ID, info.FileName, info.FilePath, info.EpochTime, info.ChunkCount)
		if err != nil {
			r.logger.Warn().Err(err).Msg("catalog dump write failed")
			return
		}
	}
}

// stemOf returns the base name of path without its extension.
func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
