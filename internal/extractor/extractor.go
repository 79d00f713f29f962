// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package extractor converts source PDFs into cleaned text chunks.
//
// Each PDF's plain text layer is reduced to letters, digits, and
// whitespace, split into fixed-size word chunks, and stored under the
// document stem plus ".txt", the identity the catalog counts chunks
// under. Extraction is incremental: documents already chunked are
// skipped, and per-document failures are logged and skipped so one bad
// file never aborts a run.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dslipak/pdf"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lexicographus/internal/database"
	"github.com/tomtom215/lexicographus/internal/logging"
	"github.com/tomtom215/lexicographus/internal/metrics"
)

// nonAlnum matches every character outside the retained set. Extracted
// text keeps only letters, digits, and whitespace.
var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9\s]+`)

// Config controls one extractor.
type Config struct {
	// MaxFileSize is the per-PDF size guard in bytes. Larger files are
	// skipped.
	MaxFileSize int64

	// ChunkSize is the number of words per stored chunk.
	ChunkSize int
}

// DefaultConfig returns the extraction defaults.
func DefaultConfig() Config {
	return Config{
		MaxFileSize: 50 << 20, // 50MB
		ChunkSize:   512,
	}
}

// Stats is a point-in-time snapshot of extractor counters.
type Stats struct {
	Processed int64 // documents chunked and stored
	Skipped   int64 // documents skipped for any reason
	Chunks    int64 // chunks stored
}

// Extractor chunks source PDFs into the store.
type Extractor struct {
	db     *database.DB
	config Config
	logger zerolog.Logger

	processed atomic.Int64
	skipped   atomic.Int64
	chunks    atomic.Int64
}

// NewExtractor creates a text extractor over the store.
func NewExtractor(db *database.DB, cfg Config) (*Extractor, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	if cfg.MaxFileSize <= 0 {
		return nil, fmt.Errorf("max file size must be positive")
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive")
	}

	return &Extractor{
		db:     db,
		config: cfg,
		logger: logging.With().Str("component", "extractor").Logger(),
	}, nil
}

// Stats returns a snapshot of the extractor's counters. Counters
// accumulate across runs of the same extractor.
func (e *Extractor) Stats() Stats {
	return Stats{
		Processed: e.processed.Load(),
		Skipped:   e.skipped.Load(),
		Chunks:    e.chunks.Load(),
	}
}

// Run extracts every listed PDF that is not already chunked. The run
// only fails on store-level errors or cancellation.
func (e *Extractor) Run(ctx context.Context, paths []string) error {
	start := time.Now()
	e.logger.Info().Int("files", len(paths)).Msg("extraction starting")

	known, err := e.db.KnownChunkNames(ctx)
	if err != nil {
		return fmt.Errorf("load known chunk names: %w", err)
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("extraction canceled: %w", err)
		}
		e.processFile(ctx, path, known)
	}

	e.logger.Info().
		Int64("processed", e.processed.Load()).
		Int64("skipped", e.skipped.Load()).
		Int64("chunks", e.chunks.Load()).
		Dur("elapsed", time.Since(start)).
		Msg("extraction complete")
	return nil
}

func (e *Extractor) processFile(ctx context.Context, path string, known map[string]struct{}) {
	chunkName := chunkFileName(path)
	if _, ok := known[chunkName]; ok {
		e.skip(path, "known", nil)
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		e.skip(path, "error", err)
		return
	}
	if info.Size() == 0 {
		e.skip(path, "empty", nil)
		return
	}
	if info.Size() > e.config.MaxFileSize {
		e.skip(path, "oversize", nil)
		return
	}

	text, err := extractText(path)
	if err != nil {
		e.skip(path, "error", err)
		return
	}

	chunks := chunkWords(cleanText(text), e.config.ChunkSize)
	if len(chunks) == 0 {
		e.skip(path, "empty", nil)
		return
	}

	if err := e.db.InsertChunks(ctx, chunkName, chunks); err != nil {
		e.skip(path, "error", err)
		return
	}
	known[chunkName] = struct{}{}

	e.processed.Add(1)
	e.chunks.Add(int64(len(chunks)))
	metrics.ExtractDocumentsProcessed.Inc()
	metrics.ExtractChunksStored.Add(float64(len(chunks)))
	e.logger.Debug().Str("path", path).Int("chunks", len(chunks)).Msg("document chunked")
}

func (e *Extractor) skip(path, reason string, err error) {
	e.skipped.Add(1)
	metrics.ExtractDocumentsSkipped.WithLabelValues(reason).Inc()

	if reason == "known" {
		e.logger.Debug().Str("path", path).Msg("already extracted")
		return
	}
	e.logger.Warn().Err(err).Str("path", path).Str("reason", reason).Msg("document skipped")
}

// extractText reads the plain text layer of one PDF. The parser panics
// on some malformed files; the panic is converted to an error and
// handled like any other unreadable document.
func extractText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

// cleanText strips everything but letters, digits, and whitespace.
func cleanText(text string) string {
	return nonAlnum.ReplaceAllString(text, "")
}

// chunkWords splits cleaned text into size-word chunks. Whitespace runs
// collapse to single spaces; the final chunk keeps the remainder.
func chunkWords(text string, size int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+size-1)/size)
	for start := 0; start < len(words); start += size {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// chunkFileName is the stored identity of a source document: the stem
// plus ".txt", shared with the catalog's chunk counting.
func chunkFileName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".txt"
}
