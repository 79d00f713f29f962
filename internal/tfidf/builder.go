// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package tfidf rebuilds the corpus term-weight table from the global
// terms file and the current fingerprint rows.
//
// The table is rebuilt from scratch on every run: global term counts come
// from the tokenizer's accumulated JSON, document counts come from the
// relation_distance table, and the weight formula is
//
//	tf_idf = (freq / Σfreq) · (log10((N+1)/(doc_count+1)) + 1)
//
// where N is the number of distinct fingerprinted documents and Σfreq
// sums over retained terms only. Terms absent from every fingerprint
// keep doc_count 0 and so receive the maximum IDF shift.
package tfidf

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lexicographus/internal/database"
	"github.com/tomtom215/lexicographus/internal/logging"
	"github.com/tomtom215/lexicographus/internal/metrics"
	"github.com/tomtom215/lexicographus/internal/models"
	"github.com/tomtom215/lexicographus/internal/tokens"
)

// Config controls one term-weight rebuild.
type Config struct {
	// GlobalTermsPath is the corpus-wide token to count JSON.
	GlobalTermsPath string

	// MinThresFreq is the corpus-frequency floor for inclusion.
	MinThresFreq int

	// BatchSize is the number of rows per insert batch.
	BatchSize int
}

// DefaultConfig returns the builder defaults.
func DefaultConfig() Config {
	return Config{
		GlobalTermsPath: "data/global_terms.json",
		MinThresFreq:    4,
		BatchSize:       1000,
	}
}

// Stats is a point-in-time snapshot of builder counters.
type Stats struct {
	Scored  int64 // rows written to tf_idf
	Dropped int64 // global terms filtered out
}

// Builder rebuilds the tf_idf table.
type Builder struct {
	db     *database.DB
	config Config
	logger zerolog.Logger

	scored  atomic.Int64
	dropped atomic.Int64
}

// NewBuilder creates a term-weight builder over the store.
func NewBuilder(db *database.DB, cfg Config) (*Builder, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	if cfg.MinThresFreq <= 0 {
		return nil, fmt.Errorf("min term frequency must be positive")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}

	return &Builder{
		db:     db,
		config: cfg,
		logger: logging.With().Str("component", "tfidf").Logger(),
	}, nil
}

// Stats returns a snapshot of the builder's counters.
func (b *Builder) Stats() Stats {
	return Stats{
		Scored:  b.scored.Load(),
		Dropped: b.dropped.Load(),
	}
}

// Weight computes one term's weight. A zero retained-frequency sum yields
// zero rather than NaN.
func Weight(freq, sumFreq, docCount, totalDocs int64) float64 {
	if sumFreq == 0 {
		return 0
	}
	tf := float64(freq) / float64(sumFreq)
	idf := math.Log10(float64(totalDocs+1)/float64(docCount+1)) + 1
	return tf * idf
}

// Run rebuilds the whole table. The global terms file is the sole input;
// failing to read it fails the run rather than silently rebuilding an
// empty table.
func (b *Builder) Run(ctx context.Context) error {
	start := time.Now()
	b.logger.Info().Str("terms", b.config.GlobalTermsPath).Msg("term weight rebuild starting")

	global, err := tokens.ParseFile(b.config.GlobalTermsPath)
	if err != nil {
		return fmt.Errorf("load global terms: %w", err)
	}

	words := make([]string, 0, len(global))
	for word, freq := range global {
		if freq < int64(b.config.MinThresFreq) || len(word) <= 1 {
			b.dropped.Add(1)
			metrics.TFIDFTermsDropped.Inc()
			continue
		}
		words = append(words, word)
	}
	sort.Strings(words)

	var sumFreq int64
	for _, word := range words {
		sumFreq += global[word]
	}

	docCounts, err := b.db.TokenDocCounts(ctx)
	if err != nil {
		return fmt.Errorf("load document counts: %w", err)
	}
	totalDocs, err := b.db.DistinctDocumentCount(ctx)
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}

	rows := make([]models.TermWeight, len(words))
	for i, word := range words {
		freq := global[word]
		docCount := docCounts[word]
		rows[i] = models.TermWeight{
			Word:     word,
			Freq:     freq,
			DocCount: docCount,
			TFIDF:    Weight(freq, sumFreq, docCount, totalDocs),
		}
	}

	if err := b.db.ReplaceTermWeights(ctx, rows, b.config.BatchSize); err != nil {
		return fmt.Errorf("replace term weights: %w", err)
	}
	b.scored.Add(int64(len(rows)))

	b.logger.Info().
		Int("terms", len(rows)).
		Int64("dropped", b.dropped.Load()).
		Int64("documents", totalDocs).
		Int64("sum_freq", sumFreq).
		Dur("elapsed", time.Since(start)).
		Msg("term weight rebuild complete")
	return nil
}
