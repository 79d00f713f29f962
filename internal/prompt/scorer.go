// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package prompt scores every cataloged document against an ad-hoc
// query and renders the ranked results.
//
// The query arrives as a transient token JSON buffer and is treated as
// an anonymous document with a looser filter than ingestion (length cap
// 16, frequency floor 1). Each query token's weight is its unit-vector
// component plus a tf_idf/frequency shift; a document's score is the dot
// product of those weights with the document's stored token weights.
// All reads happen inside one snapshot transaction on a pinned
// connection, and the token index is evicted per candidate to bound
// live memory to the rows the query actually touches.
package prompt

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lexicographus/internal/database"
	"github.com/tomtom215/lexicographus/internal/logging"
	"github.com/tomtom215/lexicographus/internal/metrics"
	"github.com/tomtom215/lexicographus/internal/models"
	"github.com/tomtom215/lexicographus/internal/tokens"
)

// separator divides rendered result blocks.
var separator = strings.Repeat("-", 65)

// Config controls one prompt scorer.
type Config struct {
	// BufferPath is the transient query token JSON.
	BufferPath string

	// OutputPath receives the rendered results.
	OutputPath string

	// MaxLength is the query token length cap.
	MaxLength int

	// MinValue is the query token frequency floor.
	MinValue int

	// TopN caps how many results are rendered.
	TopN int
}

// DefaultConfig returns the scorer defaults. Query filtering is looser
// than ingestion so short prompts still match.
func DefaultConfig() Config {
	return Config{
		BufferPath: "data/buffer.json",
		OutputPath: "data/output_prompt.txt",
		MaxLength:  16,
		MinValue:   1,
		TopN:       9999,
	}
}

// Scorer ranks cataloged documents against a query buffer.
type Scorer struct {
	db     *database.DB
	config Config
	logger zerolog.Logger
}

// NewScorer creates a prompt scorer over the store.
func NewScorer(db *database.DB, cfg Config) (*Scorer, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	if cfg.MaxLength <= 0 {
		return nil, fmt.Errorf("max token length must be positive")
	}
	if cfg.MinValue <= 0 {
		return nil, fmt.Errorf("min token count must be positive")
	}

	return &Scorer{
		db:     db,
		config: cfg,
		logger: logging.With().Str("component", "prompt").Logger(),
	}, nil
}

// Run scores the configured buffer and writes the ranked results.
func (s *Scorer) Run(ctx context.Context) error {
	start := time.Now()

	results, err := s.Process(ctx, s.config.TopN)
	if err != nil {
		return err
	}
	if err := WriteResults(s.config.OutputPath, results); err != nil {
		return fmt.Errorf("write prompt results: %w", err)
	}

	metrics.RecordPromptRun(time.Since(start), len(results))
	s.logger.Info().
		Int("results", len(results)).
		Str("output", s.config.OutputPath).
		Dur("elapsed", time.Since(start)).
		Msg("prompt processed")
	return nil
}

// Process scores every cataloged document against the buffer and
// returns at most topN results, ranked by descending score with ties
// broken by id for run-to-run determinism. A missing or malformed
// buffer degrades to an empty query and produces no results.
func (s *Scorer) Process(ctx context.Context, topN int) ([]models.PromptResult, error) {
	doc, err := tokens.ParseFile(s.config.BufferPath)
	if err != nil {
		doc = tokens.Document{}
	}
	filtered := doc.Filter(s.config.MaxLength, s.config.MinValue)
	if len(filtered) == 0 {
		return nil, nil
	}

	session, err := s.db.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("session close failed")
		}
	}()

	rtx, err := session.BeginRead(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin read: %w", err)
	}
	defer rtx.Close()

	words := make([]string, len(filtered))
	weights := make(map[string]float64, len(filtered))
	for i, ft := range filtered {
		words[i] = ft.Token
		weights[ft.Token] = ft.Weight
	}

	index, err := buildIndex(ctx, rtx, words)
	if err != nil {
		return nil, err
	}

	termWeights, err := rtx.TermWeightsByWords(ctx, words)
	if err != nil {
		return nil, fmt.Errorf("load term weights: %w", err)
	}
	for _, ft := range filtered {
		adj := termWeights[ft.Token] / float64(ft.Frequency)
		if math.IsNaN(adj) {
			adj = 0
		}
		weights[ft.Token] += adj
	}

	infos, err := rtx.FileInfos(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	var results []models.PromptResult
	for _, info := range infos {
		key := models.TitleKey(info.ID)
		docWeights, ok := index[key]
		if !ok {
			continue
		}
		if sc := score(weights, docWeights); sc > 0 {
			results = append(results, models.PromptResult{
				ID:       info.ID,
				Name:     info.FileName,
				Distance: sc,
			})
		}
		// Evict the candidate so live memory stays bounded by the
		// unvisited remainder of the index.
		delete(index, key)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance > results[j].Distance
		}
		return results[i].ID < results[j].ID
	})
	if topN < 0 {
		topN = 0
	}
	if topN < len(results) {
		results = results[:topN]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

// buildIndex loads the relation rows touching the query tokens into a
// file-key to token-weight index.
func buildIndex(ctx context.Context, rtx *database.ReadTx, words []string) (map[string]map[string]float64, error) {
	rows, err := rtx.TokenRowsByTokens(ctx, words)
	if err != nil {
		return nil, fmt.Errorf("load token index: %w", err)
	}

	index := make(map[string]map[string]float64)
	for _, row := range rows {
		m := index[row.FileName]
		if m == nil {
			m = make(map[string]float64)
			index[row.FileName] = m
		}
		m[row.Token] = row.Weight
	}
	return index, nil
}

// score is the dot product over tokens present in both maps. It is
// linear in each argument.
func score(prompt, doc map[string]float64) float64 {
	var total float64
	for token, pw := range prompt {
		if dw, ok := doc[token]; ok {
			total += pw * dw
		}
	}
	return total
}

// FormatResults renders results in the fixed block layout consumed by
// downstream tooling: a count header, then one ID/Distance/Rank/Name
// block per result, each closed by a separator line.
func FormatResults(results []models.PromptResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Top %d Results:\n", len(results))
	b.WriteString(separator)
	b.WriteByte('\n')
	for _, r := range results {
		fmt.Fprintf(&b, "ID: %s\n", r.ID)
		fmt.Fprintf(&b, "Distance: %g\n", r.Distance)
		fmt.Fprintf(&b, "Rank: %d\n", r.Rank)
		fmt.Fprintf(&b, "Name: [[%s]]\n", r.Name)
		b.WriteString(separator)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteResults renders results to path, truncating any prior content.
func WriteResults(path string, results []models.PromptResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(FormatResults(results)), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
