// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package tokenizer builds per-document token frequency maps from the
// stored text chunks.
//
// Each cataloged document's chunks are concatenated, lowercased, and
// split into words; every word is stemmed and the stem kept when it is
// purely alphabetic, under the length cap, and free of three-plus
// letter runs. Per-document counts are written as title_<id>.json files
// for fingerprint ingestion, and the corpus-wide accumulation is
// written as the global terms map consumed by the TF-IDF builder.
package tokenizer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/kljensen/snowball/english"
	"github.com/rs/zerolog"

	"github.com/tomtom215/lexicographus/internal/database"
	"github.com/tomtom215/lexicographus/internal/logging"
	"github.com/tomtom215/lexicographus/internal/metrics"
	"github.com/tomtom215/lexicographus/internal/models"
)

// nonWord strips punctuation while keeping word characters and the
// whitespace the splitter needs.
var nonWord = regexp.MustCompile(`[^\w\s]+`)

// Config controls one tokenizer.
type Config struct {
	// TokenDir receives one title_<id>.json per document.
	TokenDir string

	// GlobalTermsPath receives the corpus-wide token to count map.
	GlobalTermsPath string

	// MaxStemLength caps the length of retained stems.
	MaxStemLength int
}

// DefaultConfig returns the tokenizer defaults.
func DefaultConfig() Config {
	return Config{
		TokenDir:        "data/token_json",
		GlobalTermsPath: "data/global_terms.json",
		MaxStemLength:   11,
	}
}

// Stats is a point-in-time snapshot of tokenizer counters.
type Stats struct {
	Titles int64 // documents tokenized
	Stems  int64 // retained stem occurrences
}

// Tokenizer turns stored chunks into token frequency files.
type Tokenizer struct {
	db     *database.DB
	config Config
	logger zerolog.Logger

	titles atomic.Int64
	stems  atomic.Int64
}

// NewTokenizer creates a tokenizer over the store.
func NewTokenizer(db *database.DB, cfg Config) (*Tokenizer, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	if cfg.TokenDir == "" {
		return nil, fmt.Errorf("token dir required")
	}
	if cfg.GlobalTermsPath == "" {
		return nil, fmt.Errorf("global terms path required")
	}
	if cfg.MaxStemLength <= 0 {
		return nil, fmt.Errorf("max stem length must be positive")
	}

	return &Tokenizer{
		db:     db,
		config: cfg,
		logger: logging.With().Str("component", "tokenizer").Logger(),
	}, nil
}

// Stats returns a snapshot of the tokenizer's counters. Counters
// accumulate across runs of the same tokenizer.
func (tk *Tokenizer) Stats() Stats {
	return Stats{
		Titles: tk.titles.Load(),
		Stems:  tk.stems.Load(),
	}
}

// Run tokenizes every cataloged document with stored chunks, rewriting
// its title_<id>.json and rebuilding the global terms map from scratch.
func (tk *Tokenizer) Run(ctx context.Context) error {
	start := time.Now()

	infos, err := tk.db.FileInfos(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if err := os.MkdirAll(tk.config.TokenDir, 0o750); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	global := make(map[string]int64)
	titles := 0
	for _, info := range infos {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("tokenizer canceled: %w", err)
		}
		if info.ChunkCount == 0 {
			continue
		}

		texts, err := tk.db.ChunkTexts(ctx, info.FileName+".txt")
		if err != nil {
			return fmt.Errorf("load chunks of %s: %w", info.FileName, err)
		}

		counts := Frequencies(strings.Join(texts, " "), tk.config.MaxStemLength)
		if len(counts) == 0 {
			tk.logger.Warn().Str("file", info.FileName).Msg("no stems survived filtering")
			continue
		}

		path := filepath.Join(tk.config.TokenDir, models.TitleKey(info.ID)+".json")
		if err := writeJSON(path, counts); err != nil {
			return err
		}

		var occurrences int64
		for stem, count := range counts {
			global[stem] += count
			occurrences += count
		}

		titles++
		tk.titles.Add(1)
		tk.stems.Add(occurrences)
		metrics.TokenizerTitlesProcessed.Inc()
		metrics.TokenizerStemsRetained.Add(float64(occurrences))
	}

	if err := os.MkdirAll(filepath.Dir(tk.config.GlobalTermsPath), 0o750); err != nil {
		return fmt.Errorf("create global terms dir: %w", err)
	}
	if err := writeJSON(tk.config.GlobalTermsPath, global); err != nil {
		return err
	}

	tk.logger.Info().
		Int("titles", titles).
		Int("terms", len(global)).
		Dur("elapsed", time.Since(start)).
		Msg("token frequencies generated")
	return nil
}

// Frequencies lowercases and splits text, stems every word, and counts
// the stems that survive filtering.
func Frequencies(text string, maxStemLength int) map[string]int64 {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(text), "")

	counts := make(map[string]int64)
	for _, word := range strings.Fields(cleaned) {
		stem := english.Stem(word, true)
		if !keepStem(stem, maxStemLength) {
			continue
		}
		counts[stem]++
	}
	return counts
}

// keepStem retains purely alphabetic stems under the length cap with no
// letter repeated three or more times in a row. Stems with digits or
// underscores left over from the word-character split are dropped here.
func keepStem(stem string, maxLen int) bool {
	if stem == "" || len(stem) > maxLen {
		return false
	}
	return isLowerAlpha(stem) && !hasTripleRun(stem)
}

func isLowerAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}

// hasTripleRun reports whether any byte repeats three or more times
// consecutively, the shape of scanner garbage like "aaaa" or "zzz".
func hasTripleRun(s string) bool {
	run := 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

func writeJSON(path string, counts map[string]int64) error {
	data, err := json.MarshalIndent(counts, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
