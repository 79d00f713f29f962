// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package pipeline wires the analysis actions to their configuration.
//
// A Runner owns the store handle and the loaded configuration and
// exposes one method per action, so the command line and the
// interactive menu execute identical code paths. Each method builds
// its component from the relevant configuration slice and runs it;
// the components do their own logging and metrics.
package pipeline

import (
	"context"
	"fmt"

	"github.com/tomtom215/lexicographus/internal/catalog"
	"github.com/tomtom215/lexicographus/internal/config"
	"github.com/tomtom215/lexicographus/internal/database"
	"github.com/tomtom215/lexicographus/internal/extractor"
	"github.com/tomtom215/lexicographus/internal/fingerprint"
	"github.com/tomtom215/lexicographus/internal/prompt"
	"github.com/tomtom215/lexicographus/internal/routes"
	"github.com/tomtom215/lexicographus/internal/similarity"
	"github.com/tomtom215/lexicographus/internal/tfidf"
	"github.com/tomtom215/lexicographus/internal/tokenizer"
)

// Runner executes pipeline actions against one store.
type Runner struct {
	cfg *config.Config
	db  *database.DB
}

// NewRunner creates a runner over the loaded configuration and store.
func NewRunner(cfg *config.Config, db *database.DB) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	return &Runner{cfg: cfg, db: db}, nil
}

// ExtractText chunks every PDF under the configured resource dir.
func (r *Runner) ExtractText(ctx context.Context) error {
	ext, err := extractor.NewExtractor(r.db, extractor.Config{
		MaxFileSize: r.cfg.Extract.MaxFileSize,
		ChunkSize:   r.cfg.Extract.ChunkSize,
	})
	if err != nil {
		return err
	}

	paths, err := catalog.ResourceFiles(r.cfg.Paths.PDFDir)
	if err != nil {
		return err
	}
	return ext.Run(ctx, paths)
}

// GenerateTokenFrequencies rebuilds the per-title token JSON files and
// the global terms map from the stored chunks.
func (r *Runner) GenerateTokenFrequencies(ctx context.Context) error {
	tk, err := tokenizer.NewTokenizer(r.db, tokenizer.Config{
		TokenDir:        r.cfg.Paths.TokenDir,
		GlobalTermsPath: r.cfg.Paths.GlobalTerms,
		MaxStemLength:   tokenizer.DefaultConfig().MaxStemLength,
	})
	if err != nil {
		return err
	}
	return tk.Run(ctx)
}

// ComputeRelationalDistance ingests the token JSON files into the
// fingerprint tables.
func (r *Runner) ComputeRelationalDistance(ctx context.Context) error {
	w, err := fingerprint.NewWriter(r.db, fingerprint.Config{
		MaxLength:    r.cfg.Analysis.MaxTokenLength,
		MinValue:     r.cfg.Analysis.MinTokenCount,
		DumpEnabled:  r.cfg.Pipeline.DumpArtifacts,
		DumpPath:     r.cfg.Paths.DumpCSV,
		FilteredDir:  r.cfg.Paths.FilteredDir,
		RemoveSource: r.cfg.Pipeline.RemoveSource,
		ShowProgress: r.cfg.Pipeline.ShowProgress,
	})
	if err != nil {
		return err
	}

	paths, err := fingerprint.TokenFiles(r.cfg.Paths.TokenDir)
	if err != nil {
		return err
	}
	return w.Run(ctx, paths, r.cfg.Pipeline.ResetOnIngest)
}

// UpdateDatabaseInformation refreshes the document catalog from the
// configured resource dir.
func (r *Runner) UpdateDatabaseInformation(ctx context.Context) error {
	rec, err := catalog.NewRecorder(r.db, catalog.Config{
		InfoCSV:     r.cfg.Paths.InfoCSV,
		DumpEnabled: r.cfg.Pipeline.DumpArtifacts,
	})
	if err != nil {
		return err
	}

	paths, err := catalog.ResourceFiles(r.cfg.Paths.PDFDir)
	if err != nil {
		return err
	}
	return rec.Run(ctx, paths, !r.cfg.Pipeline.AppendCatalog)
}

// ComputeTFIDF rebuilds the corpus term weight table from the global
// terms map.
func (r *Runner) ComputeTFIDF(ctx context.Context) error {
	b, err := tfidf.NewBuilder(r.db, tfidf.Config{
		GlobalTermsPath: r.cfg.Paths.GlobalTerms,
		MinThresFreq:    r.cfg.Analysis.MinTermFreq,
		BatchSize:       r.cfg.Analysis.BatchSize,
	})
	if err != nil {
		return err
	}
	return b.Run(ctx)
}

// MapItemMatrix builds the pairwise similarity matrix.
func (r *Runner) MapItemMatrix(ctx context.Context) error {
	b, err := similarity.NewBuilder(r.db, similarity.Config{
		Workers:        r.cfg.Similarity.Workers,
		IDsPerWorker:   r.cfg.Similarity.IDsPerWorker,
		WriteThreshold: r.cfg.Similarity.WriteThreshold,
		Reset:          !r.cfg.Pipeline.AppendMatrix,
	})
	if err != nil {
		return err
	}
	return b.Run(ctx)
}

// ProcessPrompt scores the query buffer and writes the ranked results.
// topN values of zero or below fall back to the configured bound.
func (r *Runner) ProcessPrompt(ctx context.Context, topN int) error {
	if topN <= 0 {
		topN = r.cfg.Prompt.TopN
	}

	s, err := prompt.NewScorer(r.db, prompt.Config{
		BufferPath: r.cfg.Paths.BufferJSON,
		OutputPath: r.cfg.Paths.PromptOutput,
		MaxLength:  r.cfg.Prompt.MaxTokenLength,
		MinValue:   r.cfg.Prompt.MinTokenCount,
		TopN:       topN,
	})
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

// CreateRoutes generates route records: from every document when
// startTitle is empty, otherwise from the named document only.
func (r *Runner) CreateRoutes(ctx context.Context, startTitle string) error {
	g, err := routes.NewGenerator(r.db, routes.Config{
		OutputPath: r.cfg.Paths.RouteOutput,
	})
	if err != nil {
		return err
	}

	if startTitle == "" {
		return g.Run(ctx)
	}
	return g.RunFrom(ctx, startTitle)
}
