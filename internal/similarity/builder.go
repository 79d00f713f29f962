// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package similarity builds the pairwise document similarity matrix.
//
// Candidates are every cataloged document with extracted text, loaded
// once into a fixed-index slice. Producers claim contiguous runs of
// source indices from an atomic cursor, score each source against every
// later index (so each unordered pair is computed at most once), and
// hand finished edge batches to a single writer goroutine through a
// FIFO queue. The writer owns all matrix writes; UNIQUE(target_id,
// source_id) plus INSERT OR IGNORE keeps re-runs idempotent.
//
// Per-source scoring mirrors prompt scoring: the source's stored token
// weights get the tf_idf/frequency shift, the rows of every document
// sharing a token are fetched through a connection-scoped TEMP table
// join, and the similarity is the dot product of the source weights
// with the target's stored weights. Edges that score zero or below are
// dropped.
package similarity

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lexicographus/internal/database"
	"github.com/tomtom215/lexicographus/internal/logging"
	"github.com/tomtom215/lexicographus/internal/metrics"
	"github.com/tomtom215/lexicographus/internal/models"
)

// Config controls one similarity build.
type Config struct {
	// Workers is the producer count. Zero means one per CPU.
	Workers int

	// IDsPerWorker is how many source indices one cursor claim covers.
	IDsPerWorker int

	// WriteThreshold is the local edge count at which a producer hands
	// its batch to the writer.
	WriteThreshold int

	// Reset drops existing edges before building; otherwise sources
	// already present in the matrix are skipped and new edges append.
	Reset bool
}

// DefaultConfig returns the builder defaults.
func DefaultConfig() Config {
	return Config{
		Workers:        0,
		IDsPerWorker:   10,
		WriteThreshold: 10000,
	}
}

// Stats is a point-in-time snapshot of builder counters.
type Stats struct {
	SourcesScored  int64 // sources fully processed
	PairsScored    int64 // candidate pairs evaluated
	EdgesKept      int64 // edges with positive similarity
	BatchesFlushed int64 // batches committed by the writer
	RowsWritten    int64 // edge rows handed to the store
}

// candidate is one fixed-index entry of the build.
type candidate struct {
	id   string // catalog id
	name string // readable file name
	key  string // title key, the matrix identity
}

// Builder computes the upper-triangle similarity matrix.
type Builder struct {
	db     *database.DB
	config Config
	logger zerolog.Logger

	sourcesScored  atomic.Int64
	pairsScored    atomic.Int64
	edgesKept      atomic.Int64
	batchesFlushed atomic.Int64
	rowsWritten    atomic.Int64
}

// NewBuilder creates a similarity builder over the store.
func NewBuilder(db *database.DB, cfg Config) (*Builder, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative")
	}
	if cfg.IDsPerWorker <= 0 {
		return nil, fmt.Errorf("ids per worker must be positive")
	}
	if cfg.WriteThreshold <= 0 {
		return nil, fmt.Errorf("write threshold must be positive")
	}

	return &Builder{
		db:     db,
		config: cfg,
		logger: logging.With().Str("component", "similarity").Logger(),
	}, nil
}

// Stats returns a snapshot of the builder's counters.
func (b *Builder) Stats() Stats {
	return Stats{
		SourcesScored:  b.sourcesScored.Load(),
		PairsScored:    b.pairsScored.Load(),
		EdgesKept:      b.edgesKept.Load(),
		BatchesFlushed: b.batchesFlushed.Load(),
		RowsWritten:    b.rowsWritten.Load(),
	}
}

// Run builds the matrix. Producer failures end that producer and the
// rest continue; a writer failure stops the build, keeping batches
// already committed.
func (b *Builder) Run(ctx context.Context) error {
	start := time.Now()

	if b.config.Reset {
		if err := b.db.ResetMatrix(ctx); err != nil {
			return fmt.Errorf("reset matrix: %w", err)
		}
	}

	existing := map[string]struct{}{}
	if !b.config.Reset {
		var err error
		existing, err = b.db.ExistingMatrixSources(ctx)
		if err != nil {
			return fmt.Errorf("load existing sources: %w", err)
		}
	}

	candidates, err := b.loadCandidates(ctx)
	if err != nil {
		return err
	}
	if len(candidates) < 2 {
		b.logger.Info().Int("candidates", len(candidates)).Msg("similarity build skipped, nothing to pair")
		return nil
	}

	// The whole term-weight table is loaded once and shared read-only
	// across producers.
	termWeights, err := b.db.TermWeightMap(ctx)
	if err != nil {
		return fmt.Errorf("load term weights: %w", err)
	}

	workers := b.workerCount()
	b.logger.Info().
		Int("candidates", len(candidates)).
		Int("existing_sources", len(existing)).
		Int("workers", workers).
		Msg("similarity build starting")

	queue := newBatchQueue()
	var cursor atomic.Int64
	var stop atomic.Bool

	writerDone := make(chan error, 1)
	go func() {
		writerDone <- b.writeLoop(ctx, queue, &stop)
	}()

	var wg sync.WaitGroup
	for p := 0; p < workers; p++ {
		wg.Add(1)
		go func(producerID int) {
			defer wg.Done()
			b.produce(ctx, producerID, candidates, termWeights, existing, &cursor, queue, &stop)
		}(p)
	}
	wg.Wait()
	queue.Finish()

	if err := <-writerDone; err != nil {
		return err
	}

	b.logger.Info().
		Int64("sources", b.sourcesScored.Load()).
		Int64("pairs", b.pairsScored.Load()).
		Int64("edges", b.edgesKept.Load()).
		Int64("rows_written", b.rowsWritten.Load()).
		Dur("elapsed", time.Since(start)).
		Msg("similarity build complete")
	return nil
}

// workerCount resolves the producer count: the configured override, one
// per CPU, or five if the CPU count is unavailable.
func (b *Builder) workerCount() int {
	if b.config.Workers > 0 {
		return b.config.Workers
	}
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 5
}

// loadCandidates returns every cataloged document with extracted text,
// ordered by title key so index assignment is stable across runs.
func (b *Builder) loadCandidates(ctx context.Context) ([]candidate, error) {
	infos, err := b.db.FileInfos(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	out := make([]candidate, 0, len(infos))
	for _, info := range infos {
		if info.ChunkCount <= 0 {
			continue
		}
		out = append(out, candidate{
			id:   info.ID,
			name: info.FileName,
			key:  models.TitleKey(info.ID),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out, nil
}

// produce claims source index runs until the cursor passes the end,
// scoring each claimed source against every later candidate. The local
// batch is always handed over on exit, including failure exits.
func (b *Builder) produce(
	ctx context.Context,
	producerID int,
	candidates []candidate,
	termWeights map[string]float64,
	existing map[string]struct{},
	cursor *atomic.Int64,
	queue *batchQueue,
	stop *atomic.Bool,
) {
	logger := b.logger.With().Int("producer", producerID).Logger()

	session, err := b.db.Session(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("session unavailable, producer exiting")
		return
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn().Err(err).Msg("session close failed")
		}
	}()

	metrics.MatrixActiveProducers.Inc()
	defer metrics.MatrixActiveProducers.Dec()

	var local []models.MatrixEdge
	defer func() {
		queue.Push(local)
	}()

	n := len(candidates)
	claim := b.config.IDsPerWorker
	for {
		if stop.Load() || ctx.Err() != nil {
			return
		}

		begin := int(cursor.Add(int64(claim))) - claim
		if begin >= n {
			return
		}
		end := begin + claim
		if end > n {
			end = n
		}

		for i := begin; i < end; i++ {
			if stop.Load() {
				return
			}
			src := candidates[i]
			if _, ok := existing[src.key]; ok {
				continue
			}

			weights, err := b.sourceWeights(ctx, session, src.key, termWeights)
			if err != nil {
				logger.Error().Err(err).Str("source", src.key).Msg("source load failed, producer exiting")
				return
			}
			if len(weights) == 0 {
				b.sourcesScored.Add(1)
				continue
			}

			related, err := b.relatedRows(ctx, session, weights)
			if err != nil {
				logger.Error().Err(err).Str("source", src.key).Msg("neighbor load failed, producer exiting")
				return
			}

			for j := i + 1; j < n; j++ {
				target := candidates[j]
				rel, ok := related[target.key]
				if !ok {
					continue
				}
				b.pairsScored.Add(1)
				metrics.MatrixEdgesScored.Inc()

				sim := similarity(weights, rel)
				if sim <= 0 {
					metrics.MatrixEdgesDropped.Inc()
					continue
				}

				local = append(local, models.MatrixEdge{
					TargetID:   target.key,
					TargetName: target.name,
					SourceID:   src.key,
					SourceName: src.name,
					Distance:   sim,
				})
				b.edgesKept.Add(1)

				if len(local) >= b.config.WriteThreshold {
					queue.Push(local)
					local = nil
				}
			}
			b.sourcesScored.Add(1)
		}
	}
}

// sourceWeights loads one source's token rows and applies the
// tf_idf/frequency shift to each weight.
func (b *Builder) sourceWeights(
	ctx context.Context,
	session *database.Session,
	key string,
	termWeights map[string]float64,
) (map[string]float64, error) {
	rows, err := session.DocumentTokens(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load source tokens: %w", err)
	}

	weights := make(map[string]float64, len(rows))
	for _, row := range rows {
		adj := termWeights[row.Token] / float64(row.Frequency)
		if math.IsNaN(adj) {
			adj = 0
		}
		weights[row.Token] = row.Weight + adj
	}
	return weights, nil
}

// relatedRows stages the source's tokens in the session TEMP table and
// returns the stored weights of every document sharing at least one of
// them, keyed by title key then token.
func (b *Builder) relatedRows(
	ctx context.Context,
	session *database.Session,
	weights map[string]float64,
) (map[string]map[string]float64, error) {
	staged := make([]string, 0, len(weights))
	for token := range weights {
		staged = append(staged, token)
	}

	if err := session.StageTokens(ctx, staged); err != nil {
		return nil, fmt.Errorf("stage tokens: %w", err)
	}
	rows, err := session.NeighborTokenRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load neighbor rows: %w", err)
	}

	related := make(map[string]map[string]float64)
	for _, row := range rows {
		m := related[row.FileName]
		if m == nil {
			m = make(map[string]float64)
			related[row.FileName] = m
		}
		m[row.Token] = row.Weight
	}
	return related, nil
}

// similarity is the dot product of the adjusted source weights with the
// target's stored weights, over the tokens both carry.
func similarity(source, target map[string]float64) float64 {
	var total float64
	for token, sw := range source {
		if tw, ok := target[token]; ok {
			total += tw * sw
		}
	}
	return total
}

// writeLoop drains the queue one batch per wake and inserts each batch
// inside its own transaction. An insert failure raises the stop flag so
// producers wind down, and fails the build.
func (b *Builder) writeLoop(ctx context.Context, queue *batchQueue, stop *atomic.Bool) error {
	for {
		batch, ok := queue.Pop()
		if !ok {
			metrics.MatrixQueueDepth.Set(0)
			return nil
		}
		metrics.MatrixQueueDepth.Set(float64(queue.Depth()))

		start := time.Now()
		if err := b.db.InsertMatrixBatch(ctx, batch); err != nil {
			stop.Store(true)
			return fmt.Errorf("flush matrix batch: %w", err)
		}
		metrics.RecordMatrixFlush(time.Since(start), len(batch))
		b.batchesFlushed.Add(1)
		b.rowsWritten.Add(int64(len(batch)))
	}
}
