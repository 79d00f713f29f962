// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package routes generates reading routes over the similarity matrix.
//
// A route is a greedy walk: starting from one document, it repeatedly
// hops to the strongest-related neighbor that has not been visited yet.
// Neighbor lookups follow the matrix's directed storage (edges keyed by
// source_id), so a walk traverses the triangle the way it was written.
// Each walk ends in exactly one of three ways: the current document has
// no outgoing edges (exhausted), several neighbors tie for the maximum
// distance (diverged, all tied targets are reported), or the best
// neighbor was already visited or is unknown to the catalog (loop).
package routes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lexicographus/internal/database"
	"github.com/tomtom215/lexicographus/internal/logging"
	"github.com/tomtom215/lexicographus/internal/metrics"
	"github.com/tomtom215/lexicographus/internal/models"
)

// Termination causes recorded on generated routes.
const (
	TerminationExhausted = "exhausted"
	TerminationDiverged  = "diverged"
	TerminationLoop      = "loop"
)

// recordEnd closes every rendered route record.
const recordEnd = "END."

// Config controls one route generator.
type Config struct {
	// OutputPath receives the rendered route records.
	OutputPath string
}

// DefaultConfig returns the generator defaults.
func DefaultConfig() Config {
	return Config{
		OutputPath: "data/route_list.txt",
	}
}

// Stats is a point-in-time snapshot of generator counters.
type Stats struct {
	Routes    int64 // walks completed
	Steps     int64 // hops taken across all walks
	Exhausted int64
	Diverged  int64
	Loops     int64
}

// Generator walks the similarity matrix and renders route records.
type Generator struct {
	db     *database.DB
	config Config
	logger zerolog.Logger

	routes    atomic.Int64
	steps     atomic.Int64
	exhausted atomic.Int64
	diverged  atomic.Int64
	loops     atomic.Int64
}

// NewGenerator creates a route generator over the store.
func NewGenerator(db *database.DB, cfg Config) (*Generator, error) {
	if db == nil {
		return nil, fmt.Errorf("database required")
	}
	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("output path required")
	}

	return &Generator{
		db:     db,
		config: cfg,
		logger: logging.With().Str("component", "routes").Logger(),
	}, nil
}

// Stats returns a snapshot of the generator's counters. Counters
// accumulate across runs of the same generator.
func (g *Generator) Stats() Stats {
	return Stats{
		Routes:    g.routes.Load(),
		Steps:     g.steps.Load(),
		Exhausted: g.exhausted.Load(),
		Diverged:  g.diverged.Load(),
		Loops:     g.loops.Load(),
	}
}

// titleTable resolves matrix ids back to readable catalog names.
type titleTable struct {
	// names maps catalog id to file_name for every cataloged document.
	names map[string]string

	// starts lists the title keys of documents with stored chunks, in
	// file_name order. These are the walk starting points.
	starts []string
}

// titleOf resolves an edge's target to a readable name, falling back to
// the name stored on the edge when the catalog no longer has the id.
func (t *titleTable) titleOf(e models.MatrixEdge) string {
	if name, ok := t.names[models.TitleKeyID(e.TargetID)]; ok {
		return name
	}
	return e.TargetName
}

func (g *Generator) loadTable(ctx context.Context) (*titleTable, error) {
	infos, err := g.db.FileInfos(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	table := &titleTable{names: make(map[string]string, len(infos))}
	for _, info := range infos {
		table.names[info.ID] = info.FileName
		if info.ChunkCount > 0 {
			table.starts = append(table.starts, models.TitleKey(info.ID))
		}
	}
	return table, nil
}

// Run walks a route from every document with stored chunks and writes
// the rendered records to the configured output path.
func (g *Generator) Run(ctx context.Context) error {
	start := time.Now()

	table, err := g.loadTable(ctx)
	if err != nil {
		return err
	}
	if len(table.starts) == 0 {
		g.logger.Warn().Msg("no cataloged documents with chunks, nothing to route")
	}

	generated := make([]models.Route, 0, len(table.starts))
	for _, key := range table.starts {
		if err := ctx.Err(); err != nil {
			return err
		}
		route, err := g.walk(ctx, key, table)
		if err != nil {
			return err
		}
		generated = append(generated, route)
	}

	if err := WriteRoutes(g.config.OutputPath, generated); err != nil {
		return fmt.Errorf("write routes: %w", err)
	}

	g.logger.Info().
		Int("routes", len(generated)).
		Str("output", g.config.OutputPath).
		Dur("elapsed", time.Since(start)).
		Msg("routes generated")
	return nil
}

// RunFrom walks a single route starting at the document with the given
// readable file name and writes its record to the configured output
// path, replacing any prior content.
func (g *Generator) RunFrom(ctx context.Context, fileName string) error {
	start := time.Now()

	table, err := g.loadTable(ctx)
	if err != nil {
		return err
	}

	key := ""
	for id, name := range table.names {
		if name == fileName {
			key = models.TitleKey(id)
			break
		}
	}
	if key == "" {
		return fmt.Errorf("unknown document %q", fileName)
	}

	route, err := g.walk(ctx, key, table)
	if err != nil {
		return err
	}

	if err := WriteRoutes(g.config.OutputPath, []models.Route{route}); err != nil {
		return fmt.Errorf("write routes: %w", err)
	}

	g.logger.Info().
		Str("start", route.Start).
		Int("steps", len(route.Steps)).
		Str("termination", route.Termination).
		Dur("elapsed", time.Since(start)).
		Msg("route generated")
	return nil
}

// Walk generates the route starting at the given title key.
func (g *Generator) Walk(ctx context.Context, startKey string) (models.Route, error) {
	table, err := g.loadTable(ctx)
	if err != nil {
		return models.Route{}, err
	}
	return g.walk(ctx, startKey, table)
}

// walk is the greedy traversal. It maximizes distance at every hop over
// all outgoing edges, including edges back into visited territory; an
// argmax that lands on a visited or uncataloged document terminates the
// walk instead of being skipped, which is what bounds every walk.
func (g *Generator) walk(ctx context.Context, startKey string, table *titleTable) (models.Route, error) {
	route := models.Route{Start: table.names[models.TitleKeyID(startKey)]}
	if route.Start == "" {
		route.Start = startKey
	}

	visited := map[string]struct{}{startKey: {}}
	current := startKey

	for {
		edges, err := g.db.NeighborsOf(ctx, current)
		if err != nil {
			return route, err
		}
		if len(edges) == 0 {
			route.Termination = TerminationExhausted
			break
		}

		best := edges[:1]
		for _, e := range edges[1:] {
			switch {
			case e.Distance > best[0].Distance:
				best = []models.MatrixEdge{e}
			case e.Distance == best[0].Distance:
				best = append(best, e)
			}
		}

		if len(best) > 1 {
			sort.Slice(best, func(i, j int) bool { return best[i].TargetID < best[j].TargetID })
			for _, e := range best {
				route.Diverged = append(route.Diverged, models.RouteStep{
					Title:    table.titleOf(e),
					Distance: e.Distance,
				})
			}
			route.Termination = TerminationDiverged
			break
		}

		next := best[0]
		if _, seen := visited[next.TargetID]; seen {
			route.Termination = TerminationLoop
			break
		}
		name, known := table.names[models.TitleKeyID(next.TargetID)]
		if !known {
			route.Termination = TerminationLoop
			break
		}

		visited[next.TargetID] = struct{}{}
		route.Steps = append(route.Steps, models.RouteStep{Title: name, Distance: next.Distance})
		current = next.TargetID
	}

	g.record(route)
	return route, nil
}

func (g *Generator) record(route models.Route) {
	g.routes.Add(1)
	g.steps.Add(int64(len(route.Steps)))
	switch route.Termination {
	case TerminationDiverged:
		g.diverged.Add(1)
	case TerminationLoop:
		g.loops.Add(1)
	default:
		g.exhausted.Add(1)
	}
	metrics.RecordRoute(len(route.Steps), route.Termination)
}

// FormatRoute renders one route record: a start line, one numbered line
// per hop, the termination line, and the record terminator.
func FormatRoute(route models.Route) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Route: %s\n", route.Start)
	for i, step := range route.Steps {
		fmt.Fprintf(&b, "  %d. %s (distance %g)\n", i+1, step.Title, step.Distance)
	}
	b.WriteString(terminationLine(route))
	b.WriteByte('\n')
	b.WriteString(recordEnd)
	b.WriteByte('\n')
	return b.String()
}

func terminationLine(route models.Route) string {
	switch route.Termination {
	case TerminationDiverged:
		titles := make([]string, len(route.Diverged))
		for i, step := range route.Diverged {
			titles[i] = step.Title
		}
		distance := 0.0
		if len(route.Diverged) > 0 {
			distance = route.Diverged[0].Distance
		}
		return fmt.Sprintf("  path diverged: %s (distance %g)", strings.Join(titles, " | "), distance)
	case TerminationLoop:
		return "  loop detected"
	default:
		return "  no further route"
	}
}

// WriteRoutes renders the route records to path, one blank line between
// records, truncating any prior content.
func WriteRoutes(path string, generated []models.Route) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	records := make([]string, len(generated))
	for i, route := range generated {
		records[i] = FormatRoute(route)
	}
	if err := os.WriteFile(path, []byte(strings.Join(records, "\n")), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
