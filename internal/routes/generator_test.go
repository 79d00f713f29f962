// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package routes

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/lexicographus/internal/database"
	"github.com/tomtom215/lexicographus/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("db.Close() error = %v", err)
		}
	})
	return db
}

func newTestGenerator(t *testing.T, db *database.DB) (*Generator, string) {
	t.Helper()

	outputPath := filepath.Join(t.TempDir(), "route_list.txt")
	g, err := NewGenerator(db, Config{OutputPath: outputPath})
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return g, outputPath
}

func insertInfo(t *testing.T, db *database.DB, id, name string, chunks int64) {
	t.Helper()

	_, err := db.Conn().Exec(
		"INSERT INTO file_info (id, file_name, file_path, epoch_time, chunk_count) VALUES (?, ?, ?, ?, ?)",
		id, name, name+".pdf", 1700000000, chunks,
	)
	if err != nil {
		t.Fatalf("seed file_info: %v", err)
	}
}

func insertEdge(t *testing.T, db *database.DB, sourceID, targetID string, distance float64) {
	t.Helper()

	_, err := db.Conn().Exec(
		`INSERT INTO item_matrix_triangle (target_id, target_name, source_id, source_name, distance)
			VALUES (?, ?, ?, ?, ?)`,
		targetID, models.TitleKeyID(targetID), sourceID, models.TitleKeyID(sourceID), distance,
	)
	if err != nil {
		t.Fatalf("seed item_matrix_triangle: %v", err)
	}
}

func TestWalkGreedyPath(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertInfo(t, db, "a", "alpha", 2)
	insertInfo(t, db, "b", "bravo", 2)
	insertInfo(t, db, "c", "charlie", 2)

	// alpha's strongest neighbor is bravo, bravo's is charlie, charlie
	// has no outgoing edges.
	insertEdge(t, db, "title_a", "title_b", 0.9)
	insertEdge(t, db, "title_a", "title_c", 0.5)
	insertEdge(t, db, "title_b", "title_c", 0.7)

	g, _ := newTestGenerator(t, db)
	route, err := g.Walk(ctx, "title_a")
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	if route.Start != "alpha" {
		t.Errorf("route.Start = %q, want %q", route.Start, "alpha")
	}
	if route.Termination != TerminationExhausted {
		t.Errorf("route.Termination = %q, want %q", route.Termination, TerminationExhausted)
	}

	want := []models.RouteStep{
		{Title: "bravo", Distance: 0.9},
		{Title: "charlie", Distance: 0.7},
	}
	if len(route.Steps) != len(want) {
		t.Fatalf("len(route.Steps) = %d, want %d", len(route.Steps), len(want))
	}
	for i, step := range want {
		if route.Steps[i] != step {
			t.Errorf("route.Steps[%d] = %+v, want %+v", i, route.Steps[i], step)
		}
	}
}

func TestWalkDiverged(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertInfo(t, db, "a", "alpha", 1)
	insertInfo(t, db, "b", "bravo", 1)
	insertInfo(t, db, "c", "charlie", 1)

	insertEdge(t, db, "title_a", "title_c", 0.8)
	insertEdge(t, db, "title_a", "title_b", 0.8)

	g, _ := newTestGenerator(t, db)
	route, err := g.Walk(ctx, "title_a")
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	if route.Termination != TerminationDiverged {
		t.Errorf("route.Termination = %q, want %q", route.Termination, TerminationDiverged)
	}
	if len(route.Steps) != 0 {
		t.Errorf("len(route.Steps) = %d, want 0", len(route.Steps))
	}

	// Tied targets are reported in target id order.
	want := []models.RouteStep{
		{Title: "bravo", Distance: 0.8},
		{Title: "charlie", Distance: 0.8},
	}
	if len(route.Diverged) != len(want) {
		t.Fatalf("len(route.Diverged) = %d, want %d", len(route.Diverged), len(want))
	}
	for i, step := range want {
		if route.Diverged[i] != step {
			t.Errorf("route.Diverged[%d] = %+v, want %+v", i, route.Diverged[i], step)
		}
	}
}

func TestWalkLoopDetection(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertInfo(t, db, "a", "alpha", 1)
	insertInfo(t, db, "b", "bravo", 1)

	// bravo's only (and therefore strongest) neighbor points back at
	// alpha, which the walk has already visited.
	insertEdge(t, db, "title_a", "title_b", 0.9)
	insertEdge(t, db, "title_b", "title_a", 0.9)

	g, _ := newTestGenerator(t, db)
	route, err := g.Walk(ctx, "title_a")
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	if route.Termination != TerminationLoop {
		t.Errorf("route.Termination = %q, want %q", route.Termination, TerminationLoop)
	}
	if len(route.Steps) != 1 || route.Steps[0].Title != "bravo" {
		t.Errorf("route.Steps = %+v, want single hop to bravo", route.Steps)
	}
}

func TestWalkUnknownTarget(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertInfo(t, db, "a", "alpha", 1)
	insertEdge(t, db, "title_a", "title_ghost", 0.9)

	g, _ := newTestGenerator(t, db)
	route, err := g.Walk(ctx, "title_a")
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	if route.Termination != TerminationLoop {
		t.Errorf("route.Termination = %q, want %q", route.Termination, TerminationLoop)
	}
	if len(route.Steps) != 0 {
		t.Errorf("len(route.Steps) = %d, want 0", len(route.Steps))
	}
}

func TestRunWritesRecords(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertInfo(t, db, "a", "alpha", 2)
	insertInfo(t, db, "b", "bravo", 2)
	insertInfo(t, db, "z", "zulu", 0) // chunkless, not a start

	insertEdge(t, db, "title_a", "title_b", 0.6)

	g, outputPath := newTestGenerator(t, db)
	if err := g.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	out := string(data)

	if got := strings.Count(out, "Route: "); got != 2 {
		t.Errorf("route records = %d, want 2", got)
	}
	if got := strings.Count(out, recordEnd+"\n"); got != 2 {
		t.Errorf("record terminators = %d, want 2", got)
	}
	if !strings.Contains(out, "Route: alpha\n  1. bravo (distance 0.6)\n") {
		t.Errorf("output missing alpha's hop to bravo:\n%s", out)
	}
	if strings.Contains(out, "Route: zulu") {
		t.Errorf("chunkless document must not start a route:\n%s", out)
	}

	stats := g.Stats()
	if stats.Routes != 2 {
		t.Errorf("stats.Routes = %d, want 2", stats.Routes)
	}
	if stats.Steps != 1 {
		t.Errorf("stats.Steps = %d, want 1", stats.Steps)
	}
}

func TestRunFrom(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertInfo(t, db, "a", "alpha", 1)
	insertInfo(t, db, "b", "bravo", 1)
	insertEdge(t, db, "title_a", "title_b", 0.4)

	g, outputPath := newTestGenerator(t, db)
	if err := g.RunFrom(ctx, "alpha"); err != nil {
		t.Fatalf("RunFrom() error = %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if got := strings.Count(string(data), "Route: "); got != 1 {
		t.Errorf("route records = %d, want 1", got)
	}

	if err := g.RunFrom(ctx, "missing"); err == nil {
		t.Error("RunFrom(missing) expected error, got nil")
	}
}

func TestFormatRoute(t *testing.T) {
	tests := []struct {
		name  string
		route models.Route
		want  string
	}{
		{
			name: "exhausted walk",
			route: models.Route{
				Start: "alpha",
				Steps: []models.RouteStep{
					{Title: "bravo", Distance: 0.9},
					{Title: "charlie", Distance: 0.25},
				},
				Termination: TerminationExhausted,
			},
			want: "Route: alpha\n" +
				"  1. bravo (distance 0.9)\n" +
				"  2. charlie (distance 0.25)\n" +
				"  no further route\n" +
				"END.\n",
		},
		{
			name: "diverged walk",
			route: models.Route{
				Start:       "alpha",
				Termination: TerminationDiverged,
				Diverged: []models.RouteStep{
					{Title: "bravo", Distance: 0.5},
					{Title: "charlie", Distance: 0.5},
				},
			},
			want: "Route: alpha\n" +
				"  path diverged: bravo | charlie (distance 0.5)\n" +
				"END.\n",
		},
		{
			name: "loop walk",
			route: models.Route{
				Start:       "alpha",
				Steps:       []models.RouteStep{{Title: "bravo", Distance: 0.3}},
				Termination: TerminationLoop,
			},
			want: "Route: alpha\n" +
				"  1. bravo (distance 0.3)\n" +
				"  loop detected\n" +
				"END.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRoute(tt.route); got != tt.want {
				t.Errorf("FormatRoute() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewGeneratorValidation(t *testing.T) {
	db := newTestDB(t)

	if _, err := NewGenerator(nil, DefaultConfig()); err == nil {
		t.Error("NewGenerator(nil db) expected error, got nil")
	}
	if _, err := NewGenerator(db, Config{}); err == nil {
		t.Error("NewGenerator(empty output) expected error, got nil")
	}
}
