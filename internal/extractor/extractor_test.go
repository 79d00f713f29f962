// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package extractor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/lexicographus/internal/database"
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

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "alpha beta", "alpha beta"},
		{"punctuation stripped", "alpha, beta! (gamma)", "alpha beta gamma"},
		{"digits kept", "page 42 of 100", "page 42 of 100"},
		{"whitespace kept", "alpha\tbeta\ngamma", "alpha\tbeta\ngamma"},
		{"non-ascii stripped", "naïve café", "nave caf"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanText(tt.in); got != tt.want {
				t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestChunkWords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		size int
		want []string
	}{
		{"empty text", "", 3, nil},
		{"whitespace only", "  \n\t ", 3, nil},
		{"single short chunk", "a b", 3, []string{"a b"}},
		{"exact multiple", "a b c d", 2, []string{"a b", "c d"}},
		{"remainder chunk", "a b c d e", 2, []string{"a b", "c d", "e"}},
		{"collapses runs", "a  b\n\nc", 2, []string{"a b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunkWords(tt.in, tt.size)
			if len(got) != len(tt.want) {
				t.Fatalf("chunkWords() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("chunkWords()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestChunkFileName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"data/pdf/report.pdf", "report.txt"},
		{"ARCHIVE.PDF", "ARCHIVE.txt"},
		{"notes", "notes.txt"},
		{"dir/multi.dot.pdf", "multi.dot.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := chunkFileName(tt.path); got != tt.want {
				t.Errorf("chunkFileName(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestRunSkipsBadInputs(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()

	empty := writeFile(t, dir, "empty.pdf", "")
	oversize := writeFile(t, dir, "big.pdf", strings.Repeat("x", 64))
	garbage := writeFile(t, dir, "garbage.pdf", "not a pdf at all")
	missing := filepath.Join(dir, "absent.pdf")

	cfg := DefaultConfig()
	cfg.MaxFileSize = 32
	e, err := NewExtractor(db, cfg)
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}

	if err := e.Run(ctx, []string{empty, oversize, garbage, missing}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stats := e.Stats()
	if stats.Processed != 0 {
		t.Errorf("stats.Processed = %d, want 0", stats.Processed)
	}
	if stats.Skipped != 4 {
		t.Errorf("stats.Skipped = %d, want 4", stats.Skipped)
	}
	if stats.Chunks != 0 {
		t.Errorf("stats.Chunks = %d, want 0", stats.Chunks)
	}

	known, err := db.KnownChunkNames(ctx)
	if err != nil {
		t.Fatalf("KnownChunkNames() error = %v", err)
	}
	if len(known) != 0 {
		t.Errorf("len(known) = %d, want 0", len(known))
	}
}

func TestRunSkipsKnownDocuments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	dir := t.TempDir()

	// Already chunked: the extractor must not even open the file.
	if err := db.InsertChunks(ctx, "doc.txt", []string{"stored chunk"}); err != nil {
		t.Fatalf("InsertChunks() error = %v", err)
	}
	path := writeFile(t, dir, "doc.pdf", "not a pdf at all")

	e, err := NewExtractor(db, DefaultConfig())
	if err != nil {
		t.Fatalf("NewExtractor() error = %v", err)
	}
	if err := e.Run(ctx, []string{path}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	stats := e.Stats()
	if stats.Skipped != 1 {
		t.Errorf("stats.Skipped = %d, want 1", stats.Skipped)
	}
	if stats.Processed != 0 {
		t.Errorf("stats.Processed = %d, want 0", stats.Processed)
	}

	count, err := db.ChunkCount(ctx, "doc.txt")
	if err != nil {
		t.Fatalf("ChunkCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("ChunkCount() = %d, want 1", count)
	}
}

func TestNewExtractorValidation(t *testing.T) {
	db := newTestDB(t)

	tests := []struct {
		name string
		db   *database.DB
		cfg  Config
	}{
		{"nil database", nil, DefaultConfig()},
		{"zero max file size", db, Config{MaxFileSize: 0, ChunkSize: 512}},
		{"zero chunk size", db, Config{MaxFileSize: 1 << 20, ChunkSize: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewExtractor(tt.db, tt.cfg); err == nil {
				t.Error("NewExtractor() expected error, got nil")
			}
		})
	}
}
