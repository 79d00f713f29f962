// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package tokenizer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"

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

func readCounts(t *testing.T, path string) map[string]int64 {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	counts := make(map[string]int64)
	if err := json.Unmarshal(data, &counts); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return counts
}

func TestFrequencies(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]int64
	}{
		{
			name: "stems and counts",
			in:   "cats running cats",
			want: map[string]int64{"cat": 2, "run": 1},
		},
		{
			name: "case folds and punctuation strips",
			in:   "Dog, dog! DOG?",
			want: map[string]int64{"dog": 3},
		},
		{
			name: "stopwords are kept",
			in:   "the dog",
			want: map[string]int64{"the": 1, "dog": 1},
		},
		{
			name: "digits and underscores drop",
			in:   "r2d2 foo_bar dog",
			want: map[string]int64{"dog": 1},
		},
		{
			name: "letter runs drop",
			in:   "bzzz dog",
			want: map[string]int64{"dog": 1},
		},
		{
			name: "long stems drop",
			in:   "abcdefghijklmnop dog",
			want: map[string]int64{"dog": 1},
		},
		{
			name: "empty text",
			in:   "",
			want: map[string]int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Frequencies(tt.in, DefaultConfig().MaxStemLength)
			if len(got) != len(tt.want) {
				t.Fatalf("Frequencies() = %v, want %v", got, tt.want)
			}
			for stem, count := range tt.want {
				if got[stem] != count {
					t.Errorf("Frequencies()[%q] = %d, want %d", stem, got[stem], count)
				}
			}
		})
	}
}

func TestKeepStem(t *testing.T) {
	tests := []struct {
		stem string
		want bool
	}{
		{"run", true},
		{"abcdefghijk", true},  // 11 bytes, at the cap
		{"abcdefghijkl", false}, // 12 bytes, over the cap
		{"", false},
		{"bzzz", false},
		{"aab", true},
		{"r2d2", false},
		{"foo_bar", false},
	}

	for _, tt := range tests {
		t.Run(tt.stem, func(t *testing.T) {
			if got := keepStem(tt.stem, 11); got != tt.want {
				t.Errorf("keepStem(%q) = %v, want %v", tt.stem, got, tt.want)
			}
		})
	}
}

func TestHasTripleRun(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"aa", false},
		{"aaa", true},
		{"abab", false},
		{"xaaay", true},
	}

	for _, tt := range tests {
		if got := hasTripleRun(tt.in); got != tt.want {
			t.Errorf("hasTripleRun(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRunWritesTokenFiles(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertInfo(t, db, "a1", "alpha", 2)
	insertInfo(t, db, "b2", "beta", 1)
	insertInfo(t, db, "z9", "zulu", 0) // chunkless, skipped

	if err := db.InsertChunks(ctx, "alpha.txt", []string{"the cats running fast", "cats cats"}); err != nil {
		t.Fatalf("InsertChunks(alpha) error = %v", err)
	}
	if err := db.InsertChunks(ctx, "beta.txt", []string{"running dogs"}); err != nil {
		t.Fatalf("InsertChunks(beta) error = %v", err)
	}

	dir := t.TempDir()
	cfg := Config{
		TokenDir:        filepath.Join(dir, "token_json"),
		GlobalTermsPath: filepath.Join(dir, "global_terms.json"),
		MaxStemLength:   11,
	}
	tk, err := NewTokenizer(db, cfg)
	if err != nil {
		t.Fatalf("NewTokenizer() error = %v", err)
	}
	if err := tk.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	alpha := readCounts(t, filepath.Join(cfg.TokenDir, "title_a1.json"))
	wantAlpha := map[string]int64{"the": 1, "cat": 3, "run": 1, "fast": 1}
	if len(alpha) != len(wantAlpha) {
		t.Fatalf("alpha counts = %v, want %v", alpha, wantAlpha)
	}
	for stem, count := range wantAlpha {
		if alpha[stem] != count {
			t.Errorf("alpha[%q] = %d, want %d", stem, alpha[stem], count)
		}
	}

	global := readCounts(t, cfg.GlobalTermsPath)
	wantGlobal := map[string]int64{"the": 1, "cat": 3, "run": 2, "fast": 1, "dog": 1}
	if len(global) != len(wantGlobal) {
		t.Fatalf("global counts = %v, want %v", global, wantGlobal)
	}
	for stem, count := range wantGlobal {
		if global[stem] != count {
			t.Errorf("global[%q] = %d, want %d", stem, global[stem], count)
		}
	}

	if _, err := os.Stat(filepath.Join(cfg.TokenDir, "title_z9.json")); !os.IsNotExist(err) {
		t.Errorf("chunkless document must not produce a token file, stat err = %v", err)
	}

	stats := tk.Stats()
	if stats.Titles != 2 {
		t.Errorf("stats.Titles = %d, want 2", stats.Titles)
	}
	if stats.Stems != 8 {
		t.Errorf("stats.Stems = %d, want 8", stats.Stems)
	}
}

func TestNewTokenizerValidation(t *testing.T) {
	db := newTestDB(t)

	tests := []struct {
		name string
		db   *database.DB
		cfg  Config
	}{
		{"nil database", nil, DefaultConfig()},
		{"empty token dir", db, Config{GlobalTermsPath: "g.json", MaxStemLength: 11}},
		{"empty global terms path", db, Config{TokenDir: "tokens", MaxStemLength: 11}},
		{"zero stem length", db, Config{TokenDir: "tokens", GlobalTermsPath: "g.json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewTokenizer(tt.db, tt.cfg); err == nil {
				t.Error("NewTokenizer() expected error, got nil")
			}
		})
	}
}

// BenchmarkFrequencies benchmarks stemming and counting over roughly one
// chunk of text.
func BenchmarkFrequencies(b *testing.B) {
	text := strings.Repeat("the quick brown foxes jumped over the lazy dogs while running through fields ", 32)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Frequencies(text, 11)
	}
}
