// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tomtom215/lexicographus/internal/models"
)

// newTestDB opens a store in a per-test temp directory.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return db
}

func TestNewCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "store.db")

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer closeQuietly(db)

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

func TestSchemaTablesExist(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tables := []string{
		"file_token",
		"relation_distance",
		"file_info",
		"tf_idf",
		"item_matrix_triangle",
		"pdf_chunks",
	}

	for _, table := range tables {
		t.Run(table, func(t *testing.T) {
			var name string
			err := db.conn.QueryRowContext(ctx,
				"SELECT name FROM sqlite_master WHERE type='table' AND name = ?",
				table).Scan(&name)
			if err != nil {
				t.Fatalf("table %s missing: %v", table, err)
			}
		})
	}
}

func TestFingerprintTxCommit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ftx, err := db.BeginFingerprints(ctx, false)
	if err != nil {
		t.Fatalf("BeginFingerprints() error = %v", err)
	}

	summary := models.FingerprintSummary{
		FileName:     "title_abc",
		TotalTokens:  18,
		UniqueTokens: 3,
		Norm:         11.5758,
	}
	if err := ftx.PutSummary(ctx, summary); err != nil {
		t.Fatalf("PutSummary() error = %v", err)
	}

	rows := []models.TokenWeight{
		{FileName: "title_abc", Token: "cat", Frequency: 3, Weight: 3 / 11.5758},
		{FileName: "title_abc", Token: "dog", Frequency: 5, Weight: 5 / 11.5758},
		{FileName: "title_abc", Token: "xx", Frequency: 10, Weight: 10 / 11.5758},
	}
	if err := ftx.PutTokens(ctx, rows); err != nil {
		t.Fatalf("PutTokens() error = %v", err)
	}

	if err := ftx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	var total int64
	if err := db.conn.QueryRowContext(ctx,
		"SELECT total_tokens FROM file_token WHERE file_name = ?",
		"title_abc").Scan(&total); err != nil {
		t.Fatalf("file_token row missing: %v", err)
	}
	if total != 18 {
		t.Errorf("total_tokens = %d, want 18", total)
	}

	var n int
	if err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM relation_distance WHERE file_name = ?",
		"title_abc").Scan(&n); err != nil {
		t.Fatalf("relation_distance count failed: %v", err)
	}
	if n != 3 {
		t.Errorf("relation_distance rows = %d, want 3", n)
	}
}

func TestFingerprintTxRollbackKeepsPriorState(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Seed one committed document.
	ftx, err := db.BeginFingerprints(ctx, false)
	if err != nil {
		t.Fatalf("BeginFingerprints() error = %v", err)
	}
	if err := ftx.PutSummary(ctx, models.FingerprintSummary{FileName: "title_old", TotalTokens: 4, UniqueTokens: 1, Norm: 4}); err != nil {
		t.Fatalf("PutSummary() error = %v", err)
	}
	if err := ftx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	// A resetting run that rolls back must leave the old row intact.
	ftx2, err := db.BeginFingerprints(ctx, true)
	if err != nil {
		t.Fatalf("BeginFingerprints(reset) error = %v", err)
	}
	if err := ftx2.PutSummary(ctx, models.FingerprintSummary{FileName: "title_new", TotalTokens: 7, UniqueTokens: 2, Norm: 5}); err != nil {
		t.Fatalf("PutSummary() error = %v", err)
	}
	ftx2.Rollback()

	var n int
	if err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM file_token").Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("file_token rows after rollback = %d, want 1", n)
	}

	var name string
	if err := db.conn.QueryRowContext(ctx,
		"SELECT file_name FROM file_token").Scan(&name); err != nil {
		t.Fatalf("row read failed: %v", err)
	}
	if name != "title_old" {
		t.Errorf("surviving row = %q, want title_old", name)
	}
}

func TestFingerprintTxResetClearsTables(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ftx, err := db.BeginFingerprints(ctx, false)
	if err != nil {
		t.Fatalf("BeginFingerprints() error = %v", err)
	}
	if err := ftx.PutSummary(ctx, models.FingerprintSummary{FileName: "title_a", TotalTokens: 1, UniqueTokens: 1, Norm: 1}); err != nil {
		t.Fatalf("PutSummary() error = %v", err)
	}
	if err := ftx.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	ftx2, err := db.BeginFingerprints(ctx, true)
	if err != nil {
		t.Fatalf("BeginFingerprints(reset) error = %v", err)
	}
	if err := ftx2.PutSummary(ctx, models.FingerprintSummary{FileName: "title_b", TotalTokens: 2, UniqueTokens: 1, Norm: 2}); err != nil {
		t.Fatalf("PutSummary() error = %v", err)
	}
	if err := ftx2.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	var n int
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM file_token").Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("file_token rows = %d, want only the post-reset row", n)
	}
}

func TestFingerprintUpsertReplaces(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, total := range []int64{5, 9} {
		ftx, err := db.BeginFingerprints(ctx, false)
		if err != nil {
			t.Fatalf("BeginFingerprints() error = %v", err)
		}
		if err := ftx.PutSummary(ctx, models.FingerprintSummary{FileName: "title_same", TotalTokens: total, UniqueTokens: 1, Norm: 1}); err != nil {
			t.Fatalf("PutSummary() error = %v", err)
		}
		if err := ftx.Commit(); err != nil {
			t.Fatalf("Commit() error = %v", err)
		}
	}

	var total int64
	if err := db.conn.QueryRowContext(ctx,
		"SELECT total_tokens FROM file_token WHERE file_name = ?", "title_same").Scan(&total); err != nil {
		t.Fatalf("row read failed: %v", err)
	}
	if total != 9 {
		t.Errorf("total_tokens = %d, want the replaced value 9", total)
	}
}
