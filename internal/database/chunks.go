// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/lexicographus/internal/metrics"
)

// KnownChunkNames returns the set of chunk file names already present,
// so re-runs of text extraction skip finished documents.
func (db *DB) KnownChunkNames(ctx context.Context) (map[string]struct{}, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		"SELECT DISTINCT file_name FROM pdf_chunks")
	metrics.RecordDBQuery("select", "pdf_chunks", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query known chunk names: %w", err)
	}
	defer closeQuietly(rows)

	names := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan chunk name: %w", err)
		}
		names[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunk names: %w", err)
	}
	return names, nil
}

// InsertChunks stores the ordered text chunks of one document inside a
// transaction. Chunk ids are the slice indices. INSERT OR IGNORE plus
// the composite primary key makes replays idempotent.
func (db *DB) InsertChunks(ctx context.Context, fileName string, texts []string) error {
	if len(texts) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin chunk transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO pdf_chunks (file_name, chunk_id, chunk_text) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer closeQuietly(stmt)

	start := time.Now()
	for i, text := range texts {
		if _, err := stmt.ExecContext(ctx, fileName, i, text); err != nil {
			metrics.RecordDBQuery("insert", "pdf_chunks", time.Since(start), err)
			return fmt.Errorf("failed to insert chunk %d of %s: %w", i, fileName, err)
		}
	}
	metrics.RecordDBQuery("insert", "pdf_chunks", time.Since(start), nil)

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks of %s: %w", fileName, err)
	}
	return nil
}

// ChunkTexts returns the stored chunks of one document in chunk order.
func (db *DB) ChunkTexts(ctx context.Context, fileName string) ([]string, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		"SELECT chunk_text FROM pdf_chunks WHERE file_name = ? ORDER BY chunk_id", fileName)
	metrics.RecordDBQuery("select", "pdf_chunks", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks of %s: %w", fileName, err)
	}
	defer closeQuietly(rows)

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan chunk text: %w", err)
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunk texts: %w", err)
	}
	return texts, nil
}
