// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/lexicographus/internal/metrics"
	"github.com/tomtom215/lexicographus/internal/models"
)

// queryer abstracts the QueryContext surface shared by *sql.DB,
// *sql.Conn, and *sql.Tx, so read helpers can serve both pooled and
// session-pinned callers.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// KnownFileNames returns the set of file_name values already recorded
// in the catalog. Used to skip known documents in append mode.
func (db *DB) KnownFileNames(ctx context.Context) (map[string]struct{}, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, "SELECT file_name FROM file_info")
	metrics.RecordDBQuery("select", "file_info", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query known file names: %w", err)
	}
	defer closeQuietly(rows)

	known := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan file name: %w", err)
		}
		known[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file names: %w", err)
	}
	return known, nil
}

// ChunkCount returns the number of stored text chunks for the given
// chunk file name (the document stem plus the ".txt" suffix, the
// boundary convention with the extraction step). A document with no
// chunks yields zero.
func (db *DB) ChunkCount(ctx context.Context, chunkFileName string) (int64, error) {
	start := time.Now()
	var count int64
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(chunk_id) FROM pdf_chunks WHERE file_name = ?",
		chunkFileName).Scan(&count)
	metrics.RecordDBQuery("select", "pdf_chunks", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks for %s: %w", chunkFileName, err)
	}
	return count, nil
}

// UpsertFileInfo records one document in the catalog, replacing any
// previous row with the same file_name.
func (db *DB) UpsertFileInfo(ctx context.Context, info models.FileInfo) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO file_info
			(id, file_name, file_path, epoch_time, chunk_count)
			VALUES (?, ?, ?, ?, ?)`,
		info.ID, info.FileName, info.FilePath, info.EpochTime, info.ChunkCount)
	metrics.RecordDBQuery("insert", "file_info", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert file_info for %s: %w", info.FileName, err)
	}
	return nil
}

// ResetCatalog clears the catalog table.
func (db *DB) ResetCatalog(ctx context.Context) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, "DELETE FROM file_info")
	metrics.RecordDBQuery("delete", "file_info", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to reset catalog: %w", err)
	}
	return nil
}

// FileInfos returns every catalog row ordered by file_name.
func (db *DB) FileInfos(ctx context.Context) ([]models.FileInfo, error) {
	return fileInfos(ctx, db.conn)
}

func fileInfos(ctx context.Context, q queryer) ([]models.FileInfo, error) {
	start := time.Now()
	rows, err := q.QueryContext(ctx,
		`SELECT id, file_name, file_path, epoch_time, chunk_count
			FROM file_info ORDER BY file_name`)
	metrics.RecordDBQuery("select", "file_info", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query file_info: %w", err)
	}
	defer closeQuietly(rows)

	var infos []models.FileInfo
	for rows.Next() {
		var info models.FileInfo
		if err := rows.Scan(&info.ID, &info.FileName, &info.FilePath, &info.EpochTime, &info.ChunkCount); err != nil {
			return nil, fmt.Errorf("failed to scan file_info row: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate file_info rows: %w", err)
	}
	return infos, nil
}
