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

	"github.com/tomtom215/lexicographus/internal/database/query"
	"github.com/tomtom215/lexicographus/internal/metrics"
	"github.com/tomtom215/lexicographus/internal/models"
)

// Session is a pinned database connection. TEMP tables in SQLite are
// scoped to one connection, so each similarity producer stages its
// token set through its own session; the prompt scorer uses one for
// its read transaction.
type Session struct {
	conn *sql.Conn
}

// Close returns the connection to the pool.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// BeginRead opens a deferred transaction on the pinned connection, so
// a multi-query read sees one snapshot.
func (s *Session) BeginRead(ctx context.Context) (*ReadTx, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	return &ReadTx{tx: tx}, nil
}

// StageTokens replaces the session's staged token set. The TEMP table
// is created on first use and lives until the connection closes.
func (s *Session) StageTokens(ctx context.Context, tokens []string) error {
	if _, err := s.conn.ExecContext(ctx,
		"CREATE TEMP TABLE IF NOT EXISTS temp_tokens (token TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("failed to create temp_tokens: %w", err)
	}
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM temp_tokens"); err != nil {
		return fmt.Errorf("failed to clear temp_tokens: %w", err)
	}

	const chunk = 500
	for offset := 0; offset < len(tokens); offset += chunk {
		end := offset + chunk
		if end > len(tokens) {
			end = len(tokens)
		}
		part := tokens[offset:end]

		stmt := "INSERT OR IGNORE INTO temp_tokens (token) VALUES " +
			query.ValuesRows(len(part), 1)

		start := time.Now()
		_, err := s.conn.ExecContext(ctx, stmt, query.StringArgs(part)...)
		metrics.RecordDBQuery("insert", "temp_tokens", time.Since(start), err)
		if err != nil {
			return fmt.Errorf("failed to stage tokens: %w", err)
		}
	}
	return nil
}

// NeighborTokenRows returns every relation_distance row whose token is
// currently staged, across all documents. The similarity builder
// scores a source against all of these in one pass.
func (s *Session) NeighborTokenRows(ctx context.Context) ([]models.TokenWeight, error) {
	start := time.Now()
	rows, err := s.conn.QueryContext(ctx,
		`SELECT r.file_name, r.token, r.frequency, r.relational_distance
			FROM relation_distance r
			JOIN temp_tokens t ON r.token = t.token`)
	metrics.RecordDBQuery("select", "relation_distance", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbor token rows: %w", err)
	}
	return scanTokenWeights(rows)
}

// DocumentTokens loads one document's relation_distance rows on the
// pinned connection.
func (s *Session) DocumentTokens(ctx context.Context, fileName string) ([]models.TokenWeight, error) {
	return documentTokens(ctx, s.conn, fileName)
}

// TermWeightsByWords loads tf_idf values for a word set on the pinned
// connection.
func (s *Session) TermWeightsByWords(ctx context.Context, words []string) (map[string]float64, error) {
	return termWeightsByWords(ctx, s.conn, words)
}

// ReadTx is a deferred read transaction on a pinned connection. The
// prompt scorer loads its token index and sweeps the catalog through
// one ReadTx so both observe the same snapshot.
type ReadTx struct {
	tx *sql.Tx
}

// Close ends the read transaction. Reads have nothing to commit, so
// closing always rolls back.
func (r *ReadTx) Close() {
	rollbackQuietly(r.tx)
}

// TokenRowsByTokens loads relation_distance rows for a token set
// within the transaction snapshot.
func (r *ReadTx) TokenRowsByTokens(ctx context.Context, tokens []string) ([]models.TokenWeight, error) {
	return tokenRowsByTokens(ctx, r.tx, tokens)
}

// TermWeightsByWords loads tf_idf values for a word set within the
// transaction snapshot.
func (r *ReadTx) TermWeightsByWords(ctx context.Context, words []string) (map[string]float64, error) {
	return termWeightsByWords(ctx, r.tx, words)
}

// FileInfos returns every catalog row ordered by file_name within the
// transaction snapshot.
func (r *ReadTx) FileInfos(ctx context.Context) ([]models.FileInfo, error) {
	return fileInfos(ctx, r.tx)
}
