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

// FingerprintTx spans one ingestion run: a single transaction holding
// prepared upserts for file_token and relation_distance, reused across
// every document in the run. A database error aborts the whole run via
// Rollback; per-file parse failures never reach this layer.
type FingerprintTx struct {
	tx          *sql.Tx
	summaryStmt *sql.Stmt
	tokenStmt   *sql.Stmt
}

// BeginFingerprints opens the ingestion transaction. With reset set,
// both fingerprint tables are cleared first, inside the same
// transaction, so an aborted run leaves the previous state intact.
func (db *DB) BeginFingerprints(ctx context.Context, reset bool) (*FingerprintTx, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin fingerprint transaction: %w", err)
	}

	if reset {
		for _, table := range []string{"file_token", "relation_distance"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				rollbackQuietly(tx)
				return nil, fmt.Errorf("failed to reset %s: %w", table, err)
			}
		}
	}

	summaryStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO file_token
			(file_name, total_tokens, unique_tokens, relational_distance)
			VALUES (?, ?, ?, ?)`)
	if err != nil {
		rollbackQuietly(tx)
		return nil, fmt.Errorf("failed to prepare file_token upsert: %w", err)
	}

	tokenStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO relation_distance
			(file_name, token, frequency, relational_distance)
			VALUES (?, ?, ?, ?)`)
	if err != nil {
		closeQuietly(summaryStmt)
		rollbackQuietly(tx)
		return nil, fmt.Errorf("failed to prepare relation_distance upsert: %w", err)
	}

	return &FingerprintTx{
		tx:          tx,
		summaryStmt: summaryStmt,
		tokenStmt:   tokenStmt,
	}, nil
}

// PutSummary upserts one document's file_token row.
func (f *FingerprintTx) PutSummary(ctx context.Context, s models.FingerprintSummary) error {
	start := time.Now()
	_, err := f.summaryStmt.ExecContext(ctx, s.FileName, s.TotalTokens, s.UniqueTokens, s.Norm)
	metrics.RecordDBQuery("insert", "file_token", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert file_token for %s: %w", s.FileName, err)
	}
	return nil
}

// PutTokens upserts one document's relation_distance rows.
func (f *FingerprintTx) PutTokens(ctx context.Context, rows []models.TokenWeight) error {
	start := time.Now()
	var err error
	for i := range rows {
		r := &rows[i]
		if _, err = f.tokenStmt.ExecContext(ctx, r.FileName, r.Token, r.Frequency, r.Weight); err != nil {
			break
		}
	}
	metrics.RecordDBQuery("insert", "relation_distance", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert relation_distance rows: %w", err)
	}
	return nil
}

// Commit finalizes the prepared statements and commits the run.
func (f *FingerprintTx) Commit() error {
	closeWithLog(f.summaryStmt, "file_token statement")
	closeWithLog(f.tokenStmt, "relation_distance statement")
	if err := f.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fingerprint transaction: %w", err)
	}
	return nil
}

// Rollback abandons the run. Safe to call after Commit.
func (f *FingerprintTx) Rollback() {
	closeQuietly(f.summaryStmt)
	closeQuietly(f.tokenStmt)
	rollbackQuietly(f.tx)
}
