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
	"github.com/tomtom215/lexicographus/internal/models"
)

// ExistingMatrixSources returns the set of source ids already scored
// into the similarity matrix. Used to skip finished sources when a
// build is re-run in append mode.
func (db *DB) ExistingMatrixSources(ctx context.Context) (map[string]struct{}, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		"SELECT DISTINCT source_id FROM item_matrix_triangle")
	metrics.RecordDBQuery("select", "item_matrix_triangle", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing matrix sources: %w", err)
	}
	defer closeQuietly(rows)

	sources := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan source id: %w", err)
		}
		sources[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate source ids: %w", err)
	}
	return sources, nil
}

// InsertMatrixBatch inserts one writer batch inside a transaction.
// INSERT OR IGNORE plus the UNIQUE(target_id, source_id) constraint
// makes replays of the same pairs idempotent.
func (db *DB) InsertMatrixBatch(ctx context.Context, edges []models.MatrixEdge) error {
	if len(edges) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin matrix transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO item_matrix_triangle
			(target_id, target_name, source_id, source_name, distance)
			VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare matrix insert: %w", err)
	}
	defer closeQuietly(stmt)

	start := time.Now()
	for i := range edges {
		e := &edges[i]
		if _, err := stmt.ExecContext(ctx, e.TargetID, e.TargetName, e.SourceID, e.SourceName, e.Distance); err != nil {
			metrics.RecordDBQuery("insert", "item_matrix_triangle", time.Since(start), err)
			return fmt.Errorf("failed to insert matrix edge %s -> %s: %w", e.SourceID, e.TargetID, err)
		}
	}
	metrics.RecordDBQuery("insert", "item_matrix_triangle", time.Since(start), nil)

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit matrix batch: %w", err)
	}
	return nil
}

// ResetMatrix clears the similarity matrix.
func (db *DB) ResetMatrix(ctx context.Context) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, "DELETE FROM item_matrix_triangle")
	metrics.RecordDBQuery("delete", "item_matrix_triangle", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to reset matrix: %w", err)
	}
	return nil
}

// NeighborsOf returns the directed edges leaving sourceID, the
// candidate hops for a route walk.
func (db *DB) NeighborsOf(ctx context.Context, sourceID string) ([]models.MatrixEdge, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT target_id, target_name, source_id, source_name, distance
			FROM item_matrix_triangle WHERE source_id = ?`, sourceID)
	metrics.RecordDBQuery("select", "item_matrix_triangle", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query neighbors of %s: %w", sourceID, err)
	}
	defer closeQuietly(rows)

	var edges []models.MatrixEdge
	for rows.Next() {
		var e models.MatrixEdge
		if err := rows.Scan(&e.TargetID, &e.TargetName, &e.SourceID, &e.SourceName, &e.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan matrix edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matrix edges: %w", err)
	}
	return edges, nil
}
