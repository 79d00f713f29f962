// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package database

import (
	"fmt"
)

// Table DDL. All statements are idempotent so every action can open
// the store without coordination.
//
// pdf_chunks is populated by the text extraction step and only read by
// the analysis pipeline; it is created here so that chunk-count
// lookups on a fresh store return zero instead of failing.
var createTableStatements = []string{
	`CREATE TABLE IF NOT EXISTS file_token (
		file_name TEXT PRIMARY KEY,
		total_tokens INTEGER,
		unique_tokens INTEGER,
		relational_distance REAL
	);`,

	`CREATE TABLE IF NOT EXISTS relation_distance (
		file_name TEXT,
		token TEXT,
		frequency INTEGER,
		relational_distance REAL,
		PRIMARY KEY (file_name, token)
	);`,

	`CREATE TABLE IF NOT EXISTS file_info (
		id TEXT,
		file_name TEXT UNIQUE,
		file_path TEXT,
		epoch_time INTEGER,
		chunk_count INTEGER
	);`,

	`CREATE TABLE IF NOT EXISTS tf_idf (
		word TEXT PRIMARY KEY,
		freq INTEGER,
		doc_count INTEGER,
		tf_idf REAL
	);`,

	`CREATE TABLE IF NOT EXISTS item_matrix_triangle (
		target_id TEXT,
		target_name TEXT,
		source_id TEXT,
		source_name TEXT,
		distance REAL,
		UNIQUE (target_id, source_id)
	);`,

	`CREATE TABLE IF NOT EXISTS pdf_chunks (
		file_name TEXT,
		chunk_id INTEGER,
		chunk_text TEXT,
		PRIMARY KEY (file_name, chunk_id)
	);`,
}

// Index DDL. The token index serves prompt scoring and the similarity
// JOIN; the source index serves route walks over the matrix.
var createIndexStatements = []string{
	`CREATE INDEX IF NOT EXISTS idx_relation_distance_token
		ON relation_distance (token);`,

	`CREATE INDEX IF NOT EXISTS idx_item_matrix_source
		ON item_matrix_triangle (source_id);`,
}

// createTables creates all tables if they do not exist
func (db *DB) createTables() error {
	for _, stmt := range createTableStatements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// createIndexes creates all indexes if they do not exist
func (db *DB) createIndexes() error {
	for _, stmt := range createIndexStatements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
