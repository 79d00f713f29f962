// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/lexicographus/internal/database/query"
	"github.com/tomtom215/lexicographus/internal/metrics"
	"github.com/tomtom215/lexicographus/internal/models"
)

// DistinctDocumentCount returns the number of distinct documents in
// relation_distance, the N of the IDF formula.
func (db *DB) DistinctDocumentCount(ctx context.Context) (int64, error) {
	start := time.Now()
	var n int64
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT file_name) FROM relation_distance").Scan(&n)
	metrics.RecordDBQuery("select", "relation_distance", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct documents: %w", err)
	}
	return n, nil
}

// TokenDocCounts returns, for every token in relation_distance, the
// number of distinct documents containing it. Tokens absent from the
// result simply have no rows and score a document count of zero.
func (db *DB) TokenDocCounts(ctx context.Context) (map[string]int64, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT token, COUNT(DISTINCT file_name)
			FROM relation_distance GROUP BY token`)
	metrics.RecordDBQuery("select", "relation_distance", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query token document counts: %w", err)
	}
	defer closeQuietly(rows)

	counts := make(map[string]int64)
	for rows.Next() {
		var token string
		var count int64
		if err := rows.Scan(&token, &count); err != nil {
			return nil, fmt.Errorf("failed to scan token document count: %w", err)
		}
		counts[token] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate token document counts: %w", err)
	}
	return counts, nil
}

// ReplaceTermWeights rebuilds the tf_idf table from scratch: one
// transaction clearing the table and upserting all rows in multi-row
// batches of batchSize.
func (db *DB) ReplaceTermWeights(ctx context.Context, rows []models.TermWeight, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 1000
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tf_idf transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	if _, err := tx.ExecContext(ctx, "DELETE FROM tf_idf"); err != nil {
		return fmt.Errorf("failed to clear tf_idf: %w", err)
	}

	for offset := 0; offset < len(rows); offset += batchSize {
		end := offset + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[offset:end]

		stmt := "INSERT OR REPLACE INTO tf_idf (word, freq, doc_count, tf_idf) VALUES " +
			query.ValuesRows(len(batch), 4)
		args := make([]interface{}, 0, len(batch)*4)
		for i := range batch {
			r := &batch[i]
			args = append(args, r.Word, r.Freq, r.DocCount, r.TFIDF)
		}

		start := time.Now()
		_, err := tx.ExecContext(ctx, stmt, args...)
		metrics.RecordDBQuery("insert", "tf_idf", time.Since(start), err)
		if err != nil {
			return fmt.Errorf("failed to upsert tf_idf batch at %d: %w", offset, err)
		}
		metrics.TFIDFBatchesFlushed.Inc()
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tf_idf transaction: %w", err)
	}
	metrics.TFIDFTermsScored.Add(float64(len(rows)))
	return nil
}

// TermWeightMap loads the whole tf_idf table as word to tf_idf value.
// The similarity builder shares one load across all producers.
func (db *DB) TermWeightMap(ctx context.Context) (map[string]float64, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, "SELECT word, tf_idf FROM tf_idf")
	metrics.RecordDBQuery("select", "tf_idf", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query tf_idf: %w", err)
	}
	defer closeQuietly(rows)

	weights := make(map[string]float64)
	for rows.Next() {
		var word string
		var value float64
		if err := rows.Scan(&word, &value); err != nil {
			return nil, fmt.Errorf("failed to scan tf_idf row: %w", err)
		}
		weights[word] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tf_idf rows: %w", err)
	}
	return weights, nil
}

func termWeightsByWords(ctx context.Context, q queryer, words []string) (map[string]float64, error) {
	weights := make(map[string]float64, len(words))

	// Chunked IN lists keep the parameter count bounded.
	const chunk = 500
	for offset := 0; offset < len(words); offset += chunk {
		end := offset + chunk
		if end > len(words) {
			end = len(words)
		}
		part := words[offset:end]

		stmt := "SELECT word, tf_idf FROM tf_idf WHERE " + query.In("word", len(part))

		start := time.Now()
		rows, err := q.QueryContext(ctx, stmt, query.StringArgs(part)...)
		metrics.RecordDBQuery("select", "tf_idf", time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("failed to query tf_idf by words: %w", err)
		}

		for rows.Next() {
			var word string
			var value float64
			if err := rows.Scan(&word, &value); err != nil {
				closeQuietly(rows)
				return nil, fmt.Errorf("failed to scan tf_idf row: %w", err)
			}
			weights[word] = value
		}
		err = rows.Err()
		closeQuietly(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to iterate tf_idf rows: %w", err)
		}
	}
	return weights, nil
}
