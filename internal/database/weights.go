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

// tokenRowsByTokens loads every relation_distance row whose token is
// in the given set. Serves the prompt scorer, which indexes the result
// by document.
func tokenRowsByTokens(ctx context.Context, q queryer, tokens []string) ([]models.TokenWeight, error) {
	var out []models.TokenWeight

	const chunk = 500
	for offset := 0; offset < len(tokens); offset += chunk {
		end := offset + chunk
		if end > len(tokens) {
			end = len(tokens)
		}
		part := tokens[offset:end]

		stmt := `SELECT file_name, token, frequency, relational_distance
			FROM relation_distance WHERE ` + query.In("token", len(part))

		start := time.Now()
		rows, err := q.QueryContext(ctx, stmt, query.StringArgs(part)...)
		metrics.RecordDBQuery("select", "relation_distance", time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("failed to query relation_distance by tokens: %w", err)
		}

		scanned, err := scanTokenWeights(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, scanned...)
	}
	return out, nil
}

// documentTokens loads one document's relation_distance rows.
func documentTokens(ctx context.Context, q queryer, fileName string) ([]models.TokenWeight, error) {
	start := time.Now()
	rows, err := q.QueryContext(ctx,
		`SELECT file_name, token, frequency, relational_distance
			FROM relation_distance WHERE file_name = ?`, fileName)
	metrics.RecordDBQuery("select", "relation_distance", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query relation_distance for %s: %w", fileName, err)
	}
	return scanTokenWeights(rows)
}

// scanTokenWeights drains and closes a relation_distance result set.
func scanTokenWeights(rows *sql.Rows) ([]models.TokenWeight, error) {
	defer closeQuietly(rows)

	var out []models.TokenWeight
	for rows.Next() {
		var w models.TokenWeight
		if err := rows.Scan(&w.FileName, &w.Token, &w.Frequency, &w.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan relation_distance row: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate relation_distance rows: %w", err)
	}
	return out, nil
}
