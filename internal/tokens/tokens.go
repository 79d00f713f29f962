// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package tokens parses per-document token frequency maps and derives the
// normalized weights every downstream stage consumes.
//
// A document arrives as a JSON object mapping token strings to positive
// integer counts. From that map the package computes the total count, the
// Euclidean norm of the raw frequency vector, and the filtered token set
// with each surviving token weighted by frequency/norm. Parsing never
// fails hard: malformed or empty input degrades to an empty map with a
// logged warning so a single bad file cannot stop a batch run.
package tokens

import (
	"fmt"
	"math"
	"os"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/lexicographus/internal/logging"
)

// Document is one file's raw token frequency map.
type Document map[string]int64

// WeightedToken is a filtered token with its unit-vector component.
type WeightedToken struct {
	Token     string  `json:"token"`
	Frequency int64   `json:"frequency"`
	Weight    float64 `json:"weight"`
}

// Parse decodes a token frequency map from raw JSON bytes. A nil result
// from a "null" document is normalized to an empty map so callers can
// range over it unconditionally.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("unmarshal token map: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// ParseFile reads and decodes one token JSON file. Unreadable or
// malformed files yield an empty map and a warning, with the error
// returned so callers can distinguish a skipped file from a document
// that is genuinely empty.
func ParseFile(path string) (Document, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator-configured input dir
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("token file unreadable, treating as empty")
		return Document{}, fmt.Errorf("read token file %s: %w", path, err)
	}

	doc, err := Parse(data)
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("token file malformed, treating as empty")
		return Document{}, fmt.Errorf("parse token file %s: %w", path, err)
	}
	return doc, nil
}

// Sum returns the arithmetic sum of all raw counts.
func (d Document) Sum() int64 {
	var total int64
	for _, v := range d {
		total += v
	}
	return total
}

// Norm returns the Euclidean norm of the raw frequency vector, computed
// over every entry before filtering.
func (d Document) Norm() float64 {
	var sumSquares float64
	for _, v := range d {
		f := float64(v)
		sumSquares += f * f
	}
	return math.Sqrt(sumSquares)
}

// Filter returns the tokens that survive the ingestion predicate: all
// characters in 'a'..'z', length at most maxLength, count at least
// minValue. Each surviving token carries weight frequency/norm where the
// norm is taken over the unfiltered map; a zero norm yields zero weights.
// Tokens are returned in lexicographic order so repeated runs over the
// same input produce identical output.
func (d Document) Filter(maxLength, minValue int) []WeightedToken {
	keys := make([]string, 0, len(d))
	for token, count := range d {
		if !isLowerAlpha(token) {
			continue
		}
		if len(token) > maxLength {
			continue
		}
		if count < int64(minValue) {
			continue
		}
		keys = append(keys, token)
	}
	sort.Strings(keys)

	norm := d.Norm()
	out := make([]WeightedToken, 0, len(keys))
	for _, token := range keys {
		weight := 0.0
		if norm != 0 {
			weight = float64(d[token]) / norm
		}
		out = append(out, WeightedToken{Token: token, Frequency: d[token], Weight: weight})
	}
	return out
}

// isLowerAlpha reports whether s is a non-empty run of ASCII lowercase
// letters.
func isLowerAlpha(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}
