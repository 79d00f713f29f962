// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package models

import "strings"

// TitleKeyPrefix prepends catalog ids wherever a document is addressed
// by its analysis identity: token JSON stems, similarity matrix ids,
// and prompt result names all use "title_<id>".
const TitleKeyPrefix = "title_"

// TitleKey renders a catalog id as an analysis identity.
func TitleKey(id string) string {
	return TitleKeyPrefix + id
}

// TitleKeyID extracts the catalog id from an analysis identity.
// Returns the input unchanged when the prefix is absent.
func TitleKeyID(key string) string {
	return strings.TrimPrefix(key, TitleKeyPrefix)
}

// FingerprintSummary is one document's row in file_token: the token
// total, distinct token count, and Euclidean norm of the retained
// frequency vector.
type FingerprintSummary struct {
	FileName     string  `json:"file_name"`
	TotalTokens  int64   `json:"total_tokens"`
	UniqueTokens int64   `json:"unique_tokens"`
	Norm         float64 `json:"relational_distance"`
}

// TokenWeight is one (document, token) row in relation_distance.
type TokenWeight struct {
	FileName  string  `json:"file_name"`
	Token     string  `json:"token"`
	Frequency int64   `json:"frequency"`
	Weight    float64 `json:"relational_distance"` // frequency / document norm
}

// FileInfo is one catalog row in file_info.
type FileInfo struct {
	ID         string `json:"id"`        // hex MD5 of path|mtime|chunk_count
	FileName   string `json:"file_name"` // document stem, unique
	FilePath   string `json:"file_path"`
	EpochTime  int64  `json:"epoch_time"` // mtime, seconds since Unix epoch
	ChunkCount int64  `json:"chunk_count"`
}

// TermWeight is one corpus term row in tf_idf.
type TermWeight struct {
	Word     string  `json:"word"`
	Freq     int64   `json:"freq"`      // corpus-wide frequency
	DocCount int64   `json:"doc_count"` // documents containing the term
	TFIDF    float64 `json:"tf_idf"`
}

// MatrixEdge is one directed similarity edge in item_matrix_triangle.
// Ids carry the title key prefix; names are the readable document
// stems from the catalog.
type MatrixEdge struct {
	TargetID   string  `json:"target_id"`
	TargetName string  `json:"target_name"`
	SourceID   string  `json:"source_id"`
	SourceName string  `json:"source_name"`
	Distance   float64 `json:"distance"`
}

// PromptResult is one scored document emitted by prompt processing.
type PromptResult struct {
	ID       string  `json:"id"`       // catalog id
	Name     string  `json:"name"`     // readable file_name from the catalog
	Distance float64 `json:"distance"` // accumulated score
	Rank     int     `json:"rank"`     // 1-based position after sorting
}

// RouteStep is one hop of a generated route.
type RouteStep struct {
	Title    string  `json:"title"` // readable document stem
	Distance float64 `json:"distance"`
}

// Route is a full greedy walk from a starting document.
type Route struct {
	Start       string      `json:"start"` // readable document stem
	Steps       []RouteStep `json:"steps"`
	Termination string      `json:"termination"` // exhausted, diverged, or loop

	// Diverged holds the equally weighted targets that ended the walk
	// when Termination is diverged. They all share the max distance.
	Diverged []RouteStep `json:"diverged,omitempty"`
}
