// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package query provides SQL fragment construction for the database
// package: parameter placeholders for IN clauses and multi-row VALUES
// batches. Centralizing these keeps statement text and argument counts
// in lockstep.
package query

import (
	"strings"
)

// Placeholders returns "?, ?, ..., ?" with n placeholders.
// Returns the empty string for n <= 0.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(3 * n)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('?')
	}
	return b.String()
}

// In returns "<column> IN (?, ?, ...)" with n placeholders.
// Returns "1=0" for n <= 0 so an empty set matches no rows.
func In(column string, n int) string {
	if n <= 0 {
		return "1=0"
	}
	return column + " IN (" + Placeholders(n) + ")"
}

// ValuesRows returns "(?, ...), (?, ...), ..." for a multi-row VALUES
// clause of rows×cols placeholders. Returns the empty string when
// either dimension is not positive.
func ValuesRows(rows, cols int) string {
	if rows <= 0 || cols <= 0 {
		return ""
	}
	row := "(" + Placeholders(cols) + ")"
	var b strings.Builder
	b.Grow((len(row) + 2) * rows)
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(row)
	}
	return b.String()
}

// StringArgs converts a string slice to the []interface{} form the
// database/sql variadic API expects.
func StringArgs(values []string) []interface{} {
	args := make([]interface{}, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
