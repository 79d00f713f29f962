// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package fingerprint

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tomtom215/lexicographus/internal/logging"
	"github.com/tomtom215/lexicographus/internal/models"
	"github.com/tomtom215/lexicographus/internal/tokens"
)

// dumpHeader is the first line of the summary dump CSV.
const dumpHeader = "Path, Sum, Unique Tokens, Relational Distance"

// dumpFile appends one human-readable summary row per document. It is
// diagnostic output: a write failure disables further rows but never
// fails the run. All methods are nil-receiver safe so callers can invoke
// them unconditionally.
type dumpFile struct {
	f      *os.File
	w      *bufio.Writer
	failed bool
}

// newDumpFile truncates the dump at path and writes the header row.
func newDumpFile(path string) (*dumpFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create dump dir: %w", err)
	}

	f, err := os.Create(path) //nolint:gosec // operator-configured dump path
	if err != nil {
		return nil, fmt.Errorf("create dump file: %w", err)
	}

	w := bufio.NewWriter(f)
	if _, err := fmt.Fprintln(w, dumpHeader); err != nil {
		closeQuietly(f)
		return nil, fmt.Errorf("write dump header: %w", err)
	}
	return &dumpFile{f: f, w: w}, nil
}

// WriteRow appends one summary row. The path column carries the source
// path as given; the remaining columns mirror the file_token row.
func (d *dumpFile) WriteRow(path string, s models.FingerprintSummary) {
	if d == nil || d.failed {
		return
	}
	_, err := fmt.Fprintf(d.w, "%s, %d, %d, %.6f\n", path, s.TotalTokens, s.UniqueTokens, s.Norm)
	if err != nil {
		logging.Warn().Err(err).Msg("summary dump write failed, disabling dump")
		d.failed = true
	}
}

// Close flushes and closes the dump file.
func (d *dumpFile) Close() {
	if d == nil {
		return
	}
	if err := d.w.Flush(); err != nil {
		logging.Warn().Err(err).Msg("summary dump flush failed")
	}
	if err := d.f.Close(); err != nil {
		logging.Warn().Err(err).Msg("summary dump close failed")
	}
}

// writeFilteredCSV writes one document's filtered tokens as token, count
// lines under dir. An empty dir disables the dump. Failures are logged
// and swallowed.
func writeFilteredCSV(dir, stem string, filtered []tokens.WeightedToken) {
	if dir == "" {
		return
	}

	path := filepath.Join(dir, stem+".csv")
	f, err := os.Create(path) //nolint:gosec // operator-configured dump dir
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("filtered dump not created")
		return
	}

	w := bufio.NewWriter(f)
	for _, t := range filtered {
		if _, err := fmt.Fprintf(w, "%s, %d\n", t.Token, t.Frequency); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("filtered dump write failed")
			break
		}
	}
	if err := w.Flush(); err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("filtered dump flush failed")
	}
	closeQuietly(f)
}

// closeQuietly closes a file where a close failure has nothing useful to
// report.
func closeQuietly(f *os.File) {
	_ = f.Close()
}
