// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tomtom215/lexicographus/internal/config"
	"github.com/tomtom215/lexicographus/internal/logging"
	"github.com/tomtom215/lexicographus/internal/pipeline"
	"github.com/tomtom215/lexicographus/internal/tui"
)

// Canonical action names. Flags match these case-insensitively.
const (
	actionHelp                      = "displayHelp"
	actionExtractText               = "extractText"
	actionGenerateTokenFrequencies  = "generateTokenFrequencies"
	actionComputeRelationalDistance = "computeRelationalDistance"
	actionUpdateDatabaseInformation = "updateDatabaseInformation"
	actionComputeTFIDF              = "computeTFIDF"
	actionMapItemMatrix             = "mapItemMatrix"
	actionProcessPrompt             = "processPrompt"
	actionCreateRoutes              = "createRoutes"
	actionInteractive               = "interactive"
)

// actionOrder is the canonical execution order. Selected actions run in
// this order regardless of how the flags were passed.
var actionOrder = []string{
	actionHelp,
	actionExtractText,
	actionGenerateTokenFrequencies,
	actionComputeRelationalDistance,
	actionUpdateDatabaseInformation,
	actionComputeTFIDF,
	actionMapItemMatrix,
	actionProcessPrompt,
	actionCreateRoutes,
	actionInteractive,
}

var actionUsage = map[string]string{
	actionHelp:                      "print this help text",
	actionExtractText:               "chunk PDFs from the resource directory into the store",
	actionGenerateTokenFrequencies:  "stem stored chunks into per-title token maps",
	actionComputeRelationalDistance: "ingest token maps as document fingerprints",
	actionUpdateDatabaseInformation: "refresh the document catalog from the resource directory",
	actionComputeTFIDF:              "weight terms across the corpus",
	actionMapItemMatrix:             "build the pairwise similarity matrix",
	actionProcessPrompt:             "score the query buffer against the corpus",
	actionCreateRoutes:              "walk reading routes over the similarity matrix",
	actionInteractive:               "open the action menu",
}

// The interactive menu drives the same runner the CLI does.
var _ tui.Actions = (*pipeline.Runner)(nil)

// parseActions normalizes args into known action names, deduplicated
// and in canonical order, plus the unknown leftovers verbatim.
func parseActions(args []string) (selected, unknown []string) {
	known := make(map[string]string, len(actionOrder))
	for _, name := range actionOrder {
		known[strings.ToLower(name)] = name
	}

	want := make(map[string]bool, len(args))
	for _, arg := range args {
		name, ok := known[strings.ToLower(strings.TrimLeft(arg, "-"))]
		if !ok {
			unknown = append(unknown, arg)
			continue
		}
		want[name] = true
	}

	for _, name := range actionOrder {
		if want[name] {
			selected = append(selected, name)
		}
	}
	return selected, unknown
}

func printHelp(w io.Writer) {
	fmt.Fprintf(w, "Lexicographus %s - document relatedness analysis and content routing\n\n", version)
	fmt.Fprintln(w, "Usage: lexicographus [action flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags are case-insensitive and run in pipeline order regardless of")
	fmt.Fprintln(w, "the order they were passed in.")
	fmt.Fprintln(w)
	for _, name := range actionOrder {
		fmt.Fprintf(w, "  --%-27s %s\n", name, actionUsage[name])
	}
}

func executeAction(ctx context.Context, name string, runner *pipeline.Runner, cfg *config.Config, stdin io.Reader, stdout io.Writer) error {
	switch name {
	case actionHelp:
		printHelp(stdout)
		return nil
	case actionExtractText:
		return runner.ExtractText(ctx)
	case actionGenerateTokenFrequencies:
		return runner.GenerateTokenFrequencies(ctx)
	case actionComputeRelationalDistance:
		return runner.ComputeRelationalDistance(ctx)
	case actionUpdateDatabaseInformation:
		return runner.UpdateDatabaseInformation(ctx)
	case actionComputeTFIDF:
		return runner.ComputeTFIDF(ctx)
	case actionMapItemMatrix:
		return runner.MapItemMatrix(ctx)
	case actionProcessPrompt:
		// 0 selects the configured top N
		return runner.ProcessPrompt(ctx, 0)
	case actionCreateRoutes:
		start, err := readStartTitle(stdin, stdout)
		if err != nil {
			return err
		}
		return runner.CreateRoutes(ctx, start)
	case actionInteractive:
		return runInteractive(cfg, runner)
	default:
		return fmt.Errorf("unhandled action %q", name)
	}
}

// readStartTitle asks for an optional route start document. A blank
// line or closed stdin walks every candidate.
func readStartTitle(stdin io.Reader, stdout io.Writer) (string, error) {
	fmt.Fprint(stdout, "Start document file name (blank walks every candidate): ")
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read start title: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// runInteractive opens the action menu. Logging is rerouted into the
// menu's viewport while it owns the terminal and restored afterwards.
func runInteractive(cfg *config.Config, runner *pipeline.Runner) error {
	m := tui.New(runner)

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    "console",
		Timestamp: cfg.Logging.Timestamp,
		Output:    m.LogWriter(),
	})
	defer logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: cfg.Logging.Timestamp,
	})

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("interactive menu: %w", err)
	}
	return nil
}
