// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator returns the singleton validator instance.
// Thread-safe via sync.Once.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks that required configuration is present and valid.
// All failures are reported in one error so a misconfigured run can be
// fixed in a single pass.
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return c.validateOutputPaths()
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", fieldPath(fe), translateError(fe)))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// outputPathFields lists the files the pipeline writes. Checked in a
// fixed order so collision errors are deterministic.
var outputPathFields = []string{
	"paths.database",
	"paths.dump_csv",
	"paths.info_csv",
	"paths.prompt_output",
	"paths.route_output",
	"paths.global_terms",
}

// validateOutputPaths rejects configurations where two output files
// collide. Writers reset their targets, so a shared path would let one
// action destroy another's output.
func (c *Config) validateOutputPaths() error {
	values := map[string]string{
		"paths.database":      c.Paths.Database,
		"paths.dump_csv":      c.Paths.DumpCSV,
		"paths.info_csv":      c.Paths.InfoCSV,
		"paths.prompt_output": c.Paths.PromptOutput,
		"paths.route_output":  c.Paths.RouteOutput,
		"paths.global_terms":  c.Paths.GlobalTerms,
	}

	seen := make(map[string]string, len(values))
	for _, name := range outputPathFields {
		path := values[name]
		if prev, ok := seen[path]; ok {
			return fmt.Errorf("invalid configuration: %s and %s share the path %q", prev, name, path)
		}
		seen[path] = name
	}
	return nil
}

// fieldPath renders a field error location as a dotted path without
// the root struct name, e.g. "Paths.Database".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// translateError converts a validator tag failure into a readable
// message fragment.
func translateError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
