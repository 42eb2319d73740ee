// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package report renders comparison results as terminal tables.
//
// Output is display-only: the statistical packages return structured
// results, and this package formats them for humans. Styling degrades to
// plain bordered tables when stdout is not a terminal.
package report

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	"github.com/modelgate/modelgate/contrast"
	"github.com/modelgate/modelgate/gate"
	"github.com/modelgate/modelgate/paired"
	"github.com/modelgate/modelgate/posterior"
)

// -----------------------------------------------------------------------------
// Rows
// -----------------------------------------------------------------------------

// PairedRow is one paired-test result for display.
type PairedRow struct {
	// Comparison names the pair, e.g. "cubist - linear".
	Comparison string

	// Result is the paired-difference test output.
	Result *paired.Result
}

// PosteriorRow is one model's posterior summary for display.
type PosteriorRow struct {
	// Model is the model name.
	Model string

	// Mean is the posterior mean of the model's performance.
	Mean float64

	// Interval is the credible interval of the posterior mean.
	Interval contrast.CredibleInterval

	// Diagnostics for this model's draws.
	Diagnostics posterior.ParamDiagnostics
}

// ContrastRow is one posterior contrast for display.
type ContrastRow struct {
	// Comparison names the pair.
	Comparison string

	// Summary is the posterior-of-difference summary.
	Summary *contrast.Summary
}

// -----------------------------------------------------------------------------
// Tables
// -----------------------------------------------------------------------------

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// styled reports whether stdout supports styling.
func styled() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// newTable builds a bordered table with the shared style rules.
func newTable(headers ...string) *table.Table {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
	if styled() {
		t = t.StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	} else {
		t = t.StyleFunc(func(_, _ int) lipgloss.Style {
			return cellStyle
		})
	}
	return t
}

// PairedTable renders paired-difference test results.
//
// Inputs:
//   - rows: One row per model pair.
//
// Outputs:
//   - string: The rendered table. Empty input yields an empty string.
func PairedTable(rows []PairedRow) string {
	if len(rows) == 0 {
		return ""
	}
	t := newTable("comparison", "estimate", "std error", "interval", "p-value")
	for _, r := range rows {
		t.Row(
			r.Comparison,
			fmt.Sprintf("%.4f", r.Result.Estimate),
			fmt.Sprintf("%.4f", r.Result.StdErr),
			fmt.Sprintf("[%.4f, %.4f] @ %.0f%%",
				r.Result.Interval.Lower, r.Result.Interval.Upper, r.Result.Interval.Level*100),
			fmt.Sprintf("%.4g", r.Result.PValue),
		)
	}
	return t.String()
}

// PosteriorTable renders per-model posterior summaries.
func PosteriorTable(rows []PosteriorRow) string {
	if len(rows) == 0 {
		return ""
	}
	t := newTable("model", "posterior mean", "credible interval", "r-hat", "ess")
	for _, r := range rows {
		t.Row(
			r.Model,
			fmt.Sprintf("%.4f", r.Mean),
			fmt.Sprintf("[%.4f, %.4f] @ %.0f%%",
				r.Interval.Lower, r.Interval.Upper, r.Interval.Level*100),
			fmt.Sprintf("%.3f", r.Diagnostics.Rhat),
			fmt.Sprintf("%.0f", r.Diagnostics.ESS),
		)
	}
	return t.String()
}

// ContrastTable renders posterior contrasts.
func ContrastTable(rows []ContrastRow) string {
	if len(rows) == 0 {
		return ""
	}
	withROPE := false
	for _, r := range rows {
		if r.Summary.ROPE > 0 {
			withROPE = true
			break
		}
	}

	headers := []string{"comparison", "mean diff", "credible interval", "P(diff > 0)"}
	if withROPE {
		headers = append(headers, "P(equivalent)")
	}
	t := newTable(headers...)
	for _, r := range rows {
		cells := []string{
			r.Comparison,
			fmt.Sprintf("%.4f", r.Summary.Mean),
			fmt.Sprintf("[%.4f, %.4f] @ %.0f%%",
				r.Summary.Interval.Lower, r.Summary.Interval.Upper, r.Summary.Interval.Level*100),
			fmt.Sprintf("%.3f", r.Summary.ProbPositive),
		}
		if withROPE {
			if r.Summary.ROPE > 0 {
				cells = append(cells, fmt.Sprintf("%.3f", r.Summary.ProbEquivalent))
			} else {
				cells = append(cells, "-")
			}
		}
		t.Row(cells...)
	}
	return t.String()
}

// DecisionLine renders a gate decision as a single line.
func DecisionLine(d *gate.Decision) string {
	line := fmt.Sprintf("recommendation: %s (%s)", d.Recommendation, d.Reason)
	if styled() {
		return lipgloss.NewStyle().Bold(true).Render(line)
	}
	return line
}
