// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package posterior

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/modelgate/modelgate/resample"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrInsufficientFolds indicates fewer than 2 folds in the table.
	ErrInsufficientFolds = errors.New("at least 2 folds are required")

	// ErrInsufficientModels indicates fewer than 2 model columns.
	ErrInsufficientModels = errors.New("at least 2 models are required")

	// ErrDegenerateInput indicates a zero-variance metric column.
	ErrDegenerateInput = errors.New("degenerate model input: metric column has zero variance")
)

// -----------------------------------------------------------------------------
// Engine Interface
// -----------------------------------------------------------------------------

// Engine estimates posterior distributions of per-model mean performance
// from a wide metric table.
//
// The interface is the sampler boundary: GibbsEngine is the built-in
// implementation, and alternative samplers can be substituted without
// changing any downstream contrast or gating logic.
type Engine interface {
	// Fit runs the estimator on the table.
	Fit(ctx context.Context, table *resample.Table) (*Fit, error)
}

// -----------------------------------------------------------------------------
// Posterior Samples
// -----------------------------------------------------------------------------

// Samples is the pooled posterior draw set for one model's mean metric.
type Samples []float64

// Mean returns the posterior mean.
func (s Samples) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	return stat.Mean(s, nil)
}

// Interval returns the two-sided credible interval bounds containing the
// given probability mass (e.g. 0.90).
func (s Samples) Interval(level float64) (lower, upper float64) {
	if len(s) == 0 {
		return 0, 0
	}
	sorted := make([]float64, len(s))
	copy(sorted, s)
	sort.Float64s(sorted)
	tail := (1 - level) / 2
	return stat.Quantile(tail, stat.Empirical, sorted, nil),
		stat.Quantile(1-tail, stat.Empirical, sorted, nil)
}

// Fit holds the pooled output of one estimator run.
//
// Thread Safety: Immutable after Fit returns; safe for concurrent reads.
type Fit struct {
	// Models are the table's model names in column order. The first entry
	// is the reference model.
	Models []string

	// Samples maps model name to its pooled posterior draws. Every set
	// has the same length: chains × post-warmup iterations.
	Samples map[string]Samples

	// Diagnostics carries convergence information. Always populated;
	// inspect before trusting Samples.
	Diagnostics Diagnostics
}

// ModelSamples returns the draws for one model.
//
// Outputs:
//   - Samples: The pooled draws.
//   - error: resample.ErrUnknownModel if the name is not in the fit.
func (f *Fit) ModelSamples(model string) (Samples, error) {
	s, ok := f.Samples[model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", resample.ErrUnknownModel, model)
	}
	return s, nil
}

// validateTable checks the estimator's input invariants.
func validateTable(table *resample.Table) error {
	if table.NumFolds() < 2 {
		return fmt.Errorf("%w: got %d", ErrInsufficientFolds, table.NumFolds())
	}
	if table.NumModels() < 2 {
		return fmt.Errorf("%w: got %d", ErrInsufficientModels, table.NumModels())
	}
	for _, m := range table.Models() {
		col, err := table.Column(m)
		if err != nil {
			return err
		}
		if stat.Variance(col, nil) == 0 {
			return fmt.Errorf("%w: model %q", ErrDegenerateInput, m)
		}
	}
	return nil
}
