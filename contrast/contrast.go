// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package contrast summarizes the posterior distribution of the difference
// between two models' mean performance.
//
// A contrast is a pure function of two posterior sample sets and an
// optional practical-equivalence tolerance: draw i of model A minus draw i
// of model B forms the posterior-of-difference sample, and every summary
// statistic is read directly off those draws. No refitting is involved, so
// contrasts can be recomputed cheaply for different tolerances.
package contrast

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/modelgate/modelgate/posterior"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrMisaligned indicates the two sample sets differ in length and
	// cannot be paired draw by draw.
	ErrMisaligned = errors.New("posterior sample sets are not draw-aligned")

	// ErrInsufficientDraws indicates an empty sample set.
	ErrInsufficientDraws = errors.New("posterior sample set is empty")
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// Config configures a contrast computation.
type Config struct {
	// Level is the credible interval probability mass.
	// Default: 0.90
	Level float64

	// ROPE is the practical-equivalence tolerance ρ. When positive, the
	// summary includes P(|difference| <= ρ). A zero tolerance makes that
	// probability degenerate for continuous posteriors; callers wanting a
	// meaningful equivalence probability should pass ρ > 0.
	// Default: 0 (equivalence probability omitted)
	ROPE float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{Level: 0.90, ROPE: 0}
}

// Option configures the contrast.
type Option func(*Config)

// WithLevel sets the credible interval level.
func WithLevel(level float64) Option {
	return func(c *Config) {
		if level > 0 && level < 1 {
			c.Level = level
		}
	}
}

// WithROPE sets the practical-equivalence tolerance.
func WithROPE(rho float64) Option {
	return func(c *Config) {
		if rho >= 0 {
			c.ROPE = rho
		}
	}
}

// -----------------------------------------------------------------------------
// Summary
// -----------------------------------------------------------------------------

// CredibleInterval is a two-sided Bayesian interval over the posterior of
// the difference.
type CredibleInterval struct {
	// Lower is the lower bound.
	Lower float64

	// Upper is the upper bound.
	Upper float64

	// Level is the probability mass contained (e.g., 0.90).
	Level float64
}

// Contains returns true if the interval contains the value.
func (ci CredibleInterval) Contains(v float64) bool {
	return v >= ci.Lower && v <= ci.Upper
}

// Summary describes the posterior of (A - B).
type Summary struct {
	// Mean is the posterior mean difference.
	Mean float64

	// Interval is the two-sided credible interval.
	Interval CredibleInterval

	// ProbPositive is the fraction of difference draws above zero.
	ProbPositive float64

	// ProbEquivalent is the fraction of draws within [-ROPE, ROPE].
	// Zero when no tolerance was configured.
	ProbEquivalent float64

	// ROPE is the tolerance the equivalence probability was computed for.
	ROPE float64

	// N is the number of paired draws.
	N int
}

// -----------------------------------------------------------------------------
// Contrast Computation
// -----------------------------------------------------------------------------

// Compare summarizes the posterior of the difference between two models.
//
// Description:
//
//	Forms the elementwise difference of paired draws (draw i of a minus
//	draw i of b) and summarizes it: mean, two-sided credible interval,
//	P(difference > 0), and, when a tolerance is configured, the
//	practical-equivalence probability P(|difference| <= ρ).
//
// Inputs:
//   - a: Posterior draws for the first model.
//   - b: Posterior draws for the second model, draw-aligned with a.
//   - opts: Level and ROPE options.
//
// Outputs:
//   - *Summary: Deterministic for fixed draws.
//   - error: ErrMisaligned or ErrInsufficientDraws.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func Compare(a, b posterior.Samples, opts ...Option) (*Summary, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrInsufficientDraws
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: len(a)=%d len(b)=%d", ErrMisaligned, len(a), len(b))
	}

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	n := len(a)
	diffs := make([]float64, n)
	var positive, equivalent int
	for i := range a {
		d := a[i] - b[i]
		diffs[i] = d
		if d > 0 {
			positive++
		}
		if cfg.ROPE > 0 && math.Abs(d) <= cfg.ROPE {
			equivalent++
		}
	}

	mean := stat.Mean(diffs, nil)

	sorted := make([]float64, n)
	copy(sorted, diffs)
	sort.Float64s(sorted)
	tail := (1 - cfg.Level) / 2

	s := &Summary{
		Mean: mean,
		Interval: CredibleInterval{
			Lower: stat.Quantile(tail, stat.Empirical, sorted, nil),
			Upper: stat.Quantile(1-tail, stat.Empirical, sorted, nil),
			Level: cfg.Level,
		},
		ProbPositive: float64(positive) / float64(n),
		ROPE:         cfg.ROPE,
		N:            n,
	}
	if cfg.ROPE > 0 {
		s.ProbEquivalent = float64(equivalent) / float64(n)
	}
	return s, nil
}
