// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package posterior

import (
	"fmt"
	"log/slog"
)

// -----------------------------------------------------------------------------
// Prior Specification
// -----------------------------------------------------------------------------

// PriorSpec specifies the priors for the hierarchical model.
//
// Thread Safety: Safe to read concurrently. Not safe to modify after use.
type PriorSpec struct {
	// InterceptDF is the degrees of freedom of the Student-t prior on the
	// per-fold random intercepts. 1 gives the heavy-tailed Cauchy default.
	InterceptDF float64 `json:"intercept_df" yaml:"intercept_df"`

	// CoefScale is the standard deviation of the zero-centered normal
	// prior on β0 and the model-effect coefficients.
	CoefScale float64 `json:"coef_scale" yaml:"coef_scale"`

	// SigmaShape and SigmaRate parameterize the inverse-gamma hyperprior
	// on the residual variance σ².
	SigmaShape float64 `json:"sigma_shape" yaml:"sigma_shape"`
	SigmaRate  float64 `json:"sigma_rate" yaml:"sigma_rate"`

	// TauShape and TauRate parameterize the inverse-gamma hyperprior on
	// the random-intercept scale τ².
	TauShape float64 `json:"tau_shape" yaml:"tau_shape"`
	TauRate  float64 `json:"tau_rate" yaml:"tau_rate"`
}

// DefaultPriors returns the default prior specification: a 1-df Student-t
// on the fold intercepts, a wide zero-centered normal on coefficients, and
// weakly-informative inverse-gamma hyperpriors on the variances.
//
// Outputs:
//   - PriorSpec: Default priors.
func DefaultPriors() PriorSpec {
	return PriorSpec{
		InterceptDF: 1,
		CoefScale:   10,
		SigmaShape:  0.001,
		SigmaRate:   0.001,
		TauShape:    1,
		TauRate:     1,
	}
}

// Validate checks the prior specification.
func (p PriorSpec) Validate() error {
	if p.InterceptDF <= 0 {
		return fmt.Errorf("intercept df must be positive, got %v", p.InterceptDF)
	}
	if p.CoefScale <= 0 {
		return fmt.Errorf("coefficient scale must be positive, got %v", p.CoefScale)
	}
	if p.SigmaShape <= 0 || p.SigmaRate <= 0 {
		return fmt.Errorf("sigma hyperprior must be positive, got shape=%v rate=%v",
			p.SigmaShape, p.SigmaRate)
	}
	if p.TauShape <= 0 || p.TauRate <= 0 {
		return fmt.Errorf("tau hyperprior must be positive, got shape=%v rate=%v",
			p.TauShape, p.TauRate)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Fit Configuration
// -----------------------------------------------------------------------------

// FitConfig configures a hierarchical model fit.
type FitConfig struct {
	// Chains is the number of independent MCMC chains.
	// Default: 4
	Chains int

	// Iterations is the per-chain iteration count, including warm-up.
	// Default: 2000
	Iterations int

	// WarmupFraction of each chain is discarded before pooling.
	// Default: 0.5
	WarmupFraction float64

	// Seed drives every chain's RNG. Identical seeds reproduce identical
	// pooled draws.
	// Default: 1
	Seed uint64

	// Priors is the prior specification.
	// Default: DefaultPriors()
	Priors PriorSpec

	// Logger for fit progress.
	Logger *slog.Logger
}

// DefaultFitConfig returns sensible defaults.
//
// Outputs:
//   - *FitConfig: Default configuration. Never nil.
func DefaultFitConfig() *FitConfig {
	return &FitConfig{
		Chains:         4,
		Iterations:     2000,
		WarmupFraction: 0.5,
		Seed:           1,
		Priors:         DefaultPriors(),
		Logger:         slog.Default(),
	}
}

// Validate checks the configuration.
func (c *FitConfig) Validate() error {
	if c.Chains < 1 {
		return fmt.Errorf("chain count must be at least 1, got %d", c.Chains)
	}
	if c.Iterations < 2 {
		return fmt.Errorf("iteration count must be at least 2, got %d", c.Iterations)
	}
	if c.WarmupFraction < 0 || c.WarmupFraction >= 1 {
		return fmt.Errorf("warmup fraction must be in [0, 1), got %v", c.WarmupFraction)
	}
	if kept := c.Iterations - int(float64(c.Iterations)*c.WarmupFraction); kept < 2 {
		return fmt.Errorf("warmup fraction %v leaves %d post-warmup draws", c.WarmupFraction, kept)
	}
	return c.Priors.Validate()
}

// -----------------------------------------------------------------------------
// Options
// -----------------------------------------------------------------------------

// Option configures the fit.
type Option func(*FitConfig)

// WithChains sets the number of MCMC chains.
func WithChains(n int) Option {
	return func(c *FitConfig) {
		if n > 0 {
			c.Chains = n
		}
	}
}

// WithIterations sets the per-chain iteration count.
func WithIterations(n int) Option {
	return func(c *FitConfig) {
		if n > 0 {
			c.Iterations = n
		}
	}
}

// WithWarmupFraction sets the discarded warm-up fraction of each chain.
func WithWarmupFraction(f float64) Option {
	return func(c *FitConfig) {
		if f >= 0 && f < 1 {
			c.WarmupFraction = f
		}
	}
}

// WithSeed sets the RNG seed.
func WithSeed(seed uint64) Option {
	return func(c *FitConfig) {
		c.Seed = seed
	}
}

// WithPriors sets the prior specification.
func WithPriors(p PriorSpec) Option {
	return func(c *FitConfig) {
		c.Priors = p
	}
}

// WithFitLogger sets the logger used during fitting.
func WithFitLogger(l *slog.Logger) Option {
	return func(c *FitConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}
