// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package posterior fits a Bayesian hierarchical model over a wide metric
// table and produces posterior samples of each model's mean performance.
//
// # Model
//
// For fold i and model j the observed metric is
//
//	y_ij = β0 + b_i + Σ β_m x_im + ε_ij,    ε_ij ~ Normal(0, σ)
//
// where x_im are 0/1 indicators selecting model m relative to the reference
// model (the table's first column), and b_i is a per-fold random intercept.
// The random intercept absorbs the resample-to-resample effect: folds differ
// in intrinsic difficulty, and b_i models that shared shift directly instead
// of letting it inflate the residual.
//
// The fold intercepts carry a heavy-tailed Student-t prior (default 1
// degree of freedom), expressed internally as a scale mixture of normals so
// every full conditional stays conjugate. Fixed-effect coefficients get
// wide zero-centered normal priors; the residual and intercept scales get
// inverse-gamma hyperpriors.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────────────┐
//	│                      POSTERIOR ESTIMATOR                           │
//	├────────────────────────────────────────────────────────────────────┤
//	│                                                                    │
//	│   Table ──► Engine.Fit ──► chain 0 ─┐                              │
//	│                            chain 1 ─┼─► pool (chain order) ──►     │
//	│                            chain C ─┘          │                   │
//	│                                                ▼                   │
//	│                       Samples per model  +  Diagnostics (R̂, ESS)  │
//	│                                                                    │
//	└────────────────────────────────────────────────────────────────────┘
//
// Chains run concurrently but each owns an RNG derived deterministically
// from the configured seed and its chain index, and pooled output is
// ordered by chain index. The same (seed, chains, iterations, table)
// therefore yields bit-for-bit identical draws regardless of scheduling.
//
// # Diagnostics
//
// Non-convergence is reported, never raised: Fit always returns
// Diagnostics with split-R̂ and effective sample size per model, and the
// caller decides whether to trust the draws.
//
// # Usage
//
//	engine := posterior.NewGibbsEngine(
//	    posterior.WithChains(4),
//	    posterior.WithIterations(2000),
//	    posterior.WithSeed(42),
//	)
//	fit, err := engine.Fit(ctx, table)
//	if !fit.Diagnostics.Converged(posterior.DefaultMaxRhat) {
//	    // inspect fit.Diagnostics before trusting fit.Samples
//	}
package posterior
