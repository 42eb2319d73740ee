// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package posterior

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/modelgate/modelgate/resample"
)

// chainSeedStride separates per-chain seeds in the seed space.
const chainSeedStride = 0x9E3779B97F4A7C15

// varianceFloor keeps conditional precisions finite when a variance draw
// collapses toward zero.
const varianceFloor = 1e-12

// -----------------------------------------------------------------------------
// Gibbs Engine
// -----------------------------------------------------------------------------

// GibbsEngine is the built-in Engine implementation.
//
// Description:
//
//	GibbsEngine samples the hierarchical random-intercept model with a
//	Gibbs sampler. The Student-t prior on fold intercepts is expressed as
//	a scale mixture of normals (b_i | λ_i ~ Normal(0, τ²/λ_i) with
//	λ_i ~ Gamma(ν/2, ν/2)), which keeps every full conditional in closed
//	form: normals for the coefficients and intercepts, gammas for the
//	mixture weights, inverse-gammas for σ² and τ².
//
// Thread Safety: Safe for concurrent use; each Fit call is independent.
type GibbsEngine struct {
	cfg *FitConfig
}

// NewGibbsEngine creates a Gibbs sampling engine.
//
// Inputs:
//   - opts: Configuration options applied over DefaultFitConfig().
//
// Outputs:
//   - *GibbsEngine: The new engine. Never nil.
func NewGibbsEngine(opts ...Option) *GibbsEngine {
	cfg := DefaultFitConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &GibbsEngine{cfg: cfg}
}

// Fit runs the sampler on the metric table.
//
// Description:
//
//	Runs the configured number of independent chains concurrently, each
//	seeded from the configured seed and its chain index. After discarding
//	the warm-up fraction of every chain, the remaining draws are pooled in
//	chain-index order, so output is reproducible for a fixed
//	(seed, chains, iterations) regardless of chain scheduling.
//
// Inputs:
//   - ctx: Cancellation is honored between sampler sweeps.
//   - table: Wide metric table with at least 2 folds and 2 models.
//
// Outputs:
//   - *Fit: Pooled per-model posterior samples plus diagnostics.
//   - error: Input validation failure or context cancellation.
//
// Thread Safety: Safe for concurrent use.
func (e *GibbsEngine) Fit(ctx context.Context, table *resample.Table) (*Fit, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("fit config: %w", err)
	}
	if err := validateTable(table); err != nil {
		return nil, err
	}

	y := table.Rows()
	models := table.Models()
	warmup := int(float64(e.cfg.Iterations) * e.cfg.WarmupFraction)

	e.cfg.Logger.Debug("fitting hierarchical model",
		"folds", table.NumFolds(), "models", table.NumModels(),
		"chains", e.cfg.Chains, "iterations", e.cfg.Iterations,
		"warmup", warmup, "seed", e.cfg.Seed)

	// chainDraws[c][j] holds chain c's post-warmup draws for model j.
	chainDraws := make([][][]float64, e.cfg.Chains)

	g, gctx := errgroup.WithContext(ctx)
	for c := 0; c < e.cfg.Chains; c++ {
		c := c
		g.Go(func() error {
			seed := e.cfg.Seed + uint64(c)*chainSeedStride
			draws, err := runChain(gctx, y, e.cfg.Priors, e.cfg.Iterations, warmup, seed)
			if err != nil {
				return fmt.Errorf("chain %d: %w", c, err)
			}
			chainDraws[c] = draws
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Pool in chain-index order. This is the determinism barrier: chain
	// scheduling never affects pooled order.
	kept := e.cfg.Iterations - warmup
	samples := make(map[string]Samples, len(models))
	for j, m := range models {
		pooled := make(Samples, 0, e.cfg.Chains*kept)
		for c := 0; c < e.cfg.Chains; c++ {
			pooled = append(pooled, chainDraws[c][j]...)
		}
		samples[m] = pooled
	}

	diags := computeDiagnostics(models, chainDraws)
	if !diags.Converged(DefaultMaxRhat) {
		e.cfg.Logger.Warn("sampler diagnostics exceed default threshold",
			"max_rhat", diags.MaxRhat(), "threshold", DefaultMaxRhat)
	}

	return &Fit{Models: models, Samples: samples, Diagnostics: diags}, nil
}

// -----------------------------------------------------------------------------
// Chain Sweep
// -----------------------------------------------------------------------------

// chainState holds one chain's parameter vector and RNG.
type chainState struct {
	src rand.Source

	beta0  float64   // reference-model mean
	beta   []float64 // model effects relative to the reference, len k-1
	b      []float64 // per-fold random intercepts, len n
	lambda []float64 // t-prior mixture weights, len n
	tau2   float64   // random-intercept variance
	sigma2 float64   // residual variance
}

func (s *chainState) drawNormal(mu, sigma float64) float64 {
	return distuv.Normal{Mu: mu, Sigma: sigma, Src: s.src}.Rand()
}

func (s *chainState) drawGamma(shape, rate float64) float64 {
	return distuv.Gamma{Alpha: shape, Beta: rate, Src: s.src}.Rand()
}

// drawInvGamma draws from InverseGamma(shape, rate) as 1/Gamma(shape, rate).
func (s *chainState) drawInvGamma(shape, rate float64) float64 {
	g := s.drawGamma(shape, rate)
	if g < varianceFloor {
		g = varianceFloor
	}
	return 1 / g
}

// runChain runs one chain and returns its post-warmup draws per model.
func runChain(ctx context.Context, y [][]float64, pr PriorSpec, iters, warmup int, seed uint64) ([][]float64, error) {
	n := len(y)
	k := len(y[0])
	total := float64(n * k)

	st := initChain(y, seed)

	kept := iters - warmup
	draws := make([][]float64, k)
	for j := range draws {
		draws[j] = make([]float64, 0, kept)
	}

	coefPrec := 1 / (pr.CoefScale * pr.CoefScale)

	for iter := 0; iter < iters; iter++ {
		if iter%128 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		// β0 | rest
		var sum float64
		for i := 0; i < n; i++ {
			for j := 0; j < k; j++ {
				sum += y[i][j] - st.modelEffect(j) - st.b[i]
			}
		}
		prec := total/st.sigma2 + coefPrec
		st.beta0 = st.drawNormal(sum/st.sigma2/prec, math.Sqrt(1/prec))

		// β_m | rest, one per non-reference model
		for m := 0; m < k-1; m++ {
			j := m + 1
			var rsum float64
			for i := 0; i < n; i++ {
				rsum += y[i][j] - st.beta0 - st.b[i]
			}
			prec := float64(n)/st.sigma2 + coefPrec
			st.beta[m] = st.drawNormal(rsum/st.sigma2/prec, math.Sqrt(1/prec))
		}

		// b_i | rest
		for i := 0; i < n; i++ {
			var rsum float64
			for j := 0; j < k; j++ {
				rsum += y[i][j] - st.beta0 - st.modelEffect(j)
			}
			prec := float64(k)/st.sigma2 + st.lambda[i]/st.tau2
			st.b[i] = st.drawNormal(rsum/st.sigma2/prec, math.Sqrt(1/prec))
		}

		// λ_i | rest: the scale-mixture weights behind the t prior
		for i := 0; i < n; i++ {
			shape := (pr.InterceptDF + 1) / 2
			rate := (pr.InterceptDF + st.b[i]*st.b[i]/st.tau2) / 2
			st.lambda[i] = st.drawGamma(shape, rate)
		}

		// τ² | rest
		var wsum float64
		for i := 0; i < n; i++ {
			wsum += st.lambda[i] * st.b[i] * st.b[i]
		}
		st.tau2 = st.drawInvGamma(pr.TauShape+float64(n)/2, pr.TauRate+wsum/2)
		if st.tau2 < varianceFloor {
			st.tau2 = varianceFloor
		}

		// σ² | rest
		var sse float64
		for i := 0; i < n; i++ {
			for j := 0; j < k; j++ {
				r := y[i][j] - st.beta0 - st.modelEffect(j) - st.b[i]
				sse += r * r
			}
		}
		st.sigma2 = st.drawInvGamma(pr.SigmaShape+total/2, pr.SigmaRate+sse/2)
		if st.sigma2 < varianceFloor {
			st.sigma2 = varianceFloor
		}

		if iter >= warmup {
			for j := 0; j < k; j++ {
				draws[j] = append(draws[j], st.beta0+st.modelEffect(j))
			}
		}
	}

	return draws, nil
}

// modelEffect returns the fixed effect for model column j; zero for the
// reference column.
func (s *chainState) modelEffect(j int) float64 {
	if j == 0 {
		return 0
	}
	return s.beta[j-1]
}

// initChain builds the starting state from column means and the pooled
// within-column variance.
func initChain(y [][]float64, seed uint64) *chainState {
	n := len(y)
	k := len(y[0])

	colMean := make([]float64, k)
	for j := 0; j < k; j++ {
		for i := 0; i < n; i++ {
			colMean[j] += y[i][j]
		}
		colMean[j] /= float64(n)
	}

	var within float64
	for j := 0; j < k; j++ {
		for i := 0; i < n; i++ {
			d := y[i][j] - colMean[j]
			within += d * d
		}
	}
	within /= float64(n * k)
	if within < varianceFloor {
		within = varianceFloor
	}

	st := &chainState{
		src:    rand.NewSource(seed),
		beta0:  colMean[0],
		beta:   make([]float64, k-1),
		b:      make([]float64, n),
		lambda: make([]float64, n),
		tau2:   within,
		sigma2: within,
	}
	for m := 0; m < k-1; m++ {
		st.beta[m] = colMean[m+1] - colMean[0]
	}
	for i := range st.lambda {
		st.lambda[i] = 1
	}
	return st
}
