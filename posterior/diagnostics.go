// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package posterior

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultMaxRhat is the suggested split-R̂ threshold. Fits are never failed
// automatically; callers compare Diagnostics against whatever threshold
// their application demands.
const DefaultMaxRhat = 1.05

// -----------------------------------------------------------------------------
// Diagnostics
// -----------------------------------------------------------------------------

// ParamDiagnostics carries convergence statistics for one model's mean.
type ParamDiagnostics struct {
	// Rhat is the split-chain potential scale reduction factor. Values
	// near 1 indicate the chains mixed; large values flag unreliable
	// draws.
	Rhat float64

	// ESS is the estimated effective sample size of the pooled draws.
	ESS float64
}

// Diagnostics carries convergence statistics for every model in a fit.
//
// Non-convergence is reported here rather than raised as an error: the
// draws are still returned and the caller decides whether to trust them.
type Diagnostics struct {
	// ByModel maps model name to its diagnostics.
	ByModel map[string]ParamDiagnostics
}

// MaxRhat returns the largest split-R̂ across models.
func (d Diagnostics) MaxRhat() float64 {
	max := 0.0
	for _, pd := range d.ByModel {
		if pd.Rhat > max {
			max = pd.Rhat
		}
	}
	return max
}

// Converged reports whether every model's split-R̂ is at or below maxRhat.
func (d Diagnostics) Converged(maxRhat float64) bool {
	for _, pd := range d.ByModel {
		if pd.Rhat > maxRhat {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Computation
// -----------------------------------------------------------------------------

// computeDiagnostics derives split-R̂ and ESS per model from per-chain
// draws. chainDraws[c][j] is chain c's draw sequence for model j.
func computeDiagnostics(models []string, chainDraws [][][]float64) Diagnostics {
	byModel := make(map[string]ParamDiagnostics, len(models))
	for j, m := range models {
		seqs := splitChains(chainDraws, j)
		rhat, varPlus, w := splitRhat(seqs)
		byModel[m] = ParamDiagnostics{
			Rhat: rhat,
			ESS:  effectiveSampleSize(seqs, varPlus, w),
		}
	}
	return Diagnostics{ByModel: byModel}
}

// splitChains halves each chain's draw sequence for model j, yielding 2C
// sequences of equal length.
func splitChains(chainDraws [][][]float64, j int) [][]float64 {
	var seqs [][]float64
	for _, chain := range chainDraws {
		d := chain[j]
		half := len(d) / 2
		if half < 2 {
			seqs = append(seqs, d)
			continue
		}
		seqs = append(seqs, d[:half], d[half:half*2])
	}
	return seqs
}

// splitRhat computes the potential scale reduction factor over the split
// sequences, returning rhat, the pooled variance estimate, and the mean
// within-sequence variance.
func splitRhat(seqs [][]float64) (rhat, varPlus, w float64) {
	m := len(seqs)
	if m < 2 {
		return 1, pooledVariance(seqs), pooledVariance(seqs)
	}
	l := float64(len(seqs[0]))

	means := make([]float64, m)
	var withinSum float64
	for i, s := range seqs {
		means[i] = stat.Mean(s, nil)
		withinSum += stat.Variance(s, nil)
	}
	w = withinSum / float64(m)
	varOfMeans := stat.Variance(means, nil)

	varPlus = (l-1)/l*w + varOfMeans
	if w == 0 {
		return 1, varPlus, w
	}
	return math.Sqrt(varPlus / w), varPlus, w
}

func pooledVariance(seqs [][]float64) float64 {
	var all []float64
	for _, s := range seqs {
		all = append(all, s...)
	}
	if len(all) < 2 {
		return 0
	}
	return stat.Variance(all, nil)
}

// effectiveSampleSize estimates ESS with the variogram autocorrelation
// estimator, truncated at the first negative pair of autocorrelations.
func effectiveSampleSize(seqs [][]float64, varPlus, w float64) float64 {
	m := len(seqs)
	if m == 0 || varPlus <= 0 {
		return 0
	}
	l := len(seqs[0])
	total := float64(m * l)
	if w == 0 {
		return total
	}

	rho := func(t int) float64 {
		var vsum float64
		var count int
		for _, s := range seqs {
			for i := t; i < len(s); i++ {
				d := s[i] - s[i-t]
				vsum += d * d
				count++
			}
		}
		if count == 0 {
			return 0
		}
		vt := vsum / float64(count)
		return 1 - vt/(2*varPlus)
	}

	var acSum float64
	for t := 1; t+1 < l; t += 2 {
		pair := rho(t) + rho(t+1)
		if pair < 0 {
			break
		}
		acSum += pair
	}

	ess := total / (1 + 2*acSum)
	if ess > total {
		ess = total
	}
	if ess < 1 {
		ess = 1
	}
	return ess
}
