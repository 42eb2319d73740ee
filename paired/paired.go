// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package paired implements the paired-difference significance test for two
// models' per-fold metric vectors.
//
// Because both models are scored on the same folds, their metrics are
// correlated: a hard fold depresses every model at once. Testing the
// per-fold differences removes that shared fold effect, which is why the
// paired test is far more sensitive than comparing the two vectors as
// independent samples. Mathematically the test is a one-sample t-test on
// the difference vector against a zero mean.
package paired

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrMisaligned indicates the two metric vectors differ in length and
	// cannot be paired by fold.
	ErrMisaligned = errors.New("metric vectors are not fold-aligned")

	// ErrInsufficientSamples indicates too few folds for the test; n=1
	// leaves zero degrees of freedom.
	ErrInsufficientSamples = errors.New("insufficient samples for statistical analysis")

	// ErrZeroVariance indicates the difference vector is constant.
	ErrZeroVariance = errors.New("sample set has zero variance")
)

// -----------------------------------------------------------------------------
// Results
// -----------------------------------------------------------------------------

// Interval represents a two-sided confidence interval.
type Interval struct {
	// Lower is the lower bound.
	Lower float64

	// Upper is the upper bound.
	Upper float64

	// Level is the confidence level (e.g., 0.95).
	Level float64

	// Center is the point estimate.
	Center float64
}

// Contains returns true if the interval contains the value.
func (ci Interval) Contains(v float64) bool {
	return v >= ci.Lower && v <= ci.Upper
}

// Width returns the interval width.
func (ci Interval) Width() float64 {
	return ci.Upper - ci.Lower
}

// Result holds the paired-difference test output for H0: mean(a-b) = 0.
type Result struct {
	// Estimate is the mean per-fold difference, mean(a-b).
	Estimate float64

	// StdErr is the standard error of the estimate.
	StdErr float64

	// TStatistic is Estimate / StdErr.
	TStatistic float64

	// DF is the degrees of freedom (n-1).
	DF int

	// PValue is the two-sided p-value under the t-distribution.
	PValue float64

	// Interval is the two-sided confidence interval for the mean difference.
	Interval Interval

	// N is the number of paired folds.
	N int
}

// Significant reports whether the p-value falls below alpha.
func (r *Result) Significant(alpha float64) bool {
	return r.PValue < alpha
}

// -----------------------------------------------------------------------------
// Paired Difference Test
// -----------------------------------------------------------------------------

// Test runs the paired-difference t-test on two fold-aligned metric vectors.
//
// Description:
//
//	Computes d_i = a_i - b_i, then tests H0: mean(d) = 0 with a one-sample
//	t-test on d using n-1 degrees of freedom. Tail probabilities and
//	critical values come from the exact Student-t distribution.
//
// Inputs:
//   - a: First model's per-fold metrics.
//   - b: Second model's per-fold metrics, index-aligned with a by fold id.
//   - level: Confidence level for the interval, in (0, 1). E.g. 0.95.
//
// Outputs:
//   - *Result: Estimate, standard error, CI, and p-value.
//   - error: ErrMisaligned, ErrInsufficientSamples, or ErrZeroVariance.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func Test(a, b []float64, level float64) (*Result, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("%w: len(a)=%d len(b)=%d", ErrMisaligned, len(a), len(b))
	}
	if len(a) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 folds, got %d",
			ErrInsufficientSamples, len(a))
	}
	if level <= 0 || level >= 1 {
		return nil, fmt.Errorf("confidence level must be in (0, 1), got %v", level)
	}

	n := len(a)
	diffs := make([]float64, n)
	for i := range a {
		diffs[i] = a[i] - b[i]
	}

	estimate := stat.Mean(diffs, nil)
	sd := stat.StdDev(diffs, nil)
	if sd == 0 {
		return nil, fmt.Errorf("%w: all per-fold differences equal %v",
			ErrZeroVariance, estimate)
	}
	se := sd / math.Sqrt(float64(n))

	df := n - 1
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}

	tStat := estimate / se
	pValue := 2 * tDist.CDF(-math.Abs(tStat))
	tCrit := tDist.Quantile(0.5 + level/2)
	margin := tCrit * se

	return &Result{
		Estimate:   estimate,
		StdErr:     se,
		TStatistic: tStat,
		DF:         df,
		PValue:     pValue,
		Interval: Interval{
			Lower:  estimate - margin,
			Upper:  estimate + margin,
			Level:  level,
			Center: estimate,
		},
		N: n,
	}, nil
}

// OneSample runs a one-sample t-test of H0: mean(d) = mu0.
//
// Description:
//
//	Provided so callers can verify the paired-test identity directly:
//	Test(a, b, level) is exactly OneSample(a-b, 0, level).
func OneSample(d []float64, mu0, level float64) (*Result, error) {
	shifted := make([]float64, len(d))
	for i, v := range d {
		shifted[i] = v - mu0
	}
	zeros := make([]float64, len(d))
	res, err := Test(shifted, zeros, level)
	if err != nil {
		return nil, err
	}
	// Report the interval on the original scale.
	res.Estimate += mu0
	res.Interval.Lower += mu0
	res.Interval.Upper += mu0
	res.Interval.Center += mu0
	return res, nil
}
