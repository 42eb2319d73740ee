// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resample

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrLengthMismatch indicates truth and estimate vectors differ in length.
	ErrLengthMismatch = errors.New("truth and estimate lengths differ")

	// ErrNoSamples indicates an empty input vector.
	ErrNoSamples = errors.New("no samples provided")
)

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

// Metric computes a single performance statistic from held-out ground truth
// and model estimates for one fold.
//
// Inputs:
//   - truth: Observed values for the held-out fold. Must not be empty.
//   - estimate: Model predictions, index-aligned with truth.
//
// Outputs:
//   - float64: The metric value.
//   - error: Non-nil if inputs are empty or misaligned.
//
// Thread Safety: Implementations must be stateless.
type Metric func(truth, estimate []float64) (float64, error)

// RSquared computes the coefficient of determination.
//
// Description:
//
//	R² = 1 - SS_res/SS_tot, computed against the mean of truth. Higher is
//	better; 1.0 is a perfect fit. Can be negative for models worse than
//	predicting the mean.
func RSquared(truth, estimate []float64) (float64, error) {
	if err := checkPair(truth, estimate); err != nil {
		return 0, err
	}
	return stat.RSquaredFrom(estimate, truth, nil), nil
}

// RMSE computes the root mean squared error. Lower is better.
func RMSE(truth, estimate []float64) (float64, error) {
	if err := checkPair(truth, estimate); err != nil {
		return 0, err
	}
	var sumSq float64
	for i := range truth {
		d := estimate[i] - truth[i]
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(truth))), nil
}

// MAE computes the mean absolute error. Lower is better.
func MAE(truth, estimate []float64) (float64, error) {
	if err := checkPair(truth, estimate); err != nil {
		return 0, err
	}
	var sum float64
	for i := range truth {
		sum += math.Abs(estimate[i] - truth[i])
	}
	return sum / float64(len(truth)), nil
}

// checkPair validates a truth/estimate pair.
func checkPair(truth, estimate []float64) error {
	if len(truth) == 0 {
		return ErrNoSamples
	}
	if len(truth) != len(estimate) {
		return fmt.Errorf("%w: truth=%d estimate=%d",
			ErrLengthMismatch, len(truth), len(estimate))
	}
	return nil
}
