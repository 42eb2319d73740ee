// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package paired

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func TestTest(t *testing.T) {
	t.Run("estimate equals mean difference exactly", func(t *testing.T) {
		a := []float64{0.80, 0.82, 0.79, 0.81, 0.83}
		b := []float64{0.77, 0.78, 0.76, 0.79, 0.77}

		res, err := Test(a, b, 0.95)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		diffs := make([]float64, len(a))
		for i := range a {
			diffs[i] = a[i] - b[i]
		}
		if res.Estimate != stat.Mean(diffs, nil) {
			t.Errorf("estimate %v is not exactly mean(a-b) %v",
				res.Estimate, stat.Mean(diffs, nil))
		}
	})

	t.Run("five-fold r-squared scenario", func(t *testing.T) {
		// Two models scored on the same 5 folds; model a ahead by ~0.03.
		a := []float64{0.80, 0.82, 0.79, 0.81, 0.83}
		b := []float64{0.77, 0.78, 0.76, 0.79, 0.77}

		res, err := Test(a, b, 0.95)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if math.Abs(res.Estimate-0.036) > 1e-12 {
			t.Errorf("expected estimate 0.036, got %v", res.Estimate)
		}
		if res.DF != 4 {
			t.Errorf("expected 4 degrees of freedom, got %d", res.DF)
		}
		if res.PValue >= 0.05 {
			t.Errorf("expected p well below 0.05, got %v", res.PValue)
		}
		if res.PValue <= 0 {
			t.Errorf("expected positive p-value, got %v", res.PValue)
		}
		if !res.Significant(0.05) {
			t.Error("expected the difference to be significant at alpha=0.05")
		}
		if res.Interval.Contains(0) {
			t.Errorf("expected 95%% CI [%v, %v] to exclude zero",
				res.Interval.Lower, res.Interval.Upper)
		}
	})

	t.Run("antisymmetric in argument order", func(t *testing.T) {
		a := []float64{0.80, 0.82, 0.79, 0.81, 0.83}
		b := []float64{0.77, 0.78, 0.76, 0.79, 0.77}

		ab, err := Test(a, b, 0.95)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ba, err := Test(b, a, 0.95)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if math.Abs(ab.Estimate+ba.Estimate) > 1e-15 {
			t.Errorf("estimates should negate: %v vs %v", ab.Estimate, ba.Estimate)
		}
		if math.Abs(ab.PValue-ba.PValue) > 1e-12 {
			t.Errorf("p-values should match: %v vs %v", ab.PValue, ba.PValue)
		}
	})

	t.Run("single fold", func(t *testing.T) {
		_, err := Test([]float64{0.8}, []float64{0.7}, 0.95)
		if !errors.Is(err, ErrInsufficientSamples) {
			t.Errorf("expected ErrInsufficientSamples, got %v", err)
		}
	})

	t.Run("misaligned vectors", func(t *testing.T) {
		_, err := Test([]float64{0.8, 0.9}, []float64{0.7}, 0.95)
		if !errors.Is(err, ErrMisaligned) {
			t.Errorf("expected ErrMisaligned, got %v", err)
		}
	})

	t.Run("constant differences", func(t *testing.T) {
		_, err := Test([]float64{1, 2, 3}, []float64{0, 1, 2}, 0.95)
		if !errors.Is(err, ErrZeroVariance) {
			t.Errorf("expected ErrZeroVariance, got %v", err)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		if _, err := Test([]float64{1, 2}, []float64{0, 1.5}, 1.5); err == nil {
			t.Error("expected error for level outside (0,1)")
		}
	})
}

func TestOneSample_MatchesPaired(t *testing.T) {
	// The paired test must be mathematically identical to a one-sample
	// test on the difference vector.
	a := []float64{0.80, 0.82, 0.79, 0.81, 0.83}
	b := []float64{0.77, 0.78, 0.76, 0.79, 0.77}

	pairedRes, err := Test(a, b, 0.95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	diffs := make([]float64, len(a))
	for i := range a {
		diffs[i] = a[i] - b[i]
	}
	oneRes, err := OneSample(diffs, 0, 0.95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pairedRes.Estimate != oneRes.Estimate {
		t.Errorf("estimates differ: %v vs %v", pairedRes.Estimate, oneRes.Estimate)
	}
	if math.Abs(pairedRes.PValue-oneRes.PValue) > 1e-12 {
		t.Errorf("p-values differ: %v vs %v", pairedRes.PValue, oneRes.PValue)
	}
	if math.Abs(pairedRes.Interval.Lower-oneRes.Interval.Lower) > 1e-12 ||
		math.Abs(pairedRes.Interval.Upper-oneRes.Interval.Upper) > 1e-12 {
		t.Errorf("intervals differ: [%v, %v] vs [%v, %v]",
			pairedRes.Interval.Lower, pairedRes.Interval.Upper,
			oneRes.Interval.Lower, oneRes.Interval.Upper)
	}
}

func TestInterval(t *testing.T) {
	ci := Interval{Lower: -10, Upper: 10, Center: 0, Level: 0.95}

	if !ci.Contains(0) || !ci.Contains(-10) || !ci.Contains(10) {
		t.Error("expected interval to contain its bounds and center")
	}
	if ci.Contains(11) || ci.Contains(-11) {
		t.Error("expected interval to exclude values outside the bounds")
	}
	if ci.Width() != 20 {
		t.Errorf("expected width 20, got %v", ci.Width())
	}
}
