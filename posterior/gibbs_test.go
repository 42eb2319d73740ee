// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package posterior_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/modelgate/modelgate/posterior"
	"github.com/modelgate/modelgate/resample"
)

// syntheticTable builds a metric table with known per-model means, shared
// fold effects, and small residual noise.
func syntheticTable(t *testing.T, means []float64, folds int, foldSD, residSD float64, seed uint64) *resample.Table {
	t.Helper()
	src := rand.NewSource(seed)
	foldEffect := distuv.Normal{Mu: 0, Sigma: foldSD, Src: src}
	resid := distuv.Normal{Mu: 0, Sigma: residSD, Src: src}

	var obs []resample.Observation
	for i := 0; i < folds; i++ {
		fe := foldEffect.Rand()
		for j, mu := range means {
			obs = append(obs, resample.Observation{
				FoldID: fmt.Sprintf("fold%02d", i+1),
				Model:  fmt.Sprintf("model%d", j+1),
				Value:  mu + fe + resid.Rand(),
			})
		}
	}
	table, err := resample.BuildTable(obs)
	if err != nil {
		t.Fatalf("building synthetic table: %v", err)
	}
	return table
}

func TestGibbsEngine_Fit(t *testing.T) {
	t.Run("recovers model means", func(t *testing.T) {
		means := []float64{0.80, 0.81, 0.85}
		table := syntheticTable(t, means, 10, 0.01, 0.005, 7)

		engine := posterior.NewGibbsEngine(
			posterior.WithChains(4),
			posterior.WithIterations(1500),
			posterior.WithSeed(42),
		)
		fit, err := engine.Fit(context.Background(), table)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// The shared fold effects shift every column together, so absolute
		// means carry that common offset while differences do not.
		for j, m := range fit.Models {
			s, err := fit.ModelSamples(m)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(s.Mean()-means[j]) > 0.02 {
				t.Errorf("model %s: posterior mean %v far from truth %v",
					m, s.Mean(), means[j])
			}
		}
		gap := fit.Samples["model3"].Mean() - fit.Samples["model1"].Mean()
		if math.Abs(gap-0.05) > 0.01 {
			t.Errorf("expected model3-model1 gap near 0.05, got %v", gap)
		}
		if !fit.Diagnostics.Converged(1.1) {
			t.Errorf("expected chains to mix on well-behaved data, max r-hat %v",
				fit.Diagnostics.MaxRhat())
		}
	})

	t.Run("pooled draw count", func(t *testing.T) {
		table := syntheticTable(t, []float64{0.8, 0.82}, 6, 0.01, 0.005, 3)

		chains, iters := 3, 400
		engine := posterior.NewGibbsEngine(
			posterior.WithChains(chains),
			posterior.WithIterations(iters),
			posterior.WithWarmupFraction(0.5),
			posterior.WithSeed(11),
		)
		fit, err := engine.Fit(context.Background(), table)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := chains * (iters - iters/2)
		for m, s := range fit.Samples {
			if len(s) != want {
				t.Errorf("model %s: expected %d pooled draws, got %d", m, want, len(s))
			}
		}
	})

	t.Run("bit-for-bit reproducible for fixed seed", func(t *testing.T) {
		table := syntheticTable(t, []float64{0.8, 0.83}, 8, 0.01, 0.005, 5)

		run := func() *posterior.Fit {
			engine := posterior.NewGibbsEngine(
				posterior.WithChains(4),
				posterior.WithIterations(500),
				posterior.WithSeed(99),
			)
			fit, err := engine.Fit(context.Background(), table)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			return fit
		}

		first, second := run(), run()
		for m, s1 := range first.Samples {
			s2 := second.Samples[m]
			if len(s1) != len(s2) {
				t.Fatalf("model %s: draw counts differ: %d vs %d", m, len(s1), len(s2))
			}
			for i := range s1 {
				if s1[i] != s2[i] {
					t.Fatalf("model %s: draw %d differs: %v vs %v", m, i, s1[i], s2[i])
				}
			}
		}
	})

	t.Run("different seeds differ", func(t *testing.T) {
		table := syntheticTable(t, []float64{0.8, 0.83}, 8, 0.01, 0.005, 5)

		fitA, err := posterior.NewGibbsEngine(
			posterior.WithChains(2), posterior.WithIterations(200), posterior.WithSeed(1),
		).Fit(context.Background(), table)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		fitB, err := posterior.NewGibbsEngine(
			posterior.WithChains(2), posterior.WithIterations(200), posterior.WithSeed(2),
		).Fit(context.Background(), table)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		m := fitA.Models[0]
		same := true
		for i := range fitA.Samples[m] {
			if fitA.Samples[m][i] != fitB.Samples[m][i] {
				same = false
				break
			}
		}
		if same {
			t.Error("expected different seeds to produce different draws")
		}
	})

	t.Run("degenerate column", func(t *testing.T) {
		obs := []resample.Observation{
			{FoldID: "f1", Model: "flat", Value: 0.5},
			{FoldID: "f2", Model: "flat", Value: 0.5},
			{FoldID: "f1", Model: "varied", Value: 0.4},
			{FoldID: "f2", Model: "varied", Value: 0.6},
		}
		table, err := resample.BuildTable(obs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err = posterior.NewGibbsEngine().Fit(context.Background(), table)
		if !errors.Is(err, posterior.ErrDegenerateInput) {
			t.Errorf("expected ErrDegenerateInput, got %v", err)
		}
	})

	t.Run("too few folds", func(t *testing.T) {
		obs := []resample.Observation{
			{FoldID: "f1", Model: "a", Value: 0.5},
			{FoldID: "f1", Model: "b", Value: 0.6},
		}
		table, err := resample.BuildTable(obs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err = posterior.NewGibbsEngine().Fit(context.Background(), table)
		if !errors.Is(err, posterior.ErrInsufficientFolds) {
			t.Errorf("expected ErrInsufficientFolds, got %v", err)
		}
	})

	t.Run("too few models", func(t *testing.T) {
		obs := []resample.Observation{
			{FoldID: "f1", Model: "a", Value: 0.5},
			{FoldID: "f2", Model: "a", Value: 0.6},
		}
		table, err := resample.BuildTable(obs)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err = posterior.NewGibbsEngine().Fit(context.Background(), table)
		if !errors.Is(err, posterior.ErrInsufficientModels) {
			t.Errorf("expected ErrInsufficientModels, got %v", err)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		table := syntheticTable(t, []float64{0.8, 0.83}, 8, 0.01, 0.005, 5)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := posterior.NewGibbsEngine(
			posterior.WithIterations(5000),
		).Fit(ctx, table)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("unknown model samples", func(t *testing.T) {
		table := syntheticTable(t, []float64{0.8, 0.83}, 4, 0.01, 0.005, 5)
		fit, err := posterior.NewGibbsEngine(
			posterior.WithChains(1), posterior.WithIterations(100),
		).Fit(context.Background(), table)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := fit.ModelSamples("nope"); !errors.Is(err, resample.ErrUnknownModel) {
			t.Errorf("expected ErrUnknownModel, got %v", err)
		}
	})
}

func TestSamples_Interval(t *testing.T) {
	s := make(posterior.Samples, 1000)
	for i := range s {
		s[i] = float64(i) // uniform grid 0..999
	}
	lo, hi := s.Interval(0.90)
	if lo > 60 || lo < 40 {
		t.Errorf("expected lower bound near 50, got %v", lo)
	}
	if hi < 940 || hi > 960 {
		t.Errorf("expected upper bound near 950, got %v", hi)
	}
}

func TestFitConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*posterior.FitConfig)
		wantErr bool
	}{
		{"defaults", func(*posterior.FitConfig) {}, false},
		{"zero chains", func(c *posterior.FitConfig) { c.Chains = 0 }, true},
		{"one iteration", func(c *posterior.FitConfig) { c.Iterations = 1 }, true},
		{"warmup too high", func(c *posterior.FitConfig) { c.WarmupFraction = 1 }, true},
		{"warmup leaves nothing", func(c *posterior.FitConfig) {
			c.Iterations = 4
			c.WarmupFraction = 0.9
		}, true},
		{"bad prior df", func(c *posterior.FitConfig) { c.Priors.InterceptDF = 0 }, true},
		{"bad coef scale", func(c *posterior.FitConfig) { c.Priors.CoefScale = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := posterior.DefaultFitConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
