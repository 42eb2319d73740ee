// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/modelgate/modelgate/contrast"
	"github.com/modelgate/modelgate/gate"
	"github.com/modelgate/modelgate/paired"
	"github.com/modelgate/modelgate/posterior"
	"github.com/modelgate/modelgate/report"
	"github.com/modelgate/modelgate/resample"
)

var (
	compareCmd = &cobra.Command{
		Use:   "compare",
		Short: "Compare models from a CSV of per-fold metrics",
		Long: `Compare reads a long-format CSV with header "fold,model,value", one
metric observation per (fold, model) pair, and reports:

  - paired-difference t-tests of every model against the baseline,
  - posterior summaries of each model's mean performance,
  - posterior contrasts against the baseline (optionally with a
    practical-equivalence probability), and
  - a promotion recommendation when a candidate is named.

Folds missing for any model are dropped (inner join on fold id).`,
		RunE: runCompare,
	}

	inputPath  string
	configPath string
	baseline   string
	candidate  string

	flagChains int
	flagIters  int
	flagSeed   uint64
	flagLevel  float64
	flagROPE   float64
)

func init() {
	compareCmd.Flags().StringVarP(&inputPath, "input", "i", "",
		"CSV file with fold,model,value rows (required)")
	compareCmd.Flags().StringVar(&configPath, "config", "",
		"YAML config file for sampler and gate settings")
	compareCmd.Flags().StringVar(&baseline, "baseline", "",
		"baseline model name (default: first model in the file)")
	compareCmd.Flags().StringVar(&candidate, "candidate", "",
		"candidate model to gate against the baseline")
	compareCmd.Flags().IntVar(&flagChains, "chains", 0, "MCMC chain count")
	compareCmd.Flags().IntVar(&flagIters, "iterations", 0, "per-chain iterations")
	compareCmd.Flags().Uint64Var(&flagSeed, "seed", 0, "sampler seed")
	compareCmd.Flags().Float64Var(&flagLevel, "level", 0, "interval level, e.g. 0.90")
	compareCmd.Flags().Float64Var(&flagROPE, "rope", 0, "practical-equivalence tolerance")
	_ = compareCmd.MarkFlagRequired("input")
}

// metricRow is one CSV record.
type metricRow struct {
	Fold  string  `csv:"fold"`
	Model string  `csv:"model"`
	Value float64 `csv:"value"`
}

// loadObservations reads the long-format CSV.
func loadObservations(path string) ([]resample.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %q: %w", path, err)
	}
	defer f.Close()

	var rows []*metricRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse input %q: %w", path, err)
	}

	obs := make([]resample.Observation, 0, len(rows))
	for _, r := range rows {
		obs = append(obs, resample.Observation{
			FoldID: r.Fold,
			Model:  r.Model,
			Value:  r.Value,
		})
	}
	return obs, nil
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := LoadCompareConfig(configPath)
	if err != nil {
		return err
	}
	// Flags override file values.
	if flagChains > 0 {
		cfg.Chains = flagChains
	}
	if flagIters > 0 {
		cfg.Iterations = flagIters
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = flagSeed
	}
	if flagLevel > 0 && flagLevel < 1 {
		cfg.Level = flagLevel
	}
	if cmd.Flags().Changed("rope") {
		cfg.ROPE = flagROPE
	}

	obs, err := loadObservations(inputPath)
	if err != nil {
		return err
	}
	table, err := resample.BuildTable(obs)
	if err != nil {
		return err
	}

	models := table.Models()
	if baseline == "" {
		baseline = models[0]
	}
	baseCol, err := table.Column(baseline)
	if err != nil {
		return err
	}
	logger.Info("comparing models",
		"models", len(models), "folds", table.NumFolds(), "baseline", baseline)

	out := cmd.OutOrStdout()

	// Paired-difference tests against the baseline.
	var pairedRows []report.PairedRow
	for _, m := range models {
		if m == baseline {
			continue
		}
		col, err := table.Column(m)
		if err != nil {
			return err
		}
		res, err := paired.Test(col, baseCol, cfg.Level)
		if err != nil {
			return fmt.Errorf("paired test %s vs %s: %w", m, baseline, err)
		}
		pairedRows = append(pairedRows, report.PairedRow{
			Comparison: fmt.Sprintf("%s - %s", m, baseline),
			Result:     res,
		})
	}
	fmt.Fprintln(out, "Paired difference tests")
	fmt.Fprintln(out, report.PairedTable(pairedRows))

	// Hierarchical posterior fit.
	engine := posterior.NewGibbsEngine(
		posterior.WithChains(cfg.Chains),
		posterior.WithIterations(cfg.Iterations),
		posterior.WithWarmupFraction(cfg.WarmupFraction),
		posterior.WithSeed(cfg.Seed),
		posterior.WithPriors(cfg.Priors),
		posterior.WithFitLogger(logger.Logger),
	)
	fit, err := engine.Fit(cmd.Context(), table)
	if err != nil {
		return err
	}
	if !fit.Diagnostics.Converged(cfg.MaxRhat) {
		logger.Warn("sampler may not have converged; inspect diagnostics before trusting results",
			"max_rhat", fit.Diagnostics.MaxRhat(), "threshold", cfg.MaxRhat)
	}

	var postRows []report.PosteriorRow
	for _, m := range models {
		s := fit.Samples[m]
		lo, hi := s.Interval(cfg.Level)
		postRows = append(postRows, report.PosteriorRow{
			Model: m,
			Mean:  s.Mean(),
			Interval: contrast.CredibleInterval{
				Lower: lo, Upper: hi, Level: cfg.Level,
			},
			Diagnostics: fit.Diagnostics.ByModel[m],
		})
	}
	fmt.Fprintln(out, "Posterior summaries")
	fmt.Fprintln(out, report.PosteriorTable(postRows))

	// Posterior contrasts against the baseline.
	contrasts := make(map[string]*contrast.Summary, len(models)-1)
	var contrastRows []report.ContrastRow
	for _, m := range models {
		if m == baseline {
			continue
		}
		sum, err := contrast.Compare(fit.Samples[m], fit.Samples[baseline],
			contrast.WithLevel(cfg.Level), contrast.WithROPE(cfg.ROPE))
		if err != nil {
			return fmt.Errorf("contrast %s vs %s: %w", m, baseline, err)
		}
		contrasts[m] = sum
		contrastRows = append(contrastRows, report.ContrastRow{
			Comparison: fmt.Sprintf("%s - %s", m, baseline),
			Summary:    sum,
		})
	}
	fmt.Fprintln(out, "Posterior contrasts")
	fmt.Fprintln(out, report.ContrastTable(contrastRows))

	// Promotion gate. With exactly two models the candidate is implied.
	if candidate == "" && len(models) == 2 {
		for _, m := range models {
			if m != baseline {
				candidate = m
			}
		}
	}
	if candidate != "" && candidate != baseline {
		candCol, err := table.Column(candidate)
		if err != nil {
			return err
		}
		engine := gate.NewEngine(
			gate.WithHigherIsBetter(cfg.HigherIsBetter),
			gate.WithLogger(logger.Logger),
		)
		decision, err := engine.Decide(&gate.Input{
			CandidateName: candidate,
			BaselineName:  baseline,
			Candidate:     candCol,
			Baseline:      baseCol,
			Contrast:      contrasts[candidate],
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, report.DecisionLine(decision))
	}

	return nil
}
