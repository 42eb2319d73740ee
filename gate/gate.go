// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gate turns statistical evidence about a candidate model into a
// promotion recommendation.
//
// The gate combines two views of the same resampled metrics: the paired
// frequentist test (estimate, p-value) and, when available, the posterior
// contrast (P(difference > 0), practical-equivalence probability). A
// candidate is promoted only when both views agree it improves on the
// baseline; a configured ROPE lets the gate call models practically
// equivalent instead of chasing negligible differences.
package gate

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/modelgate/modelgate/contrast"
	"github.com/modelgate/modelgate/paired"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNoInput indicates a nil decision input.
	ErrNoInput = errors.New("decision input must not be nil")
)

// -----------------------------------------------------------------------------
// Recommendation Types
// -----------------------------------------------------------------------------

// Recommendation indicates the suggested action for the candidate model.
type Recommendation int

const (
	// NeedMoreData indicates insufficient folds for a decision.
	NeedMoreData Recommendation = iota

	// KeepBaseline indicates the baseline model should be kept.
	KeepBaseline

	// PromoteCandidate indicates the candidate improves on the baseline.
	PromoteCandidate

	// PracticallyEquivalent indicates the models differ by less than the
	// configured tolerance with high posterior probability.
	PracticallyEquivalent
)

// String returns the string representation.
func (r Recommendation) String() string {
	switch r {
	case NeedMoreData:
		return "need_more_data"
	case KeepBaseline:
		return "keep_baseline"
	case PromoteCandidate:
		return "promote_candidate"
	case PracticallyEquivalent:
		return "practically_equivalent"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Gate Configuration
// -----------------------------------------------------------------------------

// Config configures the promotion gate.
type Config struct {
	// MinFolds is the minimum number of paired folds before deciding.
	// Default: 5
	MinFolds int

	// MaxPValue is the maximum paired-test p-value for significance.
	// Default: 0.05
	MaxPValue float64

	// ConfidenceLevel is the paired-test confidence level.
	// Default: 0.95
	ConfidenceLevel float64

	// MinProbPositive is the posterior probability of improvement
	// required to promote when a contrast is supplied.
	// Default: 0.9
	MinProbPositive float64

	// MinProbEquivalent is the posterior ROPE probability above which the
	// models are declared practically equivalent.
	// Default: 0.95
	MinProbEquivalent float64

	// HigherIsBetter states the metric's direction (true for R²,
	// false for RMSE-like metrics).
	// Default: true
	HigherIsBetter bool

	// Logger for decision output.
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
//
// Outputs:
//   - *Config: Default configuration. Never nil.
func DefaultConfig() *Config {
	return &Config{
		MinFolds:          5,
		MaxPValue:         0.05,
		ConfidenceLevel:   0.95,
		MinProbPositive:   0.9,
		MinProbEquivalent: 0.95,
		HigherIsBetter:    true,
		Logger:            slog.Default(),
	}
}

// Option configures the gate.
type Option func(*Config)

// WithMinFolds sets the minimum fold count.
func WithMinFolds(n int) Option {
	return func(c *Config) {
		if n > 1 {
			c.MinFolds = n
		}
	}
}

// WithMaxPValue sets the significance cutoff.
func WithMaxPValue(p float64) Option {
	return func(c *Config) {
		if p > 0 && p < 1 {
			c.MaxPValue = p
		}
	}
}

// WithMinProbPositive sets the posterior improvement probability cutoff.
func WithMinProbPositive(p float64) Option {
	return func(c *Config) {
		if p > 0.5 && p < 1 {
			c.MinProbPositive = p
		}
	}
}

// WithMinProbEquivalent sets the equivalence probability cutoff.
func WithMinProbEquivalent(p float64) Option {
	return func(c *Config) {
		if p > 0.5 && p < 1 {
			c.MinProbEquivalent = p
		}
	}
}

// WithHigherIsBetter sets the metric direction.
func WithHigherIsBetter(higher bool) Option {
	return func(c *Config) {
		c.HigherIsBetter = higher
	}
}

// WithLogger sets the gate's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// -----------------------------------------------------------------------------
// Decision Engine
// -----------------------------------------------------------------------------

// Input contains the data needed to gate one candidate against a baseline.
type Input struct {
	// CandidateName and BaselineName are display names for logging.
	CandidateName string
	BaselineName  string

	// Candidate and Baseline are per-fold metrics, index-aligned by fold.
	Candidate []float64
	Baseline  []float64

	// Contrast is the posterior contrast for candidate minus baseline.
	// Optional; when nil the gate decides on the paired test alone.
	Contrast *contrast.Summary
}

// Evidence contains the statistical support for a decision.
type Evidence struct {
	// Folds is the number of paired folds.
	Folds int

	// CandidateMean and BaselineMean are per-fold metric means.
	CandidateMean float64
	BaselineMean  float64

	// MeanDifference is candidate minus baseline.
	MeanDifference float64

	// Paired is the paired-difference test result, when computable.
	Paired *paired.Result

	// Contrast is the posterior contrast, when supplied.
	Contrast *contrast.Summary
}

// Decision holds the recommendation with supporting evidence.
type Decision struct {
	// Recommendation is the suggested action.
	Recommendation Recommendation

	// Reason explains the recommendation in human-readable form.
	Reason string

	// Evidence contains the supporting statistics.
	Evidence *Evidence

	// Timestamp is when the decision was made.
	Timestamp time.Time
}

// Engine evaluates comparison evidence and makes recommendations.
//
// Thread Safety: Safe for concurrent use (stateless).
type Engine struct {
	cfg *Config
}

// NewEngine creates a promotion gate.
//
// Inputs:
//   - opts: Configuration options applied over DefaultConfig().
//
// Outputs:
//   - *Engine: The new engine. Never nil.
func NewEngine(opts ...Option) *Engine {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Engine{cfg: cfg}
}

// Decide evaluates the candidate against the baseline.
//
// Inputs:
//   - in: Per-fold metrics plus optional posterior contrast.
//
// Outputs:
//   - *Decision: Recommendation, reason, and evidence. Never nil on success.
//   - error: ErrNoInput or paired.ErrMisaligned.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) Decide(in *Input) (*Decision, error) {
	if in == nil {
		return nil, ErrNoInput
	}
	if len(in.Candidate) != len(in.Baseline) {
		return nil, fmt.Errorf("%w: candidate=%d baseline=%d",
			paired.ErrMisaligned, len(in.Candidate), len(in.Baseline))
	}

	ev := &Evidence{
		Folds:    len(in.Candidate),
		Contrast: in.Contrast,
	}
	if ev.Folds > 0 {
		ev.CandidateMean = stat.Mean(in.Candidate, nil)
		ev.BaselineMean = stat.Mean(in.Baseline, nil)
		ev.MeanDifference = ev.CandidateMean - ev.BaselineMean
	}

	if ev.Folds < e.cfg.MinFolds {
		return e.decision(NeedMoreData,
			fmt.Sprintf("only %d folds, need %d", ev.Folds, e.cfg.MinFolds), ev), nil
	}

	res, err := paired.Test(in.Candidate, in.Baseline, e.cfg.ConfidenceLevel)
	switch {
	case errors.Is(err, paired.ErrZeroVariance):
		// Constant differences: fall through to the posterior evidence if
		// present, otherwise nothing to decide on.
		if in.Contrast == nil {
			return e.decision(NeedMoreData,
				"per-fold differences are constant and no posterior contrast was supplied", ev), nil
		}
	case err != nil:
		return nil, err
	default:
		ev.Paired = res
	}

	// Direction-normalized improvement: positive means candidate better.
	improvement := ev.MeanDifference
	if !e.cfg.HigherIsBetter {
		improvement = -improvement
	}

	if in.Contrast != nil {
		probBetter := in.Contrast.ProbPositive
		if !e.cfg.HigherIsBetter {
			probBetter = 1 - probBetter
		}

		if in.Contrast.ROPE > 0 && in.Contrast.ProbEquivalent >= e.cfg.MinProbEquivalent {
			return e.decision(PracticallyEquivalent,
				fmt.Sprintf("P(|difference| <= %.4g) = %.3f exceeds %.3f",
					in.Contrast.ROPE, in.Contrast.ProbEquivalent, e.cfg.MinProbEquivalent), ev), nil
		}
		if probBetter >= e.cfg.MinProbPositive && improvement > 0 &&
			(ev.Paired == nil || ev.Paired.PValue <= e.cfg.MaxPValue) {
			return e.decision(PromoteCandidate,
				fmt.Sprintf("posterior P(candidate better) = %.3f with mean improvement %.4g",
					probBetter, improvement), ev), nil
		}
		return e.decision(KeepBaseline,
			fmt.Sprintf("posterior P(candidate better) = %.3f below %.3f",
				probBetter, e.cfg.MinProbPositive), ev), nil
	}

	if ev.Paired != nil && ev.Paired.PValue <= e.cfg.MaxPValue && improvement > 0 {
		return e.decision(PromoteCandidate,
			fmt.Sprintf("paired test p = %.4g with mean improvement %.4g",
				ev.Paired.PValue, improvement), ev), nil
	}
	if ev.Paired != nil && ev.Paired.PValue <= e.cfg.MaxPValue && improvement < 0 {
		return e.decision(KeepBaseline,
			fmt.Sprintf("candidate is significantly worse (p = %.4g)", ev.Paired.PValue), ev), nil
	}
	return e.decision(KeepBaseline,
		"no significant improvement over baseline", ev), nil
}

// decision assembles and logs the final decision.
func (e *Engine) decision(r Recommendation, reason string, ev *Evidence) *Decision {
	e.cfg.Logger.Debug("gate decision",
		"recommendation", r.String(), "reason", reason, "folds", ev.Folds)
	return &Decision{
		Recommendation: r,
		Reason:         reason,
		Evidence:       ev,
		Timestamp:      time.Now(),
	}
}
