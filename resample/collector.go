// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resample

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNilModel indicates a nil model was provided.
	ErrNilModel = errors.New("model must not be nil")

	// ErrNoFolds indicates an empty fold set.
	ErrNoFolds = errors.New("no folds provided")
)

// -----------------------------------------------------------------------------
// Folds and Models
// -----------------------------------------------------------------------------

// Fold is one resampling partition. The id is opaque to this workflow; the
// held-out data is only consulted by the model and the metric.
type Fold struct {
	// ID identifies the fold. Must be unique within a partition.
	ID string

	// Inputs are the held-out feature rows.
	Inputs [][]float64

	// Truth are the held-out observed values, index-aligned with Inputs.
	Truth []float64
}

// Model is an already-fitted predictive model. Fitting is out of scope for
// this package; implementations only score held-out folds.
type Model interface {
	// Name returns the model's display name. Used as the column name in
	// the metric table.
	Name() string

	// Predict returns one estimate per held-out row of the fold.
	Predict(ctx context.Context, fold Fold) ([]float64, error)
}

// -----------------------------------------------------------------------------
// Collector
// -----------------------------------------------------------------------------

// CollectorConfig configures metric collection.
type CollectorConfig struct {
	// Logger for progress output.
	Logger *slog.Logger
}

// CollectorOption configures the collector.
type CollectorOption func(*CollectorConfig)

// WithLogger sets the collector's logger.
func WithLogger(l *slog.Logger) CollectorOption {
	return func(c *CollectorConfig) {
		if l != nil {
			c.Logger = l
		}
	}
}

// Collect scores one model on every fold and returns one Observation per
// fold.
//
// Description:
//
//	Each fold is scored independently: the model predicts the held-out
//	rows and the metric reduces (truth, estimate) to a single value. The
//	whole run is tagged with a generated run id for log correlation.
//
// Inputs:
//   - ctx: Cancellation is checked between folds.
//   - model: The fitted model. Must not be nil.
//   - folds: The resampling partition. Must not be empty.
//   - metric: The performance statistic to compute per fold.
//
// Outputs:
//   - []Observation: One per fold, in input order.
//   - error: First prediction or metric failure, wrapped with fold context.
//
// Thread Safety: Safe for concurrent use with distinct models.
func Collect(ctx context.Context, model Model, folds []Fold, metric Metric, opts ...CollectorOption) ([]Observation, error) {
	if model == nil {
		return nil, ErrNilModel
	}
	if len(folds) == 0 {
		return nil, ErrNoFolds
	}

	cfg := &CollectorConfig{Logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	runID := uuid.NewString()
	cfg.Logger.Debug("collecting resample metrics",
		"run_id", runID, "model", model.Name(), "folds", len(folds))

	out := make([]Observation, 0, len(folds))
	for _, fold := range folds {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("collection canceled at fold %q: %w", fold.ID, err)
		}

		estimate, err := model.Predict(ctx, fold)
		if err != nil {
			return nil, fmt.Errorf("predict fold %q: %w", fold.ID, err)
		}
		value, err := metric(fold.Truth, estimate)
		if err != nil {
			return nil, fmt.Errorf("metric on fold %q: %w", fold.ID, err)
		}

		cfg.Logger.Debug("fold scored",
			"run_id", runID, "model", model.Name(), "fold", fold.ID, "value", value)
		out = append(out, Observation{FoldID: fold.ID, Model: model.Name(), Value: value})
	}

	return out, nil
}
