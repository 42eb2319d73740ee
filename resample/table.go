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
	"sort"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrDuplicateObservation indicates the same (fold, model) pair was
	// observed more than once.
	ErrDuplicateObservation = errors.New("duplicate (fold, model) observation")

	// ErrNoCommonFolds indicates no fold is shared by every model.
	ErrNoCommonFolds = errors.New("no fold is present for every model")

	// ErrUnknownModel indicates a model name not present in the table.
	ErrUnknownModel = errors.New("unknown model")
)

// -----------------------------------------------------------------------------
// Observations
// -----------------------------------------------------------------------------

// Observation is one per-fold metric value for one model.
//
// Observations are produced once per model-evaluation run and are immutable
// afterward.
type Observation struct {
	// FoldID identifies the resampling partition. Opaque to this package.
	FoldID string

	// Model is the model's display name.
	Model string

	// Value is the metric value for this (fold, model) pair.
	Value float64
}

// -----------------------------------------------------------------------------
// Metric Table
// -----------------------------------------------------------------------------

// Table is the wide-form metric table: one row per fold, one column per
// model. The fold set is identical across every column by construction.
//
// Thread Safety: Immutable after BuildTable; safe for concurrent reads.
type Table struct {
	folds  []string
	models []string
	// values[i][j] is the metric for fold i under model j.
	values [][]float64
}

// BuildTable reshapes observations into wide form.
//
// Description:
//
//	Models are matched on fold id with inner-join semantics: any fold that
//	is missing for at least one model is dropped. Model column order is the
//	order of first appearance in obs; fold row order is sorted by fold id
//	for determinism.
//
// Inputs:
//   - obs: Metric observations. Each (fold, model) pair at most once.
//
// Outputs:
//   - *Table: The wide table. Never nil on success.
//   - error: ErrDuplicateObservation or ErrNoCommonFolds.
//
// Thread Safety: This function is stateless and safe for concurrent use.
func BuildTable(obs []Observation) (*Table, error) {
	var models []string
	byModel := make(map[string]map[string]float64)

	for _, o := range obs {
		folds, ok := byModel[o.Model]
		if !ok {
			folds = make(map[string]float64)
			byModel[o.Model] = folds
			models = append(models, o.Model)
		}
		if _, dup := folds[o.FoldID]; dup {
			return nil, fmt.Errorf("%w: fold=%q model=%q",
				ErrDuplicateObservation, o.FoldID, o.Model)
		}
		folds[o.FoldID] = o.Value
	}
	if len(models) == 0 {
		return nil, ErrNoCommonFolds
	}

	// Inner join: keep folds every model has.
	var common []string
	for fold := range byModel[models[0]] {
		shared := true
		for _, m := range models[1:] {
			if _, ok := byModel[m][fold]; !ok {
				shared = false
				break
			}
		}
		if shared {
			common = append(common, fold)
		}
	}
	if len(common) == 0 {
		return nil, ErrNoCommonFolds
	}
	sort.Strings(common)

	values := make([][]float64, len(common))
	for i, fold := range common {
		row := make([]float64, len(models))
		for j, m := range models {
			row[j] = byModel[m][fold]
		}
		values[i] = row
	}

	return &Table{folds: common, models: models, values: values}, nil
}

// Folds returns the fold ids in row order.
func (t *Table) Folds() []string {
	out := make([]string, len(t.folds))
	copy(out, t.folds)
	return out
}

// Models returns the model names in column order.
func (t *Table) Models() []string {
	out := make([]string, len(t.models))
	copy(out, t.models)
	return out
}

// NumFolds returns the number of rows.
func (t *Table) NumFolds() int { return len(t.folds) }

// NumModels returns the number of columns.
func (t *Table) NumModels() int { return len(t.models) }

// Column returns the per-fold metric vector for one model, in row order.
//
// Outputs:
//   - []float64: A copy of the column. Index-aligned with Folds().
//   - error: ErrUnknownModel if the model is not in the table.
func (t *Table) Column(model string) ([]float64, error) {
	for j, m := range t.models {
		if m == model {
			col := make([]float64, len(t.values))
			for i := range t.values {
				col[i] = t.values[i][j]
			}
			return col, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, model)
}

// Rows returns a copy of the full value matrix, rows in fold order and
// columns in model order.
func (t *Table) Rows() [][]float64 {
	out := make([][]float64, len(t.values))
	for i, row := range t.values {
		r := make([]float64, len(row))
		copy(r, row)
		out[i] = r
	}
	return out
}
