// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package resample collects and organizes per-fold performance metrics for
// competing predictive models evaluated on a shared resampling partition.
//
// # Architecture
//
// The package sits at the head of the model-comparison pipeline:
//
//	┌──────────────────────────────────────────────────────────────────┐
//	│                          RESAMPLE                                │
//	├──────────────────────────────────────────────────────────────────┤
//	│                                                                  │
//	│   Folds ──► Collector ──► Observations ──► BuildTable ──► Table  │
//	│              (model +       (fold, model,    (inner join          │
//	│               metric)        value)           on fold id)         │
//	│                                                                  │
//	└──────────────────────────────────────────────────────────────────┘
//
// Observations from different models taken on the same fold are matched by
// fold id. This pairing is the invariant the downstream packages rely on:
// folds differ in intrinsic difficulty, so two models' metrics on the same
// fold are correlated, and that fold-to-fold variation must be treated as a
// nuisance factor rather than averaged away as noise.
//
// # Usage
//
//	obs1, err := resample.Collect(ctx, modelA, folds, resample.RSquared)
//	obs2, err := resample.Collect(ctx, modelB, folds, resample.RSquared)
//	table, err := resample.BuildTable(append(obs1, obs2...))
//
// The resulting Table feeds both the paired and posterior packages.
//
// # Thread Safety
//
// Observations and Tables are immutable after construction and safe to
// share between goroutines. Collect is safe for concurrent use with
// distinct models.
package resample
