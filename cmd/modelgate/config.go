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

	"gopkg.in/yaml.v3"

	"github.com/modelgate/modelgate/posterior"
)

// CompareConfig is the file-loadable configuration for the compare command.
// Flags override file values; file values override defaults.
type CompareConfig struct {
	// Chains is the MCMC chain count.
	Chains int `yaml:"chains"`

	// Iterations is the per-chain iteration count, including warm-up.
	Iterations int `yaml:"iterations"`

	// WarmupFraction of each chain is discarded.
	WarmupFraction float64 `yaml:"warmup_fraction"`

	// Seed drives the sampler RNG.
	Seed uint64 `yaml:"seed"`

	// Level is the confidence / credible interval level.
	Level float64 `yaml:"level"`

	// ROPE is the practical-equivalence tolerance. Zero disables it.
	ROPE float64 `yaml:"rope"`

	// MaxRhat is the split-R̂ threshold that triggers a diagnostics
	// warning.
	MaxRhat float64 `yaml:"max_rhat"`

	// HigherIsBetter states the metric direction for gating.
	HigherIsBetter bool `yaml:"higher_is_better"`

	// Priors is the hierarchical model prior specification.
	Priors posterior.PriorSpec `yaml:"priors"`
}

// DefaultCompareConfig returns the command defaults.
func DefaultCompareConfig() CompareConfig {
	return CompareConfig{
		Chains:         4,
		Iterations:     2000,
		WarmupFraction: 0.5,
		Seed:           1,
		Level:          0.90,
		ROPE:           0,
		MaxRhat:        posterior.DefaultMaxRhat,
		HigherIsBetter: true,
		Priors:         posterior.DefaultPriors(),
	}
}

// LoadCompareConfig reads a YAML config file over the defaults.
//
// Inputs:
//   - path: Config file path. Empty returns the defaults unchanged.
//
// Outputs:
//   - CompareConfig: Merged configuration.
//   - error: Non-nil on read or parse failure.
func LoadCompareConfig(path string) (CompareConfig, error) {
	cfg := DefaultCompareConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Priors.Validate(); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}
