// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"

	"github.com/modelgate/modelgate/pkg/logging"
)

var (
	rootCmd = &cobra.Command{
		Use:   "modelgate",
		Short: "Compare predictive models evaluated on shared resampling folds",
		Long: `Modelgate compares the resampled performance of candidate models.

It runs paired-difference significance tests between model pairs, fits a
Bayesian hierarchical model to obtain posterior distributions of each
model's mean performance, and summarizes pairwise contrasts including a
practical-equivalence probability.`,
		SilenceUsage: true,
	}

	verbose bool
	logDir  string

	logger = logging.Default()
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "",
		"also write JSON logs to this directory")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := logging.LevelInfo
		if verbose {
			level = logging.LevelDebug
		}
		l, err := logging.New(logging.Config{
			Level:   level,
			LogDir:  logDir,
			Service: "modelgate",
		})
		if err != nil {
			return err
		}
		logger = l
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		_ = logger.Close()
	}

	rootCmd.AddCommand(compareCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
