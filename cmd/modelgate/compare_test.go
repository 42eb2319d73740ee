// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelgate/modelgate/resample"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metrics.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadObservations(t *testing.T) {
	t.Run("long format csv", func(t *testing.T) {
		path := writeCSV(t, `fold,model,value
f1,linear,0.80
f1,cubist,0.85
f2,linear,0.82
f2,cubist,0.86
`)
		obs, err := loadObservations(path)
		require.NoError(t, err)
		require.Len(t, obs, 4)
		assert.Equal(t, resample.Observation{
			FoldID: "f1", Model: "linear", Value: 0.80,
		}, obs[0])
		assert.Equal(t, "cubist", obs[3].Model)

		// The observations must reshape cleanly.
		table, err := resample.BuildTable(obs)
		require.NoError(t, err)
		assert.Equal(t, 2, table.NumFolds())
		assert.Equal(t, []string{"linear", "cubist"}, table.Models())
	})

	t.Run("extra columns are ignored", func(t *testing.T) {
		path := writeCSV(t, `fold,model,value,notes
f1,linear,0.80,first run
f2,linear,0.82,second run
`)
		obs, err := loadObservations(path)
		require.NoError(t, err)
		assert.Len(t, obs, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadObservations(filepath.Join(t.TempDir(), "nope.csv"))
		assert.Error(t, err)
	})

	t.Run("non-numeric value", func(t *testing.T) {
		path := writeCSV(t, "fold,model,value\nf1,linear,abc\n")
		_, err := loadObservations(path)
		assert.Error(t, err)
	})
}
