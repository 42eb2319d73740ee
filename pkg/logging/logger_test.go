// Copyright (C) 2026 The Modelgate Authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLevel(t *testing.T) {
	t.Run("string names", func(t *testing.T) {
		cases := map[Level]string{
			LevelDebug: "debug",
			LevelInfo:  "info",
			LevelWarn:  "warn",
			LevelError: "error",
			Level(42):  "unknown",
		}
		for level, want := range cases {
			if got := level.String(); got != want {
				t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
			}
		}
	})

	t.Run("parse", func(t *testing.T) {
		cases := map[string]Level{
			"debug":   LevelDebug,
			"DEBUG":   LevelDebug,
			" warn ":  LevelWarn,
			"warning": LevelWarn,
			"error":   LevelError,
			"info":    LevelInfo,
			"bogus":   LevelInfo,
			"":        LevelInfo,
		}
		for in, want := range cases {
			if got := ParseLevel(in); got != want {
				t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
			}
		}
	})
}

func TestNew(t *testing.T) {
	t.Run("stderr only", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Stderr: &buf})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer logger.Close()

		logger.Info("comparison complete", "models", 3)

		out := buf.String()
		if !strings.Contains(out, "comparison complete") {
			t.Errorf("expected message in stderr output, got %q", out)
		}
		if !strings.Contains(out, "service=modelgate") {
			t.Errorf("expected default service attribute, got %q", out)
		}
		if !strings.Contains(out, "models=3") {
			t.Errorf("expected structured attribute, got %q", out)
		}
	})

	t.Run("level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(Config{Level: LevelWarn, Stderr: &buf})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer logger.Close()

		logger.Debug("hidden debug")
		logger.Info("hidden info")
		logger.Warn("visible warning")

		out := buf.String()
		if strings.Contains(out, "hidden") {
			t.Errorf("expected sub-threshold records to be dropped, got %q", out)
		}
		if !strings.Contains(out, "visible warning") {
			t.Errorf("expected warning to pass the filter, got %q", out)
		}
	})

	t.Run("file logging writes json", func(t *testing.T) {
		dir := t.TempDir()
		var buf bytes.Buffer
		logger, err := New(Config{
			LogDir:  dir,
			Service: "gatetest",
			Stderr:  &buf,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		logger.Info("fit finished", "chains", 4)
		if err := logger.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}

		name := "gatetest_" + time.Now().Format("2006-01-02") + ".log"
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("reading log file: %v", err)
		}

		var record map[string]any
		if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
			t.Fatalf("log file is not JSON: %v\n%s", err, data)
		}
		if record["msg"] != "fit finished" {
			t.Errorf("expected msg %q, got %v", "fit finished", record["msg"])
		}
		if record["service"] != "gatetest" {
			t.Errorf("expected service %q, got %v", "gatetest", record["service"])
		}
		if record["chains"] != float64(4) {
			t.Errorf("expected chains=4, got %v", record["chains"])
		}

		// Both destinations receive the record.
		if !strings.Contains(buf.String(), "fit finished") {
			t.Errorf("expected stderr copy of the record, got %q", buf.String())
		}
	})

	t.Run("creates missing log directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "logs")
		logger, err := New(Config{LogDir: dir, Stderr: &bytes.Buffer{}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer logger.Close()

		if _, err := os.Stat(dir); err != nil {
			t.Errorf("expected log directory to be created: %v", err)
		}
	})

	t.Run("unwritable log directory", func(t *testing.T) {
		if os.Geteuid() == 0 {
			t.Skip("root bypasses permission checks")
		}
		parent := t.TempDir()
		if err := os.Chmod(parent, 0o555); err != nil {
			t.Fatalf("chmod: %v", err)
		}
		defer os.Chmod(parent, 0o755)

		_, err := New(Config{LogDir: filepath.Join(parent, "logs")})
		if err == nil {
			t.Error("expected error for unwritable log directory")
		}
	})
}

func TestLogger_Close(t *testing.T) {
	t.Run("idempotent without file", func(t *testing.T) {
		logger, err := New(Config{Stderr: &bytes.Buffer{}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := logger.Close(); err != nil {
			t.Errorf("first close: %v", err)
		}
		if err := logger.Close(); err != nil {
			t.Errorf("second close: %v", err)
		}
	})

	t.Run("idempotent with file", func(t *testing.T) {
		logger, err := New(Config{LogDir: t.TempDir(), Stderr: &bytes.Buffer{}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := logger.Close(); err != nil {
			t.Errorf("first close: %v", err)
		}
		if err := logger.Close(); err != nil {
			t.Errorf("second close: %v", err)
		}
	})
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got, err := expandHome("~/logs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != filepath.Join(home, "logs") {
		t.Errorf("expected %q, got %q", filepath.Join(home, "logs"), got)
	}

	got, err = expandHome("/absolute/path")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/absolute/path" {
		t.Errorf("expected untouched absolute path, got %q", got)
	}
}
