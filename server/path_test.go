// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noEnv(string) string { return "" }

func TestResolveAgentPathEnvOverrideWins(t *testing.T) {
	getenv := func(key string) string {
		if key == agentPathEnv {
			return "/opt/dev/scrcpy-server"
		}
		return ""
	}
	got := resolveAgentPath(getenv, slog.New(slog.DiscardHandler))
	if got != "/opt/dev/scrcpy-server" {
		t.Errorf("resolved = %q, want the environment override verbatim", got)
	}
}

func TestResolveAgentPathFallsBackToFilename(t *testing.T) {
	// Without an override, every candidate ends in the artifact
	// filename regardless of which location exists on this machine.
	got := resolveAgentPath(noEnv, slog.New(slog.DiscardHandler))
	if filepath.Base(got) != agentFilename {
		t.Errorf("resolved = %q, want a path to %q", got, agentFilename)
	}
}

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "artifact")
	if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	if !isRegularFile(file) {
		t.Error("regular file not recognized")
	}
	if isRegularFile(dir) {
		t.Error("directory recognized as regular file")
	}
	if isRegularFile(filepath.Join(dir, "absent")) {
		t.Error("missing path recognized as regular file")
	}
}

func TestPushAgentMissingArtifactFailsFast(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestServer(t, Config{
		Runner: runner,
		Params: sampleParams(),
		Getenv: func(key string) string {
			if key == agentPathEnv {
				return filepath.Join(t.TempDir(), "absent")
			}
			return ""
		},
	})

	err := s.Start(t.Context())
	if err == nil {
		t.Fatal("expected error for missing artifact")
	}
	if !strings.Contains(err.Error(), "not a regular file") {
		t.Errorf("error %q should explain the missing artifact", err)
	}
	if runner.callCount() != 0 {
		t.Errorf("no bridge command should run before the artifact check, got %d", runner.callCount())
	}
}
