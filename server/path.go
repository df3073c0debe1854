// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log/slog"
	"os"
	"path/filepath"
)

// agentFilename is the name of the agent artifact.
const agentFilename = "scrcpy-server"

// defaultInstallPath is where a packaged install places the artifact.
const defaultInstallPath = "/usr/local/share/screenwire/" + agentFilename

// agentPathEnv overrides the artifact location, mainly for
// development builds of the agent.
const agentPathEnv = "SCRCPY_SERVER_PATH"

// resolveAgentPath picks the local agent artifact: environment
// override, then the packaged install location, then next to the
// client executable, then the bare filename in the current directory.
// The environment override is taken verbatim; the caller's regular-
// file check produces the error message when it points nowhere.
func resolveAgentPath(getenv func(string) string, logger *slog.Logger) string {
	if path := getenv(agentPathEnv); path != "" {
		logger.Debug("using agent artifact from environment", "path", path)
		return path
	}

	if isRegularFile(defaultInstallPath) {
		return defaultInstallPath
	}

	if executable, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(executable), agentFilename)
		if isRegularFile(candidate) {
			logger.Debug("using agent artifact next to executable", "path", candidate)
			return candidate
		}
	}

	return agentFilename
}

// isRegularFile reports whether path names an existing regular file.
func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
