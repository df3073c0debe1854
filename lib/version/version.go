// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
)

// Agent is the version of the bundled scrcpy-server artifact. It is
// sent as the first argument of the agent launch command and checked
// by the agent against its own version.
const Agent = "1.17"

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// Info returns a formatted version string suitable for --version output.
func Info() string {
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, GitCommit, dirty, BuildTime)
}

// Full returns detailed version information including Go version and
// the bundled agent version.
func Full() string {
	return fmt.Sprintf("%s\n  Agent: %s\n  Go: %s\n  Platform: %s/%s",
		Info(), Agent, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
