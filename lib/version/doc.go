// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for Screenwire
// binaries, and the pinned version of the bundled device agent.
//
// Build version information is injected at build time via -ldflags,
// for example:
//
//	go build -ldflags "-X github.com/screenwire/screenwire/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// The agent version is a source constant, not a build flag: it must
// match the scrcpy-server artifact shipped alongside the client, and
// it is the first positional argument of the agent launch command so
// the agent can refuse a mismatched client.
package version
