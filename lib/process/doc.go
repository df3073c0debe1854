// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for Screenwire
// binaries. It centralizes the one legitimate raw I/O pattern that
// exists before the structured logger: fatal error reporting to stderr
// when the logger may not be initialized.
package process
