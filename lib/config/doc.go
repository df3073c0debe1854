// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Screenwire
// binaries.
//
// Configuration is loaded from a single YAML file specified by:
//   - SCREENWIRE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
// Command-line flags override config file values; the config file
// overrides built-in defaults.
package config
