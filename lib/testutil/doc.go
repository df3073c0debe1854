// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Screenwire
// packages.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so that individual
// tests do not need direct time.After calls. Real wall-clock timeouts
// in the test suite serve only as such safety valves; time-dependent
// logic under test runs against lib/clock fakes.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no Screenwire-internal dependencies.
package testutil
