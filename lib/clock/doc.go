// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time operations for testability. Production
// code injects Real(); tests inject Fake() with deterministic time
// control.
//
// The client core has two time-dependent paths: the fixed-interval
// connection retry loop in transport, and the bounded wait for the
// device agent to exit during server teardown. Both accept a Clock so
// tests can drive them without real sleeps.
package clock
