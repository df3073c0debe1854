// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package adb is a facade over the adb command-line bridge: pushing
// the device agent artifact, registering reverse and forward tunnels
// on the agent's abstract socket, and launching the agent process on
// the device.
//
// Commands run through an injectable [Runner] so tests can observe
// the exact command lines without a device attached. The production
// runner executes adb via os/exec; the launched agent is returned as
// a [Process] handle that supports Wait and Terminate. On Linux the
// handle pins the process identity with a pidfd, so a Terminate
// issued after the process has already exited cannot signal a
// recycled PID.
package adb
