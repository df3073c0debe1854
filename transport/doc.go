// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport provides the loopback TCP primitives the client
// core uses to meet the device agent: listening for tunnel-reverse
// connections, dialing into tunnel-forward and direct endpoints, and
// the readiness probe that distinguishes "tunnel connected" from
// "agent is actually serving".
//
// An adb tunnel accepts TCP connections before the device-side
// listener exists, so a successful dial proves nothing. The agent
// writes a single byte the moment it begins serving; [DialProbe]
// consumes that byte and only then reports the connection as usable.
// The byte is discarded — it is not part of the video stream.
//
// [CloseOnce] is the close-authority token for the shared listening
// socket. After the agent is launched, two goroutines may race to
// close the listener: the watchdog (when the agent dies before
// connecting) and the lifecycle caller (after accepting both streams,
// or during teardown). Whichever wins the compare-and-swap performs
// the close; the loser does nothing. The listener is therefore closed
// exactly once on every code path.
package transport
