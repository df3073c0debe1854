// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package server orchestrates the lifecycle of a mirroring session:
// deploying the device agent, establishing the tunnel, launching the
// agent, connecting the two data streams, and tearing everything down
// again.
//
// A [Server] is single-use. Start is transactional: on any failure it
// unwinds whatever it had already acquired, in reverse order, and
// leaves the instance inert. After a successful Start, Connect
// produces the video stream first and the control stream second, and
// Stop releases every remaining resource. Stop is safe to call on a
// server whose Start failed or was never called.
//
// Between Start and Stop a watchdog goroutine waits on the agent
// process. If the agent dies before connecting back, the watchdog
// closes the listening socket through the shared close-authority
// token, waking the pending accept so Connect fails promptly instead
// of blocking forever.
package server
