// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/jpillora/backoff"

	"github.com/screenwire/screenwire/lib/clock"
)

// DialProbe connects to host:port and reads the one-byte readiness
// marker the agent writes as soon as it begins serving. The connection
// may succeed even when nothing is listening behind the adb tunnel;
// only a successful read proves the agent is up. The byte is consumed
// and discarded. On a failed or short read the connection is closed
// and an error returned.
func DialProbe(host string, port uint16) (net.Conn, error) {
	conn, err := Dial(host, port)
	if err != nil {
		return nil, err
	}

	var probe [1]byte
	if _, err := io.ReadFull(conn, probe[:]); err != nil {
		conn.Close()
		return nil, fmt.Errorf("transport: agent not serving on %s: %w", addr(host, port), err)
	}
	return conn, nil
}

// DialProbeRetry invokes DialProbe up to attempts times, sleeping
// delay between failures. It returns the first successful connection,
// or the last error once the attempts are exhausted.
//
// The interval is constant: the agent either comes up within a few
// probe periods or died, so there is nothing to gain from growing the
// delay.
func DialProbeRetry(clk clock.Clock, logger *slog.Logger, host string, port uint16, attempts int, delay time.Duration) (net.Conn, error) {
	interval := &backoff.Backoff{
		Min:    delay,
		Max:    delay,
		Factor: 1,
	}

	var lastErr error
	for remaining := attempts; remaining > 0; remaining-- {
		logger.Debug("probing agent endpoint",
			"address", addr(host, port),
			"remaining_attempts", remaining,
		)
		conn, err := DialProbe(host, port)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if remaining > 1 {
			clk.Sleep(interval.Duration())
		}
	}
	return nil, fmt.Errorf("transport: no connection after %d attempts: %w", attempts, lastErr)
}
