// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"fmt"
	"net"
)

// LoopbackHost is the local address used for all tunnel traffic. The
// adb tunnel endpoints only ever bind or connect on the IPv4 loopback
// interface.
const LoopbackHost = "127.0.0.1"

// Listen binds a TCP listener on the IPv4 loopback interface at the
// given port.
func Listen(port uint16) (net.Listener, error) {
	listener, err := net.Listen("tcp4", addr(LoopbackHost, port))
	if err != nil {
		return nil, fmt.Errorf("transport: listen on port %d: %w", port, err)
	}
	return listener, nil
}

// Dial opens a TCP connection to host:port.
func Dial(host string, port uint16) (net.Conn, error) {
	conn, err := net.Dial("tcp4", addr(host, port))
	if err != nil {
		return nil, fmt.Errorf("transport: connect to %s: %w", addr(host, port), err)
	}
	return conn, nil
}

// ShutdownAndClose performs a bidirectional TCP shutdown followed by a
// close. The explicit shutdown sends a FIN to the peer before the
// descriptor is released, so the peer observes an orderly close
// rather than a reset, and any goroutine blocked on the connection is
// woken.
func ShutdownAndClose(conn net.Conn) error {
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.CloseRead()
		tcp.CloseWrite()
	}
	return conn.Close()
}

func addr(host string, port uint16) string {
	return fmt.Sprintf("%s:%d", host, port)
}
