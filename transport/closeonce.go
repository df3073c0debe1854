// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"net"
	"sync/atomic"
)

// CloseOnce is a one-shot close-authority token for a shared listener.
// Multiple goroutines may call TryClose; exactly one performs the
// close. The zero value is ready to use.
type CloseOnce struct {
	closed atomic.Bool
}

// TryClose closes the listener if and only if the caller is the first
// to claim the token. Returns true when this call performed the close.
// A nil listener is never closed and does not consume the token.
func (c *CloseOnce) TryClose(listener net.Listener) bool {
	if listener == nil {
		return false
	}
	if !c.closed.CompareAndSwap(false, true) {
		return false
	}
	listener.Close()
	return true
}

// Closed reports whether the token has been claimed.
func (c *CloseOnce) Closed() bool {
	return c.closed.Load()
}
