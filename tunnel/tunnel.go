// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

// Package tunnel wires a local loopback port to the device agent's
// abstract socket through adb, trying an ordered cascade of
// strategies.
//
// The preferred strategy is a reverse tunnel: the agent connects out
// to its well-known socket name and the connection surfaces on a host
// listener, so the host can listen before the agent even starts. Some
// transports (e.g. devices attached over "adb connect") cannot
// register reverse tunnels; the cascade then falls back to a forward
// tunnel, where the host dials a local port that surfaces on the
// device. Each strategy sweeps the candidate port range, moving to
// the next port when the current one is unusable.
package tunnel

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/screenwire/screenwire/adb"
	"github.com/screenwire/screenwire/transport"
)

// SocketName is the abstract socket the device agent serves on. The
// agent artifact hardcodes it; both tunnel strategies register it
// verbatim.
const SocketName = "scrcpy"

// Mode identifies the strategy that established the tunnel.
type Mode int

const (
	// ModeReverse: the agent connects into an adb reverse tunnel and
	// the client accepts on a host listener.
	ModeReverse Mode = iota

	// ModeForward: the client connects through an adb forward tunnel
	// and the agent accepts on the device.
	ModeForward
)

func (m Mode) String() string {
	switch m {
	case ModeReverse:
		return "reverse"
	case ModeForward:
		return "forward"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Tunnel is an established bridge tunnel. Exactly one of the two
// strategies is registered in the bridge at any time (until Disable).
type Tunnel struct {
	bridge    *adb.Bridge
	logger    *slog.Logger
	mode      Mode
	localPort uint16

	// listener is the host-side listener, reverse mode only.
	listener net.Listener
}

// Mode returns the strategy that established the tunnel.
func (t *Tunnel) Mode() Mode { return t.mode }

// LocalPort returns the host-side port of the tunnel.
func (t *Tunnel) LocalPort() uint16 { return t.localPort }

// Listener returns the host-side listener in reverse mode, nil in
// forward mode. Ownership stays with the caller's close-authority
// token; the tunnel never closes it.
func (t *Tunnel) Listener() net.Listener { return t.listener }

// Establish tries the strategy cascade over the closed port range
// [first, last]. Unless forceForward is set, the reverse strategy is
// attempted before falling back to forward.
func Establish(ctx context.Context, bridge *adb.Bridge, first, last uint16, forceForward bool, logger *slog.Logger) (*Tunnel, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if first > last {
		return nil, fmt.Errorf("tunnel: invalid port range %d:%d", first, last)
	}

	if !forceForward {
		tunnel, err := establishReverse(ctx, bridge, first, last, logger)
		if err == nil {
			return tunnel, nil
		}
		// "adb reverse" fails over some transports (e.g. "adb
		// connect"); the forward strategy still works there.
		logger.Warn("reverse tunnel failed, falling back to forward", "error", err)
	}

	return establishForward(ctx, bridge, first, last, logger)
}

// establishReverse sweeps the port range with the reverse strategy.
// For each candidate port it registers the reverse tunnel, then tries
// to bind the host listener; a port already in use is unregistered
// and the next port tried. A failure of the reverse command itself
// aborts the whole strategy: it will fail on every port.
func establishReverse(ctx context.Context, bridge *adb.Bridge, first, last uint16, logger *slog.Logger) (*Tunnel, error) {
	port := first
	for {
		if err := bridge.Reverse(ctx, SocketName, port); err != nil {
			return nil, err
		}

		// At the application level the device side is "the server"
		// (it serves video and control), but at the network level
		// the client listens and the agent connects back. Listening
		// before the agent starts means there is no connect-retry
		// dance in reverse mode.
		listener, err := transport.Listen(port)
		if err == nil {
			return &Tunnel{
				bridge:    bridge,
				logger:    logger,
				mode:      ModeReverse,
				localPort: port,
				listener:  listener,
			}, nil
		}

		if removeErr := bridge.ReverseRemove(ctx, SocketName); removeErr != nil {
			logger.Warn("could not remove reverse tunnel", "port", port, "error", removeErr)
		}

		// Compare before incrementing so port 65535 terminates
		// without wrapping.
		if port < last {
			logger.Warn("could not listen on port, retrying", "port", port, "next", port+1)
			port++
			continue
		}

		if first == last {
			return nil, fmt.Errorf("tunnel: could not listen on port %d: %w", first, err)
		}
		return nil, fmt.Errorf("tunnel: could not listen on any port in range %d:%d: %w", first, last, err)
	}
}

// establishForward sweeps the port range with the forward strategy.
// No host listener is needed: the client will dial into the tunnel.
func establishForward(ctx context.Context, bridge *adb.Bridge, first, last uint16, logger *slog.Logger) (*Tunnel, error) {
	port := first
	for {
		err := bridge.Forward(ctx, port, SocketName)
		if err == nil {
			return &Tunnel{
				bridge:    bridge,
				logger:    logger,
				mode:      ModeForward,
				localPort: port,
			}, nil
		}

		if port < last {
			logger.Warn("could not forward port, retrying", "port", port, "next", port+1)
			port++
			continue
		}

		if first == last {
			return nil, fmt.Errorf("tunnel: could not forward port %d: %w", first, err)
		}
		return nil, fmt.Errorf("tunnel: could not forward any port in range %d:%d: %w", first, last, err)
	}
}

// Disable unregisters the tunnel from the bridge. Teardown is
// best-effort: failures are logged, never propagated.
func (t *Tunnel) Disable(ctx context.Context) {
	var err error
	switch t.mode {
	case ModeReverse:
		err = t.bridge.ReverseRemove(ctx, SocketName)
	case ModeForward:
		err = t.bridge.ForwardRemove(ctx, t.localPort)
	}
	if err != nil {
		t.logger.Warn("could not remove tunnel", "mode", t.mode.String(), "port", t.localPort, "error", err)
	}
}
