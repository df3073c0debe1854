// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/screenwire/screenwire/adb"
	"github.com/screenwire/screenwire/httpctl"
	"github.com/screenwire/screenwire/lib/clock"
	"github.com/screenwire/screenwire/transport"
	"github.com/screenwire/screenwire/tunnel"
)

// Retry tuning for the data-stream dialers. Tunnel endpoints are
// local and come up fast, so many short probes; direct endpoints sit
// on a real network, so fewer but longer ones.
const (
	tunnelDialAttempts = 100
	tunnelDialDelay    = 100 * time.Millisecond

	directDialAttempts = 12
	directDialDelay    = 1 * time.Second
)

// agentExitGrace is how long Stop waits for the agent to exit on its
// own after the sockets are closed, before killing it.
const agentExitGrace = 1 * time.Second

// Config describes one mirroring session.
type Config struct {
	// Serial selects a device when several are attached. Used only
	// in bridge (adb) mode.
	Serial string

	// URL switches the session to direct mode: the agent is reached
	// at this control endpoint over plain IP networking and adb is
	// never invoked.
	URL string

	// Addr is the direct-mode data address. Defaults to the host of
	// URL.
	Addr string

	// Params are the session parameters forwarded to the agent.
	Params Params

	// ADB is the adb binary to invoke. Defaults to "adb".
	ADB string

	// Runner overrides command execution, for tests. Nil uses
	// os/exec.
	Runner adb.Runner

	// HTTPClient overrides the direct-mode HTTP client.
	HTTPClient *http.Client

	// Logger receives structured log output. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	// Clock overrides time operations, for tests. Nil uses the real
	// clock.
	Clock clock.Clock

	// Getenv overrides environment lookup for the agent artifact
	// resolver, for tests. Nil uses os.Getenv.
	Getenv func(string) string
}

// Server drives one mirroring session through its lifecycle:
// Start, Connect, Stop. Lifecycle methods must be called from a
// single goroutine; the watchdog runs concurrently between Start and
// Stop.
type Server struct {
	logger *slog.Logger
	clk    clock.Clock
	getenv func(string) string
	params Params

	direct bool
	addr   string

	bridge  *adb.Bridge     // bridge mode only
	control *httpctl.Client // direct mode only

	// agent is set from a successful bridge-mode Start until Stop has
	// joined the watchdog. The channels are made in New and closed by
	// the watchdog.
	agent        adb.Process
	agentExited  chan struct{}
	watchdogDone chan struct{}

	// sessionID identifies a started direct-mode session.
	sessionID string

	tun          *tunnel.Tunnel
	tunnelActive bool

	// listener is the reverse-mode listening socket. Closed exactly
	// once, by whichever of watchdog, Connect, or Stop claims
	// listenClose first.
	listener    net.Listener
	listenClose transport.CloseOnce

	video       net.Conn
	controlConn net.Conn
}

// New validates the configuration and builds an inert Server. Nothing
// is acquired until Start.
func New(cfg Config) (*Server, error) {
	if err := cfg.Params.PortRange.Validate(); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	getenv := cfg.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	s := &Server{
		logger:       logger,
		clk:          clk,
		getenv:       getenv,
		params:       cfg.Params,
		agentExited:  make(chan struct{}),
		watchdogDone: make(chan struct{}),
	}

	if cfg.URL != "" {
		base := strings.TrimSuffix(cfg.URL, "/")
		addr := cfg.Addr
		if addr == "" {
			parsed, err := url.Parse(base)
			if err != nil {
				return nil, fmt.Errorf("server: invalid url %q: %w", cfg.URL, err)
			}
			addr = parsed.Hostname()
			if addr == "" {
				return nil, fmt.Errorf("server: url %q has no host", cfg.URL)
			}
		}
		s.direct = true
		s.addr = addr
		s.control = &httpctl.Client{
			BaseURL:    base,
			HTTPClient: cfg.HTTPClient,
			Logger:     logger,
		}
		return s, nil
	}

	s.bridge = &adb.Bridge{
		ADB:    cfg.ADB,
		Serial: cfg.Serial,
		Runner: cfg.Runner,
		Logger: logger,
	}
	return s, nil
}

// Direct reports whether the session runs in direct mode.
func (s *Server) Direct() bool { return s.direct }

// SessionID returns the identifier of a started direct-mode session,
// empty otherwise.
func (s *Server) SessionID() string { return s.sessionID }

// Tunnel returns the established tunnel, nil in direct mode or before
// Start.
func (s *Server) Tunnel() *tunnel.Tunnel { return s.tun }

// Start deploys and launches the device agent. It is transactional:
// on error, everything acquired so far has been released and the
// server is back to its inert state.
func (s *Server) Start(ctx context.Context) error {
	if s.direct {
		return s.startDirect(ctx)
	}
	return s.startBridge(ctx)
}

func (s *Server) startBridge(ctx context.Context) error {
	if err := s.pushAgent(ctx); err != nil {
		return err
	}

	tun, err := tunnel.Establish(ctx, s.bridge,
		s.params.PortRange.First, s.params.PortRange.Last,
		s.params.ForceForward, s.logger)
	if err != nil {
		return err
	}
	s.tun = tun
	s.listener = tun.Listener()

	agent, err := s.bridge.StartAgent(s.params.agentArgs(tun.Mode() == tunnel.ModeForward))
	if err != nil {
		// Unwind: the watchdog does not exist yet, so the token is
		// free and this close cannot race.
		s.listenClose.TryClose(s.listener)
		tun.Disable(ctx)
		s.tun = nil
		s.listener = nil
		return err
	}
	s.agent = agent

	// If the agent dies before connecting back, a reverse-mode
	// Connect would block in accept forever. The watchdog waits on
	// the process and force-closes the listener to wake it.
	go s.watchAgent()

	s.tunnelActive = true
	s.logger.Info("agent started",
		"mode", tun.Mode().String(),
		"local_port", tun.LocalPort(),
	)
	return nil
}

// pushAgent resolves the local agent artifact and uploads it to the
// device.
func (s *Server) pushAgent(ctx context.Context) error {
	path := resolveAgentPath(s.getenv, s.logger)
	if !isRegularFile(path) {
		return fmt.Errorf("server: agent artifact %q does not exist or is not a regular file", path)
	}
	return s.bridge.Push(ctx, path, adb.AgentDevicePath)
}

func (s *Server) startDirect(ctx context.Context) error {
	if err := s.control.Start(ctx, s.params.controlArgs()); err != nil {
		// The agent may have partially started before reporting
		// failure; ask it to stop as belt and braces.
		if stopErr := s.control.Stop(ctx); stopErr != nil {
			s.logger.Debug("cleanup stop after failed start", "error", stopErr)
		}
		return err
	}

	s.sessionID = uuid.NewString()
	s.logger.Info("remote agent started",
		"address", s.addr,
		"session_id", s.sessionID,
	)
	return nil
}

// Connect materializes the two data streams: video first, control
// second, in that order on the wire.
//
// In direct mode the remote data port is PortRange.First; the range
// semantics are local-only and the first port is overloaded as the
// remote service port.
func (s *Server) Connect(ctx context.Context) (video, control net.Conn, err error) {
	switch {
	case s.direct:
		return s.connectDirect()
	case s.tun != nil && s.tun.Mode() == tunnel.ModeForward:
		return s.connectForward(ctx)
	case s.tun != nil:
		return s.connectReverse()
	default:
		return nil, nil, fmt.Errorf("server: not started")
	}
}

func (s *Server) connectDirect() (net.Conn, net.Conn, error) {
	port := s.params.PortRange.First

	video, err := transport.DialProbeRetry(s.clk, s.logger, s.addr, port,
		directDialAttempts, directDialDelay)
	if err != nil {
		return nil, nil, err
	}
	s.video = video

	// The probe proved the agent is serving; no retries needed for
	// the second stream.
	control, err := transport.Dial(s.addr, port)
	if err != nil {
		// video stays owned by the server; Stop releases it.
		return nil, nil, err
	}
	s.controlConn = control
	return video, control, nil
}

func (s *Server) connectForward(ctx context.Context) (net.Conn, net.Conn, error) {
	port := s.tun.LocalPort()

	video, err := transport.DialProbeRetry(s.clk, s.logger, transport.LoopbackHost, port,
		tunnelDialAttempts, tunnelDialDelay)
	if err != nil {
		return nil, nil, err
	}
	s.video = video

	control, err := transport.Dial(transport.LoopbackHost, port)
	if err != nil {
		return nil, nil, err
	}
	s.controlConn = control

	// Both streams are up; the tunnel registration has served its
	// purpose and is removed in-flight.
	s.tun.Disable(ctx)
	s.tunnelActive = false
	return video, control, nil
}

func (s *Server) connectReverse() (net.Conn, net.Conn, error) {
	video, err := s.listener.Accept()
	if err != nil {
		return nil, nil, fmt.Errorf("server: accepting video stream: %w", err)
	}
	s.video = video

	control, err := s.listener.Accept()
	if err != nil {
		return nil, nil, fmt.Errorf("server: accepting control stream: %w", err)
	}
	s.controlConn = control

	// Both streams are accepted; release the listener unless the
	// watchdog already did.
	s.listenClose.TryClose(s.listener)
	return video, control, nil
}

// Stop tears the session down: sockets, tunnel registration, then the
// agent process. It never fails; teardown problems are logged. Stop
// is safe on a server that never started, and calling it again is a
// no-op.
func (s *Server) Stop(ctx context.Context) {
	s.listenClose.TryClose(s.listener)
	if s.video != nil {
		transport.ShutdownAndClose(s.video)
		s.video = nil
	}
	if s.controlConn != nil {
		transport.ShutdownAndClose(s.controlConn)
		s.controlConn = nil
	}

	if s.tunnelActive && !s.direct {
		s.tun.Disable(ctx)
		s.tunnelActive = false
	}

	if s.direct {
		if s.sessionID != "" {
			if err := s.control.Stop(ctx); err != nil {
				s.logger.Warn("could not stop remote agent", "error", err)
			}
			s.sessionID = ""
		}
		return
	}

	if s.agent == nil {
		return
	}

	// Closing the sockets normally makes the agent exit on its own;
	// give it a moment. On some devices the agent's blocking calls
	// survive the socket close while the device is asleep, so kill
	// it after the grace period.
	select {
	case <-s.agentExited:
	case <-s.clk.After(agentExitGrace):
		s.logger.Warn("agent did not exit, killing it")
		if err := s.agent.Terminate(); err != nil {
			s.logger.Warn("could not terminate agent", "error", err)
		}
	}

	<-s.watchdogDone
	s.agent = nil
}
