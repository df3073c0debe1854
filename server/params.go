// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/screenwire/screenwire/lib/version"
)

// LogLevel is the log level shared between the client and the device
// agent. Its string form is what the agent expects on its command
// line.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "debug"
	case LogLevelInfo:
		return "info"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	default:
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
}

// Level maps the shared level onto slog for the client-side logger.
func (l LogLevel) Level() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLogLevel parses the agent-side level names.
func ParseLogLevel(s string) (LogLevel, error) {
	switch s {
	case "debug":
		return LogLevelDebug, nil
	case "info":
		return LogLevelInfo, nil
	case "warn":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// PortRange is the closed interval of candidate local ports for the
// tunnel. In direct mode First doubles as the remote service port.
type PortRange struct {
	First uint16
	Last  uint16
}

// Validate rejects empty and inverted ranges.
func (r PortRange) Validate() error {
	if r.First == 0 {
		return fmt.Errorf("first port must be non-zero")
	}
	if r.First > r.Last {
		return fmt.Errorf("invalid port range %d:%d", r.First, r.Last)
	}
	return nil
}

// Params are the session parameters forwarded to the device agent.
// They are immutable once Start begins.
type Params struct {
	LogLevel LogLevel

	// MaxSize bounds the larger dimension of the mirrored video, in
	// pixels. Zero means no bound.
	MaxSize uint16

	// BitRate is the target video bit rate in bits per second.
	BitRate uint32

	// MaxFPS caps the frame rate. Zero means no cap.
	MaxFPS uint16

	// LockVideoOrientation locks the video orientation: -1 unlocked,
	// 0-3 a fixed rotation.
	LockVideoOrientation int8

	// DisplayID selects the device display to mirror.
	DisplayID uint16

	// Crop is an optional crop expression "width:height:x:y". Empty
	// means no crop.
	Crop string

	// Control enables the input-event control stream.
	Control bool

	// ShowTouches enables the device "show touches" option.
	ShowTouches bool

	// StayAwake keeps the device awake while mirroring.
	StayAwake bool

	// CodecOptions is an optional comma-separated codec option list.
	CodecOptions string

	// EncoderName names a specific device encoder. Empty selects the
	// device default.
	EncoderName string

	// PortRange is the candidate local port range for the tunnel.
	PortRange PortRange

	// ForceForward skips the reverse tunnel strategy.
	ForceForward bool
}

// agentArgs builds the agent's positional argument list, in the exact
// order the agent parses it. tunnelForward tells the agent whether it
// must listen (forward tunnel) or connect back (reverse tunnel).
func (p *Params) agentArgs(tunnelForward bool) []string {
	return []string{
		version.Agent,
		p.LogLevel.String(),
		strconv.FormatUint(uint64(p.MaxSize), 10),
		strconv.FormatUint(uint64(p.BitRate), 10),
		strconv.FormatUint(uint64(p.MaxFPS), 10),
		strconv.FormatInt(int64(p.LockVideoOrientation), 10),
		boolString(tunnelForward),
		optString(p.Crop),
		"true", // always send frame meta (packet boundaries + timestamps)
		boolString(p.Control),
		strconv.FormatUint(uint64(p.DisplayID), 10),
		boolString(p.ShowTouches),
		boolString(p.StayAwake),
		optString(p.CodecOptions),
		optString(p.EncoderName),
	}
}

// controlArgs is the direct-mode variant: the agent always listens
// there, so the tunnel-forward flag is forced to "true".
func (p *Params) controlArgs() []string {
	return p.agentArgs(true)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// optString serializes an optional string, "-" when absent.
func optString(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
