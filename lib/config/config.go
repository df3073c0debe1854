// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvVar is the environment variable naming the config file.
const EnvVar = "SCREENWIRE_CONFIG"

// Config is the client configuration for Screenwire.
type Config struct {
	// ADB is the adb binary to invoke. Defaults to "adb" (resolved
	// via PATH).
	ADB string `yaml:"adb"`

	// Serial selects a device when several are attached. Empty means
	// adb's default device selection.
	Serial string `yaml:"serial"`

	// URL is the base URL of a direct-mode control endpoint (e.g.
	// "http://10.0.0.2:8080"). When set, the device agent is reached
	// over plain IP networking and adb is not used.
	URL string `yaml:"url"`

	// Ports is the range of candidate local ports for the tunnel.
	Ports PortRange `yaml:"ports"`

	// Video holds the stream parameters forwarded to the agent.
	Video VideoConfig `yaml:"video"`

	// Control enables the input-event control stream.
	Control bool `yaml:"control"`

	// ShowTouches enables the device "show touches" option while
	// mirroring.
	ShowTouches bool `yaml:"show_touches"`

	// StayAwake keeps the device awake while mirroring.
	StayAwake bool `yaml:"stay_awake"`

	// ForceForward skips the reverse tunnel strategy and goes
	// straight to adb forward.
	ForceForward bool `yaml:"force_forward"`

	// LogLevel is the log level for both the client and the device
	// agent: debug, info, warn, or error.
	LogLevel string `yaml:"log_level"`
}

// PortRange is a closed interval of candidate local ports.
type PortRange struct {
	First uint16 `yaml:"first"`
	Last  uint16 `yaml:"last"`
}

// VideoConfig holds the stream parameters forwarded to the agent.
type VideoConfig struct {
	// MaxSize bounds the larger dimension of the mirrored video, in
	// pixels. Zero means no bound.
	MaxSize uint16 `yaml:"max_size"`

	// BitRate is the target video bit rate in bits per second.
	BitRate uint32 `yaml:"bit_rate"`

	// MaxFPS caps the frame rate. Zero means no cap.
	MaxFPS uint16 `yaml:"max_fps"`

	// LockOrientation locks the video orientation: -1 unlocked,
	// 0-3 a fixed rotation.
	LockOrientation int8 `yaml:"lock_orientation"`

	// DisplayID selects the device display to mirror.
	DisplayID uint16 `yaml:"display_id"`

	// Crop is an optional crop expression "width:height:x:y".
	Crop string `yaml:"crop"`

	// CodecOptions is an optional comma-separated codec option list
	// passed to the device encoder.
	CodecOptions string `yaml:"codec_options"`

	// Encoder names a specific device encoder. Empty selects the
	// device default.
	Encoder string `yaml:"encoder"`
}

// Default returns the built-in configuration: the stock port range and
// video parameters, control enabled.
func Default() Config {
	return Config{
		ADB: "adb",
		Ports: PortRange{
			First: 27183,
			Last:  27199,
		},
		Video: VideoConfig{
			BitRate:         8000000,
			LockOrientation: -1,
		},
		Control:  true,
		LogLevel: "info",
	}
}

// Load reads a config file and merges it over the defaults. When path
// is empty the SCREENWIRE_CONFIG environment variable is consulted;
// when that is also empty the defaults are returned unchanged.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the client core would
// reject later with a less helpful message.
func (c *Config) Validate() error {
	if c.ADB == "" && c.URL == "" {
		return fmt.Errorf("adb binary is required unless url is set")
	}
	if c.Ports.First == 0 {
		return fmt.Errorf("ports.first must be non-zero")
	}
	if c.Ports.First > c.Ports.Last {
		return fmt.Errorf("invalid port range %d:%d", c.Ports.First, c.Ports.Last)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
