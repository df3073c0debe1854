// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

// screenwire mirrors an Android device's screen to this machine.
//
// Usage:
//
//	screenwire [flags]
//
// The device agent is deployed over adb and connected through a
// reverse or forward tunnel; with --url the agent is reached directly
// over IP networking instead. The established video stream is written
// to --sink (discarded by default); decoding and input injection are
// handled by the display front end, not this binary.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/screenwire/screenwire/lib/config"
	"github.com/screenwire/screenwire/lib/process"
	"github.com/screenwire/screenwire/lib/version"
	"github.com/screenwire/screenwire/server"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		process.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("screenwire", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to config file (default: $"+config.EnvVar+")")
	serial := flags.StringP("serial", "s", "", "device serial (when several devices are attached)")
	directURL := flags.String("url", "", "direct-mode control endpoint, e.g. http://10.0.0.2:8080")
	directAddr := flags.String("addr", "", "direct-mode data address (default: host of --url)")
	ports := flags.String("ports", "", "local port range first[:last]")
	adbPath := flags.String("adb", "", "adb binary")
	maxSize := flags.Uint16("max-size", 0, "bound on the larger video dimension, 0 = unlimited")
	bitRate := flags.Uint32P("bit-rate", "b", 0, "video bit rate in bits per second")
	maxFPS := flags.Uint16("max-fps", 0, "frame rate cap, 0 = none")
	lockOrientation := flags.Int8("lock-video-orientation", -1, "lock video orientation: -1 unlocked, 0-3 fixed rotation")
	displayID := flags.Uint16("display", 0, "device display id to mirror")
	crop := flags.String("crop", "", "crop the device screen: width:height:x:y")
	codecOptions := flags.String("codec-options", "", "codec options passed to the device encoder")
	encoder := flags.String("encoder", "", "device encoder name")
	noControl := flags.BoolP("no-control", "n", false, "disable the input control stream")
	showTouches := flags.BoolP("show-touches", "t", false, "enable device \"show touches\" while mirroring")
	stayAwake := flags.BoolP("stay-awake", "w", false, "keep the device awake while mirroring")
	forceForward := flags.Bool("force-adb-forward", false, "skip the reverse tunnel strategy")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn, error")
	sink := flags.String("sink", "", "file to write the raw video stream to (default: discard)")
	showVersion := flags.BoolP("version", "v", false, "print version and exit")

	if err := flags.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintf(stdout, "screenwire %s (agent %s)\n", version.Info(), version.Agent)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	err = applyFlags(&cfg, flags, flagValues{
		serial:          *serial,
		url:             *directURL,
		ports:           *ports,
		adb:             *adbPath,
		maxSize:         *maxSize,
		bitRate:         *bitRate,
		maxFPS:          *maxFPS,
		lockOrientation: *lockOrientation,
		displayID:       *displayID,
		crop:            *crop,
		codecOptions:    *codecOptions,
		encoder:         *encoder,
		noControl:       *noControl,
		showTouches:     *showTouches,
		stayAwake:       *stayAwake,
		forceForward:    *forceForward,
		logLevel:        *logLevel,
	})
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := server.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level.Level(),
	}))

	s, err := server.New(server.Config{
		Serial: cfg.Serial,
		URL:    cfg.URL,
		Addr:   *directAddr,
		ADB:    cfg.ADB,
		Params: paramsFromConfig(cfg, level),
		Logger: logger,
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		return err
	}
	video, control, err := s.Connect(ctx)
	if err != nil {
		s.Stop(ctx)
		return err
	}
	logger.Info("session established")

	videoSink := io.Discard
	if *sink != "" {
		file, createErr := os.Create(*sink)
		if createErr != nil {
			s.Stop(ctx)
			return fmt.Errorf("creating sink: %w", createErr)
		}
		defer file.Close()
		videoSink = file
	}

	streamDone := make(chan error, 1)
	go func() {
		_, copyErr := io.Copy(videoSink, video)
		streamDone <- copyErr
	}()
	// The control stream carries device-to-client messages (clipboard
	// sync and the like) consumed by the display front end; here it
	// is only drained so the agent never blocks on it.
	go io.Copy(io.Discard, control)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	select {
	case <-signals:
		logger.Info("interrupted, shutting down")
	case streamErr := <-streamDone:
		if streamErr != nil {
			logger.Warn("video stream ended", "error", streamErr)
		} else {
			logger.Info("video stream ended")
		}
	}

	s.Stop(ctx)
	return nil
}

// flagValues carries the parsed flag values into applyFlags; only
// flags the user actually set override the config file.
type flagValues struct {
	serial          string
	url             string
	ports           string
	adb             string
	maxSize         uint16
	bitRate         uint32
	maxFPS          uint16
	lockOrientation int8
	displayID       uint16
	crop            string
	codecOptions    string
	encoder         string
	noControl       bool
	showTouches     bool
	stayAwake       bool
	forceForward    bool
	logLevel        string
}

func applyFlags(cfg *config.Config, flags *pflag.FlagSet, values flagValues) error {
	if flags.Changed("serial") {
		cfg.Serial = values.serial
	}
	if flags.Changed("url") {
		cfg.URL = values.url
	}
	if flags.Changed("adb") {
		cfg.ADB = values.adb
	}
	if flags.Changed("ports") {
		first, last, err := parsePortRange(values.ports)
		if err != nil {
			return err
		}
		cfg.Ports = config.PortRange{First: first, Last: last}
	}
	if flags.Changed("max-size") {
		cfg.Video.MaxSize = values.maxSize
	}
	if flags.Changed("bit-rate") {
		cfg.Video.BitRate = values.bitRate
	}
	if flags.Changed("max-fps") {
		cfg.Video.MaxFPS = values.maxFPS
	}
	if flags.Changed("lock-video-orientation") {
		cfg.Video.LockOrientation = values.lockOrientation
	}
	if flags.Changed("display") {
		cfg.Video.DisplayID = values.displayID
	}
	if flags.Changed("crop") {
		cfg.Video.Crop = values.crop
	}
	if flags.Changed("codec-options") {
		cfg.Video.CodecOptions = values.codecOptions
	}
	if flags.Changed("encoder") {
		cfg.Video.Encoder = values.encoder
	}
	if flags.Changed("no-control") {
		cfg.Control = !values.noControl
	}
	if flags.Changed("show-touches") {
		cfg.ShowTouches = values.showTouches
	}
	if flags.Changed("stay-awake") {
		cfg.StayAwake = values.stayAwake
	}
	if flags.Changed("force-adb-forward") {
		cfg.ForceForward = values.forceForward
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = values.logLevel
	}
	return nil
}

// parsePortRange parses a "first[:last]" port range argument. A bare
// port means a single-port range.
func parsePortRange(s string) (first, last uint16, err error) {
	firstText, lastText, hasLast := strings.Cut(s, ":")

	first64, err := strconv.ParseUint(firstText, 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid port range %q", s)
	}
	first = uint16(first64)
	last = first

	if hasLast {
		last64, parseErr := strconv.ParseUint(lastText, 10, 16)
		if parseErr != nil {
			return 0, 0, fmt.Errorf("invalid port range %q", s)
		}
		last = uint16(last64)
	}

	if first == 0 || first > last {
		return 0, 0, fmt.Errorf("invalid port range %q", s)
	}
	return first, last, nil
}

func paramsFromConfig(cfg config.Config, level server.LogLevel) server.Params {
	return server.Params{
		LogLevel:             level,
		MaxSize:              cfg.Video.MaxSize,
		BitRate:              cfg.Video.BitRate,
		MaxFPS:               cfg.Video.MaxFPS,
		LockVideoOrientation: cfg.Video.LockOrientation,
		DisplayID:            cfg.Video.DisplayID,
		Crop:                 cfg.Video.Crop,
		Control:              cfg.Control,
		ShowTouches:          cfg.ShowTouches,
		StayAwake:            cfg.StayAwake,
		CodecOptions:         cfg.Video.CodecOptions,
		EncoderName:          cfg.Video.Encoder,
		PortRange:            server.PortRange{First: cfg.Ports.First, Last: cfg.Ports.Last},
		ForceForward:         cfg.ForceForward,
	}
}
