// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

package adb

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
)

// AgentDevicePath is where the agent artifact is pushed on the device.
const AgentDevicePath = "/data/local/tmp/scrcpy-server.jar"

// agentClass is the entry point executed by app_process on the device.
const agentClass = "com.genymobile.scrcpy.Server"

// Bridge invokes adb commands against one device.
type Bridge struct {
	// ADB is the adb binary to invoke. Defaults to "adb" (resolved
	// via PATH).
	ADB string

	// Serial selects the target device. Empty means adb's default
	// device selection.
	Serial string

	// Runner executes the commands. If nil, ExecRunner() is used.
	Runner Runner

	// Logger receives structured log output. If nil, slog.Default()
	// is used. Command lines are logged at Debug level.
	Logger *slog.Logger
}

func (b *Bridge) binary() string {
	if b.ADB != "" {
		return b.ADB
	}
	return "adb"
}

func (b *Bridge) runner() Runner {
	if b.Runner != nil {
		return b.Runner
	}
	return ExecRunner()
}

func (b *Bridge) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// args prepends the device selector to an adb subcommand.
func (b *Bridge) args(subcommand ...string) []string {
	var args []string
	if b.Serial != "" {
		args = append(args, "-s", b.Serial)
	}
	return append(args, subcommand...)
}

// run executes an adb subcommand to completion. A non-zero exit
// status becomes an error labelled with the human-readable command
// name and carrying the command output.
func (b *Bridge) run(ctx context.Context, label string, subcommand ...string) error {
	args := b.args(subcommand...)
	b.logger().Debug("running bridge command", "command", label, "args", args)

	output, err := b.runner().Run(ctx, b.binary(), args...)
	if err != nil {
		trimmed := bytes.TrimSpace(output)
		if len(trimmed) > 0 {
			return fmt.Errorf("%s: %w: %s", label, err, trimmed)
		}
		return fmt.Errorf("%s: %w", label, err)
	}
	return nil
}

// Push uploads the agent artifact to the device at devicePath.
func (b *Bridge) Push(ctx context.Context, localPath, devicePath string) error {
	return b.run(ctx, "adb push", "push", localPath, devicePath)
}

// Reverse registers a reverse tunnel: connections the device makes to
// the named abstract socket surface as inbound connections on the
// host's localPort.
func (b *Bridge) Reverse(ctx context.Context, socketName string, localPort uint16) error {
	return b.run(ctx, "adb reverse",
		"reverse", abstract(socketName), tcp(localPort))
}

// ReverseRemove unregisters a reverse tunnel by socket name.
func (b *Bridge) ReverseRemove(ctx context.Context, socketName string) error {
	return b.run(ctx, "adb reverse --remove",
		"reverse", "--remove", abstract(socketName))
}

// Forward registers a forward tunnel: connections the host makes to
// localPort surface on the device at the named abstract socket.
func (b *Bridge) Forward(ctx context.Context, localPort uint16, socketName string) error {
	return b.run(ctx, "adb forward",
		"forward", tcp(localPort), abstract(socketName))
}

// ForwardRemove unregisters a forward tunnel by local port.
func (b *Bridge) ForwardRemove(ctx context.Context, localPort uint16) error {
	return b.run(ctx, "adb forward --remove",
		"forward", "--remove", tcp(localPort))
}

// StartAgent launches the device agent via app_process and returns a
// handle on the running adb shell process. agentArgs are the agent's
// positional arguments, appended after the class name.
func (b *Bridge) StartAgent(agentArgs []string) (Process, error) {
	subcommand := append([]string{
		"shell",
		"CLASSPATH=" + AgentDevicePath,
		"app_process",
		"/", // app_process requires a parent directory argument; unused
		agentClass,
	}, agentArgs...)

	args := b.args(subcommand...)
	b.logger().Debug("launching device agent", "args", args)

	process, err := b.runner().Start(b.binary(), args...)
	if err != nil {
		return nil, fmt.Errorf("adb shell app_process: %w", err)
	}
	return process, nil
}

func abstract(socketName string) string {
	return "localabstract:" + socketName
}

func tcp(port uint16) string {
	return fmt.Sprintf("tcp:%d", port)
}
