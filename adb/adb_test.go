// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

package adb

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeRunner records every command and scripts failures by command
// substring.
type fakeRunner struct {
	mu    sync.Mutex
	calls [][]string

	// failWhen maps a substring of the joined command line to the
	// output and error to return.
	failWhen map[string]string
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	call := append([]string{name}, args...)
	r.calls = append(r.calls, call)

	joined := strings.Join(call, " ")
	for substring, output := range r.failWhen {
		if strings.Contains(joined, substring) {
			return []byte(output), errors.New("exit status 1")
		}
	}
	return nil, nil
}

func (r *fakeRunner) Start(name string, args ...string) (Process, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{name}, args...))
	return nil, errors.New("fakeRunner does not start processes")
}

func (r *fakeRunner) lastCall(t *testing.T) []string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		t.Fatal("no command was run")
	}
	return r.calls[len(r.calls)-1]
}

func TestBridgeCommandLines(t *testing.T) {
	tests := []struct {
		name string
		call func(ctx context.Context, b *Bridge) error
		want []string
	}{
		{
			name: "push",
			call: func(ctx context.Context, b *Bridge) error {
				return b.Push(ctx, "/tmp/scrcpy-server", AgentDevicePath)
			},
			want: []string{"adb", "-s", "0123abcd", "push", "/tmp/scrcpy-server", "/data/local/tmp/scrcpy-server.jar"},
		},
		{
			name: "reverse",
			call: func(ctx context.Context, b *Bridge) error {
				return b.Reverse(ctx, "scrcpy", 27183)
			},
			want: []string{"adb", "-s", "0123abcd", "reverse", "localabstract:scrcpy", "tcp:27183"},
		},
		{
			name: "reverse remove",
			call: func(ctx context.Context, b *Bridge) error {
				return b.ReverseRemove(ctx, "scrcpy")
			},
			want: []string{"adb", "-s", "0123abcd", "reverse", "--remove", "localabstract:scrcpy"},
		},
		{
			name: "forward",
			call: func(ctx context.Context, b *Bridge) error {
				return b.Forward(ctx, 27184, "scrcpy")
			},
			want: []string{"adb", "-s", "0123abcd", "forward", "tcp:27184", "localabstract:scrcpy"},
		},
		{
			name: "forward remove",
			call: func(ctx context.Context, b *Bridge) error {
				return b.ForwardRemove(ctx, 27184)
			},
			want: []string{"adb", "-s", "0123abcd", "forward", "--remove", "tcp:27184"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			runner := &fakeRunner{}
			bridge := &Bridge{Serial: "0123abcd", Runner: runner}
			if err := test.call(context.Background(), bridge); err != nil {
				t.Fatalf("bridge call: %v", err)
			}
			if got := runner.lastCall(t); !reflect.DeepEqual(got, test.want) {
				t.Errorf("command = %q, want %q", got, test.want)
			}
		})
	}
}

func TestBridgeWithoutSerial(t *testing.T) {
	runner := &fakeRunner{}
	bridge := &Bridge{Runner: runner}
	if err := bridge.Reverse(context.Background(), "scrcpy", 27183); err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	want := []string{"adb", "reverse", "localabstract:scrcpy", "tcp:27183"}
	if got := runner.lastCall(t); !reflect.DeepEqual(got, want) {
		t.Errorf("command = %q, want %q", got, want)
	}
}

func TestBridgeCustomBinary(t *testing.T) {
	runner := &fakeRunner{}
	bridge := &Bridge{ADB: "/opt/platform-tools/adb", Runner: runner}
	if err := bridge.ForwardRemove(context.Background(), 27183); err != nil {
		t.Fatalf("ForwardRemove: %v", err)
	}
	if got := runner.lastCall(t)[0]; got != "/opt/platform-tools/adb" {
		t.Errorf("binary = %q, want custom adb path", got)
	}
}

func TestBridgeErrorCarriesOutput(t *testing.T) {
	runner := &fakeRunner{failWhen: map[string]string{
		"reverse": "error: closed\n",
	}}
	bridge := &Bridge{Runner: runner}
	err := bridge.Reverse(context.Background(), "scrcpy", 27183)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "adb reverse") {
		t.Errorf("error %q should name the command", err)
	}
	if !strings.Contains(err.Error(), "error: closed") {
		t.Errorf("error %q should carry the command output", err)
	}
}

func TestStartAgentCommandLine(t *testing.T) {
	runner := &fakeRunner{}
	bridge := &Bridge{Serial: "0123abcd", Runner: runner}

	// The fake runner rejects Start; only the recorded command line
	// matters here.
	bridge.StartAgent([]string{"1.17", "info", "0", "8000000"})

	want := []string{
		"adb", "-s", "0123abcd", "shell",
		"CLASSPATH=/data/local/tmp/scrcpy-server.jar",
		"app_process", "/", "com.genymobile.scrcpy.Server",
		"1.17", "info", "0", "8000000",
	}
	if got := runner.lastCall(t); !reflect.DeepEqual(got, want) {
		t.Errorf("command = %q, want %q", got, want)
	}
}

func TestExecRunnerRun(t *testing.T) {
	runner := ExecRunner()

	output, err := runner.Run(context.Background(), "sh", "-c", "echo ok")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(string(output)) != "ok" {
		t.Errorf("output = %q, want ok", output)
	}

	if _, err := runner.Run(context.Background(), "sh", "-c", "exit 3"); err == nil {
		t.Fatal("expected error for non-zero exit")
	}
}

func TestExecRunnerStartAndTerminate(t *testing.T) {
	runner := ExecRunner()

	process, err := runner.Start("sleep", "60")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitDone := make(chan error, 1)
	go func() { waitDone <- process.Wait() }()

	if err := process.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}

	select {
	case err := <-waitDone:
		if err == nil {
			t.Error("Wait should report the killed process as an error")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("process did not exit after Terminate")
	}
}

func TestTerminateAfterExit(t *testing.T) {
	runner := ExecRunner()

	process, err := runner.Start("true")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	process.Wait()

	// The process is gone; Terminate must not signal anything else
	// and must not fail.
	if err := process.Terminate(); err != nil {
		t.Errorf("Terminate after exit: %v", err)
	}
}

func TestStartMissingBinary(t *testing.T) {
	runner := ExecRunner()
	if _, err := runner.Start("/nonexistent/screenwire-adb"); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
