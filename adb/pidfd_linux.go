// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package adb

import (
	"sync"

	"golang.org/x/sys/unix"
)

// openProcessHandle opens a pidfd for the freshly started process.
// The pidfd refers to this exact process for its whole lifetime, so a
// signal sent through it after the process has exited is a harmless
// ESRCH instead of a shot at whatever new process inherited the PID.
// Returns nil when the kernel does not support pidfds; callers fall
// back to signalling by PID.
func openProcessHandle(pid int) processHandle {
	fd, err := unix.PidfdOpen(pid, 0)
	if err != nil {
		return nil
	}
	return &pidfdHandle{fd: fd}
}

type pidfdHandle struct {
	once sync.Once
	fd   int
	err  error
}

func (h *pidfdHandle) terminate() error {
	h.once.Do(func() {
		err := unix.PidfdSendSignal(h.fd, unix.SIGKILL, nil, 0)
		if err != nil && err != unix.ESRCH {
			h.err = err
		}
		unix.Close(h.fd)
	})
	return h.err
}
