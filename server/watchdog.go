// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

package server

// watchAgent is the agent watchdog. It blocks until the agent process
// exits, publishes the exit, and force-closes the reverse-mode
// listener if it still holds the close-authority token, waking any
// accept blocked in Connect.
//
// The listener field is written before this goroutine starts and
// never after, so reading it here without the token would still be
// safe; the token is what makes the close itself happen exactly once
// across watchdog, Connect, and Stop.
func (s *Server) watchAgent() {
	defer close(s.watchdogDone)

	s.agent.Wait() // exit status deliberately ignored
	close(s.agentExited)

	if s.listenClose.TryClose(s.listener) {
		s.logger.Debug("listener closed by watchdog")
	}
	s.logger.Debug("agent terminated")
}
