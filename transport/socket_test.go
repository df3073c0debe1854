// Copyright 2026 The Screenwire Authors
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/screenwire/screenwire/lib/testutil"
)

// listenLoopback binds an ephemeral loopback listener and returns it
// with its port.
func listenLoopback(t *testing.T) (net.Listener, uint16) {
	t.Helper()
	listener, err := Listen(0)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })
	return listener, uint16(listener.Addr().(*net.TCPAddr).Port)
}

func TestListenAndDial(t *testing.T) {
	listener, port := listenLoopback(t)

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	client, err := Dial(LoopbackHost, port)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	server := testutil.RequireReceive(t, accepted, 5*time.Second, "waiting for accept")
	defer server.Close()

	if _, err := server.Write([]byte("hi")); err != nil {
		t.Fatalf("server write: %v", err)
	}
	buffer := make([]byte, 2)
	if _, err := io.ReadFull(client, buffer); err != nil {
		t.Fatalf("client read: %v", err)
	}
	if string(buffer) != "hi" {
		t.Fatalf("read %q, want %q", buffer, "hi")
	}
}

func TestDialRefused(t *testing.T) {
	listener, port := listenLoopback(t)
	listener.Close()

	if _, err := Dial(LoopbackHost, port); err == nil {
		t.Fatal("expected connection refused")
	}
}

func TestShutdownAndCloseDeliversEOF(t *testing.T) {
	listener, port := listenLoopback(t)

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	client, err := Dial(LoopbackHost, port)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	server := testutil.RequireReceive(t, accepted, 5*time.Second, "waiting for accept")
	defer server.Close()

	if err := ShutdownAndClose(client); err != nil {
		t.Fatalf("ShutdownAndClose: %v", err)
	}

	// The peer sees an orderly end of stream, not a reset.
	buffer := make([]byte, 1)
	if _, err := server.Read(buffer); err != io.EOF {
		t.Fatalf("peer read error = %v, want io.EOF", err)
	}
}

func TestCloseOnceSingleWinner(t *testing.T) {
	listener, _ := listenLoopback(t)

	var token CloseOnce
	if token.Closed() {
		t.Fatal("fresh token reports closed")
	}
	if !token.TryClose(listener) {
		t.Fatal("first TryClose should win")
	}
	if token.TryClose(listener) {
		t.Fatal("second TryClose should lose")
	}
	if !token.Closed() {
		t.Fatal("token should report closed")
	}
}

func TestCloseOnceNilListener(t *testing.T) {
	var token CloseOnce
	if token.TryClose(nil) {
		t.Fatal("nil listener must not claim the token")
	}
	if token.Closed() {
		t.Fatal("token must stay unclaimed after nil TryClose")
	}
}

func TestCloseOnceConcurrent(t *testing.T) {
	listener, _ := listenLoopback(t)

	var token CloseOnce
	var wins int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if token.TryClose(listener) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("TryClose winners = %d, want exactly 1", wins)
	}
}

func TestCloseOnceUnblocksAccept(t *testing.T) {
	listener, _ := listenLoopback(t)

	acceptDone := make(chan error, 1)
	go func() {
		_, err := listener.Accept()
		acceptDone <- err
	}()

	var token CloseOnce
	if !token.TryClose(listener) {
		t.Fatal("TryClose should win")
	}

	err := testutil.RequireReceive(t, acceptDone, 5*time.Second, "waiting for accept to unblock")
	if err == nil {
		t.Fatal("accept should fail after listener close")
	}
}
