package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// shortSocketPath keeps unix socket paths under the sun_path limit, which
// t.TempDir can exceed on some systems.
func shortSocketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "pw")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "ipc.sock")
}

// startIPC runs the IPC server plus a stand-in daemon that records events
// and answers status requests.
func startIPC(t *testing.T, events chan Event) (string, <-chan Event) {
	t.Helper()
	path := shortSocketPath(t)
	ctx, cancel := context.WithCancel(context.Background())

	seen := make(chan Event, 16)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-events:
				if rs, ok := ev.(RequestStatus); ok {
					rs.Reply <- StatusSnapshot{Link: LinkStreaming, Source: "fake", LastSample: 512, Accepted: 3}
					continue
				}
				seen <- ev
			}
		}
	}()

	done := make(chan error, 1)
	go func() { done <- runIPCServer(ctx, path, events, quietLogger()) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("runIPCServer: %v", err)
			}
		case <-time.After(time.Second):
			t.Errorf("IPC server did not stop")
		}
	})

	waitUntil(t, time.Second, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, "socket never appeared")
	return path, seen
}

func TestIPC_ConnectAndSample(t *testing.T) {
	path, seen := startIPC(t, make(chan Event, eventQueueSize))

	for _, ev := range []Event{ConnectRequested{}, SampleReceived{Raw: "640"}} {
		resp, err := SendIPCEvent(path, ev)
		if err != nil {
			t.Fatalf("SendIPCEvent(%T): %v", ev, err)
		}
		if resp.Status != "ok" {
			t.Fatalf("status = %q", resp.Status)
		}
		select {
		case got := <-seen:
			if got != ev {
				t.Fatalf("daemon got %#v, want %#v", got, ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %T never reached the daemon", ev)
		}
	}
}

func TestIPC_Status(t *testing.T) {
	path, _ := startIPC(t, make(chan Event, eventQueueSize))

	resp, err := SendIPCEvent(path, RequestStatus{})
	if err != nil {
		t.Fatalf("SendIPCEvent: %v", err)
	}
	var snap StatusSnapshot
	if err := json.Unmarshal(resp.Data, &snap); err != nil {
		t.Fatalf("decode data %q: %v", resp.Data, err)
	}
	if snap.Link != LinkStreaming || snap.LastSample != 512 || snap.Accepted != 3 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestIPC_BadRequestKeepsConnection(t *testing.T) {
	path, _ := startIPC(t, make(chan Event, eventQueueSize))

	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

	r := bufio.NewReader(conn)
	for _, line := range []string{"not json", `{"type":"reboot"}`} {
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
		raw, err := r.ReadBytes('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var resp IPCResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
		if resp.Status != "error" || resp.Error == "" {
			t.Fatalf("%q: resp = %+v", line, resp)
		}
	}

	// the same connection still serves valid requests
	if _, err := conn.Write([]byte(`{"type":"connect"}` + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, err := r.ReadBytes('\n')
	if err != nil || !strings.Contains(string(raw), `"ok"`) {
		t.Fatalf("connect after errors: %q, %v", raw, err)
	}
}

func TestIPC_QueueFull(t *testing.T) {
	path := shortSocketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan Event) // no daemon
	go runIPCServer(ctx, path, events, quietLogger())
	waitUntil(t, time.Second, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, "socket never appeared")

	resp, err := SendIPCEvent(path, ConnectRequested{})
	if err == nil {
		t.Fatalf("expected error, got %+v", resp)
	}
	if resp.Error != "event queue full" {
		t.Fatalf("error = %q", resp.Error)
	}
}

func TestSendIPCEvent_NoServer(t *testing.T) {
	if _, err := SendIPCEvent(shortSocketPath(t), ConnectRequested{}); err == nil {
		t.Fatalf("expected connect error")
	}
}

func TestCtl(t *testing.T) {
	path, seen := startIPC(t, make(chan Event, eventQueueSize))

	var stdout, stderr bytes.Buffer
	if code := runCtlSubcommand([]string{"-ipc-socket", path, "sample", "77"}, &stdout, &stderr); code != 0 {
		t.Fatalf("sample: exit %d, stderr %q", code, stderr.String())
	}
	if strings.TrimSpace(stdout.String()) != "ok" {
		t.Fatalf("stdout = %q", stdout.String())
	}
	select {
	case ev := <-seen:
		if ev != (SampleReceived{Raw: "77"}) {
			t.Fatalf("daemon got %#v", ev)
		}
	case <-time.After(time.Second):
		t.Fatalf("sample never reached the daemon")
	}

	stdout.Reset()
	if code := runCtlSubcommand([]string{"-ipc-socket", path, "status"}, &stdout, &stderr); code != 0 {
		t.Fatalf("status: exit %d, stderr %q", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), `"link": "streaming"`) {
		t.Fatalf("status output = %q", stdout.String())
	}
}

func TestCtl_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no command", nil, 2},
		{"unknown command", []string{"reboot"}, 2},
		{"sample without value", []string{"sample"}, 2},
		{"bad flag", []string{"-nope"}, 2},
		{"help", []string{"-h"}, 0},
		{"no daemon", []string{"-ipc-socket", filepath.Join(t.TempDir(), "none.sock"), "connect"}, 1},
	}
	for _, tt := range tests {
		var stdout, stderr bytes.Buffer
		if got := runCtlSubcommand(tt.args, &stdout, &stderr); got != tt.want {
			t.Errorf("%s: exit %d, want %d (stderr %q)", tt.name, got, tt.want, stderr.String())
		}
	}
}
