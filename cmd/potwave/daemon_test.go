package main

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"potwave/internal/helix"
)

func quietLogger() *slog.Logger {
	return newLogger(io.Discard, LogLevelError)
}

// fakeStarter records connection attempts instead of opening a link.
type fakeStarter struct {
	mu       sync.Mutex
	attempts []int
}

func (f *fakeStarter) Start(attempt int) {
	f.mu.Lock()
	f.attempts = append(f.attempts, attempt)
	f.mu.Unlock()
}

func (f *fakeStarter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.attempts)
}

type daemonHarness struct {
	events  chan Event
	slot    *helix.TargetSlot
	link    *linkView
	starter *fakeStarter
	cancel  context.CancelFunc
	done    chan struct{}
}

func startDaemon(t *testing.T) *daemonHarness {
	t.Helper()
	cfg := helix.DefaultSpeedConfig()
	h := &daemonHarness{
		events:  make(chan Event, eventQueueSize),
		slot:    &helix.TargetSlot{},
		link:    &linkView{},
		starter: &fakeStarter{},
		done:    make(chan struct{}),
	}
	env := &effectEnv{
		slot:         h.slot,
		link:         h.link,
		connector:    h.starter,
		currentSpeed: func() float64 { return 0.042 },
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		defer close(h.done)
		runDaemon(ctx, h.events, helix.NewConditioner(cfg), env, NewDaemonState(helix.NewSpeedState(cfg), "fake"), quietLogger())
	}()
	t.Cleanup(h.stop)
	return h
}

func (h *daemonHarness) stop() {
	h.cancel()
	<-h.done
}

func (h *daemonHarness) status(t *testing.T) StatusSnapshot {
	t.Helper()
	reply := make(chan StatusSnapshot, 1)
	h.events <- RequestStatus{Reply: reply}
	select {
	case snap := <-reply:
		return snap
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for status")
		return StatusSnapshot{}
	}
}

func TestDaemon_SamplesReachTargetSlot(t *testing.T) {
	h := startDaemon(t)

	for _, raw := range []string{"100", "garbage", "900"} {
		h.events <- SampleReceived{Raw: raw}
	}

	snap := h.status(t)
	if snap.Accepted != 2 || snap.Discarded != 1 || snap.LastSample != 900 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.CurrentSpeed != 0.042 {
		t.Fatalf("current speed %v not taken from render loop", snap.CurrentSpeed)
	}

	v, ok := h.slot.Take()
	if !ok {
		t.Fatalf("no target published")
	}
	if v != snap.TargetSpeed {
		t.Fatalf("slot holds %v, daemon target %v", v, snap.TargetSpeed)
	}
	if v < helix.DefaultMinSpeed || v > helix.DefaultMaxSpeed {
		t.Fatalf("target %v out of range", v)
	}
}

func TestDaemon_ConnectStartsOneAttempt(t *testing.T) {
	h := startDaemon(t)

	h.events <- ConnectRequested{}
	h.events <- ConnectRequested{}
	h.events <- ConnectRequested{}

	waitUntil(t, time.Second, func() bool { return h.starter.count() >= 1 }, "connect never started")
	snap := h.status(t)
	if h.starter.count() != 1 || snap.Attempts != 1 {
		t.Fatalf("attempts = %d (status %d), want 1", h.starter.count(), snap.Attempts)
	}
	if phase, _ := h.link.Load(); phase != LinkConnecting {
		t.Fatalf("display sees %s, want connecting", phase)
	}

	h.events <- LinkPhaseChanged{Phase: LinkFailed, Err: "no such device"}
	waitUntil(t, time.Second, func() bool {
		p, _ := h.link.Load()
		return p == LinkFailed
	}, "failure not published")
	if _, errText := h.link.Load(); errText != "no such device" {
		t.Fatalf("error text = %q", errText)
	}

	h.events <- ConnectRequested{}
	waitUntil(t, time.Second, func() bool { return h.starter.count() == 2 }, "retry never started")
}

func TestDaemon_StopsOnClosedChannel(t *testing.T) {
	cfg := helix.DefaultSpeedConfig()
	events := make(chan Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		runDaemon(context.Background(), events, helix.NewConditioner(cfg), &effectEnv{}, NewDaemonState(helix.NewSpeedState(cfg), ""), quietLogger())
	}()
	close(events)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("daemon did not stop")
	}
}

func TestRunEffect_NoConnectorFails(t *testing.T) {
	var got []Event
	runEffect(&effectEnv{}, CmdOpenSource{Attempt: 1}, quietLogger(), func(ev Event) { got = append(got, ev) })
	if len(got) != 1 {
		t.Fatalf("expected one event, got %v", got)
	}
	if lc, ok := got[0].(LinkPhaseChanged); !ok || lc.Phase != LinkFailed {
		t.Fatalf("event = %#v", got[0])
	}
}

func TestRunEffect_StatusNeverBlocks(t *testing.T) {
	full := make(chan StatusSnapshot) // unbuffered, nobody reading
	done := make(chan struct{})
	go func() {
		runEffect(&effectEnv{}, CmdPublishStatus{Reply: full}, quietLogger(), nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("runEffect blocked on status reply")
	}
}
