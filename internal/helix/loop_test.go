package helix

import (
	"context"
	"testing"
	"time"
)

func TestTargetSlot_LatestWins(t *testing.T) {
	var s TargetSlot
	if _, ok := s.Take(); ok {
		t.Fatalf("empty slot returned a value")
	}
	s.Put(0.01)
	s.Put(0.02)
	s.Put(0.03)
	v, ok := s.Take()
	if !ok || v != 0.03 {
		t.Fatalf("Take() = %v,%v want 0.03,true", v, ok)
	}
	if _, ok := s.Take(); ok {
		t.Fatalf("slot not emptied by Take")
	}
}

func TestLoop_PicksUpPublishedTarget(t *testing.T) {
	r := newTestRenderer(t)
	surf := &recordingSurface{w: 300, h: 200}
	sched := NewTickerScheduler(surf, 60)
	var slot TargetSlot

	initial := NewSpeedState(DefaultSpeedConfig())
	loop := NewLoop(r, &slot, sched, initial)

	var seen []SpeedState
	loop.OnFrame = func(_ Surface, st SpeedState) { seen = append(seen, st) }

	if sched.Step() {
		t.Fatalf("Step ran a frame before Start")
	}
	loop.Start()

	slot.Put(0.08)
	if !sched.Step() {
		t.Fatalf("first frame not scheduled")
	}
	if !sched.Step() {
		t.Fatalf("loop did not reschedule itself")
	}

	if loop.Frames() != 2 || len(seen) != 2 {
		t.Fatalf("frames = %d (hook %d), want 2", loop.Frames(), len(seen))
	}
	if seen[0].TargetSpeed != 0.08 {
		t.Fatalf("target = %v, want 0.08", seen[0].TargetSpeed)
	}
	if got := loop.CurrentSpeed(); got <= initial.CurrentSpeed || got >= 0.08 {
		t.Fatalf("current speed %v should move from %v toward 0.08", got, initial.CurrentSpeed)
	}
	if surf.clears != 2 {
		t.Fatalf("clears = %d, want 2", surf.clears)
	}
}

func TestTickerScheduler_RunStopsOnCancel(t *testing.T) {
	surf := &recordingSurface{w: 10, h: 10}
	sched := NewTickerScheduler(surf, 200)

	ran := make(chan struct{}, 1)
	sched.ScheduleNextFrame(func(Surface) { ran <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatalf("scheduled frame never ran")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}
