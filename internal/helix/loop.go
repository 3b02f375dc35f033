package helix

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// TargetSlot hands the latest target speed from the conditioner goroutine to
// the render goroutine. Only the most recent Put is kept.
type TargetSlot struct {
	mu  sync.Mutex
	v   float64
	set bool
}

// Put stores v, replacing any value not yet taken.
func (s *TargetSlot) Put(v float64) {
	s.mu.Lock()
	s.v, s.set = v, true
	s.mu.Unlock()
}

// Take returns the pending value and empties the slot.
func (s *TargetSlot) Take() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return 0, false
	}
	s.set = false
	return s.v, true
}

// FrameFunc draws one frame onto the surface it is handed.
type FrameFunc func(Surface)

// Scheduler runs a FrameFunc on the next display refresh. It fixes the frame
// rate; nothing in this package assumes one.
type Scheduler interface {
	ScheduleNextFrame(FrameFunc)
}

// Loop ties a renderer to a scheduler. Every frame it picks up the latest
// published target, renders, then asks for the next frame.
type Loop struct {
	renderer *Renderer
	slot     *TargetSlot
	sched    Scheduler
	state    SpeedState

	// OnFrame, if set, runs after each rendered frame on the render goroutine.
	OnFrame func(Surface, SpeedState)

	current atomic.Uint64 // math.Float64bits of state.CurrentSpeed
	frames  atomic.Uint64
}

// NewLoop returns a loop starting from initial.
func NewLoop(r *Renderer, slot *TargetSlot, sched Scheduler, initial SpeedState) *Loop {
	l := &Loop{renderer: r, slot: slot, sched: sched, state: initial}
	l.current.Store(math.Float64bits(initial.CurrentSpeed))
	return l
}

// Start schedules the first frame.
func (l *Loop) Start() {
	l.sched.ScheduleNextFrame(l.frame)
}

// CurrentSpeed is safe to call from any goroutine.
func (l *Loop) CurrentSpeed() float64 {
	return math.Float64frombits(l.current.Load())
}

// Frames returns how many frames have been rendered.
func (l *Loop) Frames() uint64 { return l.frames.Load() }

func (l *Loop) frame(surf Surface) {
	if v, ok := l.slot.Take(); ok {
		l.state.TargetSpeed = v
	}
	l.renderer.Frame(surf, &l.state)
	l.current.Store(math.Float64bits(l.state.CurrentSpeed))
	l.frames.Add(1)

	if l.OnFrame != nil {
		l.OnFrame(surf, l.state)
	}
	l.sched.ScheduleNextFrame(l.frame)
}

// TickerScheduler drives frames from a time.Ticker onto a fixed surface. It
// stands in for a display when running headless.
type TickerScheduler struct {
	surf     Surface
	interval time.Duration

	mu   sync.Mutex
	next FrameFunc
}

// NewTickerScheduler renders onto surf at fps frames per second.
func NewTickerScheduler(surf Surface, fps int) *TickerScheduler {
	if fps <= 0 {
		fps = 60
	}
	return &TickerScheduler{surf: surf, interval: time.Second / time.Duration(fps)}
}

func (t *TickerScheduler) ScheduleNextFrame(f FrameFunc) {
	t.mu.Lock()
	t.next = f
	t.mu.Unlock()
}

// Step runs the pending frame, if any, and reports whether one ran.
func (t *TickerScheduler) Step() bool {
	t.mu.Lock()
	f := t.next
	t.next = nil
	t.mu.Unlock()
	if f == nil {
		return false
	}
	f(t.surf)
	return true
}

// Run steps once per interval until ctx is canceled.
func (t *TickerScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.Step()
		}
	}
}
