package main

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"potwave/internal/helix"
)

func TestConnectButton(t *testing.T) {
	tests := []struct {
		phase   LinkPhase
		label   string
		fill    color.Color
		enabled bool
	}{
		{LinkDisconnected, "Connect", buttonIdle, true},
		{LinkConnecting, "Connecting...", buttonBusy, false},
		{LinkStreaming, "Connected", buttonBusy, false},
		{LinkFailed, "Retry connection", buttonFailed, true},
		{"", "Connect", buttonIdle, true},
	}
	for _, tt := range tests {
		label, fill, enabled := connectButton(tt.phase)
		if label != tt.label || fill != tt.fill || enabled != tt.enabled {
			t.Errorf("connectButton(%q) = %q, %v, %v; want %q, %v, %v",
				tt.phase, label, fill, enabled, tt.label, tt.fill, tt.enabled)
		}
		// the button is clickable exactly when the reducer would act on it
		if enabled == tt.phase.Busy() {
			t.Errorf("connectButton(%q) enabled=%v but Busy()=%v", tt.phase, enabled, tt.phase.Busy())
		}
	}
}

func TestRequestConnect_DropsWhenFull(t *testing.T) {
	events := make(chan Event, 1)
	requestConnect(events, quietLogger())
	requestConnect(events, quietLogger()) // must not block

	if len(events) != 1 {
		t.Fatalf("queued %d events, want 1", len(events))
	}
	if ev := <-events; ev != (ConnectRequested{}) {
		t.Fatalf("queued %#v", ev)
	}
}

func TestWriteSnapshot(t *testing.T) {
	dir := t.TempDir()
	surf := helix.NewRasterSurface(40, 20, color.Black)
	surf.FillCircle(20, 10, 5, color.White)

	path, err := writeSnapshot(dir, 42, surf)
	if err != nil {
		t.Fatalf("writeSnapshot: %v", err)
	}
	if filepath.Base(path) != "frame-000042.png" {
		t.Fatalf("path = %q", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("bounds = %v", b)
	}

	if _, err := writeSnapshot(filepath.Join(dir, "missing"), 1, surf); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}
