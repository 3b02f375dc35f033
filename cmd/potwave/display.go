package main

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"potwave/internal/helix"
)

// display paces frames for a helix.Loop and presents them. The window build
// paces on vsync; the headless build paces on a ticker.
type display interface {
	helix.Scheduler
	Run(ctx context.Context, loop *helix.Loop) error
}

type displayDeps struct {
	cfg    DisplayConfig
	scene  *helix.Scene
	link   *linkView
	events chan<- Event
	logger *slog.Logger
}

var (
	buttonIdle      = color.RGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF}
	buttonBusy      = color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xFF}
	buttonFailed    = color.RGBA{R: 0xF4, G: 0x43, B: 0x36, A: 0xFF}
	buttonTextColor = color.White
)

// connectButton describes how the connect button looks for a link phase.
func connectButton(p LinkPhase) (label string, fill color.Color, enabled bool) {
	switch p {
	case LinkConnecting:
		return "Connecting...", buttonBusy, false
	case LinkStreaming:
		return "Connected", buttonBusy, false
	case LinkFailed:
		return "Retry connection", buttonFailed, true
	default:
		return "Connect", buttonIdle, true
	}
}

// requestConnect queues a connect request without blocking the render
// goroutine.
func requestConnect(events chan<- Event, logger *slog.Logger) {
	select {
	case events <- ConnectRequested{}:
	default:
		logger.Warn("event queue full, connect request dropped")
	}
}

// writeSnapshot saves the raster surface as dir/frame-NNNNNN.png.
func writeSnapshot(dir string, frame uint64, surf *helix.RasterSurface) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("frame-%06d.png", frame))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	if err := surf.WritePNG(f); err != nil {
		f.Close()
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close snapshot: %w", err)
	}
	return path, nil
}
