//go:build headless

package main

import (
	"context"
	"fmt"
	"os"

	"potwave/internal/helix"
)

const headlessBuild = true

// headlessDisplay renders into an in-memory raster at a fixed rate and
// optionally writes every Nth frame as a PNG.
type headlessDisplay struct {
	deps  displayDeps
	surf  *helix.RasterSurface
	sched *helix.TickerScheduler
}

func newDisplay(deps displayDeps) (display, error) {
	surf := helix.NewRasterSurface(deps.cfg.Width, deps.cfg.Height, deps.scene.Background)
	return &headlessDisplay{
		deps:  deps,
		surf:  surf,
		sched: helix.NewTickerScheduler(surf, deps.cfg.HeadlessFPS),
	}, nil
}

func (d *headlessDisplay) ScheduleNextFrame(f helix.FrameFunc) { d.sched.ScheduleNextFrame(f) }

// Run renders until ctx is canceled.
func (d *headlessDisplay) Run(ctx context.Context, loop *helix.Loop) error {
	cfg := d.deps.cfg
	logger := d.deps.logger

	if dir := ExpandPath(cfg.SnapshotDir); dir != "" && cfg.SnapshotEvery > 0 {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
		every := uint64(cfg.SnapshotEvery)
		loop.OnFrame = func(_ helix.Surface, st helix.SpeedState) {
			n := loop.Frames()
			if n%every != 0 {
				return
			}
			path, err := writeSnapshot(dir, n, d.surf)
			if err != nil {
				logger.Warn("snapshot failed", "frame", n, "error", err)
				return
			}
			logger.Debug("snapshot written", "path", path, "speed", st.CurrentSpeed)
		}
	}

	logger.Info("rendering headless", "width", cfg.Width, "height", cfg.Height, "fps", cfg.HeadlessFPS)
	loop.Start()
	return d.sched.Run(ctx)
}
