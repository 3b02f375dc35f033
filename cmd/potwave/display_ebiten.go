//go:build !headless

package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"potwave/internal/helix"
)

const headlessBuild = false

// Connect button geometry in screen pixels.
const (
	buttonX = 16
	buttonY = 16
	buttonW = 150
	buttonH = 32
)

// ebitenDisplay is an ebiten.Game that runs one helix frame per Draw.
// Ebiten calls Update and Draw on the same goroutine, so next needs no lock.
type ebitenDisplay struct {
	deps displayDeps
	surf *ebitenSurface
	face font.Face

	ctx  context.Context
	loop *helix.Loop
	next helix.FrameFunc

	hovered bool
}

func newDisplay(deps displayDeps) (display, error) {
	return &ebitenDisplay{
		deps: deps,
		surf: &ebitenSurface{bg: deps.scene.Background},
		face: basicfont.Face7x13,
	}, nil
}

func (d *ebitenDisplay) ScheduleNextFrame(f helix.FrameFunc) { d.next = f }

// Run opens the window and blocks until it is closed or ctx is canceled. It
// must be called from the main goroutine.
func (d *ebitenDisplay) Run(ctx context.Context, loop *helix.Loop) error {
	d.ctx = ctx
	d.loop = loop

	ebiten.SetWindowSize(d.deps.cfg.Width, d.deps.cfg.Height)
	ebiten.SetWindowTitle(d.deps.cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(true)

	loop.Start()
	if err := ebiten.RunGame(d); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("run window: %w", err)
	}
	return nil
}

func (d *ebitenDisplay) Update() error {
	if d.ctx.Err() != nil {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	phase, _ := d.deps.link.Load()
	_, _, enabled := connectButton(phase)

	mx, my := ebiten.CursorPosition()
	d.hovered = image.Pt(mx, my).In(image.Rect(buttonX, buttonY, buttonX+buttonW, buttonY+buttonH))

	if !enabled {
		return nil
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) ||
		(d.hovered && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)) {
		requestConnect(d.deps.events, d.deps.logger)
	}
	return nil
}

func (d *ebitenDisplay) Draw(screen *ebiten.Image) {
	d.surf.img = screen
	if f := d.next; f != nil {
		d.next = nil
		f(d.surf)
	}
	d.drawButton(screen)
	if d.deps.cfg.ShowStatus {
		d.drawStatus(screen)
	}
}

// Layout keeps the surface the same size as the window.
func (d *ebitenDisplay) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (d *ebitenDisplay) drawButton(screen *ebiten.Image) {
	phase, _ := d.deps.link.Load()
	label, fill, enabled := connectButton(phase)

	vector.DrawFilledRect(screen, buttonX, buttonY, buttonW, buttonH, fill, false)
	if enabled && d.hovered {
		vector.StrokeRect(screen, buttonX, buttonY, buttonW, buttonH, 2, color.White, false)
	}

	textW := text.BoundString(d.face, label).Dx()
	tx := buttonX + (buttonW-textW)/2
	ty := buttonY + buttonH/2 + 4
	text.Draw(screen, label, d.face, tx, ty, buttonTextColor)
}

func (d *ebitenDisplay) drawStatus(screen *ebiten.Image) {
	phase, errText := d.deps.link.Load()
	status := fmt.Sprintf("speed %.4f  frames %d  link %s", d.loop.CurrentSpeed(), d.loop.Frames(), phase)
	if errText != "" {
		status += "  (" + errText + ")"
	}
	ebitenutil.DebugPrintAt(screen, status, buttonX, buttonY+buttonH+8)
}

// ebitenSurface adapts an ebiten screen image to helix.Surface. Curves are
// flattened and drawn as anti-aliased line segments.
type ebitenSurface struct {
	img *ebiten.Image
	bg  color.Color
}

func (s *ebitenSurface) Size() (float64, float64) {
	if s.img == nil {
		return 0, 0
	}
	b := s.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func (s *ebitenSurface) Clear() {
	s.img.Fill(s.bg)
}

func (s *ebitenSurface) StrokePath(p *helix.Path, clr color.Color, width float64) {
	for _, line := range p.Flatten(helix.CurveSteps) {
		for i := 1; i < len(line); i++ {
			a, b := line[i-1], line[i]
			vector.StrokeLine(s.img, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), float32(width), clr, true)
		}
		// Round the joints of thick strokes.
		if width > 1 {
			r := float32(width / 2)
			for i := 1; i < len(line)-1; i++ {
				vector.DrawFilledCircle(s.img, float32(line[i].X), float32(line[i].Y), r, clr, true)
			}
		}
	}
}

func (s *ebitenSurface) FillCircle(cx, cy, r float64, clr color.Color) {
	vector.DrawFilledCircle(s.img, float32(cx), float32(cy), float32(r), clr, true)
}
