package helix

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"
)

// kappa places cubic control points so four arcs approximate a circle.
const kappa = 0.5522847498

// RasterSurface is an in-memory Surface backed by an RGBA image. It is used
// for headless runs and snapshots.
type RasterSurface struct {
	img *image.RGBA
	bg  color.Color
	z   *vector.Rasterizer
}

// NewRasterSurface returns a w×h surface cleared to bg. A nil bg clears to
// transparent.
func NewRasterSurface(w, h int, bg color.Color) *RasterSurface {
	if bg == nil {
		bg = color.Transparent
	}
	s := &RasterSurface{bg: bg}
	s.Resize(w, h)
	return s
}

// Resize reallocates the backing image. Negative sizes are treated as zero.
func (s *RasterSurface) Resize(w, h int) {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	s.img = image.NewRGBA(image.Rect(0, 0, w, h))
	s.z = vector.NewRasterizer(w, h)
	s.z.DrawOp = draw.Over
	s.Clear()
}

// Image returns the backing image. It is overwritten by the next frame.
func (s *RasterSurface) Image() *image.RGBA { return s.img }

func (s *RasterSurface) Size() (float64, float64) {
	b := s.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func (s *RasterSurface) Clear() {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(s.bg), image.Point{}, draw.Src)
}

// StrokePath draws every flattened segment as a width-wide quad. All quads are
// wound the same way so overlaps at joints saturate instead of cancelling.
func (s *RasterSurface) StrokePath(p *Path, clr color.Color, width float64) {
	if s.empty() || width <= 0 {
		return
	}
	s.begin()
	half := width / 2
	n := 0
	for _, line := range p.Flatten(CurveSteps) {
		for i := 1; i < len(line); i++ {
			a, b := line[i-1], line[i]
			dx, dy := b.X-a.X, b.Y-a.Y
			l := math.Hypot(dx, dy)
			if l == 0 {
				continue
			}
			nx, ny := -dy/l*half, dx/l*half
			s.z.MoveTo(f32(a.X+nx), f32(a.Y+ny))
			s.z.LineTo(f32(b.X+nx), f32(b.Y+ny))
			s.z.LineTo(f32(b.X-nx), f32(b.Y-ny))
			s.z.LineTo(f32(a.X-nx), f32(a.Y-ny))
			s.z.ClosePath()
			n++
		}
	}
	if n > 0 {
		s.flush(clr)
	}
}

func (s *RasterSurface) FillCircle(cx, cy, r float64, clr color.Color) {
	if s.empty() || r <= 0 {
		return
	}
	s.begin()
	k := r * kappa
	s.z.MoveTo(f32(cx+r), f32(cy))
	s.z.CubeTo(f32(cx+r), f32(cy+k), f32(cx+k), f32(cy+r), f32(cx), f32(cy+r))
	s.z.CubeTo(f32(cx-k), f32(cy+r), f32(cx-r), f32(cy+k), f32(cx-r), f32(cy))
	s.z.CubeTo(f32(cx-r), f32(cy-k), f32(cx-k), f32(cy-r), f32(cx), f32(cy-r))
	s.z.CubeTo(f32(cx+k), f32(cy-r), f32(cx+r), f32(cy-k), f32(cx+r), f32(cy))
	s.z.ClosePath()
	s.flush(clr)
}

// WritePNG encodes the current image.
func (s *RasterSurface) WritePNG(w io.Writer) error {
	if err := png.Encode(w, s.img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func (s *RasterSurface) empty() bool {
	b := s.img.Bounds()
	return b.Dx() == 0 || b.Dy() == 0
}

func (s *RasterSurface) begin() {
	b := s.img.Bounds()
	s.z.Reset(b.Dx(), b.Dy())
	s.z.DrawOp = draw.Over
}

func (s *RasterSurface) flush(clr color.Color) {
	s.z.Draw(s.img, s.img.Bounds(), image.NewUniform(clr), image.Point{})
}

func f32(v float64) float32 { return float32(v) }
