package helix

import "math"

// Renderer draws one frame per call. It owns CurrentSpeed (through the
// SpeedState passed to Frame), the animation clock and the wave offsets, and
// must only be driven from the render goroutine.
type Renderer struct {
	scene Scene

	// Time is the animation clock. It advances by CurrentSpeed every frame.
	Time float64

	path Path
}

// NewRenderer builds a renderer for cfg.
func NewRenderer(cfg SceneConfig) (*Renderer, error) {
	sc, err := NewScene(cfg)
	if err != nil {
		return nil, err
	}
	return &Renderer{scene: sc}, nil
}

// Scene exposes the current strands, mainly for status output and tests.
func (r *Renderer) Scene() *Scene { return &r.scene }

// Frame smooths st.CurrentSpeed toward st.TargetSpeed, scrolls the strands,
// redraws the composition on surf and advances the clock. On a surface with
// no area the animation keeps running and only drawing is skipped.
func (r *Renderer) Frame(surf Surface, st *SpeedState) {
	w, h := surf.Size()
	cfg := &r.scene.cfg

	st.CurrentSpeed = lerp(st.CurrentSpeed, st.TargetSpeed, cfg.Smoothing)

	mult := cfg.FastScroll
	if st.CurrentSpeed < cfg.SlowThreshold {
		mult = cfg.SlowScroll
	}
	r.scroll(st.CurrentSpeed*mult, math.Max(w, 0))

	if w > 0 && h > 0 {
		surf.Clear()
		for i := range r.scene.Waves {
			r.drawWave(surf, &r.scene.Waves[i], w, h)
		}
		r.drawRungs(surf, w, h)
	}

	r.Time += st.CurrentSpeed
}

// scroll moves both strands left by delta and rewinds them together once the
// first has travelled a full width.
func (r *Renderer) scroll(delta, w float64) {
	r.scene.Waves[0].OffsetX -= delta
	r.scene.Waves[1].OffsetX -= delta
	if r.scene.Waves[0].OffsetX < -w {
		r.scene.Waves[0].OffsetX = 0
		r.scene.Waves[1].OffsetX = 0
	}
}

func (r *Renderer) drawWave(surf Surface, wave *WaveSpec, w, h float64) {
	cfg := &r.scene.cfg
	step := cfg.SampleStep

	r.path.Reset()
	var prevX, prevY float64
	first := true
	for x := 0.0; x < 2*w; x += step {
		ax := x + wave.OffsetX
		if ax < 0 || ax > w {
			continue
		}
		y := r.WaveY(wave, x, h)
		if first {
			r.path.MoveTo(ax, y)
			first = false
		} else {
			r.path.QuadTo((ax+prevX)/2, prevY, ax, y)
		}
		prevX, prevY = ax, y
	}
	if r.path.Len() > 1 {
		surf.StrokePath(&r.path, wave.Color, cfg.WaveWidth)
	}
}

func (r *Renderer) drawRungs(surf Surface, w, h float64) {
	cfg := &r.scene.cfg
	w1, w2 := &r.scene.Waves[0], &r.scene.Waves[1]
	t := r.Time
	n := cfg.DotsPerRung

	var rung Path
	for x := 0.0; x < 2*w; x += cfg.RungSpacing {
		ax := x + w1.OffsetX
		if ax < 0 || ax > w {
			continue
		}
		y1 := r.WaveY(w1, x, h)
		y2 := r.WaveY(w2, x, h)

		rung.Reset()
		rung.MoveTo(ax, y1)
		rung.LineTo(ax, y2)
		surf.StrokePath(&rung, r.scene.Rung, cfg.RungWidth)

		for i := 0; i < n; i++ {
			shift := float64(i) * 2 * math.Pi / float64(n)
			pos := (math.Sin(t*cfg.DotTravelRate+shift) + 1) / 2
			radius := cfg.DotRadius + math.Sin(t*cfg.DotPulseRate+shift)*cfg.DotRadiusSwing
			surf.FillCircle(ax, y1+(y2-y1)*pos, radius, r.scene.Dot)
		}
	}
}

// WaveY returns the vertical position of wave at unscrolled abscissa x on a
// surface of height h, at the renderer's current time.
func (r *Renderer) WaveY(wave *WaveSpec, x, h float64) float64 {
	return WaveY(r.scene.cfg, wave, x, r.Time, h)
}

// WaveY evaluates a strand: a sine with breathing amplitude plus a shared
// vertical bob, centred on the surface and shifted by the strand's OffsetY.
func WaveY(cfg SceneConfig, wave *WaveSpec, x, t, h float64) float64 {
	amp := wave.Amplitude * (1 + math.Sin(t*cfg.BreathRate)*cfg.BreathDepth)
	bob := math.Sin(t*cfg.BobRate) * cfg.BobAmplitude
	return math.Sin(x*wave.Frequency+wave.Phase+t)*amp + bob + h/2 + wave.OffsetY
}

func lerp(a, b, f float64) float64 {
	return a + (b-a)*f
}
