package helix

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// WaveSpec describes one of the two strands. OffsetX is the only field that
// changes after construction.
type WaveSpec struct {
	Amplitude float64
	Frequency float64
	Phase     float64
	Color     color.Color
	OffsetY   float64
	OffsetX   float64
}

// Scene is a SceneConfig with colours resolved and both strands built.
type Scene struct {
	cfg SceneConfig

	Waves      [2]WaveSpec
	Rung       color.Color
	Dot        color.Color
	Background color.Color
}

// NewScene validates cfg and resolves its colours.
func NewScene(cfg SceneConfig) (Scene, error) {
	if err := cfg.Validate(); err != nil {
		return Scene{}, err
	}

	w1, err := parseHex("wave1_color", cfg.Wave1Color, 1)
	if err != nil {
		return Scene{}, err
	}
	w2, err := parseHex("wave2_color", cfg.Wave2Color, 1)
	if err != nil {
		return Scene{}, err
	}
	rung, err := parseHex("rung_color", cfg.RungColor, cfg.RungAlpha)
	if err != nil {
		return Scene{}, err
	}
	dot, err := parseHex("dot_color", cfg.DotColor, 1)
	if err != nil {
		return Scene{}, err
	}
	bg, err := parseHex("background", cfg.Background, 1)
	if err != nil {
		return Scene{}, err
	}

	half := cfg.WaveGap / 2
	return Scene{
		cfg: cfg,
		Waves: [2]WaveSpec{
			{Amplitude: cfg.Amplitude, Frequency: cfg.Frequency, Phase: 0, Color: w1, OffsetY: -half},
			{Amplitude: cfg.Amplitude, Frequency: cfg.Frequency, Phase: math.Pi, Color: w2, OffsetY: half},
		},
		Rung:       rung,
		Dot:        dot,
		Background: bg,
	}, nil
}

func parseHex(field, hex string, alpha float64) (color.NRGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%s: %w", field, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(alpha * 255))}, nil
}
