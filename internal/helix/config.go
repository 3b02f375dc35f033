// Package helix implements the potentiometer-driven "DNA helix" animation:
// a signal conditioner that turns raw 0-1023 samples into a target speed,
// and a frame renderer that smooths toward that speed and draws two
// phase-shifted waves joined by rungs and pulsing dots.
//
// The package performs no I/O. Drawing goes through the Surface interface and
// frame pacing through the Scheduler interface so that the same code runs
// behind a window or headless.
package helix

import (
	"errors"
	"fmt"
	"math"
)

// Conditioner defaults.
const (
	DefaultMinSpeed      = 0.0005
	DefaultMaxSpeed      = 0.08
	DefaultInitialSpeed  = 0.02
	DefaultCycleSeconds  = 3.0
	DefaultBaseIncrement = 0.016 // one 60 Hz frame
	DefaultMaxSample     = 1023
	DefaultLowKnee       = 0.3
)

// Renderer defaults.
const (
	DefaultSmoothing       = 0.1
	DefaultSlowThreshold   = 0.01
	DefaultSlowScroll      = 40.0
	DefaultFastScroll      = 30.0
	DefaultAmplitude       = 100.0
	DefaultFrequency       = 0.015
	DefaultWaveGap         = 50.0
	DefaultWaveWidth       = 3.0
	DefaultSampleStep      = 3.0
	DefaultBreathRate      = 0.5
	DefaultBreathDepth     = 0.2
	DefaultBobRate         = 0.8
	DefaultBobAmplitude    = 60.0
	DefaultRungSpacing     = 60.0
	DefaultRungWidth       = 1.0
	DefaultDotsPerRung     = 3
	DefaultDotTravelRate   = 3.0
	DefaultDotPulseRate    = 5.0
	DefaultDotRadius       = 3.0
	DefaultDotRadiusSwing  = 1.0
	DefaultWave1Color      = "#FF6B6B"
	DefaultWave2Color      = "#4ECDC4"
	DefaultRungColor       = "#A8E6CF"
	DefaultRungAlpha       = 0.4
	DefaultDotColor        = "#A8E6CF"
	DefaultBackgroundColor = "#000000"
)

// SpeedConfig tunes the mapping from samples to target speed.
type SpeedConfig struct {
	MinSpeed     float64
	MaxSpeed     float64
	InitialSpeed float64

	// CycleSeconds is the nominal length of one easing cycle at the slowest
	// sample rate multiplier. BaseIncrement is the per-sample phase step
	// numerator, so one sample advances the phase by
	// BaseIncrement/CycleSeconds*multiplier.
	CycleSeconds  float64
	BaseIncrement float64

	MaxSample int

	// LowKnee is the eased value below which the ratio is squared to
	// exaggerate slow-down near MinSpeed.
	LowKnee float64
}

// DefaultSpeedConfig returns the stock conditioner tuning.
func DefaultSpeedConfig() SpeedConfig {
	return SpeedConfig{
		MinSpeed:      DefaultMinSpeed,
		MaxSpeed:      DefaultMaxSpeed,
		InitialSpeed:  DefaultInitialSpeed,
		CycleSeconds:  DefaultCycleSeconds,
		BaseIncrement: DefaultBaseIncrement,
		MaxSample:     DefaultMaxSample,
		LowKnee:       DefaultLowKnee,
	}
}

// Validate reports the first inconsistent field.
func (c SpeedConfig) Validate() error {
	if c.MinSpeed < 0 {
		return errors.New("min_speed must be >= 0")
	}
	if c.MinSpeed >= c.MaxSpeed {
		return errors.New("min_speed must be < max_speed")
	}
	if c.InitialSpeed < c.MinSpeed || c.InitialSpeed > c.MaxSpeed {
		return fmt.Errorf("initial_speed must be within [%g, %g]", c.MinSpeed, c.MaxSpeed)
	}
	if c.CycleSeconds <= 0 {
		return errors.New("cycle_seconds must be > 0")
	}
	if c.BaseIncrement <= 0 {
		return errors.New("base_increment must be > 0")
	}
	if c.MaxSample <= 0 {
		return errors.New("max_sample must be > 0")
	}
	if c.LowKnee <= 0 || c.LowKnee >= 1 {
		return errors.New("low_knee must be in (0, 1)")
	}
	return nil
}

// SceneConfig describes the wave composition. Colours are hex strings.
type SceneConfig struct {
	Smoothing     float64
	SlowThreshold float64
	SlowScroll    float64
	FastScroll    float64

	Amplitude  float64
	Frequency  float64
	WaveGap    float64
	WaveWidth  float64
	SampleStep float64

	BreathRate   float64
	BreathDepth  float64
	BobRate      float64
	BobAmplitude float64

	RungSpacing    float64
	RungWidth      float64
	DotsPerRung    int
	DotTravelRate  float64
	DotPulseRate   float64
	DotRadius      float64
	DotRadiusSwing float64

	Wave1Color string
	Wave2Color string
	RungColor  string
	RungAlpha  float64
	DotColor   string
	Background string
}

// DefaultSceneConfig returns the stock composition.
func DefaultSceneConfig() SceneConfig {
	return SceneConfig{
		Smoothing:      DefaultSmoothing,
		SlowThreshold:  DefaultSlowThreshold,
		SlowScroll:     DefaultSlowScroll,
		FastScroll:     DefaultFastScroll,
		Amplitude:      DefaultAmplitude,
		Frequency:      DefaultFrequency,
		WaveGap:        DefaultWaveGap,
		WaveWidth:      DefaultWaveWidth,
		SampleStep:     DefaultSampleStep,
		BreathRate:     DefaultBreathRate,
		BreathDepth:    DefaultBreathDepth,
		BobRate:        DefaultBobRate,
		BobAmplitude:   DefaultBobAmplitude,
		RungSpacing:    DefaultRungSpacing,
		RungWidth:      DefaultRungWidth,
		DotsPerRung:    DefaultDotsPerRung,
		DotTravelRate:  DefaultDotTravelRate,
		DotPulseRate:   DefaultDotPulseRate,
		DotRadius:      DefaultDotRadius,
		DotRadiusSwing: DefaultDotRadiusSwing,
		Wave1Color:     DefaultWave1Color,
		Wave2Color:     DefaultWave2Color,
		RungColor:      DefaultRungColor,
		RungAlpha:      DefaultRungAlpha,
		DotColor:       DefaultDotColor,
		Background:     DefaultBackgroundColor,
	}
}

// Validate reports the first inconsistent field. Colour strings are checked
// by NewScene.
func (c SceneConfig) Validate() error {
	if c.Smoothing <= 0 || c.Smoothing >= 1 {
		return errors.New("smoothing must be in (0, 1)")
	}
	if c.SlowScroll < 0 || c.FastScroll < 0 {
		return errors.New("scroll multipliers must be >= 0")
	}
	if c.SampleStep <= 0 {
		return errors.New("sample_step must be > 0")
	}
	if c.RungSpacing <= 0 {
		return errors.New("rung_spacing must be > 0")
	}
	if c.DotsPerRung < 0 {
		return errors.New("dots_per_rung must be >= 0")
	}
	if c.DotRadiusSwing >= c.DotRadius {
		return errors.New("dot_radius_swing must be < dot_radius")
	}
	if c.WaveWidth <= 0 || c.RungWidth <= 0 {
		return errors.New("stroke widths must be > 0")
	}
	if c.RungAlpha < 0 || c.RungAlpha > 1 || math.IsNaN(c.RungAlpha) {
		return errors.New("rung_alpha must be in [0, 1]")
	}
	return nil
}
