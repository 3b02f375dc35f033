package helix

import (
	"math"
	"strings"
)

// SpeedState is the shared speed model. The conditioner owns TargetSpeed and
// TransitionPhase; the renderer owns CurrentSpeed.
type SpeedState struct {
	CurrentSpeed    float64
	TargetSpeed     float64
	TransitionPhase float64
}

// NewSpeedState returns a state resting at the configured initial speed.
func NewSpeedState(cfg SpeedConfig) SpeedState {
	return SpeedState{
		CurrentSpeed: cfg.InitialSpeed,
		TargetSpeed:  cfg.InitialSpeed,
	}
}

// ParseSample reads the leading decimal integer of a token. Surrounding
// whitespace, an optional sign and trailing garbage are tolerated, so "512\r"
// and "12.7" parse as 512 and 12. ok is false when no digit is present.
func ParseSample(tok string) (n int, ok bool) {
	s := strings.TrimSpace(tok)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	i := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		// saturate; anything this large clamps to MaxSample anyway
		if n < math.MaxInt32 {
			n = n*10 + int(s[i]-'0')
		}
	}
	if i == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// Conditioner maps raw samples to a target speed through a cyclic easing
// policy. Each accepted sample advances the transition phase; the pot value
// only controls how fast the phase moves, not where the target lands.
type Conditioner struct {
	cfg SpeedConfig
}

// NewConditioner returns a conditioner for cfg. cfg should already be valid.
func NewConditioner(cfg SpeedConfig) *Conditioner {
	return &Conditioner{cfg: cfg}
}

// OnSample parses raw and, if it holds an integer, applies it to st.
// Malformed tokens leave st untouched.
func (c *Conditioner) OnSample(st *SpeedState, raw string) (sample int, ok bool) {
	v, ok := ParseSample(raw)
	if !ok {
		return 0, false
	}
	return c.Apply(st, v), true
}

// Apply advances st by one sample and returns the clamped sample value.
func (c *Conditioner) Apply(st *SpeedState, sample int) int {
	s := clampInt(sample, 0, c.cfg.MaxSample)

	multiplier := 1 + float64(s)/float64(c.cfg.MaxSample)*2
	st.TransitionPhase += c.cfg.BaseIncrement / c.cfg.CycleSeconds * multiplier
	if st.TransitionPhase >= 1 {
		st.TransitionPhase = 0
	}

	st.TargetSpeed = c.TargetFor(st.TransitionPhase)
	return s
}

// TargetFor returns the target speed for a transition phase in [0,1).
func (c *Conditioner) TargetFor(phase float64) float64 {
	raw := math.Sin(phase*2*math.Pi)*0.5 + 0.5
	cyclic := easeInOutCubic(raw)

	ratio := cyclic
	if cyclic < c.cfg.LowKnee {
		k := cyclic / c.cfg.LowKnee
		ratio = k * k * c.cfg.LowKnee
	}

	target := c.cfg.MinSpeed + (c.cfg.MaxSpeed-c.cfg.MinSpeed)*ratio
	return clampFloat(target, c.cfg.MinSpeed, c.cfg.MaxSpeed)
}

func easeInOutCubic(x float64) float64 {
	if x < 0.5 {
		return 4 * x * x * x
	}
	return 1 - math.Pow(-2*x+2, 3)/2
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
