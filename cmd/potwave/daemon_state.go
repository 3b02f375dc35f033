package main

import "potwave/internal/helix"

// DaemonState is the daemon-owned state container. Only the daemon goroutine
// touches it; other goroutines see it through StatusSnapshot.
type DaemonState struct {
	// Speed is the conditioner half of the speed state. CurrentSpeed here is
	// the start-up value only; the render loop owns the live one.
	Speed helix.SpeedState

	Link LinkState

	Samples SampleStats
}

// LinkState tracks the sample source connection.
type LinkState struct {
	Phase     LinkPhase
	LastError string
	Attempts  int
	Source    string
}

// SampleStats counts tokens seen on the link.
type SampleStats struct {
	LastSample int
	Accepted   uint64
	Discarded  uint64
}

// NewDaemonState returns the state before any connection attempt.
func NewDaemonState(initial helix.SpeedState, source string) *DaemonState {
	return &DaemonState{
		Speed: initial,
		Link: LinkState{
			Phase:  LinkDisconnected,
			Source: source,
		},
	}
}

// Snapshot copies the externally visible fields. currentSpeed comes from
// the render loop.
func (s *DaemonState) Snapshot(currentSpeed float64) StatusSnapshot {
	return StatusSnapshot{
		Link:            s.Link.Phase,
		LinkError:       s.Link.LastError,
		Source:          s.Link.Source,
		Attempts:        s.Link.Attempts,
		CurrentSpeed:    currentSpeed,
		TargetSpeed:     s.Speed.TargetSpeed,
		TransitionPhase: s.Speed.TransitionPhase,
		LastSample:      s.Samples.LastSample,
		Accepted:        s.Samples.Accepted,
		Discarded:       s.Samples.Discarded,
	}
}
