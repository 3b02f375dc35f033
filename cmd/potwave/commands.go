package main

import "fmt"

// ==============================
// Commands (side effects)
// ==============================

// Command is a side effect requested by the reducer and executed by runEffect.
type Command interface {
	commandMarker()
	String() string
}

// CmdPublishTarget hands a new target speed to the render loop.
type CmdPublishTarget struct {
	Target float64
}

func (CmdPublishTarget) commandMarker() {}
func (c CmdPublishTarget) String() string {
	return fmt.Sprintf("CmdPublishTarget(target=%.5f)", c.Target)
}

// CmdOpenSource starts one connection attempt.
type CmdOpenSource struct {
	Attempt int
}

func (CmdOpenSource) commandMarker() {}
func (c CmdOpenSource) String() string {
	return fmt.Sprintf("CmdOpenSource(attempt=%d)", c.Attempt)
}

// CmdPublishLink makes the link phase visible to the display.
type CmdPublishLink struct {
	Phase LinkPhase
	Err   string
}

func (CmdPublishLink) commandMarker() {}
func (c CmdPublishLink) String() string {
	return fmt.Sprintf("CmdPublishLink(phase=%s)", c.Phase)
}

// CmdPublishStatus delivers a snapshot to an IPC status request.
type CmdPublishStatus struct {
	Reply    chan StatusSnapshot
	Snapshot StatusSnapshot
}

func (CmdPublishStatus) commandMarker() {}
func (CmdPublishStatus) String() string { return "CmdPublishStatus()" }
