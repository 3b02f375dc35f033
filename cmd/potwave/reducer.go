package main

import (
	"potwave/internal/helix"
)

// ReduceResult is the output of Reduce(): next state plus the Commands to
// execute.
type ReduceResult struct {
	State    *DaemonState
	Commands []Command
}

// Reduce is the pure reducer. It performs no I/O, never blocks, and does not
// mutate s; the returned state is a fresh copy.
//
// The daemon loop executes the returned Commands and feeds any resulting
// events back in.
func Reduce(s *DaemonState, e Event, cond *helix.Conditioner) ReduceResult {
	if s == nil {
		s = &DaemonState{Link: LinkState{Phase: LinkDisconnected}}
	}
	next := *s

	var cmds []Command

	switch ev := e.(type) {
	case SampleReceived:
		sample, ok := cond.OnSample(&next.Speed, ev.Raw)
		if !ok {
			// Garbage on the line is expected and dropped without a trace.
			next.Samples.Discarded++
			break
		}
		next.Samples.Accepted++
		next.Samples.LastSample = sample
		cmds = append(cmds, CmdPublishTarget{Target: next.Speed.TargetSpeed})

	case ConnectRequested:
		// One attempt per trigger; repeated clicks while busy do nothing.
		if next.Link.Phase.Busy() {
			break
		}
		next.Link.Phase = LinkConnecting
		next.Link.LastError = ""
		next.Link.Attempts++
		cmds = append(cmds,
			CmdPublishLink{Phase: LinkConnecting},
			CmdOpenSource{Attempt: next.Link.Attempts},
		)

	case LinkPhaseChanged:
		if ev.Phase == next.Link.Phase && ev.Err == next.Link.LastError {
			break
		}
		next.Link.Phase = ev.Phase
		next.Link.LastError = ev.Err
		cmds = append(cmds, CmdPublishLink{Phase: ev.Phase, Err: ev.Err})

	case RequestStatus:
		cmds = append(cmds, CmdPublishStatus{
			Reply:    ev.Reply,
			Snapshot: next.Snapshot(next.Speed.CurrentSpeed),
		})
	}

	return ReduceResult{
		State:    &next,
		Commands: cmds,
	}
}
