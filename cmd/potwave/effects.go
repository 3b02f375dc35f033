package main

import (
	"log/slog"

	"potwave/internal/helix"
)

// linkStarter begins one asynchronous connection attempt. Progress comes
// back as LinkPhaseChanged and SampleReceived events.
type linkStarter interface {
	Start(attempt int)
}

// effectEnv is everything runEffect may act on.
type effectEnv struct {
	slot      *helix.TargetSlot
	link      *linkView
	connector linkStarter

	// currentSpeed reads the render loop's live speed for status replies.
	currentSpeed func() float64
}

// runEffect executes a single reducer-emitted Command and reports any
// observation through onEvent. It never calls Reduce itself.
func runEffect(
	env *effectEnv,
	cmd Command,
	logger *slog.Logger,
	onEvent func(Event),
) {
	switch c := cmd.(type) {
	case CmdPublishTarget:
		if env.slot != nil {
			env.slot.Put(c.Target)
		}

	case CmdOpenSource:
		if env.connector == nil {
			logger.Warn("connect requested but no sample source is configured")
			if onEvent != nil {
				onEvent(LinkPhaseChanged{Phase: LinkFailed, Err: "no sample source"})
			}
			return
		}
		logger.Info("connecting to sample source", "attempt", c.Attempt)
		env.connector.Start(c.Attempt)

	case CmdPublishLink:
		if env.link != nil {
			env.link.Store(c.Phase, c.Err)
		}

	case CmdPublishStatus:
		if c.Reply == nil {
			logger.Warn("status requested with nil reply channel")
			return
		}
		snap := c.Snapshot
		if env.currentSpeed != nil {
			snap.CurrentSpeed = env.currentSpeed()
		}

		// Never block the daemon loop on a slow requester.
		select {
		case c.Reply <- snap:
		default:
			logger.Warn("status reply channel not ready; dropping snapshot")
		}

	default:
		logger.Warn("unknown command type", "command", cmd.String())
	}
}
