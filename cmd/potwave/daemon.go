package main

import (
	"context"
	"log/slog"

	"potwave/internal/helix"
)

// ============================================================================
// Daemon Loop
// ============================================================================
//
// runDaemon is the single owner of the conditioner state (target speed and
// transition phase) and of the link lifecycle. It reduces events into
// (state, commands) and runs the commands through runEffect; the render
// loop only ever sees the published target through the TargetSlot.
//
// ============================================================================

// runDaemon exits when ctx is canceled or the events channel is closed.
func runDaemon(
	ctx context.Context,
	events <-chan Event,
	cond *helix.Conditioner,
	env *effectEnv,
	state *DaemonState,
	logger *slog.Logger,
) {
	if state == nil {
		logger.Error("daemon state is nil")
		return
	}

	var eventQueue []Event
	var cmdQueue []Command

	enqueueEvent := func(ev Event) {
		eventQueue = append(eventQueue, ev)
	}

	flushEvents := func() {
		for len(eventQueue) > 0 {
			ev := eventQueue[0]
			eventQueue = eventQueue[1:]

			rr := Reduce(state, ev, cond)
			if rr.State != nil {
				state = rr.State
			}
			cmdQueue = append(cmdQueue, rr.Commands...)
		}
	}

	flushCommands := func() {
		for len(cmdQueue) > 0 {
			cmd := cmdQueue[0]
			cmdQueue = cmdQueue[1:]

			runEffect(env, cmd, logger, enqueueEvent)

			// Reduce observations before the next command.
			flushEvents()
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)",
				"accepted", state.Samples.Accepted,
				"discarded", state.Samples.Discarded)
			return

		case ev, ok := <-events:
			if !ok {
				logger.Info("daemon stopping (events channel closed)")
				return
			}
			if lc, ok := ev.(LinkPhaseChanged); ok {
				logLinkChange(logger, lc)
			}
			enqueueEvent(ev)
			flushEvents()
			flushCommands()
		}
	}
}

func logLinkChange(logger *slog.Logger, ev LinkPhaseChanged) {
	switch ev.Phase {
	case LinkFailed:
		logger.Warn("sample source failed", "error", ev.Err)
	case LinkStreaming:
		logger.Info("sample source streaming")
	case LinkDisconnected:
		logger.Info("sample source disconnected")
	}
}
