package main

import "time"

// Source and serial defaults
const (
	defaultSerialDevice        = "/dev/ttyACM0"
	defaultSerialBaud          = 9600
	defaultSerialReadTimeoutMS = 500
	defaultRelayURL            = "ws://localhost:8080/ws"
	defaultHandshakeTimeoutMS  = 5000
)

// Relay server defaults
const (
	defaultRelayListen   = ":8080"
	defaultRelayPath     = "/ws"
	defaultRelaySendBuf  = 64
	defaultReopenDelayMS = 2000
)

// Display defaults
const (
	defaultWindowWidth   = 960
	defaultWindowHeight  = 540
	defaultWindowTitle   = "potwave"
	defaultHeadlessFPS   = 60
	defaultSnapshotEvery = 0
)

const defaultIPCSocket = "/tmp/potwave.sock"

// eventQueueSize bounds the channel between sources/IPC and the daemon loop.
const eventQueueSize = 64

// statusReplyTimeout bounds how long an IPC status request waits for the daemon.
const statusReplyTimeout = 1 * time.Second
