package main

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// Events
// ============================================================================
// Events are the inputs to the reducer. They come from the sample source
// goroutine, the connect button, and the IPC socket.
// ============================================================================

// Event is a marker interface for everything the daemon loop reduces.
type Event interface {
	eventMarker()
}

// SampleReceived carries one raw token from the link, before parsing.
type SampleReceived struct {
	Raw string `json:"raw"`
}

func (SampleReceived) eventMarker() {}

// ConnectRequested asks for one connection attempt to the configured source.
type ConnectRequested struct{}

func (ConnectRequested) eventMarker() {}

// LinkPhaseChanged is emitted by the connector as the link moves through
// its lifecycle. Err is set for LinkFailed.
type LinkPhaseChanged struct {
	Phase LinkPhase
	Err   string
}

func (LinkPhaseChanged) eventMarker() {}

// RequestStatus asks the daemon for a StatusSnapshot on Reply.
type RequestStatus struct {
	Reply chan StatusSnapshot `json:"-"`
}

func (RequestStatus) eventMarker() {}

// LinkPhase is the connection state of the sample source.
type LinkPhase string

const (
	LinkDisconnected LinkPhase = "disconnected"
	LinkConnecting   LinkPhase = "connecting"
	LinkStreaming    LinkPhase = "streaming"
	LinkFailed       LinkPhase = "failed"
)

// Busy reports whether a connect request should be ignored in this phase.
func (p LinkPhase) Busy() bool {
	return p == LinkConnecting || p == LinkStreaming
}

// StatusSnapshot is the externally visible daemon state.
type StatusSnapshot struct {
	Link      LinkPhase `json:"link"`
	LinkError string    `json:"link_error,omitempty"`
	Source    string    `json:"source"`
	Attempts  int       `json:"attempts"`

	CurrentSpeed    float64 `json:"current_speed"`
	TargetSpeed     float64 `json:"target_speed"`
	TransitionPhase float64 `json:"transition_phase"`

	LastSample int    `json:"last_sample"`
	Accepted   uint64 `json:"accepted"`
	Discarded  uint64 `json:"discarded"`
}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================
// Only events that make sense from outside the process have a wire form.
// ============================================================================

// EventEnvelope wraps an event with a type discriminator for JSON marshaling
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalEvent deserializes a JSON event envelope into a concrete Event
func UnmarshalEvent(data []byte) (Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "sample":
		var e SampleReceived
		if err := json.Unmarshal(env.Data, &e); err != nil {
			return nil, fmt.Errorf("unmarshal SampleReceived: %w", err)
		}
		return e, nil

	case "connect":
		return ConnectRequested{}, nil

	case "status":
		return RequestStatus{}, nil

	default:
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}
}

// MarshalEvent serializes an Event into a JSON envelope with type discriminator
func MarshalEvent(e Event) ([]byte, error) {
	var env EventEnvelope

	switch e := e.(type) {
	case SampleReceived:
		env.Type = "sample"
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("marshal SampleReceived: %w", err)
		}
		env.Data = data

	case ConnectRequested:
		env.Type = "connect"

	case RequestStatus:
		env.Type = "status"

	default:
		return nil, fmt.Errorf("unsupported event type: %T", e)
	}

	return json.Marshal(env)
}
