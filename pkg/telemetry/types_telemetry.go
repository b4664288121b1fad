// Package telemetry contains the public domain models, wire frames, and
// contracts for the telemetry hub. It defines the shape of everything that
// crosses the WebSocket boundary.
package telemetry

import "encoding/json"

// Message kinds carried on the outbound path.
const (
	MessageTypeData      = "data"
	MessageTypeHeartbeat = "heartbeat"
)

// Message is a tagged payload distributed to channel members. Data messages
// optionally carry a decoded position; the hub assigns Channel and Seq at
// publish time and treats the message as immutable afterwards.
type Message struct {
	Type      string          `json:"type"`
	Channel   string          `json:"channel,omitempty"`
	ID        string          `json:"id,omitempty"`
	Lat       *float64        `json:"lat,omitempty"`
	Lng       *float64        `json:"lng,omitempty"`
	Seq       uint64          `json:"seq,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// HasPosition reports whether both coordinates are present. A data message
// missing either coordinate is never delivered through an active viewport.
func (m *Message) HasPosition() bool {
	return m.Lat != nil && m.Lng != nil
}
