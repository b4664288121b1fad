/*
File: pkg/telemetry/frames_telemetry.go
Description: Defines the client control frames and the server control
frames exchanged over the WebSocket, discriminated by the 'type' field.
*/
package telemetry

// Inbound frame kinds recognized by a connection session.
const (
	FrameJoin    = "join"
	FrameLeave   = "leave"
	FrameSetBBox = "set_bbox"
	FramePing    = "ping"
)

// Outbound control frame kinds.
const (
	FrameJoined  = "joined"
	FrameLeft    = "left"
	FramePong    = "pong"
	FrameBBoxAck = "bbox_ack"
	FrameError   = "error"
)

// Rejection and validation codes carried by ErrorFrame.
const (
	CodeAuthRequired      = "auth_required"
	CodeAuthExpired       = "auth_expired"
	CodeAuthMalformed     = "auth_malformed"
	CodeAuthScopeMismatch = "auth_scope_mismatch"
	CodeInvalidBounds     = "invalid_bounds"
	CodeInvalidFrame      = "invalid_frame"
)

// ClientFrame is the single inbound record shape; which fields are meaningful
// depends on Type. Coordinates are only read for set_bbox frames.
type ClientFrame struct {
	Type         string  `json:"type"`
	Channel      string  `json:"channel,omitempty"`
	Token        string  `json:"token,omitempty"`
	NorthEastLat float64 `json:"northEastLat,omitempty"`
	NorthEastLng float64 `json:"northEastLng,omitempty"`
	SouthWestLat float64 `json:"southWestLat,omitempty"`
	SouthWestLng float64 `json:"southWestLng,omitempty"`
}

// AckFrame confirms a join or leave, or answers a ping.
type AckFrame struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
}

// BoundsAck confirms a viewport replacement.
type BoundsAck struct {
	Type         string  `json:"type"`
	ConnectionID string  `json:"connectionId"`
	NorthEastLat float64 `json:"northEastLat"`
	NorthEastLng float64 `json:"northEastLng"`
	SouthWestLat float64 `json:"southWestLat"`
	SouthWestLng float64 `json:"southWestLng"`
}

// ErrorFrame is an explicit rejection sent back to the offending connection.
// The connection stays open; rejection is never a silent drop.
type ErrorFrame struct {
	Type   string `json:"type"`
	Code   string `json:"code"`
	Reason string `json:"reason,omitempty"`
}
