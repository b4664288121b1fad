/*
File: internal/hub/channel.go
Description: A channel is a named broadcast group holding a non-owning
membership set of connection identifiers, a per-channel publish sequence,
and an optional retained last data message.
*/
// Package hub implements the channel registry, the channel manager that
// serializes all membership and fan-out state, and the heartbeat task.
package hub

import "github.com/tinywideclouds/go-telemetry-hub/pkg/telemetry"

// Subscriber is a non-owning handle to a connection session. Enqueue must be
// non-blocking; Kick must be safe to call from any goroutine and idempotent.
type Subscriber interface {
	ID() string
	// Enqueue offers a message to the session's bounded outbound queue and
	// reports false on overflow.
	Enqueue(msg *telemetry.Message) bool
	// Kick asynchronously closes the connection through its shared teardown
	// path.
	Kick(reason string)
}

// channel state is guarded entirely by the Manager's mutex; channels have no
// locking of their own and persist for the process lifetime.
type channel struct {
	name    string
	members map[string]*member
	// retained is the last data message published, replayed to new joiners.
	retained *telemetry.Message
	// seq orders publishes; assigned while the registry lock is held, so every
	// subscriber observes same-channel messages in submission order.
	seq uint64
	// spatial marks the channel's traffic as subject to viewport filtering.
	// Operational channels (heartbeats) bypass the filter entirely; this is a
	// channel-level policy, not a per-message one.
	spatial bool
}

func newChannel(name string, spatial bool) *channel {
	return &channel{
		name:    name,
		members: make(map[string]*member),
		spatial: spatial,
	}
}

// member pairs a subscriber with the set of channels it has joined, so that
// teardown touches exactly those channels and never scans the registry.
type member struct {
	sub    Subscriber
	joined map[string]struct{}
}
