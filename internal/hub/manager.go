/*
File: internal/hub/manager.go
Description: The channel manager owns the channel registry and the spatial
filter. Every registry mutation (register, join, leave, create, publish
fan-out enumeration) passes through one mutex, so membership transitions
are atomic to any observer and same-channel publishes stay ordered.
*/
package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tinywideclouds/go-telemetry-hub/internal/geo"
	"github.com/tinywideclouds/go-telemetry-hub/pkg/telemetry"
)

// ErrUnknownChannel reports a publish that cannot name a channel. It is logged
// and treated as a no-op by callers; never fatal.
var ErrUnknownChannel = errors.New("hub: publish without a channel name")

// Options name the well-known channels created at startup.
type Options struct {
	// SystemChannel carries operational traffic (heartbeats) and bypasses
	// spatial filtering.
	SystemChannel string
	// DataChannel carries application data and is spatially filtered.
	DataChannel string
}

// Manager is the top-level orchestrator: registry, publish entry point, and
// connection lifecycle routing.
type Manager struct {
	mu       sync.Mutex
	channels map[string]*channel
	members  map[string]*member

	filter *geo.Filter
	logger zerolog.Logger
}

// NewManager creates a manager with the well-known channels pre-created.
func NewManager(opts Options, logger zerolog.Logger) *Manager {
	m := &Manager{
		channels: make(map[string]*channel),
		members:  make(map[string]*member),
		filter:   geo.NewFilter(),
		logger:   logger.With().Str("component", "Manager").Logger(),
	}
	m.channels[opts.SystemChannel] = newChannel(opts.SystemChannel, false)
	m.channels[opts.DataChannel] = newChannel(opts.DataChannel, true)
	return m
}

// getOrCreateLocked returns the named channel, creating it on first reference.
// Creation is idempotent; the caller holds m.mu.
func (m *Manager) getOrCreateLocked(name string) *channel {
	ch, ok := m.channels[name]
	if !ok {
		ch = newChannel(name, true)
		m.channels[name] = ch
		m.logger.Info().Str("channel", name).Msg("Channel created.")
	}
	return ch
}

// Register makes a connection known to the manager. It joins nothing yet.
func (m *Manager) Register(sub Subscriber) {
	m.mu.Lock()
	m.members[sub.ID()] = &member{sub: sub, joined: make(map[string]struct{})}
	m.mu.Unlock()
	m.logger.Debug().Str("conn", sub.ID()).Msg("Connection registered.")
}

// Unregister is the single cleanup path for a connection: it removes the
// connection from exactly the channels in its own joined set and discards its
// viewport. Safe to call for an unknown or already-removed connection.
func (m *Manager) Unregister(connID string) {
	m.mu.Lock()
	mem, ok := m.members[connID]
	if ok {
		for name := range mem.joined {
			delete(m.channels[name].members, connID)
		}
		delete(m.members, connID)
	}
	m.mu.Unlock()

	if ok {
		m.filter.Remove(connID)
		m.logger.Debug().Str("conn", connID).Msg("Connection unregistered.")
	}
}

// Join adds the connection to the named channel, creating it lazily, and
// replays the channel's retained message through the filter gate. Idempotent.
func (m *Manager) Join(connID, name string) {
	var evict Subscriber

	m.mu.Lock()
	mem, ok := m.members[connID]
	if !ok {
		// The connection tore down while its join frame was in flight.
		m.mu.Unlock()
		return
	}
	ch := m.getOrCreateLocked(name)
	ch.members[connID] = mem
	mem.joined[name] = struct{}{}

	if ch.retained != nil && m.deliverableLocked(ch, connID, ch.retained) {
		if !mem.sub.Enqueue(ch.retained) {
			evict = mem.sub
		}
	}
	m.mu.Unlock()

	if evict != nil {
		evict.Kick("outbound queue overflow")
	}
}

// Leave removes the connection from the named channel. Idempotent.
func (m *Manager) Leave(connID, name string) {
	m.mu.Lock()
	if mem, ok := m.members[connID]; ok {
		delete(mem.joined, name)
		if ch, ok := m.channels[name]; ok {
			delete(ch.members, connID)
		}
	}
	m.mu.Unlock()
}

// SetBounds validates and installs the connection's viewport.
func (m *Manager) SetBounds(connID string, box geo.BoundingBox) error {
	return m.filter.Set(connID, box)
}

// Publish assigns the channel sequence number, retains data messages, and
// fans the message out to every current member. Enqueues into the bounded
// per-member queues happen inside the critical section so that two publishes
// to the same channel are observed by every subscriber in submission order;
// socket writes never happen under the lock. The manager takes ownership of
// msg.
func (m *Manager) Publish(name string, msg *telemetry.Message) error {
	if name == "" {
		m.logger.Warn().Str("type", msg.Type).Msg("Dropping publish without a channel name.")
		return ErrUnknownChannel
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().Unix()
	}

	var evicted []Subscriber

	m.mu.Lock()
	ch := m.getOrCreateLocked(name)
	ch.seq++
	msg.Channel = name
	msg.Seq = ch.seq
	if msg.Type == telemetry.MessageTypeData {
		ch.retained = msg
	}
	for connID, mem := range ch.members {
		if !m.deliverableLocked(ch, connID, msg) {
			continue
		}
		if !mem.sub.Enqueue(msg) {
			evicted = append(evicted, mem.sub)
		}
	}
	m.mu.Unlock()

	// Overflow closes the connection rather than silently dropping messages:
	// freshness over best-effort delivery.
	for _, sub := range evicted {
		sub.Kick("outbound queue overflow")
	}
	return nil
}

// deliverableLocked applies the channel's spatial policy for one member. The
// filter has its own lock and never takes the manager's, so the nesting is
// one-directional.
func (m *Manager) deliverableLocked(ch *channel, connID string, msg *telemetry.Message) bool {
	if !ch.spatial {
		return true
	}
	return m.filter.ShouldDeliver(msg, connID)
}
